package mqtt

import (
	"context"
	"crypto/tls"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// TransportListener receives the transport's events. Implementations of
// Transport invoke every method on the transport's dispatch queue.
type TransportListener interface {
	// OnCommand delivers one inbound frame.
	OnCommand(f Frame)

	// OnRefill signals that the send buffer drained after refusing an
	// offer and can accept frames again.
	OnRefill()

	// OnFailure reports a terminal transport error.
	OnFailure(err error)
}

// Transport is a framed, non-blocking byte transport bound to a serial
// dispatch queue. Offer either accepts a frame immediately or refuses it;
// a refused transport later raises OnRefill once it has drained.
type Transport interface {
	// Offer attempts to enqueue a frame without blocking.
	Offer(f Frame) bool

	// Full reports whether Offer would currently refuse a frame.
	Full() bool

	// SuspendRead pauses inbound frame delivery. Calls nest.
	SuspendRead()

	// ResumeRead resumes inbound frame delivery.
	ResumeRead()

	// Stop shuts the transport down and runs onStopped on the dispatch
	// queue once both directions have terminated.
	Stop(onStopped func())

	// SetListener installs the event listener.
	SetListener(l TransportListener)

	// DispatchQueue returns the serial context all callbacks run on.
	DispatchQueue() *DispatchQueue

	// LastWrite returns the time the transport last accepted a frame.
	LastWrite() time.Time
}

// Conn represents a network connection carrying MQTT frames.
type Conn interface {
	net.Conn
}

// Dialer establishes network connections for MQTT transports.
type Dialer interface {
	// Dial connects to the host:port address with the given context.
	Dial(ctx context.Context, address string) (Conn, error)
}

// TCPDialer connects to MQTT servers over TCP.
type TCPDialer struct {
	// Timeout is the maximum time to wait for a connection.
	// Zero means no timeout.
	Timeout time.Duration
}

// Dial connects to the address.
func (d *TCPDialer) Dial(ctx context.Context, address string) (Conn, error) {
	var dialer net.Dialer
	if d.Timeout > 0 {
		dialer.Timeout = d.Timeout
	}
	return dialer.DialContext(ctx, "tcp", address)
}

// TLSDialer connects to MQTT servers over TLS.
type TLSDialer struct {
	// Config is the TLS configuration.
	Config *tls.Config

	// Timeout is the maximum time to wait for a connection.
	// Zero means no timeout.
	Timeout time.Duration
}

// Dial connects to the address.
func (d *TLSDialer) Dial(ctx context.Context, address string) (Conn, error) {
	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{
			Timeout: d.Timeout,
		},
		Config: d.Config,
	}
	return dialer.DialContext(ctx, "tcp", address)
}

// netTransport frames an established net.Conn and owns the connection's
// dispatch queue. Writes go through a bounded buffer drained by a writer
// goroutine; a rejected Offer is answered with OnRefill once the buffer
// empties. Reads are gated so the connection can suspend delivery without
// tearing down the socket.
type netTransport struct {
	conn  Conn
	queue *DispatchQueue

	listener TransportListener

	out       chan Frame
	rejected  atomic.Bool
	lastWrite atomic.Int64 // unix nanos

	readGate     sync.Mutex
	readCond     *sync.Cond
	suspendCount int

	maxFrameSize uint32

	stopOnce  sync.Once
	stopping  atomic.Bool
	writeDone chan struct{}
	readDone  chan struct{}
}

// NewTransport wraps an established connection. The transport starts with
// its read side suspended; call ResumeRead (or CallbackConnection.Resume)
// to begin delivering frames. sendBufferSize bounds the number of frames
// buffered ahead of the socket.
func NewTransport(conn Conn, queueLabel string, sendBufferSize int, maxFrameSize uint32) Transport {
	if sendBufferSize <= 0 {
		sendBufferSize = defaultSendBufferSize
	}
	t := &netTransport{
		conn:         conn,
		queue:        NewDispatchQueue(queueLabel),
		out:          make(chan Frame, sendBufferSize),
		maxFrameSize: maxFrameSize,
		suspendCount: 1,
		writeDone:    make(chan struct{}),
		readDone:     make(chan struct{}),
	}
	t.readCond = sync.NewCond(&t.readGate)
	t.lastWrite.Store(time.Now().UnixNano())
	go t.writeLoop()
	go t.readLoop()
	return t
}

// SetListener installs the event listener.
func (t *netTransport) SetListener(l TransportListener) {
	t.listener = l
}

// DispatchQueue returns the transport's serial context.
func (t *netTransport) DispatchQueue() *DispatchQueue { return t.queue }

// LastWrite returns the time the transport last accepted a frame.
func (t *netTransport) LastWrite() time.Time {
	return time.Unix(0, t.lastWrite.Load())
}

// Offer attempts to enqueue a frame without blocking.
func (t *netTransport) Offer(f Frame) bool {
	if t.stopping.Load() {
		return false
	}
	select {
	case t.out <- f:
		t.lastWrite.Store(time.Now().UnixNano())
		return true
	default:
	}
	t.rejected.Store(true)
	// The writer may have drained the buffer between the failed send and
	// the rejected mark; without this recheck no refill would ever fire.
	if len(t.out) == 0 && t.rejected.Swap(false) {
		t.queue.Execute(func() {
			if t.listener != nil {
				t.listener.OnRefill()
			}
		})
	}
	return false
}

// Full reports whether the send buffer is at capacity.
func (t *netTransport) Full() bool {
	return len(t.out) == cap(t.out)
}

// SuspendRead pauses inbound frame delivery.
func (t *netTransport) SuspendRead() {
	t.readGate.Lock()
	t.suspendCount++
	t.readGate.Unlock()
}

// ResumeRead resumes inbound frame delivery.
func (t *netTransport) ResumeRead() {
	t.readGate.Lock()
	if t.suspendCount > 0 {
		t.suspendCount--
	}
	t.readGate.Unlock()
	t.readCond.Signal()
}

// Stop closes the connection and, once the writer and reader have exited,
// runs onStopped on the dispatch queue and closes the queue. Stop must be
// serialized with Offer calls; the connection engine invokes both on the
// dispatch queue.
func (t *netTransport) Stop(onStopped func()) {
	t.stopOnce.Do(func() {
		t.stopping.Store(true)
		close(t.out)

		// Unblock a suspended reader so it can observe the closed conn
		t.readGate.Lock()
		t.suspendCount = 0
		t.readGate.Unlock()
		t.readCond.Signal()

		go func() {
			<-t.writeDone
			t.conn.Close()
			<-t.readDone
			t.queue.Execute(func() {
				if onStopped != nil {
					onStopped()
				}
				t.queue.Close()
			})
		}()
	})
}

func (t *netTransport) writeLoop() {
	defer close(t.writeDone)

	for f := range t.out {
		if _, err := WriteFrame(t.conn, f); err != nil {
			t.failure(err)
			return
		}
		if len(t.out) == 0 && t.rejected.Swap(false) {
			t.queue.Execute(func() {
				if t.listener != nil {
					t.listener.OnRefill()
				}
			})
		}
	}
}

func (t *netTransport) readLoop() {
	defer close(t.readDone)

	for {
		t.readGate.Lock()
		for t.suspendCount > 0 && !t.stopping.Load() {
			t.readCond.Wait()
		}
		t.readGate.Unlock()

		f, _, err := ReadFrame(t.conn, t.maxFrameSize)
		if err != nil {
			if !t.stopping.Load() {
				t.failure(err)
			}
			return
		}

		t.queue.Execute(func() {
			if t.listener != nil {
				t.listener.OnCommand(f)
			}
		})
	}
}

// failure reports a terminal transport error on the dispatch queue.
func (t *netTransport) failure(err error) {
	if t.stopping.Swap(true) {
		return
	}
	t.queue.Execute(func() {
		if t.listener != nil {
			t.listener.OnFailure(err)
		}
	})
}
