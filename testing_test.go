package mqtt

import (
	"testing"
	"time"
)

// fakeTransport is a scripted Transport for driving the connection engine
// without a socket. All state is confined to its dispatch queue; tests
// interact with it through onQueue.
type fakeTransport struct {
	queue    *DispatchQueue
	listener TransportListener

	frames    []Frame
	full      bool
	allowance int // when >= 0, accepted offers decrement it; 0 refuses
	lastWrite time.Time
	stopCalls int
	suspends  int
	resumes   int
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		queue:     NewDispatchQueue("test"),
		allowance: -1,
		lastWrite: time.Now(),
	}
}

func (t *fakeTransport) Offer(f Frame) bool {
	if t.full || t.allowance == 0 {
		return false
	}
	if t.allowance > 0 {
		t.allowance--
	}
	t.frames = append(t.frames, f)
	t.lastWrite = time.Now()
	return true
}

func (t *fakeTransport) Full() bool { return t.full }

func (t *fakeTransport) SuspendRead() { t.suspends++ }

func (t *fakeTransport) ResumeRead() { t.resumes++ }

func (t *fakeTransport) SetListener(l TransportListener) { t.listener = l }

func (t *fakeTransport) DispatchQueue() *DispatchQueue { return t.queue }

func (t *fakeTransport) LastWrite() time.Time { return t.lastWrite }

func (t *fakeTransport) Stop(onStopped func()) {
	t.stopCalls++
	t.queue.Execute(func() {
		if onStopped != nil {
			onStopped()
		}
	})
}

// deliver encodes a packet and hands it to the transport listener as an
// inbound frame.
func (t *fakeTransport) deliver(tb testing.TB, p Packet) {
	tb.Helper()
	frame, err := p.Encode()
	if err != nil {
		tb.Fatalf("encode %s: %v", p.Type(), err)
	}
	onQueue(tb, t.queue, func() {
		t.listener.OnCommand(frame)
	})
}

// refill marks the transport writable again and raises the refill signal.
func (t *fakeTransport) refill(tb testing.TB) {
	tb.Helper()
	onQueue(tb, t.queue, func() {
		t.full = false
		t.listener.OnRefill()
	})
}

// fail raises a terminal transport failure.
func (t *fakeTransport) fail(tb testing.TB, err error) {
	tb.Helper()
	onQueue(tb, t.queue, func() {
		t.listener.OnFailure(err)
	})
}

// onQueue runs fn on the dispatch queue and waits for it to finish.
func onQueue(tb testing.TB, q *DispatchQueue, fn func()) {
	tb.Helper()
	done := make(chan struct{})
	q.Execute(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		tb.Fatal("dispatch queue task timed out")
	}
}

// recorder collects callback resolutions. Confined to the dispatch queue.
type recorder[T any] struct {
	successes []T
	failures  []error
}

func (r *recorder[T]) OnSuccess(value T) { r.successes = append(r.successes, value) }
func (r *recorder[T]) OnFailure(err error) {
	r.failures = append(r.failures, err)
}

// recordingListener collects deliveries and failure notifications.
type recordingListener struct {
	topics   []string
	payloads [][]byte
	acks     []func()
	failures []error
}

func (l *recordingListener) OnPublish(topic string, payload []byte, ack func()) {
	l.topics = append(l.topics, topic)
	l.payloads = append(l.payloads, payload)
	l.acks = append(l.acks, ack)
}

func (l *recordingListener) OnFailure(err error) {
	l.failures = append(l.failures, err)
}

// newTestConnection builds an engine over a fake transport with the
// heartbeat disabled.
func newTestConnection(tb testing.TB, opts ...Option) (*CallbackConnection, *fakeTransport) {
	tb.Helper()
	ft := newFakeTransport()
	opts = append([]Option{WithKeepAlive(0)}, opts...)
	conn := NewCallbackConnection(ft, opts...)
	return conn, ft
}
