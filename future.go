package mqtt

import (
	"context"
	"sync"
)

// Future is a single-assignment result that callers can await from any
// goroutine. It implements Callback, so it can be handed directly to the
// connection engine's asynchronous operations.
type Future[T any] struct {
	mu    sync.Mutex
	done  chan struct{}
	value T
	err   error
}

// NewFuture creates an unresolved future.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// OnSuccess resolves the future. Resolutions after the first are ignored.
func (f *Future[T]) OnSuccess(value T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	select {
	case <-f.done:
		return
	default:
	}
	f.value = value
	close(f.done)
}

// OnFailure resolves the future with an error. Resolutions after the
// first are ignored.
func (f *Future[T]) OnFailure(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	select {
	case <-f.done:
		return
	default:
	}
	f.err = err
	close(f.done)
}

// Await blocks until the future resolves or the context ends.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done returns a channel closed once the future resolves.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// FutureConnection adapts the callback engine to future-returning calls
// that are safe from any goroutine: each operation hops onto the
// connection's dispatch queue and resolves the returned future there.
//
// Creating a FutureConnection installs its listener and resumes the
// connection; inbound messages buffer until Receive claims them, and the
// transport's read side is suspended once the buffer reaches its limit and
// resumed when it drops below it.
type FutureConnection struct {
	conn  *CallbackConnection
	queue *DispatchQueue

	// Dispatch-queue-confined receive state
	messages  []*Message
	receivers []*Future[*Message]
	suspended bool
	failure   error
}

// NewFutureConnection wraps a connection engine. The engine must not have
// a listener installed already.
func NewFutureConnection(conn *CallbackConnection) *FutureConnection {
	fc := &FutureConnection{
		conn:  conn,
		queue: conn.DispatchQueue(),
	}
	fc.queue.Execute(func() {
		conn.SetListener(fc)
		conn.Resume()
	})
	return fc
}

// Connection returns the wrapped engine.
func (fc *FutureConnection) Connection() *CallbackConnection { return fc.conn }

// OnPublish buffers or hands off one inbound message. Runs on the
// dispatch queue as the engine's listener.
func (fc *FutureConnection) OnPublish(topic string, payload []byte, ack func()) {
	msg := &Message{
		Topic:   topic,
		Payload: payload,
		// The engine's ack completion must run on the dispatch queue;
		// the application calls Ack from its own goroutine.
		ack: func() {
			fc.queue.Execute(ack)
		},
	}

	if len(fc.receivers) > 0 {
		receiver := fc.receivers[0]
		fc.receivers = fc.receivers[1:]
		receiver.OnSuccess(msg)
		return
	}

	fc.messages = append(fc.messages, msg)
	if !fc.suspended && len(fc.messages) >= fc.conn.options.receiveBufferSize {
		fc.suspended = true
		fc.conn.Suspend()
	}
}

// OnFailure fails pending and future receives. Runs on the dispatch queue
// as the engine's listener.
func (fc *FutureConnection) OnFailure(err error) {
	fc.failure = err
	receivers := fc.receivers
	fc.receivers = nil
	for _, r := range receivers {
		r.OnFailure(err)
	}
}

// Publish sends an application message.
func (fc *FutureConnection) Publish(topic string, payload []byte, qos byte, retain bool) *Future[Void] {
	f := NewFuture[Void]()
	fc.queue.Execute(func() {
		fc.conn.Publish(topic, payload, qos, retain, f)
	})
	return f
}

// Subscribe requests subscriptions; the future resolves with the granted
// QoS byte per topic.
func (fc *FutureConnection) Subscribe(topics []Topic) *Future[[]byte] {
	f := NewFuture[[]byte]()
	fc.queue.Execute(func() {
		fc.conn.Subscribe(topics, f)
	})
	return f
}

// Unsubscribe removes subscriptions.
func (fc *FutureConnection) Unsubscribe(topics []string) *Future[Void] {
	f := NewFuture[Void]()
	fc.queue.Execute(func() {
		fc.conn.Unsubscribe(topics, f)
	})
	return f
}

// Disconnect shuts the connection down cleanly.
func (fc *FutureConnection) Disconnect() *Future[Void] {
	f := NewFuture[Void]()
	fc.queue.Execute(func() {
		fc.conn.Disconnect(f)
	})
	return f
}

// Receive resolves with the next inbound message. Messages resolve in
// delivery order across queued and future receives.
func (fc *FutureConnection) Receive() *Future[*Message] {
	f := NewFuture[*Message]()
	fc.queue.Execute(func() {
		if len(fc.messages) > 0 {
			msg := fc.messages[0]
			fc.messages = fc.messages[1:]
			if fc.suspended && len(fc.messages) < fc.conn.options.receiveBufferSize {
				fc.suspended = false
				fc.conn.Resume()
			}
			f.OnSuccess(msg)
			return
		}
		if fc.failure != nil {
			f.OnFailure(fc.failure)
			return
		}
		fc.receivers = append(fc.receivers, f)
	})
	return f
}
