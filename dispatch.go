package mqtt

import (
	"bytes"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// DispatchQueue is a serial executor. Tasks run one at a time, in
// submission order, on a single dedicated goroutine. The transport owns a
// queue and serializes all of its callbacks onto it; the connection engine
// requires every public call to arrive on the same queue.
type DispatchQueue struct {
	label string

	mu     sync.Mutex
	cond   *sync.Cond
	tasks  []func()
	closed bool

	workerID atomic.Int64
	done     chan struct{}
}

// NewDispatchQueue creates a queue and starts its worker goroutine.
func NewDispatchQueue(label string) *DispatchQueue {
	q := &DispatchQueue{
		label: label,
		done:  make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	go q.run()
	return q
}

// Label returns the queue's diagnostic label.
func (q *DispatchQueue) Label() string { return q.label }

// Execute submits a task. Tasks submitted after Close are dropped.
func (q *DispatchQueue) Execute(task func()) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.tasks = append(q.tasks, task)
	q.mu.Unlock()
	q.cond.Signal()
}

// ExecuteAfter submits a task after the given delay. The returned timer
// may be stopped to cancel a submission that has not fired yet.
func (q *DispatchQueue) ExecuteAfter(d time.Duration, task func()) *time.Timer {
	return time.AfterFunc(d, func() {
		q.Execute(task)
	})
}

// Executing reports whether the caller is running on this queue.
func (q *DispatchQueue) Executing() bool {
	return goroutineID() == q.workerID.Load()
}

// AssertExecuting panics if the caller is not running on this queue.
// Driving the connection from another goroutine is a contract violation
// that would race all of its state.
func (q *DispatchQueue) AssertExecuting() {
	if !q.Executing() {
		panic(fmt.Sprintf("mqtt: %q dispatch queue method called from a foreign goroutine", q.label))
	}
}

// Close stops the worker after the already-submitted tasks drain.
// Close is idempotent and safe from any goroutine, including the queue
// itself.
func (q *DispatchQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()
	q.cond.Signal()
}

// Done returns a channel closed once the worker has exited.
func (q *DispatchQueue) Done() <-chan struct{} { return q.done }

func (q *DispatchQueue) run() {
	q.workerID.Store(goroutineID())
	defer close(q.done)

	for {
		q.mu.Lock()
		for len(q.tasks) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.tasks) == 0 && q.closed {
			q.mu.Unlock()
			return
		}
		batch := q.tasks
		q.tasks = nil
		q.mu.Unlock()

		for _, task := range batch {
			task()
		}
	}
}

var goroutinePrefix = []byte("goroutine ")

// goroutineID extracts the current goroutine's id from the runtime stack
// header. Used only for the execution-context assertion.
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := bytes.TrimPrefix(buf[:n], goroutinePrefix)
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return -1
	}
	return id
}
