package mqtt

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchQueueSerialOrder(t *testing.T) {
	q := NewDispatchQueue("order")
	defer q.Close()

	var order []int
	var wg sync.WaitGroup
	wg.Add(100)

	// Submissions from many goroutines all run, one at a time: the
	// unsynchronized append relies on no two tasks running together.
	for i := 0; i < 100; i++ {
		i := i
		go func() {
			q.Execute(func() {
				order = append(order, i)
				wg.Done()
			})
		}()
	}
	wg.Wait()

	assert.Len(t, order, 100)
}

func TestDispatchQueueExecuting(t *testing.T) {
	q := NewDispatchQueue("executing")
	defer q.Close()

	assert.False(t, q.Executing())

	onQueue(t, q, func() {
		assert.True(t, q.Executing())
		assert.NotPanics(t, q.AssertExecuting)
	})

	assert.Panics(t, q.AssertExecuting)
}

func TestDispatchQueueExecuteAfter(t *testing.T) {
	q := NewDispatchQueue("timer")
	defer q.Close()

	fired := make(chan struct{})
	start := time.Now()
	q.ExecuteAfter(20*time.Millisecond, func() {
		close(fired)
	})

	select {
	case <-fired:
		assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	case <-time.After(5 * time.Second):
		t.Fatal("timer task never ran")
	}
}

func TestDispatchQueueExecuteAfterCancel(t *testing.T) {
	q := NewDispatchQueue("cancel")
	defer q.Close()

	timer := q.ExecuteAfter(50*time.Millisecond, func() {
		t.Error("canceled task ran")
	})
	require.True(t, timer.Stop())
	time.Sleep(100 * time.Millisecond)
}

func TestDispatchQueueCloseDrains(t *testing.T) {
	q := NewDispatchQueue("close")

	ran := 0
	for i := 0; i < 10; i++ {
		q.Execute(func() { ran++ })
	}
	q.Close()

	select {
	case <-q.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("queue never drained")
	}
	assert.Equal(t, 10, ran)

	// Submissions after Close are dropped, not executed
	q.Execute(func() { t.Error("task ran after Close") })
	time.Sleep(20 * time.Millisecond)
}
