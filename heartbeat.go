package mqtt

import "time"

// heartbeatMonitor fires the keep-alive tick on the connection's dispatch
// queue whenever the transport's write side has been idle for the write
// interval (half the negotiated keep-alive). The tick itself decides
// whether a PINGREQ goes out; the monitor only watches for idleness.
//
// The monitor counts suspensions of the transport's read side so that its
// read state mirrors the transport's. It has no read-side check of its own:
// the count does not affect the write-side tick, which keeps running while
// reads are suspended.
type heartbeatMonitor struct {
	queue         *DispatchQueue
	transport     Transport
	writeInterval time.Duration
	onKeepAlive   func()

	readSuspended int
	stopped       bool
}

func newHeartbeatMonitor(t Transport, writeInterval time.Duration, onKeepAlive func()) *heartbeatMonitor {
	return &heartbeatMonitor{
		queue:         t.DispatchQueue(),
		transport:     t,
		writeInterval: writeInterval,
		onKeepAlive:   onKeepAlive,
	}
}

// start schedules the first tick. Must run on the dispatch queue.
func (m *heartbeatMonitor) start() {
	m.schedule(m.writeInterval)
}

// stop prevents any further ticks. Must run on the dispatch queue.
func (m *heartbeatMonitor) stop() {
	m.stopped = true
}

// suspendRead tracks the transport's read side. Calls nest.
func (m *heartbeatMonitor) suspendRead() {
	m.readSuspended++
}

// resumeRead tracks the transport's read side.
func (m *heartbeatMonitor) resumeRead() {
	if m.readSuspended > 0 {
		m.readSuspended--
	}
}

func (m *heartbeatMonitor) schedule(d time.Duration) {
	m.queue.ExecuteAfter(d, m.tick)
}

func (m *heartbeatMonitor) tick() {
	if m.stopped {
		return
	}
	idle := time.Since(m.transport.LastWrite())
	if idle >= m.writeInterval {
		m.onKeepAlive()
		m.schedule(m.writeInterval)
		return
	}
	// Wake again when the current idle stretch would reach the interval
	m.schedule(m.writeInterval - idle)
}
