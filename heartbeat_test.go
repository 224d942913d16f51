package mqtt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeartbeatMonitorFiresWhenIdle(t *testing.T) {
	ft := newFakeTransport()
	defer ft.queue.Close()

	fires := 0
	var monitor *heartbeatMonitor
	onQueue(t, ft.queue, func() {
		ft.lastWrite = time.Now().Add(-time.Second)
		monitor = newHeartbeatMonitor(ft, 20*time.Millisecond, func() { fires++ })
		monitor.start()
	})

	time.Sleep(100 * time.Millisecond)

	onQueue(t, ft.queue, func() {
		assert.GreaterOrEqual(t, fires, 2)
		monitor.stop()
	})
}

func TestHeartbeatMonitorDefersWhileTrafficFlows(t *testing.T) {
	ft := newFakeTransport()
	defer ft.queue.Close()

	fires := 0
	var monitor *heartbeatMonitor
	onQueue(t, ft.queue, func() {
		monitor = newHeartbeatMonitor(ft, 60*time.Millisecond, func() { fires++ })
		monitor.start()
	})

	// Keep the write side busy; the tick keeps rescheduling
	for i := 0; i < 5; i++ {
		time.Sleep(20 * time.Millisecond)
		onQueue(t, ft.queue, func() {
			ft.lastWrite = time.Now()
		})
	}

	onQueue(t, ft.queue, func() {
		assert.Zero(t, fires)
		monitor.stop()
	})
}

func TestHeartbeatMonitorStop(t *testing.T) {
	ft := newFakeTransport()
	defer ft.queue.Close()

	fires := 0
	onQueue(t, ft.queue, func() {
		ft.lastWrite = time.Now().Add(-time.Second)
		monitor := newHeartbeatMonitor(ft, 10*time.Millisecond, func() { fires++ })
		monitor.start()
		monitor.stop()
	})

	time.Sleep(50 * time.Millisecond)
	onQueue(t, ft.queue, func() {
		assert.Zero(t, fires)
	})
}

func TestKeepAlivePing(t *testing.T) {
	ft := newFakeTransport()
	conn := NewCallbackConnection(ft, WithKeepAlive(1))

	// The write interval is half the keep-alive: expect a PINGREQ shortly
	// after 500ms of idle
	require.Eventually(t, func() bool {
		return wireCount(t, ft) >= 1
	}, 2*time.Second, 20*time.Millisecond)

	f := wireFrame(t, ft, 0)
	assert.Equal(t, PacketPINGREQ, f.Type())

	onQueue(t, ft.queue, func() {
		assert.False(t, conn.pingedAt.IsZero())
	})

	// PINGRESP clears the outstanding ping and no failure follows
	ft.deliver(t, &PingrespPacket{})
	onQueue(t, ft.queue, func() {
		assert.True(t, conn.pingedAt.IsZero())
	})

	// Answer any further pings while waiting out the first ping's
	// deferred timeout check
	answered := 1
	deadline := time.Now().Add(1200 * time.Millisecond)
	for time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
		pings := 0
		onQueue(t, ft.queue, func() {
			for _, f := range ft.frames {
				if f.Type() == PacketPINGREQ {
					pings++
				}
			}
		})
		for ; answered < pings; answered++ {
			ft.deliver(t, &PingrespPacket{})
		}
	}

	onQueue(t, ft.queue, func() {
		assert.NoError(t, conn.Failure())
	})
}

func TestKeepAlivePingTimeout(t *testing.T) {
	ft := newFakeTransport()
	conn := NewCallbackConnection(ft, WithKeepAlive(1))

	pending := &recorder[Void]{}
	onQueue(t, ft.queue, func() {
		conn.SetListener(&recordingListener{})
		conn.Publish("t", nil, QoS1, false, pending)
	})

	// No PINGRESP ever arrives: the deferred check fails the connection
	// one keep-alive interval after the PINGREQ
	require.Eventually(t, func() bool {
		var failed bool
		onQueue(t, ft.queue, func() { failed = conn.Failure() != nil })
		return failed
	}, 3*time.Second, 50*time.Millisecond)

	onQueue(t, ft.queue, func() {
		assert.ErrorIs(t, conn.Failure(), ErrPingTimeout)

		// Pending requests fail with the ping timeout
		require.Len(t, pending.failures, 1)
		assert.ErrorIs(t, pending.failures[0], ErrPingTimeout)
		assert.Equal(t, 0, conn.inflight.len())
	})
}
