package mqtt

import (
	"fmt"
	"time"
)

// CallbackConnection is the non-blocking MQTT 3.1 connection engine. It
// runs entirely on the dispatch queue supplied by its transport: every
// public method must be invoked on that queue, and every callback -
// operation callbacks, listener deliveries, the refiller - is invoked
// there too. Nothing blocks; apparent waiting is a stored continuation
// resumed by a later transport event.
type CallbackConnection struct {
	queue     *DispatchQueue
	transport Transport
	options   *options
	logger    Logger

	listener Listener
	refiller func()

	ids       *messageIDAllocator
	inflight  *inFlightTable
	outbound  *outboundQueue
	heartbeat *heartbeatMonitor

	connected bool
	failure   error

	// pingedAt is the send time of the PINGREQ currently awaiting its
	// PINGRESP; zero when none is outstanding.
	pingedAt time.Time
}

// NewCallbackConnection builds a connection engine over an established,
// authenticated transport. The CONNECT/CONNACK handshake must already have
// completed (Dial does both). The connection starts with the keep-alive
// monitor tracking the transport's suspended read side; call Resume once a
// listener is installed.
func NewCallbackConnection(t Transport, opts ...Option) *CallbackConnection {
	return newCallbackConnection(t, applyOptions(opts...))
}

func newCallbackConnection(t Transport, o *options) *CallbackConnection {
	c := &CallbackConnection{
		queue:     t.DispatchQueue(),
		transport: t,
		options:   o,
		logger:    o.logger,
		listener:  defaultListener{},
		ids:       newMessageIDAllocator(),
		inflight:  newInFlightTable(),
		outbound:  newOutboundQueue(t),
		connected: true,
	}

	t.SetListener(&transportEvents{c: c})

	if o.keepAlive > 0 {
		keepAlive := time.Duration(o.keepAlive) * time.Second
		c.heartbeat = newHeartbeatMonitor(t, keepAlive/2, c.onKeepAlive)
		// Match the suspended state of the transport's read side
		c.heartbeat.suspendRead()
		c.queue.Execute(c.heartbeat.start)
	}

	return c
}

// transportEvents adapts transport callbacks onto the connection.
type transportEvents struct {
	c *CallbackConnection
}

func (e *transportEvents) OnCommand(f Frame) { e.c.processFrame(f) }

func (e *transportEvents) OnRefill() { e.c.drainOverflow() }

func (e *transportEvents) OnFailure(err error) {
	e.c.processFailure(&ConnectionLostError{Cause: err})
}

// DispatchQueue returns the serial context the connection runs on.
func (c *CallbackConnection) DispatchQueue() *DispatchQueue { return c.queue }

// Transport returns the underlying transport.
func (c *CallbackConnection) Transport() Transport { return c.transport }

// Resume resumes the transport's read side and releases one read
// suspension recorded by the heartbeat monitor.
func (c *CallbackConnection) Resume() {
	c.queue.AssertExecuting()
	c.transport.ResumeRead()
	if c.heartbeat != nil {
		c.heartbeat.resumeRead()
	}
}

// Suspend pauses the transport's read side and records the suspension in
// the heartbeat monitor.
func (c *CallbackConnection) Suspend() {
	c.queue.AssertExecuting()
	c.transport.SuspendRead()
	if c.heartbeat != nil {
		c.heartbeat.suspendRead()
	}
}

// SetListener installs the delivery listener.
func (c *CallbackConnection) SetListener(l Listener) {
	c.queue.AssertExecuting()
	if l == nil {
		l = defaultListener{}
	}
	c.listener = l
}

// SetRefiller installs the callback invoked when the outbound overflow
// drains, signalling that the connection can accept more frames.
func (c *CallbackConnection) SetRefiller(r func()) {
	c.queue.AssertExecuting()
	c.refiller = r
}

// Full reports whether the transport currently refuses offers.
func (c *CallbackConnection) Full() bool {
	c.queue.AssertExecuting()
	return c.transport.Full()
}

// Failure returns the terminal failure, or nil while the connection is
// healthy.
func (c *CallbackConnection) Failure() error {
	c.queue.AssertExecuting()
	return c.failure
}

// Publish sends an application message. The callback completes when the
// transport accepts the frame (QoS 0), on PUBACK (QoS 1), or on PUBCOMP
// (QoS 2). cb may be nil for fire-and-forget QoS 0 publishes.
func (c *CallbackConnection) Publish(topic string, payload []byte, qos byte, retain bool, cb Callback[Void]) {
	c.queue.AssertExecuting()

	if c.failure != nil {
		if cb != nil {
			cb.OnFailure(c.failure)
		}
		return
	}

	pkt := &PublishPacket{
		TopicName: topic,
		Payload:   payload,
		QoS:       qos,
		Retain:    retain,
	}

	if qos > QoS0 {
		id := c.ids.allocate()
		pkt.PacketID = id
		frame, err := pkt.Encode()
		if err != nil {
			if cb != nil {
				cb.OnFailure(err)
			}
			return
		}
		c.inflight.store(id, &request{frame: frame, cb: pending{onVoid: cb}})
		c.outbound.offer(frame, nil)
		return
	}

	frame, err := pkt.Encode()
	if err != nil {
		if cb != nil {
			cb.OnFailure(err)
		}
		return
	}
	c.outbound.offer(frame, cb)
}

// Subscribe requests the given subscriptions. The callback completes on
// SUBACK with the granted QoS byte per topic, in request order. Fails
// synchronously when no listener is installed: deliveries would be
// silently lost.
func (c *CallbackConnection) Subscribe(topics []Topic, cb Callback[[]byte]) {
	c.queue.AssertExecuting()

	if _, unset := c.listener.(defaultListener); unset {
		cb.OnFailure(ErrListenerNotSet)
		return
	}
	if c.failure != nil {
		cb.OnFailure(c.failure)
		return
	}

	id := c.ids.allocate()
	frame, err := (&SubscribePacket{PacketID: id, Topics: topics}).Encode()
	if err != nil {
		cb.OnFailure(err)
		return
	}
	c.inflight.store(id, &request{frame: frame, cb: pending{onGranted: cb}})
	c.outbound.offer(frame, nil)
}

// Unsubscribe removes the given subscriptions. The callback completes on
// UNSUBACK.
func (c *CallbackConnection) Unsubscribe(topics []string, cb Callback[Void]) {
	c.queue.AssertExecuting()

	if c.failure != nil {
		if cb != nil {
			cb.OnFailure(c.failure)
		}
		return
	}

	id := c.ids.allocate()
	frame, err := (&UnsubscribePacket{PacketID: id, Topics: topics}).Encode()
	if err != nil {
		if cb != nil {
			cb.OnFailure(err)
		}
		return
	}
	c.inflight.store(id, &request{frame: frame, cb: pending{onVoid: cb}})
	c.outbound.offer(frame, nil)
}

// Disconnect sends DISCONNECT, flushes it, stops the transport, and then
// completes onComplete. The DISCONNECT is tracked like an acked request so
// a failure between send and flush still runs the stop path; the stop
// action itself runs at most once.
func (c *CallbackConnection) Disconnect(onComplete Callback[Void]) {
	c.queue.AssertExecuting()

	c.connected = false
	if c.heartbeat != nil {
		c.heartbeat.stop()
	}

	requestID := c.ids.allocate()

	stopped := false
	stop := func() {
		if stopped {
			return
		}
		stopped = true
		c.inflight.remove(requestID)
		c.transport.Stop(func() {
			if onComplete != nil {
				onComplete.OnSuccess(Void{})
			}
		})
	}

	if c.failure != nil {
		stop()
		return
	}

	// Fires when the transport accepts the DISCONNECT frame. The one-shot
	// refiller defers the stop until everything queued ahead of the frame
	// has flushed; the transport's stop drains its own send buffer.
	cb := NewCallback(
		func(Void) {
			c.refiller = stop
			if c.outbound.empty() {
				stop()
			}
		},
		func(error) {
			stop()
		},
	)

	frame, _ := (&DisconnectPacket{}).Encode()
	c.inflight.store(requestID, &request{frame: frame, cb: pending{onVoid: cb}})
	c.outbound.offer(frame, cb)
}

// drainOverflow moves queued frames into the transport until it refuses
// one, invoking the refiller once when the overflow transitions to empty.
func (c *CallbackConnection) drainOverflow() {
	c.queue.AssertExecuting()

	if !c.outbound.drain() {
		return
	}
	if c.refiller != nil {
		refiller := c.refiller
		defer func() {
			if v := recover(); v != nil {
				fault(recovered(v))
			}
		}()
		refiller()
	}
}

// onKeepAlive runs on each idle tick of the heartbeat monitor. A PINGREQ
// is sent only when none is outstanding and the transport accepts it; a
// refused offer just means data is already flowing outbound.
func (c *CallbackConnection) onKeepAlive() {
	if !c.connected || !c.pingedAt.IsZero() {
		return
	}
	frame, _ := (&PingreqPacket{}).Encode()
	if !c.transport.Offer(frame) {
		return
	}

	now := time.Now()
	c.pingedAt = now
	keepAlive := time.Duration(c.options.keepAlive) * time.Second
	c.queue.ExecuteAfter(keepAlive, func() {
		// Still the same outstanding ping: no PINGRESP arrived and no
		// later PINGREQ superseded it.
		if c.pingedAt.Equal(now) {
			c.processFailure(ErrPingTimeout)
		}
	})
}

// completeRequest resolves the in-flight request stored under id. An
// unknown id, or a stored frame whose type does not match the
// acknowledgement received, is a protocol failure.
func (c *CallbackConnection) completeRequest(id uint16, expected PacketType, granted []byte) {
	req, ok := c.inflight.remove(id)
	if !ok {
		c.processFailure(fmt.Errorf("%w: %d", ErrInvalidMessageID, id))
		return
	}
	if req.frame.Type() != expected {
		err := fmt.Errorf("%w: %s acknowledged as %s",
			ErrProtocolViolation, req.frame.Type(), expected)
		c.processFailure(err)
		req.cb.fail(err)
		return
	}
	req.cb.succeed(granted)
}

// processFrame handles one inbound frame from the transport.
func (c *CallbackConnection) processFrame(f Frame) {
	c.queue.AssertExecuting()

	// The connection is terminal; late frames must not trigger callbacks
	// or acknowledgements.
	if c.failure != nil {
		return
	}

	if err := c.handleFrame(f); err != nil {
		c.processFailure(err)
	}
}

func (c *CallbackConnection) handleFrame(f Frame) error {
	switch f.Type() {
	case PacketPUBLISH:
		var pkt PublishPacket
		if err := pkt.Decode(f); err != nil {
			return err
		}
		c.toReceiver(&pkt)

	case PacketPUBREL:
		var pkt PubrelPacket
		if err := pkt.Decode(f); err != nil {
			return err
		}
		c.inflight.clearProcessed(pkt.PacketID)
		c.sendAck(&PubcompPacket{PacketID: pkt.PacketID})

	case PacketPUBACK:
		var pkt PubackPacket
		if err := pkt.Decode(f); err != nil {
			return err
		}
		c.completeRequest(pkt.PacketID, PacketPUBLISH, nil)

	case PacketPUBREC:
		var pkt PubrecPacket
		if err := pkt.Decode(f); err != nil {
			return err
		}
		c.sendAck(&PubrelPacket{PacketID: pkt.PacketID})

	case PacketPUBCOMP:
		var pkt PubcompPacket
		if err := pkt.Decode(f); err != nil {
			return err
		}
		c.completeRequest(pkt.PacketID, PacketPUBLISH, nil)

	case PacketSUBACK:
		var pkt SubackPacket
		if err := pkt.Decode(f); err != nil {
			return err
		}
		c.completeRequest(pkt.PacketID, PacketSUBSCRIBE, pkt.GrantedQoS)

	case PacketUNSUBACK:
		var pkt UnsubackPacket
		if err := pkt.Decode(f); err != nil {
			return err
		}
		c.completeRequest(pkt.PacketID, PacketUNSUBSCRIBE, nil)

	case PacketPINGRESP:
		c.pingedAt = time.Time{}

	default:
		return fmt.Errorf("%w: %s", ErrUnexpectedPacket, f.Type())
	}
	return nil
}

// sendAck encodes and queues a protocol acknowledgement with no callback.
func (c *CallbackConnection) sendAck(p Packet) {
	frame, _ := p.Encode()
	c.outbound.offer(frame, nil)
}

// toReceiver delivers an inbound PUBLISH to the listener with the ack
// completion appropriate for its QoS. A panicking listener is a terminal
// failure: the delivery contract is broken.
func (c *CallbackConnection) toReceiver(pkt *PublishPacket) {
	defer func() {
		if v := recover(); v != nil {
			c.processFailure(recovered(v))
		}
	}()

	ack := func() {}
	switch pkt.QoS {
	case QoS1:
		id := pkt.PacketID
		ack = func() {
			c.sendAck(&PubackPacket{PacketID: id})
		}
	case QoS2:
		id := pkt.PacketID
		ack = func() {
			c.inflight.markProcessed(id)
			c.sendAck(&PubrecPacket{PacketID: id})
		}
		// A duplicate of a message already handed to the listener:
		// re-acknowledge without re-delivering.
		if c.inflight.isProcessed(id) {
			ack()
			return
		}
	}
	c.listener.OnPublish(pkt.TopicName, pkt.Payload, ack)
}

// processFailure records the terminal failure and fails every pending
// continuation exactly once. The first failure wins; later calls are
// no-ops.
func (c *CallbackConnection) processFailure(err error) {
	if c.failure != nil {
		return
	}
	c.failure = err
	c.logger.Error("connection failed", LogFields{LogFieldError: err})

	if c.heartbeat != nil {
		c.heartbeat.stop()
	}

	for _, req := range c.inflight.takeAll() {
		req.cb.fail(err)
	}
	c.outbound.failAll(err)

	func() {
		defer func() {
			if v := recover(); v != nil {
				fault(recovered(v))
			}
		}()
		c.listener.OnFailure(err)
	}()
}
