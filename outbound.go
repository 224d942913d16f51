package mqtt

// overflowEntry is a frame waiting for the transport to accept it, together
// with the transport-accept callback to complete once it does.
type overflowEntry struct {
	frame Frame
	cb    Callback[Void]
}

// outboundQueue keeps frames the transport refused in FIFO order in front
// of the transport's send buffer. While the overflow is non-empty, new
// frames append behind it so wire order always equals acceptance order.
type outboundQueue struct {
	transport Transport
	overflow  []overflowEntry
}

func newOutboundQueue(t Transport) *outboundQueue {
	return &outboundQueue{transport: t}
}

// offer hands the frame to the transport immediately when nothing is
// queued ahead of it, completing cb on acceptance; otherwise the frame
// joins the overflow tail and cb completes when the overflow drains to it.
func (q *outboundQueue) offer(f Frame, cb Callback[Void]) {
	if len(q.overflow) == 0 && q.transport.Offer(f) {
		if cb != nil {
			cb.OnSuccess(Void{})
		}
		return
	}
	q.overflow = append(q.overflow, overflowEntry{frame: f, cb: cb})
}

// drain pops overflow entries into the transport until it refuses one.
// Returns true when the overflow transitioned from non-empty to empty,
// which is the embedder's cue for more data.
func (q *outboundQueue) drain() bool {
	if len(q.overflow) == 0 {
		return false
	}
	for len(q.overflow) > 0 {
		entry := q.overflow[0]
		if !q.transport.Offer(entry.frame) {
			return false
		}
		q.overflow[0] = overflowEntry{}
		q.overflow = q.overflow[1:]
		if entry.cb != nil {
			entry.cb.OnSuccess(Void{})
		}
	}
	return true
}

// empty reports whether the overflow holds no frames.
func (q *outboundQueue) empty() bool {
	return len(q.overflow) == 0
}

// failAll clears the overflow, failing every entry's callback.
func (q *outboundQueue) failAll(err error) {
	entries := q.overflow
	q.overflow = nil
	for _, entry := range entries {
		if entry.cb != nil {
			entry.cb.OnFailure(err)
		}
	}
}
