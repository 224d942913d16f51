package mqtt

// UnsubscribePacket represents an MQTT 3.1 UNSUBSCRIBE packet.
// MQTT 3.1 spec: Section 3.10
type UnsubscribePacket struct {
	PacketID uint16
	Topics   []string
}

// Type returns the packet type.
func (p *UnsubscribePacket) Type() PacketType { return PacketUNSUBSCRIBE }

// Validate validates the packet contents.
func (p *UnsubscribePacket) Validate() error {
	if len(p.Topics) == 0 {
		return ErrNoTopics
	}
	for _, t := range p.Topics {
		if err := ValidateTopicFilter(t); err != nil {
			return err
		}
	}
	return nil
}

// Encode encodes the packet into a wire frame.
// The fixed header carries QoS 1 flags per the 3.1 specification.
func (p *UnsubscribePacket) Encode() (Frame, error) {
	if err := p.Validate(); err != nil {
		return Frame{}, err
	}

	w := getBytesBuffer()
	defer putBytesBuffer(w)

	w.writeUint16(p.PacketID)
	for _, t := range p.Topics {
		w.writeString(t)
	}

	return newFrame(PacketUNSUBSCRIBE, 0x02, w.take()), nil
}

// Decode populates the packet from a wire frame.
func (p *UnsubscribePacket) Decode(f Frame) error {
	if f.Type() != PacketUNSUBSCRIBE {
		return ErrInvalidPacketType
	}

	r := getBytesReader(f.Body)
	defer putBytesReader(r)

	var err error
	if p.PacketID, err = r.readUint16(); err != nil {
		return err
	}
	p.Topics = nil
	for r.remaining() > 0 {
		t, err := r.readString()
		if err != nil {
			return err
		}
		p.Topics = append(p.Topics, t)
	}
	if len(p.Topics) == 0 {
		return ErrNoTopics
	}
	return nil
}
