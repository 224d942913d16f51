package mqtt

import "errors"

var ErrNoTopics = errors.New("at least one topic is required")

// Topic pairs a subscription filter with a requested QoS.
type Topic struct {
	Name string
	QoS  byte
}

// SubscribePacket represents an MQTT 3.1 SUBSCRIBE packet.
// MQTT 3.1 spec: Section 3.8
type SubscribePacket struct {
	PacketID uint16
	Topics   []Topic
}

// Type returns the packet type.
func (p *SubscribePacket) Type() PacketType { return PacketSUBSCRIBE }

// Validate validates the packet contents.
func (p *SubscribePacket) Validate() error {
	if len(p.Topics) == 0 {
		return ErrNoTopics
	}
	for _, t := range p.Topics {
		if err := ValidateTopicFilter(t.Name); err != nil {
			return err
		}
		if t.QoS > QoS2 {
			return ErrInvalidQoS
		}
	}
	return nil
}

// Encode encodes the packet into a wire frame.
// The fixed header carries QoS 1 flags per the 3.1 specification.
func (p *SubscribePacket) Encode() (Frame, error) {
	if err := p.Validate(); err != nil {
		return Frame{}, err
	}

	w := getBytesBuffer()
	defer putBytesBuffer(w)

	w.writeUint16(p.PacketID)
	for _, t := range p.Topics {
		w.writeString(t.Name)
		w.writeByte(t.QoS)
	}

	return newFrame(PacketSUBSCRIBE, 0x02, w.take()), nil
}

// Decode populates the packet from a wire frame.
func (p *SubscribePacket) Decode(f Frame) error {
	if f.Type() != PacketSUBSCRIBE {
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
		name, err := r.readString()
		if err != nil {
			return err
		}
		qos, err := r.readByte()
		if err != nil {
			return err
		}
		p.Topics = append(p.Topics, Topic{Name: name, QoS: qos & 0x03})
	}
	if len(p.Topics) == 0 {
		return ErrNoTopics
	}
	return nil
}
