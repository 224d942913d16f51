package mqtt

import "errors"

var ErrInvalidQoS = errors.New("invalid QoS level")

// PublishPacket represents an MQTT 3.1 PUBLISH packet.
// MQTT 3.1 spec: Section 3.3
type PublishPacket struct {
	TopicName string
	PacketID  uint16 // present on the wire only for QoS 1 and 2
	Payload   []byte
	QoS       byte
	Dup       bool
	Retain    bool
}

// Type returns the packet type.
func (p *PublishPacket) Type() PacketType { return PacketPUBLISH }

// Validate validates the packet contents.
func (p *PublishPacket) Validate() error {
	if p.QoS > QoS2 {
		return ErrInvalidQoS
	}
	return ValidateTopicName(p.TopicName)
}

// Encode encodes the packet into a wire frame.
func (p *PublishPacket) Encode() (Frame, error) {
	if err := p.Validate(); err != nil {
		return Frame{}, err
	}

	var flags byte
	flags |= (p.QoS & 0x03) << 1
	if p.Dup {
		flags |= flagDup
	}
	if p.Retain {
		flags |= flagRetain
	}

	w := getBytesBuffer()
	defer putBytesBuffer(w)

	w.writeString(p.TopicName)
	if p.QoS > QoS0 {
		w.writeUint16(p.PacketID)
	}
	w.writeBytes(p.Payload)

	return newFrame(PacketPUBLISH, flags, w.take()), nil
}

// Decode populates the packet from a wire frame.
func (p *PublishPacket) Decode(f Frame) error {
	if f.Type() != PacketPUBLISH {
		return ErrInvalidPacketType
	}

	p.QoS = f.QoS()
	if p.QoS > QoS2 {
		return ErrInvalidQoS
	}
	p.Dup = f.Dup()
	p.Retain = f.Retain()

	r := getBytesReader(f.Body)
	defer putBytesReader(r)

	var err error
	if p.TopicName, err = r.readString(); err != nil {
		return err
	}
	if p.QoS > QoS0 {
		if p.PacketID, err = r.readUint16(); err != nil {
			return err
		}
	}
	p.Payload = r.rest()
	return nil
}
