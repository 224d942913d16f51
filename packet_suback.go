package mqtt

// SubackPacket represents an MQTT 3.1 SUBACK packet.
// GrantedQoS holds one granted QoS byte per requested topic, in order.
// MQTT 3.1 spec: Section 3.9
type SubackPacket struct {
	PacketID   uint16
	GrantedQoS []byte
}

// Type returns the packet type.
func (p *SubackPacket) Type() PacketType { return PacketSUBACK }

// Encode encodes the packet into a wire frame.
func (p *SubackPacket) Encode() (Frame, error) {
	w := getBytesBuffer()
	defer putBytesBuffer(w)

	w.writeUint16(p.PacketID)
	w.writeBytes(p.GrantedQoS)

	return newFrame(PacketSUBACK, 0, w.take()), nil
}

// Decode populates the packet from a wire frame.
func (p *SubackPacket) Decode(f Frame) error {
	if f.Type() != PacketSUBACK {
		return ErrInvalidPacketType
	}

	r := getBytesReader(f.Body)
	defer putBytesReader(r)

	var err error
	if p.PacketID, err = r.readUint16(); err != nil {
		return err
	}
	p.GrantedQoS = r.rest()
	return nil
}
