package mqtt

// The four publish acknowledgement packets and UNSUBACK share one wire
// shape: a two-byte packet id. MQTT 3.1 spec: Sections 3.4-3.7, 3.11

// encodeAck builds the shared message-id-only frame.
func encodeAck(t PacketType, flags byte, packetID uint16) Frame {
	return newFrame(t, flags, []byte{byte(packetID >> 8), byte(packetID)})
}

// decodeAck extracts the packet id from a message-id-only frame.
func decodeAck(t PacketType, f Frame) (uint16, error) {
	if f.Type() != t {
		return 0, ErrInvalidPacketType
	}
	r := getBytesReader(f.Body)
	defer putBytesReader(r)
	return r.readUint16()
}

// PubackPacket represents an MQTT 3.1 PUBACK packet.
type PubackPacket struct {
	PacketID uint16
}

// Type returns the packet type.
func (p *PubackPacket) Type() PacketType { return PacketPUBACK }

// Encode encodes the packet into a wire frame.
func (p *PubackPacket) Encode() (Frame, error) {
	return encodeAck(PacketPUBACK, 0, p.PacketID), nil
}

// Decode populates the packet from a wire frame.
func (p *PubackPacket) Decode(f Frame) (err error) {
	p.PacketID, err = decodeAck(PacketPUBACK, f)
	return err
}

// PubrecPacket represents an MQTT 3.1 PUBREC packet.
type PubrecPacket struct {
	PacketID uint16
}

// Type returns the packet type.
func (p *PubrecPacket) Type() PacketType { return PacketPUBREC }

// Encode encodes the packet into a wire frame.
func (p *PubrecPacket) Encode() (Frame, error) {
	return encodeAck(PacketPUBREC, 0, p.PacketID), nil
}

// Decode populates the packet from a wire frame.
func (p *PubrecPacket) Decode(f Frame) (err error) {
	p.PacketID, err = decodeAck(PacketPUBREC, f)
	return err
}

// PubrelPacket represents an MQTT 3.1 PUBREL packet.
// The fixed header carries QoS 1 flags per the 3.1 specification.
type PubrelPacket struct {
	PacketID uint16
}

// Type returns the packet type.
func (p *PubrelPacket) Type() PacketType { return PacketPUBREL }

// Encode encodes the packet into a wire frame.
func (p *PubrelPacket) Encode() (Frame, error) {
	return encodeAck(PacketPUBREL, 0x02, p.PacketID), nil
}

// Decode populates the packet from a wire frame.
func (p *PubrelPacket) Decode(f Frame) (err error) {
	p.PacketID, err = decodeAck(PacketPUBREL, f)
	return err
}

// PubcompPacket represents an MQTT 3.1 PUBCOMP packet.
type PubcompPacket struct {
	PacketID uint16
}

// Type returns the packet type.
func (p *PubcompPacket) Type() PacketType { return PacketPUBCOMP }

// Encode encodes the packet into a wire frame.
func (p *PubcompPacket) Encode() (Frame, error) {
	return encodeAck(PacketPUBCOMP, 0, p.PacketID), nil
}

// Decode populates the packet from a wire frame.
func (p *PubcompPacket) Decode(f Frame) (err error) {
	p.PacketID, err = decodeAck(PacketPUBCOMP, f)
	return err
}

// UnsubackPacket represents an MQTT 3.1 UNSUBACK packet.
type UnsubackPacket struct {
	PacketID uint16
}

// Type returns the packet type.
func (p *UnsubackPacket) Type() PacketType { return PacketUNSUBACK }

// Encode encodes the packet into a wire frame.
func (p *UnsubackPacket) Encode() (Frame, error) {
	return encodeAck(PacketUNSUBACK, 0, p.PacketID), nil
}

// Decode populates the packet from a wire frame.
func (p *UnsubackPacket) Decode(f Frame) (err error) {
	p.PacketID, err = decodeAck(PacketUNSUBACK, f)
	return err
}
