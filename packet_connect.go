package mqtt

import "errors"

// MQTT 3.1 protocol identification.
const (
	protocolName    = "MQIsdp"
	protocolVersion = 3
)

// CONNECT variable header flag bits.
const (
	connectFlagCleanSession = 0x02
	connectFlagWill         = 0x04
	connectFlagWillRetain   = 0x20
	connectFlagPassword     = 0x40
	connectFlagUsername     = 0x80
)

var (
	ErrInvalidProtocol = errors.New("unsupported protocol name or version")
	ErrClientIDTooLong = errors.New("client id exceeds 23 characters")
	ErrInvalidWill     = errors.New("invalid will configuration")
)

// ConnectPacket represents an MQTT 3.1 CONNECT packet.
// MQTT 3.1 spec: Section 3.1
type ConnectPacket struct {
	ClientID     string
	CleanSession bool
	KeepAlive    uint16

	WillFlag    bool
	WillTopic   string
	WillPayload []byte
	WillQoS     byte
	WillRetain  bool

	Username string
	Password []byte

	// HasUsername and HasPassword distinguish empty credentials from
	// absent ones on the wire.
	HasUsername bool
	HasPassword bool
}

// Type returns the packet type.
func (p *ConnectPacket) Type() PacketType { return PacketCONNECT }

// Validate validates the packet contents.
func (p *ConnectPacket) Validate() error {
	// MQTT 3.1 limits the client id to 23 characters
	if len(p.ClientID) > 23 {
		return ErrClientIDTooLong
	}
	if p.WillFlag {
		if err := ValidateTopicName(p.WillTopic); err != nil {
			return err
		}
		if p.WillQoS > QoS2 {
			return ErrInvalidWill
		}
	}
	return nil
}

// Encode encodes the packet into a wire frame.
func (p *ConnectPacket) Encode() (Frame, error) {
	if err := p.Validate(); err != nil {
		return Frame{}, err
	}

	var flags byte
	if p.CleanSession {
		flags |= connectFlagCleanSession
	}
	if p.WillFlag {
		flags |= connectFlagWill
		flags |= (p.WillQoS & 0x03) << 3
		if p.WillRetain {
			flags |= connectFlagWillRetain
		}
	}
	if p.HasUsername || p.Username != "" {
		flags |= connectFlagUsername
	}
	if p.HasPassword || len(p.Password) > 0 {
		flags |= connectFlagPassword
	}

	w := getBytesBuffer()
	defer putBytesBuffer(w)

	w.writeString(protocolName)
	w.writeByte(protocolVersion)
	w.writeByte(flags)
	w.writeUint16(p.KeepAlive)
	w.writeString(p.ClientID)
	if p.WillFlag {
		w.writeString(p.WillTopic)
		w.writeUint16(uint16(len(p.WillPayload)))
		w.writeBytes(p.WillPayload)
	}
	if flags&connectFlagUsername != 0 {
		w.writeString(p.Username)
	}
	if flags&connectFlagPassword != 0 {
		w.writeUint16(uint16(len(p.Password)))
		w.writeBytes(p.Password)
	}

	return newFrame(PacketCONNECT, 0, w.take()), nil
}

// Decode populates the packet from a wire frame.
func (p *ConnectPacket) Decode(f Frame) error {
	if f.Type() != PacketCONNECT {
		return ErrInvalidPacketType
	}

	r := getBytesReader(f.Body)
	defer putBytesReader(r)

	name, err := r.readString()
	if err != nil {
		return err
	}
	version, err := r.readByte()
	if err != nil {
		return err
	}
	if name != protocolName || version != protocolVersion {
		return ErrInvalidProtocol
	}

	flags, err := r.readByte()
	if err != nil {
		return err
	}
	if p.KeepAlive, err = r.readUint16(); err != nil {
		return err
	}
	if p.ClientID, err = r.readString(); err != nil {
		return err
	}

	p.CleanSession = flags&connectFlagCleanSession != 0
	p.WillFlag = flags&connectFlagWill != 0
	if p.WillFlag {
		p.WillQoS = (flags >> 3) & 0x03
		p.WillRetain = flags&connectFlagWillRetain != 0
		if p.WillTopic, err = r.readString(); err != nil {
			return err
		}
		length, err := r.readUint16()
		if err != nil {
			return err
		}
		if p.WillPayload, err = r.readBytes(int(length)); err != nil {
			return err
		}
	}

	p.HasUsername = flags&connectFlagUsername != 0
	if p.HasUsername {
		if p.Username, err = r.readString(); err != nil {
			return err
		}
	}
	p.HasPassword = flags&connectFlagPassword != 0
	if p.HasPassword {
		length, err := r.readUint16()
		if err != nil {
			return err
		}
		if p.Password, err = r.readBytes(int(length)); err != nil {
			return err
		}
	}

	return nil
}
