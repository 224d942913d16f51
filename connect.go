package mqtt

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// Dial connects to an MQTT 3.1 server, performs the CONNECT/CONNACK
// handshake, and returns a connection engine with its read side suspended.
// The address is a URL whose scheme selects the transport: tcp, tls (ssl),
// ws, wss, or quic.
func Dial(address string, opts ...Option) (*CallbackConnection, error) {
	return DialContext(context.Background(), address, opts...)
}

// DialContext connects with a context bounding the network dial.
func DialContext(ctx context.Context, address string, opts ...Option) (*CallbackConnection, error) {
	o := applyOptions(opts...)

	u, err := url.Parse(address)
	if err != nil {
		return nil, fmt.Errorf("invalid server address: %w", err)
	}

	dialer := o.dialer
	if dialer == nil {
		if dialer, err = dialerForScheme(u, o); err != nil {
			return nil, err
		}
	}

	dialCtx, cancel := context.WithTimeout(ctx, o.connectTimeout)
	defer cancel()

	conn, err := dialer.Dial(dialCtx, hostPort(u))
	if err != nil {
		return nil, err
	}

	if o.clientID == "" {
		o.clientID = generateClientID()
	}

	if err := handshake(conn, o); err != nil {
		conn.Close()
		return nil, err
	}

	transport := NewTransport(conn, "mqtt:"+o.clientID, o.sendBufferSize, o.maxFrameSize)
	return newCallbackConnection(transport, o), nil
}

// handshake performs the CONNECT/CONNACK exchange on the raw connection,
// before the framed transport takes over.
func handshake(conn Conn, o *options) error {
	pkt := &ConnectPacket{
		ClientID:     o.clientID,
		CleanSession: o.cleanSession,
		KeepAlive:    o.keepAlive,
		Username:     o.username,
		Password:     o.password,
		HasUsername:  o.hasUsername,
		HasPassword:  o.hasPassword,
	}
	if o.willTopic != "" {
		pkt.WillFlag = true
		pkt.WillTopic = o.willTopic
		pkt.WillPayload = o.willPayload
		pkt.WillQoS = o.willQoS
		pkt.WillRetain = o.willRetain
	}

	frame, err := pkt.Encode()
	if err != nil {
		return err
	}

	deadline := time.Now().Add(o.connectTimeout)
	conn.SetDeadline(deadline)
	defer conn.SetDeadline(time.Time{})

	if _, err := WriteFrame(conn, frame); err != nil {
		return fmt.Errorf("failed to send CONNECT: %w", err)
	}

	reply, _, err := ReadFrame(conn, o.maxFrameSize)
	if err != nil {
		return fmt.Errorf("failed to read CONNACK: %w", err)
	}

	var connack ConnackPacket
	if err := connack.Decode(reply); err != nil {
		return fmt.Errorf("expected CONNACK, got %s: %w", reply.Type(), err)
	}
	if connack.Code != ConnectionAccepted {
		return &ConnectError{Code: connack.Code}
	}
	return nil
}

// dialerForScheme maps a URL scheme to a dialer.
func dialerForScheme(u *url.URL, o *options) (Dialer, error) {
	switch u.Scheme {
	case "tcp", "mqtt":
		return &TCPDialer{Timeout: o.connectTimeout}, nil
	case "tls", "ssl", "mqtts":
		return &TLSDialer{Config: o.tlsConfig, Timeout: o.connectTimeout}, nil
	case "ws", "wss":
		return &WSDialer{URL: u.String(), TLSConfig: o.tlsConfig, Timeout: o.connectTimeout}, nil
	case "quic":
		return &QUICDialer{TLSConfig: o.tlsConfig, Timeout: o.connectTimeout}, nil
	case "unix":
		return &UnixDialer{}, nil
	default:
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
}

func hostPort(u *url.URL) string {
	if u.Scheme == "unix" {
		return u.Path
	}
	host := u.Host
	if u.Port() == "" {
		switch u.Scheme {
		case "tls", "ssl", "mqtts":
			host += ":8883"
		default:
			host += ":1883"
		}
	}
	return host
}

func generateClientID() string {
	// The 3.1 limit is 23 characters; nanoseconds mod 1e9 keep us inside it
	return fmt.Sprintf("mqtt-%d", time.Now().UnixNano()%1e9)
}
