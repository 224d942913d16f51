package mqtt

import (
	"crypto/tls"
	"time"

	"golang.org/x/time/rate"
)

// Defaults.
const (
	// DefaultKeepAlive is the keep-alive interval in seconds used when
	// none is configured.
	DefaultKeepAlive uint16 = 60

	// DefaultMaxFrameSize caps inbound frames at 1 MiB unless overridden.
	DefaultMaxFrameSize uint32 = 1 << 20

	defaultSendBufferSize     = 64
	defaultReceiveBufferSize  = 1024
	defaultConnectTimeoutSecs = 10
)

// options holds configuration for a connection.
type options struct {
	// Connection settings
	clientID     string
	keepAlive    uint16
	cleanSession bool

	// Credentials
	username    string
	password    []byte
	hasUsername bool
	hasPassword bool

	// Will message
	willTopic   string
	willPayload []byte
	willQoS     byte
	willRetain  bool

	// TLS configuration
	tlsConfig *tls.Config

	// Timeouts
	connectTimeout time.Duration

	// Limits
	maxFrameSize      uint32
	sendBufferSize    int
	receiveBufferSize int

	// Outbound publish pacing for the blocking wrapper
	publishLimiter *rate.Limiter

	// Custom network dialer; nil selects one from the URL scheme
	dialer Dialer

	logger Logger
}

// defaultOptions returns options with sensible defaults.
func defaultOptions() *options {
	return &options{
		keepAlive:         DefaultKeepAlive,
		cleanSession:      true,
		connectTimeout:    defaultConnectTimeoutSecs * time.Second,
		maxFrameSize:      DefaultMaxFrameSize,
		sendBufferSize:    defaultSendBufferSize,
		receiveBufferSize: defaultReceiveBufferSize,
		logger:            NewNoOpLogger(),
	}
}

func applyOptions(opts ...Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Option configures a connection.
type Option func(*options)

// WithClientID sets the client identifier. MQTT 3.1 limits it to 23
// characters. An empty id is replaced with a generated one at dial time.
func WithClientID(id string) Option {
	return func(o *options) {
		o.clientID = id
	}
}

// WithKeepAlive sets the keep-alive interval in seconds. Zero disables
// the heartbeat.
func WithKeepAlive(seconds uint16) Option {
	return func(o *options) {
		o.keepAlive = seconds
	}
}

// WithCleanSession sets the clean-session flag on CONNECT.
func WithCleanSession(clean bool) Option {
	return func(o *options) {
		o.cleanSession = clean
	}
}

// WithCredentials sets the username and password for authentication.
func WithCredentials(username, password string) Option {
	return func(o *options) {
		o.username = username
		o.password = []byte(password)
		o.hasUsername = true
		o.hasPassword = true
	}
}

// WithWill configures the will message published by the server if the
// connection drops without a DISCONNECT.
func WithWill(topic string, payload []byte, qos byte, retain bool) Option {
	return func(o *options) {
		o.willTopic = topic
		o.willPayload = payload
		o.willQoS = qos
		o.willRetain = retain
	}
}

// WithTLS sets the TLS configuration used by the tls, wss and quic
// schemes.
func WithTLS(config *tls.Config) Option {
	return func(o *options) {
		o.tlsConfig = config
	}
}

// WithConnectTimeout bounds the network dial plus CONNECT/CONNACK
// handshake.
func WithConnectTimeout(d time.Duration) Option {
	return func(o *options) {
		o.connectTimeout = d
	}
}

// WithMaxFrameSize caps the size of inbound frames.
func WithMaxFrameSize(size uint32) Option {
	return func(o *options) {
		o.maxFrameSize = size
	}
}

// WithSendBufferSize sets how many frames the transport buffers ahead of
// the socket before offers are refused.
func WithSendBufferSize(frames int) Option {
	return func(o *options) {
		o.sendBufferSize = frames
	}
}

// WithReceiveBufferSize sets how many undelivered messages the
// FutureConnection buffers before suspending the transport's read side.
func WithReceiveBufferSize(messages int) Option {
	return func(o *options) {
		o.receiveBufferSize = messages
	}
}

// WithPublishRateLimit paces BlockingConnection.Publish calls with the
// given limiter. Nil disables pacing.
func WithPublishRateLimit(l *rate.Limiter) Option {
	return func(o *options) {
		o.publishLimiter = l
	}
}

// WithDialer overrides the dialer selected from the URL scheme.
func WithDialer(d Dialer) Option {
	return func(o *options) {
		o.dialer = d
	}
}

// WithLogger sets the connection's logger.
func WithLogger(l Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
