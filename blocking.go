package mqtt

import (
	"context"
)

// BlockingConnection layers context-aware blocking calls over a
// FutureConnection. Safe for use from any goroutine.
type BlockingConnection struct {
	fc *FutureConnection
}

// NewBlockingConnection wraps a FutureConnection.
func NewBlockingConnection(fc *FutureConnection) *BlockingConnection {
	return &BlockingConnection{fc: fc}
}

// Publish sends an application message and waits for its completion:
// transport acceptance for QoS 0, PUBACK for QoS 1, PUBCOMP for QoS 2.
// When a publish rate limit is configured, the call waits for a token
// before dispatching.
func (bc *BlockingConnection) Publish(ctx context.Context, topic string, payload []byte, qos byte, retain bool) error {
	if limiter := bc.fc.conn.options.publishLimiter; limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
	}
	_, err := bc.fc.Publish(topic, payload, qos, retain).Await(ctx)
	return err
}

// Subscribe requests subscriptions and waits for the SUBACK. Returns the
// granted QoS byte per topic, in request order.
func (bc *BlockingConnection) Subscribe(ctx context.Context, topics []Topic) ([]byte, error) {
	return bc.fc.Subscribe(topics).Await(ctx)
}

// Unsubscribe removes subscriptions and waits for the UNSUBACK.
func (bc *BlockingConnection) Unsubscribe(ctx context.Context, topics []string) error {
	_, err := bc.fc.Unsubscribe(topics).Await(ctx)
	return err
}

// Receive waits for the next inbound message. The caller must Ack QoS 1/2
// messages.
func (bc *BlockingConnection) Receive(ctx context.Context) (*Message, error) {
	return bc.fc.Receive().Await(ctx)
}

// Disconnect shuts the connection down cleanly and waits for the
// transport to stop.
func (bc *BlockingConnection) Disconnect(ctx context.Context) error {
	_, err := bc.fc.Disconnect().Await(ctx)
	return err
}
