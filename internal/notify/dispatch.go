package notify

import (
	"context"
	"encoding/json"

	"github.com/chirpnet/apiserver/internal/mq"
)

// Channel is the broker channel carrying share notifications.
const Channel = "tweet.shared"

// Dispatcher hands a notification off for delivery.
type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification) error
}

// DirectDispatcher delivers notifications in-process, used when no broker
// is configured.
type DirectDispatcher struct {
	sender Sender
}

func NewDirectDispatcher(sender Sender) *DirectDispatcher {
	return &DirectDispatcher{sender: sender}
}

func (d *DirectDispatcher) Dispatch(ctx context.Context, n Notification) error {
	return d.sender.Send(ctx, n)
}

// MQDispatcher publishes notifications to the broker; a Consume loop on
// the other side performs the delivery.
type MQDispatcher struct {
	mq *mq.MQ
}

func NewMQDispatcher(broker *mq.MQ) *MQDispatcher {
	return &MQDispatcher{mq: broker}
}

func (d *MQDispatcher) Dispatch(ctx context.Context, n Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	_, err = d.mq.Publish(ctx, Channel, data, map[string]string{
		"recipient": n.RecipientEmail,
	})
	return err
}

// Consume subscribes to the notification channel and delivers each message
// through the sender. It blocks until the context is canceled.
func Consume(ctx context.Context, broker *mq.MQ, sender Sender) error {
	return broker.Subscribe(ctx, Channel, func(ctx context.Context, msg mq.Message) error {
		var n Notification
		if err := json.Unmarshal(msg.Data, &n); err != nil {
			// Undecodable messages are dropped, not redelivered.
			return nil
		}
		return sender.Send(ctx, n)
	})
}
