package notify_test

import (
	"context"
	"testing"

	"github.com/chirpnet/apiserver/internal/mq"
	"github.com/chirpnet/apiserver/internal/notify"
	"github.com/stretchr/testify/require"
)

// fakeBackend queues published messages and replays them to subscribers.
type fakeBackend struct {
	published []mq.Message
	channels  []string
}

func (b *fakeBackend) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	b.published = append(b.published, mq.Message{ID: "msg-1", Data: data, Attributes: attrs})
	b.channels = append(b.channels, channel)
	return "msg-1", nil
}

func (b *fakeBackend) Subscribe(ctx context.Context, channel string, handler mq.Handler) error {
	for _, msg := range b.published {
		if err := handler(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

func (b *fakeBackend) Close() error { return nil }

type captureSender struct {
	sent []notify.Notification
}

func (s *captureSender) Send(_ context.Context, n notify.Notification) error {
	s.sent = append(s.sent, n)
	return nil
}

func TestMQDispatchAndConsume(t *testing.T) {
	backend := &fakeBackend{}
	broker := mq.New(backend)
	dispatcher := notify.NewMQDispatcher(broker)

	n := notify.Notification{
		RecipientName:  "Bob",
		RecipientEmail: "bob@x.com",
		AuthorName:     "Ann",
		Content:        "hello",
	}
	require.NoError(t, dispatcher.Dispatch(context.Background(), n))
	require.Equal(t, []string{notify.Channel}, backend.channels)

	sender := &captureSender{}
	require.NoError(t, notify.Consume(context.Background(), broker, sender))
	require.Equal(t, []notify.Notification{n}, sender.sent)
}

func TestConsumeDropsUndecodableMessages(t *testing.T) {
	backend := &fakeBackend{}
	broker := mq.New(backend)

	_, err := broker.Publish(context.Background(), notify.Channel, []byte("not json"), nil)
	require.NoError(t, err)

	sender := &captureSender{}
	require.NoError(t, notify.Consume(context.Background(), broker, sender))
	require.Empty(t, sender.sent)
}

func TestDirectDispatcher(t *testing.T) {
	sender := &captureSender{}
	dispatcher := notify.NewDirectDispatcher(sender)

	n := notify.Notification{RecipientEmail: "bob@x.com"}
	require.NoError(t, dispatcher.Dispatch(context.Background(), n))
	require.Equal(t, []notify.Notification{n}, sender.sent)
}
