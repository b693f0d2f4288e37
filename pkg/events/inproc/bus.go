// Package inproc is the in-process event bus used when no NATS server is
// configured. Delivery is best effort and lost on restart.
package inproc

import (
	"context"
	"fmt"

	"career-counselor-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const topic = "events"

type Bus struct {
	pubSub *gochannel.GoChannel
	ctx    context.Context
	cancel context.CancelFunc
}

func NewBus() *Bus {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		watermill.NopLogger{},
	)
	ctx, cancel := context.WithCancel(context.Background())
	return &Bus{pubSub: pubSub, ctx: ctx, cancel: cancel}
}

func (b *Bus) Publish(ctx context.Context, event events.Event) error {
	payload, err := events.Marshal(event)
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("subject", events.Subject(event))

	if err := b.pubSub.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.EventType(), err)
	}
	return nil
}

// Subscribe delivers every event whose subject matches. The durable name
// is accepted for parity with the NATS subscriber and otherwise unused.
func (b *Bus) Subscribe(subject, durableName string, handler events.Handler) error {
	messages, err := b.pubSub.Subscribe(b.ctx, topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			if !events.MatchSubject(subject, msg.Metadata.Get("subject")) {
				msg.Ack()
				continue
			}

			event, err := events.Unmarshal(msg.Payload)
			if err != nil {
				msg.Ack()
				continue
			}

			// gochannel redelivers nacked messages forever, so handler
			// errors are the handler's to log.
			_ = handler(msg.Context(), event)
			msg.Ack()
		}
	}()

	return nil
}

func (b *Bus) Close() {
	b.cancel()
	_ = b.pubSub.Close()
}
