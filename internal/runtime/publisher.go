package runtime

import (
	"context"
	"fmt"
	"iter"

	"github.com/ThreeDotsLabs/watermill/message"

	errspkg "github.com/drblury/playerflow/internal/runtime/errors"
	eventspkg "github.com/drblury/playerflow/internal/runtime/events"
	idspkg "github.com/drblury/playerflow/internal/runtime/ids"
	"github.com/drblury/playerflow/internal/runtime/jsoncodec"
	metadatapkg "github.com/drblury/playerflow/internal/runtime/metadata"
)

// NewMessageFromEvent converts the event into a Watermill message carrying a
// fresh UUID, the batch metadata and an id header equal to the UUID.
func NewMessageFromEvent(ctx context.Context, event eventspkg.Event, metadata metadatapkg.Metadata) (*message.Message, error) {
	if event == nil {
		return nil, errspkg.ErrEventRequired
	}

	payload, err := jsoncodec.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s event: %w", event.Type(), err)
	}

	id := idspkg.NewMessageID()
	msg := message.NewMessage(id, payload)
	msg.Metadata = metadatapkg.ToWatermill(metadata.With(metadatapkg.KeyID, id))
	if ctx != nil {
		msg.SetContext(ctx)
	}
	return msg, nil
}

// PublishEvents serializes every event and flushes them in one Publish call,
// which the transport commits as a single unit. It returns the number of
// events published; on failure the count is 0 and the error is a
// *errors.PublishError when the transport rejected the batch.
func PublishEvents(ctx context.Context, publisher message.Publisher, topic string, events iter.Seq[eventspkg.Event], metadata metadatapkg.Metadata) (int, error) {
	if publisher == nil {
		return 0, errspkg.ErrPublisherRequired
	}
	if topic == "" {
		return 0, errspkg.ErrTopicRequired
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var msgs []*message.Message
	for event := range events {
		msg, err := NewMessageFromEvent(ctx, event, metadata)
		if err != nil {
			return 0, err
		}
		msgs = append(msgs, msg)
	}
	if len(msgs) == 0 {
		return 0, nil
	}

	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := publisher.Publish(topic, msgs...); err != nil {
		return 0, errspkg.NewPublishError("", len(msgs), err)
	}
	return len(msgs), nil
}
