package runtime

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errspkg "github.com/drblury/playerflow/internal/runtime/errors"
	eventspkg "github.com/drblury/playerflow/internal/runtime/events"
	metadatapkg "github.com/drblury/playerflow/internal/runtime/metadata"
	"github.com/drblury/playerflow/internal/runtime/records"
)

type publisherTestContextKey struct{}

var testCtxKey = publisherTestContextKey{}

func testEvents() []eventspkg.Event {
	player := records.NewPlayerRegistration("42", "Jane Doe", "22", "Slovenia", "Forward",
		records.Achievement{Year: "2023", Title: "Top Scorer"})
	return eventspkg.FromPlayerRegistration(player)
}

func TestNewMessageFromEvent(t *testing.T) {
	if _, err := NewMessageFromEvent(context.Background(), nil, nil); !errors.Is(err, errspkg.ErrEventRequired) {
		t.Fatalf("expected event required error, got %v", err)
	}

	ctx := context.WithValue(context.Background(), testCtxKey, "value")
	md := metadatapkg.ForFile("players.xml", "abc")
	msg, err := NewMessageFromEvent(ctx, testEvents()[0], md)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assert.NotEmpty(t, msg.UUID)
	assert.Equal(t, map[string]string{
		"id":        msg.UUID,
		"filename":  "players.xml",
		"file-hash": "abc",
	}, map[string]string(msg.Metadata))
	assert.NotContains(t, md, metadatapkg.KeyID, "batch metadata is not mutated")
	assert.Equal(t, "value", msg.Context().Value(testCtxKey))
	assert.JSONEq(t,
		`{"event_type":"player_registration","player":{"id":"42","name":"Jane Doe","age":"22","country":"Slovenia","position":"Forward"}}`,
		string(msg.Payload))
}

func TestNewMessageFromEventUniqueIDs(t *testing.T) {
	first, err := NewMessageFromEvent(context.Background(), testEvents()[0], nil)
	require.NoError(t, err)
	second, err := NewMessageFromEvent(context.Background(), testEvents()[0], nil)
	require.NoError(t, err)
	assert.NotEqual(t, first.UUID, second.UUID)
}

func TestPublishEventsValidations(t *testing.T) {
	seq := slices.Values(testEvents())
	if _, err := PublishEvents(context.Background(), nil, "topic", seq, nil); !errors.Is(err, errspkg.ErrPublisherRequired) {
		t.Fatalf("expected publisher required error, got %v", err)
	}
	if _, err := PublishEvents(context.Background(), &recordingPublisher{}, "", seq, nil); !errors.Is(err, errspkg.ErrTopicRequired) {
		t.Fatalf("expected topic required error, got %v", err)
	}
}

func TestPublishEventsSingleBatch(t *testing.T) {
	pub := &recordingPublisher{}
	md := metadatapkg.ForFile("players.xml", "abc")

	n, err := PublishEvents(context.Background(), pub, "amq.headers", slices.Values(testEvents()), md)

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, pub.batches, 1, "all events go out in one Publish call")
	assert.Equal(t, []string{"amq.headers"}, pub.topics)

	msgs := pub.Messages()
	assert.Contains(t, string(msgs[0].Payload), `"event_type":"player_registration"`)
	assert.Contains(t, string(msgs[1].Payload), `"event_type":"player_achievements"`)
	for _, msg := range msgs {
		assert.Equal(t, msg.UUID, msg.Metadata.Get(metadatapkg.KeyID))
		assert.Equal(t, "abc", msg.Metadata.Get(metadatapkg.KeyFileHash))
	}
}

func TestPublishEventsEmptyStream(t *testing.T) {
	pub := &recordingPublisher{}

	n, err := PublishEvents(context.Background(), pub, "amq.headers", slices.Values([]eventspkg.Event(nil)), nil)

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, pub.batches, "transport is not touched")
}

func TestPublishEventsFailure(t *testing.T) {
	boom := errors.New("channel closed")
	pub := &recordingPublisher{err: boom}

	n, err := PublishEvents(context.Background(), pub, "amq.headers", slices.Values(testEvents()), nil)

	assert.Zero(t, n)
	assert.ErrorIs(t, err, errspkg.ErrPublishFailed)
	assert.ErrorIs(t, err, boom)
	var publishErr *errspkg.PublishError
	require.ErrorAs(t, err, &publishErr)
	assert.Equal(t, 2, publishErr.Events)
}

func TestPublishEventsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pub := &recordingPublisher{}

	n, err := PublishEvents(ctx, pub, "amq.headers", slices.Values(testEvents()), nil)

	assert.Zero(t, n)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, pub.batches)
}
