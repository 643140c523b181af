package transport

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/playerflow/internal/runtime/config"
	errspkg "github.com/drblury/playerflow/internal/runtime/errors"
	"github.com/drblury/playerflow/internal/runtime/logging"
	newtransport "github.com/drblury/playerflow/transport"
)

func testLogger() watermill.LoggerAdapter {
	slogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return logging.NewWatermillAdapter(logging.NewSlogServiceLogger(slogger))
}

type stubPublisher struct{}

func (stubPublisher) Publish(string, ...*message.Message) error { return nil }
func (stubPublisher) Close() error                              { return nil }

func TestDefaultFactory_Build_Channel(t *testing.T) {
	tr, err := DefaultFactory().Build(context.Background(), &config.Config{PubSubSystem: "channel"}, testLogger())

	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Close() })
	assert.NotNil(t, tr.Publisher)
	assert.NotNil(t, tr.Subscriber)
}

func TestDefaultFactory_Build_IO(t *testing.T) {
	cfg := &config.Config{PubSubSystem: "io", IOFile: filepath.Join(t.TempDir(), "events.jsonl")}

	tr, err := DefaultFactory().Build(context.Background(), cfg, testLogger())

	require.NoError(t, err)
	assert.NotNil(t, tr.Publisher)
	assert.NoError(t, tr.Close())
}

func TestDefaultFactory_Build_NilConfig(t *testing.T) {
	_, err := DefaultFactory().Build(context.Background(), nil, testLogger())
	assert.ErrorIs(t, err, errspkg.ErrConfigRequired)
}

func TestDefaultFactory_Build_Unknown(t *testing.T) {
	_, err := DefaultFactory().Build(context.Background(), &config.Config{PubSubSystem: "carrier-pigeon"}, testLogger())
	assert.ErrorContains(t, err, "unknown transport")
}

func TestDefaultFactory_Capabilities(t *testing.T) {
	f := DefaultFactory()

	caps, ok := f.Capabilities("sqlite")
	assert.True(t, ok)
	assert.True(t, caps.SupportsTransactions)

	caps, ok = f.Capabilities("channel")
	assert.True(t, ok)
	assert.False(t, caps.SupportsTransactions)

	_, ok = f.Capabilities("carrier-pigeon")
	assert.False(t, ok)
}

func TestRegistryFactory(t *testing.T) {
	registry := newtransport.NewRegistry()
	registry.RegisterWithCapabilities("stub", func(context.Context, newtransport.Config, watermill.LoggerAdapter) (newtransport.Transport, error) {
		return newtransport.Transport{Publisher: stubPublisher{}}, nil
	}, newtransport.Capabilities{Name: "stub", SupportsTransactions: true})

	f := RegistryFactory(registry)
	tr, err := f.Build(context.Background(), &config.Config{PubSubSystem: "stub"}, nil)

	require.NoError(t, err)
	assert.Equal(t, stubPublisher{}, tr.Publisher)
	caps, ok := f.Capabilities("stub")
	assert.True(t, ok)
	assert.True(t, caps.SupportsTransactions)
	_, err = f.Build(context.Background(), &config.Config{PubSubSystem: "channel"}, nil)
	assert.Error(t, err, "only the given registry is consulted")
}
