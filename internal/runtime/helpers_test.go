package runtime

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	configpkg "github.com/drblury/playerflow/internal/runtime/config"
	loggingpkg "github.com/drblury/playerflow/internal/runtime/logging"
	transportpkg "github.com/drblury/playerflow/internal/runtime/transport"
	newtransport "github.com/drblury/playerflow/transport"
)

const playersXML = `<?xml version="1.0" encoding="UTF-8"?>
<players>
  <player_registration>
    <id>1</id>
    <name>John Doe</name>
    <age>21</age>
    <country>USA</country>
    <position>Guard</position>
    <achievements>
      <achievement year="2022">League Winner</achievement>
      <achievement year="2023">Top Scorer</achievement>
    </achievements>
  </player_registration>
  <player_registration>
    <id>2</id>
    <name>Jane Doe</name>
    <age>22</age>
    <country>Slovenia</country>
    <position>Forward</position>
    <achievements>
      <achievement year="2022">League Winner</achievement>
    </achievements>
  </player_registration>
  <player_registration>
    <id>3</id>
    <name>Achievements McNoachievmentson</name>
    <age>23</age>
    <country>Slovenia</country>
    <position>Backwards</position>
    <achievements />
  </player_registration>
</players>
`

// recordingPublisher keeps every batch it is handed.
type recordingPublisher struct {
	mu      sync.Mutex
	batches [][]*message.Message
	topics  []string
	err     error
	closed  bool
}

func (p *recordingPublisher) Publish(topic string, messages ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.batches = append(p.batches, messages)
	return nil
}

func (p *recordingPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *recordingPublisher) Messages() []*message.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*message.Message
	for _, batch := range p.batches {
		out = append(out, batch...)
	}
	return out
}

// stubFactory hands out a fixed publisher and counts Build calls.
type stubFactory struct {
	publisher message.Publisher
	caps      transportpkg.Capabilities
	err       error
	builds    int
}

func (f *stubFactory) Build(context.Context, *configpkg.Config, watermill.LoggerAdapter) (transportpkg.Transport, error) {
	f.builds++
	if f.err != nil {
		return transportpkg.Transport{}, f.err
	}
	return newtransport.Transport{Publisher: f.publisher}, nil
}

func (f *stubFactory) Capabilities(name string) (transportpkg.Capabilities, bool) {
	if f.caps.Name == "" {
		return transportpkg.Capabilities{Name: name, SupportsTransactions: true}, true
	}
	return f.caps, true
}

func newTestLogger() loggingpkg.ServiceLogger {
	return loggingpkg.NewSlogServiceLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
