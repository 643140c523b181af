// Package io provides a file-based transport for playerflow. Messages are
// stored one JSON object per line. Each Publish call appends its batch by
// writing a replacement file next to the target and renaming it into place,
// so readers never observe a partial batch.
package io

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/drblury/playerflow/internal/runtime/jsoncodec"
	"github.com/drblury/playerflow/transport"
)

// TransportName is the name used to register this transport.
const TransportName = "io"

// DefaultFilePath is the default file path if none is specified.
const DefaultFilePath = "messages.jsonl"

// PublisherFactory allows overriding the publisher creation for testing.
var PublisherFactory = func(filePath string, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return NewPublisher(filePath, logger), nil
}

func init() {
	Register()
}

// Register registers the I/O transport with the default registry.
func Register() {
	transport.RegisterWithCapabilities(TransportName, Build, transport.IOCapabilities)
}

// Build creates a new I/O transport.
func Build(ctx context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (transport.Transport, error) {
	filePath := cfg.GetIOFile()
	if filePath == "" {
		filePath = DefaultFilePath
	}

	pub, err := PublisherFactory(filePath, logger)
	if err != nil {
		return transport.Transport{}, err
	}
	return transport.Transport{Publisher: pub}, nil
}

// Capabilities returns the capabilities of this transport.
func Capabilities() transport.Capabilities {
	return transport.IOCapabilities
}

// Stored is the JSON structure of one persisted message.
type Stored struct {
	UUID     string            `json:"uuid"`
	Topic    string            `json:"topic"`
	Metadata map[string]string `json:"metadata"`
	Payload  []byte            `json:"payload"`
}

// Publisher appends messages to a file.
type Publisher struct {
	filePath string
	logger   watermill.LoggerAdapter

	mu     sync.Mutex
	closed bool
}

// NewPublisher returns a publisher appending to filePath.
func NewPublisher(filePath string, logger watermill.LoggerAdapter) *Publisher {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return &Publisher{filePath: filePath, logger: logger}
}

// Publish appends messages to the file as a single batch.
func (p *Publisher) Publish(topic string, messages ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errors.New("io: publisher is closed")
	}
	if len(messages) == 0 {
		return nil
	}

	var batch bytes.Buffer
	for _, msg := range messages {
		line, err := jsoncodec.Marshal(Stored{
			UUID:     msg.UUID,
			Topic:    topic,
			Metadata: msg.Metadata,
			Payload:  msg.Payload,
		})
		if err != nil {
			return fmt.Errorf("io: encode %s: %w", msg.UUID, err)
		}
		batch.Write(line)
		batch.WriteByte('\n')
	}

	if err := p.appendAtomically(batch.Bytes()); err != nil {
		return fmt.Errorf("io: write %s: %w", p.filePath, err)
	}

	p.logger.Debug("Batch written", watermill.LogFields{
		"file":     p.filePath,
		"topic":    topic,
		"messages": len(messages),
	})
	return nil
}

func (p *Publisher) appendAtomically(batch []byte) (err error) {
	existing, err := os.ReadFile(p.filePath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(p.filePath), "."+filepath.Base(p.filePath)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(existing); err != nil {
		return err
	}
	if _, err = tmp.Write(batch); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), p.filePath)
}

// Close closes the publisher.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// ReadFile returns every message stored in filePath. A missing file holds no
// messages.
func ReadFile(filePath string) ([]Stored, error) {
	f, err := os.Open(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []Stored
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		if len(bytes.TrimSpace(scanner.Bytes())) == 0 {
			continue
		}
		var sm Stored
		if err := jsoncodec.Unmarshal(scanner.Bytes(), &sm); err != nil {
			return nil, fmt.Errorf("io: decode line %d: %w", len(out)+1, err)
		}
		out = append(out, sm)
	}
	return out, scanner.Err()
}
