package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetCapabilities(t *testing.T) {
	tests := []struct {
		name          string
		transactional bool
	}{
		{"rabbitmq", true},
		{"postgres", true},
		{"postgresql", true},
		{"sqlite", true},
		{"io", true},
		{"channel", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caps := GetCapabilities(tt.name)
			assert.NotEmpty(t, caps.Name)
			assert.Equal(t, tt.transactional, caps.AtomicPublish())
		})
	}
}

func TestGetCapabilities_Unknown(t *testing.T) {
	caps := GetCapabilities("unknown-transport")
	assert.Equal(t, "unknown-transport", caps.Name)
	assert.False(t, caps.SupportsTransactions)
}

func TestCapabilitiesAliases(t *testing.T) {
	assert.Equal(t, "channel", ChannelCapabilities.Name)
	assert.Equal(t, "rabbitmq", RabbitMQCapabilities.Name)
	assert.Equal(t, "sqlite", SQLiteCapabilities.Name)
	assert.Equal(t, "postgres", PostgresCapabilities.Name)
	assert.Equal(t, "io", IOCapabilities.Name)
}
