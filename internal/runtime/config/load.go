package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	errspkg "github.com/drblury/playerflow/internal/runtime/errors"
)

// EnvPrefix prefixes every environment variable read by Load. A double
// underscore separates nesting levels: PLAYERFLOW_RABBITMQ__HOSTNAMES.
const EnvPrefix = "PLAYERFLOW_"

// listKeys are split on commas when they come from the environment.
var listKeys = map[string]bool{
	"rabbitmq.hostnames": true,
}

// Defaults returns the built-in configuration values keyed by koanf path.
func Defaults() map[string]any {
	return map[string]any{
		"transport":               DefaultPubSubSystem,
		"rabbitmq.port":           DefaultRabbitMQPort,
		"rabbitmq.username":       DefaultUsername,
		"rabbitmq.password":       DefaultPassword,
		"rabbitmq.vhost":          DefaultVirtualHost,
		"exchange.name":           DefaultExchangeName,
		"exchange.type":           DefaultExchangeType,
		"exchange.declare":        false,
		"io.file":                 DefaultIOFile,
		"sqlite.file":             DefaultSQLiteFile,
		"outbox.schema":           DefaultSchemaName,
		"allow_non_transactional": false,
		"log.level":               "info",
		"log.format":              "text",
	}
}

// Load layers defaults, an optional YAML file, PLAYERFLOW_ environment
// variables and finally overrides (typically command line flags), then
// validates the result.
func Load(configPath string, overrides map[string]any) (*Config, error) {
	k := koanf.New(".")

	for key, value := range Defaults() {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("failed to set default %s: %w", key, err)
		}
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envKeyValue), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	for key, value := range overrides {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("failed to apply override %s: %w", key, err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{FlatPaths: true}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errspkg.NewConfigValidationError(err)
	}
	return &cfg, nil
}

func envKeyValue(key, value string) (string, any) {
	key = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), "__", ".")
	if listKeys[key] {
		return key, splitList(value)
	}
	return key, value
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
