package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENVIRONMENT", "LOT_CONFIG", "STRICT_LAYOUT", "OTEL_ENABLED", "OTEL_SERVICE_NAME", "OTEL_EXPORTER_OTLP_ENDPOINT"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Empty(t, cfg.LotConfigPath)
	assert.False(t, cfg.StrictLayout)
	assert.True(t, cfg.OTelConfig.Enabled)
	assert.Equal(t, "parking-lot-service", cfg.OTelConfig.ServiceName)
	assert.Equal(t, "http://localhost:4318", cfg.OTelConfig.OTLPEndpoint)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOT_CONFIG", "/etc/lot.txt")
	t.Setenv("STRICT_LAYOUT", "true")
	t.Setenv("OTEL_ENABLED", "false")
	t.Setenv("OTEL_SERVICE_NAME", "north-garage")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "/etc/lot.txt", cfg.LotConfigPath)
	assert.True(t, cfg.StrictLayout)
	assert.False(t, cfg.OTelConfig.Enabled)
	assert.Equal(t, "north-garage", cfg.OTelConfig.ServiceName)
}

func TestLoadIgnoresMalformedBool(t *testing.T) {
	t.Setenv("STRICT_LAYOUT", "sometimes")
	assert.False(t, Load().StrictLayout)
}
