package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	Environment   string
	LotConfigPath string
	StrictLayout  bool
	OTelConfig    OTelConfig
}

type OTelConfig struct {
	Enabled      bool
	ServiceName  string
	OTLPEndpoint string
}

// Load reads the process configuration from the environment. A .env file in
// the working directory is applied first when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	return &Config{
		Port:          getEnv("PORT", "8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		LotConfigPath: getEnv("LOT_CONFIG", ""),
		StrictLayout:  getBool("STRICT_LAYOUT", false),
		OTelConfig: OTelConfig{
			Enabled:      getBool("OTEL_ENABLED", true),
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "parking-lot-service"),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return value
}
