package config

import (
	"os"
	"strings"
	"time"

	pstrings "lingap/pkg/platform/strings"
)

// Config captures process-level configuration for the registry service.
type Config struct {
	// Addr is the listen address for the ops endpoints (health, metrics).
	Addr string

	// PostgresDSN is the connection string for the registry database.
	// Empty means in-memory stores (local development, tests).
	PostgresDSN string

	Redis RedisConfig
	Kafka KafkaConfig

	// PensionProviders is the known-provider list backing the "Others"
	// negative-match bucket in beneficiary listings.
	PensionProviders []string
}

// RedisConfig captures connection settings for the schema cache.
type RedisConfig struct {
	// URL is a redis:// connection string. Empty disables the cache.
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig captures settings for the audit event publisher.
type KafkaConfig struct {
	// Brokers is a comma-separated seed list. Empty disables Kafka publishing
	// and audit events stay in the local store only.
	Brokers []string
	Topic   string
}

// SchemaCacheTTL bounds staleness of the cached intake schema. Admin schema
// edits are rare; reads are on every beneficiary write.
var SchemaCacheTTL = 5 * time.Minute

// defaultPensionProviders enumerates the providers a beneficiary may already
// draw a pension from. The list backs the "Others" filter bucket and can be
// overridden via LINGAP_PENSION_PROVIDERS.
var defaultPensionProviders = []string{"SSS", "GSIS", "PVAO", "AFPSLAI", "DSWD"}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	addr := os.Getenv("LINGAP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	providers := defaultPensionProviders
	if raw := os.Getenv("LINGAP_PENSION_PROVIDERS"); raw != "" {
		providers = splitList(raw)
	}

	var brokers []string
	if raw := os.Getenv("LINGAP_KAFKA_BROKERS"); raw != "" {
		brokers = splitList(raw)
	}
	topic := os.Getenv("LINGAP_AUDIT_TOPIC")
	if topic == "" {
		topic = "lingap.audit"
	}

	return Config{
		Addr:        addr,
		PostgresDSN: os.Getenv("LINGAP_POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("LINGAP_REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: brokers,
			Topic:   topic,
		},
		PensionProviders: providers,
	}
}

func splitList(raw string) []string {
	return pstrings.DedupeAndTrimFold(strings.Split(raw, ","))
}
