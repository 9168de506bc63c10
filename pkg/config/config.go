// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Stopwords, Facets, Redis, Kafka, Postgres, etc.).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Stopwords StopwordsConfig `yaml:"stopwords"`
	Facets    FacetsConfig    `yaml:"facets"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Redis     RedisConfig     `yaml:"redis"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// StopwordsConfig locates the stopword lists and controls which languages
// are resolved eagerly at startup.
type StopwordsConfig struct {
	DataDir         string   `yaml:"dataDir"`
	Preload         []string `yaml:"preload"`
	DefaultLanguage string   `yaml:"defaultLanguage"`
}

// FacetsConfig controls how match payloads are decoded and how large a facet
// request may be.
type FacetsConfig struct {
	PayloadFormat string `yaml:"payloadFormat"`
	DefaultTop    int    `yaml:"defaultTop"`
	MaxDocuments  int    `yaml:"maxDocuments"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
	// StartOffset is where a consumer group without a committed offset
	// begins: "latest" or "earliest".
	StartOffset string `yaml:"startOffset"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	EnrichmentEvents string `yaml:"enrichmentEvents"`
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// AnalyticsConfig controls event publishing and snapshot persistence.
type AnalyticsConfig struct {
	Enabled          bool          `yaml:"enabled"`
	BufferSize       int           `yaml:"bufferSize"`
	BatchSize        int           `yaml:"batchSize"`
	FlushInterval    time.Duration `yaml:"flushInterval"`
	SnapshotInterval time.Duration `yaml:"snapshotInterval"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with defaults for any missing
// values, or an error if the result does not validate.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	if c.Stopwords.DataDir == "" {
		return fmt.Errorf("stopwords.dataDir must be set")
	}
	switch c.Facets.PayloadFormat {
	case "yaml", "json":
	default:
		return fmt.Errorf("facets.payloadFormat %q: must be yaml or json", c.Facets.PayloadFormat)
	}
	if c.Facets.DefaultTop <= 0 {
		return fmt.Errorf("facets.defaultTop must be positive, got %d", c.Facets.DefaultTop)
	}
	if c.Facets.MaxDocuments <= 0 {
		return fmt.Errorf("facets.maxDocuments must be positive, got %d", c.Facets.MaxDocuments)
	}
	switch c.Kafka.StartOffset {
	case "latest", "earliest":
	default:
		return fmt.Errorf("kafka.startOffset %q: must be latest or earliest", c.Kafka.StartOffset)
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Stopwords: StopwordsConfig{
			DataDir:         "data/stopwords",
			DefaultLanguage: "english",
		},
		Facets: FacetsConfig{
			PayloadFormat: "yaml",
			DefaultTop:    10,
			MaxDocuments:  10000,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "enrichment",
			User:            "enrichment",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "enrichment-group",
			StartOffset:   "latest",
			Topics: KafkaTopics{
				EnrichmentEvents: "enrichment-events",
			},
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 60 * time.Second,
		},
		Analytics: AnalyticsConfig{
			BufferSize:       10000,
			BatchSize:        100,
			FlushInterval:    5 * time.Second,
			SnapshotInterval: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads SE_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SE_STOPWORDS_DATA_DIR"); v != "" {
		cfg.Stopwords.DataDir = v
	}
	if v := os.Getenv("SE_STOPWORDS_PRELOAD"); v != "" {
		cfg.Stopwords.Preload = strings.Split(v, ",")
	}
	if v := os.Getenv("SE_STOPWORDS_DEFAULT_LANGUAGE"); v != "" {
		cfg.Stopwords.DefaultLanguage = v
	}
	if v := os.Getenv("SE_FACETS_PAYLOAD_FORMAT"); v != "" {
		cfg.Facets.PayloadFormat = v
	}
	if v := os.Getenv("SE_FACETS_DEFAULT_TOP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Facets.DefaultTop = n
		}
	}
	if v := os.Getenv("SE_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("SE_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("SE_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("SE_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("SE_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("SE_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("SE_KAFKA_START_OFFSET"); v != "" {
		cfg.Kafka.StartOffset = v
	}
	if v := os.Getenv("SE_REDIS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Redis.Enabled = b
		}
	}
	if v := os.Getenv("SE_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("SE_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("SE_ANALYTICS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Analytics.Enabled = b
		}
	}
	if v := os.Getenv("SE_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SE_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
