package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/Black-And-White-Club/marathon-draft/app/observability"
)

// Config struct to hold the configuration settings
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	NATS          NATSConfig          `yaml:"nats"`
	HTTP          HTTPConfig          `yaml:"http"`
	Observability ObservabilityConfig `yaml:"observability"`
	Game          GameConfig          `yaml:"game"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig holds NATS configuration.
type NATSConfig struct {
	URL           string `yaml:"url"`
	NKeySeed      string `yaml:"nkey_seed"`
	DurablePrefix string `yaml:"durable_prefix"`
}

// HTTPConfig holds the API listener settings.
type HTTPConfig struct {
	Address        string   `yaml:"address"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	// RateLimit is requests per second per client on mutation routes.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	ServiceName     string  `yaml:"service_name"`
	Environment     string  `yaml:"environment"`
	LogLevel        string  `yaml:"log_level"`
	MetricsAddress  string  `yaml:"metrics_address"`
	OTLPEndpoint    string  `yaml:"otlp_endpoint"`
	OTLPInsecure    bool    `yaml:"otlp_insecure"`
	TraceSampleRate float64 `yaml:"trace_sample_rate"`
}

// GameConfig holds the fantasy game settings.
type GameConfig struct {
	// SalaryCap is the default whole-dollar budget for new competitions.
	SalaryCap         int64  `yaml:"salary_cap"`
	ScoringPolicyFile string `yaml:"scoring_policy_file"`

	// DefaultTimezone is used when a lock time is entered without one.
	DefaultTimezone  string `yaml:"default_timezone"`
	LockQueueWorkers int    `yaml:"lock_queue_workers"`
}

// LoadConfig loads the configuration from a YAML file.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		// If the file is not found, try loading from environment variables
		return loadConfigFromEnv()
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// loadConfigFromEnv loads the configuration from environment variables.
func loadConfigFromEnv() (*Config, error) {
	var cfg Config
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	if cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}
	if cfg.NATS.URL == "" {
		return nil, fmt.Errorf("NATS_URL environment variable not set")
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("NATS_NKEY_SEED"); v != "" {
		cfg.NATS.NKeySeed = v
	}
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid HTTP_RATE_LIMIT value: %w", err)
		}
		cfg.HTTP.RateLimit = f
	}
	if v := os.Getenv("METRICS_ADDRESS"); v != "" {
		cfg.Observability.MetricsAddress = v
	}
	if v := os.Getenv("OTLP_ENDPOINT"); v != "" {
		cfg.Observability.OTLPEndpoint = v
	}
	if v := os.Getenv("OTLP_INSECURE"); v != "" {
		cfg.Observability.OTLPInsecure = v == "true"
	}
	if v := os.Getenv("TRACE_SAMPLE_RATE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid TRACE_SAMPLE_RATE value: %w", err)
		}
		cfg.Observability.TraceSampleRate = f
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Observability.Environment = v
	}
	if v := os.Getenv("SALARY_CAP"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid SALARY_CAP value: %w", err)
		}
		cfg.Game.SalaryCap = n
	}
	if v := os.Getenv("SCORING_POLICY_FILE"); v != "" {
		cfg.Game.ScoringPolicyFile = v
	}
	if v := os.Getenv("DEFAULT_TIMEZONE"); v != "" {
		cfg.Game.DefaultTimezone = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.HTTP.RateLimit == 0 {
		c.HTTP.RateLimit = 5
	}
	if c.HTTP.RateBurst == 0 {
		c.HTTP.RateBurst = 10
	}
	if c.NATS.DurablePrefix == "" {
		c.NATS.DurablePrefix = "marathon-draft"
	}
	if c.Observability.ServiceName == "" {
		c.Observability.ServiceName = "marathon-draft"
	}
	if c.Observability.TraceSampleRate == 0 {
		c.Observability.TraceSampleRate = 0.1
	}
	if c.Game.SalaryCap == 0 {
		c.Game.SalaryCap = 30000
	}
	if c.Game.ScoringPolicyFile == "" {
		c.Game.ScoringPolicyFile = "scoring_policy.yaml"
	}
	if c.Game.DefaultTimezone == "" {
		c.Game.DefaultTimezone = "UTC"
	}
	if c.Game.LockQueueWorkers == 0 {
		c.Game.LockQueueWorkers = 5
	}
}

// ToObsConfig maps the observability section onto the provider config.
func ToObsConfig(appCfg *Config) observability.Config {
	return observability.Config{
		ServiceName:     appCfg.Observability.ServiceName,
		Environment:     appCfg.Observability.Environment,
		LogLevel:        appCfg.Observability.LogLevel,
		OTLPEndpoint:    appCfg.Observability.OTLPEndpoint,
		OTLPInsecure:    appCfg.Observability.OTLPInsecure,
		TraceSampleRate: appCfg.Observability.TraceSampleRate,
	}
}
