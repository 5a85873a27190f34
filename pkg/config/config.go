package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/jecitDev/jec-salesgrid/pkg/datachangelog"
	dbconnect "github.com/jecitDev/jec-salesgrid/pkg/dbConnect"
	"github.com/jecitDev/jec-salesgrid/pkg/logger"
	redisconnect "github.com/jecitDev/jec-salesgrid/pkg/redisConnect"
)

// Remote store modes
const (
	RemoteNone     = "none"
	RemoteHTTP     = "http"
	RemotePostgres = "postgres"
)

// Preference backends
const (
	PreferencesMemory = "memory"
	PreferencesRedis  = "redis"
)

// Config is the root configuration of a SalesGrid engine
type Config struct {
	Logging       logger.Config                     `yaml:"logging"`
	Retention     RetentionConfig                   `yaml:"retention"`
	Policy        PolicyConfig                      `yaml:"policy"`
	Remote        RemoteConfig                      `yaml:"remote"`
	Elasticsearch datachangelog.ElasticsearchConfig `yaml:"elasticsearch"`
	Preferences   PreferencesConfig                 `yaml:"preferences"`
}

// RetentionConfig holds the two independent sweep windows
type RetentionConfig struct {
	ChangeLogDays int `yaml:"change_log_days"`
	ActivityDays  int `yaml:"activity_days"`
}

// PolicyConfig tunes how change log values are stored
type PolicyConfig struct {
	MaxLength       int  `yaml:"max_length"`
	ExcludeLongText bool `yaml:"exclude_long_text"`
}

// RemoteConfig selects and configures the remote store
type RemoteConfig struct {
	Mode     string         `yaml:"mode"`
	HTTP     HTTPConfig     `yaml:"http"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// HTTPConfig configures the REST remote store
type HTTPConfig struct {
	BaseURL    string        `yaml:"base_url"`
	RetryCount int           `yaml:"retry_count"`
	Timeout    time.Duration `yaml:"timeout"`
}

// PostgresConfig configures the Postgres remote store
type PostgresConfig struct {
	dbconnect.DBConfig `yaml:",inline"`
	Migrate            bool `yaml:"migrate"`
}

// PreferencesConfig selects where the UI preference blob lives
type PreferencesConfig struct {
	Backend string                   `yaml:"backend"`
	Key     string                   `yaml:"key"`
	Redis   redisconnect.RedisConfig `yaml:"redis"`
}

// LoadFile reads path, expands ${ENV} placeholders and loads the result
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return Load([]byte(os.ExpandEnv(string(data))))
}

// Load parses configYAML, applies defaults and validates the result
func Load(configYAML []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(configYAML, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Default returns a configuration for a local, in-memory engine
func Default() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults fills every zero value with its default
func (c *Config) SetDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Retention.ChangeLogDays == 0 {
		c.Retention.ChangeLogDays = datachangelog.DefaultRetentionDays
	}
	if c.Retention.ActivityDays == 0 {
		c.Retention.ActivityDays = datachangelog.DefaultRetentionDays
	}
	if c.Policy.MaxLength == 0 {
		c.Policy.MaxLength = datachangelog.DefaultMaxLength
	}
	if c.Remote.Mode == "" {
		c.Remote.Mode = RemoteNone
	}
	if c.Remote.HTTP.RetryCount == 0 {
		c.Remote.HTTP.RetryCount = 1
	}
	if c.Remote.HTTP.Timeout == 0 {
		c.Remote.HTTP.Timeout = 10 * time.Second
	}
	if c.Remote.Postgres.Port == "" {
		c.Remote.Postgres.Port = "5432"
	}
	if c.Preferences.Backend == "" {
		c.Preferences.Backend = PreferencesMemory
	}
	if c.Preferences.Key == "" {
		c.Preferences.Key = "salesgrid-ui"
	}
	if c.Preferences.Redis.Port == "" {
		c.Preferences.Redis.Port = "6379"
	}
	c.Elasticsearch.SetDefaults()
}

// Validate performs validation checks on the configuration
func (c *Config) Validate() error {
	if c.Retention.ChangeLogDays < 0 || c.Retention.ActivityDays < 0 {
		return fmt.Errorf("retention days must not be negative")
	}
	if c.Policy.MaxLength < 0 {
		return fmt.Errorf("policy max_length must not be negative")
	}

	switch c.Remote.Mode {
	case RemoteNone:
	case RemoteHTTP:
		if c.Remote.HTTP.BaseURL == "" {
			return fmt.Errorf("remote http base_url must be specified")
		}
		if c.Remote.HTTP.RetryCount < 0 {
			return fmt.Errorf("remote http retry_count must not be negative")
		}
	case RemotePostgres:
		if c.Remote.Postgres.Host == "" || c.Remote.Postgres.Dbname == "" {
			return fmt.Errorf("remote postgres host and dbname must be specified")
		}
	default:
		return fmt.Errorf("unknown remote mode %q", c.Remote.Mode)
	}

	switch c.Preferences.Backend {
	case PreferencesMemory:
	case PreferencesRedis:
		if c.Preferences.Redis.Host == "" {
			return fmt.Errorf("preferences redis host must be specified")
		}
	default:
		return fmt.Errorf("unknown preferences backend %q", c.Preferences.Backend)
	}

	if err := c.Elasticsearch.Validate(); err != nil {
		return err
	}
	return nil
}
