package datachangelog

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v2"
)

// ElasticsearchConfig represents Elasticsearch connection and behavior configuration
type ElasticsearchConfig struct {
	Enabled            bool          `yaml:"enabled"`
	Addresses          []string      `yaml:"addresses"` // e.g., ["https://localhost:9200"]
	Username           string        `yaml:"username"`
	Password           string        `yaml:"password"`
	APIKey             string        `yaml:"api_key"` // Alternative to username/password
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify"`
	IndexPrefix        string        `yaml:"index_prefix"` // e.g., "salesgrid-changelog"
	NumWorkers         int           `yaml:"num_workers"`  // Number of async workers
	BulkSize           int           `yaml:"bulk_size"`    // Batch size for bulk operations
	MaxRetries         int           `yaml:"max_retries"`
	FlushInterval      time.Duration `yaml:"flush_interval"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
}

// LoadElasticsearchConfig parses a standalone elasticsearch YAML document
func LoadElasticsearchConfig(configYAML []byte) (*ElasticsearchConfig, error) {
	var cfg ElasticsearchConfig
	if err := yaml.Unmarshal(configYAML, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse elasticsearch config: %w", err)
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid elasticsearch config: %w", err)
	}
	return &cfg, nil
}

// setDefaults fills zero values. Worker and bulk size defaults only apply when
// archiving is enabled so that a disabled section stays inert.
func (c *ElasticsearchConfig) setDefaults() {
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.FlushInterval == 0 {
		c.FlushInterval = 2 * time.Second
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 10 * time.Second
	}
	if c.IndexPrefix == "" {
		c.IndexPrefix = "salesgrid-changelog"
	}
	if c.Enabled {
		if c.NumWorkers == 0 {
			c.NumWorkers = 2
		}
		if c.BulkSize == 0 {
			c.BulkSize = 100
		}
	}
}

// SetDefaults is the exported form of setDefaults for callers composing configs
func (c *ElasticsearchConfig) SetDefaults() { c.setDefaults() }

// Validate performs validation checks on the configuration
func (c *ElasticsearchConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if len(c.Addresses) == 0 {
		return fmt.Errorf("elasticsearch addresses must be specified")
	}
	if c.Username == "" && c.APIKey == "" {
		return fmt.Errorf("elasticsearch authentication required: username/password or api_key")
	}
	if c.NumWorkers < 0 || c.BulkSize < 0 {
		return fmt.Errorf("elasticsearch num_workers and bulk_size must not be negative")
	}
	return nil
}
