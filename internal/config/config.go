// Package config loads the application YAML config and the static JSON
// reference resources the catalog is built from.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultCommitment = "max"
	defaultRPS        = 15
	defaultBurst      = 15
	defaultInterval   = 60 * time.Second
)

// Config is the full application configuration.
type Config struct {
	RPC       RPCConfig       `yaml:"rpc"`
	Feed      FeedConfig      `yaml:"feed"`
	Farming   FarmingConfig   `yaml:"farming"`
	Resources ResourcesConfig `yaml:"resources"`
}

// RPCConfig holds ledger endpoint settings.
type RPCConfig struct {
	Endpoint   string `yaml:"endpoint"`
	WSEndpoint string `yaml:"ws_endpoint"`
	Commitment string `yaml:"commitment"`

	// Token-bucket admission for outbound requests.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// FeedConfig holds the price/pairs API location.
type FeedConfig struct {
	BaseURL string `yaml:"base_url"`
}

// FarmingConfig drives the metrics runner.
type FarmingConfig struct {
	Interval time.Duration `yaml:"interval"`
	Watch    bool          `yaml:"watch"`

	// StakeProgramID is the staking program whose accounts distribution
	// scans read.
	StakeProgramID string `yaml:"stake_program_id"`
	// RayStakePoolID is the single-sided RAY staking pool expected by the
	// stake distribution scan.
	RayStakePoolID string `yaml:"ray_stake_pool_id"`
}

// ResourcesConfig points at the static JSON reference files.
type ResourcesConfig struct {
	Tokens       string `yaml:"tokens"`
	LPTokens     string `yaml:"lp_tokens"`
	PoolAccounts string `yaml:"pool_accounts"`
	Farms        string `yaml:"farms"`
}

// Default returns a Config with defaults applied. Endpoints and resource
// paths stay empty because they are deployment-specific.
func Default() *Config {
	return &Config{
		RPC: RPCConfig{
			Commitment:        defaultCommitment,
			RequestsPerSecond: defaultRPS,
			Burst:             defaultBurst,
		},
		Farming: FarmingConfig{
			Interval: defaultInterval,
		},
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields and bounds.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.RPC.Endpoint == "" {
		return errors.New("rpc.endpoint is required")
	}
	if c.RPC.RequestsPerSecond <= 0 {
		return fmt.Errorf("rpc.requests_per_second must be positive, got %v", c.RPC.RequestsPerSecond)
	}
	if c.RPC.Burst <= 0 {
		return fmt.Errorf("rpc.burst must be positive, got %d", c.RPC.Burst)
	}
	if c.Farming.Interval <= 0 {
		return fmt.Errorf("farming.interval must be positive, got %s", c.Farming.Interval)
	}
	if c.Farming.Watch && c.RPC.WSEndpoint == "" {
		return errors.New("rpc.ws_endpoint is required when farming.watch is enabled")
	}
	return nil
}
