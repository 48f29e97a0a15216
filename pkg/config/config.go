// Package config loads and validates per-rank cluster configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shouc/distfuzz/pkg/feedback"
	"github.com/shouc/distfuzz/pkg/validation"
)

// Backend selects a transport implementation.
type Backend string

const (
	BackendLocal Backend = "local"
	BackendZMQ   Backend = "zmq"
	BackendNNG   Backend = "nng"
)

// Config is the full per-process configuration for one rank in the
// cluster: its identity, the transport it should use, and fuzzing-loop
// tunables.
type Config struct {
	Rank      int     `yaml:"rank" validate:"gte=0,ltfield=WorldSize"`
	WorldSize int     `yaml:"world_size" validate:"gt=0"`
	Backend   Backend `yaml:"backend" validate:"oneof=local zmq nng"`

	// Addresses maps rank -> listen/dial address, required for the
	// zmq and nng backends. Unused for the local backend.
	Addresses map[int]string `yaml:"addresses" validate:"required_unless=Backend local"`

	EpochSize     int `yaml:"epoch_size" validate:"gt=0"`
	EdgeTraceSize int `yaml:"edge_trace_size"`

	Corpus    CorpusConfig    `yaml:"corpus"`
	Objective ObjectiveConfig `yaml:"objective"`
	API       APIConfig       `yaml:"api"`
}

// CorpusConfig selects where novel testcases are archived.
type CorpusConfig struct {
	Backend   string `yaml:"backend"` // "fs" or "s3"
	Directory string `yaml:"directory"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
}

// ObjectiveConfig selects where crash/timeout objectives are persisted.
type ObjectiveConfig struct {
	Enabled        bool          `yaml:"enabled"`
	PostgresDSN    string        `yaml:"postgres_dsn" validate:"required_if=Enabled true"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// APIConfig configures the read-only cluster status API.
type APIConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
	JWTSecret  string `yaml:"jwt_secret"`

	// StaticToken, if set, is accepted alongside a JWT as a bearer
	// token (e.g. for fuzzctl before an operator has JWT issuance
	// wired up). Either, both, or neither may be configured.
	StaticToken string `yaml:"static_token"`
}

// Default returns a single-process, local-transport configuration
// suitable for tests and local development.
func Default(rank, worldSize int) Config {
	return Config{
		Rank:          rank,
		WorldSize:     worldSize,
		Backend:       BackendLocal,
		EpochSize:     1000,
		EdgeTraceSize: feedback.EdgeTraceSize,
		Corpus:        CorpusConfig{Backend: "fs", Directory: "./corpus"},
	}
}

// Load reads and validates a YAML configuration file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default(0, 1)
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field invariants: struct-tag rules first (range,
// required_if/required_unless, oneof), then the handful of cross-field
// checks a tag can't express on its own.
func (c Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return err
	}

	if c.Backend != BackendLocal && len(c.Addresses) < c.WorldSize {
		return fmt.Errorf("Config.Addresses: expected an address for each of %d ranks, got %d", c.WorldSize, len(c.Addresses))
	}

	return nil
}
