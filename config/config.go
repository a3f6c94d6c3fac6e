// Package config loads and validates the application configuration from a
// JSON or YAML file with environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/c360/ruleflow/errors"
)

// Ledger backend constants.
const (
	LedgerMemory = "memory" // in-process only, lost on restart
	LedgerKV     = "kv"     // NATS KV, shared across replicas
)

// Config represents the complete application configuration.
type Config struct {
	NATS   NATSConfig   `json:"nats" yaml:"nats"`
	Engine EngineConfig `json:"engine" yaml:"engine"`
	Notify NotifyConfig `json:"notify" yaml:"notify"`
	Rules  RulesConfig  `json:"rules" yaml:"rules"`
	Groups GroupsConfig `json:"groups" yaml:"groups"`
	Ops    OpsConfig    `json:"ops" yaml:"ops"`
}

// NATSConfig defines NATS connection settings.
type NATSConfig struct {
	URL           string        `json:"url" yaml:"url"`
	ClientName    string        `json:"client_name,omitempty" yaml:"client_name,omitempty"`
	MaxReconnects int           `json:"max_reconnects,omitempty" yaml:"max_reconnects,omitempty"`
	ReconnectWait time.Duration `json:"reconnect_wait,omitempty" yaml:"reconnect_wait,omitempty"`

	// EventSubject is the ingest subscription; QueueGroup shares it across
	// replicas.
	EventSubject string `json:"event_subject,omitempty" yaml:"event_subject,omitempty"`
	QueueGroup   string `json:"queue_group,omitempty" yaml:"queue_group,omitempty"`
}

// EngineConfig tunes the processing core.
type EngineConfig struct {
	Workers           int           `json:"workers,omitempty" yaml:"workers,omitempty"`
	QueueSize         int           `json:"queue_size,omitempty" yaml:"queue_size,omitempty"`
	ActionTimeout     time.Duration `json:"action_timeout,omitempty" yaml:"action_timeout,omitempty"`
	TerminalRetention time.Duration `json:"terminal_retention,omitempty" yaml:"terminal_retention,omitempty"`

	// Ledger selects the dispatch record backend: memory or kv.
	Ledger       string `json:"ledger,omitempty" yaml:"ledger,omitempty"`
	LedgerBucket string `json:"ledger_bucket,omitempty" yaml:"ledger_bucket,omitempty"`
}

// NotifyConfig configures outbound notifications.
type NotifyConfig struct {
	SubjectPrefix  string `json:"subject_prefix,omitempty" yaml:"subject_prefix,omitempty"`
	DefaultChannel string `json:"default_channel,omitempty" yaml:"default_channel,omitempty"`
	BaseURL        string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
}

// RulesConfig locates the rule definitions.
type RulesConfig struct {
	// Dir is a directory of rule files (JSON or YAML).
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
	// Bucket, when set, loads rules from a NATS KV bucket instead.
	Bucket string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
}

// GroupsConfig locates group state. An empty bucket keeps groups in
// process memory; set a bucket to share group state across replicas.
type GroupsConfig struct {
	Bucket string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
}

// OpsConfig configures the metrics and health HTTP server.
type OpsConfig struct {
	Port        int    `json:"port,omitempty" yaml:"port,omitempty"`
	MetricsPath string `json:"metrics_path,omitempty" yaml:"metrics_path,omitempty"`
}

// Default returns a configuration with working defaults for a local NATS.
func Default() *Config {
	return &Config{
		NATS: NATSConfig{
			URL:           "nats://localhost:4222",
			ClientName:    "ruleflow",
			MaxReconnects: -1,
			ReconnectWait: 2 * time.Second,
			EventSubject:  "ruleflow.events",
			QueueGroup:    "ruleflow-engine",
		},
		Engine: EngineConfig{
			Workers:           4,
			QueueSize:         1024,
			ActionTimeout:     10 * time.Second,
			TerminalRetention: 24 * time.Hour,
			Ledger:            LedgerMemory,
			LedgerBucket:      "ruleflow-dispatch",
		},
		Notify: NotifyConfig{
			SubjectPrefix:  "ruleflow.notify",
			DefaultChannel: "alerts",
		},
		Ops: OpsConfig{
			Port:        9090,
			MetricsPath: "/metrics",
		},
	}
}

// Load reads a configuration file, fills defaults and applies environment
// overrides. An empty path returns the defaults with overrides applied.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.WrapFatal(err, "Config", "Load", "read config file "+path)
		}

		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			err = yaml.Unmarshal(data, cfg)
		default:
			err = json.Unmarshal(data, cfg)
		}
		if err != nil {
			return nil, errors.WrapInvalid(err, "Config", "Load", "parse config file "+path)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides selected fields from RULEFLOW_* environment variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("RULEFLOW_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("RULEFLOW_EVENT_SUBJECT"); v != "" {
		cfg.NATS.EventSubject = v
	}
	if v := os.Getenv("RULEFLOW_RULES_DIR"); v != "" {
		cfg.Rules.Dir = v
	}
	if v := os.Getenv("RULEFLOW_RULES_BUCKET"); v != "" {
		cfg.Rules.Bucket = v
	}
	if v := os.Getenv("RULEFLOW_GROUPS_BUCKET"); v != "" {
		cfg.Groups.Bucket = v
	}
	if v := os.Getenv("RULEFLOW_LEDGER"); v != "" {
		cfg.Engine.Ledger = v
	}
	if v := os.Getenv("RULEFLOW_OPS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Ops.Port = port
		}
	}
	if v := os.Getenv("RULEFLOW_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.Workers = n
		}
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.NATS.URL == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate", "nats.url is required")
	}
	if c.Engine.Workers <= 0 {
		return errors.WrapInvalid(
			fmt.Errorf("engine.workers must be positive, got %d", c.Engine.Workers),
			"Config", "Validate", "check engine settings")
	}
	if c.Engine.QueueSize <= 0 {
		return errors.WrapInvalid(
			fmt.Errorf("engine.queue_size must be positive, got %d", c.Engine.QueueSize),
			"Config", "Validate", "check engine settings")
	}
	switch c.Engine.Ledger {
	case LedgerMemory, LedgerKV:
	default:
		return errors.WrapInvalid(
			fmt.Errorf("engine.ledger must be %q or %q, got %q", LedgerMemory, LedgerKV, c.Engine.Ledger),
			"Config", "Validate", "check ledger backend")
	}
	if c.Engine.Ledger == LedgerKV && c.Engine.LedgerBucket == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig,
			"Config", "Validate", "engine.ledger_bucket required for kv ledger")
	}
	if c.Ops.Port < 0 || c.Ops.Port > 65535 {
		return errors.WrapInvalid(
			fmt.Errorf("ops.port out of range: %d", c.Ops.Port),
			"Config", "Validate", "check ops settings")
	}
	return nil
}
