package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.Equal(t, LedgerMemory, cfg.Engine.Ledger)
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"nats": {"url": "nats://nats-1:4222", "event_subject": "prod.events"},
		"engine": {"workers": 8, "ledger": "kv", "ledger_bucket": "dispatch"},
		"rules": {"dir": "/etc/ruleflow/rules"}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "nats://nats-1:4222", cfg.NATS.URL)
	assert.Equal(t, "prod.events", cfg.NATS.EventSubject)
	assert.Equal(t, 8, cfg.Engine.Workers)
	assert.Equal(t, LedgerKV, cfg.Engine.Ledger)
	assert.Equal(t, "/etc/ruleflow/rules", cfg.Rules.Dir)

	// Unset fields keep defaults.
	assert.Equal(t, 1024, cfg.Engine.QueueSize)
	assert.Equal(t, "ruleflow.notify", cfg.Notify.SubjectPrefix)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
nats:
  url: nats://nats-2:4222
engine:
  workers: 2
  action_timeout: 3s
notify:
  default_channel: teams
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "nats://nats-2:4222", cfg.NATS.URL)
	assert.Equal(t, 2, cfg.Engine.Workers)
	assert.Equal(t, 3*time.Second, cfg.Engine.ActionTimeout)
	assert.Equal(t, "teams", cfg.Notify.DefaultChannel)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/does/not/exist.json")
	assert.Error(t, err)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("RULEFLOW_NATS_URL", "nats://override:4222")
	t.Setenv("RULEFLOW_WORKERS", "16")
	t.Setenv("RULEFLOW_RULES_DIR", "/rules")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "nats://override:4222", cfg.NATS.URL)
	assert.Equal(t, 16, cfg.Engine.Workers)
	assert.Equal(t, "/rules", cfg.Rules.Dir)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing nats url", func(c *Config) { c.NATS.URL = "" }},
		{"zero workers", func(c *Config) { c.Engine.Workers = 0 }},
		{"zero queue size", func(c *Config) { c.Engine.QueueSize = 0 }},
		{"unknown ledger", func(c *Config) { c.Engine.Ledger = "redis" }},
		{"kv ledger without bucket", func(c *Config) { c.Engine.Ledger = LedgerKV; c.Engine.LedgerBucket = "" }},
		{"ops port out of range", func(c *Config) { c.Ops.Port = 70000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
