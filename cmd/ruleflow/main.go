// Package main implements the entry point for the RuleFlow application.
// RuleFlow is a rule-based event filtering and notification engine: it
// evaluates incoming events against configured rules and dispatches the
// actions of matching rules at most once per event and rule.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360/ruleflow/action"
	"github.com/c360/ruleflow/condition"
	"github.com/c360/ruleflow/config"
	"github.com/c360/ruleflow/dispatch"
	"github.com/c360/ruleflow/engine"
	"github.com/c360/ruleflow/ingest"
	"github.com/c360/ruleflow/metric"
	"github.com/c360/ruleflow/natsclient"
	"github.com/c360/ruleflow/notify"
	"github.com/c360/ruleflow/rule"
	"github.com/c360/ruleflow/store"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "ruleflow"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg, shouldExit, err := initializeCLI()
	if shouldExit || err != nil {
		return err
	}

	// Load already applies env overrides and validates.
	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cliCfg.Validate {
		slog.Info("Configuration is valid")
		return nil
	}

	ctx := context.Background()
	metricsRegistry := metric.NewMetricsRegistry()

	natsClient, err := connectNATS(ctx, cfg, metricsRegistry)
	if err != nil {
		return err
	}
	defer func() { _ = natsClient.Close() }()

	eng, ingester, err := buildEngine(ctx, cfg, natsClient, metricsRegistry)
	if err != nil {
		return err
	}
	defer ingester.Close()

	if err := eng.Start(ctx); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}

	if err := ingester.Start(ctx, natsClient, cfg.NATS.EventSubject, cfg.NATS.QueueGroup); err != nil {
		return fmt.Errorf("start ingest: %w", err)
	}

	opsServer := startOpsServer(cfg, metricsRegistry, natsClient)
	defer func() { _ = opsServer.Stop() }()

	return runWithSignalHandling(ctx, eng, cliCfg)
}

// initializeCLI parses flags and sets up logging
func initializeCLI() (*CLIConfig, bool, error) {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return nil, false, fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil, true, nil
	}

	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil, true, nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("Starting RuleFlow (rule-based event notification)",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath)

	return cliCfg, false, nil
}

// connectNATS creates the NATS client and establishes the connection.
func connectNATS(ctx context.Context, cfg *config.Config, metricsRegistry *metric.MetricsRegistry) (*natsclient.Client, error) {
	natsClient, err := natsclient.NewClient(cfg.NATS.URL,
		natsclient.WithClientName(cfg.NATS.ClientName),
		natsclient.WithReconnect(cfg.NATS.MaxReconnects, cfg.NATS.ReconnectWait),
		natsclient.WithMetrics(metricsRegistry.CoreMetrics()),
	)
	if err != nil {
		return nil, fmt.Errorf("create NATS client: %w", err)
	}

	slog.Info("Connecting to NATS", "url", cfg.NATS.URL)
	if err := natsClient.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return natsClient, nil
}

// buildEngine wires the stores, ledger, action registry and engine per the
// configuration, along with the ingester that feeds it.
func buildEngine(
	ctx context.Context,
	cfg *config.Config,
	natsClient *natsclient.Client,
	metricsRegistry *metric.MetricsRegistry,
) (*engine.Engine, *ingest.Ingester, error) {
	groups, err := buildGroupStore(ctx, cfg, natsClient)
	if err != nil {
		return nil, nil, err
	}

	rules, err := buildRuleStore(ctx, cfg, natsClient)
	if err != nil {
		return nil, nil, err
	}

	ledger, err := buildLedger(ctx, cfg, natsClient)
	if err != nil {
		return nil, nil, err
	}

	notifier := notify.NewNATSNotifier(natsClient, cfg.Notify.SubjectPrefix)
	actions := action.NewDefaultRegistry(action.Defaults{
		Notifier:       notifier,
		Groups:         groups,
		DefaultChannel: cfg.Notify.DefaultChannel,
		BaseURL:        cfg.Notify.BaseURL,
	})

	evaluator := engine.NewEvaluator(condition.NewDefaultRegistry())
	eng := engine.New(rules, evaluator, ledger, actions, engine.Options{
		Workers:           cfg.Engine.Workers,
		QueueSize:         cfg.Engine.QueueSize,
		ActionTimeout:     cfg.Engine.ActionTimeout,
		TerminalRetention: cfg.Engine.TerminalRetention,
		MetricsRegistry:   metricsRegistry,
	})

	ingester, err := ingest.New(eng, metricsRegistry.CoreMetrics())
	if err != nil {
		return nil, nil, fmt.Errorf("create ingester: %w", err)
	}

	return eng, ingester, nil
}

func buildGroupStore(ctx context.Context, cfg *config.Config, natsClient *natsclient.Client) (store.GroupStore, error) {
	if cfg.Groups.Bucket == "" {
		slog.Info("Using in-memory group store")
		return store.NewMemoryGroupStore(), nil
	}

	kv, err := ensureBucket(ctx, natsClient, cfg.Groups.Bucket, "group state")
	if err != nil {
		return nil, err
	}
	slog.Info("Using KV group store", "bucket", cfg.Groups.Bucket)
	return store.NewKVGroupStore(natsclient.NewKVStore(kv)), nil
}

func buildRuleStore(ctx context.Context, cfg *config.Config, natsClient *natsclient.Client) (store.RuleStore, error) {
	if cfg.Rules.Bucket != "" {
		kv, err := ensureBucket(ctx, natsClient, cfg.Rules.Bucket, "rule definitions")
		if err != nil {
			return nil, err
		}
		slog.Info("Loading rules from KV", "bucket", cfg.Rules.Bucket)
		kvRules := store.NewKVRuleStore(natsclient.NewKVStore(kv))
		return store.NewCachedRuleStore(kvRules, store.DefaultRuleCacheTTL), nil
	}

	if cfg.Rules.Dir != "" {
		loader := rule.NewLoader(slog.Default())
		rules, err := loader.LoadDir(cfg.Rules.Dir)
		if err != nil {
			return nil, fmt.Errorf("load rules from %s: %w", cfg.Rules.Dir, err)
		}
		slog.Info("Loaded rules from directory", "dir", cfg.Rules.Dir, "count", len(rules))
		return store.NewMemoryRuleStore(rules), nil
	}

	slog.Warn("No rule source configured, starting with an empty rule set")
	return store.NewMemoryRuleStore(nil), nil
}

func buildLedger(ctx context.Context, cfg *config.Config, natsClient *natsclient.Client) (dispatch.Ledger, error) {
	if cfg.Engine.Ledger == config.LedgerKV {
		kv, err := ensureBucket(ctx, natsClient, cfg.Engine.LedgerBucket, "dispatch records")
		if err != nil {
			return nil, err
		}
		slog.Info("Using KV dispatch ledger", "bucket", cfg.Engine.LedgerBucket)
		return dispatch.NewKVLedger(natsclient.NewKVStore(kv)), nil
	}

	slog.Info("Using in-memory dispatch ledger", "retention", cfg.Engine.TerminalRetention)
	return dispatch.NewMemoryLedger(cfg.Engine.TerminalRetention), nil
}

func ensureBucket(ctx context.Context, natsClient *natsclient.Client, bucket, description string) (jetstream.KeyValue, error) {
	kv, err := natsClient.EnsureKeyValueBucket(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: description,
	})
	if err != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", bucket, err)
	}
	return kv, nil
}

// startOpsServer serves metrics and health in the background.
func startOpsServer(cfg *config.Config, metricsRegistry *metric.MetricsRegistry, natsClient *natsclient.Client) *metric.Server {
	opsServer := metric.NewServer(cfg.Ops.Port, cfg.Ops.MetricsPath, metricsRegistry, func() error {
		if !natsClient.IsHealthy() {
			return natsclient.ErrNotConnected
		}
		return nil
	})

	go func() {
		if err := opsServer.Start(); err != nil {
			slog.Error("Ops server failed", "error", err)
		}
	}()

	return opsServer
}

// runWithSignalHandling blocks until a shutdown signal, then drains the engine
func runWithSignalHandling(ctx context.Context, eng *engine.Engine, cliCfg *CLIConfig) error {
	signalCtx, signalCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	slog.Info("RuleFlow started successfully")

	<-signalCtx.Done()
	slog.Info("Received shutdown signal")

	if err := eng.Stop(cliCfg.ShutdownTimeout); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("RuleFlow shutdown complete")
	return nil
}
