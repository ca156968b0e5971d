package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/4thel00z/consent/internal"
	"github.com/4thel00z/consent/internal/logger"
	"github.com/spf13/cobra"
)

const defaultConfigPath = "consent.yaml"

// app holds what commands share: the loaded configuration and a classifier
// built on first use, so that corpus-only commands never call an embedding
// provider.
type app struct {
	getenv  func(string) string
	cfg     *internal.Config
	cfgPath string
	log     logger.Logger
	metrics *internal.Metrics

	mu         sync.Mutex
	classifier *internal.Classifier
}

func newApp() *app {
	return &app{
		getenv:  os.Getenv,
		metrics: internal.NewMetrics(),
		log:     logger.GetDefault(),
	}
}

// load reads the config named by --config and applies environment and flag
// overrides. It runs before every subcommand.
func (a *app) load(cmd *cobra.Command) error {
	flag, _ := cmd.Flags().GetString("config")
	f := cmd.Flags().Lookup("config")
	path := a.configPath(flag, f != nil && f.Changed)

	cfg, err := a.loadFile(path)
	if err != nil {
		return err
	}

	if f := cmd.Flags().Lookup("log-level"); f != nil && f.Changed {
		cfg.Log.Level = f.Value.String()
	}
	if f := cmd.Flags().Lookup("log-json"); f != nil && f.Changed {
		cfg.Log.JSON, _ = cmd.Flags().GetBool("log-json")
	}

	a.use(cfg, path)
	return nil
}

// configPath prefers an explicit --config, then CONSENT_CONFIG, then the
// default file name.
func (a *app) configPath(flag string, changed bool) string {
	if changed && flag != "" {
		return flag
	}
	if env := a.getenv("CONSENT_CONFIG"); env != "" {
		return env
	}
	if flag != "" {
		return flag
	}
	return defaultConfigPath
}

func (a *app) loadFile(path string) (*internal.Config, error) {
	cfg, err := internal.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(a.getenv)
	return cfg, nil
}

func (a *app) use(cfg *internal.Config, path string) {
	a.cfg = cfg
	a.cfgPath = path
	a.log = logger.Setup(cfg.Log.Level, cfg.Log.JSON)
}

func (a *app) Config() *internal.Config {
	if a.cfg == nil {
		a.cfg = internal.DefaultConfig()
	}
	return a.cfg
}

func (a *app) Classifier(ctx context.Context) (*internal.Classifier, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.classifier != nil {
		return a.classifier, nil
	}

	cfg := a.Config()
	a.log.Info("building classifier",
		"backend", cfg.Embeddings.Backend,
		"index", cfg.Index.Backend,
	)

	c, err := internal.NewClassifierFromConfig(ctx, cfg, a.metrics)
	if err != nil {
		return nil, fmt.Errorf("build classifier: %w", err)
	}

	a.log.Info("classifier ready", "examples", c.Len(), "dimension", c.Dimension())
	a.classifier = c
	return c, nil
}

func (a *app) Dispatch(ctx context.Context) (*internal.DispatchUseCase, error) {
	c, err := a.Classifier(ctx)
	if err != nil {
		return nil, err
	}
	return internal.NewDispatchUseCase(c, nil, a.metrics), nil
}

func (a *app) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.classifier != nil {
		_ = a.classifier.Close()
		a.classifier = nil
	}
}
