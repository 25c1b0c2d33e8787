package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"modelrelay/internal/catalog"
	"modelrelay/internal/classify"
	"modelrelay/internal/config"
	"modelrelay/internal/llm"
	"modelrelay/internal/orchestrator"
	"modelrelay/internal/route"
	"modelrelay/internal/secrets"
	"modelrelay/internal/server"
	"modelrelay/internal/store"
	"modelrelay/internal/tool"
)

const serveUsage = `Usage:
  modelrelay serve --config <path> [--port <port>]

Flags:
  --config string   Path to YAML configuration file (required)
  --port   int      Override server port from configuration`

func serve(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, serveUsage)
	}

	var cfgPath string
	var overridePort int
	fs.StringVar(&cfgPath, "config", "", "path to configuration file")
	fs.IntVar(&overridePort, "port", 0, "override server port")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("parse serve flags: %w", err)
	}

	if cfgPath == "" {
		return errors.New("serve command requires --config <path>")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if overridePort != 0 {
		if overridePort <= 0 || overridePort > 65535 {
			return fmt.Errorf("port override %d must be a valid TCP port", overridePort)
		}
		cfg.Server.Port = overridePort
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)
	resolveKeyringSecrets(cfg, logger)

	cat := catalog.New(catalog.Default(), cfg.ProviderConfigured)
	selector := route.NewSelector(cat, func(name string) bool {
		if _, ok := cfg.Providers[name]; ok {
			return true
		}
		return len(cat.List(catalog.Filter{Provider: name})) > 0
	})

	providers := llm.NewRegistryFromConfig(cfg)
	classifier, err := buildClassifier(cfg, providers, logger)
	if err != nil {
		return err
	}

	tools := tool.NewRegistryFromConfig(cfg.Tools)

	st, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	orch := orchestrator.New(classifier, selector, providers, tools, cfg.Generation, logger)
	srv := server.New(cfg, orch, st, cat, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Printf("[serve] shutdown: %v", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// resolveKeyringSecrets fills provider keys the config and environment left
// empty from the OS keyring. Missing entries are not an error; the catalog
// simply treats those providers as unconfigured.
func resolveKeyringSecrets(cfg *config.Config, logger *log.Logger) {
	ks, err := secrets.NewKeyStore(nil)
	if err != nil {
		logger.Printf("[serve] keyring unavailable: %v", err)
		return
	}
	for name, pc := range cfg.Providers {
		if pc.APIKey != "" {
			continue
		}
		key, err := ks.Get(name)
		if err != nil {
			continue
		}
		pc.APIKey = key
		cfg.Providers[name] = pc
		logger.Printf("[serve] loaded %s credentials from keyring (%s)", name, secrets.MaskKey(key))
	}
}

// buildClassifier wires the configured strategy with the heuristic as
// fallback. The header strategy always has a fallback; a classifier outage
// must not take turns down with it.
func buildClassifier(cfg *config.Config, providers *llm.Registry, logger *log.Logger) (*classify.Classifier, error) {
	heuristic := classify.NewHeuristic()
	if cfg.Classifier.Strategy != "header" {
		return classify.New(heuristic, nil, logger), nil
	}

	provider, err := providers.Get(cfg.Classifier.Provider)
	if err != nil {
		return nil, fmt.Errorf("classifier provider: %w", err)
	}
	header := classify.NewHeaderStrategy(
		provider,
		cfg.Classifier.Model,
		time.Duration(cfg.Classifier.TimeoutSecs)*time.Second,
	)
	return classify.New(header, heuristic, logger), nil
}
