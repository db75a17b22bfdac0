// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// runtime.go - Shared setup for the commands that talk to the provider.

package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jeranaias/cerechat/internal/cloud"
	"github.com/jeranaias/cerechat/internal/completion"
	"github.com/jeranaias/cerechat/internal/config"
	"github.com/jeranaias/cerechat/internal/handoff"
	"github.com/jeranaias/cerechat/internal/logging"
	"github.com/jeranaias/cerechat/internal/ui/styles"
)

// Runtime holds everything a chat harness needs: the effective config, a
// completion client and the credential source.
type Runtime struct {
	Config     *config.Config
	Client     *cloud.Client
	Credential completion.CredentialFunc
	Logger     *slog.Logger
	Theme      *styles.Theme

	closers []io.Closer
}

// loadConfig loads --config PATH when given, otherwise the default search.
func loadConfig(args Args) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if args.ConfigPath != "" {
		cfg, err = config.LoadFromPath(args.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// --model overrides file and environment
	if args.Model != "" {
		cfg.Provider.Model = args.Model
	}
	return cfg, nil
}

// Setup loads config, opens the log file and builds the client. The
// caller must Close the runtime.
func Setup(args Args) (*Runtime, error) {
	cfg, err := loadConfig(args)
	if err != nil {
		return nil, err
	}

	var closers []io.Closer
	logger := logging.Discard()
	if path, err := cfg.LogPath(); err == nil {
		l, f, err := logging.OpenFile(path, cfg.Log.Level)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %v (logging disabled)\n", WarningStyle.Render("Warning:"), err)
		} else {
			logger = l
			closers = append(closers, f)
		}
	}

	rt, err := NewRuntime(cfg, logger)
	if err != nil {
		for _, c := range closers {
			c.Close()
		}
		return nil, err
	}
	rt.closers = closers

	styles.ApplyTheme(cfg.UI.Theme)
	if !ColorsEnabled() {
		styles.DisableColor()
	}

	logger.Info("session start",
		"version", Version,
		"endpoint", cfg.Provider.Endpoint,
		"model", cfg.Provider.Model,
		"max_in_flight", cfg.Dispatch.MaxInFlight,
	)
	return rt, nil
}

// NewRuntime builds a runtime from an already loaded config. The
// credential defaults to the configured environment variable.
func NewRuntime(cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	decoder, err := cfg.Decoder()
	if err != nil {
		return nil, err
	}

	client := cloud.NewClient(cfg.Provider.Endpoint, decoder).
		WithTimeout(cfg.Timeout()).
		WithUserAgent(cfg.Provider.UserAgent).
		WithLogger(logger)

	return &Runtime{
		Config:     cfg,
		Client:     client,
		Credential: completion.EnvCredential(cfg.Provider.CredentialEnv),
		Logger:     logger,
		Theme:      styles.NewTheme(),
	}, nil
}

// NewDispatcher creates a dispatcher publishing to results with the
// configured concurrency bound and rate limit.
func (r *Runtime) NewDispatcher(results *handoff.Channel[completion.Result]) *completion.Dispatcher {
	return completion.NewDispatcher(r.Client, r.Config.Params(), r.Credential, results,
		completion.WithMaxInFlight(r.Config.Dispatch.MaxInFlight),
		completion.WithRateLimit(r.Config.Dispatch.RequestsPerMinute),
		completion.WithTimeout(r.Config.Timeout()),
		completion.WithLogger(r.Logger),
	)
}

// Close releases the log file. In-flight workers are abandoned.
func (r *Runtime) Close() error {
	var firstErr error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.closers = nil
	return firstErr
}
