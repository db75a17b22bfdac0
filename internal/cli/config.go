// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command handler for cerechat.
//
// Command: config [subcommand]
// Short:   Show, locate or create the configuration file
//
// Subcommands:
//   show (default)      Print the effective configuration as TOML
//   path                Print the config file path
//   init [--force]      Write the defaults to ~/.cerechat/config.toml
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/cerechat/internal/config"
)

// HandleConfig handles the "config" command.
func HandleConfig(args Args) error {
	return runConfig(os.Stdout, args)
}

func runConfig(w io.Writer, args Args) error {
	switch args.Subcommand {
	case "", "show":
		return handleConfigShow(w, args)
	case "path":
		return handleConfigPath(w, args)
	case "init":
		return handleConfigInit(w, args)
	default:
		return &UsageError{Msg: fmt.Sprintf("unknown config subcommand: %s", args.Subcommand)}
	}
}

// handleConfigShow prints the effective config: file, environment and
// --model applied. The credential is never part of it.
func handleConfigShow(w io.Writer, args Args) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	data, err := config.EncodeTOML(cfg)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func handleConfigPath(w io.Writer, args Args) error {
	if args.ConfigPath != "" {
		fmt.Fprintln(w, args.ConfigPath)
		return nil
	}
	path, found, err := config.FindConfigFile()
	if err != nil {
		return err
	}
	if found || args.Quiet {
		fmt.Fprintln(w, path)
		return nil
	}
	fmt.Fprintf(w, "%s %s\n", path, DimStyle.Render("(not created yet; run 'cerechat config init')"))
	return nil
}

// handleConfigInit writes the built-in defaults. An existing file is kept
// unless --force is given.
func handleConfigInit(w io.Writer, args Args) error {
	path := args.ConfigPath
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".yaml" || ext == ".yml" || ext == ".json" {
		return &UsageError{Msg: "config init writes TOML; use a .toml path"}
	}
	if path == "" {
		var err error
		if path, err = config.ConfigPathTOML(); err != nil {
			return err
		}
		if err := config.EnsureConfigDir(); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if _, err := os.Stat(path); err == nil && !args.Force {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}

	if err := config.SaveTOML(config.Default(), path); err != nil {
		return err
	}
	fmt.Fprintf(w, "Wrote %s\n", path)
	return nil
}
