// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and saves cerechat configuration.
//
// TOML, YAML and JSON files are supported. Absent keys keep their built-in
// defaults, environment variables override the file, and Validate reports
// every problem at once as ValidateErrors.
//
// # Configuration Precedence
//
// Highest first:
//   - Command line flags (--model)
//   - Environment variables (CERECHAT_*)
//   - --config PATH, or the first of ~/.cerechat/config.toml,
//     config.yaml, config.json
//   - Built-in defaults
//
// The API key is never part of the config. Provider.CredentialEnv names
// the environment variable it is read from on every request.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	decoder, _ := cfg.Decoder()
//	client := cloud.NewClient(cfg.Provider.Endpoint, decoder)
package config
