// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/cerechat/internal/cloud"
	"github.com/jeranaias/cerechat/internal/logging"
	"github.com/jeranaias/cerechat/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete cerechat configuration.
type Config struct {
	Provider ProviderConfig `toml:"provider" json:"provider" yaml:"provider"`
	Request  RequestConfig  `toml:"request" json:"request" yaml:"request"`
	Dispatch DispatchConfig `toml:"dispatch" json:"dispatch" yaml:"dispatch"`
	UI       UIConfig       `toml:"ui" json:"ui" yaml:"ui"`
	Log      LogConfig      `toml:"log" json:"log" yaml:"log"`
}

// ProviderConfig describes the completion endpoint.
type ProviderConfig struct {
	// Endpoint is the full chat completions URL
	Endpoint string `toml:"endpoint" json:"endpoint" yaml:"endpoint"`
	// Model is sent as the "model" field of every request
	Model string `toml:"model" json:"model" yaml:"model"`
	// Schema names the response layout: "chat" or "generations"
	Schema string `toml:"schema" json:"schema" yaml:"schema"`
	// ResponsePath is a gjson path that overrides Schema when set
	ResponsePath string `toml:"response_path" json:"response_path,omitempty" yaml:"response_path,omitempty"`
	// CredentialEnv is the environment variable holding the API key.
	// The key itself is never stored in the config file.
	CredentialEnv string `toml:"credential_env" json:"credential_env" yaml:"credential_env"`
	// UserAgent identifies the client
	UserAgent string `toml:"user_agent" json:"user_agent" yaml:"user_agent"`
	// TimeoutSecs bounds a single request
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs" yaml:"timeout_secs"`
}

// RequestConfig holds the sampling parameters sent with every request.
type RequestConfig struct {
	Temperature float64 `toml:"temperature" json:"temperature" yaml:"temperature"`
	// MaxTokens of -1 leaves the length unconstrained
	MaxTokens int     `toml:"max_tokens" json:"max_tokens" yaml:"max_tokens"`
	Seed      int     `toml:"seed" json:"seed" yaml:"seed"`
	TopP      float64 `toml:"top_p" json:"top_p" yaml:"top_p"`
}

// DispatchConfig bounds background request concurrency.
type DispatchConfig struct {
	// MaxInFlight caps concurrent requests (0 = unbounded)
	MaxInFlight int `toml:"max_in_flight" json:"max_in_flight" yaml:"max_in_flight"`
	// RequestsPerMinute caps request rate (0 = unlimited)
	RequestsPerMinute int `toml:"requests_per_minute" json:"requests_per_minute" yaml:"requests_per_minute"`
}

// UIConfig contains harness display settings.
type UIConfig struct {
	// Markdown renders replies with glamour when stdout is a terminal
	Markdown bool `toml:"markdown" json:"markdown" yaml:"markdown"`
	// Theme is "dark", "light" or "auto"
	Theme string `toml:"theme" json:"theme" yaml:"theme"`
}

// LogConfig controls the structured log file.
type LogConfig struct {
	// File is the log path (empty = ~/.cerechat/cerechat.log)
	File string `toml:"file" json:"file,omitempty" yaml:"file,omitempty"`
	// Level is debug, info, warn or error
	Level string `toml:"level" json:"level" yaml:"level"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// DefaultCredentialEnv is the variable the API key is read from.
const DefaultCredentialEnv = "CEREBRAS_API_KEY"

// Default returns a Config with the built-in defaults.
func Default() *Config {
	params := cloud.DefaultParams()
	return &Config{
		Provider: ProviderConfig{
			Endpoint:      cloud.DefaultEndpoint,
			Model:         params.Model,
			Schema:        cloud.SchemaChat,
			CredentialEnv: DefaultCredentialEnv,
			UserAgent:     cloud.DefaultUserAgent,
			TimeoutSecs:   int(cloud.DefaultTimeout / time.Second),
		},
		Request: RequestConfig{
			Temperature: params.Temperature,
			MaxTokens:   params.MaxTokens,
			Seed:        params.Seed,
			TopP:        params.TopP,
		},
		Dispatch: DispatchConfig{
			MaxInFlight:       0, // unbounded
			RequestsPerMinute: 0, // unlimited
		},
		UI: UIConfig{
			Markdown: true,
			Theme:    "auto",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the cerechat configuration directory. CERECHAT_HOME
// overrides the default of ~/.cerechat.
func ConfigDir() (string, error) {
	if dir := os.Getenv("CERECHAT_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".cerechat"), nil
}

func pathIn(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) { return pathIn("config.toml") }

// ConfigPathYAML returns the path to the YAML config file.
func ConfigPathYAML() (string, error) { return pathIn("config.yaml") }

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) { return pathIn("config.json") }

// HistoryPath returns the REPL line history file.
func HistoryPath() (string, error) { return pathIn("history") }

// DefaultLogPath returns the default log file.
func DefaultLogPath() (string, error) { return pathIn("cerechat.log") }

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, util.DefaultDirPerm)
}

// ensureSecurePermissions tightens a config file to 0600.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode&0077 != 0 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// FindConfigFile returns the first existing file of config.toml,
// config.yaml and config.json in ConfigDir. found is false when none
// exists, and path is then the TOML path a save would create.
func FindConfigFile() (path string, found bool, err error) {
	for _, pathFn := range []func() (string, error){ConfigPathTOML, ConfigPathYAML, ConfigPathJSON} {
		p, err := pathFn()
		if err != nil {
			return "", false, err
		}
		if _, statErr := os.Stat(p); statErr == nil {
			return p, true, nil
		}
	}
	path, err = ConfigPathTOML()
	return path, false, err
}

// Load finds and loads the configuration file (see FindConfigFile); with
// none, the defaults are used. Environment overrides are applied last,
// then the result is validated.
func Load() (*Config, error) {
	path, found, err := FindConfigFile()
	if err != nil {
		return nil, err
	}
	if found {
		return LoadFromPath(path)
	}
	return finish(Default())
}

// LoadFromPath loads configuration from a specific file. The format is
// chosen by extension; anything other than .yaml, .yml or .json is TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = LoadJSON(cfg, path)
	case ".yaml", ".yml":
		err = LoadYAML(cfg, path)
	default:
		err = LoadTOML(cfg, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// warnPermissions is where permission fix-up failures are reported. The
// load itself still succeeds.
var warnPermissions = func(path string, err error) {
	fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
}

// LoadTOML decodes a TOML file over cfg. Keys absent from the file keep
// their current values.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		warnPermissions(path, err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadYAML decodes a YAML file over cfg.
func LoadYAML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		warnPermissions(path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read YAML file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode YAML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		warnPermissions(path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

const fileHeader = `# cerechat configuration file
# The API key is read from the environment variable named by
# provider.credential_env and is never written here.

`

// EncodeTOML renders cfg as TOML with the standard header.
func EncodeTOML(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(fileHeader)
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes cfg to the default TOML file.
func Save(cfg *Config) (string, error) {
	path, err := ConfigPathTOML()
	if err != nil {
		return "", err
	}
	return path, SaveTOML(cfg, path)
}

// SaveTOML writes cfg to path atomically with mode 0600.
func SaveTOML(cfg *Config, path string) error {
	data, err := EncodeTOML(cfg)
	if err != nil {
		return err
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration and returns ValidateErrors listing
// every problem found, or nil.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	// Provider
	if u, err := url.Parse(c.Provider.Endpoint); err != nil {
		add("provider.endpoint", "invalid URL: %v", err)
	} else if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		add("provider.endpoint", "must be an http(s) URL with a host, got %q", c.Provider.Endpoint)
	}
	if strings.TrimSpace(c.Provider.Model) == "" {
		add("provider.model", "must not be empty")
	}
	if _, err := cloud.DecoderForSchema(c.Provider.Schema, c.Provider.ResponsePath); err != nil {
		add("provider.schema", "%v", err)
	}
	if strings.TrimSpace(c.Provider.CredentialEnv) == "" {
		add("provider.credential_env", "must name an environment variable")
	}
	if c.Provider.TimeoutSecs <= 0 {
		add("provider.timeout_secs", "must be positive, got %d", c.Provider.TimeoutSecs)
	}

	// Request
	if c.Request.Temperature < 0 || c.Request.Temperature > 2 {
		add("request.temperature", "must be between 0.0 and 2.0, got %g", c.Request.Temperature)
	}
	if c.Request.TopP < 0 || c.Request.TopP > 1 {
		add("request.top_p", "must be between 0.0 and 1.0, got %g", c.Request.TopP)
	}
	if c.Request.MaxTokens != -1 && c.Request.MaxTokens <= 0 {
		add("request.max_tokens", "must be -1 (unconstrained) or positive, got %d", c.Request.MaxTokens)
	}

	// Dispatch
	if c.Dispatch.MaxInFlight < 0 {
		add("dispatch.max_in_flight", "must be non-negative, got %d", c.Dispatch.MaxInFlight)
	}
	if c.Dispatch.RequestsPerMinute < 0 {
		add("dispatch.requests_per_minute", "must be non-negative, got %d", c.Dispatch.RequestsPerMinute)
	}

	// UI
	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		add("ui.theme", "invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme)
	}

	// Log
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		add("log.level", "%v", err)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills empty string fields from Default. Numeric fields are
// left alone since their zero values are meaningful.
func (c *Config) SetDefaults() {
	d := Default()

	if c.Provider.Endpoint == "" {
		c.Provider.Endpoint = d.Provider.Endpoint
	}
	if c.Provider.Model == "" {
		c.Provider.Model = d.Provider.Model
	}
	if c.Provider.Schema == "" && c.Provider.ResponsePath == "" {
		c.Provider.Schema = d.Provider.Schema
	}
	if c.Provider.CredentialEnv == "" {
		c.Provider.CredentialEnv = d.Provider.CredentialEnv
	}
	if c.Provider.UserAgent == "" {
		c.Provider.UserAgent = d.Provider.UserAgent
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ErrBadEnv reports an environment override that could not be parsed.
var ErrBadEnv = errors.New("invalid environment override")

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - CERECHAT_ENDPOINT: overrides provider.endpoint
//   - CERECHAT_MODEL: overrides provider.model
//   - CERECHAT_SCHEMA: overrides provider.schema
//   - CERECHAT_LOG_LEVEL: overrides log.level
//   - CERECHAT_MAX_IN_FLIGHT: overrides dispatch.max_in_flight
func (c *Config) ApplyEnvOverrides() error {
	if v := os.Getenv("CERECHAT_ENDPOINT"); v != "" {
		c.Provider.Endpoint = v
	}
	if v := os.Getenv("CERECHAT_MODEL"); v != "" {
		c.Provider.Model = v
	}
	if v := os.Getenv("CERECHAT_SCHEMA"); v != "" {
		c.Provider.Schema = v
	}
	if v := os.Getenv("CERECHAT_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("CERECHAT_MAX_IN_FLIGHT"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: CERECHAT_MAX_IN_FLIGHT=%q is not an integer", ErrBadEnv, v)
		}
		c.Dispatch.MaxInFlight = n
	}
	return nil
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// Params returns the request parameters for the completion client.
func (c *Config) Params() cloud.Params {
	return cloud.Params{
		Model:       c.Provider.Model,
		Temperature: c.Request.Temperature,
		MaxTokens:   c.Request.MaxTokens,
		Seed:        c.Request.Seed,
		TopP:        c.Request.TopP,
	}
}

// Decoder returns the response decoder for the configured schema.
func (c *Config) Decoder() (cloud.Decoder, error) {
	return cloud.DecoderForSchema(c.Provider.Schema, c.Provider.ResponsePath)
}

// Timeout returns the per-request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Provider.TimeoutSecs) * time.Second
}

// LogPath returns the configured log file or the default one.
func (c *Config) LogPath() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	return DefaultLogPath()
}
