package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load builds the configuration: defaults, then the YAML file at path (a
// missing file is not an error), then environment overrides. The result is
// validated.
//
// Environment variables:
//   - FACTORY_MAX_TASKS: Batch bound (default: 5)
//   - FACTORY_AUTO_COMMIT: Commit each completed task (default: false)
//   - FACTORY_DRY_RUN: Plan fixes without applying them (default: false)
//   - FACTORY_SKIP_APPROVAL: Approve without prompting (default: false)
//   - FACTORY_COMMAND_TIMEOUT_SECS: Command fix timeout in seconds (default: 120)
//   - FACTORY_LOG_LEVEL: debug, info, warn or error (default: info)
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		default:
			if err := decode(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("invalid configuration from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// decode overlays the YAML document on cfg. Unknown keys are rejected so
// typos do not silently fall back to defaults.
func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if err := parseEnvInt("FACTORY_MAX_TASKS", &cfg.MaxTasks); err != nil {
		return err
	}
	if err := parseEnvBool("FACTORY_AUTO_COMMIT", &cfg.AutoCommit); err != nil {
		return err
	}
	if err := parseEnvBool("FACTORY_DRY_RUN", &cfg.DryRun); err != nil {
		return err
	}
	if err := parseEnvBool("FACTORY_SKIP_APPROVAL", &cfg.SkipApproval); err != nil {
		return err
	}
	if err := parseEnvDuration("FACTORY_COMMAND_TIMEOUT_SECS", &cfg.CommandTimeout, time.Second); err != nil {
		return err
	}
	if v := os.Getenv("FACTORY_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	return nil
}

// parseEnvInt parses an int from an environment variable
func parseEnvInt(key string, dest *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvBool parses a bool from an environment variable
func parseEnvBool(key string, dest *bool) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvDuration parses a duration from an environment variable
// The multiplier is used to convert the numeric value to a duration
// (e.g., for seconds: multiplier = time.Second)
func parseEnvDuration(key string, dest *time.Duration, multiplier time.Duration) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = time.Duration(parsed) * multiplier
	return nil
}
