/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Database backend selection.
type DatabaseBackend string

const (
	DatabasePostgres DatabaseBackend = "postgres"
	DatabaseMySQL    DatabaseBackend = "mysql"
	DatabaseSQLite   DatabaseBackend = "sqlite"
)

// Config covers process level configuration. Values come from the
// environment, optionally seeded from a YAML file named by GANTRY_CONFIG.
type Config struct {
	Environment string `yaml:"environment"`
	HTTPBind    string `yaml:"http_bind"`
	HTTPPort    int    `yaml:"http_port"`
	MetricsBind string `yaml:"metrics_bind"`

	DBBackend DatabaseBackend `yaml:"db_backend"`
	DBDSN     string          `yaml:"db_dsn"`

	JWTSigningKey string `yaml:"jwt_signing_key"`
	TokenTTLHours int    `yaml:"token_ttl_hours"`

	// Maintainer work-day window: the day starts at WorkStartHour and
	// spans WorkHours one-hour slots.
	WorkStartHour int `yaml:"work_start_hour"`
	WorkHours     int `yaml:"work_hours"`

	// Tracing configuration
	TracingEnabled    bool    `yaml:"tracing_enabled"`
	OTLPEndpoint      string  `yaml:"otlp_endpoint"`
	TracingSampleRate float64 `yaml:"tracing_sample_rate"`
}

// Load reads the optional YAML file, overlays environment variables,
// applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment:       "development",
		HTTPBind:          "0.0.0.0",
		HTTPPort:          8080,
		MetricsBind:       "127.0.0.1:9000",
		DBBackend:         DatabaseSQLite,
		TokenTTLHours:     12,
		WorkStartHour:     8,
		WorkHours:         9,
		OTLPEndpoint:      "localhost:4317",
		TracingSampleRate: 1.0,
	}

	if path := os.Getenv("GANTRY_CONFIG"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.Environment = getEnv("GANTRY_ENV", cfg.Environment)
	cfg.HTTPBind = getEnv("GANTRY_HTTP_BIND", cfg.HTTPBind)
	cfg.HTTPPort = getEnvInt("GANTRY_HTTP_PORT", cfg.HTTPPort)
	cfg.MetricsBind = getEnv("GANTRY_METRICS_BIND", cfg.MetricsBind)
	cfg.DBBackend = DatabaseBackend(getEnv("GANTRY_DB_BACKEND", string(cfg.DBBackend)))
	cfg.DBDSN = getEnv("GANTRY_DB_DSN", cfg.DBDSN)
	cfg.JWTSigningKey = getEnv("GANTRY_JWT_SIGNING_KEY", cfg.JWTSigningKey)
	cfg.TokenTTLHours = getEnvInt("GANTRY_TOKEN_TTL_HOURS", cfg.TokenTTLHours)
	cfg.WorkStartHour = getEnvInt("GANTRY_WORK_START_HOUR", cfg.WorkStartHour)
	cfg.WorkHours = getEnvInt("GANTRY_WORK_HOURS", cfg.WorkHours)
	cfg.TracingEnabled = getEnvBool("GANTRY_TRACING_ENABLED", cfg.TracingEnabled)
	cfg.OTLPEndpoint = getEnv("GANTRY_OTLP_ENDPOINT", cfg.OTLPEndpoint)
	cfg.TracingSampleRate = getEnvFloat("GANTRY_TRACING_SAMPLE_RATE", cfg.TracingSampleRate)

	if cfg.DBBackend != DatabasePostgres && cfg.DBBackend != DatabaseMySQL && cfg.DBBackend != DatabaseSQLite {
		return nil, fmt.Errorf("unsupported database backend %q", cfg.DBBackend)
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("GANTRY_DB_DSN must be provided")
	}

	if cfg.JWTSigningKey == "" {
		return nil, fmt.Errorf("GANTRY_JWT_SIGNING_KEY must be provided")
	}

	if cfg.WorkHours <= 0 {
		return nil, fmt.Errorf("GANTRY_WORK_HOURS must be positive, got %d", cfg.WorkHours)
	}

	if cfg.WorkStartHour < 0 || cfg.WorkStartHour > 23 {
		return nil, fmt.Errorf("GANTRY_WORK_START_HOUR %d out of range", cfg.WorkStartHour)
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "true" || v == "1" || v == "yes" {
			return true
		}
		if v == "false" || v == "0" || v == "no" {
			return false
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return def
}
