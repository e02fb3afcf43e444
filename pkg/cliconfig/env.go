package cliconfig

import (
	"os"
	"strconv"
)

// Environment variable names.
const (
	EnvConfig    = "CLAPPY_CONFIG"
	EnvDryRun    = "CLAPPY_DRY_RUN"
	EnvProd      = "CLAPPY_PROD"
	EnvLogLevel  = "CLAPPY_LOG_LEVEL"
	EnvLogFormat = "CLAPPY_LOG_FORMAT"
	EnvTimeout   = "CLAPPY_TIMEOUT"
	EnvJSON      = "CLAPPY_JSON"
)

// LoadEnvConfig loads configuration from environment variables.
// It only sets values that are present in the environment.
func LoadEnvConfig(cfg *Config) {
	if cfg.Sources == nil {
		cfg.Sources = make(map[string]string)
	}

	if v := os.Getenv(EnvDryRun); v != "" {
		cfg.DryRun = truthy(v)
		cfg.Sources["dryRun"] = SourceEnv
	}
	if v := os.Getenv(EnvProd); v != "" {
		cfg.EnableProdModifications = truthy(v)
		cfg.Sources["enableProdModifications"] = SourceEnv
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
		cfg.Sources["logLevel"] = SourceEnv
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.LogFormat = v
		cfg.Sources["logFormat"] = SourceEnv
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		if timeout, err := strconv.Atoi(v); err == nil {
			cfg.Timeout = timeout
			cfg.Sources["timeout"] = SourceEnv
		}
	}
	if v := os.Getenv(EnvJSON); v != "" {
		cfg.JSON = truthy(v)
		cfg.Sources["json"] = SourceEnv
	}
}

func truthy(v string) bool {
	return v == "true" || v == "1" || v == "yes"
}
