package cliconfig

// DefaultTimeout is the default HTTP timeout in seconds.
const DefaultTimeout = 30

// DefaultLogLevel is the default log level.
const DefaultLogLevel = "warn"

// DefaultLogFormat is the default log format.
const DefaultLogFormat = "text"

// NewDefault creates a Config with default values.
func NewDefault() *Config {
	cfg := &Config{
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
		Timeout:   DefaultTimeout,
		Sources:   make(map[string]string),
	}
	for _, key := range []string{"logLevel", "logFormat", "timeout", "dryRun", "enableProdModifications", "json"} {
		cfg.Sources[key] = SourceDefault
	}
	return cfg
}
