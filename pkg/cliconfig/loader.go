package cliconfig

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"
)

// GlobalConfigDir is the directory for global config.
const GlobalConfigDir = "clappy"

// LocalConfigFileNames are the names to search for local config (in order).
var LocalConfigFileNames = []string{".clappy.yaml", ".clappy.yml"}

// GlobalConfigFileNames are the names to search for global config (in order).
var GlobalConfigFileNames = []string{"config.yaml", "config.yml"}

// FindLocalConfig searches the current directory for a local config file.
func FindLocalConfig() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for _, name := range LocalConfigFileNames {
		path := filepath.Join(cwd, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", nil
}

// FindGlobalConfig returns the path to the global config file.
// Returns empty string if not found.
func FindGlobalConfig() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		//nolint:nilerr // no config dir means no global config
		return "", nil
	}
	for _, name := range GlobalConfigFileNames {
		path := filepath.Join(configDir, GlobalConfigDir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", nil
}

var yamlLine = regexp.MustCompile(`^yaml: line (\d+): (.*)$`)

// LoadConfigFile loads and validates a Config from a YAML file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		cerr := &ConfigError{Path: path, Message: err.Error()}
		if m := yamlLine.FindStringSubmatch(err.Error()); m != nil {
			cerr.Line, _ = strconv.Atoi(m[1])
			cerr.Column = 1
			cerr.Message = m[2]
		}
		return nil, cerr
	}
	// A file with no content, or only comments, decodes to nil.
	if raw == nil {
		raw = map[string]any{}
	}
	if err := ValidateDocument(raw); err != nil {
		return nil, &ConfigError{Path: path, Message: err.Error()}
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &ConfigError{Path: path, Message: err.Error()}
	}
	cfg.Sources = make(map[string]string)
	cfg.SetFields = make(map[string]bool, len(raw))
	for k := range raw {
		cfg.SetFields[k] = true
	}
	return &cfg, nil
}

// LoadAll loads configuration from every source except flags and merges
// them. explicitPath is the --config flag value; CLAPPY_CONFIG is used when
// it is empty. A missing explicit file is an error, missing discovered files
// are not.
func LoadAll(explicitPath string) (*Config, error) {
	cfg := NewDefault()

	if globalPath, err := FindGlobalConfig(); err == nil && globalPath != "" {
		globalCfg, err := LoadConfigFile(globalPath)
		if err != nil {
			return nil, err
		}
		MergeConfig(cfg, globalCfg, SourceGlobal)
	}

	if localPath, err := FindLocalConfig(); err == nil && localPath != "" {
		localCfg, err := LoadConfigFile(localPath)
		if err != nil {
			return nil, err
		}
		MergeConfig(cfg, localCfg, SourceLocal)
	}

	if explicitPath == "" {
		explicitPath = os.Getenv(EnvConfig)
	}
	if explicitPath != "" {
		fileCfg, err := LoadConfigFile(explicitPath)
		if err != nil {
			return nil, err
		}
		MergeConfig(cfg, fileCfg, SourceFile)
		cfg.ConfigFile = explicitPath
	}

	LoadEnvConfig(cfg)
	return cfg, nil
}
