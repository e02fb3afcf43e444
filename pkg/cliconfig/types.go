package cliconfig

import (
	"fmt"

	"github.com/getmockd/clappy/pkg/session"
)

// Config is the complete configuration of the clappy CLI.
type Config struct {
	// APIs are the remote APIs, keyed by API id.
	APIs map[string]*session.API `yaml:"apis,omitempty" json:"apis,omitempty"`

	// CommandAliases map an alias name to program text.
	CommandAliases     map[string]string `yaml:"commandAliases,omitempty" json:"commandAliases,omitempty"`
	FilterAliases      map[string]string `yaml:"filterAliases,omitempty" json:"filterAliases,omitempty"`
	TransactionAliases map[string]string `yaml:"transactionAliases,omitempty" json:"transactionAliases,omitempty"`

	DryRun                  bool `yaml:"dryRun" json:"dryRun"`
	EnableProdModifications bool `yaml:"enableProdModifications" json:"enableProdModifications"`

	// ThemePreset names one of session.Presets. Colors in Theme override it.
	ThemePreset string                  `yaml:"themePreset,omitempty" json:"themePreset,omitempty"`
	Theme       *session.ThemeOverrides `yaml:"theme,omitempty" json:"theme,omitempty"`

	LogLevel  string `yaml:"logLevel" json:"logLevel"`
	LogFormat string `yaml:"logFormat" json:"logFormat"`

	// Timeout is the HTTP timeout in seconds.
	Timeout int `yaml:"timeout" json:"timeout"`

	// JSON prints results as compact JSON instead of indented output.
	JSON bool `yaml:"json" json:"json"`

	// ConfigFile is the explicitly requested config file, if any.
	ConfigFile string `yaml:"-" json:"-"`

	// Sources tracks where each scalar value came from.
	Sources map[string]string `yaml:"-" json:"-"`

	// SetFields records which top-level keys a file set, so an explicit
	// false can override an earlier true.
	SetFields map[string]bool `yaml:"-" json:"-"`
}

// Where a config value originated.
const (
	SourceDefault = "default"
	SourceGlobal  = "global"
	SourceLocal   = "local"
	SourceFile    = "file"
	SourceEnv     = "env"
	SourceFlag    = "flag"
)

// ConfigError is a configuration file error with location info.
type ConfigError struct {
	Path    string
	Line    int
	Column  int
	Message string
}

func (e *ConfigError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s (line %d, column %d): %s", e.Path, e.Line, e.Column, e.Message)
	}
	return e.Path + ": " + e.Message
}
