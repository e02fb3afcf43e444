package cliconfig

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/getmockd/clappy/pkg/session"
)

var knownLogLevels = []string{"debug", "info", "warn", "warning", "error"}

// Validate checks the merged configuration, including values that came from
// flags and the environment.
func (c *Config) Validate() error {
	var errs []error
	if c.Timeout < 1 || c.Timeout > 600 {
		errs = append(errs, fmt.Errorf("timeout %d is out of range (1-600)", c.Timeout))
	}
	if !slices.Contains(knownLogLevels, strings.ToLower(c.LogLevel)) {
		errs = append(errs, fmt.Errorf("logLevel %q is not one of %s", c.LogLevel, strings.Join(knownLogLevels, ", ")))
	}
	if f := strings.ToLower(c.LogFormat); f != "text" && f != "json" {
		errs = append(errs, fmt.Errorf("logFormat %q must be text or json", c.LogFormat))
	}
	if c.ThemePreset != "" {
		if _, ok := session.Presets[c.ThemePreset]; !ok {
			errs = append(errs, fmt.Errorf("themePreset %q is unknown", c.ThemePreset))
		}
	}
	return errors.Join(errs...)
}

// HTTPTimeout returns Timeout as a duration.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// Overrides converts the configuration into session overrides for the root
// session.
func (c *Config) Overrides() *session.Overrides {
	o := &session.Overrides{
		APIs:                    make(map[string]*session.API, len(c.APIs)),
		CommandAliases:          maps.Clone(c.CommandAliases),
		FilterAliases:           maps.Clone(c.FilterAliases),
		TransactionAliases:      maps.Clone(c.TransactionAliases),
		DryRun:                  &c.DryRun,
		EnableProdModifications: &c.EnableProdModifications,
	}
	for id, api := range c.APIs {
		o.APIs[id] = api.Clone()
	}

	if c.ThemePreset != "" || c.Theme != nil {
		theme := &session.ThemeOverrides{Colors: maps.Clone(session.Presets[c.ThemePreset])}
		theme.Merge(c.Theme)
		o.Theme = theme
	}
	return o
}
