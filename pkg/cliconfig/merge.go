package cliconfig

import (
	"maps"

	"github.com/getmockd/clappy/pkg/session"
)

// MergeConfig merges source config into target, updating sources tracking.
// Only non-zero scalars from source are applied; booleans are applied when
// the source file set them. Maps are merged key by key.
func MergeConfig(target, source *Config, sourceType string) {
	if source == nil {
		return
	}
	if target.Sources == nil {
		target.Sources = make(map[string]string)
	}

	if len(source.APIs) > 0 {
		if target.APIs == nil {
			target.APIs = make(map[string]*session.API, len(source.APIs))
		}
		for id, api := range source.APIs {
			if api == nil {
				continue
			}
			if cur, ok := target.APIs[id]; ok {
				cur.Merge(api)
			} else {
				target.APIs[id] = api.Clone()
			}
		}
	}
	target.CommandAliases = mergeMap(target.CommandAliases, source.CommandAliases)
	target.FilterAliases = mergeMap(target.FilterAliases, source.FilterAliases)
	target.TransactionAliases = mergeMap(target.TransactionAliases, source.TransactionAliases)

	if boolIsSet(source, "dryRun") {
		target.DryRun = source.DryRun
		target.Sources["dryRun"] = sourceType
	}
	if boolIsSet(source, "enableProdModifications") {
		target.EnableProdModifications = source.EnableProdModifications
		target.Sources["enableProdModifications"] = sourceType
	}
	if boolIsSet(source, "json") {
		target.JSON = source.JSON
		target.Sources["json"] = sourceType
	}
	if source.ThemePreset != "" {
		target.ThemePreset = source.ThemePreset
		target.Sources["themePreset"] = sourceType
	}
	if source.Theme != nil {
		if target.Theme == nil {
			target.Theme = &session.ThemeOverrides{}
		}
		target.Theme.Merge(source.Theme)
		target.Sources["theme"] = sourceType
	}
	if source.LogLevel != "" {
		target.LogLevel = source.LogLevel
		target.Sources["logLevel"] = sourceType
	}
	if source.LogFormat != "" {
		target.LogFormat = source.LogFormat
		target.Sources["logFormat"] = sourceType
	}
	if source.Timeout != 0 {
		target.Timeout = source.Timeout
		target.Sources["timeout"] = sourceType
	}
}

// boolIsSet reports whether a boolean identified by its YAML key was
// explicitly set in the source. Without SetFields (a config built in code)
// only true counts as set.
func boolIsSet(cfg *Config, yamlKey string) bool {
	if cfg.SetFields != nil {
		return cfg.SetFields[yamlKey]
	}
	switch yamlKey {
	case "dryRun":
		return cfg.DryRun
	case "enableProdModifications":
		return cfg.EnableProdModifications
	case "json":
		return cfg.JSON
	}
	return false
}

func mergeMap(dst, src map[string]string) map[string]string {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]string, len(src))
	}
	maps.Copy(dst, src)
	return dst
}
