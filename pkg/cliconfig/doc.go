// Package cliconfig loads the configuration of the clappy CLI.
//
// Configuration is layered, highest precedence first:
//
//  1. Command-line flags
//  2. Environment variables (CLAPPY_* prefix)
//  3. The file named by --config or CLAPPY_CONFIG
//  4. Local config file (.clappy.yaml in the current directory)
//  5. Global config file ($XDG_CONFIG_HOME/clappy/config.yaml)
//  6. Default values
//
// Files are validated against an embedded JSON schema before they are
// decoded. The source of every scalar setting is tracked in Config.Sources.
//
// Maps (apis, aliases) from several files are merged; the API definitions of
// a later layer are deep-merged into earlier ones the same way session
// overrides are.
package cliconfig
