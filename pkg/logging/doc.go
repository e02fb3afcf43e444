// Package logging configures the structured logger shared by clappy
// components.
//
// Components accept a *slog.Logger through an option and fall back to Nop()
// when none is given:
//
//	tr := transport.New(transport.WithLogger(logging.New(logging.Config{
//	    Level:  logging.LevelDebug,
//	    Format: logging.FormatJSON,
//	})))
//
// Logs always go to stderr so they never mix with command results on stdout.
// At Debug the engine logs each dispatched action and the transport logs each
// HTTP exchange with its headers; token acquisition is logged at Info.
// Authorization headers, passwords, client secrets and tokens are replaced
// with Redacted at any group depth.
package logging
