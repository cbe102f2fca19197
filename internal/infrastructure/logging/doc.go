// Package logging provides structured logging for the pet door simulator.
//
// It wraps the standard library's log/slog with configuration-driven
// level filtering, output format selection (JSON or text) and default
// service attributes. Domain packages that need a logger accept their
// own narrow Logger interface; *logging.Logger satisfies all of them.
package logging
