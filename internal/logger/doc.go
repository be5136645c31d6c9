// Package logger wraps zap so that every component of the monitor logs the same way:
//   - a global sugared logger with a console encoder, swappable for JSON,
//   - context helpers (ToContext/FromContext/WithName/WithKV) so services log through ctx,
//   - level parsing for the CLI and config,
//   - leveled convenience functions (Infof, WarnKV, ErrorKV, ...).
package logger
