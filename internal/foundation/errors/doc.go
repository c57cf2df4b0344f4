// Package errors provides the classified error primitives used across docrender.
//
// Every fault that leaves a package boundary is a ClassifiedError carrying a
// category (what kind of fault), a severity (whether the render pass can
// continue) and structured context for logging.
//
// Key features:
//   - ErrorCategory: config, resolution, render, filesystem, ...
//   - ErrorSeverity: fatal, error, warning, info
//   - ErrorBuilder: fluent construction with context and cause
//   - CLIErrorAdapter: exit codes and user-facing messages for the CLI
//
// Example usage:
//
//	err := errors.ConfigError("duplicate destination path").
//		WithContext("destination", dest).
//		WithContext("documents", []string{a, b}).
//		Build()
package errors
