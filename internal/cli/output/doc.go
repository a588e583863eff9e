// Package output provides output formatting for aredis-cli.
//
// This package handles all CLI output formatting:
//
//   - formatter.go: Formatter interface and factory
//   - table.go: table rendering with wide mode support
//   - json.go: JSON output formatting
//   - yaml.go: YAML output formatting
//   - spinner.go: progress animation for long operations
//
// Formatters render decoded Redis replies as well as any Go value
// (structs, maps, slices) returned by CLI commands, in table, JSON, or
// YAML form.
package output
