// Package repl provides interactive mode for aredis-cli.
//
// This package implements the Read-Eval-Print Loop for interactive sessions:
//
//   - repl.go: main REPL loop, line parsing, and command dispatch
//   - completer.go: tab completion for Redis command names
//   - history.go: command history persistence
package repl
