// Package config provides CLI configuration for aredis-cli.
//
// This package defines CLI-specific configuration:
//
//   - spec.go: CLIConfig struct (~/.aredis/cli.yaml)
//   - loader.go: configuration loading, saving, and saved-password encryption
//
// Saved connection passwords are encrypted at rest with pkg/crypto/adaptive,
// keyed by a per-user key file generated on first save.
package config
