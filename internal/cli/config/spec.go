// Package config defines the CLI configuration structure.
package config

// CLIConfig is the configuration for aredis-cli.
type CLIConfig struct {
	// Default connection settings
	DefaultOutput string `koanf:"default_output"` // table, json, yaml

	// Saved connections, keyed by name
	Connections map[string]ConnectionConfig `koanf:"connections"`

	// CurrentConnection is the name of the last-used connection.
	CurrentConnection string `koanf:"current_connection"`
}

// ConnectionConfig stores a saved connection profile.
type ConnectionConfig struct {
	Host string `koanf:"host"`
	Port uint16 `koanf:"port"`
	Unix string `koanf:"unix"`
	TLS  bool   `koanf:"tls"`

	// Password is stored encrypted at rest via pkg/crypto/adaptive.
	Password string `koanf:"password"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		DefaultOutput: "table",
		Connections:   make(map[string]ConnectionConfig),
	}
}
