// Package config defines the CLI configuration structure.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/arwrap/aredis-go/pkg/crypto/adaptive"
)

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".aredis", "cli.yaml")
}

// defaultKeyPath returns the path of the local key used to encrypt saved
// connection passwords at rest. It lives next to the config file but is
// never written into it.
func defaultKeyPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".aredis", "key")
}

// Load loads CLI configuration from path, or the default path if empty.
// Saved passwords are decrypted in place using the local key file,
// generating one if it does not exist yet.
func Load(path string) (*CLIConfig, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("read cli config: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("parse cli config: %w", err)
	}
	if cfg.Connections == nil {
		cfg.Connections = make(map[string]ConnectionConfig)
	}

	key, err := loadOrCreateKey(defaultKeyPath())
	if err != nil {
		return nil, fmt.Errorf("load encryption key: %w", err)
	}

	for name, conn := range cfg.Connections {
		if conn.Password == "" {
			continue
		}
		plain, err := decryptPassword(key, conn.Password)
		if err != nil {
			return nil, fmt.Errorf("decrypt password for %q: %w", name, err)
		}
		conn.Password = plain
		cfg.Connections[name] = conn
	}

	return cfg, nil
}

// Save writes cfg to path (or the default path), encrypting every saved
// connection password with the local key before it hits disk.
func Save(cfg *CLIConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	key, err := loadOrCreateKey(defaultKeyPath())
	if err != nil {
		return fmt.Errorf("load encryption key: %w", err)
	}

	connections := make(map[string]any, len(cfg.Connections))
	for name, conn := range cfg.Connections {
		if conn.Password != "" {
			enc, err := encryptPassword(key, conn.Password)
			if err != nil {
				return fmt.Errorf("encrypt password for %q: %w", name, err)
			}
			conn.Password = enc
		}
		connections[name] = map[string]any{
			"host":     conn.Host,
			"port":     conn.Port,
			"unix":     conn.Unix,
			"tls":      conn.TLS,
			"password": conn.Password,
		}
	}

	data, err := yaml.Parser().Marshal(map[string]any{
		"default_output":     cfg.DefaultOutput,
		"current_connection": cfg.CurrentConnection,
		"connections":        connections,
	})
	if err != nil {
		return fmt.Errorf("marshal cli config: %w", err)
	}

	return os.WriteFile(path, data, 0600)
}

func loadOrCreateKey(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return hex.DecodeString(string(data))
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, []byte(hex.EncodeToString(key)), 0600); err != nil {
		return nil, err
	}
	return key, nil
}

func encryptPassword(key []byte, plaintext string) (string, error) {
	c, err := adaptive.New(key)
	if err != nil {
		return "", err
	}
	ciphertext, err := c.Encrypt([]byte(plaintext), nil)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(ciphertext), nil
}

func decryptPassword(key []byte, encoded string) (string, error) {
	ciphertext, err := hex.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	c, err := adaptive.New(key)
	if err != nil {
		return "", err
	}
	plaintext, err := c.Decrypt(ciphertext, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// Merge overrides cfg with any non-empty env/flag values, flags taking
// priority over environment variables.
func Merge(cfg *CLIConfig, env map[string]string, flags map[string]string) *CLIConfig {
	if v, ok := env["AREDIS_OUTPUT"]; ok && v != "" {
		cfg.DefaultOutput = v
	}
	if v, ok := flags["output"]; ok && v != "" {
		cfg.DefaultOutput = v
	}
	return cfg
}
