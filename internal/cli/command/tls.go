// Package command provides CLI command definitions for aredis-cli.
package command

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/arwrap/aredis-go/internal/infra/shutdown"
	"github.com/arwrap/aredis-go/internal/tlsroots"
)

func tlsFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "tls-ca-file",
			Usage:   "PEM file of additional CA certificates to trust",
			EnvVars: []string{"AREDIS_TLS_CA_FILE"},
		},
		&cli.StringFlag{
			Name:    "tls-cert-file",
			Usage:   "Client certificate for mutual TLS",
			EnvVars: []string{"AREDIS_TLS_CERT_FILE"},
		},
		&cli.StringFlag{
			Name:    "tls-key-file",
			Usage:   "Client private key for mutual TLS",
			EnvVars: []string{"AREDIS_TLS_KEY_FILE"},
		},
		&cli.BoolFlag{
			Name:  "tls-insecure-skip-verify",
			Usage: "Skip server certificate verification (testing only)",
		},
	}
}

// buildTLSConfig assembles a *tls.Config from the tls-* flags when --tls is
// set. When it starts a watcher to keep the mutual-TLS client certificate
// fresh across rotations, it registers that watcher's Stop with
// shutdownHandler itself.
func buildTLSConfig(c *cli.Context, shutdownHandler *shutdown.Handler) (*tls.Config, error) {
	if !c.Bool("tls") {
		return nil, nil
	}

	pool, err := tlsroots.NewPool()
	if err != nil {
		return nil, fmt.Errorf("build cert pool: %w", err)
	}
	if caFile := c.String("tls-ca-file"); caFile != "" {
		if err := pool.AddCertFile(caFile); err != nil {
			return nil, fmt.Errorf("load CA file: %w", err)
		}
	}
	cfg := pool.TLSConfig()
	cfg.InsecureSkipVerify = c.Bool("tls-insecure-skip-verify")

	certFile, keyFile := c.String("tls-cert-file"), c.String("tls-key-file")
	if certFile != "" && keyFile != "" {
		watcher, err := tlsroots.NewWatcher(certFile, keyFile)
		if err != nil {
			return nil, fmt.Errorf("load client certificate: %w", err)
		}
		cfg.GetClientCertificate = watcher.GetClientCertificate
		watcher.StartAsync()
		if shutdownHandler != nil {
			shutdownHandler.OnShutdown(func(context.Context) error {
				watcher.Stop()
				return nil
			})
		}
	}

	return cfg, nil
}
