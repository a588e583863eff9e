// Package command provides CLI command definitions for aredis-cli.
package command

import (
	"crypto/tls"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	cliconfig "github.com/arwrap/aredis-go/internal/cli/config"
)

// ConfigCommand returns the config subcommand group for managing saved
// connection profiles in the local CLI configuration file.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage saved connections",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List saved connections",
				Action: configListAction,
			},
			{
				Name:      "save",
				Usage:     "Save the endpoint given by the global --host/--port/--socket/--tls flags under a name",
				ArgsUsage: "NAME",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "password", Usage: "Password to store (encrypted at rest)"},
				},
				Action: configSaveAction,
			},
			{
				Name:      "remove",
				Usage:     "Remove a saved connection",
				ArgsUsage: "NAME",
				Action:    configRemoveAction,
			},
			{
				Name:      "use",
				Usage:     "Connect using a saved connection profile",
				ArgsUsage: "NAME",
				Action:    configUseAction,
			},
		},
	}
}

func configListAction(c *cli.Context) error {
	cfg, err := cliconfig.Load("")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if len(cfg.Connections) == 0 {
		fmt.Println("(no saved connections)")
		return nil
	}
	for name, conn := range cfg.Connections {
		endpoint := fmt.Sprintf("%s:%d", conn.Host, conn.Port)
		if conn.Unix != "" {
			endpoint = conn.Unix
		}
		marker := " "
		if name == cfg.CurrentConnection {
			marker = "*"
		}
		fmt.Fprintf(os.Stdout, "%s %-20s %s\n", marker, name, endpoint)
	}
	return nil
}

func configSaveAction(c *cli.Context) error {
	name := c.Args().First()
	if name == "" {
		return fmt.Errorf("connection name required")
	}

	flags := ParseGlobalFlags(c)
	cfg, err := cliconfig.Load("")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	cfg.Connections[name] = cliconfig.ConnectionConfig{
		Host:     flags.Host,
		Port:     uint16(flags.Port),
		Unix:     flags.Socket,
		TLS:      flags.TLS,
		Password: c.String("password"),
	}
	cfg.CurrentConnection = name

	if err := cliconfig.Save(cfg, ""); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	fmt.Printf("Saved connection %q\n", name)
	return nil
}

func configUseAction(c *cli.Context) error {
	name := c.Args().First()
	if name == "" {
		return fmt.Errorf("connection name required")
	}

	cfg, err := cliconfig.Load("")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	saved, ok := cfg.Connections[name]
	if !ok {
		return fmt.Errorf("no such saved connection: %s", name)
	}

	mgr := GetConnectionManager(c)
	if mgr == nil {
		return fmt.Errorf("connection manager not initialized")
	}

	var tlsConfig *tls.Config
	if saved.TLS {
		tlsConfig, err = buildTLSConfig(c, GetShutdownHandler(c))
		if err != nil {
			return fmt.Errorf("tls setup: %w", err)
		}
	}

	conn, err := mgr.Connect(name, saved.Host, saved.Port, saved.Unix, tlsConfig, 0)
	if err != nil {
		return fmt.Errorf("connect failed: %w", err)
	}

	cfg.CurrentConnection = name
	if err := cliconfig.Save(cfg, ""); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	if conn.Unix != "" {
		fmt.Printf("Connected to %s (saved as %q)\n", conn.Unix, name)
	} else {
		fmt.Printf("Connected to %s:%d (saved as %q)\n", conn.Host, conn.Port, name)
	}
	return nil
}

func configRemoveAction(c *cli.Context) error {
	name := c.Args().First()
	if name == "" {
		return fmt.Errorf("connection name required")
	}

	cfg, err := cliconfig.Load("")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if _, ok := cfg.Connections[name]; !ok {
		return fmt.Errorf("no such saved connection: %s", name)
	}
	delete(cfg.Connections, name)
	if cfg.CurrentConnection == name {
		cfg.CurrentConnection = ""
	}

	if err := cliconfig.Save(cfg, ""); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	fmt.Printf("Removed connection %q\n", name)
	return nil
}
