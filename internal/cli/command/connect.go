// Package command provides CLI command definitions for aredis-cli.
package command

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// ConnectCommand returns the connect command.
func ConnectCommand() *cli.Command {
	return &cli.Command{
		Name:      "connect",
		Usage:     "Connect to a Redis server",
		ArgsUsage: "[HOST]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "name",
				Aliases: []string{"n"},
				Usage:   "Connection name (for switching later with \"use\")",
			},
		},
		Action: connectAction,
	}
}

func connectAction(c *cli.Context) error {
	flags := ParseGlobalFlags(c)
	host := c.Args().First()
	if host == "" {
		host = flags.Host
	}

	mgr := GetConnectionManager(c)
	if mgr == nil {
		return fmt.Errorf("connection manager not initialized")
	}

	tlsConfig, err := buildTLSConfig(c, GetShutdownHandler(c))
	if err != nil {
		return fmt.Errorf("tls setup: %w", err)
	}

	conn, err := mgr.Connect(c.String("name"), host, uint16(flags.Port), flags.Socket, tlsConfig, 0)
	if err != nil {
		return fmt.Errorf("connect failed: %w", err)
	}

	if conn.Unix != "" {
		fmt.Printf("Connected to %s\n", conn.Unix)
	} else {
		fmt.Printf("Connected to %s:%d\n", conn.Host, conn.Port)
	}
	return nil
}

// DisconnectCommand returns the disconnect command.
func DisconnectCommand() *cli.Command {
	return &cli.Command{
		Name:      "disconnect",
		Usage:     "Disconnect a connection",
		ArgsUsage: "[NAME]",
		Action:    disconnectAction,
	}
}

func disconnectAction(c *cli.Context) error {
	mgr := GetConnectionManager(c)
	if mgr == nil {
		return fmt.Errorf("connection manager not initialized")
	}

	name := c.Args().First()
	if name == "" {
		conn := mgr.Current()
		if conn == nil {
			fmt.Println("Not connected to any server")
			return nil
		}
		name = conn.Name
	}

	if err := mgr.Disconnect(name); err != nil {
		return fmt.Errorf("disconnect failed: %w", err)
	}
	fmt.Printf("Disconnected %s\n", name)
	return nil
}

// UseCommand returns the use command for switching between connections.
func UseCommand() *cli.Command {
	return &cli.Command{
		Name:      "use",
		Usage:     "Switch to an already-open connection",
		ArgsUsage: "CONNECTION_NAME",
		Action: func(c *cli.Context) error {
			name := c.Args().First()
			if name == "" {
				return fmt.Errorf("connection name required")
			}

			mgr := GetConnectionManager(c)
			if mgr == nil {
				return fmt.Errorf("connection manager not initialized")
			}

			if _, err := mgr.Use(name); err != nil {
				return err
			}
			fmt.Printf("Now using connection: %s\n", name)
			return nil
		},
	}
}
