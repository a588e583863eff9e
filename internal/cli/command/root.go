// Package command provides CLI command definitions for aredis-cli.
//
// It uses urfave/cli/v2 for command parsing and supports both
// single-command mode and interactive REPL mode.
package command

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	cliconfig "github.com/arwrap/aredis-go/internal/cli/config"
	"github.com/arwrap/aredis-go/internal/cli/connection"
	"github.com/arwrap/aredis-go/internal/cli/output"
	"github.com/arwrap/aredis-go/internal/cli/repl"
	"github.com/arwrap/aredis-go/internal/config"
	"github.com/arwrap/aredis-go/internal/infra/buildinfo"
	"github.com/arwrap/aredis-go/internal/infra/shutdown"
	"github.com/arwrap/aredis-go/internal/telemetry/logger"
)

// App creates the CLI application.
func App() *cli.App {
	app := &cli.App{
		Name:    "aredis-cli",
		Usage:   "interactive and scriptable Redis command-line client",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			ConnectCommand(),
			DisconnectCommand(),
			UseCommand(),
			ExecCommand(),
			ConfigCommand(),
			ReplCommand(),
		},
		Before: func(c *cli.Context) error {
			level := "info"
			if c.Bool("verbose") {
				level = "debug"
			}
			log, err := logger.New(logger.Config{Level: level, Format: "text", Output: os.Stderr})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			logger.SetDefault(log)

			mgr := connection.NewManager()
			c.App.Metadata["connMgr"] = mgr

			shutdownHandler := shutdown.NewHandler(5 * time.Second)
			c.App.Metadata["shutdownHandler"] = shutdownHandler
			shutdownHandler.OnShutdown(func(ctx context.Context) error {
				log.Info("closing open connections")
				mgr.DisconnectAll()
				return nil
			})
			go func() {
				if err := shutdownHandler.Wait(); err != nil {
					log.Error("shutdown error", "error", err)
				}
				os.Exit(0)
			}()

			return nil
		},
		Action: replAction,
	}

	return app
}

// ReplCommand returns the explicit "repl" command, equivalent to running
// aredis-cli with no subcommand at all.
func ReplCommand() *cli.Command {
	return &cli.Command{
		Name:   "repl",
		Usage:  "Start the interactive REPL",
		Action: replAction,
	}
}

func replAction(c *cli.Context) error {
	mgr := GetConnectionManager(c)
	if mgr == nil {
		return fmt.Errorf("connection manager not initialized")
	}

	flags := ParseGlobalFlags(c)
	if flags.Socket != "" || c.IsSet("host") || c.IsSet("port") {
		tlsConfig, err := buildTLSConfig(c, GetShutdownHandler(c))
		if err != nil {
			return fmt.Errorf("tls setup: %w", err)
		}
		if _, err := mgr.Connect("", flags.Host, uint16(flags.Port), flags.Socket, tlsConfig, 0); err != nil {
			PrintError("initial connect failed: %v", err)
		}
	}

	watchSavedConnections(c)

	r := repl.New(mgr)
	r.Format = output.Format(flags.Output)
	r.Wide = flags.Wide
	return r.Run()
}

// watchSavedConnections starts a best-effort watcher on the saved-connection
// profile file, so an external edit (another terminal running "config
// save", a hand edit) is noticed during a long-lived REPL session instead
// of only at next startup. On failure it gives up without watching (a
// NewWatcher error is logged at debug level) — the watcher is a convenience,
// not load-bearing.
func watchSavedConnections(c *cli.Context) {
	w, err := config.NewWatcher(config.WithWatcherLogger(logger.Default()))
	if err != nil {
		logger.Default().Debug("saved-connection watcher unavailable", "error", err)
		return
	}
	path := cliconfig.DefaultConfigPath()
	if err := w.Watch(path); err != nil {
		_ = w.Stop()
		return
	}
	w.OnChange(func(string) {
		logger.Default().Info("saved connections changed on disk", "path", path)
	})
	w.StartAsync()

	if h := GetShutdownHandler(c); h != nil {
		h.OnShutdown(func(context.Context) error {
			return w.Stop()
		})
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "host",
			Aliases: []string{"h"},
			Usage:   "Redis server host",
			EnvVars: []string{"AREDIS_HOST"},
			Value:   "localhost",
		},
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "Redis server port",
			EnvVars: []string{"AREDIS_PORT"},
			Value:   6379,
		},
		&cli.StringFlag{
			Name:    "socket",
			Aliases: []string{"s"},
			Usage:   "Unix socket path (overrides host/port)",
			EnvVars: []string{"AREDIS_SOCKET"},
		},
		&cli.BoolFlag{
			Name:    "tls",
			Usage:   "Use TLS",
			EnvVars: []string{"AREDIS_TLS"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Enable verbose output",
		},
	}
	return append(flags, tlsFlags()...)
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Host   string
	Port   int
	Socket string
	TLS    bool

	Output string // table, json, yaml
	Wide   bool

	Verbose bool
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		Host:    c.String("host"),
		Port:    c.Int("port"),
		Socket:  c.String("socket"),
		TLS:     c.Bool("tls"),
		Output:  c.String("output"),
		Wide:    c.Bool("wide"),
		Verbose: c.Bool("verbose"),
	}
}

// GetConnectionManager retrieves the connection manager from context.
func GetConnectionManager(c *cli.Context) *connection.Manager {
	if mgr, ok := c.App.Metadata["connMgr"].(*connection.Manager); ok {
		return mgr
	}
	return nil
}

// GetShutdownHandler retrieves the process-lifetime shutdown handler from
// context, so commands can register their own cleanup hooks (e.g. stopping
// a certificate watcher opened for this invocation).
func GetShutdownHandler(c *cli.Context) *shutdown.Handler {
	if h, ok := c.App.Metadata["shutdownHandler"].(*shutdown.Handler); ok {
		return h
	}
	return nil
}

// EnsureConnected returns the current connection, connecting to the flags'
// endpoint first if nothing is connected yet.
func EnsureConnected(c *cli.Context) (*connection.Connection, error) {
	mgr := GetConnectionManager(c)
	if mgr == nil {
		return nil, fmt.Errorf("connection manager not initialized")
	}

	if conn := mgr.Current(); conn != nil {
		return conn, nil
	}

	flags := ParseGlobalFlags(c)
	return mgr.Connect("", flags.Host, uint16(flags.Port), flags.Socket, nil, 0)
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
