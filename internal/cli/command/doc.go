// Package command provides CLI command definitions for aredis-cli.
//
// Commands are defined with urfave/cli/v2:
//
//   - root.go: root command, global flags, connection-manager wiring
//   - connect.go: connect/disconnect/use commands
//   - exec.go: raw command execution against the current connection
//   - config.go: local CLI configuration (saved connections)
package command
