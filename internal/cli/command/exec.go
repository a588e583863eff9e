// Package command provides CLI command definitions for aredis-cli.
package command

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/arwrap/aredis-go/internal/client"
	"github.com/arwrap/aredis-go/internal/cli/output"
)

// ExecCommand returns the exec command, which submits a single raw Redis
// command against the current (or ad hoc) connection and prints the reply.
func ExecCommand() *cli.Command {
	return &cli.Command{
		Name:      "exec",
		Aliases:   []string{"x"},
		Usage:     "Run a single Redis command and print its reply",
		ArgsUsage: "COMMAND [ARG...]",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Wait at most this long for a reply",
				Value: 5 * time.Second,
			},
		},
		Action: execAction,
	}
}

func execAction(c *cli.Context) error {
	args := c.Args().Slice()
	if len(args) == 0 {
		return fmt.Errorf("command required")
	}

	conn, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	reply, err := runCommand(conn.Client, args, c.Duration("timeout"))
	if err != nil {
		return err
	}

	flags := ParseGlobalFlags(c)
	return printReply(flags, reply)
}

// runCommand submits args and blocks for the reply, translating the
// callback-based Submit API into a synchronous call for script-friendly use.
func runCommand(c *client.Client, args []string, timeout time.Duration) (client.Reply, error) {
	wireArgs := make([][]byte, len(args))
	for i, a := range args {
		wireArgs[i] = []byte(a)
	}

	var (
		wg    sync.WaitGroup
		reply client.Reply
		cbErr error
	)
	wg.Add(1)
	if err := c.Submit(wireArgs, func(r client.Reply, err error) {
		reply, cbErr = r, err
		wg.Done()
	}); err != nil {
		return client.Reply{}, err
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	if timeout <= 0 {
		<-done
		return reply, cbErr
	}
	select {
	case <-done:
		return reply, cbErr
	case <-time.After(timeout):
		return client.Reply{}, fmt.Errorf("timed out waiting for reply")
	}
}

// printReply renders a decoded Reply in the requested output format.
func printReply(flags *GlobalFlags, reply client.Reply) error {
	if reply.Type == client.TypeError {
		return fmt.Errorf("%s", reply.String())
	}

	formatter := output.NewFormatter(output.Format(flags.Output), flags.Wide)
	return formatter.Format(os.Stdout, replyToDisplay(reply))
}

// replyToDisplay converts a Reply tree into plain Go values the output
// formatters already know how to render (strings, ints, slices, maps).
func replyToDisplay(r client.Reply) any {
	switch r.Type {
	case client.TypeNull:
		return nil
	case client.TypeString, client.TypeError:
		return r.String()
	case client.TypeInteger:
		return r.Int
	case client.TypeDouble:
		return r.Double
	case client.TypeBoolean:
		return r.Bool
	case client.TypeArray:
		items := make([]any, len(r.Array))
		for i, e := range r.Array {
			items[i] = replyToDisplay(e)
		}
		return items
	default:
		return nil
	}
}
