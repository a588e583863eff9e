// Package repl provides the interactive REPL mode for aredis-cli.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/arwrap/aredis-go/internal/cli/connection"
	"github.com/arwrap/aredis-go/internal/cli/output"
	"github.com/arwrap/aredis-go/internal/client"
)

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	input     io.Reader
	output    io.Writer
	completer *Completer
	history   *History
	mgr       *connection.Manager

	Format  output.Format
	Wide    bool
	Timeout time.Duration
}

// New creates a new REPL instance bound to a connection manager.
func New(mgr *connection.Manager) *REPL {
	return &REPL{
		input:     os.Stdin,
		output:    os.Stdout,
		completer: NewCompleter(),
		history:   NewHistory(),
		mgr:       mgr,
		Format:    output.FormatTable,
		Timeout:   5 * time.Second,
	}
}

// Run starts the REPL loop.
func (r *REPL) Run() error {
	reader := bufio.NewReader(r.input)
	r.history.Load()
	defer r.history.Save()

	for {
		fmt.Fprint(r.output, r.prompt())

		line, err := reader.ReadString('\n')
		if err == io.EOF {
			fmt.Fprintln(r.output)
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.history.Add(line)

		if line == "exit" || line == "quit" {
			return nil
		}

		if err := r.execute(line); err != nil {
			fmt.Fprintf(r.output, "(error) %v\n", err)
		}
	}
}

func (r *REPL) prompt() string {
	if conn := r.mgr.Current(); conn != nil {
		return conn.Name + "> "
	}
	return "aredis> "
}

func (r *REPL) execute(line string) error {
	args, err := splitCommandLine(line)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}

	switch strings.ToLower(args[0]) {
	case "use":
		if len(args) != 2 {
			return fmt.Errorf("usage: use CONNECTION_NAME")
		}
		_, err := r.mgr.Use(args[1])
		return err
	case "connections":
		for _, name := range r.mgr.Names() {
			fmt.Fprintln(r.output, name)
		}
		return nil
	}

	conn := r.mgr.Current()
	if conn == nil {
		return fmt.Errorf("not connected; use \"connect\" first")
	}

	reply, err := r.submit(conn.Client, args)
	if err != nil {
		return err
	}
	if reply.Type == client.TypeError {
		return fmt.Errorf("%s", reply.String())
	}

	formatter := output.NewFormatter(r.Format, r.Wide)
	return formatter.Format(r.output, toDisplayValue(reply))
}

// submit sends args and blocks for the reply, bridging the client's
// callback-based Submit into the REPL's synchronous read-eval-print loop.
func (r *REPL) submit(c *client.Client, args []string) (client.Reply, error) {
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
	if err := c.Submit(wireArgs, func(rep client.Reply, err error) {
		reply, cbErr = rep, err
		wg.Done()
	}); err != nil {
		return client.Reply{}, err
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	timeout := r.Timeout
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

func toDisplayValue(r client.Reply) any {
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
			items[i] = toDisplayValue(e)
		}
		return items
	default:
		return nil
	}
}

// splitCommandLine tokenizes a line into words, honoring "double" and
// 'single' quoted segments the way redis-cli does.
func splitCommandLine(line string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		inWord  bool
		quote   byte
	)

	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
				continue
			}
			current.WriteByte(ch)
		case ch == '"' || ch == '\'':
			quote = ch
			inWord = true
		case ch == ' ' || ch == '\t':
			if inWord {
				args = append(args, current.String())
				current.Reset()
				inWord = false
			}
		default:
			current.WriteByte(ch)
			inWord = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote")
	}
	if inWord {
		args = append(args, current.String())
	}
	return args, nil
}
