package repl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/yndnr/memkv-go/internal/cli/output"
	"github.com/yndnr/memkv-go/internal/core/domain"
	"github.com/yndnr/memkv-go/internal/core/grammar"
	"github.com/yndnr/memkv-go/internal/server/redisserver"
)

// Executor sends one command to the server.
type Executor interface {
	Do(args ...string) (domain.Value, error)
}

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	input     io.Reader
	output    io.Writer
	exec      Executor
	formatter output.Formatter
	completer *Completer
	history   *History
	db        int
}

// Option configures a REPL.
type Option func(*REPL)

// WithIO replaces stdin and stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(r *REPL) {
		r.input = in
		r.output = out
	}
}

// WithHistory sets the history store.
func WithHistory(h *History) Option {
	return func(r *REPL) { r.history = h }
}

// WithFormatter sets the reply formatter.
func WithFormatter(f output.Formatter) Option {
	return func(r *REPL) { r.formatter = f }
}

// WithDB sets the database shown in the prompt at start.
func WithDB(db int) Option {
	return func(r *REPL) { r.db = db }
}

// New creates a REPL that sends commands to exec.
func New(exec Executor, opts ...Option) *REPL {
	r := &REPL{
		input:     os.Stdin,
		output:    os.Stdout,
		exec:      exec,
		formatter: output.NewFormatter(output.FormatText),
		completer: NewCompleter(),
		history:   NewHistory(""),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Prompt returns the current prompt.
func (r *REPL) Prompt() string {
	if r.db == 0 {
		return "memkv> "
	}
	return fmt.Sprintf("memkv[%d]> ", r.db)
}

// Run starts the REPL loop and returns on exit, quit or end of input.
func (r *REPL) Run() error {
	reader := bufio.NewReader(r.input)

	for {
		fmt.Fprint(r.output, r.Prompt())

		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		eof := err != nil

		line = strings.TrimSpace(line)
		if line == "" {
			if eof {
				fmt.Fprintln(r.output)
				return nil
			}
			continue
		}

		r.history.Add(line)

		if line == "exit" || line == "quit" {
			return nil
		}
		r.execute(line)
		if eof {
			return nil
		}
	}
}

func (r *REPL) execute(line string) {
	args, err := grammar.Tokenize(line)
	if err != nil {
		_ = output.FormatError(r.output, err)
		return
	}

	switch strings.ToLower(args[0]) {
	case "help":
		prefix := ""
		if len(args) > 1 {
			prefix = args[1]
		}
		r.help(prefix)
		return
	case "history":
		for i, entry := range r.history.Entries() {
			fmt.Fprintf(r.output, "%4d  %s\n", i+1, entry)
		}
		return
	}

	reply, err := r.exec.Do(args...)
	if err != nil {
		var re *redisserver.ReplyError
		if errors.As(err, &re) {
			_ = output.FormatError(r.output, err)
		} else {
			fmt.Fprintf(r.output, "Error: %v\n", err)
		}
		return
	}

	if len(args) == 2 && strings.EqualFold(args[0], "SELECT") {
		if n, err := strconv.Atoi(args[1]); err == nil {
			r.db = n
		}
	}
	if err := r.formatter.Format(r.output, reply); err != nil {
		fmt.Fprintf(r.output, "Error: %v\n", err)
	}
}

func (r *REPL) help(prefix string) {
	matches := r.completer.Complete(prefix)
	if len(matches) == 0 {
		fmt.Fprintf(r.output, "no commands match %q\n", prefix)
		return
	}
	fmt.Fprintln(r.output, strings.Join(matches, " "))
}
