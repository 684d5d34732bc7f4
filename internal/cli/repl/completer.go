package repl

import (
	"strings"

	"github.com/samber/lo"

	"github.com/yndnr/memkv-go/internal/core/grammar"
)

// builtins are handled by the REPL itself and never sent to the server.
var builtins = []string{"exit", "help", "history", "quit"}

// Completer completes command verbs.
type Completer struct {
	commands []string
}

// NewCompleter creates a Completer over every server verb plus the
// REPL built-ins.
func NewCompleter() *Completer {
	return &Completer{commands: append(grammar.Verbs(), builtins...)}
}

// Complete returns the commands starting with prefix, ignoring case.
// Server verbs are returned upper case, built-ins lower case.
func (c *Completer) Complete(prefix string) []string {
	p := strings.ToUpper(prefix)
	return lo.Filter(c.commands, func(cmd string, _ int) bool {
		return strings.HasPrefix(strings.ToUpper(cmd), p)
	})
}
