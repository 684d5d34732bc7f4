// Package grammar turns command lines into typed commands.
//
// Requests reach the grammar in two stages. The wire path first
// re-linearizes decoded frame tokens into a single line (Linearize), and
// the line is then parsed by a case-insensitive keyword grammar (Parse).
// The same Parse serves the plain-text path used by the CLI and tests.
//
// Grammar rules:
//
//   - integer: an optional leading '-' followed by digits
//   - float:   an integer optionally followed by '.' and digits
//   - string:  "..." taken verbatim, or a bare word with no space or '"'
package grammar

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/yndnr/memkv-go/internal/core/domain"
)

// Parse errors.
var (
	// ErrEmptyCommand is returned for a blank line or an empty frame.
	ErrEmptyCommand = domain.NewDomainError(domain.CodeErr, "empty command")

	// ErrSyntax is returned for unexpected trailing or optional arguments.
	ErrSyntax = domain.NewDomainError(domain.CodeErr, "syntax error")

	// ErrNotFloat is returned for a malformed float argument.
	ErrNotFloat = domain.NewDomainError(domain.CodeErr, "value is not a valid float")
)

// UnknownCommandError reports a verb the grammar does not recognize.
func UnknownCommandError(verb string) *domain.DomainError {
	return domain.NewDomainError(domain.CodeErr, fmt.Sprintf("unknown command '%s'", verb))
}

// ArityError reports a recognized verb with the wrong argument count.
func ArityError(verb string) *domain.DomainError {
	return domain.NewDomainError(domain.CodeErr,
		fmt.Sprintf("wrong number of arguments for '%s' command", strings.ToLower(verb)))
}

// rule describes one verb: its argument count bounds (max < 0 means
// unbounded) and a builder for the typed command.
type rule struct {
	min, max int
	build    func(verb string, args []lexeme) (domain.Command, error)
}

var rules = map[string]rule{
	// strings
	"GET":         {1, 1, buildGet},
	"SET":         {2, 4, buildSet},
	"APPEND":      {2, 2, buildAppend},
	"INCR":        {1, 1, buildIncr},
	"DECR":        {1, 1, buildIncr},
	"INCRBY":      {2, 2, buildIncrBy},
	"DECRBY":      {2, 2, buildIncrBy},
	"INCRBYFLOAT": {2, 2, buildIncrByFloat},

	// keys
	"DEL":     {1, -1, buildDel},
	"EXISTS":  {1, -1, buildExists},
	"TYPE":    {1, 1, buildType},
	"EXPIRE":  {2, 2, buildExpire},
	"PEXPIRE": {2, 2, buildExpire},
	"TTL":     {1, 1, buildTTL},
	"PTTL":    {1, 1, buildTTL},
	"PERSIST": {1, 1, buildPersist},

	// lists
	"LPUSH":  {2, -1, buildPush},
	"RPUSH":  {2, -1, buildPush},
	"LPOP":   {1, 1, buildPop},
	"RPOP":   {1, 1, buildPop},
	"LINDEX": {2, 2, buildLIndex},
	"LLEN":   {1, 1, buildLLen},
	"LSET":   {3, 3, buildLSet},

	// sets
	"SADD":      {2, -1, buildSAdd},
	"SREM":      {2, -1, buildSRem},
	"SCARD":     {1, 1, buildSCard},
	"SISMEMBER": {2, 2, buildSIsMember},

	// server
	"DBSIZE":   {0, 0, func(string, []lexeme) (domain.Command, error) { return domain.DBSize{}, nil }},
	"FLUSHDB":  {0, 0, func(string, []lexeme) (domain.Command, error) { return domain.FlushDB{}, nil }},
	"FLUSHALL": {0, 0, func(string, []lexeme) (domain.Command, error) { return domain.FlushAll{}, nil }},
	"TIME":     {0, 0, func(string, []lexeme) (domain.Command, error) { return domain.Time{}, nil }},
	"SELECT":   {1, 1, buildSelect},
	"SWAPDB":   {2, 2, buildSwapDB},
	"PING":     {0, 1, buildPing},
	"ECHO":     {1, 1, buildPing},
}

// Verbs returns the recognized verbs in sorted order.
func Verbs() []string {
	verbs := lo.Keys(rules)
	sort.Strings(verbs)
	return verbs
}

// Parse parses one command line into a typed Command. Errors are
// *domain.DomainError values whose text is a ready-to-send reply.
func Parse(line string) (domain.Command, error) {
	lex, err := lex(line)
	if err != nil {
		return nil, err
	}
	if len(lex) == 0 {
		return nil, ErrEmptyCommand
	}

	verb := strings.ToUpper(lex[0].text)
	r, ok := rules[verb]
	if !ok {
		return nil, UnknownCommandError(lex[0].text)
	}

	args := lex[1:]
	if len(args) < r.min || (r.max >= 0 && len(args) > r.max) {
		return nil, ArityError(verb)
	}
	return r.build(verb, args)
}

// ============================================================================
// Argument parsers
// ============================================================================

// parseInt accepts an optional '-' followed by digits.
func parseInt(l lexeme) (int64, error) {
	if l.quoted || !isDigits(strings.TrimPrefix(l.text, "-")) {
		return 0, domain.ErrNotInteger
	}
	n, err := strconv.ParseInt(l.text, 10, 64)
	if err != nil {
		return 0, domain.ErrNotInteger
	}
	return n, nil
}

// parseFloat accepts an integer optionally followed by '.' and digits.
func parseFloat(l lexeme) (float64, error) {
	if l.quoted {
		return 0, ErrNotFloat
	}
	base, dec, hasDot := strings.Cut(l.text, ".")
	if !isDigits(strings.TrimPrefix(base, "-")) || (hasDot && !isDigits(dec)) {
		return 0, ErrNotFloat
	}
	f, err := strconv.ParseFloat(l.text, 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, ErrNotFloat
	}
	return f, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// parseValue returns Str for quoted payloads, otherwise Int when the whole
// word is an integer and Str when it is not.
func parseValue(l lexeme) domain.Value {
	if l.quoted {
		return domain.Str(l.text)
	}
	return domain.ParseScalar(l.text)
}

func texts(args []lexeme) []string {
	return lo.Map(args, func(l lexeme, _ int) string { return l.text })
}

// ============================================================================
// Builders
// ============================================================================

func buildGet(_ string, args []lexeme) (domain.Command, error) {
	return domain.Get{Key: args[0].text}, nil
}

func buildSet(_ string, args []lexeme) (domain.Command, error) {
	cmd := domain.SetString{Key: args[0].text, Value: parseValue(args[1])}
	opts := args[2:]
	if len(opts) == 0 {
		return cmd, nil
	}
	if len(opts) != 2 {
		return nil, ErrSyntax
	}

	var unit time.Duration
	switch strings.ToUpper(opts[0].text) {
	case "EX":
		unit = time.Second
	case "PX":
		unit = time.Millisecond
	default:
		return nil, ErrSyntax
	}
	n, err := parseInt(opts[1])
	if err != nil {
		return nil, err
	}
	if n <= 0 || n > math.MaxInt64/int64(unit) {
		return nil, domain.NewDomainError(domain.CodeErr, "invalid expire time in 'set' command")
	}
	cmd.TTL = time.Duration(n) * unit
	return cmd, nil
}

func buildAppend(_ string, args []lexeme) (domain.Command, error) {
	return domain.Append{Key: args[0].text, Value: args[1].text}, nil
}

func buildIncr(verb string, args []lexeme) (domain.Command, error) {
	delta := int64(1)
	if verb == "DECR" {
		delta = -1
	}
	return domain.IncrBy{Verb: verb, Key: args[0].text, Delta: delta}, nil
}

func buildIncrBy(verb string, args []lexeme) (domain.Command, error) {
	n, err := parseInt(args[1])
	if err != nil {
		return nil, err
	}
	if verb == "DECRBY" {
		if n == math.MinInt64 {
			return nil, domain.ErrOverflow
		}
		n = -n
	}
	return domain.IncrBy{Verb: verb, Key: args[0].text, Delta: n}, nil
}

func buildIncrByFloat(_ string, args []lexeme) (domain.Command, error) {
	f, err := parseFloat(args[1])
	if err != nil {
		return nil, err
	}
	return domain.IncrByFloat{Key: args[0].text, Delta: f}, nil
}

func buildDel(_ string, args []lexeme) (domain.Command, error) {
	return domain.Del{Keys: texts(args)}, nil
}

func buildExists(_ string, args []lexeme) (domain.Command, error) {
	return domain.Exists{Keys: texts(args)}, nil
}

func buildType(_ string, args []lexeme) (domain.Command, error) {
	return domain.Type{Key: args[0].text}, nil
}

func buildExpire(verb string, args []lexeme) (domain.Command, error) {
	n, err := parseInt(args[1])
	if err != nil {
		return nil, err
	}
	unit := time.Second
	if verb == "PEXPIRE" {
		unit = time.Millisecond
	}
	if n > math.MaxInt64/int64(unit) || n < math.MinInt64/int64(unit) {
		return nil, domain.NewDomainError(domain.CodeErr,
			fmt.Sprintf("invalid expire time in '%s' command", strings.ToLower(verb)))
	}
	return domain.Expire{Verb: verb, Key: args[0].text, TTL: time.Duration(n) * unit}, nil
}

func buildTTL(verb string, args []lexeme) (domain.Command, error) {
	unit := time.Second
	if verb == "PTTL" {
		unit = time.Millisecond
	}
	return domain.TTL{Key: args[0].text, Unit: unit}, nil
}

func buildPersist(_ string, args []lexeme) (domain.Command, error) {
	return domain.Persist{Key: args[0].text}, nil
}

func buildPush(verb string, args []lexeme) (domain.Command, error) {
	return domain.Push{Left: verb == "LPUSH", Key: args[0].text, Values: texts(args[1:])}, nil
}

func buildPop(verb string, args []lexeme) (domain.Command, error) {
	return domain.Pop{Left: verb == "LPOP", Key: args[0].text}, nil
}

func buildLIndex(_ string, args []lexeme) (domain.Command, error) {
	idx, err := parseInt(args[1])
	if err != nil {
		return nil, err
	}
	return domain.LIndex{Key: args[0].text, Index: idx}, nil
}

func buildLLen(_ string, args []lexeme) (domain.Command, error) {
	return domain.LLen{Key: args[0].text}, nil
}

func buildLSet(_ string, args []lexeme) (domain.Command, error) {
	idx, err := parseInt(args[1])
	if err != nil {
		return nil, err
	}
	return domain.LSet{Key: args[0].text, Index: idx, Value: args[2].text}, nil
}

func buildSAdd(_ string, args []lexeme) (domain.Command, error) {
	return domain.SAdd{Key: args[0].text, Members: texts(args[1:])}, nil
}

func buildSRem(_ string, args []lexeme) (domain.Command, error) {
	return domain.SRem{Key: args[0].text, Members: texts(args[1:])}, nil
}

func buildSCard(_ string, args []lexeme) (domain.Command, error) {
	return domain.SCard{Key: args[0].text}, nil
}

func buildSIsMember(_ string, args []lexeme) (domain.Command, error) {
	return domain.SIsMember{Key: args[0].text, Member: args[1].text}, nil
}

func buildSelect(_ string, args []lexeme) (domain.Command, error) {
	idx, err := parseInt(args[0])
	if err != nil {
		return nil, err
	}
	return domain.Select{Index: idx}, nil
}

func buildSwapDB(_ string, args []lexeme) (domain.Command, error) {
	a, err := parseInt(args[0])
	if err != nil {
		return nil, err
	}
	b, err := parseInt(args[1])
	if err != nil {
		return nil, err
	}
	return domain.SwapDB{A: a, B: b}, nil
}

// buildPing handles PING [message] and ECHO message. PING without a
// message echoes "PONG".
func buildPing(verb string, args []lexeme) (domain.Command, error) {
	msg := "PONG"
	if len(args) > 0 {
		msg = args[0].text
	}
	return domain.Echo{Verb: verb, Message: msg}, nil
}
