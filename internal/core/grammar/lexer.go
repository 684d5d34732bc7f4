package grammar

import (
	"strings"

	"github.com/yndnr/memkv-go/internal/core/domain"
)

// ErrUnbalancedQuotes is returned when a quoted payload is not closed, or
// when a quote appears inside a bare word.
var ErrUnbalancedQuotes = domain.NewDomainError(domain.CodeErr, "Protocol error: unbalanced quotes in request")

// lexeme is one word of a command line. quoted records whether the word
// was written between double quotes, which makes it a string payload
// regardless of its content.
type lexeme struct {
	text   string
	quoted bool
}

// Quote wraps s in double quotes when it is empty or contains whitespace
// or a double quote. The lexer has no escapes, so a wrapped token holding
// a quote fails to parse instead of losing its quotes.
func Quote(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\r\n\"") {
		return `"` + s + `"`
	}
	return s
}

// Linearize re-quotes each token and joins them with single spaces,
// producing a line that Parse accepts.
func Linearize(tokens [][]byte) string {
	var sb strings.Builder
	for i, tok := range tokens {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(Quote(string(tok)))
	}
	return sb.String()
}

// Tokenize splits a command line into tokens. Quoted payloads are returned
// without their quotes and with their content untouched.
func Tokenize(line string) ([]string, error) {
	lex, err := lex(line)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(lex))
	for i, l := range lex {
		out[i] = l.text
	}
	return out, nil
}

func lex(line string) ([]lexeme, error) {
	var out []lexeme
	i := 0
	for {
		for i < len(line) && isSpace(line[i]) {
			i++
		}
		if i >= len(line) {
			return out, nil
		}

		if line[i] == '"' {
			end := strings.IndexByte(line[i+1:], '"')
			if end < 0 {
				return nil, ErrUnbalancedQuotes
			}
			out = append(out, lexeme{text: line[i+1 : i+1+end], quoted: true})
			i += end + 2
			if i < len(line) && !isSpace(line[i]) {
				return nil, ErrUnbalancedQuotes
			}
			continue
		}

		start := i
		for i < len(line) && !isSpace(line[i]) {
			if line[i] == '"' {
				return nil, ErrUnbalancedQuotes
			}
			i++
		}
		out = append(out, lexeme{text: line[start:i]})
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}
