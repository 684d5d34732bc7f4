package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/yndnr/memkv-go/internal/core/domain"
)

// Format represents the output format.
type Format string

const (
	FormatText Format = "text"
	FormatRaw  Format = "raw"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Formats lists the accepted format names.
var Formats = []Format{FormatText, FormatRaw, FormatJSON, FormatYAML}

// Formatter formats one reply for output.
type Formatter interface {
	Format(w io.Writer, reply domain.Value) error
}

// NewFormatter creates a formatter for the given format. Unknown formats
// fall back to text.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatRaw:
		return &RawFormatter{}
	case FormatJSON:
		return &JSONFormatter{}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		return &TextFormatter{}
	}
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// TextFormatter prints replies the way redis-cli does: quoted strings,
// "(integer)" prefixes and numbered, indented arrays.
type TextFormatter struct{}

// Format writes reply followed by a newline.
func (f *TextFormatter) Format(w io.Writer, reply domain.Value) error {
	var b strings.Builder
	writeText(&b, reply, 0)
	_, err := io.WriteString(w, b.String())
	return err
}

func writeText(b *strings.Builder, v domain.Value, indent int) {
	switch v := v.(type) {
	case domain.Str:
		b.WriteString(strconv.Quote(string(v)))
	case domain.Int:
		b.WriteString("(integer) ")
		b.WriteString(strconv.FormatInt(int64(v), 10))
	case domain.Array:
		if len(v) == 0 {
			b.WriteString("(empty array)\n")
			return
		}
		width := len(strconv.Itoa(len(v)))
		for i, item := range v {
			if i > 0 {
				b.WriteString(strings.Repeat(" ", indent))
			}
			fmt.Fprintf(b, "%*d) ", width, i+1)
			writeText(b, item, indent+width+2)
			if _, nested := item.(domain.Array); !nested {
				b.WriteByte('\n')
			}
		}
		return
	default:
		b.WriteString("(nil)")
	}
	if indent == 0 {
		b.WriteByte('\n')
	}
}

// FormatError writes an error reply the way redis-cli does.
func FormatError(w io.Writer, err error) error {
	_, werr := fmt.Fprintf(w, "(error) %s\n", err)
	return werr
}
