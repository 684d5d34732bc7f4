package output

import (
	"io"
	"strconv"
	"strings"

	"github.com/yndnr/memkv-go/internal/core/domain"
)

// RawFormatter prints values without quoting or type annotations, one
// array element per line. Nil prints as an empty line.
type RawFormatter struct{}

// Format writes reply in raw form.
func (f *RawFormatter) Format(w io.Writer, reply domain.Value) error {
	var b strings.Builder
	writeRaw(&b, reply)
	_, err := io.WriteString(w, b.String())
	return err
}

func writeRaw(b *strings.Builder, v domain.Value) {
	switch v := v.(type) {
	case domain.Str:
		b.WriteString(string(v))
	case domain.Int:
		b.WriteString(strconv.FormatInt(int64(v), 10))
	case domain.Array:
		for _, item := range v {
			writeRaw(b, item)
		}
		return
	}
	b.WriteByte('\n')
}
