package output

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/memkv-go/internal/core/domain"
)

// JSONFormatter writes each reply as one indented JSON document. Strings
// stay strings, integers become numbers and nil becomes null.
type JSONFormatter struct{}

func (f *JSONFormatter) Format(w io.Writer, reply domain.Value) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(plain(reply))
}

// YAMLFormatter writes each reply as a YAML document.
type YAMLFormatter struct{}

func (f *YAMLFormatter) Format(w io.Writer, reply domain.Value) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(plain(reply)); err != nil {
		return err
	}
	return enc.Close()
}

// plain maps a reply onto values both encoders understand.
func plain(v domain.Value) any {
	switch v := v.(type) {
	case domain.Str:
		return string(v)
	case domain.Int:
		return int64(v)
	case domain.Array:
		items := make([]any, 0, len(v))
		for _, item := range v {
			items = append(items, plain(item))
		}
		return items
	}
	return nil
}
