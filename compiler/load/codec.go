package load

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Format is a descriptor file encoding.
type Format string

// Supported descriptor formats.
const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatMsgpack Format = "msgpack"
)

// File is the top-level document of a descriptor file.
type File struct {
	Targets []*Target `json:"targets" yaml:"targets" msgpack:"targets"`
}

// ParseFormat parses a format name. "yml" and "mpk" are accepted aliases.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatYAML, FormatMsgpack:
		return f, nil
	case "yml":
		return FormatYAML, nil
	case "mpk", "msgp":
		return FormatMsgpack, nil
	default:
		return "", fmt.Errorf("load: unknown descriptor format %q", s)
	}
}

// FormatOf infers the format of a descriptor file from its extension.
func FormatOf(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("load: cannot infer descriptor format of %q", path)
	}
	return ParseFormat(ext)
}

// Marshal encodes f in the given format.
func Marshal(format Format, f *File) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(f, "", "  ")
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(f); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatMsgpack:
		return msgpack.Marshal(f)
	default:
		return nil, fmt.Errorf("load: unknown descriptor format %q", format)
	}
}

// Unmarshal decodes a descriptor document.
func Unmarshal(format Format, b []byte) (*File, error) {
	f := &File{}
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(b, f)
	case FormatYAML:
		err = yaml.Unmarshal(b, f)
	case FormatMsgpack:
		err = msgpack.Unmarshal(b, f)
	default:
		return nil, fmt.Errorf("load: unknown descriptor format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("load: decode %s descriptors: %w", format, err)
	}
	return f, nil
}

// ReadFile reads a descriptor file, inferring its format from the extension.
// Relative target directories are resolved against the file's directory.
func ReadFile(path string) (*File, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Unmarshal(format, b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	base := filepath.Dir(path)
	for _, t := range f.Targets {
		if t.Dir == "" || !filepath.IsAbs(t.Dir) {
			t.Dir = filepath.Join(base, t.Dir)
		}
	}
	return f, nil
}

// Write encodes f to w.
func Write(w io.Writer, format Format, f *File) error {
	b, err := Marshal(format, f)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}
