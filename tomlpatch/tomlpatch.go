// Package tomlpatch edits individual keys of TOML files while keeping the
// comments and layout of everything else intact.
package tomlpatch

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/creachadair/tomledit"
	"github.com/creachadair/tomledit/parser"
	"github.com/pelletier/go-toml"
)

// Document is a parsed TOML file open for editing.
type Document struct {
	doc *tomledit.Document
}

// Parse parses a TOML document.
func Parse(r io.Reader) (*Document, error) {
	doc, err := tomledit.Parse(r)
	if err != nil {
		return nil, err
	}
	if doc.Global == nil {
		doc.Global = new(tomledit.Section)
	}
	return &Document{doc: doc}, nil
}

// Load parses the TOML file at path.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return d, nil
}

// Set replaces the value of every entry matching the dotted key and returns
// how many entries were replaced. Nothing is added when the key is absent.
func (d *Document) Set(key string, value any) (int, error) {
	v, err := parseValue(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}

	entries := d.doc.Find(splitKey(key)...)
	for _, e := range entries {
		e.Value = v
	}
	return len(entries), nil
}

// Ensure sets the dotted key, adding it to the end of its table when it is
// absent. The table is created if needed. Existing entries are replaced in
// place, so repeated calls never duplicate the key.
func (d *Document) Ensure(key string, value any) error {
	n, err := d.Set(key, value)
	if err != nil || n > 0 {
		return err
	}

	v, err := parseValue(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}

	k := splitKey(key)
	table, name := parser.Key(k[:len(k)-1]), parser.Key(k[len(k)-1:])
	section := d.table(table)
	section.Items = append(section.Items, &parser.KeyValue{Name: name, Value: v})
	return nil
}

func (d *Document) table(name parser.Key) *tomledit.Section {
	if len(name) == 0 {
		return d.doc.Global
	}
	for _, s := range d.doc.Sections {
		if s.Heading != nil && !s.Heading.IsArray && slices.Equal(s.Heading.Name, name) {
			return s
		}
	}
	s := &tomledit.Section{Heading: &parser.Heading{Name: name}}
	d.doc.Sections = append(d.doc.Sections, s)
	return s
}

// Bytes formats the document. The output is re-parsed so an edit can never
// produce an invalid file.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := tomledit.Format(&buf, d.doc); err != nil {
		return nil, fmt.Errorf("format: %w", err)
	}
	if _, err := toml.LoadBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("patched document is not valid TOML: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile formats the document and atomically replaces path with it,
// keeping the permissions of the existing file.
func (d *Document) WriteFile(path string) error {
	b, err := d.Bytes()
	if err != nil {
		return err
	}

	mode := os.FileMode(0o644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Patch loads path, applies fn and writes the result back.
func Patch(path string, fn func(*Document) error) error {
	d, err := Load(path)
	if err != nil {
		return err
	}
	if err := fn(d); err != nil {
		return fmt.Errorf("patch %s: %w", path, err)
	}
	if err := d.WriteFile(path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func splitKey(key string) []string {
	return strings.Split(key, ".")
}

func parseValue(value any) (parser.Value, error) {
	var s string
	switch v := value.(type) {
	case string:
		s = quote(v)
	case bool:
		s = strconv.FormatBool(v)
	case int:
		s = strconv.Itoa(v)
	case int64:
		s = strconv.FormatInt(v, 10)
	case []string:
		q := make([]string, len(v))
		for i, e := range v {
			q[i] = quote(e)
		}
		s = "[" + strings.Join(q, ", ") + "]"
	default:
		var zero parser.Value
		return zero, fmt.Errorf("unsupported value type %T", value)
	}
	return parser.ParseValue(s)
}

// quote renders s as a TOML basic string.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch {
		case r == '"' || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\t':
			b.WriteString(`\t`)
		case unicode.IsControl(r):
			fmt.Fprintf(&b, `\u%04X`, r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
