// Package format serializes a document back to CIF text, choosing a
// lexically safe delimiter for every value.
package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/cif/document"
	"github.com/dhamidi/cif/parser"
	"github.com/dhamidi/cif/value"
)

type CIFEncoder struct {
	w       io.Writer
	version parser.Version
	doc     *document.Document
}

// NewCIFEncoder writes CIF text for the given dialect. VersionAuto is
// encoded as CIF 2.0.
func NewCIFEncoder(w io.Writer, version parser.Version) *CIFEncoder {
	if version == parser.VersionAuto {
		version = parser.Version2
	}
	return &CIFEncoder{w: w, version: version}
}

func (e *CIFEncoder) Encode(doc *document.Document) error {
	e.doc = doc
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *CIFEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	if e.version == parser.Version2 {
		sb.WriteString("#\\#CIF_2.0\n")
	} else {
		sb.WriteString("#\\#CIF_1.1\n")
	}
	for _, b := range e.doc.Blocks() {
		fmt.Fprintf(&sb, "data_%s\n", b.Code())
		if err := e.writeContainer(&sb, b); err != nil {
			return nil, err
		}
	}
	return []byte(sb.String()), nil
}

func (e *CIFEncoder) writeContainer(sb *strings.Builder, b *document.Block) error {
	for _, f := range b.Frames() {
		fmt.Fprintf(sb, "save_%s\n", f.Code())
		if err := e.writeContainer(sb, f); err != nil {
			return err
		}
		sb.WriteString("save_\n")
	}
	for _, name := range b.ItemNames() {
		v, _ := b.Item(name)
		sb.WriteString(name)
		if err := e.writeItemValue(sb, v); err != nil {
			return err
		}
		sb.WriteByte('\n')
	}
	for _, l := range b.Loops() {
		sb.WriteString("loop_\n")
		for _, name := range l.Names() {
			sb.WriteString(name)
			sb.WriteByte('\n')
		}
		for _, pkt := range l.Packets() {
			for i, v := range pkt.Values() {
				if i > 0 {
					sb.WriteByte(' ')
				}
				if err := e.writeValue(sb, v); err != nil {
					return err
				}
			}
			sb.WriteByte('\n')
		}
	}
	return nil
}

// writeItemValue writes the separator and value for a scalar item; a
// text field forces the value onto its own lines.
func (e *CIFEncoder) writeItemValue(sb *strings.Builder, v value.Value) error {
	if v.Kind() == value.KindString && e.needsTextField(v.Text()) {
		sb.WriteByte('\n')
		e.writeTextField(sb, v.Text())
		return nil
	}
	sb.WriteByte(' ')
	return e.writeValue(sb, v)
}

func (e *CIFEncoder) writeValue(sb *strings.Builder, v value.Value) error {
	switch v.Kind() {
	case value.KindUnknown:
		sb.WriteByte('?')
	case value.KindNA:
		sb.WriteByte('.')
	case value.KindString:
		e.writeString(sb, v.Text())
	case value.KindList:
		if e.version != parser.Version2 {
			return fmt.Errorf("cif: list values cannot be written as %s", e.version)
		}
		sb.WriteByte('[')
		for i, elem := range v.List() {
			if i > 0 {
				sb.WriteByte(' ')
			}
			if err := e.writeValue(sb, elem); err != nil {
				return err
			}
		}
		sb.WriteByte(']')
	case value.KindTable:
		if e.version != parser.Version2 {
			return fmt.Errorf("cif: table values cannot be written as %s", e.version)
		}
		sb.WriteByte('{')
		for i, k := range v.Table().Keys() {
			if i > 0 {
				sb.WriteByte(' ')
			}
			elem, _ := v.Table().Get(k)
			if err := e.writeTableKey(sb, k); err != nil {
				return err
			}
			sb.WriteByte(':')
			if err := e.writeValue(sb, elem); err != nil {
				return err
			}
		}
		sb.WriteByte('}')
	}
	return nil
}

func (e *CIFEncoder) writeString(sb *strings.Builder, s string) {
	switch {
	case e.bareSafe(s):
		sb.WriteString(s)
	case e.needsTextField(s):
		sb.WriteByte('\n')
		e.writeTextField(sb, s)
	case !strings.ContainsRune(s, '\''):
		sb.WriteByte('\'')
		sb.WriteString(s)
		sb.WriteByte('\'')
	case !strings.ContainsRune(s, '"'):
		sb.WriteByte('"')
		sb.WriteString(s)
		sb.WriteByte('"')
	case e.version == parser.Version2 && !strings.Contains(s, "'''") && !strings.HasSuffix(s, "'"):
		sb.WriteString("'''")
		sb.WriteString(s)
		sb.WriteString("'''")
	default:
		sb.WriteByte('\n')
		e.writeTextField(sb, s)
	}
}

// writeTableKey picks a quoting form the reader will reclassify as a
// key. Tables only exist under CIF 2.0, so triple quotes are available
// for keys that defeat both single-line forms; a key ending in the
// quote character would merge with the closing triple and is excluded.
func (e *CIFEncoder) writeTableKey(sb *strings.Builder, k string) error {
	single := strings.ContainsRune(k, '\'')
	double := strings.ContainsRune(k, '"')
	multi := strings.ContainsAny(k, "\n\r")
	switch {
	case !single && !multi:
		sb.WriteByte('\'')
		sb.WriteString(k)
		sb.WriteByte('\'')
	case !double && !multi:
		sb.WriteByte('"')
		sb.WriteString(k)
		sb.WriteByte('"')
	case !strings.Contains(k, "'''") && !strings.HasSuffix(k, "'"):
		sb.WriteString("'''")
		sb.WriteString(k)
		sb.WriteString("'''")
	case !strings.Contains(k, `"""`) && !strings.HasSuffix(k, `"`):
		sb.WriteString(`"""`)
		sb.WriteString(k)
		sb.WriteString(`"""`)
	default:
		return fmt.Errorf("cif: table key %q has no valid delimiter", k)
	}
	return nil
}

// needsTextField reports whether s cannot be carried on one line.
func (e *CIFEncoder) needsTextField(s string) bool {
	if strings.ContainsAny(s, "\n\r") {
		return true
	}
	// A value containing both quote characters has no single-line
	// delimiter under CIF 1.1.
	return e.version == parser.Version1 &&
		strings.ContainsRune(s, '\'') && strings.ContainsRune(s, '"')
}

// writeTextField emits a semicolon-delimited text field. The first
// content line shares the line of the opening semicolon, matching how
// the field reads back. The line-prefix protocol is used when the body
// contains a line that would close the field, or when the first line
// would itself read as a protocol declaration.
func (e *CIFEncoder) writeTextField(sb *strings.Builder, s string) {
	lines := strings.Split(s, "\n")
	prefix := ""
	if strings.HasSuffix(lines[0], `\`) {
		prefix = "> "
	}
	for _, line := range lines {
		if strings.HasPrefix(line, ";") {
			prefix = "> "
			break
		}
	}
	sb.WriteByte(';')
	if prefix != "" {
		sb.WriteString(prefix)
		sb.WriteByte('\\')
		sb.WriteByte('\n')
	}
	for i, line := range lines {
		if prefix == "" && i == 0 {
			sb.WriteString(line)
		} else {
			sb.WriteString(prefix)
			sb.WriteString(line)
		}
		sb.WriteByte('\n')
	}
	sb.WriteByte(';')
}

// bareSafe reports whether s can be written without delimiters.
func (e *CIFEncoder) bareSafe(s string) bool {
	if s == "" || s == "?" || s == "." {
		return false
	}
	switch s[0] {
	case '_', '\'', '"', '#', '$', ';', '[', ']', '{', '}':
		return false
	}
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r':
			return false
		case '[', ']', '{', '}':
			if e.version == parser.Version2 {
				return false
			}
		case '\'', '"':
			if e.version == parser.Version2 {
				return false
			}
		}
	}
	lower := strings.ToLower(s)
	for _, prefix := range []string{"data_", "save_"} {
		if strings.HasPrefix(lower, prefix) {
			return false
		}
	}
	switch lower {
	case "loop_", "stop_", "global_":
		return false
	}
	return true
}
