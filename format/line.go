package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/cif/document"
	"github.com/dhamidi/cif/value"
)

// LineEncoder writes one tab-separated record per document element, a
// shape that greps and cuts cleanly.
type LineEncoder struct {
	w   io.Writer
	doc *document.Document
}

func NewLineEncoder(w io.Writer) *LineEncoder {
	return &LineEncoder{w: w}
}

func (e *LineEncoder) Encode(doc *document.Document) error {
	e.doc = doc
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *LineEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	for _, b := range e.doc.Blocks() {
		fmt.Fprintf(&sb, "block\t%s\n", b.Code())
		e.writeContainer(&sb, b)
	}
	return []byte(sb.String()), nil
}

func (e *LineEncoder) writeContainer(sb *strings.Builder, b *document.Block) {
	for _, name := range b.ItemNames() {
		v, _ := b.Item(name)
		fmt.Fprintf(sb, "item\t%s\t%s\t%s\n", name, v.Kind(), lineText(v))
	}
	for _, l := range b.Loops() {
		fmt.Fprintf(sb, "loop\t%s\n", strings.Join(l.Names(), "\t"))
		for _, pkt := range l.Packets() {
			parts := make([]string, 0, len(l.Names()))
			for _, v := range pkt.Values() {
				parts = append(parts, lineText(v))
			}
			fmt.Fprintf(sb, "packet\t%s\n", strings.Join(parts, "\t"))
		}
	}
	for _, f := range b.Frames() {
		fmt.Fprintf(sb, "frame\t%s\n", f.Code())
		e.writeContainer(sb, f)
	}
}

// lineText flattens a value to a single field; embedded tabs and
// newlines are escaped so the record structure survives.
func lineText(v value.Value) string {
	var text string
	switch v.Kind() {
	case value.KindList:
		parts := make([]string, len(v.List()))
		for i, e := range v.List() {
			parts[i] = lineText(e)
		}
		text = "[" + strings.Join(parts, " ") + "]"
	case value.KindTable:
		parts := make([]string, 0, v.Table().Len())
		for _, k := range v.Table().Keys() {
			e, _ := v.Table().Get(k)
			parts = append(parts, k+":"+lineText(e))
		}
		text = "{" + strings.Join(parts, " ") + "}"
	default:
		text = v.Text()
	}
	text = strings.ReplaceAll(text, "\\", "\\\\")
	text = strings.ReplaceAll(text, "\t", "\\t")
	text = strings.ReplaceAll(text, "\n", "\\n")
	text = strings.ReplaceAll(text, "\r", "\\r")
	return text
}
