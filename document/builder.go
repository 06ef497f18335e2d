package document

import (
	"github.com/dhamidi/cif/parser"
	"github.com/dhamidi/cif/value"
)

// Builder adapts a Document to the parser's sink interface.
type Builder struct {
	doc *Document
}

func NewBuilder() *Builder {
	return &Builder{doc: New()}
}

func (b *Builder) Document() *Document { return b.doc }

func (b *Builder) CreateBlock(code string) (parser.Container, error) {
	blk, err := b.doc.AddBlock(code)
	if err != nil {
		return nil, err
	}
	return blk, nil
}

func (b *Builder) LookupBlock(code string) (parser.Container, bool) {
	blk := b.doc.Block(code)
	if blk == nil {
		return nil, false
	}
	return blk, true
}

func (b *Builder) CreateFrame(parent parser.Container, code string) (parser.Container, error) {
	frame, err := parent.(*Block).AddFrame(code)
	if err != nil {
		return nil, err
	}
	return frame, nil
}

func (b *Builder) LookupFrame(parent parser.Container, code string) (parser.Container, bool) {
	frame := parent.(*Block).Frame(code)
	if frame == nil {
		return nil, false
	}
	return frame, true
}

func (b *Builder) CreateLoop(c parser.Container, category string, names []string) (parser.Loop, error) {
	l, err := c.(*Block).AddLoop(category, names)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (b *Builder) AddPacket(l parser.Loop, values []value.Value) error {
	row := make([]value.Value, len(values))
	copy(row, values)
	l.(*Loop).AddPacket(row)
	return nil
}

func (b *Builder) SetItemValue(c parser.Container, name string, v value.Value) error {
	return c.(*Block).SetItem(name, v)
}

// Parse reads one CIF document from src into a fresh Document.
func Parse(src parser.Source, opts *parser.Options) (*Document, error) {
	b := NewBuilder()
	if err := parser.Parse(src, b, opts); err != nil {
		return nil, err
	}
	return b.doc, nil
}

// ParseString is a convenience wrapper over Parse.
func ParseString(text string, opts *parser.Options) (*Document, error) {
	return Parse(parser.NewStringSource(text), opts)
}
