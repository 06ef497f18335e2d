// Package document holds the in-memory CIF document model: data
// blocks, save frames, loops, and packets. Its Builder implements the
// parser's sink interface, so document.Parse is the usual way to read
// a whole file.
package document

import (
	"strings"

	"github.com/dhamidi/cif/parser"
	"github.com/dhamidi/cif/value"
)

// Document is an ordered collection of data blocks.
type Document struct {
	blocks []*Block
	index  map[string]*Block
}

func New() *Document {
	return &Document{index: make(map[string]*Block)}
}

// Block is a CIF container: a top-level data block or a save frame.
// Single-valued items live in the implicit scalar loop (category "").
type Block struct {
	code   string
	parent *Block // nil for a top-level block

	frames     []*Block
	frameIndex map[string]*Block

	loops  []*Loop
	scalar *Loop
}

// Loop is a declared column list with zero or more packets.
type Loop struct {
	category string
	names    []string
	columns  map[string]int
	packets  [][]value.Value
}

// Packet is a read-only view of one loop row.
type Packet struct {
	loop *Loop
	row  []value.Value
}

func newBlock(code string, parent *Block) *Block {
	return &Block{
		code:       code,
		parent:     parent,
		frameIndex: make(map[string]*Block),
	}
}

func fold(name string) string { return strings.ToLower(name) }

func (d *Document) Blocks() []*Block { return d.blocks }

func (d *Document) Block(code string) *Block { return d.index[fold(code)] }

func (d *Document) AddBlock(code string) (*Block, error) {
	key := fold(code)
	if _, ok := d.index[key]; ok {
		return nil, parser.ErrDuplicate
	}
	b := newBlock(code, nil)
	d.blocks = append(d.blocks, b)
	d.index[key] = b
	return b, nil
}

func (b *Block) Code() string { return b.code }

// IsFrame reports whether the container is a save frame.
func (b *Block) IsFrame() bool { return b.parent != nil }

func (b *Block) Parent() *Block { return b.parent }

func (b *Block) Frames() []*Block { return b.frames }

func (b *Block) Frame(code string) *Block { return b.frameIndex[fold(code)] }

func (b *Block) AddFrame(code string) (*Block, error) {
	key := fold(code)
	if _, ok := b.frameIndex[key]; ok {
		return nil, parser.ErrDuplicate
	}
	f := newBlock(code, b)
	b.frames = append(b.frames, f)
	b.frameIndex[key] = f
	return f, nil
}

// Loops returns the declared loops, not including the scalar loop.
func (b *Block) Loops() []*Loop { return b.loops }

// ScalarLoop returns the implicit loop of single-valued items. It may
// be nil when the container has none.
func (b *Block) ScalarLoop() *Loop { return b.scalar }

func (b *Block) AddLoop(category string, names []string) (*Loop, error) {
	for _, name := range names {
		if b.findColumn(name) != nil {
			return nil, parser.ErrDuplicate
		}
	}
	l := &Loop{category: category, columns: make(map[string]int)}
	for i, name := range names {
		l.names = append(l.names, name)
		l.columns[fold(name)] = i
	}
	b.loops = append(b.loops, l)
	return l, nil
}

// SetItem stores a single-valued item in the scalar loop.
func (b *Block) SetItem(name string, v value.Value) error {
	if b.findColumn(name) != nil {
		return parser.ErrDuplicate
	}
	if b.scalar == nil {
		b.scalar = &Loop{columns: make(map[string]int)}
		b.scalar.packets = append(b.scalar.packets, nil)
	}
	l := b.scalar
	l.columns[fold(name)] = len(l.names)
	l.names = append(l.names, name)
	l.packets[0] = append(l.packets[0], v)
	return nil
}

// Item looks a single-valued item up by name.
func (b *Block) Item(name string) (value.Value, bool) {
	if b.scalar == nil {
		return value.Unknown, false
	}
	i, ok := b.scalar.columns[fold(name)]
	if !ok {
		return value.Unknown, false
	}
	return b.scalar.packets[0][i], true
}

// ItemNames returns the scalar item names in insertion order.
func (b *Block) ItemNames() []string {
	if b.scalar == nil {
		return nil
	}
	return b.scalar.names
}

func (b *Block) findColumn(name string) *Loop {
	key := fold(name)
	if b.scalar != nil {
		if _, ok := b.scalar.columns[key]; ok {
			return b.scalar
		}
	}
	for _, l := range b.loops {
		if _, ok := l.columns[key]; ok {
			return l
		}
	}
	return nil
}

func (l *Loop) Category() string { return l.category }

func (l *Loop) Names() []string { return l.names }

func (l *Loop) AddPacket(row []value.Value) {
	l.packets = append(l.packets, row)
}

func (l *Loop) Len() int { return len(l.packets) }

func (l *Loop) Packet(i int) Packet { return Packet{loop: l, row: l.packets[i]} }

func (l *Loop) Packets() []Packet {
	out := make([]Packet, len(l.packets))
	for i := range l.packets {
		out[i] = Packet{loop: l, row: l.packets[i]}
	}
	return out
}

func (p Packet) Get(name string) (value.Value, bool) {
	i, ok := p.loop.columns[fold(name)]
	if !ok || i >= len(p.row) {
		return value.Unknown, false
	}
	return p.row[i], true
}

func (p Packet) Values() []value.Value { return p.row }
