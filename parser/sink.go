package parser

import "github.com/dhamidi/cif/value"

// Container and Loop are opaque sink handles. The parser only passes
// them back to the sink that created them.
type (
	Container any
	Loop      any
)

// Sink receives the parsed document. Create methods return
// ErrDuplicate (via errors.Is) when the code or name already exists;
// the parser recovers by reopening the existing element through the
// Lookup methods. Any other sink error aborts the parse.
type Sink interface {
	CreateBlock(code string) (Container, error)
	LookupBlock(code string) (Container, bool)
	CreateFrame(parent Container, code string) (Container, error)
	LookupFrame(parent Container, code string) (Container, bool)
	CreateLoop(c Container, category string, names []string) (Loop, error)
	AddPacket(l Loop, values []value.Value) error
	SetItemValue(c Container, name string, v value.Value) error
}

// DiscardSink ignores everything. Useful for syntax checking where
// only the handler callbacks and diagnostics matter.
type DiscardSink struct{}

func (DiscardSink) CreateBlock(code string) (Container, error) { return nil, nil }

func (DiscardSink) LookupBlock(code string) (Container, bool) { return nil, false }

func (DiscardSink) CreateFrame(parent Container, code string) (Container, error) {
	return nil, nil
}

func (DiscardSink) LookupFrame(parent Container, code string) (Container, bool) {
	return nil, false
}

func (DiscardSink) CreateLoop(c Container, category string, names []string) (Loop, error) {
	return nil, nil
}

func (DiscardSink) AddPacket(l Loop, values []value.Value) error { return nil }

func (DiscardSink) SetItemValue(c Container, name string, v value.Value) error { return nil }
