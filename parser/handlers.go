package parser

import "github.com/dhamidi/cif/value"

// Directive steers the parse from a handler callback. Whatever the
// directive, the parser still consumes the skipped syntax; skipping
// suppresses events and sink mutation, never scanning.
type Directive int

const (
	// Continue proceeds normally.
	Continue Directive = iota
	// SkipChildren suppresses the current element's subtree.
	SkipChildren
	// SkipSiblings suppresses the current element's subtree and its
	// remaining same-kind siblings in the enclosing container.
	SkipSiblings
	// Stop ends the parse gracefully: no further events or sink
	// mutation, and the parse returns nil.
	Stop
)

// Handlers is a record of optional callbacks, one per structural
// boundary. A nil callback means Continue. A callback's non-nil error
// ends the parse and becomes its result.
type Handlers struct {
	DocumentStart func() (Directive, error)
	DocumentEnd   func() (Directive, error)
	BlockStart    func(code string) (Directive, error)
	BlockEnd      func(code string) (Directive, error)
	FrameStart    func(code string) (Directive, error)
	FrameEnd      func(code string) (Directive, error)
	LoopStart     func(names []string) (Directive, error)
	LoopEnd       func(names []string) (Directive, error)
	PacketStart   func(index int) (Directive, error)
	PacketEnd     func(index int) (Directive, error)
	Item          func(name string, v value.Value) (Directive, error)
}
