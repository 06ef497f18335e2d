// Package value defines the data values that appear in CIF documents:
// character strings with their quoting style, the special unknown ("?")
// and not-applicable (".") placeholders, and the CIF 2.0 composite list
// and table values.
package value

import "strings"

type Kind int

const (
	KindUnknown Kind = iota // the "?" placeholder
	KindNA                  // the "." placeholder
	KindString
	KindList
	KindTable
)

var kindNames = map[Kind]string{
	KindUnknown: "Unknown",
	KindNA:      "NotApplicable",
	KindString:  "String",
	KindList:    "List",
	KindTable:   "Table",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Invalid"
}

// QuoteStyle records how a string value was delimited in the source,
// so a writer can reproduce an equivalent form.
type QuoteStyle int

const (
	QuoteNone QuoteStyle = iota
	QuoteSingle
	QuoteDouble
	QuoteTripleSingle // CIF 2.0 only
	QuoteTripleDouble // CIF 2.0 only
	QuoteText         // semicolon-delimited text block
)

// Value is a tagged union. The zero value is the unknown placeholder.
type Value struct {
	kind  Kind
	text  string
	style QuoteStyle
	list  []Value
	table *Table
}

// Table is a key-ordered string-to-value map (CIF 2.0).
type Table struct {
	keys    []string
	entries map[string]Value
}

var (
	Unknown = Value{kind: KindUnknown}
	NA      = Value{kind: KindNA}
)

func String(text string) Value {
	return Value{kind: KindString, text: text}
}

func Quoted(text string, style QuoteStyle) Value {
	return Value{kind: KindString, text: text, style: style}
}

func List(elems []Value) Value {
	return Value{kind: KindList, list: elems}
}

func NewTable() *Table {
	return &Table{entries: make(map[string]Value)}
}

// Set stores v under key. It reports false without overwriting when the
// key is already present.
func (t *Table) Set(key string, v Value) bool {
	if _, ok := t.entries[key]; ok {
		return false
	}
	t.keys = append(t.keys, key)
	t.entries[key] = v
	return true
}

func (t *Table) Get(key string) (Value, bool) {
	v, ok := t.entries[key]
	return v, ok
}

func (t *Table) Keys() []string { return t.keys }

func (t *Table) Len() int { return len(t.keys) }

func FromTable(t *Table) Value {
	return Value{kind: KindTable, table: t}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsUnknown() bool { return v.kind == KindUnknown }

func (v Value) IsNA() bool { return v.kind == KindNA }

// Text returns the character content of a string value. For the
// placeholders it returns their source spelling.
func (v Value) Text() string {
	switch v.kind {
	case KindUnknown:
		return "?"
	case KindNA:
		return "."
	default:
		return v.text
	}
}

func (v Value) Style() QuoteStyle { return v.style }

func (v Value) List() []Value { return v.list }

func (v Value) Table() *Table { return v.table }

// Equal compares two values structurally, ignoring quote style.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.text == other.text
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	case KindTable:
		if v.table.Len() != other.table.Len() {
			return false
		}
		for _, k := range v.table.keys {
			ov, ok := other.table.Get(k)
			if !ok || !v.table.entries[k].Equal(ov) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func (v Value) GoString() string {
	switch v.kind {
	case KindString:
		return "value.String(" + v.text + ")"
	case KindList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.GoString()
		}
		return "value.List[" + strings.Join(parts, " ") + "]"
	case KindTable:
		return "value.Table{...}"
	case KindNA:
		return "value.NA"
	default:
		return "value.Unknown"
	}
}
