package parser

import "fmt"

// Position is a location in the character stream, in Unicode code
// points. Line and Column are 1-based; Offset is 0-based.
type Position struct {
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

type Span struct {
	Start Position
	End   Position
}

type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenError

	// Values
	TokenValue        // whitespace-delimited unquoted value, including "?" and "."
	TokenQuoted       // 'value' or "value"
	TokenTripleQuoted // '''value''' or """value""" (CIF 2.0)
	TokenTableKey     // quoted string immediately followed by ':' (CIF 2.0)
	TokenTextField    // semicolon-delimited text block

	// Names and reserved words
	TokenName      // _data_name
	TokenBlockHead // data_<code>; Literal holds <code>
	TokenFrameHead // save_<code>; Literal holds <code>
	TokenFrameTerm // bare save_
	TokenLoop      // loop_
	TokenStop      // stop_
	TokenGlobal    // global_

	// CIF 2.0 structural delimiters
	TokenListOpen
	TokenListClose
	TokenTableOpen
	TokenTableClose
)

var tokenKindNames = map[TokenKind]string{
	TokenEOF:          "EOF",
	TokenError:        "Error",
	TokenValue:        "Value",
	TokenQuoted:       "Quoted",
	TokenTripleQuoted: "TripleQuoted",
	TokenTableKey:     "TableKey",
	TokenTextField:    "TextField",
	TokenName:         "Name",
	TokenBlockHead:    "data_",
	TokenFrameHead:    "save_",
	TokenFrameTerm:    "save_ (end)",
	TokenLoop:         "loop_",
	TokenStop:         "stop_",
	TokenGlobal:       "global_",
	TokenListOpen:     "[",
	TokenListClose:    "]",
	TokenTableOpen:    "{",
	TokenTableClose:   "}",
}

func (k TokenKind) String() string {
	if name, ok := tokenKindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Token is one classified lexeme. Literal holds the cooked content: the
// code after a data_/save_ prefix, the content between quote delimiters,
// or the raw body of a text field before convention decoding.
type Token struct {
	Kind    TokenKind
	Literal string
	Span    Span
	Delim   rune // quote delimiter for TokenQuoted/TokenTripleQuoted/TokenTableKey
}

func (t Token) isValue() bool {
	switch t.Kind {
	case TokenValue, TokenQuoted, TokenTripleQuoted, TokenTextField,
		TokenListOpen, TokenTableOpen:
		return true
	}
	return false
}
