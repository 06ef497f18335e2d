package parser

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a diagnosable condition. Every code maps to
// exactly one local repair, applied when the error handler returns nil.
type ErrorCode int

const (
	NoError ErrorCode = iota

	// Lexical and encoding conditions. Repaired by substituting U+FFFD
	// for the offending code point, except where noted.
	ErrInvalidChar       // code point outside the dialect's repertoire
	ErrNulChar           // NUL
	ErrControlChar       // C0 control other than tab/CR/LF, or DEL
	ErrUnpairedSurrogate // lone surrogate half from the source
	ErrInvalidUTF8       // byte sequence the source could not decode
	ErrNoncharacter      // U+FDD0..U+FDEF, U+xxFFFE, U+xxFFFF
	ErrStrayBOM          // U+FEFF after the first character
	ErrBOMNotAllowed     // leading BOM under CIF 1.1; repaired by dropping it
	ErrOverlongLine      // > MaxLineLength code points; accepted as-is
	ErrMissingSpace      // required whitespace between tokens; assumed

	// Version detection.
	ErrVersionMismatch // magic comment conflicts with a forced version; forced wins

	// Quoted strings and text fields.
	ErrUnterminatedString // closing delimiter assumed at end of line
	ErrUnterminatedTriple // closing delimiter assumed at end of input
	ErrUnterminatedText   // closing ";" line assumed at end of input
	ErrMissingPrefix      // text-field line without the declared prefix; kept verbatim

	// Lists and tables (CIF 2.0).
	ErrBracketInCIF1       // [ or { opening a value under CIF 1.1; read as unquoted text
	ErrUnterminatedList    // "]" assumed at the point of detection
	ErrUnterminatedTable   // "}" assumed at the point of detection
	ErrMissingColon        // quoted string in key position without ":"; treated as the key
	ErrUnquotedTableKey    // bare word in key position; its text becomes the key
	ErrDuplicateTableKey   // first entry kept, new value dropped
	ErrMissingTableValue   // "}" or end right after a key; unknown placeholder stored
	ErrUnexpectedDelimiter // stray ] or } outside a composite; dropped

	// Document structure.
	ErrMissingBlockHeader  // content before any data_; an anonymous block is opened
	ErrEmptyBlockCode      // bare "data_"; block code "" used
	ErrDuplicateBlock      // existing block reopened and merged
	ErrDuplicateFrame      // existing frame reopened and merged
	ErrFrameNotAllowed     // frames disabled; content parsed into the parent
	ErrFrameTooDeep        // nesting limit exceeded; content parsed into the parent
	ErrUnterminatedFrame   // frame closed implicitly at block end or EOF
	ErrUnexpectedFrameTerm // save_ terminator with no open frame; dropped
	ErrReservedWord        // unquoted stop_ or global_; dropped

	// Loops and items.
	ErrNoLoopNames     // loop_ without names; the loop is dropped
	ErrEmptyLoop       // loop with a header but no packets; kept empty
	ErrDuplicateName   // duplicate data name in a container; first occurrence kept
	ErrMissingValue    // name without a value; unknown placeholder stored
	ErrUnexpectedValue // value with no preceding name; consumed and dropped
	ErrPartialPacket   // short trailing packet; padded with unknown placeholders
)

var errorMessages = map[ErrorCode]string{
	ErrInvalidChar:         "character not allowed in this CIF version",
	ErrNulChar:             "NUL character in input",
	ErrControlChar:         "control character in input",
	ErrUnpairedSurrogate:   "unpaired surrogate in input",
	ErrInvalidUTF8:         "malformed UTF-8 in input",
	ErrNoncharacter:        "Unicode noncharacter in input",
	ErrStrayBOM:            "byte-order mark after start of input",
	ErrBOMNotAllowed:       "byte-order mark not allowed before CIF 1.1 content",
	ErrOverlongLine:        "line exceeds the maximum length",
	ErrMissingSpace:        "missing whitespace between tokens",
	ErrVersionMismatch:     "version comment disagrees with the requested version",
	ErrUnterminatedString:  "unterminated quoted string",
	ErrUnterminatedTriple:  "unterminated triple-quoted string",
	ErrUnterminatedText:    "unterminated text field",
	ErrMissingPrefix:       "text field line is missing the declared prefix",
	ErrBracketInCIF1:       "bracketed values require CIF 2.0",
	ErrUnterminatedList:    "unterminated list",
	ErrUnterminatedTable:   "unterminated table",
	ErrMissingColon:        "table key is not followed by a colon",
	ErrUnquotedTableKey:    "table key must be quoted",
	ErrDuplicateTableKey:   "duplicate table key",
	ErrMissingTableValue:   "table key has no value",
	ErrUnexpectedDelimiter: "unexpected closing delimiter",
	ErrMissingBlockHeader:  "content before the first data block",
	ErrEmptyBlockCode:      "data block header has no block code",
	ErrDuplicateBlock:      "duplicate data block code",
	ErrDuplicateFrame:      "duplicate save frame code",
	ErrFrameNotAllowed:     "save frames are not allowed here",
	ErrFrameTooDeep:        "save frames nested too deeply",
	ErrUnterminatedFrame:   "save frame is not terminated",
	ErrUnexpectedFrameTerm: "save frame terminator outside any save frame",
	ErrReservedWord:        "reserved word must be quoted to be used as a value",
	ErrNoLoopNames:         "loop_ is not followed by any data names",
	ErrEmptyLoop:           "loop has no values",
	ErrDuplicateName:       "duplicate data name",
	ErrMissingValue:        "data name is not followed by a value",
	ErrUnexpectedValue:     "value without a preceding data name",
	ErrPartialPacket:       "number of loop values is not a multiple of the name count",
}

func (c ErrorCode) String() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return fmt.Sprintf("error %d", int(c))
}

// ParseError is one diagnosed condition. It is passed to the error
// handler before its repair is applied, and becomes the parse result
// when the handler escalates.
type ParseError struct {
	Code ErrorCode
	Pos  Position
	Text string // offending text, possibly empty
}

func (e *ParseError) Error() string {
	if e.Text != "" {
		return fmt.Sprintf("%s: %s: %q", e.Pos, e.Code, e.Text)
	}
	return fmt.Sprintf("%s: %s", e.Pos, e.Code)
}

// ErrorHandler decides whether a recoverable condition is repaired.
// Returning nil applies the code's fixed repair and continues; any
// non-nil error aborts the parse and becomes its result.
type ErrorHandler func(e *ParseError) error

// FailFast aborts on the first diagnosed condition.
func FailFast(e *ParseError) error { return e }

// Silent recovers from every diagnosable condition.
func Silent(e *ParseError) error { return nil }

// ErrDuplicate is returned by sinks when a block, frame, data name, or
// loop column already exists. The parser recovers from it by reopening
// or keeping the first occurrence; any other sink error is fatal.
var ErrDuplicate = errors.New("duplicate")
