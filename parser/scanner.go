package parser

import "io"

// MaxLineLength is the CIF limit on code points per physical line.
// Exceeding it is a recoverable diagnostic, never a buffer cap.
const MaxLineLength = 2048

const eofRune rune = -1

// invalidRune marks a byte sequence a source adapter could not decode.
// It never appears in well-formed decoder output.
const invalidRune rune = -2

type charClass uint8

const (
	clsOrdinary charClass = iota
	clsWS
	clsEOL
	clsQuote
	clsHash
	clsSemi
	clsOpenList
	clsCloseList
	clsOpenTable
	clsCloseTable
	clsDisallowed
)

// scanner turns a Source into classified tokens. It owns the single
// growable lookahead buffer for the whole parse; token literals are
// copied out of it on emission, so buffer compaction never invalidates
// a token a caller already holds.
type scanner struct {
	src  Source
	opts *Options

	buf        []rune
	tokenStart int // start of the token under construction
	next       int // next unconsumed code point
	limit      int // fill limit
	eof        bool
	srcErr     error

	pos      Position // position of buf[next]
	tokenPos Position
	prevCR   bool
	lineLen  int
	longLine bool

	version Version
	ascii   [128]charClass

	// tableDepth is maintained by the grammar; a quoted string is
	// reclassified as a table key only inside a table.
	tableDepth int
}

func newScanner(src Source, opts *Options) *scanner {
	s := &scanner{
		src:  src,
		opts: opts,
		pos:  Position{Line: 1, Column: 1},
	}
	return s
}

// release drops the lookahead buffer. Called on every exit path from
// the top-level parse.
func (s *scanner) release() {
	s.buf = nil
	s.tokenStart, s.next, s.limit = 0, 0, 0
}

func (s *scanner) report(code ErrorCode, pos Position, text string) error {
	return s.opts.errorHandler()(&ParseError{Code: code, Pos: pos, Text: text})
}

// ensure makes at least n unconsumed code points available, or sets the
// EOF flag. It reports false when fewer than n remain.
func (s *scanner) ensure(n int) bool {
	for s.limit-s.next < n {
		if s.eof || s.srcErr != nil {
			return false
		}
		s.fill()
	}
	return true
}

func (s *scanner) fill() {
	// Compact: everything before the current token is dead.
	if s.tokenStart > 0 {
		copy(s.buf, s.buf[s.tokenStart:s.limit])
		s.next -= s.tokenStart
		s.limit -= s.tokenStart
		s.tokenStart = 0
	}
	if s.limit == len(s.buf) {
		size := len(s.buf) * 2
		if size < 256 {
			size = 256
		}
		grown := make([]rune, size)
		copy(grown, s.buf[:s.limit])
		s.buf = grown
	}
	n, err := s.src.ReadChars(s.buf[s.limit:])
	s.limit += n
	if err == io.EOF {
		s.eof = true
	} else if err != nil {
		s.srcErr = err
	}
}

func (s *scanner) peek(i int) rune {
	if !s.ensure(i + 1) {
		return eofRune
	}
	return s.buf[s.next+i]
}

// advance validates and consumes one code point, substituting U+FFFD
// for a diagnosed disallowed character when the handler recovers.
func (s *scanner) advance() (rune, error) {
	r := s.peek(0)
	if r == eofRune {
		return eofRune, s.srcErr
	}
	if code := s.classifyBad(r); code != NoError {
		if err := s.report(code, s.pos, string(r)); err != nil {
			return r, err
		}
		r = '�'
		s.buf[s.next] = r
	}
	s.next++
	s.pos.Offset++
	switch {
	case r == '\n':
		if s.prevCR {
			s.prevCR = false
		} else {
			s.newline()
		}
	case r == '\r':
		s.newline()
		s.prevCR = true
	case s.isEOL(r):
		s.prevCR = false
		s.newline()
	default:
		s.prevCR = false
		s.pos.Column++
		s.lineLen++
		if s.lineLen == MaxLineLength+1 && !s.longLine {
			s.longLine = true
			if err := s.report(ErrOverlongLine, s.pos, ""); err != nil {
				return r, err
			}
		}
	}
	return r, nil
}

func (s *scanner) newline() {
	s.pos.Line++
	s.pos.Column = 1
	s.lineLen = 0
	s.longLine = false
}

// classifyBad returns the diagnostic for a disallowed code point, or
// NoError for an acceptable one.
func (s *scanner) classifyBad(r rune) ErrorCode {
	switch {
	case r == invalidRune:
		return ErrInvalidUTF8
	case r == 0:
		return ErrNulChar
	case r < 0x20 && r != '\t' && r != '\n' && r != '\r':
		if s.isWS(r) || s.isEOL(r) {
			return NoError // application-defined whitespace
		}
		return ErrControlChar
	case r == 0x7F:
		return ErrControlChar
	case r >= 0x80 && r <= 0x9F:
		return ErrInvalidChar
	case r >= 0xD800 && r <= 0xDFFF:
		return ErrUnpairedSurrogate
	case r == 0xFEFF:
		if s.pos.Offset == 0 {
			return NoError // leading BOM, handled by version detection
		}
		return ErrStrayBOM
	case r >= 0xFDD0 && r <= 0xFDEF:
		return ErrNoncharacter
	case r&0xFFFE == 0xFFFE:
		return ErrNoncharacter
	}
	return NoError
}

func (s *scanner) isWS(r rune) bool {
	if r == ' ' || r == '\t' {
		return true
	}
	for _, extra := range s.opts.ExtraWS {
		if r == extra {
			return true
		}
	}
	return false
}

func (s *scanner) isEOL(r rune) bool {
	if r == '\n' || r == '\r' {
		return true
	}
	for _, extra := range s.opts.ExtraEOL {
		if r == extra {
			return true
		}
	}
	return false
}

func (s *scanner) isSpace(r rune) bool {
	return s.isWS(r) || s.isEOL(r)
}

func (s *scanner) class(r rune) charClass {
	if r >= 0 && r < 128 {
		return s.ascii[r]
	}
	if s.isWS(r) {
		return clsWS
	}
	if s.isEOL(r) {
		return clsEOL
	}
	return clsOrdinary
}

func (s *scanner) begin() {
	s.tokenStart = s.next
	s.tokenPos = s.pos
}

// mark returns the offset of the next code point relative to the token
// start. Relative offsets survive buffer compaction.
func (s *scanner) mark() int {
	return s.next - s.tokenStart
}

func (s *scanner) slice(from, to int) string {
	return string(s.buf[s.tokenStart+from : s.tokenStart+to])
}

func (s *scanner) emit(kind TokenKind, literal string) Token {
	return Token{
		Kind:    kind,
		Literal: literal,
		Span:    Span{Start: s.tokenPos, End: s.pos},
	}
}

// nextToken produces one classified token, skipping whitespace and
// comments (delivered to the layout observer, never to the grammar).
func (s *scanner) nextToken() (Token, error) {
	for {
		r := s.peek(0)
		if s.srcErr != nil {
			return Token{}, s.srcErr
		}
		if r == eofRune {
			s.begin()
			return s.emit(TokenEOF, ""), nil
		}
		switch s.class(r) {
		case clsWS, clsEOL:
			if err := s.scanSpaceRun(); err != nil {
				return Token{}, err
			}
		case clsHash:
			if err := s.scanComment(); err != nil {
				return Token{}, err
			}
		case clsQuote:
			return s.scanQuoted(r)
		case clsSemi:
			if s.pos.Column == 1 {
				return s.scanTextField()
			}
			return s.scanUnquoted()
		case clsOpenList:
			return s.scanDelimiter(TokenListOpen)
		case clsCloseList:
			return s.scanDelimiter(TokenListClose)
		case clsOpenTable:
			return s.scanDelimiter(TokenTableOpen)
		case clsCloseTable:
			return s.scanDelimiter(TokenTableClose)
		default:
			return s.scanUnquoted()
		}
	}
}

func (s *scanner) scanSpaceRun() error {
	s.begin()
	for s.isSpace(s.peek(0)) {
		if _, err := s.advance(); err != nil {
			return err
		}
	}
	if s.opts.OnComment != nil {
		s.opts.OnComment(s.slice(0, s.mark()), s.tokenPos)
	}
	return nil
}

func (s *scanner) scanComment() error {
	s.begin()
	for {
		r := s.peek(0)
		if r == eofRune || s.isEOL(r) {
			break
		}
		if _, err := s.advance(); err != nil {
			return err
		}
	}
	if s.opts.OnComment != nil {
		s.opts.OnComment(s.slice(0, s.mark()), s.tokenPos)
	}
	return nil
}

func (s *scanner) scanDelimiter(kind TokenKind) (Token, error) {
	s.begin()
	if _, err := s.advance(); err != nil {
		return Token{}, err
	}
	return s.emit(kind, s.slice(0, s.mark())), nil
}

func (s *scanner) scanQuoted(delim rune) (Token, error) {
	s.begin()
	if s.version == Version2 && s.peek(1) == delim && s.peek(2) == delim {
		return s.scanTripleQuoted(delim)
	}
	if _, err := s.advance(); err != nil { // opening delimiter
		return Token{}, err
	}
	contentStart := s.mark()
	contentEnd := -1
	for {
		r := s.peek(0)
		if r == eofRune && s.srcErr != nil {
			return Token{}, s.srcErr
		}
		if r == eofRune || s.isEOL(r) {
			if err := s.report(ErrUnterminatedString, s.pos, ""); err != nil {
				return Token{}, err
			}
			contentEnd = s.mark()
			break
		}
		if r == delim {
			if s.version == Version2 || s.cif1QuoteCloses() {
				contentEnd = s.mark()
				if _, err := s.advance(); err != nil { // closing delimiter
					return Token{}, err
				}
				break
			}
		}
		if _, err := s.advance(); err != nil {
			return Token{}, err
		}
	}
	return s.finishQuoted(delim, TokenQuoted, contentStart, contentEnd)
}

// cif1QuoteCloses reports whether the quote at the cursor terminates a
// CIF 1.1 quoted string: under 1.1 the closing delimiter must be
// followed by whitespace or end of input.
func (s *scanner) cif1QuoteCloses() bool {
	r := s.peek(1)
	return r == eofRune || s.isSpace(r)
}

func (s *scanner) scanTripleQuoted(delim rune) (Token, error) {
	for i := 0; i < 3; i++ {
		if _, err := s.advance(); err != nil {
			return Token{}, err
		}
	}
	contentStart := s.mark()
	contentEnd := -1
	for {
		r := s.peek(0)
		if r == eofRune {
			if s.srcErr != nil {
				return Token{}, s.srcErr
			}
			if err := s.report(ErrUnterminatedTriple, s.pos, ""); err != nil {
				return Token{}, err
			}
			contentEnd = s.mark()
			break
		}
		if r == delim && s.peek(1) == delim && s.peek(2) == delim {
			contentEnd = s.mark()
			for i := 0; i < 3; i++ {
				if _, err := s.advance(); err != nil {
					return Token{}, err
				}
			}
			break
		}
		if _, err := s.advance(); err != nil {
			return Token{}, err
		}
	}
	return s.finishQuoted(delim, TokenTripleQuoted, contentStart, contentEnd)
}

// finishQuoted applies the two post-conditions shared by all quoted
// forms: reclassification as a table key when a colon abuts the closing
// delimiter inside a table, and the required-whitespace check.
func (s *scanner) finishQuoted(delim rune, kind TokenKind, contentStart, contentEnd int) (Token, error) {
	literal := s.slice(contentStart, contentEnd)
	if s.tableDepth > 0 && s.peek(0) == ':' {
		if _, err := s.advance(); err != nil {
			return Token{}, err
		}
		tok := s.emit(TokenTableKey, literal)
		tok.Delim = delim
		return tok, nil
	}
	if err := s.requireBoundary(); err != nil {
		return Token{}, err
	}
	tok := s.emit(kind, literal)
	tok.Delim = delim
	return tok, nil
}

// requireBoundary diagnoses a missing inter-token whitespace after a
// delimited value. Recovery assumes the whitespace and continues.
func (s *scanner) requireBoundary() error {
	r := s.peek(0)
	if r == eofRune || s.isSpace(r) {
		return nil
	}
	switch s.class(r) {
	case clsHash, clsCloseList, clsCloseTable:
		return nil
	}
	return s.report(ErrMissingSpace, s.pos, string(r))
}

func (s *scanner) scanTextField() (Token, error) {
	s.begin()
	if _, err := s.advance(); err != nil { // opening semicolon
		return Token{}, err
	}
	contentStart := s.mark()
	contentEnd := -1
	lastEOL := -1
	for {
		r := s.peek(0)
		if r == eofRune {
			if s.srcErr != nil {
				return Token{}, s.srcErr
			}
			if err := s.report(ErrUnterminatedText, s.pos, ""); err != nil {
				return Token{}, err
			}
			contentEnd = s.mark()
			break
		}
		if s.isEOL(r) {
			lastEOL = s.mark()
			if err := s.consumeEOL(); err != nil {
				return Token{}, err
			}
			if s.peek(0) == ';' {
				contentEnd = lastEOL
				if _, err := s.advance(); err != nil { // closing semicolon
					return Token{}, err
				}
				if err := s.requireBoundary(); err != nil {
					return Token{}, err
				}
				break
			}
			continue
		}
		if _, err := s.advance(); err != nil {
			return Token{}, err
		}
	}
	return s.emit(TokenTextField, s.slice(contentStart, contentEnd)), nil
}

// consumeEOL consumes one line terminator, folding CRLF into a single
// break.
func (s *scanner) consumeEOL() error {
	r, err := s.advance()
	if err != nil {
		return err
	}
	if r == '\r' && s.peek(0) == '\n' {
		_, err = s.advance()
	}
	return err
}

func (s *scanner) scanUnquoted() (Token, error) {
	s.begin()
	if s.version == Version1 {
		r := s.peek(0)
		if r == '[' || r == '{' {
			// CIF 1.1 reserves an opening bracket at the start of a
			// value; recovery reads the run as ordinary text.
			if err := s.report(ErrBracketInCIF1, s.pos, string(r)); err != nil {
				return Token{}, err
			}
		}
	}
	for {
		r := s.peek(0)
		if r == eofRune && s.srcErr != nil {
			return Token{}, s.srcErr
		}
		if r == eofRune || s.isSpace(r) {
			break
		}
		if s.version == Version2 {
			switch s.class(r) {
			case clsOpenList, clsCloseList, clsOpenTable, clsCloseTable:
				goto done
			}
		}
		if _, err := s.advance(); err != nil {
			return Token{}, err
		}
	}
done:
	literal := s.slice(0, s.mark())
	return s.classifyWord(literal), nil
}

// classifyWord turns a whitespace-delimited run into a name, a reserved
// word, or a plain value. Reserved-word matching is ASCII
// case-insensitive; no locale-dependent folding.
func (s *scanner) classifyWord(literal string) Token {
	if literal != "" && literal[0] == '_' {
		tok := s.emit(TokenName, literal)
		if s.opts.OnDataName != nil {
			s.opts.OnDataName(literal, s.tokenPos)
		}
		return tok
	}
	if code, ok := cutPrefixFold(literal, "data_"); ok {
		return s.keyword(TokenBlockHead, code)
	}
	if code, ok := cutPrefixFold(literal, "save_"); ok {
		if code == "" {
			return s.keyword(TokenFrameTerm, "")
		}
		return s.keyword(TokenFrameHead, code)
	}
	if asciiEqualFold(literal, "loop_") {
		return s.keyword(TokenLoop, literal)
	}
	if asciiEqualFold(literal, "stop_") {
		return s.keyword(TokenStop, literal)
	}
	if asciiEqualFold(literal, "global_") {
		return s.keyword(TokenGlobal, literal)
	}
	return s.emit(TokenValue, literal)
}

func (s *scanner) keyword(kind TokenKind, literal string) Token {
	tok := s.emit(kind, literal)
	if s.opts.OnKeyword != nil {
		s.opts.OnKeyword(tok)
	}
	return tok
}

func asciiEqualFold(s, t string) bool {
	if len(s) != len(t) {
		return false
	}
	for i := 0; i < len(s); i++ {
		a, b := s[i], t[i]
		if 'A' <= a && a <= 'Z' {
			a += 'a' - 'A'
		}
		if 'A' <= b && b <= 'Z' {
			b += 'a' - 'A'
		}
		if a != b {
			return false
		}
	}
	return true
}

// cutPrefixFold strips an ASCII case-insensitive prefix, reporting
// whether it was present.
func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) {
		return "", false
	}
	if !asciiEqualFold(s[:len(prefix)], prefix) {
		return "", false
	}
	return s[len(prefix):], true
}
