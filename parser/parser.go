// Package parser reads CIF 1.1 and 2.0 documents from a character
// source, driving a document sink and an optional set of structural
// event handlers. Malformed input is diagnosed condition by condition;
// a caller-supplied error handler decides, per condition, between a
// fixed local repair and aborting the parse.
package parser

import (
	"errors"
	"strings"

	"github.com/dhamidi/cif/value"
)

// Options configures a parse. The zero value detects the version from
// the magic comment, allows one level of save frames, and fails on the
// first diagnosed condition.
type Options struct {
	// Version forces a dialect; VersionAuto detects it.
	Version Version
	// MaxFrameDepth limits save-frame nesting: 0 means the default of
	// one level, -1 disables frames entirely, N allows N levels.
	MaxFrameDepth int
	// ExtraWS and ExtraEOL add application-defined whitespace and
	// line-terminator characters.
	ExtraWS  []rune
	ExtraEOL []rune

	Handlers Handlers

	// OnError decides recovery; nil means FailFast.
	OnError ErrorHandler
	// OnComment observes comments and maximal whitespace runs, which
	// never reach the grammar.
	OnComment func(text string, pos Position)
	// OnKeyword observes reserved-word tokens as they are recognized.
	OnKeyword func(tok Token)
	// OnDataName observes every data name token, including loop
	// headers.
	OnDataName func(name string, pos Position)
}

func (o *Options) errorHandler() ErrorHandler {
	if o.OnError == nil {
		return FailFast
	}
	return o.OnError
}

func (o *Options) frameDepth() int {
	switch {
	case o.MaxFrameDepth < 0:
		return 0
	case o.MaxFrameDepth == 0:
		return 1
	default:
		return o.MaxFrameDepth
	}
}

// Parser is the recursive-descent grammar layer over the scanner.
type Parser struct {
	sc   *scanner
	sink Sink
	opts *Options

	tok    Token
	peeked bool

	// skipDepth counts enclosing skipped subtrees. While it is
	// positive, events and sink mutation are suppressed but syntax is
	// still consumed. Every increment is paired with exactly one
	// decrement on every exit path.
	skipDepth int
	stopped   bool
}

// Parse reads one CIF document from src into sink. It returns nil on
// success (including a successfully recovered parse), the error
// returned by an escalating callback, or a fatal I/O or sink error.
func Parse(src Source, sink Sink, opts *Options) error {
	if opts == nil {
		opts = &Options{}
	}
	p := &Parser{sc: newScanner(src, opts), sink: sink, opts: opts}
	defer p.sc.release()
	if err := p.sc.detectVersion(); err != nil {
		return err
	}
	return p.parseDocument()
}

// ParseString is a convenience wrapper over Parse.
func ParseString(text string, sink Sink, opts *Options) error {
	return Parse(NewStringSource(text), sink, opts)
}

func (p *Parser) peek() (Token, error) {
	if !p.peeked {
		tok, err := p.sc.nextToken()
		if err != nil {
			return Token{}, err
		}
		p.tok = tok
		p.peeked = true
	}
	return p.tok, nil
}

func (p *Parser) next() (Token, error) {
	tok, err := p.peek()
	p.peeked = false
	return tok, err
}

func (p *Parser) consume() {
	p.peeked = false
}

func (p *Parser) suppressed() bool {
	return p.stopped || p.skipDepth > 0
}

// event dispatches one handler callback, honoring suppression. A Stop
// directive or callback error latches the stopped state; the error
// becomes the parse result.
func (p *Parser) event(cb func() (Directive, error)) (Directive, error) {
	if cb == nil || p.suppressed() {
		return Continue, nil
	}
	d, err := cb()
	if err != nil {
		p.stopped = true
		return d, err
	}
	if d == Stop {
		p.stopped = true
	}
	return d, nil
}

func (p *Parser) reportAt(code ErrorCode, tok Token) error {
	return p.sc.report(code, tok.Span.Start, tok.Literal)
}

func (p *Parser) parseDocument() error {
	d, err := p.event(p.opts.Handlers.DocumentStart)
	if err != nil {
		return err
	}
	if d == SkipChildren || d == SkipSiblings {
		p.skipDepth++
		defer func() { p.skipDepth-- }()
	}
	skipBlocks := false
	for !p.stopped {
		tok, err := p.peek()
		if err != nil {
			return err
		}
		switch tok.Kind {
		case TokenEOF:
			_, err := p.event(p.opts.Handlers.DocumentEnd)
			return err
		case TokenBlockHead:
			if skipBlocks {
				p.skipDepth++
			}
			sib, err := p.parseBlock()
			if skipBlocks {
				p.skipDepth--
			}
			if err != nil {
				return err
			}
			if sib {
				skipBlocks = true
			}
		case TokenFrameTerm:
			p.consume()
			if err := p.reportAt(ErrUnexpectedFrameTerm, tok); err != nil {
				return err
			}
		case TokenStop, TokenGlobal:
			p.consume()
			if err := p.reportAt(ErrReservedWord, tok); err != nil {
				return err
			}
		default:
			// Content before the first data_ header: open an
			// anonymous block and keep going.
			if err := p.reportAt(ErrMissingBlockHeader, tok); err != nil {
				return err
			}
			if skipBlocks {
				p.skipDepth++
			}
			sib, err := p.parseBlockBody("")
			if skipBlocks {
				p.skipDepth--
			}
			if err != nil {
				return err
			}
			if sib {
				skipBlocks = true
			}
		}
	}
	return nil
}

func (p *Parser) parseBlock() (bool, error) {
	tok, err := p.next()
	if err != nil {
		return false, err
	}
	if tok.Literal == "" {
		if err := p.reportAt(ErrEmptyBlockCode, tok); err != nil {
			return false, err
		}
	}
	return p.parseBlockBody(tok.Literal)
}

// parseBlockBody parses a block's content into a new or reopened
// container. It reports whether remaining sibling blocks should be
// skipped.
func (p *Parser) parseBlockBody(code string) (bool, error) {
	d, err := p.eventCode(p.opts.Handlers.BlockStart, code)
	if err != nil {
		return false, err
	}
	if d == SkipChildren || d == SkipSiblings {
		p.skipDepth++
		defer func() { p.skipDepth-- }()
	}
	var c Container
	if !p.suppressed() {
		c, err = p.sink.CreateBlock(code)
		if errors.Is(err, ErrDuplicate) {
			if rerr := p.sc.report(ErrDuplicateBlock, p.sc.tokenPos, code); rerr != nil {
				return false, rerr
			}
			c, _ = p.sink.LookupBlock(code)
		} else if err != nil {
			return false, err
		}
	}
	if err := p.parseContainer(c, 0); err != nil {
		return false, err
	}
	dEnd, err := p.eventCode(p.opts.Handlers.BlockEnd, code)
	if err != nil {
		return false, err
	}
	return d == SkipSiblings || dEnd == SkipSiblings, nil
}

func (p *Parser) eventCode(cb func(string) (Directive, error), code string) (Directive, error) {
	if cb == nil {
		return Continue, nil
	}
	return p.event(func() (Directive, error) { return cb(code) })
}

// parseContainer consumes frames, loops, and items until the enclosing
// boundary. frameDepth is the number of save frames already open.
func (p *Parser) parseContainer(c Container, frameDepth int) error {
	seen := make(map[string]bool)
	skipFrames := false
	skipData := false
	for !p.stopped {
		tok, err := p.peek()
		if err != nil {
			return err
		}
		switch tok.Kind {
		case TokenEOF, TokenBlockHead:
			return nil
		case TokenFrameTerm:
			if frameDepth > 0 {
				return nil
			}
			p.consume()
			if err := p.reportAt(ErrUnexpectedFrameTerm, tok); err != nil {
				return err
			}
		case TokenFrameHead:
			if skipFrames {
				p.skipDepth++
			}
			sib, err := p.parseFrame(c, frameDepth)
			if skipFrames {
				p.skipDepth--
			}
			if err != nil {
				return err
			}
			if sib {
				skipFrames = true
			}
		case TokenLoop:
			if skipData {
				p.skipDepth++
			}
			sib, err := p.parseLoop(c, seen)
			if skipData {
				p.skipDepth--
			}
			if err != nil {
				return err
			}
			if sib {
				skipData = true
			}
		case TokenName:
			if skipData {
				p.skipDepth++
			}
			sib, err := p.parseItem(c, seen)
			if skipData {
				p.skipDepth--
			}
			if err != nil {
				return err
			}
			if sib {
				skipData = true
			}
		case TokenStop, TokenGlobal:
			p.consume()
			if err := p.reportAt(ErrReservedWord, tok); err != nil {
				return err
			}
		case TokenListClose, TokenTableClose:
			p.consume()
			if err := p.reportAt(ErrUnexpectedDelimiter, tok); err != nil {
				return err
			}
		default:
			if err := p.reportAt(ErrUnexpectedValue, tok); err != nil {
				return err
			}
			if _, err := p.parseValue(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Parser) parseFrame(parent Container, frameDepth int) (bool, error) {
	tok, err := p.next()
	if err != nil {
		return false, err
	}
	code := tok.Literal
	maxDepth := p.opts.frameDepth()
	if frameDepth >= maxDepth {
		code2 := ErrFrameTooDeep
		if maxDepth == 0 {
			code2 = ErrFrameNotAllowed
		}
		if err := p.reportAt(code2, tok); err != nil {
			return false, err
		}
		// The header is dropped; the frame's content lands in the
		// enclosing container and its terminator is consumed here.
		if err := p.parseContainer(parent, frameDepth+1); err != nil {
			return false, err
		}
		return false, p.consumeFrameTerm(tok)
	}
	d, err := p.eventCode(p.opts.Handlers.FrameStart, code)
	if err != nil {
		return false, err
	}
	if d == SkipChildren || d == SkipSiblings {
		p.skipDepth++
		defer func() { p.skipDepth-- }()
	}
	var c Container
	if !p.suppressed() {
		c, err = p.sink.CreateFrame(parent, code)
		if errors.Is(err, ErrDuplicate) {
			if rerr := p.reportAt(ErrDuplicateFrame, tok); rerr != nil {
				return false, rerr
			}
			c, _ = p.sink.LookupFrame(parent, code)
		} else if err != nil {
			return false, err
		}
	}
	if err := p.parseContainer(c, frameDepth+1); err != nil {
		return false, err
	}
	if err := p.consumeFrameTerm(tok); err != nil {
		return false, err
	}
	dEnd, err := p.eventCode(p.opts.Handlers.FrameEnd, code)
	if err != nil {
		return false, err
	}
	return d == SkipSiblings || dEnd == SkipSiblings, nil
}

// consumeFrameTerm consumes the save_ terminator, or diagnoses an
// implicitly closed frame at a block boundary or EOF.
func (p *Parser) consumeFrameTerm(head Token) error {
	tok, err := p.peek()
	if err != nil {
		return err
	}
	if tok.Kind == TokenFrameTerm {
		p.consume()
		return nil
	}
	if p.stopped {
		return nil
	}
	return p.reportAt(ErrUnterminatedFrame, head)
}

func (p *Parser) parseLoop(c Container, seen map[string]bool) (bool, error) {
	loopTok, err := p.next()
	if err != nil {
		return false, err
	}

	// Phase one: the header.
	var names []string
	var dropped []bool
	for {
		tok, err := p.peek()
		if err != nil {
			return false, err
		}
		if tok.Kind != TokenName {
			break
		}
		p.consume()
		fold := strings.ToLower(tok.Literal)
		drop := seen[fold]
		if drop {
			if err := p.reportAt(ErrDuplicateName, tok); err != nil {
				return false, err
			}
		}
		seen[fold] = true
		names = append(names, tok.Literal)
		dropped = append(dropped, drop)
	}
	if len(names) == 0 {
		if err := p.reportAt(ErrNoLoopNames, loopTok); err != nil {
			return false, err
		}
		return false, p.discardValues()
	}
	kept := make([]string, 0, len(names))
	for i, name := range names {
		if !dropped[i] {
			kept = append(kept, name)
		}
	}

	d, err := p.eventNames(p.opts.Handlers.LoopStart, kept)
	if err != nil {
		return false, err
	}
	if d == SkipChildren || d == SkipSiblings {
		p.skipDepth++
		defer func() { p.skipDepth-- }()
	}

	var lp Loop
	if !p.suppressed() {
		lp, err = p.sink.CreateLoop(c, "", kept)
		if errors.Is(err, ErrDuplicate) {
			if rerr := p.reportAt(ErrDuplicateName, loopTok); rerr != nil {
				return false, rerr
			}
			lp = nil
		} else if err != nil {
			return false, err
		}
	}

	// Phase two: the flat value stream, distributed round-robin.
	packets := 0
	row := make([]value.Value, 0, len(names))
	skipPackets := false
	flush := func() error {
		if skipPackets {
			p.skipDepth++
			defer func() { p.skipDepth-- }()
		}
		sib, err := p.emitPacket(lp, packets, names, dropped, row)
		if err != nil {
			return err
		}
		if sib {
			skipPackets = true
		}
		packets++
		row = row[:0]
		return nil
	}
	for !p.stopped {
		tok, err := p.peek()
		if err != nil {
			return false, err
		}
		if !tok.isValue() {
			break
		}
		v, err := p.parseValue()
		if err != nil {
			return false, err
		}
		row = append(row, v)
		if len(row) == len(names) {
			if err := flush(); err != nil {
				return false, err
			}
		}
	}
	if len(row) > 0 {
		if err := p.sc.report(ErrPartialPacket, p.sc.tokenPos, ""); err != nil {
			return false, err
		}
		for len(row) < len(names) {
			row = append(row, value.Unknown)
		}
		if err := flush(); err != nil {
			return false, err
		}
	}
	if packets == 0 && !p.stopped {
		if err := p.reportAt(ErrEmptyLoop, loopTok); err != nil {
			return false, err
		}
	}

	dEnd, err := p.eventNames(p.opts.Handlers.LoopEnd, kept)
	if err != nil {
		return false, err
	}
	return d == SkipSiblings || dEnd == SkipSiblings, nil
}

func (p *Parser) eventNames(cb func([]string) (Directive, error), names []string) (Directive, error) {
	if cb == nil {
		return Continue, nil
	}
	return p.event(func() (Directive, error) { return cb(names) })
}

// emitPacket delivers one loop packet: packet-start, one item event per
// kept column, the sink row, packet-end. It reports whether remaining
// packets should be skipped.
func (p *Parser) emitPacket(lp Loop, index int, names []string, dropped []bool, row []value.Value) (bool, error) {
	d, err := p.event(func() (Directive, error) {
		if p.opts.Handlers.PacketStart == nil {
			return Continue, nil
		}
		return p.opts.Handlers.PacketStart(index)
	})
	if err != nil {
		return false, err
	}
	if d == SkipChildren || d == SkipSiblings {
		p.skipDepth++
		defer func() { p.skipDepth-- }()
	}
	kept := make([]value.Value, 0, len(row))
	skipItems := false
	for i, name := range names {
		if dropped[i] {
			continue
		}
		kept = append(kept, row[i])
		if skipItems {
			continue
		}
		di, err := p.event(func() (Directive, error) {
			if p.opts.Handlers.Item == nil {
				return Continue, nil
			}
			return p.opts.Handlers.Item(name, row[i])
		})
		if err != nil {
			return false, err
		}
		if di == SkipSiblings {
			skipItems = true
		}
	}
	if !p.suppressed() && lp != nil {
		if err := p.sink.AddPacket(lp, kept); err != nil {
			return false, err
		}
	}
	dEnd, err := p.event(func() (Directive, error) {
		if p.opts.Handlers.PacketEnd == nil {
			return Continue, nil
		}
		return p.opts.Handlers.PacketEnd(index)
	})
	if err != nil {
		return false, err
	}
	return d == SkipSiblings || dEnd == SkipSiblings, nil
}

// discardValues consumes a value run without delivering it anywhere.
// Used when a loop header recovered to zero columns.
func (p *Parser) discardValues() error {
	for !p.stopped {
		tok, err := p.peek()
		if err != nil {
			return err
		}
		if !tok.isValue() {
			return nil
		}
		if _, err := p.parseValue(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) parseItem(c Container, seen map[string]bool) (bool, error) {
	nameTok, err := p.next()
	if err != nil {
		return false, err
	}
	name := nameTok.Literal
	fold := strings.ToLower(name)
	dup := seen[fold]
	seen[fold] = true
	if dup {
		if err := p.reportAt(ErrDuplicateName, nameTok); err != nil {
			return false, err
		}
	}
	tok, err := p.peek()
	if err != nil {
		return false, err
	}
	var v value.Value
	if tok.isValue() {
		v, err = p.parseValue()
		if err != nil {
			return false, err
		}
	} else {
		if err := p.sc.report(ErrMissingValue, nameTok.Span.Start, name); err != nil {
			return false, err
		}
		v = value.Unknown
	}
	if dup {
		// First occurrence wins; the reparsed value is dropped.
		return false, nil
	}
	d, err := p.event(func() (Directive, error) {
		if p.opts.Handlers.Item == nil {
			return Continue, nil
		}
		return p.opts.Handlers.Item(name, v)
	})
	if err != nil {
		return false, err
	}
	if !p.suppressed() && d != SkipChildren && d != SkipSiblings {
		if err := p.sink.SetItemValue(c, name, v); err != nil {
			if !errors.Is(err, ErrDuplicate) {
				return false, err
			}
			if rerr := p.reportAt(ErrDuplicateName, nameTok); rerr != nil {
				return false, rerr
			}
		}
	}
	return d == SkipSiblings, nil
}

// parseValue consumes one data value. The caller has checked that the
// current token begins one.
func (p *Parser) parseValue() (value.Value, error) {
	tok, err := p.next()
	if err != nil {
		return value.Unknown, err
	}
	switch tok.Kind {
	case TokenValue:
		switch tok.Literal {
		case "?":
			return value.Unknown, nil
		case ".":
			return value.NA, nil
		default:
			return value.String(tok.Literal), nil
		}
	case TokenQuoted:
		return value.Quoted(tok.Literal, quoteStyle(tok.Delim, false)), nil
	case TokenTripleQuoted:
		return value.Quoted(tok.Literal, quoteStyle(tok.Delim, true)), nil
	case TokenTextField:
		text, err := decodeTextField(tok.Literal, func(line int) error {
			pos := Position{Line: tok.Span.Start.Line + line, Column: 1}
			return p.sc.report(ErrMissingPrefix, pos, "")
		})
		if err != nil {
			return value.Unknown, err
		}
		return value.Quoted(text, value.QuoteText), nil
	case TokenListOpen:
		return p.parseList()
	case TokenTableOpen:
		return p.parseTable()
	default:
		return value.Unknown, nil
	}
}

func quoteStyle(delim rune, triple bool) value.QuoteStyle {
	switch {
	case delim == '\'' && triple:
		return value.QuoteTripleSingle
	case delim == '"' && triple:
		return value.QuoteTripleDouble
	case delim == '"':
		return value.QuoteDouble
	default:
		return value.QuoteSingle
	}
}

func (p *Parser) parseList() (value.Value, error) {
	// A quote abutting a colon is a table key only directly inside a
	// table; the gate closes for the extent of a list, so the quote
	// scans as an ordinary string and the colon is diagnosed as
	// missing whitespace.
	depth := p.sc.tableDepth
	p.sc.tableDepth = 0
	defer func() { p.sc.tableDepth = depth }()
	var elems []value.Value
	for {
		tok, err := p.peek()
		if err != nil {
			return value.Unknown, err
		}
		switch {
		case tok.Kind == TokenListClose:
			p.consume()
			return value.List(elems), nil
		case tok.Kind == TokenTableClose:
			p.consume()
			if err := p.reportAt(ErrUnexpectedDelimiter, tok); err != nil {
				return value.Unknown, err
			}
		case tok.isValue():
			v, err := p.parseValue()
			if err != nil {
				return value.Unknown, err
			}
			elems = append(elems, v)
		default:
			// EOF or a structural token: the closer is assumed here.
			if err := p.reportAt(ErrUnterminatedList, tok); err != nil {
				return value.Unknown, err
			}
			return value.List(elems), nil
		}
	}
}

func (p *Parser) parseTable() (value.Value, error) {
	p.sc.tableDepth++
	defer func() { p.sc.tableDepth-- }()
	t := value.NewTable()
	for {
		tok, err := p.peek()
		if err != nil {
			return value.Unknown, err
		}
		switch {
		case tok.Kind == TokenTableClose:
			p.consume()
			return value.FromTable(t), nil
		case tok.Kind == TokenTableKey:
			p.consume()
			if err := p.parseTableEntry(t, tok); err != nil {
				return value.Unknown, err
			}
		case tok.Kind == TokenQuoted || tok.Kind == TokenTripleQuoted:
			p.consume()
			if err := p.reportAt(ErrMissingColon, tok); err != nil {
				return value.Unknown, err
			}
			if err := p.parseTableEntry(t, tok); err != nil {
				return value.Unknown, err
			}
		case tok.Kind == TokenValue:
			p.consume()
			if err := p.reportAt(ErrUnquotedTableKey, tok); err != nil {
				return value.Unknown, err
			}
			if err := p.parseTableEntry(t, tok); err != nil {
				return value.Unknown, err
			}
		case tok.Kind == TokenListClose:
			p.consume()
			if err := p.reportAt(ErrUnexpectedDelimiter, tok); err != nil {
				return value.Unknown, err
			}
		case tok.isValue():
			// A composite in key position cannot name an entry;
			// consume and drop it.
			if err := p.reportAt(ErrUnquotedTableKey, tok); err != nil {
				return value.Unknown, err
			}
			if _, err := p.parseValue(); err != nil {
				return value.Unknown, err
			}
		default:
			if err := p.reportAt(ErrUnterminatedTable, tok); err != nil {
				return value.Unknown, err
			}
			return value.FromTable(t), nil
		}
	}
}

// parseTableEntry reads the value for a consumed key token and stores
// the pair, keeping the first entry on a duplicate key.
func (p *Parser) parseTableEntry(t *value.Table, key Token) error {
	tok, err := p.peek()
	if err != nil {
		return err
	}
	var v value.Value
	if tok.isValue() && tok.Kind != TokenTableKey {
		v, err = p.parseValue()
		if err != nil {
			return err
		}
	} else {
		if err := p.reportAt(ErrMissingTableValue, key); err != nil {
			return err
		}
		v = value.Unknown
	}
	if !t.Set(key.Literal, v) {
		if err := p.reportAt(ErrDuplicateTableKey, key); err != nil {
			return err
		}
	}
	return nil
}
