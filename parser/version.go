package parser

// Version selects the CIF dialect. The zero value asks the parser to
// detect it from the leading magic comment, defaulting to CIF 1.1.
type Version int

const (
	VersionAuto Version = iota
	Version1            // CIF 1.1
	Version2            // CIF 2.0
)

func (v Version) String() string {
	switch v {
	case Version1:
		return "CIF 1.1"
	case Version2:
		return "CIF 2.0"
	default:
		return "auto"
	}
}

// The two magic codes are fixed 10-character sequences; the backslash
// is a literal character, not an escape.
var (
	magic1 = []rune(`#\#CIF_1.1`)
	magic2 = []rune(`#\#CIF_2.0`)
)

// detectVersion resolves the dialect before the first real token:
// explicit override beats the magic comment beats the CIF 1.1 default.
// It configures the scanner's character classes exactly once; the
// version is immutable for the rest of the parse.
func (s *scanner) detectVersion() error {
	bom := false
	if s.peek(0) == 0xFEFF {
		bom = true
		if _, err := s.advance(); err != nil {
			return err
		}
		// The BOM is not document content; reset the column so that a
		// column-1 semicolon on the first line is still recognized.
		s.pos.Line = 1
		s.pos.Column = 1
		s.begin()
	}
	detected := VersionAuto
	if s.matchMagic(magic1) {
		detected = Version1
	} else if s.matchMagic(magic2) {
		detected = Version2
	}
	resolved := s.opts.Version
	if resolved == VersionAuto {
		resolved = detected
		if resolved == VersionAuto {
			resolved = Version1
		}
	} else if detected != VersionAuto && detected != resolved {
		magic := magic1
		if detected == Version2 {
			magic = magic2
		}
		if err := s.report(ErrVersionMismatch, s.pos, string(magic)); err != nil {
			return err
		}
	}
	s.version = resolved
	s.applyVersion()
	if bom && s.version == Version1 {
		if err := s.report(ErrBOMNotAllowed, Position{Line: 1, Column: 1}, ""); err != nil {
			return err
		}
	}
	if s.srcErr != nil {
		return s.srcErr
	}
	return nil
}

// matchMagic checks for a bit-exact magic code followed by whitespace
// or end of input. The comment itself is left for the scanner to
// consume as an ordinary comment.
func (s *scanner) matchMagic(magic []rune) bool {
	for i, want := range magic {
		if s.peek(i) != want {
			return false
		}
	}
	after := s.peek(len(magic))
	return after == eofRune || s.isSpace(after)
}

// applyVersion builds the ASCII class table for the resolved dialect.
// Under CIF 1.1 the four bracket characters are ordinary value text;
// under CIF 2.0 they are structural delimiters.
func (s *scanner) applyVersion() {
	for i := range s.ascii {
		s.ascii[i] = clsOrdinary
	}
	for _, r := range []rune{' ', '\t'} {
		s.ascii[r] = clsWS
	}
	for _, r := range s.opts.ExtraWS {
		if r < 128 {
			s.ascii[r] = clsWS
		}
	}
	for _, r := range []rune{'\n', '\r'} {
		s.ascii[r] = clsEOL
	}
	for _, r := range s.opts.ExtraEOL {
		if r < 128 {
			s.ascii[r] = clsEOL
		}
	}
	s.ascii['\''] = clsQuote
	s.ascii['"'] = clsQuote
	s.ascii['#'] = clsHash
	s.ascii[';'] = clsSemi
	for i := 0; i < 0x20; i++ {
		if s.ascii[i] == clsOrdinary {
			s.ascii[i] = clsDisallowed
		}
	}
	s.ascii[0x7F] = clsDisallowed
	if s.version == Version2 {
		s.ascii['['] = clsOpenList
		s.ascii[']'] = clsCloseList
		s.ascii['{'] = clsOpenTable
		s.ascii['}'] = clsCloseTable
	}
}
