package parser

import (
	"bufio"
	"io"
	"unicode/utf16"
	"unicode/utf8"
)

// Source yields decoded Unicode code points. ReadChars fills p with up
// to len(p) code points and returns how many were written. It returns
// io.EOF (possibly alongside a final short count) at end of stream; any
// other error is an I/O failure and aborts the parse unconditionally.
type Source interface {
	ReadChars(p []rune) (int, error)
}

type stringSource struct {
	runes []rune
	pos   int
}

// NewStringSource reads code points from an in-memory string.
func NewStringSource(s string) Source {
	return &stringSource{runes: []rune(s)}
}

func (s *stringSource) ReadChars(p []rune) (int, error) {
	if s.pos >= len(s.runes) {
		return 0, io.EOF
	}
	n := copy(p, s.runes[s.pos:])
	s.pos += n
	return n, nil
}

type readerSource struct {
	r *bufio.Reader
}

// NewReaderSource decodes UTF-8 from r. Each invalid byte sequence is
// delivered as a decode-failure marker, which the scanner diagnoses as
// malformed UTF-8 and repairs with U+FFFD.
func NewReaderSource(r io.Reader) Source {
	return &readerSource{r: bufio.NewReader(r)}
}

func (s *readerSource) ReadChars(p []rune) (int, error) {
	for i := range p {
		r, size, err := s.r.ReadRune()
		if err != nil {
			return i, err
		}
		// ReadRune reports a decode failure as RuneError with size 1;
		// a genuine U+FFFD in the input occupies three bytes.
		if r == utf8.RuneError && size == 1 {
			r = invalidRune
		}
		p[i] = r
	}
	return len(p), nil
}

type utf16Source struct {
	units []uint16
	pos   int
}

// NewUTF16Source decodes UTF-16 code units, combining surrogate pairs.
// A pair is combined even when the caller drains the source one code
// point at a time, so a token can never observe half a pair. An
// unpaired surrogate is passed through as its lone code point for the
// scanner to diagnose.
func NewUTF16Source(units []uint16) Source {
	return &utf16Source{units: units}
}

func (s *utf16Source) ReadChars(p []rune) (int, error) {
	n := 0
	for n < len(p) && s.pos < len(s.units) {
		u := s.units[s.pos]
		if utf16.IsSurrogate(rune(u)) && u >= 0xD800 && u < 0xDC00 && s.pos+1 < len(s.units) {
			next := s.units[s.pos+1]
			if next >= 0xDC00 && next < 0xE000 {
				p[n] = utf16.DecodeRune(rune(u), rune(next))
				s.pos += 2
				n++
				continue
			}
		}
		p[n] = rune(u)
		s.pos++
		n++
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}
