package parser

import (
	"errors"
	"io"
	"strings"
	"testing"
	"unicode/utf16"
)

func drain(t *testing.T, src Source, chunk int) []rune {
	t.Helper()
	var out []rune
	buf := make([]rune, chunk)
	for {
		n, err := src.ReadChars(buf)
		out = append(out, buf[:n]...)
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("ReadChars: %v", err)
		}
	}
}

func TestStringSource(t *testing.T) {
	got := drain(t, NewStringSource("héllo"), 2)
	if string(got) != "héllo" {
		t.Errorf("got %q", string(got))
	}
}

func TestReaderSource(t *testing.T) {
	got := drain(t, NewReaderSource(strings.NewReader("data_x\n")), 3)
	if string(got) != "data_x\n" {
		t.Errorf("got %q", string(got))
	}
}

func TestReaderSourceInvalidUTF8(t *testing.T) {
	// A bad byte sequence is a recoverable diagnostic, repaired with
	// U+FFFD, so callers see the same protocol as for any other
	// disallowed character.
	var errs []*ParseError
	sink := newTestSink()
	src := NewReaderSource(strings.NewReader("data_A\n_x a\xFFb\n"))
	if err := Parse(src, sink, &Options{OnError: collectErrors(&errs)}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(errs) != 1 || errs[0].Code != ErrInvalidUTF8 {
		t.Fatalf("errors = %v, want one ErrInvalidUTF8", errs)
	}
	if errs[0].Pos.Line != 2 || errs[0].Pos.Column != 5 {
		t.Errorf("Pos = %v, want 2:5", errs[0].Pos)
	}
	if got := sink.blocks[0].item(t, "_x"); got.Text() != "a�b" {
		t.Errorf("value = %q, want %q", got.Text(), "a�b")
	}
}

func TestReaderSourceInvalidUTF8FailsFast(t *testing.T) {
	src := NewReaderSource(strings.NewReader("data_A\n_x a\xFFb\n"))
	err := Parse(src, DiscardSink{}, nil)
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Code != ErrInvalidUTF8 {
		t.Fatalf("err = %v, want ErrInvalidUTF8", err)
	}
}

func TestUTF16SourcePairsSurrogates(t *testing.T) {
	units := utf16.Encode([]rune("a𐀀b")) // U+10000 encodes as a pair
	for _, chunk := range []int{1, 2, 8} {
		got := drain(t, NewUTF16Source(units), chunk)
		if string(got) != "a𐀀b" {
			t.Errorf("chunk %d: got %q", chunk, string(got))
		}
	}
}

func TestUTF16SourceLoneSurrogate(t *testing.T) {
	// An unpaired surrogate passes through for the scanner to diagnose.
	units := []uint16{'a', 0xD800, 'b'}
	got := drain(t, NewUTF16Source(units), 1)
	if len(got) != 3 || got[1] != 0xD800 {
		t.Fatalf("got %v", got)
	}

	var errs []*ParseError
	opts := &Options{OnError: collectErrors(&errs)}
	s := newScanner(NewUTF16Source(units), opts)
	if err := s.detectVersion(); err != nil {
		t.Fatalf("detectVersion: %v", err)
	}
	tok, err := s.nextToken()
	if err != nil {
		t.Fatalf("nextToken: %v", err)
	}
	if len(errs) != 1 || errs[0].Code != ErrUnpairedSurrogate {
		t.Fatalf("errors = %v, want one ErrUnpairedSurrogate", errs)
	}
	if tok.Literal != "a�b" {
		t.Errorf("Literal = %q", tok.Literal)
	}
}

type failingSource struct {
	text string
	err  error
	done bool
}

func (f *failingSource) ReadChars(p []rune) (int, error) {
	if f.done {
		return 0, f.err
	}
	f.done = true
	return copy(p, []rune(f.text)), nil
}

func TestSourceErrorIsFatal(t *testing.T) {
	// An I/O failure aborts the parse even with a permissive handler.
	ioErr := errors.New("disk gone")
	src := &failingSource{text: "data_A\n_x 'abc", err: ioErr}
	err := Parse(src, DiscardSink{}, &Options{OnError: Silent})
	if !errors.Is(err, ioErr) {
		t.Fatalf("err = %v, want %v", err, ioErr)
	}
}
