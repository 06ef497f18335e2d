package parser

import "testing"

func detect(t *testing.T, input string, opts *Options) Version {
	t.Helper()
	if opts == nil {
		opts = &Options{}
	}
	s := newScanner(NewStringSource(input), opts)
	if err := s.detectVersion(); err != nil {
		t.Fatalf("detectVersion: %v", err)
	}
	return s.version
}

func TestDetectVersion(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Version
	}{
		{"cif1 magic", "#\\#CIF_1.1\ndata_x\n", Version1},
		{"cif2 magic", "#\\#CIF_2.0\ndata_x\n", Version2},
		{"no magic defaults to cif1", "data_x\n", Version1},
		{"magic needs whitespace after", "#\\#CIF_2.0x\ndata_x\n", Version1},
		{"magic at eof", "#\\#CIF_2.0", Version2},
		{"magic after tab ok", "#\\#CIF_2.0\tcomment\n", Version2},
		{"plain comment is not magic", "# CIF_2.0\ndata_x\n", Version1},
		{"wrong backslash position", "#\\CIF_2.0\ndata_x\n", Version1},
		{"magic must be first", " #\\#CIF_2.0\ndata_x\n", Version1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detect(t, tt.input, nil); got != tt.want {
				t.Errorf("version = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectVersionForced(t *testing.T) {
	// An explicit override wins without complaint when the magic agrees
	// or is absent.
	if got := detect(t, "data_x\n", &Options{Version: Version2}); got != Version2 {
		t.Errorf("version = %v, want Version2", got)
	}
	if got := detect(t, "#\\#CIF_2.0\ndata_x\n", &Options{Version: Version2}); got != Version2 {
		t.Errorf("version = %v, want Version2", got)
	}
}

func TestDetectVersionMismatch(t *testing.T) {
	var errs []*ParseError
	opts := &Options{Version: Version1, OnError: collectErrors(&errs)}
	if got := detect(t, "#\\#CIF_2.0\ndata_x\n", opts); got != Version1 {
		t.Errorf("version = %v, want Version1", got)
	}
	if len(errs) != 1 || errs[0].Code != ErrVersionMismatch {
		t.Errorf("errors = %v, want one ErrVersionMismatch", errs)
	}
}

func TestDetectVersionBOM(t *testing.T) {
	if got := detect(t, "\uFEFF#\\#CIF_2.0\ndata_x\n", nil); got != Version2 {
		t.Errorf("version = %v, want Version2", got)
	}

	var errs []*ParseError
	opts := &Options{OnError: collectErrors(&errs)}
	if got := detect(t, "\uFEFF#\\#CIF_1.1\ndata_x\n", opts); got != Version1 {
		t.Errorf("version = %v, want Version1", got)
	}
	if len(errs) != 1 || errs[0].Code != ErrBOMNotAllowed {
		t.Errorf("errors = %v, want one ErrBOMNotAllowed", errs)
	}
}

func TestMagicIsAlsoAComment(t *testing.T) {
	// The magic code is consumed as an ordinary comment; the first real
	// token follows it.
	toks := scanAll(t, "#\\#CIF_2.0\ndata_x\n", nil)
	if len(toks) != 1 || toks[0].Kind != TokenBlockHead || toks[0].Literal != "x" {
		t.Errorf("tokens = %v", toks)
	}
}
