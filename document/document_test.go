package document

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/dhamidi/cif/parser"
	"github.com/dhamidi/cif/value"
)

func TestParseStringBuildsDocument(t *testing.T) {
	input := `data_quartz
_cell_length_a 4.9137
_cell_length_c 5.4047
loop_
_atom_site_label
_atom_site_fract_x
Si 0.4697
O  0.4135
save_details
_note 'low quartz'
save_
`
	doc, err := ParseString(input, nil)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}

	b := doc.Block("quartz")
	if b == nil {
		t.Fatal("block quartz not found")
	}
	if b.IsFrame() {
		t.Error("top-level block reported as frame")
	}

	if v, ok := b.Item("_cell_length_a"); !ok || v.Text() != "4.9137" {
		t.Errorf("_cell_length_a = %v %v", v, ok)
	}
	// Lookup is case-insensitive.
	if v, ok := b.Item("_Cell_Length_C"); !ok || v.Text() != "5.4047" {
		t.Errorf("_Cell_Length_C = %v %v", v, ok)
	}

	loops := b.Loops()
	if len(loops) != 1 {
		t.Fatalf("loops = %d, want 1", len(loops))
	}
	l := loops[0]
	if l.Len() != 2 {
		t.Fatalf("packets = %d, want 2", l.Len())
	}
	pkt := l.Packet(1)
	if v, ok := pkt.Get("_atom_site_label"); !ok || v.Text() != "O" {
		t.Errorf("label = %v %v", v, ok)
	}
	if v, ok := pkt.Get("_atom_site_fract_x"); !ok || v.Text() != "0.4135" {
		t.Errorf("fract_x = %v %v", v, ok)
	}

	frames := b.Frames()
	if len(frames) != 1 || frames[0].Code() != "details" {
		t.Fatalf("frames = %v", frames)
	}
	f := frames[0]
	if !f.IsFrame() || f.Parent() != b {
		t.Error("frame parentage wrong")
	}
	if v, ok := f.Item("_note"); !ok || v.Text() != "low quartz" {
		t.Errorf("_note = %v %v", v, ok)
	}
}

func TestDocumentDuplicates(t *testing.T) {
	doc := New()
	if _, err := doc.AddBlock("a"); err != nil {
		t.Fatalf("AddBlock: %v", err)
	}
	if _, err := doc.AddBlock("A"); !errors.Is(err, parser.ErrDuplicate) {
		t.Errorf("AddBlock dup = %v, want ErrDuplicate", err)
	}

	b := doc.Block("A")
	if b == nil {
		t.Fatal("lookup failed")
	}
	if err := b.SetItem("_x", value.String("1")); err != nil {
		t.Fatalf("SetItem: %v", err)
	}
	if err := b.SetItem("_X", value.String("2")); !errors.Is(err, parser.ErrDuplicate) {
		t.Errorf("SetItem dup = %v, want ErrDuplicate", err)
	}

	// A loop may not re-declare a name held by a scalar item.
	if _, err := b.AddLoop("", []string{"_X", "_y"}); !errors.Is(err, parser.ErrDuplicate) {
		t.Errorf("AddLoop dup = %v, want ErrDuplicate", err)
	}
	if _, err := b.AddLoop("", []string{"_y", "_z"}); err != nil {
		t.Errorf("AddLoop = %v", err)
	}

	if _, err := b.AddFrame("f"); err != nil {
		t.Fatalf("AddFrame: %v", err)
	}
	if _, err := b.AddFrame("F"); !errors.Is(err, parser.ErrDuplicate) {
		t.Errorf("AddFrame dup = %v, want ErrDuplicate", err)
	}
}

func TestScalarLoop(t *testing.T) {
	doc, err := ParseString("data_a\n_x 1\n_y 2\n", nil)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	b := doc.Block("a")
	l := b.ScalarLoop()
	if l == nil {
		t.Fatal("scalar loop missing")
	}
	if l.Len() != 1 {
		t.Fatalf("packets = %d, want 1", l.Len())
	}
	names := b.ItemNames()
	if len(names) != 2 || names[0] != "_x" || names[1] != "_y" {
		t.Errorf("names = %v", names)
	}
}

func TestParseStringLenient(t *testing.T) {
	input := "data_a\nloop_\n_x\n_y\n1 2 3\n"
	doc, err := ParseString(input, &parser.Options{OnError: parser.Silent})
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	l := doc.Block("a").Loops()[0]
	if l.Len() != 2 {
		t.Fatalf("packets = %d, want 2", l.Len())
	}
	if v, _ := l.Packet(1).Get("_y"); !v.IsUnknown() {
		t.Errorf("padded value = %v, want unknown", v)
	}
}

func TestMarshalJSON(t *testing.T) {
	input := "#\\#CIF_2.0\ndata_a\n_s 'hi'\n_n .\n_l [1 2]\nloop_\n_x\n3\n"
	doc, err := ParseString(input, nil)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	out := string(data)
	for _, want := range []string{
		`"code":"a"`,
		`"name":"_s"`,
		`"kind":"string"`,
		`"text":"hi"`,
		`"kind":"na"`,
		`"kind":"list"`,
		`"names":["_x"]`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("json missing %s in %s", want, out)
		}
	}
}

func TestMarshalJSONTableOrder(t *testing.T) {
	input := "#\\#CIF_2.0\ndata_a\n_t {'z':1 'a':2 'm':3}\n"
	doc, err := ParseString(input, nil)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	out := string(data)
	z := strings.Index(out, `"key":"z"`)
	a := strings.Index(out, `"key":"a"`)
	m := strings.Index(out, `"key":"m"`)
	if z < 0 || a < 0 || m < 0 {
		t.Fatalf("keys missing in %s", out)
	}
	if !(z < a && a < m) {
		t.Errorf("keys out of insertion order in %s", out)
	}
}
