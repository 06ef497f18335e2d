package value

import (
	"math"
	"testing"
)

func approx(got, want float64) bool {
	if got == want {
		return true
	}
	scale := math.Max(math.Abs(got), math.Abs(want))
	return math.Abs(got-want) <= 1e-12*scale
}

func TestNumber(t *testing.T) {
	tests := []struct {
		in   string
		val  float64
		su   float64
		hasU bool
	}{
		{"0", 0, 0, false},
		{"42", 42, 0, false},
		{"-17", -17, 0, false},
		{"+3", 3, 0, false},
		{"4.9137", 4.9137, 0, false},
		{".5", 0.5, 0, false},
		{"5.", 5, 0, false},
		{"1.2e3", 1200, 0, false},
		{"1.2E-2", 0.012, 0, false},
		{"4.9137(4)", 4.9137, 0.0004, true},
		{"12(3)", 12, 3, true},
		{"1.5e2(3)", 150, 30, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			n, ok := String(tt.in).Number()
			if !ok {
				t.Fatalf("Number() failed for %q", tt.in)
			}
			if got, _ := n.Value.Float64(); !approx(got, tt.val) {
				t.Errorf("value = %g, want %g", got, tt.val)
			}
			if tt.hasU {
				if n.SU == nil {
					t.Fatal("SU = nil, want value")
				}
				if got, _ := n.SU.Float64(); !approx(got, tt.su) {
					t.Errorf("su = %g, want %g", got, tt.su)
				}
			} else if n.SU != nil {
				t.Errorf("SU = %v, want nil", n.SU)
			}
		})
	}
}

func TestNumberRejects(t *testing.T) {
	tests := []string{
		"", "abc", "1.2.3", "e5", "1e", "1e+", "(3)", "1.2(3", "1.2()",
		"1.2(a)", "--1", "1 2", ".",
	}
	for _, in := range tests {
		if _, ok := String(in).Number(); ok {
			t.Errorf("Number() accepted %q", in)
		}
	}

	// Quoted values are never numbers.
	if _, ok := Quoted("12", QuoteSingle).Number(); ok {
		t.Error("quoted value parsed as number")
	}
	if _, ok := Unknown.Number(); ok {
		t.Error("unknown placeholder parsed as number")
	}
}

func TestValueEqual(t *testing.T) {
	a := List([]Value{String("1"), NA})
	b := List([]Value{Quoted("1", QuoteDouble), NA})
	if !a.Equal(b) {
		t.Error("quote style should not affect equality")
	}
	if a.Equal(List([]Value{String("1")})) {
		t.Error("length mismatch reported equal")
	}

	ta := NewTable()
	ta.Set("k", String("v"))
	tb := NewTable()
	tb.Set("k", String("v"))
	if !FromTable(ta).Equal(FromTable(tb)) {
		t.Error("equal tables reported unequal")
	}
	tb2 := NewTable()
	tb2.Set("k", String("w"))
	if FromTable(ta).Equal(FromTable(tb2)) {
		t.Error("unequal tables reported equal")
	}
}

func TestTableOrder(t *testing.T) {
	tbl := NewTable()
	tbl.Set("b", String("1"))
	tbl.Set("a", String("2"))
	if !tbl.Set("c", String("3")) {
		t.Error("Set returned false for a fresh key")
	}
	if tbl.Set("a", String("x")) {
		t.Error("Set returned true for a duplicate key")
	}
	keys := tbl.Keys()
	want := []string{"b", "a", "c"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys = %v, want %v", keys, want)
		}
	}
	if v, _ := tbl.Get("a"); v.Text() != "2" {
		t.Errorf("a = %q, want %q (first entry wins)", v.Text(), "2")
	}
}
