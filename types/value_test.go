package types

import (
	"testing"
	"time"
)

func TestEqual(t *testing.T) {
	day := time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		a, b any
		want bool
	}{
		{"RARE", "RARE", true},
		{"RARE", "FLASH", false},
		{int64(3), float64(3), true},
		{int64(3), "3", false},
		{[]any{int64(1), int64(2)}, []any{int64(1), int64(2)}, true},
		{[]any{int64(1), int64(2)}, []any{int64(2), int64(1)}, false},
		{[]any{int64(1)}, []any{int64(1), int64(1)}, false},
		{day, day.In(time.FixedZone("x", 3600)), true},
		{true, true, true},
		{nil, nil, true},
		{nil, "x", false},
	}
	for _, tt := range tests {
		if got := Equal(tt.a, tt.b); got != tt.want {
			t.Errorf("Equal(%#v, %#v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b   any
		want   int
		wantOK bool
	}{
		{int64(1), int64(2), -1, true},
		{float64(2.5), int64(2), 1, true},
		{"b", "a", 1, true},
		{false, true, -1, true},
		{[]any{int64(1), int64(2)}, []any{int64(1)}, 1, true},
		{"a", int64(1), 0, false},
	}
	for _, tt := range tests {
		got, ok := Compare(tt.a, tt.b)
		if ok != tt.wantOK || (ok && got != tt.want) {
			t.Errorf("Compare(%#v, %#v) = %d,%v want %d,%v", tt.a, tt.b, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestContains(t *testing.T) {
	if !Contains([]any{int64(1), int64(2)}, int64(2)) {
		t.Error("list should contain 2")
	}
	if Contains([]any{int64(1)}, int64(3)) {
		t.Error("list should not contain 3")
	}
	if !Contains("T1_RARE", "RARE") {
		t.Error("substring match failed")
	}
}

func TestScanValue(t *testing.T) {
	s := Scan{Path: "a.nii", Values: map[string]any{"PatientName": "P1", "Empty": nil}}
	if v, ok := s.Value("PatientName"); !ok || v != "P1" {
		t.Errorf("got %v, %v", v, ok)
	}
	if _, ok := s.Value("Empty"); ok {
		t.Error("nil value must read as not defined")
	}
	if _, ok := s.Value("Missing"); ok {
		t.Error("missing value must read as not defined")
	}

	c := s.Clone()
	c.Values["PatientName"] = "P2"
	if s.Values["PatientName"] != "P1" {
		t.Error("clone shares its values map")
	}
}

func TestParseConfig(t *testing.T) {
	data := []byte(`
tags:
  - name: PatientName
    field_type: string
  - name: Bricks
    field_type: list_int
    origin: builtin
    hidden: true
`)
	cfg, err := ParseConfig(data)
	if err != nil {
		t.Fatal(err)
	}
	ts := cfg.GetTagSet()
	if ts.Count() != 2 {
		t.Fatalf("expected 2 tags, got %d", ts.Count())
	}
	bricks, err := ts.Lookup("Bricks")
	if err != nil {
		t.Fatal(err)
	}
	if bricks.Type != FieldListInteger || bricks.Origin != OriginBuiltin || !bricks.Hidden {
		t.Errorf("unexpected tag: %+v", bricks)
	}
	name, _ := ts.Get("PatientName")
	if name.Origin != OriginUser {
		t.Errorf("default origin = %q", name.Origin)
	}
	if len(ts.Visible()) != 1 {
		t.Errorf("expected 1 visible tag")
	}
	if _, err := ts.Lookup("Nope"); err == nil {
		t.Error("expected ErrTagNotFound")
	}
}
