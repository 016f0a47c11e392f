package types

import (
	"testing"
	"time"
)

func TestFieldTypeNames(t *testing.T) {
	for ft, name := range fieldTypeNames {
		parsed, err := ParseFieldType(name)
		if err != nil {
			t.Errorf("ParseFieldType(%q): %v", name, err)
			continue
		}
		if parsed != ft {
			t.Errorf("ParseFieldType(%q) = %v, want %v", name, parsed, ft)
		}
	}

	if _, err := ParseFieldType("matrix"); err == nil {
		t.Error("expected error for unknown type")
	}
	if ft, err := ParseFieldType("Integer"); err != nil || ft != FieldInteger {
		t.Errorf("alias integer: got %v, %v", ft, err)
	}
}

func TestFieldTypeListRelations(t *testing.T) {
	if !FieldListDate.IsList() || FieldDate.IsList() {
		t.Error("IsList mismatch")
	}
	if FieldListFloat.Elem() != FieldFloat {
		t.Errorf("Elem of list_float = %v", FieldListFloat.Elem())
	}
	if FieldTime.ListOf() != FieldListTime {
		t.Errorf("ListOf time = %v", FieldTime.ListOf())
	}
	if !FieldListInteger.IsNumeric() || FieldString.IsNumeric() {
		t.Error("IsNumeric mismatch")
	}
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		name    string
		ft      FieldType
		in      any
		want    any
		wantErr bool
	}{
		{"string", FieldString, "RARE", "RARE", false},
		{"string rejects number", FieldString, 3.0, nil, true},
		{"int from json float", FieldInteger, float64(12), int64(12), false},
		{"int rejects fraction", FieldInteger, 1.5, nil, true},
		{"int from string", FieldInteger, "42", int64(42), false},
		{"float from int", FieldFloat, 3, float64(3), false},
		{"bool", FieldBoolean, true, true, false},
		{"bool from string", FieldBoolean, "false", false, false},
		{"date from string", FieldDate, "2024-01-15", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), false},
		{"list int", FieldListInteger, []any{float64(1), float64(2)}, []any{int64(1), int64(2)}, false},
		{"list from typed slice", FieldListString, []string{"a", "b"}, []any{"a", "b"}, false},
		{"list bad element", FieldListInteger, []any{"x"}, nil, true},
		{"nil", FieldString, nil, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.ft.Coerce(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !Equal(got, tt.want) {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestParseAndFormat(t *testing.T) {
	tests := []struct {
		ft   FieldType
		text string
		want string
	}{
		{FieldString, "P1", "P1"},
		{FieldInteger, "7", "7"},
		{FieldFloat, "2.5", "2.5"},
		{FieldBoolean, "true", "true"},
		{FieldDate, "2023-03-04", "2023-03-04"},
		{FieldDatetime, "2023-03-04T10:11:12Z", "2023-03-04T10:11:12Z"},
		{FieldDatetime, "2023-03-04 10:11:12", "2023-03-04T10:11:12Z"},
		{FieldTime, "10:11:12.5", "10:11:12.5"},
		{FieldListInteger, "[1, 2]", "[1, 2]"},
		{FieldListString, `["a", "b"]`, "[a, b]"},
		{FieldListFloat, "1.5,2", "[1.5, 2]"},
		{FieldListInteger, "[]", "[]"},
	}

	for _, tt := range tests {
		v, err := tt.ft.Parse(tt.text)
		if err != nil {
			t.Errorf("%s.Parse(%q): %v", tt.ft, tt.text, err)
			continue
		}
		if got := tt.ft.Format(v); got != tt.want {
			t.Errorf("%s round trip of %q = %q, want %q", tt.ft, tt.text, got, tt.want)
		}
	}
}

func TestFieldTypeText(t *testing.T) {
	text, err := FieldListDatetime.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	var ft FieldType
	if err := ft.UnmarshalText(text); err != nil {
		t.Fatal(err)
	}
	if ft != FieldListDatetime {
		t.Errorf("got %v", ft)
	}
	if _, err := FieldType(99).MarshalText(); err == nil {
		t.Error("expected error for invalid field type")
	}
}
