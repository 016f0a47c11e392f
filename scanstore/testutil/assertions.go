package testutil

import (
	"testing"

	"github.com/arthur-debert/scanstore/types"
)

// AssertPaths checks that scans have exactly the expected paths, in order
func AssertPaths(t *testing.T, scans []types.Scan, expected ...string) {
	t.Helper()
	if len(scans) != len(expected) {
		got := make([]string, len(scans))
		for i, s := range scans {
			got[i] = s.Path
		}
		t.Fatalf("expected %d scans %v, got %d %v", len(expected), expected, len(scans), got)
	}
	for i, s := range scans {
		if s.Path != expected[i] {
			t.Errorf("scan %d: expected %s, got %s", i, expected[i], s.Path)
		}
	}
}

// AssertValue checks one current value of one scan
func AssertValue(t *testing.T, s interface {
	GetValue(collection, path, tag string) (any, bool, error)
}, path, tag string, expected any) {
	t.Helper()
	got, defined, err := s.GetValue(types.CollectionCurrent, path, tag)
	if err != nil {
		t.Fatalf("GetValue(%s, %s): %v", path, tag, err)
	}
	if expected == nil {
		if defined {
			t.Errorf("%s %s: expected not defined, got %#v", path, tag, got)
		}
		return
	}
	if !defined || !types.Equal(got, expected) {
		t.Errorf("%s %s: expected %#v, got %#v (defined=%v)", path, tag, expected, got, defined)
	}
}
