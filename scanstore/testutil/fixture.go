// Package testutil provides the scan universe shared by package tests.
//
// The universe has two patients (P1, P2), three time points (T1-T3) and four
// scans per session: two RARE, one MDEFT, one FLASH. One extra scan,
// unsorted/localizer.nii, is a RARE scan with no PatientName or TimePoint.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/arthur-debert/scanstore/scanstore/store"
	"github.com/arthur-debert/scanstore/types"
)

// Orphan is the universe scan without patient or time point
const Orphan = "unsorted/localizer.nii"

// UniverseData gives typed access to the loaded fixture
type UniverseData struct {
	Tags  []types.Tag
	Scans []types.Scan

	// StorePath is the JSON file backing the store
	StorePath string

	ByPath map[string]types.Scan
}

type fixtureData struct {
	Tags  []types.Tag `json:"tags"`
	Scans []struct {
		Path   string         `json:"path"`
		Values map[string]any `json:"values"`
	} `json:"scans"`
}

type fixtureConfig struct {
	without map[string]bool
	edit    func(path string, values map[string]any)
}

// FixtureOption alters the universe before it is loaded
type FixtureOption func(*fixtureConfig)

// Without leaves the given scans out of the universe
func Without(paths ...string) FixtureOption {
	return func(c *fixtureConfig) {
		for _, p := range paths {
			c.without[p] = true
		}
	}
}

// WithEdit lets a test change scan values before they are added
func WithEdit(fn func(path string, values map[string]any)) FixtureOption {
	return func(c *fixtureConfig) {
		c.edit = fn
	}
}

// LoadUniverse creates a JSON store in a temp dir populated with the universe
func LoadUniverse(t *testing.T, opts ...FixtureOption) (store.Store, *UniverseData) {
	t.Helper()

	cfg := &fixtureConfig{without: make(map[string]bool)}
	for _, opt := range opts {
		opt(cfg)
	}

	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("failed to get runtime caller info")
	}
	raw, err := os.ReadFile(filepath.Join(filepath.Dir(filename), "testdata", "universe.json"))
	if err != nil {
		t.Fatalf("failed to read fixture: %v", err)
	}
	var data fixtureData
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("failed to parse fixture: %v", err)
	}

	u := &UniverseData{
		Tags:      data.Tags,
		StorePath: filepath.Join(t.TempDir(), "scans.json"),
		ByPath:    make(map[string]types.Scan),
	}

	st, err := store.New(u.StorePath, store.WithSchema(data.Tags))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	for _, s := range data.Scans {
		if cfg.without[s.Path] {
			continue
		}
		if cfg.edit != nil {
			cfg.edit(s.Path, s.Values)
		}
		if err := st.AddScan(types.Scan{Path: s.Path, Values: s.Values}); err != nil {
			t.Fatalf("failed to add %s: %v", s.Path, err)
		}
		scan, err := st.GetScan(types.CollectionCurrent, s.Path)
		if err != nil {
			t.Fatal(err)
		}
		u.Scans = append(u.Scans, scan)
		u.ByPath[s.Path] = scan
	}
	return st, u
}

// Count returns how many universe scans carry every (tag, value) pair, by
// direct comparison rather than through a filter expression
func (u *UniverseData) Count(pairs map[string]any) int {
	n := 0
	for _, s := range u.Scans {
		if matchesAll(s, pairs) {
			n++
		}
	}
	return n
}

func matchesAll(s types.Scan, pairs map[string]any) bool {
	for tag, want := range pairs {
		got, ok := s.Value(tag)
		if !ok || !types.Equal(got, want) {
			return false
		}
	}
	return true
}
