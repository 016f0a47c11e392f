package counttable_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/arthur-debert/scanstore/scanstore/counttable"
	"github.com/arthur-debert/scanstore/scanstore/testutil"
	"github.com/arthur-debert/scanstore/types"
)

var scenarioTags = []string{"PatientName", "TimePoint", "SequenceName"}

// recordingStore records every filter expression and can fail on demand
type recordingStore struct {
	counttable.Store
	exprs  []string
	failAt int
}

var errUnavailable = errors.New("store unavailable")

func (r *recordingStore) FilterDocuments(collection, expression string) ([]types.Scan, error) {
	r.exprs = append(r.exprs, expression)
	if r.failAt > 0 && len(r.exprs) == r.failAt {
		return nil, errUnavailable
	}
	return r.Store.FilterDocuments(collection, expression)
}

func build(t *testing.T, st counttable.Store, tags []string, opts ...counttable.Option) *counttable.Grid {
	t.Helper()
	grid, err := counttable.NewBuilder(st, opts...).Build(context.Background(), tags)
	if err != nil {
		t.Fatalf("Build(%v): %v", tags, err)
	}
	return grid
}

func cell(t *testing.T, g *counttable.Grid, row, col int) counttable.Cell {
	t.Helper()
	c, err := g.Cell(row, col)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func totals(t *testing.T, g *counttable.Grid) []int {
	t.Helper()
	out := make([]int, g.ColCount())
	for col := range out {
		n, err := g.Total(col)
		if err != nil {
			t.Fatal(err)
		}
		out[col] = n
	}
	return out
}

func headers(t *testing.T, g *counttable.Grid) []string {
	t.Helper()
	out := make([]string, g.ColCount())
	for col := range out {
		h, err := g.ColumnHeader(col)
		if err != nil {
			t.Fatal(err)
		}
		out[col] = h
	}
	return out
}

func rowText(t *testing.T, g *counttable.Grid, row int) []string {
	t.Helper()
	labels, err := g.RowLabels(row)
	if err != nil {
		t.Fatal(err)
	}
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = l.Text
	}
	return out
}

func TestFullUniverse(t *testing.T) {
	st, _ := testutil.LoadUniverse(t)
	g := build(t, st, scenarioTags)

	if g.RowCount() != 6 || g.ColCount() != 5 {
		t.Fatalf("shape = %dx%d, want 6x5", g.RowCount(), g.ColCount())
	}
	if diff := cmp.Diff([]string{"PatientName", "TimePoint", "RARE", "MDEFT", "FLASH"}, headers(t, g)); diff != "" {
		t.Errorf("headers (-want +got):\n%s", diff)
	}

	wantRows := [][]string{
		{"P1", "T1"}, {"P1", "T2"}, {"P1", "T3"},
		{"P2", "T1"}, {"P2", "T2"}, {"P2", "T3"},
	}
	for row, want := range wantRows {
		if diff := cmp.Diff(want, rowText(t, g, row)); diff != "" {
			t.Errorf("row %d labels (-want +got):\n%s", row, diff)
		}
		for col, count := range map[int]int{2: 2, 3: 1, 4: 1} {
			c := cell(t, g, row, col)
			if c.Count != count || c.Absent || !c.Computed || len(c.Scans) != count {
				t.Errorf("cell(%d,%d) = %+v, want count %d", row, col, c, count)
			}
		}
	}

	if diff := cmp.Diff([]int{2, 3, 12, 6, 6}, totals(t, g)); diff != "" {
		t.Errorf("totals (-want +got):\n%s", diff)
	}

	c := cell(t, g, 4, 3)
	if diff := cmp.Diff([]string{"P2/T2/mdeft.nii"}, c.Scans); diff != "" {
		t.Errorf("scans of (P2,T2,MDEFT) (-want +got):\n%s", diff)
	}
}

func TestMissingScanLowersCount(t *testing.T) {
	st, _ := testutil.LoadUniverse(t, testutil.Without("P1/T2/rare_2.nii"))
	g := build(t, st, scenarioTags)

	c := cell(t, g, 1, 2)
	if c.Count != 1 || c.Absent {
		t.Errorf("cell(P1,T2,RARE) = %+v", c)
	}
	if n, _ := g.Total(2); n != 11 {
		t.Errorf("RARE total = %d, want 11", n)
	}
}

func TestMissingScanIsAbsent(t *testing.T) {
	st, _ := testutil.LoadUniverse(t, testutil.Without("P2/T3/flash.nii"))
	g := build(t, st, scenarioTags)

	c := cell(t, g, 5, 4)
	if c.Count != 0 || !c.Absent || !c.Computed || c.Scans != nil {
		t.Errorf("cell(P2,T3,FLASH) = %+v, want absent", c)
	}
	if n, _ := g.Total(4); n != 5 {
		t.Errorf("FLASH total = %d, want 5", n)
	}
}

func TestSingleTagIsNothingToDo(t *testing.T) {
	st, _ := testutil.LoadUniverse(t)
	rec := &recordingStore{Store: st}
	for _, sel := range [][]string{nil, {"PatientName"}} {
		g, err := counttable.NewBuilder(rec).Build(context.Background(), sel)
		if !errors.Is(err, counttable.ErrNothingToDo) || g != nil {
			t.Errorf("Build(%v) = %v, %v", sel, g, err)
		}
	}
	if len(rec.exprs) != 0 {
		t.Errorf("issued %d queries", len(rec.exprs))
	}
}

func TestRemovedTagAbortsBuild(t *testing.T) {
	st, _ := testutil.LoadUniverse(t)
	if err := st.RemoveTag("TimePoint"); err != nil {
		t.Fatal(err)
	}
	for _, sel := range [][]string{scenarioTags, {"SequenceName", "TimePoint"}} {
		g, err := counttable.NewBuilder(st).Build(context.Background(), sel)
		if !errors.Is(err, types.ErrTagNotFound) || g != nil {
			t.Errorf("Build(%v) = %v, %v; want ErrTagNotFound", sel, g, err)
		}
	}
}

func TestCellsMatchDirectCount(t *testing.T) {
	st, u := testutil.LoadUniverse(t,
		testutil.Without("P1/T1/mdeft.nii", "P2/T2/rare_1.nii"),
		testutil.WithEdit(func(path string, values map[string]any) {
			if path == "P1/T3/flash.nii" {
				delete(values, "TimePoint")
			}
		}))

	selections := [][]string{
		scenarioTags,
		{"SequenceName", "PatientName"},
		{"PatientName", "Bricks"},
		{"AcquisitionDate", "FlipAngle"},
		{"TimePoint", "SequenceName", "PatientName"},
	}
	for _, sel := range selections {
		t.Run(strings.Join(sel, "/"), func(t *testing.T) {
			g := build(t, st, sel)
			vs := g.ValueSets()

			rows := 1
			for _, v := range vs[:len(vs)-1] {
				rows *= v.Len()
			}
			if g.RowCount() != rows {
				t.Fatalf("RowCount = %d, want %d", g.RowCount(), rows)
			}

			lead := g.LeadingCount()
			sums := make([]int, g.ColCount())
			for row := 0; row < g.RowCount(); row++ {
				labels, _ := g.RowLabels(row)
				for col := lead; col < g.ColCount(); col++ {
					pairs := map[string]any{sel[len(sel)-1]: vs[len(vs)-1].Values[col-lead]}
					for _, l := range labels {
						pairs[l.Tag] = l.Value
					}
					c := cell(t, g, row, col)
					if want := u.Count(pairs); c.Count != want || c.Absent != (want == 0) {
						t.Errorf("cell(%d,%d) %v = %d, want %d", row, col, pairs, c.Count, want)
					}
					sums[col] += c.Count
				}
			}
			for col := 0; col < g.ColCount(); col++ {
				want := sums[col]
				if col < lead {
					want = vs[col].Len()
				}
				if got, _ := g.Total(col); got != want {
					t.Errorf("Total(%d) = %d, want %d", col, got, want)
				}
			}
		})
	}
}

func TestRowsCoverCrossProduct(t *testing.T) {
	st, _ := testutil.LoadUniverse(t)
	g := build(t, st, []string{"PatientName", "SequenceName", "TimePoint", "Bricks"})

	seen := make(map[string]bool)
	for row := 0; row < g.RowCount(); row++ {
		key := strings.Join(rowText(t, g, row), "|")
		if seen[key] {
			t.Errorf("duplicate row %s", key)
		}
		seen[key] = true
	}
	if len(seen) != 2*3*3 {
		t.Errorf("got %d distinct rows, want 18", len(seen))
	}
	if diff := cmp.Diff([]string{"P1", "RARE", "T2"}, rowText(t, g, 1)); diff != "" {
		t.Errorf("last leading tag must vary fastest (-want +got):\n%s", diff)
	}
}

func TestEmptyValueSets(t *testing.T) {
	st, _ := testutil.LoadUniverse(t)

	g := build(t, st, []string{"Comment", "PatientName"})
	if g.RowCount() != 0 || g.ColCount() != 3 {
		t.Errorf("empty leading tag: %dx%d", g.RowCount(), g.ColCount())
	}
	if diff := cmp.Diff([]int{0, 0, 0}, totals(t, g)); diff != "" {
		t.Errorf("totals (-want +got):\n%s", diff)
	}

	g = build(t, st, []string{"PatientName", "Comment"})
	if g.RowCount() != 2 || g.ColCount() != 1 {
		t.Errorf("empty last tag: %dx%d", g.RowCount(), g.ColCount())
	}
}

func TestQueriesArePerCellInRowMajorOrder(t *testing.T) {
	st, _ := testutil.LoadUniverse(t)
	rec := &recordingStore{Store: st}
	build(t, rec, scenarioTags)

	if len(rec.exprs) != 6*3 {
		t.Fatalf("issued %d queries, want 18", len(rec.exprs))
	}
	want := []string{
		`(({PatientName} == "P1") AND ({TimePoint} == "T1") AND ({SequenceName} == "RARE"))`,
		`(({PatientName} == "P1") AND ({TimePoint} == "T1") AND ({SequenceName} == "MDEFT"))`,
		`(({PatientName} == "P1") AND ({TimePoint} == "T1") AND ({SequenceName} == "FLASH"))`,
		`(({PatientName} == "P1") AND ({TimePoint} == "T2") AND ({SequenceName} == "RARE"))`,
	}
	if diff := cmp.Diff(want, rec.exprs[:4]); diff != "" {
		t.Errorf("query order (-want +got):\n%s", diff)
	}
}

func TestRowBatchingBuildsTheSameGrid(t *testing.T) {
	st, _ := testutil.LoadUniverse(t, testutil.Without("P2/T3/flash.nii"))
	for _, sel := range [][]string{scenarioTags, {"PatientName", "Bricks"}, {"AcquisitionDate", "FlipAngle"}} {
		perCell := build(t, st, sel)
		rec := &recordingStore{Store: st}
		batched := build(t, rec, sel, counttable.WithRowBatching())

		if len(rec.exprs) != batched.RowCount() {
			t.Errorf("%v: batching issued %d queries for %d rows", sel, len(rec.exprs), batched.RowCount())
		}
		compareGrids(t, perCell, batched)
	}
}

func TestBuildIsRepeatable(t *testing.T) {
	st, _ := testutil.LoadUniverse(t)
	compareGrids(t, build(t, st, scenarioTags), build(t, st, scenarioTags))
}

func compareGrids(t *testing.T, a, b *counttable.Grid) {
	t.Helper()
	if a.RowCount() != b.RowCount() || a.ColCount() != b.ColCount() {
		t.Fatalf("shapes differ: %dx%d vs %dx%d", a.RowCount(), a.ColCount(), b.RowCount(), b.ColCount())
	}
	if diff := cmp.Diff(headers(t, a), headers(t, b)); diff != "" {
		t.Errorf("headers differ:\n%s", diff)
	}
	if diff := cmp.Diff(totals(t, a), totals(t, b)); diff != "" {
		t.Errorf("totals differ:\n%s", diff)
	}
	for row := 0; row < a.RowCount(); row++ {
		if diff := cmp.Diff(rowText(t, a, row), rowText(t, b, row)); diff != "" {
			t.Errorf("row %d labels differ:\n%s", row, diff)
		}
		for col := 0; col < a.ColCount(); col++ {
			if diff := cmp.Diff(cell(t, a, row, col), cell(t, b, row, col)); diff != "" {
				t.Errorf("cell(%d,%d) differs:\n%s", row, col, diff)
			}
		}
	}
}

func TestQueryFailureReturnsNoGrid(t *testing.T) {
	st, _ := testutil.LoadUniverse(t)
	rec := &recordingStore{Store: st, failAt: 7}

	g, err := counttable.NewBuilder(rec).Build(context.Background(), scenarioTags)
	if !errors.Is(err, errUnavailable) || g != nil {
		t.Fatalf("Build = %v, %v", g, err)
	}
	if len(rec.exprs) != 7 {
		t.Errorf("kept querying after failure: %d queries", len(rec.exprs))
	}
}

func TestCancelledContext(t *testing.T) {
	st, _ := testutil.LoadUniverse(t)
	rec := &recordingStore{Store: st}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g, err := counttable.NewBuilder(rec).Build(ctx, scenarioTags)
	if !errors.Is(err, context.Canceled) || g != nil {
		t.Errorf("Build = %v, %v", g, err)
	}
	if len(rec.exprs) != 0 {
		t.Errorf("issued %d queries after cancellation", len(rec.exprs))
	}
}

func TestGridAccessors(t *testing.T) {
	st, _ := testutil.LoadUniverse(t)
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	g := build(t, st, scenarioTags, counttable.WithLogger(logger))

	if g.Revision == "" {
		t.Error("grid did not record the store revision")
	}
	if !strings.Contains(buf.String(), "count table built") {
		t.Errorf("missing build log: %s", buf.String())
	}

	if c := cell(t, g, 0, 0); c.Computed {
		t.Error("label column cell reported as computed")
	}
	if _, err := g.Cell(6, 2); !errors.Is(err, counttable.ErrOutOfRange) {
		t.Errorf("Cell(6,2): %v", err)
	}
	if _, err := g.Cell(0, 5); !errors.Is(err, counttable.ErrOutOfRange) {
		t.Errorf("Cell(0,5): %v", err)
	}
	if _, err := g.RowLabels(-1); !errors.Is(err, counttable.ErrOutOfRange) {
		t.Errorf("RowLabels(-1): %v", err)
	}
	if _, err := g.ColumnHeader(5); !errors.Is(err, counttable.ErrOutOfRange) {
		t.Errorf("ColumnHeader(5): %v", err)
	}
	if _, err := g.Total(-1); !errors.Is(err, counttable.ErrOutOfRange) {
		t.Errorf("Total(-1): %v", err)
	}

	c := cell(t, g, 0, 2)
	c.Scans[0] = "mutated"
	if again := cell(t, g, 0, 2); again.Scans[0] == "mutated" {
		t.Error("Cell exposes internal scan slice")
	}
}
