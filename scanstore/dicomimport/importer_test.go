package dicomimport

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/arthur-debert/scanstore/scanstore/store"
	"github.com/arthur-debert/scanstore/types"
)

func dataset(t *testing.T, elems map[tag.Tag]any) dicom.Dataset {
	t.Helper()
	var ds dicom.Dataset
	for tg, v := range elems {
		el, err := dicom.NewElement(tg, v)
		if err != nil {
			t.Fatalf("NewElement(%v): %v", tg, err)
		}
		ds.Elements = append(ds.Elements, el)
	}
	return ds
}

func rareHeader(t *testing.T, patient string) dicom.Dataset {
	return dataset(t, map[tag.Tag]any{
		tag.PatientName:     []string{patient},
		tag.StudyDate:       []string{"20240110"},
		tag.SeriesNumber:    []string{" 3"},
		tag.SequenceName:    []string{"RARE "},
		tag.AcquisitionTime: []string{"101112.5"},
		tag.FlipAngle:       []string{"7.5"},
		tag.ImageType:       []string{"ORIGINAL", "PRIMARY"},
	})
}

func TestValues(t *testing.T) {
	values, skipped := Values(rareHeader(t, "P1"), DefaultElements, nil)
	if len(skipped) != 0 {
		t.Errorf("unexpected skipped: %v", skipped)
	}

	want := map[string]any{
		"PatientName":     "P1",
		"StudyDate":       time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		"SeriesNumber":    int64(3),
		"SequenceName":    "RARE",
		"AcquisitionTime": time.Date(0, 1, 1, 10, 11, 12, 500000000, time.UTC),
		"FlipAngle":       7.5,
		"ImageType":       []any{"ORIGINAL", "PRIMARY"},
	}
	if len(values) != len(want) {
		t.Errorf("got %d values, want %d: %v", len(values), len(want), values)
	}
	for name, w := range want {
		if got, ok := values[name]; !ok || !types.Equal(got, w) {
			t.Errorf("%s = %#v, want %#v", name, got, w)
		}
	}
}

func TestValuesUsesSchemaType(t *testing.T) {
	schema := types.NewTagSet([]types.Tag{{Name: "SeriesNumber", Type: types.FieldString}})
	values, _ := Values(rareHeader(t, "P1"), DefaultElements, schema)
	if values["SeriesNumber"] != "3" {
		t.Errorf("SeriesNumber = %#v, want string 3", values["SeriesNumber"])
	}
}

func TestValuesReportsBadElements(t *testing.T) {
	ds := dataset(t, map[tag.Tag]any{
		tag.StudyDate:    []string{"last week"},
		tag.SeriesNumber: []string{""},
	})
	values, skipped := Values(ds, DefaultElements, nil)
	if len(values) != 0 {
		t.Errorf("values = %v", values)
	}
	if len(skipped) != 1 {
		t.Errorf("skipped = %v, want only StudyDate", skipped)
	}
}

func TestValuesFromIntegerElements(t *testing.T) {
	elements := []Element{{DICOM: tag.Rows, Name: "Rows", Type: types.FieldInteger}}
	values, _ := Values(dataset(t, map[tag.Tag]any{tag.Rows: []int{256}}), elements, nil)
	if values["Rows"] != int64(256) {
		t.Errorf("Rows = %#v", values["Rows"])
	}
}

func TestParseTemporal(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string) (time.Time, error)
		in   string
		want time.Time
	}{
		{"DA", parseDA, "20240110", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)},
		{"DA legacy", parseDA, "2024.01.10", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)},
		{"TM", parseTM, "0930", time.Date(0, 1, 1, 9, 30, 0, 0, time.UTC)},
		{"TM colons", parseTM, "09:30:15", time.Date(0, 1, 1, 9, 30, 15, 0, time.UTC)},
		{"DT", parseDT, "20240110093015", time.Date(2024, 1, 10, 9, 30, 15, 0, time.UTC)},
		{"DT date only", parseDT, "20240110", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := parseTM("1234567"); err == nil {
		t.Error("expected error for overlong TM")
	}
	if _, err := parseDT("2024"); err == nil {
		t.Error("expected error for short DT")
	}
}

func TestImport(t *testing.T) {
	root := t.TempDir()
	headers := map[string]dicom.Dataset{
		"P1/T1/rare.dcm": rareHeader(t, "P1"),
		"P2/T1/rare.dcm": rareHeader(t, "P2"),
	}
	for _, rel := range []string{"P1/T1/rare.dcm", "P2/T1/rare.dcm", "P1/notes.txt"} {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	parse := func(path string) (dicom.Dataset, error) {
		rel, _ := filepath.Rel(root, path)
		if ds, ok := headers[filepath.ToSlash(rel)]; ok {
			return ds, nil
		}
		return dicom.Dataset{}, errors.New("missing DICM magic word")
	}

	st, err := store.New(filepath.Join(t.TempDir(), "scans.json"),
		store.WithSchema([]types.Tag{{Name: "Bricks", Type: types.FieldListInteger, Origin: types.OriginUser}}))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	im := New(st, WithParser(parse))
	res, err := im.Import(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(res.Added)
	if diff := cmp.Diff([]string{"P1/T1/rare.dcm", "P2/T1/rare.dcm"}, res.Added); diff != "" {
		t.Errorf("added (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"P1/notes.txt"}, res.NotDICOM); diff != "" {
		t.Errorf("not dicom (-want +got):\n%s", diff)
	}

	seq, err := st.GetFieldAttributes(types.CollectionCurrent, "SequenceName")
	if err != nil || seq.Origin != types.OriginBuiltin {
		t.Errorf("SequenceName tag = %+v, %v", seq, err)
	}
	if got := len(st.Tags()); got != len(DefaultElements)+1 {
		t.Errorf("schema has %d tags, want %d", got, len(DefaultElements)+1)
	}

	v, ok, err := st.GetValue(types.CollectionInitial, "P2/T1/rare.dcm", "PatientName")
	if err != nil || !ok || v != "P2" {
		t.Errorf("initial PatientName = %v, %v, %v", v, ok, err)
	}

	again, err := im.Import(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	if len(again.Added) != 0 || len(again.Existing) != 2 {
		t.Errorf("second import = %+v", again)
	}
}

func TestImportCancelled(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "scans.json"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.dcm"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = New(st).Import(ctx, root)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestImportAddsInWalkOrder(t *testing.T) {
	root := t.TempDir()
	rels := []string{"a/1.dcm", "a/2.dcm", "b/1.dcm", "b/2.dcm", "c/1.dcm"}
	for _, rel := range rels {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	hdr := rareHeader(t, "P1")

	for _, workers := range []int{1, 4} {
		var parsed atomic.Int32
		parse := func(string) (dicom.Dataset, error) {
			parsed.Add(1)
			return hdr, nil
		}
		st, err := store.New(filepath.Join(t.TempDir(), "scans.json"))
		if err != nil {
			t.Fatal(err)
		}
		res, err := New(st, WithParser(parse), WithWorkers(workers)).Import(context.Background(), root)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(rels, res.Added); diff != "" {
			t.Errorf("workers=%d: added (-want +got):\n%s", workers, diff)
		}
		names, _ := st.DocumentNames(types.CollectionCurrent)
		if diff := cmp.Diff(rels, names); diff != "" {
			t.Errorf("workers=%d: documents (-want +got):\n%s", workers, diff)
		}
		if int(parsed.Load()) != len(rels) {
			t.Errorf("workers=%d: parsed %d files", workers, parsed.Load())
		}
		st.Close()
	}
}
