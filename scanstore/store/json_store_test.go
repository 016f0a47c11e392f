package store

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/arthur-debert/scanstore/scanstore/storage"
	"github.com/arthur-debert/scanstore/types"
)

func testTags() []types.Tag {
	return []types.Tag{
		{Name: "PatientName", Type: types.FieldString, Origin: types.OriginBuiltin},
		{Name: "TimePoint", Type: types.FieldString, Origin: types.OriginUser},
		{Name: "SeriesNumber", Type: types.FieldInteger, Origin: types.OriginBuiltin},
		{Name: "AcquisitionDate", Type: types.FieldDate, Origin: types.OriginBuiltin},
		{Name: "Bricks", Type: types.FieldListInteger, Origin: types.OriginUser},
	}
}

func fixedClock() func() time.Time {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func openMem(t *testing.T, fs *memFS) Store {
	t.Helper()
	s, err := New("scans.json", WithFileSystem(fs), WithFileLockFactory(&memLockFactory{}),
		WithSchema(testTags()), WithTimeFunc(fixedClock()))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func addScans(t *testing.T, s Store) {
	t.Helper()
	scans := []types.Scan{
		{Path: "P1/T1/rare.nii", Values: map[string]any{"PatientName": "P1", "TimePoint": "T1", "SeriesNumber": 3, "Bricks": []any{1, 2}}},
		{Path: "P1/T2/rare.nii", Values: map[string]any{"PatientName": "P1", "TimePoint": "T2", "AcquisitionDate": "2024-02-01"}},
		{Path: "P2/T1/flash.nii", Values: map[string]any{"PatientName": "P2"}},
	}
	for _, scan := range scans {
		if err := s.AddScan(scan); err != nil {
			t.Fatalf("AddScan(%s): %v", scan.Path, err)
		}
	}
}

func TestNewStoreIsNotWrittenUntilMutated(t *testing.T) {
	fs := newMemFS()
	s := openMem(t, fs)
	if fs.exists("scans.json") {
		t.Fatal("file written before any mutation")
	}
	addScans(t, s)
	if !fs.exists("scans.json") {
		t.Fatal("file not written after AddScan")
	}
	if fs.exists("scans.json.tmp") {
		t.Error("temp file left behind")
	}

	raw, _ := fs.ReadFile("scans.json")
	var data storage.StoreData
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatal(err)
	}
	if len(data.Current) != 3 || len(data.Initial) != 3 || len(data.Schema) != 5 {
		t.Errorf("unexpected persisted shape: %d current, %d initial, %d tags",
			len(data.Current), len(data.Initial), len(data.Schema))
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scans.json")
	s, err := New(path, WithSchema(testTags()))
	if err != nil {
		t.Fatal(err)
	}
	addScans(t, s)
	if err := s.SetValue("P1/T1/rare.nii", "TimePoint", "T3"); err != nil {
		t.Fatal(err)
	}
	rev := s.Revision()
	_ = s.Close()

	reopened, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = reopened.Close() }()

	if reopened.Revision() != rev {
		t.Errorf("revision changed on reopen")
	}
	names, _ := reopened.DocumentNames(types.CollectionCurrent)
	if diff := cmp.Diff([]string{"P1/T1/rare.nii", "P1/T2/rare.nii", "P2/T1/flash.nii"}, names); diff != "" {
		t.Errorf("names (-want +got):\n%s", diff)
	}

	checks := []struct {
		collection, path, tag string
		want                  any
	}{
		{types.CollectionCurrent, "P1/T1/rare.nii", "TimePoint", "T3"},
		{types.CollectionInitial, "P1/T1/rare.nii", "TimePoint", "T1"},
		{types.CollectionCurrent, "P1/T1/rare.nii", "SeriesNumber", int64(3)},
		{types.CollectionCurrent, "P1/T1/rare.nii", "Bricks", []any{int64(1), int64(2)}},
		{types.CollectionCurrent, "P1/T2/rare.nii", "AcquisitionDate", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, c := range checks {
		got, defined, err := reopened.GetValue(c.collection, c.path, c.tag)
		if err != nil || !defined || !types.Equal(got, c.want) {
			t.Errorf("%s %s %s = %#v, %v, %v; want %#v", c.collection, c.path, c.tag, got, defined, err, c.want)
		}
	}

	if _, err := reopened.Undo(); err != nil {
		t.Errorf("history not persisted: %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Run("corrupt JSON", func(t *testing.T) {
		fs := newMemFS()
		_ = fs.WriteFile("scans.json", []byte("{not json"), 0644)
		_, err := New("scans.json", WithFileSystem(fs), WithFileLockFactory(&memLockFactory{}))
		if err == nil {
			t.Fatal("expected parse error")
		}
	})

	t.Run("read failure", func(t *testing.T) {
		fs := newMemFS()
		_ = fs.WriteFile("scans.json", []byte("{}"), 0644)
		fs.readErr = errors.New("io error")
		if _, err := New("scans.json", WithFileSystem(fs), WithFileLockFactory(&memLockFactory{})); err == nil {
			t.Fatal("expected read error")
		}
	})

	t.Run("lock failure", func(t *testing.T) {
		factory := &memLockFactory{lock: &memLock{lockErr: errors.New("locked elsewhere")}}
		if _, err := New("scans.json", WithFileSystem(newMemFS()), WithFileLockFactory(factory)); err == nil {
			t.Fatal("expected lock error")
		}
	})

	t.Run("invalid schema", func(t *testing.T) {
		bad := []types.Tag{{Name: "path", Type: types.FieldString, Origin: types.OriginUser}}
		if _, err := New("scans.json", WithFileSystem(newMemFS()), WithFileLockFactory(&memLockFactory{}), WithSchema(bad)); err == nil {
			t.Fatal("expected schema error")
		}
	})
}

func TestSaveFailureRollsBack(t *testing.T) {
	fs := newMemFS()
	s := openMem(t, fs)
	addScans(t, s)
	rev := s.Revision()

	fs.renameErr = errors.New("disk full")
	if err := s.SetValue("P2/T1/flash.nii", "TimePoint", "T9"); err == nil {
		t.Fatal("expected save error")
	}
	if fs.exists("scans.json.tmp") {
		t.Error("temp file not cleaned up")
	}
	if _, defined, _ := s.GetValue(types.CollectionCurrent, "P2/T1/flash.nii", "TimePoint"); defined {
		t.Error("failed mutation left a value behind")
	}
	if s.Revision() != rev {
		t.Error("failed mutation changed the revision")
	}
	if _, err := s.Undo(); !errors.Is(err, types.ErrNothingToUndo) {
		t.Errorf("failed mutation was recorded in history: %v", err)
	}
}
