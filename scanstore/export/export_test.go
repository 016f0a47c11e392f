package export_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/scanstore/scanstore/counttable"
	"github.com/arthur-debert/scanstore/scanstore/export"
	"github.com/arthur-debert/scanstore/scanstore/testutil"
)

func missingFlashGrid(t *testing.T) *counttable.Grid {
	t.Helper()
	st, _ := testutil.LoadUniverse(t, testutil.Without("P2/T3/flash.nii"))
	g, err := counttable.NewBuilder(st).Build(context.Background(),
		[]string{"PatientName", "TimePoint", "SequenceName"})
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"table", "CSV", " json", "yaml", "markdown", "md"} {
		if _, err := export.ParseFormat(name); err != nil {
			t.Errorf("ParseFormat(%q): %v", name, err)
		}
	}
	if _, err := export.ParseFormat("xml"); err == nil {
		t.Error("expected error for xml")
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := export.Write(&buf, missingFlashGrid(t), export.FormatCSV); err != nil {
		t.Fatal(err)
	}
	want := strings.Join([]string{
		"PatientName,TimePoint,RARE,MDEFT,FLASH",
		"P1,T1,2,1,1",
		"P1,T2,2,1,1",
		"P1,T3,2,1,1",
		"P2,T1,2,1,1",
		"P2,T2,2,1,1",
		"P2,T3,2,1,-",
		"2,3,12,6,5",
		"",
	}, "\n")
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("csv (-want +got):\n%s", diff)
	}
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	if err := export.Write(&buf, missingFlashGrid(t), export.FormatTable); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"PatientName", "MDEFT", "FLASH", "P2", " - ", "12"} {
		if !strings.Contains(out, want) {
			t.Errorf("table is missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "SequenceName") {
		t.Errorf("the last tag's values head the count columns, not its name:\n%s", out)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	g := missingFlashGrid(t)
	if err := export.Write(&buf, g, export.FormatJSON); err != nil {
		t.Fatal(err)
	}
	var doc export.Document
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{2, 3, 12, 6, 5}, doc.Totals); diff != "" {
		t.Errorf("totals (-want +got):\n%s", diff)
	}
	if doc.Revision != g.Revision {
		t.Errorf("revision = %q, want %q", doc.Revision, g.Revision)
	}
	last := doc.Rows[5]
	if diff := cmp.Diff([]string{"P2", "T3"}, last.Labels); diff != "" {
		t.Errorf("labels (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(export.Cell{Absent: true}, last.Cells[2]); diff != "" {
		t.Errorf("absent cell (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"P2/T3/mdeft.nii"}, last.Cells[1].Scans); diff != "" {
		t.Errorf("scans (-want +got):\n%s", diff)
	}
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := export.Write(&buf, missingFlashGrid(t), export.FormatYAML); err != nil {
		t.Fatal(err)
	}
	var doc export.Document
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"PatientName", "TimePoint", "SequenceName"}, doc.Tags); diff != "" {
		t.Errorf("tags (-want +got):\n%s", diff)
	}
	if len(doc.Rows) != 6 || !doc.Rows[5].Cells[2].Absent {
		t.Errorf("unexpected rows: %+v", doc.Rows)
	}
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	if err := export.Write(&buf, missingFlashGrid(t), export.FormatMD); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if lines[0] != "# PatientName x TimePoint x SequenceName" || lines[1] != "" {
		t.Fatalf("heading:\n%s", buf.String())
	}
	// header, separator, six rows, totals
	table := lines[2:]
	if len(table) != 9 {
		t.Fatalf("got %d table lines:\n%s", len(table), buf.String())
	}
	for _, l := range table {
		if !strings.HasPrefix(l, "|") || !strings.HasSuffix(l, "|") {
			t.Errorf("not a pipe row: %q", l)
		}
	}
	if !strings.Contains(table[1], "---") {
		t.Errorf("separator = %q", table[1])
	}
}

func TestWriteMarkdownEscapesPipes(t *testing.T) {
	var buf bytes.Buffer
	if err := export.WriteMarkdown(&buf, "", []string{"Name"}, [][]string{{"a|b"}}); err != nil {
		t.Fatal(err)
	}
	if strings.HasPrefix(buf.String(), "#") {
		t.Errorf("untitled table has a heading:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), `a\|b`) {
		t.Errorf("pipe not escaped:\n%s", buf.String())
	}
}
