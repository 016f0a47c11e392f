package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/scanstore/scanstore/export"
	"github.com/arthur-debert/scanstore/types"
)

// listing is command output that renders both as records and as a document
type listing struct {
	header []string
	rows   [][]string
	doc    any
}

// outputResult writes l in the configured format
func (cli *CLI) outputResult(l listing) error {
	f, err := cli.format()
	if err != nil {
		return err
	}

	switch f {
	case export.FormatJSON:
		encoder := json.NewEncoder(cli.out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(l.doc)
	case export.FormatYAML:
		encoder := yaml.NewEncoder(cli.out)
		encoder.SetIndent(2)
		if err := encoder.Encode(l.doc); err != nil {
			return err
		}
		return encoder.Close()
	case export.FormatCSV:
		w := csv.NewWriter(cli.out)
		if err := w.Write(l.header); err != nil {
			return err
		}
		return w.WriteAll(l.rows)
	case export.FormatMD:
		return export.WriteMarkdown(cli.out, "", l.header, l.rows)
	}

	table := tablewriter.NewWriter(cli.out)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader(l.header)
	table.AppendBulk(l.rows)
	table.Render()
	return nil
}

// tagDoc is the document form of a tag
type tagDoc struct {
	Name         string `json:"name" yaml:"name"`
	Type         string `json:"field_type" yaml:"field_type"`
	Origin       string `json:"origin" yaml:"origin"`
	Description  string `json:"description,omitempty" yaml:"description,omitempty"`
	Unit         string `json:"unit,omitempty" yaml:"unit,omitempty"`
	DefaultValue string `json:"default_value,omitempty" yaml:"default_value,omitempty"`
	Hidden       bool   `json:"hidden,omitempty" yaml:"hidden,omitempty"`
}

func tagListing(tags []types.Tag) listing {
	l := listing{header: []string{"Name", "Type", "Origin", "Default", "Unit", "Description"}}
	docs := make([]tagDoc, 0, len(tags))
	for _, t := range tags {
		def := ""
		if v, err := t.CoerceDefault(); err == nil && v != nil {
			def = t.Type.Format(v)
		}
		name := t.Name
		if t.Hidden {
			name += " (hidden)"
		}
		l.rows = append(l.rows, []string{name, t.Type.String(), string(t.Origin), def, t.Unit, t.Description})
		docs = append(docs, tagDoc{
			Name:         t.Name,
			Type:         t.Type.String(),
			Origin:       string(t.Origin),
			Description:  t.Description,
			Unit:         t.Unit,
			DefaultValue: def,
			Hidden:       t.Hidden,
		})
	}
	l.doc = docs
	return l
}

// scanDoc is the document form of a scan, values formatted per tag type
type scanDoc struct {
	Path   string            `json:"path" yaml:"path"`
	Values map[string]string `json:"values" yaml:"values"`
}

// scanListing renders scans with one column per tag in columns. An empty
// columns list shows every visible tag.
func scanListing(scans []types.Scan, schema *types.TagSet, columns []string) listing {
	if len(columns) == 0 {
		for _, t := range schema.Visible() {
			columns = append(columns, t.Name)
		}
	}
	l := listing{header: append([]string{"Path"}, columns...)}
	docs := make([]scanDoc, 0, len(scans))
	for _, s := range scans {
		row := []string{s.Path}
		doc := scanDoc{Path: s.Path, Values: make(map[string]string)}
		for _, name := range columns {
			text := ""
			if v, ok := s.Value(name); ok {
				text = formatValue(schema, name, v)
				doc.Values[name] = text
			}
			row = append(row, text)
		}
		l.rows = append(l.rows, row)
		docs = append(docs, doc)
	}
	l.doc = docs
	return l
}

func formatValue(schema *types.TagSet, name string, v any) string {
	if t, ok := schema.Get(name); ok {
		return t.Type.Format(v)
	}
	return fmt.Sprint(v)
}

func cutAssignment(arg string) (name, text string, ok bool) {
	name, text, ok = strings.Cut(arg, "=")
	return name, text, ok && name != ""
}

// parseAssignments reads Tag=value arguments, parsing values by tag type
func parseAssignments(schema *types.TagSet, args []string) (map[string]any, error) {
	out := make(map[string]any, len(args))
	for _, arg := range args {
		name, text, ok := cutAssignment(arg)
		if !ok {
			return nil, NewValidationError("parse assignment", "assignment", arg, "Use Tag=value")
		}
		t, err := schema.Lookup(name)
		if err != nil {
			return nil, NewStoreError("parse assignment", err)
		}
		v, err := t.Type.Parse(text)
		if err != nil {
			return nil, NewValidationError("parse assignment", t.Type.String()+" value", text)
		}
		out[name] = v
	}
	return out, nil
}

// sortedKeys returns the keys of m in order
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
