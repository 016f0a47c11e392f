// Package search implements rapid search: a case-insensitive substring match
// of free text against the formatted values of a scan's tags.
package search

import (
	"fmt"
	"sort"
	"strings"

	"github.com/arthur-debert/scanstore/types"
)

// PathField names the scan path in Options.Tags and Result.MatchedTags
const PathField = "path"

// Engine implements Searcher over a Provider
type Engine struct {
	provider Provider
	tags     *types.TagSet
}

var _ Searcher = (*Engine)(nil)

// NewEngine creates a search engine. tags supplies the field types used to
// format values and the visible tags searched by default.
func NewEngine(provider Provider, tags *types.TagSet) *Engine {
	return &Engine{provider: provider, tags: tags}
}

// Search lists scans matching filters and ranks those matching the query
func (e *Engine) Search(options Options, filters map[string]any) ([]Result, error) {
	if options.Query == "" {
		return []Result{}, nil
	}
	scans, err := e.provider.List(types.ListOptions{Filters: filters})
	if err != nil {
		return nil, fmt.Errorf("failed to get scans: %w", err)
	}
	return Rank(scans, e.tags, options), nil
}

// Rank returns the scans matching options, best first.
// Scans with equal scores keep their input order.
func Rank(scans []types.Scan, tags *types.TagSet, options Options) []Result {
	if options.Query == "" {
		return []Result{}
	}
	fields := searchFields(tags, options.Tags)

	var results []Result
	for _, scan := range scans {
		var r *Result
		if options.Query == NotDefinedQuery {
			r = matchNotDefined(scan, fields)
		} else {
			r = searchScan(scan, tags, fields, options)
		}
		if r != nil {
			results = append(results, *r)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return len(results[i].MatchedTags) > len(results[j].MatchedTags)
	})

	if options.MaxResults != nil && *options.MaxResults > 0 && len(results) > *options.MaxResults {
		results = results[:*options.MaxResults]
	}
	return results
}

func searchFields(tags *types.TagSet, requested []string) []string {
	if len(requested) > 0 {
		return requested
	}
	fields := []string{PathField}
	if tags != nil {
		for _, t := range tags.Visible() {
			fields = append(fields, t.Name)
		}
	}
	return fields
}

func matchNotDefined(scan types.Scan, fields []string) *Result {
	var missing []string
	for _, f := range fields {
		if f == PathField {
			continue
		}
		if _, ok := scan.Value(f); !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &Result{Scan: scan, Score: 1.0, MatchedTags: missing}
}

func searchScan(scan types.Scan, tags *types.TagSet, fields []string, options Options) *Result {
	query := options.Query
	if !options.CaseSensitive {
		query = strings.ToLower(query)
	}

	result := &Result{Scan: scan}
	for _, field := range fields {
		text, ok := fieldText(scan, tags, field)
		if !ok {
			continue
		}
		score, matched := matchField(text, query, field, options)
		if !matched {
			continue
		}
		result.MatchedTags = append(result.MatchedTags, field)
		if score > result.Score {
			result.Score = score
		}
		if options.EnableHighlight {
			if result.Highlights == nil {
				result.Highlights = make(map[string]string)
			}
			result.Highlights[field] = highlight(text, query, options)
		}
	}

	if len(result.MatchedTags) == 0 {
		return nil
	}
	return result
}

func fieldText(scan types.Scan, tags *types.TagSet, field string) (string, bool) {
	if field == PathField {
		return scan.Path, true
	}
	v, ok := scan.Value(field)
	if !ok {
		return "", false
	}
	ft := types.FieldString
	if tags != nil {
		if tag, found := tags.Get(field); found {
			ft = tag.Type
		}
	}
	return ft.Format(v), true
}

func matchField(text, query, field string, options Options) (float64, bool) {
	subject := text
	if !options.CaseSensitive {
		subject = strings.ToLower(text)
	}
	if options.ExactMatch {
		if subject == query {
			return 1.0, true
		}
		return 0, false
	}
	if !strings.Contains(subject, query) {
		return 0, false
	}
	return calculateScore(subject, query, field), true
}

// calculateScore computes a relevance score for a substring match
func calculateScore(text, query, field string) float64 {
	points := 50

	// Tag values outrank the path, which contains most tag values anyway
	if field != PathField {
		points = 60
	}
	if strings.HasPrefix(text, query) {
		points += 20
	}
	if text == query {
		points += 20
	} else if len(text) > 0 && 2*len(query) > len(text) {
		points += 10
	}
	return float64(min(points, 100)) / 100
}

// highlight wraps every non-overlapping match with the configured markers
func highlight(text, query string, options Options) string {
	start, end := options.HighlightStartMarker, options.HighlightEndMarker
	if start == "" {
		start = "**"
	}
	if end == "" {
		end = "**"
	}

	subject := text
	if !options.CaseSensitive {
		subject = strings.ToLower(text)
	}
	n := len(query)
	if n == 0 || len(subject) != len(text) {
		return text
	}

	var b strings.Builder
	last := 0
	for i := 0; i <= len(subject)-n; {
		if subject[i:i+n] != query {
			i++
			continue
		}
		b.WriteString(text[last:i])
		b.WriteString(start)
		b.WriteString(text[i : i+n])
		b.WriteString(end)
		i += n
		last = i
	}
	b.WriteString(text[last:])
	return b.String()
}
