// Package query provides list processing for scans: exact-value filters,
// filter expressions, rapid search, ordering and pagination.
package query

import (
	"fmt"

	"github.com/arthur-debert/scanstore/scanstore/filter"
	"github.com/arthur-debert/scanstore/scanstore/search"
	"github.com/arthur-debert/scanstore/types"
)

// Processor handles query execution against a set of scans
type Processor interface {
	// Execute runs a query against scans and returns the results
	Execute(scans []types.Scan, opts types.ListOptions) ([]types.Scan, error)

	// MatchesFilters checks if a scan matches the given exact-value filters
	MatchesFilters(scan types.Scan, filters map[string]any) bool
}

// processor implements the Processor interface
type processor struct {
	tags *types.TagSet
}

// NewProcessor creates a new query processor over a tag schema
func NewProcessor(tags *types.TagSet) Processor {
	return &processor{tags: tags}
}

// Execute runs the query and returns filtered, sorted, and paginated results.
// Input order is preserved unless OrderBy is given.
func (p *processor) Execute(scans []types.Scan, opts types.ListOptions) ([]types.Scan, error) {
	for name := range opts.Filters {
		if name == PathField {
			continue
		}
		if _, err := p.tags.Lookup(name); err != nil {
			return nil, fmt.Errorf("filter: %w", err)
		}
	}

	var expr *filter.Filter
	if opts.Expression != "" {
		var err error
		expr, err = filter.Compile(opts.Expression, p.tags)
		if err != nil {
			return nil, fmt.Errorf("invalid filter expression: %w", err)
		}
	}

	result := make([]types.Scan, 0, len(scans))
	for _, scan := range scans {
		if !p.matchesFilters(scan, opts.Filters) {
			continue
		}
		if expr != nil && !expr.Match(scan) {
			continue
		}
		result = append(result, scan)
	}

	if opts.Search != "" {
		ranked := search.Rank(result, p.tags, search.Options{Query: opts.Search})
		result = make([]types.Scan, len(ranked))
		for i, r := range ranked {
			result[i] = r.Scan
		}
	}

	if len(opts.OrderBy) > 0 {
		if err := p.sortScans(result, opts.OrderBy); err != nil {
			return nil, err
		}
	}

	if opts.Offset != nil && *opts.Offset > 0 {
		if *opts.Offset >= len(result) {
			result = []types.Scan{}
		} else {
			result = result[*opts.Offset:]
		}
	}

	if opts.Limit != nil && *opts.Limit > 0 && *opts.Limit < len(result) {
		result = result[:*opts.Limit]
	}

	return result, nil
}
