package search

import "github.com/arthur-debert/scanstore/types"

// NotDefinedQuery is the special query matching scans that have no value
// for at least one searched tag
const NotDefinedQuery = "*Not Defined*"

// Options configures search behavior
type Options struct {
	// Query is the text to look for
	Query string

	// Tags restricts the search to these tags
	// Empty slice searches the path and every visible tag
	Tags []string

	// CaseSensitive controls whether search is case-sensitive
	CaseSensitive bool

	// ExactMatch requires the entire formatted value to match the query
	ExactMatch bool

	// EnableHighlight includes highlighted match text in results
	EnableHighlight bool

	// HighlightStartMarker and HighlightEndMarker wrap highlighted text
	// Both default to "**"
	HighlightStartMarker string
	HighlightEndMarker   string

	// MaxResults limits the number of search results
	// nil means no limit
	MaxResults *int
}

// Result represents a matching scan with metadata
type Result struct {
	Scan types.Scan

	// Score represents match relevance (0.0 to 1.0, higher is better)
	Score float64

	// MatchedTags lists the tags that contained matches, in search order
	MatchedTags []string

	// Highlights maps tag name to its text with match markers
	Highlights map[string]string
}

// Provider supplies the scans to search
type Provider interface {
	List(opts types.ListOptions) ([]types.Scan, error)
}

// Searcher defines the main search interface
type Searcher interface {
	Search(options Options, filters map[string]any) ([]Result, error)
}
