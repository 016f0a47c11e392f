package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/arthur-debert/scanstore/types"
)

// sortScans orders scans by the order clauses using typed comparison.
// Scans without a value sort last regardless of direction.
func (p *processor) sortScans(scans []types.Scan, orderBy []types.OrderClause) error {
	for _, clause := range orderBy {
		if clause.Tag == PathField {
			continue
		}
		if _, err := p.tags.Lookup(clause.Tag); err != nil {
			return fmt.Errorf("order by: %w", err)
		}
	}

	sort.SliceStable(scans, func(i, j int) bool {
		for _, clause := range orderBy {
			vi, oki := sortValue(scans[i], clause.Tag)
			vj, okj := sortValue(scans[j], clause.Tag)

			switch {
			case !oki && !okj:
				continue
			case !oki:
				return false
			case !okj:
				return true
			}

			c, ok := types.Compare(vi, vj)
			if !ok {
				c = strings.Compare(fmt.Sprint(vi), fmt.Sprint(vj))
			}
			if c == 0 {
				continue
			}
			if clause.Descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	return nil
}

func sortValue(scan types.Scan, tag string) (any, bool) {
	if tag == PathField {
		return scan.Path, true
	}
	return scan.Value(tag)
}
