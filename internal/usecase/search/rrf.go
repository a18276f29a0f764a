package search

import (
	"sort"

	"github.com/spacebio/kgsearch/internal/domain/search/result"
)

// rrfK is the Reciprocal Rank Fusion constant (standard value from Cormack et al. 2009).
const rrfK = 60

// fuseRRF merges rankings via Reciprocal Rank Fusion.
// score(d) = sum of 1/(rrfK + rank + 1) over rankings where d appears, rank
// 0-based. Only rank position is used, so the producers' raw score scales
// never need to be reconciled. Output contains every id seen in any input,
// sorted by fused score descending; ties keep first-appearance order across
// the inputs.
func fuseRRF(rankings ...[]result.Hit) []result.Hit {
	scores := make(map[string]float64)
	var order []string // first-appearance order for stable ties

	for _, ranking := range rankings {
		for rank, h := range ranking {
			if _, seen := scores[h.ID]; !seen {
				order = append(order, h.ID)
			}
			scores[h.ID] += 1.0 / float64(rrfK+rank+1)
		}
	}

	fused := make([]result.Hit, len(order))
	for i, id := range order {
		fused[i] = result.Hit{ID: id, Score: scores[id]}
	}

	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].Score > fused[j].Score
	})

	return fused
}
