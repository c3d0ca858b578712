// Package sample selects which revisions get a full content fetch.
package sample

import "wiki_tracker/internal/models"

// Plan returns every strideth revision by index, always including the most
// recent one. When cached is non-nil, revisions it reports as already known
// are left out, so re-runs only fetch what is missing. Selection is
// deterministic: same inputs, same plan.
func Plan(revisions []models.Revision, stride int, cached func(int64) bool) []models.Revision {
	if len(revisions) == 0 {
		return nil
	}
	if stride < 1 {
		stride = 1
	}

	last := len(revisions) - 1
	var plan []models.Revision
	for i, rev := range revisions {
		if i%stride != 0 && i != last {
			continue
		}
		if cached != nil && cached(rev.ID) {
			continue
		}
		plan = append(plan, rev)
	}
	return plan
}
