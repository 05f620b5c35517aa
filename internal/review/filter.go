package review

import "github.com/beelab/dancereview/internal/dataset"

// Filter returns the records whose effective category is target, in their
// original order. A correction moves a record between views; once corrected
// its original category no longer matters.
func Filter(records []*dataset.Record, target dataset.Category) []*dataset.Record {
	view := make([]*dataset.Record, 0, len(records))
	for _, rec := range records {
		if rec.EffectiveCategory() == target {
			view = append(view, rec)
		}
	}
	return view
}
