package dataset

import (
	"context"
	"maps"
	"path/filepath"
	"slices"

	"github.com/beelab/dancereview/internal/logger"
)

// Misplaced describes a video stored in the directory of the wrong category.
type Misplaced struct {
	ID       string   `json:"id"`
	Path     string   `json:"path"`
	Expected Category `json:"expected"`
}

// ReconcileReport lists the differences between the record table and the
// video files on disk.
type ReconcileReport struct {
	// Missing are record ids without a video.
	Missing []string `json:"missing"`
	// Misplaced are videos outside their effective category directory.
	Misplaced []Misplaced `json:"misplaced"`
	// Orphans are video paths with no matching record.
	Orphans []string `json:"orphans"`
	// Duplicates are extra video files shadowed by another file of the same id.
	Duplicates []string `json:"duplicates"`
}

// Clean reports whether nothing needs attention.
func (r *ReconcileReport) Clean() bool {
	return len(r.Missing) == 0 && len(r.Misplaced) == 0 && len(r.Orphans) == 0 && len(r.Duplicates) == 0
}

// Reconcile compares every record's effective category with the location of
// its video.
func Reconcile(ds *Dataset) *ReconcileReport {
	report := &ReconcileReport{
		Missing:    []string{},
		Misplaced:  []Misplaced{},
		Orphans:    []string{},
		Duplicates: ds.Videos.Duplicates(),
	}

	for _, rec := range ds.Records {
		path, err := ds.Videos.Lookup(rec.DayDanceID)
		if err != nil {
			report.Missing = append(report.Missing, rec.DayDanceID)
			continue
		}
		want := rec.EffectiveCategory()
		if filepath.Dir(path) != ds.CategoryDir(want) {
			report.Misplaced = append(report.Misplaced, Misplaced{
				ID:       rec.DayDanceID,
				Path:     path,
				Expected: want,
			})
		}
	}

	for _, id := range slices.Sorted(maps.Keys(ds.Videos.paths)) {
		if _, ok := ds.byID[id]; !ok {
			report.Orphans = append(report.Orphans, ds.Videos.paths[id])
		}
	}

	return report
}

// Relocator moves a file into a directory and returns the new path.
type Relocator interface {
	Relocate(src, dstDir string) (string, error)
}

// RepairResult reports what Repair moved and what it could not.
type RepairResult struct {
	Moved  []string          `json:"moved"`
	Failed map[string]string `json:"failed"`
}

// Repair moves every misplaced video into its effective category directory
// and points the index at the new location. Records are not modified.
func Repair(ctx context.Context, ds *Dataset, report *ReconcileReport, mover Relocator) (*RepairResult, error) {
	result := &RepairResult{Moved: []string{}, Failed: map[string]string{}}
	for _, m := range report.Misplaced {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		dst, err := mover.Relocate(m.Path, ds.CategoryDir(m.Expected))
		if err != nil {
			result.Failed[m.ID] = err.Error()
			GetLogger().Warn("Failed to repair misplaced video",
				logger.String("day_dance_id", m.ID),
				logger.String("path", m.Path),
				logger.Error(err))
			continue
		}
		ds.Videos.Set(m.ID, dst)
		result.Moved = append(result.Moved, m.ID)
	}
	GetLogger().Info("Reconcile repair finished",
		logger.String("root", ds.Root),
		logger.Int("moved", len(result.Moved)),
		logger.Int("failed", len(result.Failed)))
	return result, nil
}
