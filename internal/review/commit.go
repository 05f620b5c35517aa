package review

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/beelab/dancereview/internal/dataset"
	"github.com/beelab/dancereview/internal/errors"
	"github.com/beelab/dancereview/internal/logger"
)

// Direction is where the page pointer goes after a save.
type Direction string

const (
	DirectionAdvance Direction = "advance"
	DirectionRetreat Direction = "retreat"
)

// ParseDirection accepts advance/next and retreat/previous.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "advance", "next":
		return DirectionAdvance, nil
	case "retreat", "previous", "prev":
		return DirectionRetreat, nil
	default:
		return "", errors.ValidationError(fmt.Sprintf("unknown direction %q", s))
	}
}

// ItemInput is the reviewer's state for one displayed record. Empty or nil
// fields keep the held dance type and the saved checkmark.
type ItemInput struct {
	ID            string `json:"id"`
	DanceType     string `json:"danceType,omitempty"`
	WrongCategory *bool  `json:"wrongCategory,omitempty"`
}

// SaveRequest commits one page.
type SaveRequest struct {
	Page      int         `json:"page"`
	Direction Direction   `json:"direction"`
	Items     []ItemInput `json:"items"`
}

// Swap is a category change applied to one record.
type Swap struct {
	ID        string           `json:"id"`
	From      dataset.Category `json:"from"`
	To        dataset.Category `json:"to"`
	Reverted  bool             `json:"reverted"`
	VideoPath string           `json:"videoPath,omitempty"`
}

// DanceTypeChange is a change of a record's corrected dance type.
type DanceTypeChange struct {
	ID  string             `json:"id"`
	Old *dataset.DanceType `json:"old"`
	New *dataset.DanceType `json:"new"`
}

// Failure kinds reported per item.
const (
	FailureMissingVideo = "missing_video"
	FailureRelocation   = "relocation"
)

// ItemFailure is a per-record problem that did not abort the save.
type ItemFailure struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// SaveResult describes one committed page. Swaps, DanceTypeChanges and
// Failures also carry changes applied by earlier saves whose dataset write
// failed, since this save is the one that persisted them.
type SaveResult struct {
	CommitID         string            `json:"commitId"`
	Page             int               `json:"page"`
	Direction        Direction         `json:"direction"`
	Changed          []string          `json:"changed"`
	Swaps            []Swap            `json:"swaps"`
	DanceTypeChanges []DanceTypeChange `json:"danceTypeChanges"`
	Failures         []ItemFailure     `json:"failures"`
	CurrentPage      int               `json:"currentPage"`
	PageCount        int               `json:"pageCount"`
}

// Save commits the reviewer's input for one page:
//
//  1. the page's records are resolved from the saved page number
//  2. each record's held dance type is updated and written to the record
//  3. the ids whose checkmark differs from the page snapshot are flipped
//  4. the snapshot is replaced with the submitted checkmarks
//  5. each flipped record's video is moved, then its category is swapped
//  6. the dataset file is written once
//  7. the page pointer moves in the requested direction
//
// Input is validated before anything changes. A missing video or a failed
// move is reported per item; a failed move also skips the swap for that
// record. When writing the dataset file fails the in-memory changes are
// kept, the pointer stays, and a repeated Save writes them again.
func (s *Session) Save(ctx context.Context, req SaveRequest) (*SaveResult, error) {
	start := time.Now()
	if err := s.requireLoaded(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir, err := ParseDirection(string(req.Direction))
	if err != nil {
		return nil, err
	}
	p := s.paginator()
	records, err := PageSlice(s.view, p, req.Page)
	if err != nil {
		return nil, err
	}
	inputs, err := indexInputs(records, req.Items)
	if err != nil {
		return nil, err
	}

	log := s.log.With(
		logger.String("directory", s.ds.Root),
		logger.Int("page", req.Page),
		logger.String("direction", string(dir)))

	result := &SaveResult{
		CommitID:         uuid.NewString(),
		Page:             req.Page,
		Direction:        dir,
		Changed:          []string{},
		Swaps:            []Swap{},
		DanceTypeChanges: []DanceTypeChange{},
		Failures:         []ItemFailure{},
	}

	// Dance types.
	for _, rec := range records {
		d, _ := s.tracker.DanceType(rec.DayDanceID)
		if in, ok := inputs[rec.DayDanceID]; ok && in.danceType != "" {
			d = in.danceType
		}
		if d == "" {
			d = rec.EffectiveDanceType()
		}
		s.tracker.SetDanceType(rec.DayDanceID, d)

		old := rec.CorrectedDanceType
		rec.ApplyDanceType(d)
		if !sameDanceType(old, rec.CorrectedDanceType) {
			result.DanceTypeChanges = append(result.DanceTypeChanges, DanceTypeChange{
				ID:  rec.DayDanceID,
				Old: old,
				New: rec.CorrectedDanceType,
			})
			if rec.CorrectedDanceType != nil {
				s.recorder.RecordDanceTypeCorrection()
			}
		}
	}

	// Checkmarks.
	previous := s.tracker.Checkmarked(req.Page)
	current := NewIDSet()
	for _, rec := range records {
		checked := previous.Has(rec.DayDanceID)
		if in, ok := inputs[rec.DayDanceID]; ok && in.wrongCategory != nil {
			checked = *in.wrongCategory
		}
		if checked {
			current.Add(rec.DayDanceID)
		}
	}
	changed := current.SymmetricDifference(previous)
	snapshot := current.Clone()

	// Category swaps, in page order.
	for _, rec := range records {
		if !changed.Has(rec.DayDanceID) {
			continue
		}
		result.Changed = append(result.Changed, rec.DayDanceID)

		swap, failure := s.swapCategory(rec)
		if failure != nil {
			result.Failures = append(result.Failures, *failure)
			log.Warn("Category swap problem",
				logger.String("day_dance_id", rec.DayDanceID),
				logger.String("kind", failure.Kind),
				logger.String("error", failure.Error))
		}
		if swap == nil {
			// Not applied; keep the saved checkmark so the flip can be retried.
			if previous.Has(rec.DayDanceID) {
				snapshot.Add(rec.DayDanceID)
			} else {
				snapshot.Remove(rec.DayDanceID)
			}
			continue
		}
		result.Swaps = append(result.Swaps, *swap)
		s.recorder.RecordSwap(swap.To.Label())
	}
	s.tracker.SetCheckmarked(req.Page, snapshot)

	if err := s.ds.Save(s.fs); err != nil {
		s.recorder.RecordSave(string(dir), "error", time.Since(start))
		s.pending.add(result)
		log.Error("Failed to persist corrections",
			logger.Int("pending_swaps", len(s.pending.swaps)),
			logger.Int("pending_dance_type_changes", len(s.pending.danceTypes)),
			logger.Error(err))
		return nil, err
	}
	s.pending.mergeInto(result)

	switch {
	case dir == DirectionAdvance && req.Page < p.PageCount():
		s.page = req.Page + 1
	case dir == DirectionRetreat && req.Page > 1:
		s.page = req.Page - 1
	}
	result.CurrentPage = s.page
	result.PageCount = p.PageCount()

	s.recorder.RecordSave(string(dir), "success", time.Since(start))
	log.Info("Page saved",
		logger.String("commit_id", result.CommitID),
		logger.Strings("changed", result.Changed),
		logger.Int("swaps", len(result.Swaps)),
		logger.Int("dance_type_changes", len(result.DanceTypeChanges)),
		logger.Int("failures", len(result.Failures)),
		logger.Int("current_page", s.page),
		logger.Duration("elapsed", time.Since(start)))

	if s.observer != nil {
		if err := s.observer.SaveCommitted(ctx, s.ds, result); err != nil {
			log.Warn("Failed to record save in journal",
				logger.String("commit_id", result.CommitID),
				logger.Error(err))
		}
	}

	return result, nil
}

// swapCategory flips one record's category. The target directory is derived
// from the record before it changes; the file is moved and the index
// updated before the record itself is touched. A nil swap means nothing was
// applied.
func (s *Session) swapCategory(rec *dataset.Record) (*Swap, *ItemFailure) {
	from := rec.EffectiveCategory()
	reverted := rec.IsCategoryCorrected()
	to := from.Opposite()
	if reverted {
		to = rec.Category
	}

	swap := &Swap{ID: rec.DayDanceID, From: from, To: to, Reverted: reverted}
	var failure *ItemFailure

	src, err := s.ds.Videos.Lookup(rec.DayDanceID)
	if err != nil {
		s.recorder.RecordMissingVideo()
		failure = &ItemFailure{ID: rec.DayDanceID, Kind: FailureMissingVideo, Error: err.Error()}
	} else {
		dst, err := s.relocator.Relocate(src, s.ds.CategoryDir(to))
		if err != nil {
			s.recorder.RecordRelocationFailure()
			return nil, &ItemFailure{ID: rec.DayDanceID, Kind: FailureRelocation, Error: err.Error()}
		}
		s.ds.Videos.Set(rec.DayDanceID, dst)
		swap.VideoPath = dst
	}

	if reverted {
		rec.ClearCorrectedCategory()
	} else {
		rec.SetCorrectedCategory(to)
	}
	return swap, failure
}

type parsedInput struct {
	danceType     dataset.DanceType
	wrongCategory *bool
}

// indexInputs validates reviewer input against the records of the page.
func indexInputs(records []*dataset.Record, items []ItemInput) (map[string]parsedInput, error) {
	onPage := make(map[string]bool, len(records))
	for _, rec := range records {
		onPage[rec.DayDanceID] = true
	}

	out := make(map[string]parsedInput, len(items))
	for _, item := range items {
		if !onPage[item.ID] {
			return nil, errors.New(fmt.Errorf("record %q is not on this page", item.ID)).
				Component("review").
				Category(errors.CategoryValidation).
				Context("day_dance_id", item.ID).
				Build()
		}
		if _, dup := out[item.ID]; dup {
			return nil, errors.ValidationError(fmt.Sprintf("record %q submitted twice", item.ID))
		}
		var in parsedInput
		if item.DanceType != "" {
			d, err := dataset.ParseDanceType(item.DanceType)
			if err != nil {
				return nil, errors.New(err).
					Component("review").
					Category(errors.CategoryValidation).
					Context("day_dance_id", item.ID).
					Build()
			}
			in.danceType = d
		}
		in.wrongCategory = item.WrongCategory
		out[item.ID] = in
	}
	return out, nil
}

func sameDanceType(a, b *dataset.DanceType) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// unpersisted holds changes applied in memory and on disk by saves whose
// dataset write failed. They are reported by the next successful save.
type unpersisted struct {
	swaps      []Swap
	danceTypes []DanceTypeChange
	failures   []ItemFailure
}

func (u *unpersisted) add(r *SaveResult) {
	u.swaps = append(u.swaps, r.Swaps...)
	u.danceTypes = append(u.danceTypes, r.DanceTypeChanges...)
	u.failures = append(u.failures, r.Failures...)
}

// mergeInto prepends the held changes to r and forgets them.
func (u *unpersisted) mergeInto(r *SaveResult) {
	if len(u.swaps)+len(u.danceTypes)+len(u.failures) == 0 {
		return
	}
	r.Swaps = append(u.swaps, r.Swaps...)
	r.DanceTypeChanges = append(u.danceTypes, r.DanceTypeChanges...)
	r.Failures = append(u.failures, r.Failures...)
	u.reset()
}

func (u *unpersisted) reset() {
	*u = unpersisted{}
}
