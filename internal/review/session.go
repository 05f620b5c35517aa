// Package review implements the correction session: filtering a dataset by
// category, paging through it on a grid and committing a page of reviewer
// input back to the dataset and the video directories.
package review

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"github.com/beelab/dancereview/internal/dataset"
	"github.com/beelab/dancereview/internal/errors"
	"github.com/beelab/dancereview/internal/logger"
)

// Options configures a Session.
type Options struct {
	Fs       afero.Fs
	Layout   dataset.Layout
	Grid     Grid
	Category dataset.Category
	Recorder Recorder
	Observer SaveObserver
	Logger   logger.Logger
}

// Session is the review state of one reviewer: the loaded dataset, the
// tracker, the grid, the selected category with its working subset, and the
// current page. It is not safe for concurrent use.
type Session struct {
	fs        afero.Fs
	layout    dataset.Layout
	relocator *FileRelocator
	recorder  Recorder
	observer  SaveObserver
	log       logger.Logger

	ds       *dataset.Dataset
	tracker  *Tracker
	grid     Grid
	category dataset.Category
	view     []*dataset.Record
	page     int
	pending  unpersisted
}

// NewSession returns an empty session. Load must be called before pages can
// be viewed or saved.
func NewSession(opts Options) (*Session, error) {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Grid == (Grid{}) {
		opts.Grid = DefaultGrid()
	}
	if err := opts.Grid.Validate(); err != nil {
		return nil, err
	}
	if !opts.Category.Valid() {
		return nil, errors.ValidationError(fmt.Sprintf("unknown category code %d", int(opts.Category)))
	}
	if opts.Recorder == nil {
		opts.Recorder = noopRecorder{}
	}
	if opts.Logger == nil {
		opts.Logger = GetLogger()
	}

	return &Session{
		fs:        opts.Fs,
		layout:    opts.Layout,
		relocator: NewFileRelocator(opts.Fs),
		recorder:  opts.Recorder,
		observer:  opts.Observer,
		log:       opts.Logger,
		grid:      opts.Grid,
		category:  opts.Category,
		page:      1,
	}, nil
}

// Status summarises the session position.
type Status struct {
	Loaded    bool             `json:"loaded"`
	Directory string           `json:"directory,omitempty"`
	Category  dataset.Category `json:"category"`
	Grid      Grid             `json:"grid"`
	Page      int              `json:"page"`
	PageCount int              `json:"pageCount"`
	InView    int              `json:"inView"`
	Records   int              `json:"records"`
}

// Load replaces the dataset with the one found in root. The working subset
// is rebuilt for the selected category and every page snapshot and held
// dance type is discarded. On error the session is left unchanged.
func (s *Session) Load(ctx context.Context, root string) error {
	ds, err := dataset.Load(ctx, s.fs, root, s.layout)
	if err != nil {
		s.recorder.RecordLoad("error", 0)
		s.log.Warn("Failed to load review directory",
			logger.String("directory", root),
			logger.Error(err))
		return err
	}

	s.ds = ds
	s.tracker = NewTracker(ds.Records)
	s.view = Filter(ds.Records, s.category)
	s.page = 1
	s.pending.reset()
	s.recorder.RecordLoad("success", len(ds.Records))

	s.log.Info("Review directory loaded",
		logger.String("directory", root),
		logger.String("category", s.category.Label()),
		logger.Int("records", len(ds.Records)),
		logger.Int("in_view", len(s.view)))
	return nil
}

// Loaded reports whether a dataset is loaded.
func (s *Session) Loaded() bool {
	return s.ds != nil
}

func (s *Session) requireLoaded() error {
	if s.ds == nil {
		return errors.Newf("no review directory loaded").
			Component("review").
			Category(errors.CategoryState).
			Build()
	}
	return nil
}

// Dataset returns the loaded dataset, or nil.
func (s *Session) Dataset() *dataset.Dataset {
	return s.ds
}

// Tracker returns the session tracker, or nil before the first load.
func (s *Session) Tracker() *Tracker {
	return s.tracker
}

func (s *Session) paginator() Paginator {
	return NewPaginator(len(s.view), s.grid)
}

// Status returns the current position.
func (s *Session) Status() Status {
	st := Status{
		Loaded:    s.ds != nil,
		Category:  s.category,
		Grid:      s.grid,
		Page:      s.page,
		PageCount: s.paginator().PageCount(),
		InView:    len(s.view),
	}
	if s.ds != nil {
		st.Directory = s.ds.Root
		st.Records = len(s.ds.Records)
	}
	return st
}

// SelectCategory switches the working subset. Pagination restarts at page 1
// and every page snapshot is dropped, even when c is already selected.
func (s *Session) SelectCategory(c dataset.Category) error {
	if !c.Valid() {
		return errors.ValidationError(fmt.Sprintf("unknown category code %d", int(c)))
	}
	s.category = c
	s.page = 1
	if s.ds == nil {
		return nil
	}
	s.view = Filter(s.ds.Records, c)
	s.tracker.ResetCheckmarks()
	s.log.Debug("Category selected",
		logger.String("category", c.Label()),
		logger.Int("in_view", len(s.view)))
	return nil
}

// SetGrid changes the page layout. Pagination restarts at page 1 and the
// page snapshots are rebuilt for the new page boundaries: a record of the
// working subset is checked iff its effective category differs from the
// selected one.
func (s *Session) SetGrid(g Grid) error {
	if err := g.Validate(); err != nil {
		return err
	}
	s.grid = g
	s.page = 1
	if s.ds == nil {
		return nil
	}

	s.tracker.ResetCheckmarks()
	p := s.paginator()
	for page := 1; page <= p.PageCount(); page++ {
		records, _ := PageSlice(s.view, p, page)
		checked := NewIDSet()
		for _, rec := range records {
			if rec.EffectiveCategory() != s.category {
				checked.Add(rec.DayDanceID)
			}
		}
		if len(checked) > 0 {
			s.tracker.SetCheckmarked(page, checked)
		}
	}
	return nil
}

// PageItem is one grid cell of a page view.
type PageItem struct {
	Cell
	ID            string            `json:"id"`
	Label         string            `json:"label"`
	Corrected     bool              `json:"corrected"`
	HasVideo      bool              `json:"hasVideo"`
	VideoPath     string            `json:"-"`
	DanceType     dataset.DanceType `json:"danceType"`
	WrongCategory bool              `json:"wrongCategory"`
}

// PageView is everything needed to render one page.
type PageView struct {
	Page      int              `json:"page"`
	PageCount int              `json:"pageCount"`
	Current   bool             `json:"current"`
	Category  dataset.Category `json:"category"`
	Grid      Grid             `json:"grid"`
	Items     []PageItem       `json:"items"`
}

// ItemLabel is the caption shown for a record.
func ItemLabel(rec *dataset.Record) string {
	if rec.IsCategoryCorrected() {
		return rec.DayDanceID + " - corrected"
	}
	return rec.DayDanceID
}

// CurrentPage returns the view of the page pointer. An empty working subset
// yields page 1 with no items.
func (s *Session) CurrentPage() (*PageView, error) {
	if err := s.requireLoaded(); err != nil {
		return nil, err
	}
	if len(s.view) == 0 {
		return &PageView{Page: 1, Current: true, Category: s.category, Grid: s.grid, Items: []PageItem{}}, nil
	}
	return s.Page(s.page)
}

// Page returns the view of page. Wrong-category flags are seeded from the
// page snapshot and dance types from the tracker.
func (s *Session) Page(page int) (*PageView, error) {
	if err := s.requireLoaded(); err != nil {
		return nil, err
	}
	p := s.paginator()
	records, err := PageSlice(s.view, p, page)
	if err != nil {
		return nil, err
	}

	checked := s.tracker.Checkmarked(page)
	cells := s.grid.Place(len(records))
	items := make([]PageItem, len(records))
	for i, rec := range records {
		d, ok := s.tracker.DanceType(rec.DayDanceID)
		if !ok {
			d = rec.EffectiveDanceType()
		}
		path, lookupErr := s.ds.Videos.Lookup(rec.DayDanceID)
		items[i] = PageItem{
			Cell:          cells[i],
			ID:            rec.DayDanceID,
			Label:         ItemLabel(rec),
			Corrected:     rec.IsCategoryCorrected(),
			HasVideo:      lookupErr == nil,
			VideoPath:     path,
			DanceType:     d,
			WrongCategory: checked.Has(rec.DayDanceID),
		}
	}

	return &PageView{
		Page:      page,
		PageCount: p.PageCount(),
		Current:   page == s.page,
		Category:  s.category,
		Grid:      s.grid,
		Items:     items,
	}, nil
}

// VideoPath returns the video location of a record.
func (s *Session) VideoPath(id string) (string, error) {
	if err := s.requireLoaded(); err != nil {
		return "", err
	}
	if _, ok := s.ds.Record(id); !ok {
		return "", errors.Newf("record %s not found", id).
			Component("review").
			Category(errors.CategoryNotFound).
			Context("day_dance_id", id).
			Build()
	}
	return s.ds.Videos.Lookup(id)
}

// Summary returns statistics for the loaded dataset.
func (s *Session) Summary() (*dataset.Summary, error) {
	if err := s.requireLoaded(); err != nil {
		return nil, err
	}
	return dataset.Summarize(s.ds), nil
}

// Reconcile compares records with the video files.
func (s *Session) Reconcile() (*dataset.ReconcileReport, error) {
	if err := s.requireLoaded(); err != nil {
		return nil, err
	}
	return dataset.Reconcile(s.ds), nil
}

// Repair moves misplaced videos into their effective category directory.
func (s *Session) Repair(ctx context.Context) (*dataset.RepairResult, error) {
	if err := s.requireLoaded(); err != nil {
		return nil, err
	}
	return dataset.Repair(ctx, s.ds, dataset.Reconcile(s.ds), s.relocator)
}
