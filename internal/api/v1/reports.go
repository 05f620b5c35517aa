package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/patrickmn/go-cache"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/beelab/dancereview/internal/dataset"
	"github.com/beelab/dancereview/internal/errors"
	"github.com/beelab/dancereview/internal/journal"
	"github.com/beelab/dancereview/internal/review"
)

// DanceTypeOption is one entry of the dance type selector.
type DanceTypeOption struct {
	Value   dataset.DanceType `json:"value"`
	Label   string            `json:"label"`
	Default bool              `json:"default"`
}

// DanceTypeOptions lists every dance type with its display label.
func DanceTypeOptions() []DanceTypeOption {
	title := cases.Title(language.English)
	types := dataset.DanceTypes()
	opts := make([]DanceTypeOption, len(types))
	for i, d := range types {
		opts[i] = DanceTypeOption{
			Value:   d,
			Label:   title.String(string(d)),
			Default: d == dataset.DefaultDanceType,
		}
	}
	return opts
}

// GetDanceTypes handles GET /dance-types
func (c *Controller) GetDanceTypes(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, DanceTypeOptions())
}

// GetSummary handles GET /summary
func (c *Controller) GetSummary(ctx echo.Context) error {
	var summary *dataset.Summary
	err := c.withSession(func(s *review.Session) error {
		var err error
		summary, err = s.Summary()
		return err
	})
	if err != nil {
		return c.HandleError(ctx, err, "Failed to summarize dataset")
	}
	return ctx.JSON(http.StatusOK, summary)
}

// GetReconcile handles GET /reconcile
func (c *Controller) GetReconcile(ctx echo.Context) error {
	var report *dataset.ReconcileReport
	err := c.withSession(func(s *review.Session) error {
		var err error
		report, err = s.Reconcile()
		return err
	})
	if err != nil {
		return c.HandleError(ctx, err, "Failed to reconcile videos")
	}
	return ctx.JSON(http.StatusOK, report)
}

// RepairVideos handles POST /reconcile/repair
func (c *Controller) RepairVideos(ctx echo.Context) error {
	var result *dataset.RepairResult
	err := c.withSession(func(s *review.Session) error {
		var err error
		result, err = s.Repair(ctx.Request().Context())
		return err
	})
	if err != nil {
		return c.HandleError(ctx, err, "Failed to repair videos")
	}
	return ctx.JSON(http.StatusOK, result)
}

// GetRecordHistory handles GET /records/:id/history
func (c *Controller) GetRecordHistory(ctx echo.Context) error {
	if c.history == nil {
		return c.HandleError(ctx, errors.Newf("correction journal is disabled").
			Component("api").
			Category(errors.CategoryNotFound).
			Build(), "Journal disabled")
	}

	id := ctx.Param("id")
	var directory string
	err := c.withSession(func(s *review.Session) error {
		st := s.Status()
		if !st.Loaded {
			return errors.Newf("no review directory loaded").
				Component("api").
				Category(errors.CategoryState).
				Build()
		}
		directory = st.Directory
		return nil
	})
	if err != nil {
		return c.HandleError(ctx, err, "Failed to read history")
	}

	cacheKey := directory + "\x00" + id
	if cached, found := c.historyCache.Get(cacheKey); found {
		return ctx.JSON(http.StatusOK, cached)
	}

	entries, err := c.history.History(ctx.Request().Context(), directory, id)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to read history")
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	c.historyCache.Set(cacheKey, entries, cache.DefaultExpiration)
	return ctx.JSON(http.StatusOK, entries)
}
