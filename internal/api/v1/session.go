package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/beelab/dancereview/internal/dataset"
	"github.com/beelab/dancereview/internal/errors"
	"github.com/beelab/dancereview/internal/review"
)

// LoadRequest opens a review directory. Rows and columns are optional.
type LoadRequest struct {
	Directory string `json:"directory"`
	Rows      int    `json:"rows,omitempty"`
	Columns   int    `json:"columns,omitempty"`
}

// CategoryRequest selects the working category by label.
type CategoryRequest struct {
	Category string `json:"category"`
}

// GridRequest changes the page layout.
type GridRequest struct {
	Rows    int `json:"rows"`
	Columns int `json:"columns"`
}

// GetStatus handles GET /session
func (c *Controller) GetStatus(ctx echo.Context) error {
	var status review.Status
	_ = c.withSession(func(s *review.Session) error {
		status = s.Status()
		return nil
	})
	return ctx.JSON(http.StatusOK, status)
}

// LoadDirectory handles POST /session/load
func (c *Controller) LoadDirectory(ctx echo.Context) error {
	var req LoadRequest
	if err := bindJSON(ctx, &req); err != nil {
		return c.HandleError(ctx, err, "Invalid load request")
	}
	req.Directory = strings.TrimSpace(req.Directory)
	if req.Directory == "" {
		return c.HandleError(ctx, errors.ValidationError("directory is required"), "Invalid load request")
	}

	var grid *review.Grid
	if req.Rows != 0 || req.Columns != 0 {
		g := review.Grid{Rows: req.Rows, Columns: req.Columns}
		if err := g.Validate(); err != nil {
			return c.HandleError(ctx, err, "Invalid grid")
		}
		grid = &g
	}

	var status review.Status
	err := c.withSession(func(s *review.Session) error {
		if err := s.Load(ctx.Request().Context(), req.Directory); err != nil {
			return err
		}
		if grid != nil && *grid != s.Status().Grid {
			if err := s.SetGrid(*grid); err != nil {
				return err
			}
		}
		status = s.Status()
		return nil
	})
	if err != nil {
		return c.HandleError(ctx, err, "Failed to load review directory")
	}
	c.invalidateHistory()
	return ctx.JSON(http.StatusOK, status)
}

// SelectCategory handles PUT /session/category
func (c *Controller) SelectCategory(ctx echo.Context) error {
	var req CategoryRequest
	if err := bindJSON(ctx, &req); err != nil {
		return c.HandleError(ctx, err, "Invalid category request")
	}
	category, err := dataset.ParseCategory(req.Category)
	if err != nil {
		return c.HandleError(ctx, errors.ValidationError(err.Error()), "Invalid category")
	}

	var status review.Status
	err = c.withSession(func(s *review.Session) error {
		if err := s.SelectCategory(category); err != nil {
			return err
		}
		status = s.Status()
		return nil
	})
	if err != nil {
		return c.HandleError(ctx, err, "Failed to select category")
	}
	return ctx.JSON(http.StatusOK, status)
}

// SetGrid handles PUT /session/grid
func (c *Controller) SetGrid(ctx echo.Context) error {
	var req GridRequest
	if err := bindJSON(ctx, &req); err != nil {
		return c.HandleError(ctx, err, "Invalid grid request")
	}

	var status review.Status
	err := c.withSession(func(s *review.Session) error {
		if err := s.SetGrid(review.Grid{Rows: req.Rows, Columns: req.Columns}); err != nil {
			return err
		}
		status = s.Status()
		return nil
	})
	if err != nil {
		return c.HandleError(ctx, err, "Failed to change grid")
	}
	return ctx.JSON(http.StatusOK, status)
}
