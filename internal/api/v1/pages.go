package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/beelab/dancereview/internal/errors"
	"github.com/beelab/dancereview/internal/review"
)

// SaveRequest is the body of POST /pages/:page/save.
type SaveRequest struct {
	Direction string             `json:"direction"`
	Items     []review.ItemInput `json:"items"`
}

func pageParam(ctx echo.Context) (int, error) {
	raw := ctx.Param("page")
	page, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.ValidationError("invalid page number " + strconv.Quote(raw))
	}
	return page, nil
}

// GetCurrentPage handles GET /pages/current
func (c *Controller) GetCurrentPage(ctx echo.Context) error {
	var view *review.PageView
	err := c.withSession(func(s *review.Session) error {
		var err error
		view, err = s.CurrentPage()
		return err
	})
	if err != nil {
		return c.HandleError(ctx, err, "Failed to get current page")
	}
	return ctx.JSON(http.StatusOK, view)
}

// GetPage handles GET /pages/:page
func (c *Controller) GetPage(ctx echo.Context) error {
	page, err := pageParam(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "Invalid page")
	}

	var view *review.PageView
	err = c.withSession(func(s *review.Session) error {
		var err error
		view, err = s.Page(page)
		return err
	})
	if err != nil {
		return c.HandleError(ctx, err, "Failed to get page")
	}
	return ctx.JSON(http.StatusOK, view)
}

// SavePage handles POST /pages/:page/save
func (c *Controller) SavePage(ctx echo.Context) error {
	page, err := pageParam(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "Invalid page")
	}

	var req SaveRequest
	if err := bindJSON(ctx, &req); err != nil {
		return c.HandleError(ctx, err, "Invalid save request")
	}
	direction, err := review.ParseDirection(req.Direction)
	if err != nil {
		return c.HandleError(ctx, err, "Invalid direction")
	}

	var result *review.SaveResult
	err = c.withSession(func(s *review.Session) error {
		var err error
		result, err = s.Save(ctx.Request().Context(), review.SaveRequest{
			Page:      page,
			Direction: direction,
			Items:     req.Items,
		})
		return err
	})
	c.invalidateHistory()
	if err != nil {
		return c.HandleError(ctx, err, "Failed to save page")
	}
	return ctx.JSON(http.StatusOK, result)
}
