// Package api implements the JSON review endpoints served under /api/v1.
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/patrickmn/go-cache"
	"github.com/spf13/afero"

	"github.com/beelab/dancereview/internal/errors"
	"github.com/beelab/dancereview/internal/journal"
	"github.com/beelab/dancereview/internal/logger"
	"github.com/beelab/dancereview/internal/review"
)

// BasePath is the mount point of the API group.
const BasePath = "/api/v1"

// History lookups are cached until the next save or load.
const (
	historyCacheTTL     = 5 * time.Minute
	historyCacheCleanup = 10 * time.Minute
)

// GetLogger returns the api module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("api")
}

// HistoryReader answers journal queries for one record.
type HistoryReader interface {
	History(ctx context.Context, directory, id string) ([]journal.Entry, error)
}

// Controller manages the API routes and handlers. The review session is not
// safe for concurrent use, so every handler that touches it holds sessionMu.
type Controller struct {
	Echo  *echo.Echo
	Group *echo.Group

	sessionMu sync.Mutex
	session   *review.Session

	fs           afero.Fs
	history      HistoryReader
	historyCache *cache.Cache
	log          logger.Logger
}

// Option is a functional option for configuring the Controller.
type Option func(*Controller)

// WithHistory enables the record history endpoint.
func WithHistory(h HistoryReader) Option {
	return func(c *Controller) {
		c.history = h
	}
}

// WithLogger overrides the module logger.
func WithLogger(log logger.Logger) Option {
	return func(c *Controller) {
		c.log = log
	}
}

// New creates the controller and registers its routes on e.
func New(e *echo.Echo, session *review.Session, fs afero.Fs, opts ...Option) *Controller {
	c := &Controller{
		Echo:         e,
		Group:        e.Group(BasePath),
		session:      session,
		fs:           fs,
		historyCache: cache.New(historyCacheTTL, historyCacheCleanup),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = GetLogger()
	}
	c.initRoutes()
	return c
}

// initRoutes registers all API endpoints
func (c *Controller) initRoutes() {
	c.Group.GET("/session", c.GetStatus)
	c.Group.POST("/session/load", c.LoadDirectory)
	c.Group.PUT("/session/category", c.SelectCategory)
	c.Group.PUT("/session/grid", c.SetGrid)

	c.Group.GET("/pages/current", c.GetCurrentPage)
	c.Group.GET("/pages/:page", c.GetPage)
	c.Group.POST("/pages/:page/save", c.SavePage)

	c.Group.GET("/videos/:id", c.StreamVideo)

	c.Group.GET("/dance-types", c.GetDanceTypes)
	c.Group.GET("/summary", c.GetSummary)
	c.Group.GET("/reconcile", c.GetReconcile)
	c.Group.POST("/reconcile/repair", c.RepairVideos)
	c.Group.GET("/records/:id/history", c.GetRecordHistory)
}

// invalidateHistory drops cached journal lookups after the dataset changed.
func (c *Controller) invalidateHistory() {
	c.historyCache.Flush()
}

// withSession runs fn while holding the session lock.
func (c *Controller) withSession(fn func(s *review.Session) error) error {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()
	return fn(c.session)
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"`
}

// NewErrorResponse creates a new API error response
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	errorStr := message
	if err != nil {
		errorStr = err.Error()
	}
	return &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: uuid.NewString()[:8],
	}
}

// StatusFor maps an error category onto an HTTP status.
func StatusFor(err error) int {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he.Code
	case errors.IsValidation(err):
		return http.StatusBadRequest
	case errors.IsNotFound(err):
		return http.StatusNotFound
	case errors.IsCategory(err, errors.CategoryState):
		return http.StatusConflict
	case errors.IsLoadError(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// HandleError logs err and writes an ErrorResponse with the status derived
// from its category.
func (c *Controller) HandleError(ctx echo.Context, err error, message string) error {
	code := StatusFor(err)
	resp := NewErrorResponse(err, message, code)

	fields := []logger.Field{
		logger.String("correlation_id", resp.CorrelationID),
		logger.String("message", message),
		logger.Error(err),
		logger.Int("code", code),
		logger.String("path", ctx.Request().URL.Path),
		logger.String("method", ctx.Request().Method),
	}
	log := c.log.WithContext(ctx.Request().Context())
	if code >= http.StatusInternalServerError {
		log.Error("API error", fields...)
	} else {
		log.Debug("API request rejected", fields...)
	}

	return ctx.JSON(code, resp)
}

// bindJSON decodes the request body, reporting malformed input as a
// validation error.
func bindJSON(ctx echo.Context, v any) error {
	if err := ctx.Bind(v); err != nil {
		return errors.ValidationError("invalid request body: " + err.Error())
	}
	return nil
}
