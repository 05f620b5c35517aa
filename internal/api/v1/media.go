package api

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/beelab/dancereview/internal/errors"
	"github.com/beelab/dancereview/internal/logger"
	"github.com/beelab/dancereview/internal/review"
)

// StreamVideo handles GET /videos/:id
//
// The path is resolved under the session lock; the file is served outside
// it with range support. An open handle stays valid if a save moves the
// file meanwhile.
func (c *Controller) StreamVideo(ctx echo.Context) error {
	id := ctx.Param("id")

	var path string
	err := c.withSession(func(s *review.Session) error {
		var err error
		path, err = s.VideoPath(id)
		return err
	})
	if err != nil {
		return c.HandleError(ctx, err, "Video not available")
	}

	f, err := c.fs.Open(path)
	if err != nil {
		return c.HandleError(ctx, errors.New(err).
			Component("api").
			Category(errors.CategoryNotFound).
			Context("day_dance_id", id).
			Build(), "Video not available")
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			c.log.Debug("Failed to close video", logger.String("day_dance_id", id), logger.Error(cerr))
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return c.HandleError(ctx, errors.New(err).
			Component("api").
			Category(errors.CategoryFileIO).
			Context("day_dance_id", id).
			Build(), "Failed to read video")
	}

	ctx.Response().Header().Set(echo.HeaderContentType, videoContentType(path))
	http.ServeContent(ctx.Response(), ctx.Request(), filepath.Base(path), info.ModTime(), f)
	return nil
}

// Go's built-in MIME table has no video types and system tables vary.
var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
}

func videoContentType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ct, ok := videoTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return echo.MIMEOctetStream
}
