package review

import (
	"context"
	"time"

	"github.com/beelab/dancereview/internal/dataset"
	"github.com/beelab/dancereview/internal/logger"
)

// Recorder receives review events for metrics.
type Recorder interface {
	RecordLoad(status string, records int)
	RecordSave(direction, status string, duration time.Duration)
	RecordSwap(target string)
	RecordDanceTypeCorrection()
	RecordRelocationFailure()
	RecordMissingVideo()
}

// SaveObserver is told about every save that reached disk.
type SaveObserver interface {
	SaveCommitted(ctx context.Context, ds *dataset.Dataset, result *SaveResult) error
}

type noopRecorder struct{}

func (noopRecorder) RecordLoad(string, int)                   {}
func (noopRecorder) RecordSave(string, string, time.Duration) {}
func (noopRecorder) RecordSwap(string)                        {}
func (noopRecorder) RecordDanceTypeCorrection()               {}
func (noopRecorder) RecordRelocationFailure()                 {}
func (noopRecorder) RecordMissingVideo()                      {}

// GetLogger returns the review module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("review")
}
