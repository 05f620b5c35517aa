package dataset

import "github.com/beelab/dancereview/internal/logger"

// GetLogger returns the dataset module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("dataset")
}
