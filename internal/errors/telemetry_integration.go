// Package errors - telemetry integration (optional)
package errors

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/getsentry/sentry-go"
)

// SentryReporter implements TelemetryReporter for Sentry
type SentryReporter struct {
	enabled bool
}

// NewSentryReporter creates a new Sentry telemetry reporter
func NewSentryReporter(enabled bool) *SentryReporter {
	return &SentryReporter{enabled: enabled}
}

// IsEnabled returns whether Sentry telemetry is enabled
func (sr *SentryReporter) IsEnabled() bool {
	return sr.enabled
}

// ReportError reports an enhanced error to Sentry. Path values in the
// context are reduced to their base name.
func (sr *SentryReporter) ReportError(ee *EnhancedError) {
	if !sr.enabled || ee.IsReported() {
		return
	}

	title := fmt.Sprintf("%s %s", ee.Component, ee.Category)
	level := getErrorLevel(ee.Category)

	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", ee.Component)
		scope.SetTag("category", string(ee.Category))
		scope.SetTag("error_type", fmt.Sprintf("%T", ee.Err))
		for key, value := range ee.GetContext() {
			if s, ok := value.(string); ok && strings.ContainsRune(s, filepath.Separator) {
				value = filepath.Base(s)
			}
			scope.SetContext(key, map[string]any{"value": value})
		}
		scope.SetLevel(level)
		scope.SetFingerprint([]string{title})

		event := sentry.NewEvent()
		event.Message = ee.Err.Error()
		event.Level = level
		event.Exception = []sentry.Exception{{Type: title, Value: ee.Err.Error()}}
		sentry.CaptureEvent(event)
	})

	ee.MarkReported()
}

// getErrorLevel maps categories onto Sentry severities.
func getErrorLevel(category ErrorCategory) sentry.Level {
	switch category {
	case CategoryPersistence, CategoryFileRelocation, CategoryDatabase:
		return sentry.LevelError
	case CategoryValidation, CategoryNotFound:
		return sentry.LevelInfo
	default:
		return sentry.LevelWarning
	}
}
