// Package telemetry wires opt-in Sentry error reporting into the errors
// package.
package telemetry

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/beelab/dancereview/internal/buildinfo"
	"github.com/beelab/dancereview/internal/conf"
	"github.com/beelab/dancereview/internal/errors"
	"github.com/beelab/dancereview/internal/logger"
)

// FlushTimeout bounds how long shutdown waits for pending events.
const FlushTimeout = 2 * time.Second

// GetLogger returns the telemetry module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("telemetry")
}

// Init configures Sentry when telemetry is enabled and installs the error
// reporter. The returned function flushes pending events and is safe to
// call when telemetry is disabled.
func Init(settings *conf.TelemetrySettings, info *buildinfo.Context) (func(), error) {
	if !settings.Enabled {
		GetLogger().Debug("Telemetry disabled")
		errors.SetTelemetryReporter(nil)
		return func() {}, nil
	}
	return initWithOptions(sentry.ClientOptions{
		Dsn:         settings.DSN,
		Environment: settings.Environment,
	}, info)
}

func initWithOptions(opts sentry.ClientOptions, info *buildinfo.Context) (func(), error) {
	opts.SampleRate = 1.0
	opts.AttachStacktrace = false
	opts.ServerName = ""
	opts.Release = info.Release()
	opts.BeforeSend = func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
		return applyPrivacyFilters(event)
	}

	if err := sentry.Init(opts); err != nil {
		return nil, fmt.Errorf("sentry initialization failed: %w", err)
	}

	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("version", info.GetVersion())
		scope.SetContext("application", map[string]any{
			"name":       "dancereview",
			"version":    info.GetVersion(),
			"build_date": info.GetBuildDate(),
		})
	})

	errors.SetTelemetryReporter(errors.NewSentryReporter(true))
	GetLogger().Info("Telemetry enabled", logger.String("environment", opts.Environment))

	return func() {
		if !sentry.Flush(FlushTimeout) {
			GetLogger().Warn("Telemetry flush timed out")
		}
	}, nil
}

// applyPrivacyFilters strips host and user data from an event.
func applyPrivacyFilters(event *sentry.Event) *sentry.Event {
	event.User = sentry.User{}
	event.ServerName = ""

	if event.Contexts != nil {
		delete(event.Contexts, "device")
		delete(event.Contexts, "os")
		delete(event.Contexts, "runtime")
	}

	for k := range event.Extra {
		if k != "error_type" && k != "component" {
			delete(event.Extra, k)
		}
	}

	if event.Tags != nil {
		delete(event.Tags, "server_name")
		delete(event.Tags, "hostname")
	}

	event.Message = scrubPaths(event.Message)
	for i := range event.Exception {
		event.Exception[i].Value = scrubPaths(event.Exception[i].Value)
	}
	return event
}

// scrubPaths reduces absolute paths in s to their base names.
func scrubPaths(s string) string {
	fields := strings.Fields(s)
	changed := false
	for i, f := range fields {
		trimmed := strings.Trim(f, `"':,()`)
		if filepath.IsAbs(trimmed) {
			fields[i] = strings.Replace(f, trimmed, filepath.Base(trimmed), 1)
			changed = true
		}
	}
	if !changed {
		return s
	}
	return strings.Join(fields, " ")
}
