package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingReporter struct {
	enabled  bool
	reported []*EnhancedError
}

func (r *recordingReporter) ReportError(ee *EnhancedError) {
	r.reported = append(r.reported, ee)
	ee.MarkReported()
}

func (r *recordingReporter) IsEnabled() bool { return r.enabled }

func TestBuildDefaults(t *testing.T) {
	SetTelemetryReporter(nil)

	ee := New(fmt.Errorf("test error")).Build()

	assert.Equal(t, "test error", ee.Error())
	assert.Equal(t, ComponentUnknown, ee.Component)
	assert.Equal(t, CategoryGeneric, ee.Category)
	assert.Nil(t, ee.GetContext())
}

func TestBuildKeepsContextAndCategory(t *testing.T) {
	SetTelemetryReporter(nil)

	base := fmt.Errorf("disk full")
	ee := New(base).
		Component("dataset").
		Category(CategoryPersistence).
		Context("path", "/data/day1/data.csv").
		Build()

	assert.True(t, IsPersistenceError(ee))
	assert.False(t, IsLoadError(ee))
	assert.ErrorIs(t, ee, base)
	assert.Equal(t, "/data/day1/data.csv", ee.GetContext()["path"])

	wrapped := fmt.Errorf("save page 2: %w", ee)
	assert.True(t, IsPersistenceError(wrapped))

	var target *EnhancedError
	require.True(t, As(wrapped, &target))
	assert.Equal(t, "dataset", target.Component)
}

func TestEnhancedErrorIsMatchesCategory(t *testing.T) {
	SetTelemetryReporter(nil)

	a := New(NewStd("a")).Category(CategoryNotFound).Build()
	b := New(NewStd("b")).Category(CategoryNotFound).Build()
	c := New(NewStd("c")).Category(CategoryState).Build()

	assert.True(t, Is(a, b))
	assert.False(t, Is(a, c))
	assert.True(t, IsNotFound(a))
}

func TestTelemetryReporterReceivesBuiltErrors(t *testing.T) {
	reporter := &recordingReporter{enabled: true}
	SetTelemetryReporter(reporter)
	t.Cleanup(func() { SetTelemetryReporter(nil) })

	ee := New(NewStd("boom")).Category(CategoryFileRelocation).Build()

	require.Len(t, reporter.reported, 1)
	assert.Same(t, ee, reporter.reported[0])
	assert.True(t, ee.IsReported())
}

func TestDisabledReporterIsSkipped(t *testing.T) {
	reporter := &recordingReporter{enabled: false}
	SetTelemetryReporter(reporter)
	t.Cleanup(func() { SetTelemetryReporter(nil) })

	_ = ValidationError("bad rows")

	assert.Empty(t, reporter.reported)
}
