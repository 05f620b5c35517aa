package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/beelab/dancereview/internal/dataset"
	"github.com/beelab/dancereview/internal/errors"
	"github.com/beelab/dancereview/internal/journal"
	"github.com/beelab/dancereview/internal/logger"
	"github.com/beelab/dancereview/internal/review"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// The go-cache janitor stops only when its cache is garbage collected.
		goleak.IgnoreTopFunction("github.com/patrickmn/go-cache.(*janitor).Run"),
	)
}

const root = "/reviews/day1"

// writeFixture creates four untagged records and one tagged record. d4 has
// no video.
func writeFixture(t *testing.T, fs afero.Fs) {
	t.Helper()
	layout := dataset.DefaultLayout()
	require.NoError(t, fs.MkdirAll(filepath.Join(root, layout.TaggedDir), 0o755))
	require.NoError(t, fs.MkdirAll(filepath.Join(root, layout.UntaggedDir), 0o755))

	var b strings.Builder
	b.WriteString("day_dance_id,waggle_id,category,category_label,confidence,corrected_category,corrected_category_label,dance_type,corrected_dance_type\n")
	rows := []struct {
		id    string
		cat   dataset.Category
		video bool
	}{
		{"d1", dataset.CategoryUntagged, true},
		{"d2", dataset.CategoryUntagged, true},
		{"d3", dataset.CategoryUntagged, true},
		{"d4", dataset.CategoryUntagged, false},
		{"t1", dataset.CategoryTagged, true},
	}
	for _, r := range rows {
		fmt.Fprintf(&b, "%s,w-%s,%d,%s,0.8,,,waggle,\n", r.id, r.id, int(r.cat), r.cat.Label())
		if r.video {
			path := filepath.Join(root, layout.CategoryDir(r.cat), r.id+".mp4")
			require.NoError(t, afero.WriteFile(fs, path, []byte("video-"+r.id), 0o644))
		}
	}
	require.NoError(t, afero.WriteFile(fs, filepath.Join(root, layout.DataFile), []byte(b.String()), 0o644))
}

type testEnv struct {
	echo       *echo.Echo
	fs         afero.Fs
	controller *Controller
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	fs := afero.NewMemMapFs()
	writeFixture(t, fs)

	quiet := logger.NewSlogLogger(&bytes.Buffer{}, logger.LogLevelDebug, time.UTC)
	session, err := review.NewSession(review.Options{
		Fs:       fs,
		Category: dataset.CategoryUntagged,
		Logger:   quiet,
	})
	require.NoError(t, err)

	e := echo.New()
	opts = append([]Option{WithLogger(quiet)}, opts...)
	c := New(e, session, fs, opts...)
	return &testEnv{echo: e, fs: fs, controller: c}
}

func (env *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, BasePath+path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	env.echo.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) load(t *testing.T, rows, columns int) review.Status {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/session/load", LoadRequest{Directory: root, Rows: rows, Columns: columns})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var st review.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	return st
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestStatusBeforeLoad(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/session", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	st := decode[review.Status](t, rec)
	assert.False(t, st.Loaded)
	assert.Equal(t, dataset.CategoryUntagged, st.Category)
	assert.Equal(t, review.DefaultGrid(), st.Grid)
}

func TestEndpointsRequireLoad(t *testing.T) {
	env := newTestEnv(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/pages/current"},
		{http.MethodGet, "/pages/1"},
		{http.MethodGet, "/summary"},
		{http.MethodGet, "/reconcile"},
		{http.MethodGet, "/videos/d1"},
	} {
		rec := env.do(t, tc.method, tc.path, nil)
		assert.Equal(t, http.StatusConflict, rec.Code, tc.path)
	}

	rec := env.do(t, http.MethodPost, "/pages/1/save", SaveRequest{Direction: "advance"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLoadDirectory(t *testing.T) {
	env := newTestEnv(t)
	st := env.load(t, 1, 2)
	assert.True(t, st.Loaded)
	assert.Equal(t, root, st.Directory)
	assert.Equal(t, review.Grid{Rows: 1, Columns: 2}, st.Grid)
	assert.Equal(t, 4, st.InView)
	assert.Equal(t, 2, st.PageCount)
	assert.Equal(t, 5, st.Records)
}

func TestLoadDirectoryErrors(t *testing.T) {
	env := newTestEnv(t)
	testCases := []struct {
		name string
		body LoadRequest
		code int
	}{
		{"missing directory field", LoadRequest{}, http.StatusBadRequest},
		{"grid out of range", LoadRequest{Directory: root, Rows: 6, Columns: 2}, http.StatusBadRequest},
		{"directory absent", LoadRequest{Directory: "/nowhere"}, http.StatusUnprocessableEntity},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/session/load", tc.body)
			assert.Equal(t, tc.code, rec.Code, rec.Body.String())
			resp := decode[ErrorResponse](t, rec)
			assert.Equal(t, tc.code, resp.Code)
			assert.Len(t, resp.CorrelationID, 8)
		})
	}

	st := decode[review.Status](t, env.do(t, http.MethodGet, "/session", nil))
	assert.False(t, st.Loaded, "failed loads leave the session empty")
}

func TestPages(t *testing.T) {
	env := newTestEnv(t)
	env.load(t, 1, 3)

	view := decode[review.PageView](t, env.do(t, http.MethodGet, "/pages/current", nil))
	require.Len(t, view.Items, 3)
	assert.Equal(t, 1, view.Page)
	assert.True(t, view.Current)
	assert.Equal(t, "d1", view.Items[0].ID)
	assert.Equal(t, review.Cell{Row: 0, Col: 2}, view.Items[2].Cell)
	assert.Equal(t, dataset.DanceWaggle, view.Items[0].DanceType)

	second := decode[review.PageView](t, env.do(t, http.MethodGet, "/pages/2", nil))
	require.Len(t, second.Items, 1)
	assert.Equal(t, "d4", second.Items[0].ID)
	assert.False(t, second.Items[0].HasVideo)
	assert.False(t, second.Current)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/pages/3", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/pages/abc", nil).Code)
}

func TestSavePage(t *testing.T) {
	env := newTestEnv(t)
	env.load(t, 1, 3)

	wrong := true
	rec := env.do(t, http.MethodPost, "/pages/1/save", SaveRequest{
		Direction: "next",
		Items: []review.ItemInput{
			{ID: "d1", WrongCategory: &wrong},
			{ID: "d2", DanceType: "round"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decode[review.SaveResult](t, rec)
	assert.Equal(t, []string{"d1"}, res.Changed)
	require.Len(t, res.Swaps, 1)
	assert.Equal(t, dataset.CategoryTagged, res.Swaps[0].To)
	require.Len(t, res.DanceTypeChanges, 1)
	assert.Equal(t, "d2", res.DanceTypeChanges[0].ID)
	assert.Equal(t, 2, res.CurrentPage)
	assert.NotEmpty(t, res.CommitID)

	moved, err := afero.Exists(env.fs, filepath.Join(root, dataset.DefaultTaggedDir, "d1.mp4"))
	require.NoError(t, err)
	assert.True(t, moved)

	data, err := afero.ReadFile(env.fs, filepath.Join(root, dataset.DefaultDataFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), "d1,w-d1,1,untagged,0.8,0,tagged")

	// The saved page keeps its checkmark when revisited.
	view := decode[review.PageView](t, env.do(t, http.MethodGet, "/pages/1", nil))
	assert.True(t, view.Items[0].WrongCategory)
	assert.Equal(t, "d1 - corrected", view.Items[0].Label)
}

func TestSavePageValidation(t *testing.T) {
	env := newTestEnv(t)
	env.load(t, 1, 3)

	testCases := []struct {
		name string
		path string
		body any
	}{
		{"unknown direction", "/pages/1/save", SaveRequest{Direction: "sideways"}},
		{"page out of range", "/pages/9/save", SaveRequest{Direction: "advance"}},
		{"item not on page", "/pages/1/save", SaveRequest{Direction: "advance", Items: []review.ItemInput{{ID: "d4", DanceType: "round"}}}},
		{"unknown dance type", "/pages/1/save", SaveRequest{Direction: "advance", Items: []review.ItemInput{{ID: "d1", DanceType: "salsa"}}}},
		{"malformed body", "/pages/1/save", "not an object"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, tc.path, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}

	st := decode[review.Status](t, env.do(t, http.MethodGet, "/session", nil))
	assert.Equal(t, 1, st.Page)
}

func TestSelectCategoryAndGrid(t *testing.T) {
	env := newTestEnv(t)
	env.load(t, 1, 3)

	rec := env.do(t, http.MethodPut, "/session/category", CategoryRequest{Category: "tagged"})
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[review.Status](t, rec)
	assert.Equal(t, dataset.CategoryTagged, st.Category)
	assert.Equal(t, 1, st.InView)

	assert.Equal(t, http.StatusBadRequest,
		env.do(t, http.MethodPut, "/session/category", CategoryRequest{Category: "maybe"}).Code)

	rec = env.do(t, http.MethodPut, "/session/grid", GridRequest{Rows: 5, Columns: 10})
	require.Equal(t, http.StatusOK, rec.Code)
	st = decode[review.Status](t, rec)
	assert.Equal(t, review.Grid{Rows: 5, Columns: 10}, st.Grid)
	assert.Equal(t, 1, st.Page)

	assert.Equal(t, http.StatusBadRequest,
		env.do(t, http.MethodPut, "/session/grid", GridRequest{Rows: 0, Columns: 1}).Code)
}

func TestStreamVideo(t *testing.T) {
	env := newTestEnv(t)
	env.load(t, 2, 5)

	rec := env.do(t, http.MethodGet, "/videos/d1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "video-d1", rec.Body.String())
	assert.Equal(t, "video/mp4", rec.Header().Get(echo.HeaderContentType))

	req := httptest.NewRequest(http.MethodGet, BasePath+"/videos/d2", nil)
	req.Header.Set("Range", "bytes=6-7")
	ranged := httptest.NewRecorder()
	env.echo.ServeHTTP(ranged, req)
	assert.Equal(t, http.StatusPartialContent, ranged.Code)
	assert.Equal(t, "d2", ranged.Body.String())

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/videos/d4", nil).Code, "record without video")
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/videos/zz", nil).Code, "unknown record")
}

func TestDanceTypes(t *testing.T) {
	env := newTestEnv(t)
	opts := decode[[]DanceTypeOption](t, env.do(t, http.MethodGet, "/dance-types", nil))
	require.Len(t, opts, len(dataset.DanceTypes()))
	assert.Equal(t, DanceTypeOption{Value: dataset.DanceWaggle, Label: "Waggle", Default: true}, opts[0])
	for _, o := range opts[1:] {
		assert.False(t, o.Default)
		assert.Equal(t, strings.ToUpper(string(o.Value)[:1]), o.Label[:1])
	}
}

func TestSummaryAndReconcile(t *testing.T) {
	env := newTestEnv(t)
	env.load(t, 2, 5)

	summary := decode[dataset.Summary](t, env.do(t, http.MethodGet, "/summary", nil))
	assert.Equal(t, 5, summary.Total)
	assert.Equal(t, 4, summary.ByCategory["untagged"])
	assert.Equal(t, 1, summary.MissingVideos)

	require.NoError(t, env.fs.Rename(
		filepath.Join(root, dataset.DefaultUntaggedDir, "d3.mp4"),
		filepath.Join(root, dataset.DefaultTaggedDir, "d3.mp4")))
	env.load(t, 2, 5)

	report := decode[dataset.ReconcileReport](t, env.do(t, http.MethodGet, "/reconcile", nil))
	assert.Equal(t, []string{"d4"}, report.Missing)
	require.Len(t, report.Misplaced, 1)
	assert.Equal(t, "d3", report.Misplaced[0].ID)

	repaired := decode[dataset.RepairResult](t, env.do(t, http.MethodPost, "/reconcile/repair", nil))
	assert.Equal(t, []string{"d3"}, repaired.Moved)

	report = decode[dataset.ReconcileReport](t, env.do(t, http.MethodGet, "/reconcile", nil))
	assert.Empty(t, report.Misplaced)
}

type fakeHistory struct {
	directory, id string
	calls         int
	entries       []journal.Entry
	err           error
}

func (f *fakeHistory) History(_ context.Context, directory, id string) ([]journal.Entry, error) {
	f.directory, f.id = directory, id
	f.calls++
	return f.entries, f.err
}

func TestRecordHistory(t *testing.T) {
	t.Run("journal disabled", func(t *testing.T) {
		env := newTestEnv(t)
		env.load(t, 2, 5)
		assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/records/d1/history", nil).Code)
	})

	t.Run("journal enabled", func(t *testing.T) {
		h := &fakeHistory{entries: []journal.Entry{{CommitID: "c1", DayDanceID: "d1", Field: journal.FieldCategory}}}
		env := newTestEnv(t, WithHistory(h))

		assert.Equal(t, http.StatusConflict, env.do(t, http.MethodGet, "/records/d1/history", nil).Code)

		env.load(t, 2, 5)
		rec := env.do(t, http.MethodGet, "/records/d1/history", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		entries := decode[[]journal.Entry](t, rec)
		require.Len(t, entries, 1)
		assert.Equal(t, "c1", entries[0].CommitID)
		assert.Equal(t, root, h.directory)
		assert.Equal(t, "d1", h.id)
	})

	t.Run("lookups cached until save", func(t *testing.T) {
		h := &fakeHistory{entries: []journal.Entry{{CommitID: "c1", DayDanceID: "d1"}}}
		env := newTestEnv(t, WithHistory(h))
		env.load(t, 2, 5)

		for range 3 {
			require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/records/d1/history", nil).Code)
		}
		assert.Equal(t, 1, h.calls)

		require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/pages/1/save", SaveRequest{Direction: "advance"}).Code)
		require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/records/d1/history", nil).Code)
		assert.Equal(t, 2, h.calls)
	})

	t.Run("journal failure", func(t *testing.T) {
		h := &fakeHistory{err: errors.NewStd("database is locked")}
		env := newTestEnv(t, WithHistory(h))
		env.load(t, 2, 5)
		assert.Equal(t, http.StatusInternalServerError, env.do(t, http.MethodGet, "/records/d1/history", nil).Code)
	})
}

func TestConcurrentRequestsAreSerialised(t *testing.T) {
	env := newTestEnv(t)
	env.load(t, 1, 1)

	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			for range 10 {
				rec := env.do(t, http.MethodGet, "/pages/current", nil)
				assert.Equal(t, http.StatusOK, rec.Code)
			}
		})
	}
	for page := 1; page <= 3; page++ {
		rec := env.do(t, http.MethodPost, fmt.Sprintf("/pages/%d/save", page), SaveRequest{Direction: "advance"})
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	wg.Wait()

	st := decode[review.Status](t, env.do(t, http.MethodGet, "/session", nil))
	assert.Equal(t, 4, st.Page)
}

func TestStatusFor(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", errors.ValidationError("bad"), http.StatusBadRequest},
		{"not found", errors.Newf("x").Category(errors.CategoryNotFound).Build(), http.StatusNotFound},
		{"state", errors.Newf("x").Category(errors.CategoryState).Build(), http.StatusConflict},
		{"load", errors.Newf("x").Category(errors.CategoryDatasetLoad).Build(), http.StatusUnprocessableEntity},
		{"persistence", errors.Newf("x").Category(errors.CategoryPersistence).Build(), http.StatusInternalServerError},
		{"plain", errors.NewStd("x"), http.StatusInternalServerError},
		{"echo", echo.NewHTTPError(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StatusFor(tc.err))
		})
	}
}
