// Package dataset reads and writes a review directory: the data.csv record
// table plus the videos stored in the tagged and untagged directories.
package dataset

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/beelab/dancereview/internal/errors"
	"github.com/beelab/dancereview/internal/logger"
)

// Dataset is the record table of one review directory together with the
// index of its videos.
type Dataset struct {
	Root    string
	Layout  Layout
	Records []*Record
	Videos  *VideoIndex

	byID  map[string]*Record
	extra []string
}

// Load reads root/data.csv and scans the category directories. Any failure
// yields a dataset-load error and no Dataset.
func Load(ctx context.Context, fs afero.Fs, root string, layout Layout) (*Dataset, error) {
	start := time.Now()
	layout = layout.withDefaults()

	loadErr := func(err error, op string) error {
		return errors.New(err).
			Component("dataset").
			Category(errors.CategoryDatasetLoad).
			Context("operation", op).
			Context("root", root).
			Build()
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := layout.Validate(); err != nil {
		return nil, loadErr(err, "validate_layout")
	}
	if ok, err := afero.DirExists(fs, root); err != nil || !ok {
		if err == nil {
			err = fmt.Errorf("directory %s does not exist", root)
		}
		return nil, loadErr(err, "stat_root")
	}
	for _, c := range Categories() {
		dir := filepath.Join(root, layout.CategoryDir(c))
		if ok, err := afero.DirExists(fs, dir); err != nil || !ok {
			if err == nil {
				err = fmt.Errorf("category directory %s does not exist", dir)
			}
			return nil, loadErr(err, "stat_category_dir")
		}
	}

	dataPath := filepath.Join(root, layout.DataFile)
	raw, err := afero.ReadFile(fs, dataPath)
	if err != nil {
		return nil, loadErr(err, "read_data_file")
	}
	tbl, err := decodeTable(bytes.NewReader(raw))
	if err != nil {
		return nil, loadErr(err, "parse_data_file")
	}

	ds := &Dataset{
		Root:    root,
		Layout:  layout,
		Records: tbl.records,
		extra:   tbl.extra,
		byID:    make(map[string]*Record, len(tbl.records)),
	}
	for _, rec := range ds.Records {
		ds.byID[rec.DayDanceID] = rec
	}

	videos, err := buildVideoIndex(fs, root, layout, func(id string) (Category, bool) {
		if rec, ok := ds.byID[id]; ok {
			return rec.EffectiveCategory(), true
		}
		return 0, false
	})
	if err != nil {
		return nil, loadErr(err, "scan_videos")
	}
	ds.Videos = videos

	GetLogger().Info("Dataset loaded",
		logger.String("root", root),
		logger.Int("records", len(ds.Records)),
		logger.Int("videos", videos.Len()),
		logger.Duration("elapsed", time.Since(start)))
	if dups := videos.Duplicates(); len(dups) > 0 {
		GetLogger().Warn("Duplicate videos found",
			logger.String("root", root),
			logger.Strings("paths", dups))
	}

	return ds, nil
}

// Record returns the record with the given id.
func (ds *Dataset) Record(id string) (*Record, bool) {
	rec, ok := ds.byID[id]
	return rec, ok
}

// DataPath is the full path of the dataset file.
func (ds *Dataset) DataPath() string {
	return filepath.Join(ds.Root, ds.Layout.DataFile)
}

// CategoryDir is the full path of the directory for category c.
func (ds *Dataset) CategoryDir(c Category) string {
	return filepath.Join(ds.Root, ds.Layout.CategoryDir(c))
}

// Save overwrites the dataset file with every record. The file is written to
// a temporary name first and renamed into place.
func (ds *Dataset) Save(fs afero.Fs) error {
	persistErr := func(err error, op string) error {
		return errors.New(err).
			Component("dataset").
			Category(errors.CategoryPersistence).
			Context("operation", op).
			Context("path", ds.DataPath()).
			Build()
	}

	var buf bytes.Buffer
	if err := encodeTable(&buf, ds.Records, ds.extra); err != nil {
		return persistErr(err, "encode")
	}

	tmp, err := afero.TempFile(fs, ds.Root, "data-*.csv.tmp")
	if err != nil {
		return persistErr(err, "create_temp")
	}
	tmpName := tmp.Name()
	// Removing after a successful rename fails harmlessly.
	defer func() { _ = fs.Remove(tmpName) }()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return persistErr(err, "write_temp")
	}
	if err := tmp.Close(); err != nil {
		return persistErr(err, "close_temp")
	}
	if err := fs.Chmod(tmpName, 0o644); err != nil && !os.IsNotExist(err) {
		GetLogger().Debug("Failed to set dataset file mode", logger.Error(err))
	}
	if err := fs.Rename(tmpName, ds.DataPath()); err != nil {
		return persistErr(err, "rename")
	}
	return nil
}
