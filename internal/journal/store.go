package journal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/beelab/dancereview/internal/conf"
	"github.com/beelab/dancereview/internal/dataset"
	"github.com/beelab/dancereview/internal/errors"
	"github.com/beelab/dancereview/internal/logger"
	"github.com/beelab/dancereview/internal/review"
)

// GetLogger returns the journal module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("journal")
}

// Store writes and reads journal entries.
type Store struct {
	db     *gorm.DB
	driver string
	log    logger.Logger
}

// Open connects to the database selected by settings and migrates the
// schema.
func Open(settings *conf.JournalSettings, debug bool) (*Store, error) {
	switch strings.ToLower(settings.Driver) {
	case "sqlite", "":
		return OpenSQLite(settings.Path, debug)
	case "mysql":
		return openMySQL(&settings.MySQL, debug)
	default:
		return nil, errors.Newf("unknown journal driver %q", settings.Driver).
			Component("journal").
			Category(errors.CategoryConfiguration).
			Build()
	}
}

// OpenSQLite opens or creates a SQLite journal at path.
func OpenSQLite(path string, debug bool) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, dbError(err, "create_directory", "sqlite")
		}
	}
	return open(sqlite.Open(path), "sqlite", path, debug)
}

func openMySQL(settings *conf.MySQLSettings, debug bool) (*Store, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		settings.Username, settings.Password,
		settings.Host, settings.Port,
		settings.Database)
	return open(mysql.Open(dsn), "mysql", settings.Host+"/"+settings.Database, debug)
}

func open(dialector gorm.Dialector, driver, target string, debug bool) (*Store, error) {
	log := GetLogger().With(logger.String("driver", driver))

	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewGormLogger(DefaultSlowQueryThreshold, level, log),
	})
	if err != nil {
		return nil, dbError(err, "open", driver)
	}

	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, dbError(err, "auto_migrate", driver)
	}

	log.Info("Journal opened", logger.String("target", target))
	return &Store{db: db, driver: driver, log: log}, nil
}

func dbError(err error, op, driver string) error {
	return errors.New(err).
		Component("journal").
		Category(errors.CategoryDatabase).
		Context("operation", op).
		Context("driver", driver).
		Build()
}

// Record inserts entries in one transaction.
func (s *Store) Record(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(entries, 100).Error
	})
	if err != nil {
		return dbError(err, "record", s.driver)
	}
	return nil
}

// History returns the entries for one record of a directory, oldest first.
func (s *Store) History(ctx context.Context, directory, id string) ([]Entry, error) {
	var entries []Entry
	err := s.db.WithContext(ctx).
		Where("directory = ? AND day_dance_id = ?", directory, id).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, dbError(err, "history", s.driver)
	}
	return entries, nil
}

// Commit returns the entries written by one save.
func (s *Store) Commit(ctx context.Context, commitID string) ([]Entry, error) {
	var entries []Entry
	err := s.db.WithContext(ctx).
		Where("commit_id = ?", commitID).
		Order("id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, dbError(err, "commit", s.driver)
	}
	return entries, nil
}

// SaveCommitted records the changes of a committed page.
func (s *Store) SaveCommitted(ctx context.Context, ds *dataset.Dataset, result *review.SaveResult) error {
	entries := EntriesFor(ds.Root, result, time.Now())
	if err := s.Record(ctx, entries); err != nil {
		return err
	}
	s.log.Debug("Save journaled",
		logger.String("commit_id", result.CommitID),
		logger.Int("entries", len(entries)))
	return nil
}

// EntriesFor converts a save result into journal entries.
func EntriesFor(directory string, result *review.SaveResult, now time.Time) []Entry {
	notes := make(map[string]string, len(result.Failures))
	for _, f := range result.Failures {
		notes[f.ID] = f.Kind + ": " + f.Error
	}

	base := Entry{CommitID: result.CommitID, Directory: directory, Page: result.Page, CreatedAt: now}
	entries := make([]Entry, 0, len(result.Swaps)+len(result.DanceTypeChanges)+len(result.Failures))

	for _, sw := range result.Swaps {
		e := base
		e.DayDanceID = sw.ID
		e.Field = FieldCategory
		e.OldValue = sw.From.Label()
		e.NewValue = sw.To.Label()
		e.VideoPath = sw.VideoPath
		e.Note = notes[sw.ID]
		if sw.Reverted && e.Note == "" {
			e.Note = "correction reverted"
		}
		entries = append(entries, e)
	}

	swapped := make(map[string]bool, len(result.Swaps))
	for _, sw := range result.Swaps {
		swapped[sw.ID] = true
	}
	for _, f := range result.Failures {
		if swapped[f.ID] {
			continue
		}
		e := base
		e.DayDanceID = f.ID
		e.Field = FieldRelocationFailure
		e.Note = notes[f.ID]
		entries = append(entries, e)
	}

	for _, dc := range result.DanceTypeChanges {
		e := base
		e.DayDanceID = dc.ID
		e.Field = FieldDanceType
		e.OldValue = danceTypeValue(dc.Old)
		e.NewValue = danceTypeValue(dc.New)
		entries = append(entries, e)
	}
	return entries
}

func danceTypeValue(d *dataset.DanceType) string {
	if d == nil {
		return ""
	}
	return string(*d)
}

// Close releases the database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return dbError(err, "close", s.driver)
	}
	return sqlDB.Close()
}
