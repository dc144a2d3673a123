// Package catalog persists named XML programs (not engine state — the
// engine itself stays fully in-memory per spec §6 "Persisted state:
// none") in a small SQLite-backed library a CLI or editor can browse,
// grounded on the teacher's gorm+SQLite connection and model style
// (db/sqlite.go, models/models.go).
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite" // pure-Go driver, used when PureGo is requested
	sqlitecgo "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gorm.io/datatypes"
)

// Entry is one catalog row: a named program, its raw XML source, and
// free-form tags for browsing (spec §4.10 — a catalog of program text,
// never of grid/engine state).
type Entry struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"type:varchar(255);uniqueIndex;not null"`
	Description string `gorm:"type:text"`
	XML         string `gorm:"type:text;not null"`
	Tags        datatypes.JSON
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// Options configures Connect.
type Options struct {
	DSN    string
	PureGo bool // use glebarez/sqlite instead of the cgo mattn-backed driver
	Debug  bool
}

// Connect opens (creating if needed) the catalog database at opts.DSN and
// runs its migration, following the teacher's db.Connect shape: ensure
// the parent directory exists, open the requested dialector, optionally
// enable query logging.
func Connect(opts Options) (*gorm.DB, error) {
	if dir := filepath.Dir(opts.DSN); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("catalog: failed to create database directory: %w", err)
		}
	}

	config := &gorm.Config{}
	if opts.Debug {
		config.Logger = logger.Default.LogMode(logger.Info)
	}

	var dialector gorm.Dialector
	if opts.PureGo {
		dialector = sqlite.Open(opts.DSN)
	} else {
		dialector = sqlitecgo.Open(opts.DSN)
	}

	db, err := gorm.Open(dialector, config)
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to connect: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Exec("PRAGMA foreign_keys = ON")
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("catalog: migration failed: %w", err)
	}
	return db, nil
}

// Put inserts or updates the catalog entry named e.Name.
func Put(db *gorm.DB, e *Entry) error {
	return db.Where("name = ?", e.Name).Assign(*e).FirstOrCreate(e).Error
}

// Get loads the catalog entry named name.
func Get(db *gorm.DB, name string) (*Entry, error) {
	var e Entry
	if err := db.Where("name = ?", name).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// List returns every catalog entry, most recently updated first.
func List(db *gorm.DB) ([]Entry, error) {
	var out []Entry
	if err := db.Order("updated_at desc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
