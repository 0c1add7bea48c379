// Package history records conversion batches in a SQLite database.
package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"image-converter-go/internal/converter"
)

var ErrRunNotFound = errors.New("run not found")

// Run is one recorded batch.
type Run struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	StartedAt  time.Time `gorm:"index" json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	OutputDir  string    `json:"output_dir"`
	Quality    int       `json:"quality"`
	Total      int       `json:"total"`
	Converted  int       `json:"converted"`
	Failed     int       `json:"failed"`
	Items      []Item    `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// Item is the outcome of one file within a Run.
type Item struct {
	ID              uint   `gorm:"primaryKey" json:"-"`
	RunID           string `gorm:"index;size:36" json:"run_id"`
	Position        int    `json:"position"`
	SourcePath      string `json:"source_path"`
	DestinationPath string `json:"destination_path,omitempty"`
	EncoderName     string `json:"encoder"`
	Success         bool   `json:"success"`
	Error           string `json:"error,omitempty"`
	BytesWritten    int64  `json:"bytes_written"`
}

// Database stores runs.
type Database struct {
	db *gorm.DB
}

// Open opens or creates the database at path. ":memory:" is accepted.
func Open(path string) (*Database, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// Every connection to ":memory:" is a separate database.
	if path == ":memory:" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&Run{}, &Item{}); err != nil {
		return nil, fmt.Errorf("failed to migrate history database: %w", err)
	}

	return &Database{db: db}, nil
}

// Close releases the underlying connection.
func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// NewRun builds a Run from the outcomes of a batch.
func NewRun(id, outputDir string, quality int, startedAt time.Time, outcomes []converter.Outcome) Run {
	run := Run{
		ID:         id,
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
		OutputDir:  outputDir,
		Quality:    quality,
		Total:      len(outcomes),
		Items:      make([]Item, 0, len(outcomes)),
	}
	for i, o := range outcomes {
		if o.Success {
			run.Converted++
		} else {
			run.Failed++
		}
		run.Items = append(run.Items, Item{
			RunID:           id,
			Position:        i + 1,
			SourcePath:      o.SourcePath,
			DestinationPath: o.DestinationPath,
			EncoderName:     o.EncoderName,
			Success:         o.Success,
			Error:           o.Error,
			BytesWritten:    o.BytesWritten,
		})
	}
	return run
}

// Record stores run and its items in one transaction.
func (d *Database) Record(run Run) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&run).Error; err != nil {
			return fmt.Errorf("failed to record run %s: %w", run.ID, err)
		}
		return nil
	})
}

// Recent returns up to limit runs, newest first, without their items.
func (d *Database) Recent(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []Run
	if err := d.db.Order("started_at desc").Limit(limit).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// Get returns one run with its items in input order.
func (d *Database) Get(id string) (*Run, error) {
	var run Run
	err := d.db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position asc")
	}).First(&run, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}
	return &run, nil
}
