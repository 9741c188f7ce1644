// Package importer bulk-loads the catalog fixtures shipped as CSV files.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Result reports, per file, how many rows were read and how many inserted.
type Result struct {
	File     string
	Read     int
	Inserted int
	Skipped  bool
}

type Importer struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Importer {
	return &Importer{db: db}
}

// Run loads every known file from dir in dependency order. Rows whose key
// already exists are left untouched, so Run can be repeated. A missing file is
// skipped with a warning; any other failure aborts that file's transaction and
// stops the import.
func (im *Importer) Run(ctx context.Context, dir string) ([]Result, error) {
	results := make([]Result, 0, len(tables))

	for _, t := range tables {
		rows, err := readTable(dir, t)
		if errors.Is(err, fs.ErrNotExist) {
			log.Ctx(ctx).Warn().Str("file", t.file).Msg("fixture file not found, skipping")
			results = append(results, Result{File: t.file, Skipped: true})
			continue
		}
		if err != nil {
			return results, err
		}

		inserted, err := im.load(ctx, t, rows)
		if err != nil {
			return results, fmt.Errorf("import %s: %w", t.file, err)
		}

		log.Ctx(ctx).Info().
			Str("file", t.file).
			Int("read", len(rows)).
			Int("inserted", inserted).
			Msg("fixture imported")
		results = append(results, Result{File: t.file, Read: len(rows), Inserted: inserted})
	}

	return results, nil
}

func (im *Importer) load(ctx context.Context, t table, rows []any) (int, error) {
	inserted := 0
	err := im.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, row := range rows {
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Omit(clause.Associations).
				Create(row)
			if res.Error != nil {
				return res.Error
			}
			inserted += int(res.RowsAffected)
		}

		// Explicit ids bypass the serial sequence; move it past the
		// imported rows so later inserts do not collide.
		if t.sequence != "" {
			stmt := fmt.Sprintf(
				"SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE(MAX(id), 0) + 1, false) FROM %[1]s",
				t.sequence,
			)
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("reset %s sequence: %w", t.sequence, err)
			}
		}
		return nil
	})
	return inserted, err
}

func readTable(dir string, t table) ([]any, error) {
	f, err := os.Open(filepath.Join(dir, t.file))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", t.file, err)
	}

	rows := make([]any, 0, len(records))
	for i, rec := range records {
		row, err := t.build(rec)
		if err != nil {
			// +2: one for the header, one for 1-based line numbers.
			return nil, fmt.Errorf("%s line %d: %w", t.file, i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
