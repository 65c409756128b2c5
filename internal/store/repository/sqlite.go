package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	importer "sh3d-importer/internal/importer/models"
	"sh3d-importer/internal/store/models"
)

// ============================================================
// SQLite Repository
// ============================================================

var ErrNotFound = errors.New("import not found")

type Repository struct {
	db *sql.DB
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Init применяет миграции
func (r *Repository) Init(ctx context.Context, migrationsPath string) error {
	if err := r.runMigrations(ctx, migrationsPath); err != nil {
		return errors.Wrap(err, "migrations")
	}
	return nil
}

// Create сохраняет запись импорта
func (r *Repository) Create(ctx context.Context, rec *models.ImportRecord) error {
	counts, err := json.Marshal(rec.Counts)
	if err != nil {
		return errors.Wrap(err, "encode counts")
	}
	warnings := rec.Warnings
	if warnings == nil {
		warnings = []importer.Warning{}
	}
	encoded, err := json.Marshal(warnings)
	if err != nil {
		return errors.Wrap(err, "encode warnings")
	}
	options := rec.Options
	if options == "" {
		options = "{}"
	}

	_, err = r.db.ExecContext(ctx, `
        INSERT INTO imports (id, filename, size, archive_key, status, error_kind, error_message, options, counts, warnings)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `, rec.ID, rec.Filename, rec.Size, rec.ArchiveKey, string(rec.Status), rec.ErrorKind, rec.ErrorMessage,
		options, string(counts), string(encoded))
	if err != nil {
		return errors.Wrapf(err, "insert import %s", rec.ID)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*models.ImportRecord, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, filename, size, archive_key, status, error_kind, error_message, options, counts, warnings, created_at
        FROM imports
        WHERE id = ?
    `, id)

	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(ErrNotFound, "%s", id)
		}
		return nil, err
	}
	return rec, nil
}

// List возвращает последние импорты, новые первыми
func (r *Repository) List(ctx context.Context, limit int) ([]*models.ImportRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, filename, size, archive_key, status, error_kind, error_message, options, counts, warnings, created_at
        FROM imports
        ORDER BY created_at DESC, rowid DESC
        LIMIT ?
    `, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list imports")
	}
	defer rows.Close()

	var out []*models.ImportRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*models.ImportRecord, error) {
	var (
		rec              models.ImportRecord
		status           string
		counts, warnings string
	)
	if err := s.Scan(&rec.ID, &rec.Filename, &rec.Size, &rec.ArchiveKey, &status, &rec.ErrorKind, &rec.ErrorMessage,
		&rec.Options, &counts, &warnings, &rec.CreatedAt); err != nil {
		return nil, err
	}
	rec.Status = models.Status(status)
	if err := json.Unmarshal([]byte(counts), &rec.Counts); err != nil {
		return nil, errors.Wrapf(err, "decode counts of %s", rec.ID)
	}
	if err := json.Unmarshal([]byte(warnings), &rec.Warnings); err != nil {
		return nil, errors.Wrapf(err, "decode warnings of %s", rec.ID)
	}
	return &rec, nil
}

// ============================================================
// Migrations
// ============================================================

func (r *Repository) runMigrations(ctx context.Context, migrationsPath string) error {
	data, err := os.ReadFile(migrationsPath)
	if err != nil {
		return errors.Wrap(err, "read migration")
	}
	if _, err := r.db.ExecContext(ctx, string(data)); err != nil {
		return errors.Wrap(err, "apply migration")
	}
	return nil
}

// OpenSQLite открывает sqlite по указанному пути.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, errors.Wrap(err, "mkdir db dir")
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
