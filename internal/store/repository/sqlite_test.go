package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	importer "sh3d-importer/internal/importer/models"
	"sh3d-importer/internal/store/models"
)

const migrations = "../../../migrations/001_init_imports.sql"

func newRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "db", "importer.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := New(db)
	require.NoError(t, repo.Init(context.Background(), migrations))
	return repo
}

func TestCreateAndGet(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	rec := &models.ImportRecord{
		ID:         "a1",
		Filename:   "flat.sh3d",
		Size:       1024,
		ArchiveKey: "archives/a1.sh3d",
		Status:     models.StatusDone,
		Options:    `{"joinWalls":true}`,
		Counts:     importer.Counts{Levels: 1, Walls: 4},
		Warnings: []importer.Warning{{
			Stage: importer.StageParse, Code: importer.WarnMissingAttribute, Element: "pieceOfFurniture", EntityID: "p1", Line: 7, Message: "width is required",
		}},
	}
	require.NoError(t, repo.Create(ctx, rec))

	got, err := repo.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "flat.sh3d", got.Filename)
	assert.Equal(t, models.StatusDone, got.Status)
	assert.Equal(t, rec.Counts, got.Counts)
	assert.Equal(t, rec.Warnings, got.Warnings)
	assert.NotEmpty(t, got.CreatedAt)
}

func TestGetMissing(t *testing.T) {
	repo := newRepo(t)

	_, err := repo.GetByID(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestListNewestFirst(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	for _, id := range []string{"first", "second", "third"} {
		require.NoError(t, repo.Create(ctx, &models.ImportRecord{ID: id, Filename: id + ".sh3d", ArchiveKey: id, Status: models.StatusFailed, ErrorKind: "archive_corrupt"}))
	}

	list, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "third", list[0].ID)
	assert.Equal(t, "second", list[1].ID)
	assert.Empty(t, list[0].Warnings)
}

func TestInitIsRepeatable(t *testing.T) {
	repo := newRepo(t)
	assert.NoError(t, repo.Init(context.Background(), migrations))
}
