package mapper

import (
	"bytes"
	"context"
	"io"
	"log"
	"time"

	"github.com/pkg/errors"

	"sh3d-importer/internal/importer/archive"
	"sh3d-importer/internal/importer/geometry"
	"sh3d-importer/internal/importer/graph"
	"sh3d-importer/internal/importer/models"
	"sh3d-importer/internal/importer/parser"
	"sh3d-importer/internal/importer/resolve"
	"sh3d-importer/internal/importer/transform"
)

// ============================================================
// Importer
// ============================================================

// Result: полный граф сцены и предупреждения всех стадий в порядке их появления
type Result struct {
	Scene    *models.Scene                  `json:"scene"`
	Warnings []models.Warning               `json:"warnings"`
	Counts   models.Counts                  `json:"counts"`
	Timings  map[models.Stage]time.Duration `json:"-"`
}

type Importer struct {
	opts Options
}

func New(opts Options) *Importer {
	return &Importer{opts: opts.Normalize()}
}

// ImportReader читает архив целиком и импортирует его
func (im *Importer) ImportReader(ctx context.Context, r io.Reader) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, models.Fatal(models.KindArchiveCorrupt, models.StageArchive, err, "read archive")
	}
	return im.Import(ctx, data)
}

// Import проводит архив через все стадии: archive → parse → resolve → build →
// transform → geometry. Фатальная ошибка или отмена не возвращают сцену.
func (im *Importer) Import(ctx context.Context, data []byte) (*Result, error) {
	res := &Result{Timings: make(map[models.Stage]time.Duration)}
	progress := im.opts.Progress
	started := time.Now()

	// Archive
	mark := time.Now()
	progress.Report(models.StageArchive, 0, 1)
	arc, err := archive.Open(ctx, data)
	if err != nil {
		return nil, archiveError(ctx, err)
	}
	home, err := arc.HomeXML()
	if err != nil {
		return nil, archiveError(ctx, err)
	}
	res.Timings[models.StageArchive] = time.Since(mark)
	progress.Report(models.StageArchive, 1, 1)
	log.Printf("[IMPORT] Archive opened: %d entries, Home.xml %d bytes", len(arc.Names()), len(home))

	// Parse
	mark = time.Now()
	doc, warnings, err := parser.Parse(ctx, bytes.NewReader(home))
	if err != nil {
		return nil, err
	}
	res.Warnings = append(res.Warnings, warnings...)
	res.Timings[models.StageParse] = time.Since(mark)
	progress.Report(models.StageParse, 1, 1)

	// Resolve
	mark = time.Now()
	ix, warnings := resolve.Resolve(doc)
	res.Warnings = append(res.Warnings, warnings...)
	res.Timings[models.StageResolve] = time.Since(mark)
	progress.Report(models.StageResolve, 1, 1)

	// Build
	mark = time.Now()
	scene, warnings, err := graph.NewBuilder(im.opts.graph(arc)).Build(ctx, doc, ix)
	if err != nil {
		return nil, err
	}
	res.Warnings = append(res.Warnings, warnings...)
	res.Timings[models.StageBuild] = time.Since(mark)
	progress.Report(models.StageBuild, 1, 1)

	// Transform
	mark = time.Now()
	if err := transform.NewResolver(im.opts.AngleUnit, im.opts.Sizer).Resolve(ctx, scene); err != nil {
		return nil, err
	}
	res.Timings[models.StageTransform] = time.Since(mark)
	progress.Report(models.StageTransform, 1, 1)

	// Geometry
	mark = time.Now()
	warnings, err = geometry.NewReconstructor(im.opts.geometry()).Reconstruct(ctx, scene)
	if err != nil {
		return nil, err
	}
	res.Warnings = append(res.Warnings, warnings...)
	res.Timings[models.StageGeometry] = time.Since(mark)

	res.Scene = scene
	res.Counts = scene.Counts()
	log.Printf("[IMPORT] Done in %s: %d levels, %d walls, %d furniture, %d warnings",
		time.Since(started).Round(time.Millisecond), res.Counts.Levels, res.Counts.Walls, res.Counts.Furniture, len(res.Warnings))
	return res, nil
}

// archiveError переводит ошибки чтения архива в фатальные ошибки импорта
func archiveError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return models.Cancelled(models.StageArchive, ctxErr)
	}
	if errors.Is(err, archive.ErrMissingEntry) {
		return models.Fatal(models.KindArchiveMissingEntry, models.StageArchive, err, "required entry %s not found", archive.HomeEntry)
	}
	return models.Fatal(models.KindArchiveCorrupt, models.StageArchive, err, "archive unreadable")
}
