package mapper

import (
	"context"
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"sh3d-importer/internal/importer/models"
)

// ============================================================
// Emitter hand-off
// ============================================================

// Emitter принимает готовый результат импорта. Сопоставление с уже
// существующими сущностями (Hints.MergeElements), забота эмиттера.
type Emitter interface {
	Emit(ctx context.Context, res *Result) error
}

// JSONEmitter пишет сцену и предупреждения как JSON-документ
type JSONEmitter struct {
	w      io.Writer
	indent bool
}

func NewJSONEmitter(w io.Writer, indent bool) *JSONEmitter {
	return &JSONEmitter{w: w, indent: indent}
}

func (e *JSONEmitter) Emit(ctx context.Context, res *Result) error {
	if err := ctx.Err(); err != nil {
		return models.Cancelled(models.StageEmit, err)
	}
	if res == nil || res.Scene == nil {
		return errors.New("emit: empty result")
	}

	enc := json.NewEncoder(e.w)
	if e.indent {
		enc.SetIndent("", "  ")
	}
	return errors.Wrap(enc.Encode(res), "emit scene")
}

// WarningsEmitter пишет только предупреждения, по одному на строку
type WarningsEmitter struct {
	w io.Writer
}

func NewWarningsEmitter(w io.Writer) *WarningsEmitter {
	return &WarningsEmitter{w: w}
}

func (e *WarningsEmitter) Emit(ctx context.Context, res *Result) error {
	if err := ctx.Err(); err != nil {
		return models.Cancelled(models.StageEmit, err)
	}
	for _, w := range res.Warnings {
		if _, err := io.WriteString(e.w, w.String()+"\n"); err != nil {
			return errors.Wrap(err, "emit warnings")
		}
	}
	return nil
}
