package geometry

import (
	"context"
	"fmt"

	"sh3d-importer/internal/importer/models"
)

// ============================================================
// Wall Geometry Reconstructor
// ============================================================

type JunctionPolicy string

const (
	PolicyFan   JunctionPolicy = "fan"
	PolicyMiter JunctionPolicy = "miter"
	PolicyFlat  JunctionPolicy = "flat"
)

// ParseJunctionPolicy возвращает политику по имени; неизвестное имя, fan
func ParseJunctionPolicy(s string) JunctionPolicy {
	switch JunctionPolicy(s) {
	case PolicyMiter, PolicyFlat:
		return JunctionPolicy(s)
	}
	return PolicyFan
}

type Options struct {
	// Join == false оставляет сырые ленты с плоскими торцами
	Join        bool
	Policy      JunctionPolicy
	MiterLimit  float64
	Tolerance   float64
	ArcSegments int
	Progress    models.ProgressFunc
}

// MaxArcSegments: верхняя граница числа отрезков на полуокружность дуги
const MaxArcSegments = 256

// ClampArcSegments приводит число отрезков дуги к (0, MaxArcSegments];
// неположительное значение заменяется значением по умолчанию
func ClampArcSegments(n int) int {
	switch {
	case n <= 0:
		return DefaultOptions().ArcSegments
	case n > MaxArcSegments:
		return MaxArcSegments
	}
	return n
}

func DefaultOptions() Options {
	return Options{
		Join:        true,
		Policy:      PolicyFan,
		MiterLimit:  10,
		Tolerance:   0.5,
		ArcSegments: 16,
	}
}

type Reconstructor struct {
	opts     Options
	warnings []models.Warning
}

func NewReconstructor(opts Options) *Reconstructor {
	def := DefaultOptions()
	if opts.Policy == "" {
		opts.Policy = def.Policy
	}
	if opts.MiterLimit <= 0 {
		opts.MiterLimit = def.MiterLimit
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = def.Tolerance
	}
	opts.ArcSegments = ClampArcSegments(opts.ArcSegments)
	return &Reconstructor{opts: opts}
}

// Reconstruct заполняет производную геометрию каждого уровня:
// ленты стен с углами, полигоны комнат, вырезы проёмов и плинтусы.
// Отмена проверяется перед каждой стеной, комнатой и проёмом.
func (r *Reconstructor) Reconstruct(ctx context.Context, scene *models.Scene) ([]models.Warning, error) {
	r.warnings = nil
	for i, lvl := range scene.Levels {
		if err := checkCancelled(ctx); err != nil {
			return nil, err
		}
		ribbons, err := r.buildWalls(ctx, lvl)
		if err != nil {
			return nil, err
		}
		if err := r.buildRooms(ctx, lvl); err != nil {
			return nil, err
		}
		if err := r.buildOpenings(ctx, lvl, ribbons); err != nil {
			return nil, err
		}
		r.buildBaseboards(lvl)

		r.opts.Progress.Report(models.StageGeometry, i+1, len(scene.Levels))
	}
	return r.warnings, nil
}

func checkCancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return models.Cancelled(models.StageGeometry, err)
	}
	return nil
}

// buildWalls строит ленты и собирает контуры стен уровня
func (r *Reconstructor) buildWalls(ctx context.Context, lvl *models.Level) ([]*ribbon, error) {
	lvl.WallGeometry = nil
	ribbons := make([]*ribbon, 0, len(lvl.Walls))
	for _, w := range lvl.Walls {
		if err := checkCancelled(ctx); err != nil {
			return nil, err
		}
		ribbons = append(ribbons, newRibbon(w, r.opts.ArcSegments))
	}

	shapes := make(map[string]endShape, 2*len(ribbons))
	if r.opts.Join {
		g := newJunctionGraph(r.opts.Tolerance)
		if err := g.build(ctx, ribbons); err != nil {
			return nil, models.Cancelled(models.StageGeometry, err)
		}
		for _, v := range g.vertices() {
			if err := checkCancelled(ctx); err != nil {
				return nil, err
			}
			for key, s := range shapeEnds(v, r.opts.Policy, r.opts.MiterLimit) {
				shapes[key] = s
			}
		}
	} else {
		for _, rib := range ribbons {
			for _, e := range []wallEnd{{rib: rib, atStart: true}, {rib: rib, atStart: false}} {
				s := flatEnd(e)
				s.join = models.JoinNone
				shapes[e.key()] = s
			}
		}
	}

	for _, rib := range ribbons {
		start := shapes[wallEnd{rib: rib, atStart: true}.key()]
		end := shapes[wallEnd{rib: rib, atStart: false}.key()]
		lvl.WallGeometry = append(lvl.WallGeometry, assemble(rib, start, end, lvl.Elevation))
	}
	return ribbons, nil
}

// assemble собирает контур: правая сторона от начала к концу, торец конца,
// левая сторона обратно, торец начала
func assemble(rib *ribbon, start, end endShape, bottom float64) models.WallGeometry {
	left := append([]models.Point(nil), rib.left...)
	right := append([]models.Point(nil), rib.right...)

	// в начале исходящая левая граница совпадает с левой стороной стены,
	// в конце, с правой
	left[0], right[0] = start.leftCorner, start.rightCorner
	right[len(right)-1], left[len(left)-1] = end.leftCorner, end.rightCorner

	footprint := make([]models.Point, 0, len(left)+len(right)+2)
	footprint = append(footprint, right...)
	if end.apex != nil {
		footprint = append(footprint, *end.apex)
	}
	for i := len(left) - 1; i >= 0; i-- {
		footprint = append(footprint, left[i])
	}
	if start.apex != nil {
		footprint = append(footprint, *start.apex)
	}

	w := rib.wall
	return models.WallGeometry{
		WallID:        w.ID,
		Footprint:     footprint,
		Left:          left,
		Right:         right,
		StartJoin:     start.join,
		EndJoin:       end.join,
		Length:        rib.length,
		Thickness:     w.Thickness,
		Bottom:        bottom,
		HeightAtStart: w.Height,
		HeightAtEnd:   w.HeightAtEnd,
		Arc:           rib.arc,
	}
}

func (r *Reconstructor) warn(code models.WarningCode, element, id string, format string, args ...any) {
	r.warnings = append(r.warnings, models.Warning{
		Stage:    models.StageGeometry,
		Code:     code,
		Element:  element,
		EntityID: id,
		Message:  fmt.Sprintf(format, args...),
	})
}
