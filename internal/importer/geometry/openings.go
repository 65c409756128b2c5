package geometry

import (
	"context"
	"math"

	"sh3d-importer/internal/importer/models"
	"sh3d-importer/internal/importer/parser"
)

// ============================================================
// Openings
// ============================================================

// anchor: положение проёма в мире (точка на плане, угол и высота над полом уровня)
type anchor struct {
	at        models.Point
	angle     float64
	elevation float64
}

// buildOpenings ищет стену-носитель каждого привязанного проёма по попаданию
// его точки в ленту стены и строит вырез; без носителя проём остаётся
// отдельной мебелью
func (r *Reconstructor) buildOpenings(ctx context.Context, lvl *models.Level, ribbons []*ribbon) error {
	lvl.CutOuts, lvl.FreeOpenings = nil, nil

	placed := make(map[string]models.Placement, len(lvl.Placements))
	for _, p := range lvl.Placements {
		placed[p.FurnitureID] = p
	}

	var err error
	models.WalkFurniture(lvl.Furniture, func(f *models.Furniture, _ *models.Furniture) {
		if err != nil {
			return
		}
		if err = checkCancelled(ctx); err != nil {
			return
		}
		if f.Kind != models.FurnitureDoorOrWindow || f.Door == nil {
			return
		}
		if !f.Door.BoundToWall {
			lvl.FreeOpenings = append(lvl.FreeOpenings, f.ID)
			return
		}

		a := anchorOf(f, placed, lvl)
		host := findHost(a.at, ribbons)
		if host == nil {
			r.warn(models.WarnNoHostWall, f.Element, f.ID,
				"no wall contains opening anchor (%.2f, %.2f); kept as free-standing furniture", a.at.X, a.at.Y)
			lvl.FreeOpenings = append(lvl.FreeOpenings, f.ID)
			return
		}
		lvl.CutOuts = append(lvl.CutOuts, r.cutOut(f, host, a))
	})
	return err
}

func anchorOf(f *models.Furniture, placed map[string]models.Placement, lvl *models.Level) anchor {
	if p, ok := placed[f.ID]; ok {
		return anchor{
			at:        models.Point{X: p.Position.X, Y: p.Position.Y},
			angle:     p.Angle,
			elevation: p.Position.Z - lvl.Elevation,
		}
	}
	return anchor{at: models.Point{X: f.X, Y: f.Y}, angle: f.Angle, elevation: f.Elevation}
}

// findHost возвращает ленту, содержащую точку; при нескольких, ближайшую к осевой линии
func findHost(p models.Point, ribbons []*ribbon) *ribbon {
	var host *ribbon
	best := math.Inf(1)
	for _, rib := range ribbons {
		if !pointInPolygon(p, rib.polygon()) {
			continue
		}
		if _, dist, _ := rib.project(p); dist < best {
			best = dist
			host = rib
		}
	}
	return host
}

func (r *Reconstructor) cutOut(f *models.Furniture, host *ribbon, a anchor) models.CutOut {
	door := f.Door
	w, d, h := f.Width, f.Depth, f.Height
	dirX := models.Point{X: math.Cos(a.angle), Y: math.Sin(a.angle)}
	dirY := dirX.Perp()

	// пролёт вдоль ширины проёма в его локальной системе
	x0 := -w/2 + door.WallLeft*w
	x1 := x0 + door.WallWidth*w
	if f.Piece != nil && f.Piece.ModelMirrored {
		x0, x1 = -x0, -x1
	}
	s0, _, _ := host.project(a.at.Add(dirX.Scale(x0)))
	s1, _, _ := host.project(a.at.Add(dirX.Scale(x1)))

	top := a.elevation + h - door.WallTop*h
	bottom := top - door.WallHeight*h

	c := models.CutOut{
		WallID:    host.wall.ID,
		OpeningID: f.ID,
		Start:     math.Min(s0, s1),
		End:       math.Max(s0, s1),
		Bottom:    bottom,
		Top:       top,
		BothSides: door.WallCutOutOnBothSides,
	}

	// глубина выреза поперёк стены
	inner, outer := -host.half, host.half
	if !door.WallCutOutOnBothSides {
		y0 := -d/2 + door.WallDistance*d
		y1 := y0 + door.WallThickness*d
		mid, normal := host.pointAt((c.Start + c.End) / 2)
		o0 := clamp(a.at.Add(dirY.Scale(y0)).Sub(mid).Dot(normal), -host.half, host.half)
		o1 := clamp(a.at.Add(dirY.Scale(y1)).Sub(mid).Dot(normal), -host.half, host.half)
		inner, outer = math.Min(o0, o1), math.Max(o0, o1)
	}
	c.Depth = outer - inner

	ps, ns := host.pointAt(c.Start)
	pe, ne := host.pointAt(c.End)
	c.Footprint = []models.Point{
		ps.Add(ns.Scale(inner)),
		pe.Add(ne.Scale(inner)),
		pe.Add(ne.Scale(outer)),
		ps.Add(ns.Scale(outer)),
	}

	c.Profile = []models.Point{{X: c.Start, Y: bottom}, {X: c.End, Y: bottom}, {X: c.End, Y: top}, {X: c.Start, Y: top}}
	if door.CutOutShape != "" {
		paths, err := parser.ParsePath(door.CutOutShape)
		if err != nil {
			r.warn(models.WarnInvalidShape, f.Element, f.ID, "cutOutShape %q: %v; rectangle used", door.CutOutShape, err)
			return c
		}
		// форма задана в единичном квадрате: x вдоль ширины, y сверху вниз
		shape := largest(paths)
		profile := make([]models.Point, 0, len(shape))
		for _, p := range shape {
			profile = append(profile, models.Point{X: s0 + p.X*(s1-s0), Y: top - p.Y*(top-bottom)})
		}
		c.Profile = profile
		c.Shaped = true
	}
	return c
}

// largest выбирает подпуть с наибольшей площадью
func largest(paths [][]models.Point) []models.Point {
	var best []models.Point
	bestArea := -1.0
	for _, p := range paths {
		if area := RoomMetrics(p).Area; area > bestArea {
			best, bestArea = p, area
		}
	}
	return best
}
