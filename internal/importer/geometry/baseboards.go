package geometry

import (
	"sh3d-importer/internal/importer/models"
)

// buildBaseboards строит полосы плинтусов вдоль сторон уже собранных стен
func (r *Reconstructor) buildBaseboards(lvl *models.Level) {
	lvl.Baseboards = nil

	walls := make(map[string]*models.Wall, len(lvl.Walls))
	for _, w := range lvl.Walls {
		walls[w.ID] = w
	}

	for _, g := range lvl.WallGeometry {
		w := walls[g.WallID]
		if w == nil {
			continue
		}
		for _, b := range w.Baseboards {
			if b.Thickness <= 0 || b.Height <= 0 {
				continue
			}
			lvl.Baseboards = append(lvl.Baseboards, models.BaseboardGeometry{
				WallID:    w.ID,
				Side:      b.Side,
				Footprint: baseboardStrip(g, b.Side, b.Thickness),
				Bottom:    lvl.Elevation,
				Top:       lvl.Elevation + b.Height,
				Color:     b.Color,
			})
		}
	}
}

// baseboardStrip: полоса между стороной стены и её смещением наружу
func baseboardStrip(g models.WallGeometry, side models.Side, thickness float64) []models.Point {
	line := g.Left
	if side == models.SideRight {
		line = g.Right
	}
	left, right := offsets(line, thickness)
	outer := left
	if side == models.SideRight {
		outer = right
	}

	strip := make([]models.Point, 0, 2*len(line))
	strip = append(strip, line...)
	for i := len(outer) - 1; i >= 0; i-- {
		strip = append(strip, outer[i])
	}
	return strip
}
