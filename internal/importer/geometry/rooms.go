package geometry

import (
	"context"
	"math"

	"sh3d-importer/internal/importer/models"
)

// ============================================================
// Room polygons
// ============================================================

func (r *Reconstructor) buildRooms(ctx context.Context, lvl *models.Level) error {
	lvl.RoomGeometry = nil
	for _, room := range lvl.Rooms {
		if err := checkCancelled(ctx); err != nil {
			return err
		}
		g := RoomMetrics(room.Points)
		g.RoomID = room.ID
		g.FloorZ = lvl.Elevation
		g.CeilingZ = lvl.Elevation + lvl.Height
		if g.Area == 0 {
			r.warn(models.WarnDegenerateRoom, "room", room.ID, "room polygon has zero area")
		}
		lvl.RoomGeometry = append(lvl.RoomGeometry, g)
	}
	return nil
}

// RoomMetrics считает площадь (формула шнурования), периметр, обход и центр
// масс замкнутого полигона. Повтор первой точки в конце отбрасывается.
func RoomMetrics(points []models.Point) models.RoomGeometry {
	poly := append([]models.Point(nil), points...)
	if len(poly) > 1 && poly[0].Equal(poly[len(poly)-1], 1e-9) {
		poly = poly[:len(poly)-1]
	}
	g := models.RoomGeometry{Polygon: poly}
	if len(poly) == 0 {
		return g
	}

	var signed, cx, cy float64
	for i := range poly {
		a, b := poly[i], poly[(i+1)%len(poly)]
		cross := a.Cross(b)
		signed += cross
		cx += (a.X + b.X) * cross
		cy += (a.Y + b.Y) * cross
		g.Perimeter += a.Dist(b)
	}
	signed /= 2

	g.Area = math.Abs(signed)
	g.Clockwise = signed < 0
	if signed != 0 {
		g.Centroid = models.Point{X: cx / (6 * signed), Y: cy / (6 * signed)}
	} else {
		var sum models.Point
		for _, p := range poly {
			sum = sum.Add(p)
		}
		g.Centroid = sum.Scale(1 / float64(len(poly)))
	}
	return g
}

// pointInPolygon: проверка чётности пересечений; граница считается внутри
func pointInPolygon(p models.Point, poly []models.Point) bool {
	inside := false
	for i, j := 0, len(poly)-1; i < len(poly); j, i = i, i+1 {
		a, b := poly[i], poly[j]
		if onSegment(p, a, b) {
			return true
		}
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := a.X + (p.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
			if p.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

func onSegment(p, a, b models.Point) bool {
	ab := b.Sub(a)
	if math.Abs(ab.Cross(p.Sub(a))) > 1e-9*math.Max(1, ab.Len()) {
		return false
	}
	t := p.Sub(a).Dot(ab)
	return t >= 0 && t <= ab.Dot(ab)
}
