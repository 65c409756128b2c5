package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"sh3d-importer/internal/importer/models"
)

// ============================================================
// Wall ribbons
// ============================================================

// ribbon: лента стены толщиной 2*half вдоль осевой линии (отрезок или дуга)
type ribbon struct {
	wall   *models.Wall
	center []models.Point
	left   []models.Point
	right  []models.Point
	half   float64
	length float64
	arc    *models.ArcInfo
}

func newRibbon(w *models.Wall, arcSegments int) *ribbon {
	r := &ribbon{wall: w, half: w.Thickness / 2}
	if w.IsArc() {
		r.center, r.arc = sampleArc(w.Start(), w.End(), w.ArcExtent, arcSegments)
	} else {
		r.center = []models.Point{w.Start(), w.End()}
	}
	r.left, r.right = offsets(r.center, r.half)
	r.length = polylineLength(r.center)
	return r
}

// sampleArc строит точки дуги от start к end с углом extent (со знаком)
func sampleArc(start, end models.Point, extent float64, segments int) ([]models.Point, *models.ArcInfo) {
	chord := end.Sub(start)
	c := chord.Len()
	mid := start.Add(end).Scale(0.5)
	d := chord.Unit()

	// центр лежит на серединном перпендикуляре; знак extent выбирает сторону
	h := (c / 2) / math.Tan(extent/2)
	center := mid.Add(d.Perp().Scale(h))
	radius := math.Abs(c / (2 * math.Sin(extent/2)))

	// не больше двух полуокружностей по MaxArcSegments; NaN даёт минимум
	n := 2
	if steps := float64(ClampArcSegments(segments)) * math.Abs(extent) / math.Pi; steps > 2 {
		n = int(math.Min(math.Ceil(steps), 2*MaxArcSegments))
	}

	rel := mgl64.Vec2{start.X - center.X, start.Y - center.Y}
	points := make([]models.Point, 0, n+1)
	points = append(points, start)
	for i := 1; i < n; i++ {
		v := mgl64.Rotate2D(extent * float64(i) / float64(n)).Mul2x1(rel)
		points = append(points, models.Point{X: center.X + v[0], Y: center.Y + v[1]})
	}
	points = append(points, end)

	return points, &models.ArcInfo{
		Center: center,
		Radius: radius,
		Start:  math.Atan2(rel[1], rel[0]),
		Extent: extent,
	}
}

// offsets сдвигает полилинию на ±half; левая сторона, по Perp(направления)
func offsets(center []models.Point, half float64) (left, right []models.Point) {
	left = make([]models.Point, len(center))
	right = make([]models.Point, len(center))
	for i, p := range center {
		n := pointNormal(center, i)
		left[i] = p.Add(n.Scale(half))
		right[i] = p.Sub(n.Scale(half))
	}
	return left, right
}

// pointNormal: левая нормаль в вершине полилинии (среднее соседних сегментов)
func pointNormal(line []models.Point, i int) models.Point {
	var dir models.Point
	if i > 0 {
		dir = dir.Add(line[i].Sub(line[i-1]).Unit())
	}
	if i < len(line)-1 {
		dir = dir.Add(line[i+1].Sub(line[i]).Unit())
	}
	return dir.Unit().Perp()
}

func polylineLength(line []models.Point) float64 {
	total := 0.0
	for i := 1; i < len(line); i++ {
		total += line[i].Dist(line[i-1])
	}
	return total
}

// startDir: единичное направление осевой линии в начале стены
func (r *ribbon) startDir() models.Point {
	return r.center[1].Sub(r.center[0]).Unit()
}

// endDir: единичное направление осевой линии в конце стены
func (r *ribbon) endDir() models.Point {
	n := len(r.center)
	return r.center[n-1].Sub(r.center[n-2]).Unit()
}

// polygon возвращает сырую ленту без углов. Правая сторона, затем левая обратно
func (r *ribbon) polygon() []models.Point {
	out := make([]models.Point, 0, len(r.left)+len(r.right))
	out = append(out, r.right...)
	for i := len(r.left) - 1; i >= 0; i-- {
		out = append(out, r.left[i])
	}
	return out
}

// project возвращает расстояние вдоль осевой линии до ближайшей точки,
// расстояние от осевой линии и левую нормаль в этой точке
func (r *ribbon) project(p models.Point) (along, dist float64, normal models.Point) {
	best := math.Inf(1)
	walked := 0.0
	for i := 1; i < len(r.center); i++ {
		a, b := r.center[i-1], r.center[i]
		seg := b.Sub(a)
		segLen := seg.Len()
		t := 0.0
		if segLen > 0 {
			t = clamp(p.Sub(a).Dot(seg)/(segLen*segLen), 0, 1)
		}
		q := a.Add(seg.Scale(t))
		if d := p.Dist(q); d < best {
			best = d
			along = walked + t*segLen
			normal = seg.Unit().Perp()
		}
		walked += segLen
	}
	return along, best, normal
}

// pointAt возвращает точку осевой линии на расстоянии s от начала и левую нормаль
func (r *ribbon) pointAt(s float64) (models.Point, models.Point) {
	walked := 0.0
	for i := 1; i < len(r.center); i++ {
		a, b := r.center[i-1], r.center[i]
		segLen := a.Dist(b)
		if s <= walked+segLen || i == len(r.center)-1 {
			t := 0.0
			if segLen > 0 {
				t = clamp((s-walked)/segLen, 0, 1)
			}
			return a.Add(b.Sub(a).Scale(t)), b.Sub(a).Unit().Perp()
		}
		walked += segLen
	}
	return r.center[0], r.startDir().Perp()
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
