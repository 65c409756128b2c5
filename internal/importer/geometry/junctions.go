package geometry

import (
	"context"
	"math"
	"sort"

	"sh3d-importer/internal/importer/models"
)

// ============================================================
// Junction graph
// ============================================================

// wallEnd: один из двух концов ленты
type wallEnd struct {
	rib     *ribbon
	atStart bool
}

func (e wallEnd) point() models.Point {
	if e.atStart {
		return e.rib.center[0]
	}
	return e.rib.center[len(e.rib.center)-1]
}

// outgoing: единичное направление из узла внутрь стены
func (e wallEnd) outgoing() models.Point {
	if e.atStart {
		return e.rib.startDir()
	}
	return e.rib.endDir().Scale(-1)
}

func (e wallEnd) key() string {
	if e.atStart {
		return e.rib.wall.ID + "@start"
	}
	return e.rib.wall.ID + "@end"
}

// vertex: узел графа примыканий, то есть совпадающие или связанные ссылками концы стен
type vertex struct {
	P    models.Point
	Ends []wallEnd
	// merged: концы перенесены в другой узел по ссылке
	merged bool
}

// cell: ячейка сетки с шагом tolerance для поиска близких узлов
type cell struct{ x, y int64 }

type junctionGraph struct {
	order     []*vertex
	cells     map[cell][]int
	endVertex map[string]*vertex
	ribbons   map[string]*ribbon
	tolerance float64
}

func newJunctionGraph(tolerance float64) *junctionGraph {
	return &junctionGraph{
		cells:     make(map[cell][]int),
		endVertex: make(map[string]*vertex),
		ribbons:   make(map[string]*ribbon),
		tolerance: tolerance,
	}
}

// build связывает концы стен по совпадению координат, затем по ссылкам
// wallAtStart/wallAtEnd внутри уровня
func (g *junctionGraph) build(ctx context.Context, ribbons []*ribbon) error {
	for _, r := range ribbons {
		g.ribbons[r.wall.ID] = r
	}
	for _, r := range ribbons {
		if err := ctx.Err(); err != nil {
			return err
		}
		g.attachEnd(wallEnd{rib: r, atStart: true})
		g.attachEnd(wallEnd{rib: r, atStart: false})
	}
	for _, r := range ribbons {
		if err := ctx.Err(); err != nil {
			return err
		}
		g.linkReference(r, r.wall.WallAtStart, true)
		g.linkReference(r, r.wall.WallAtEnd, false)
	}
	for _, v := range g.vertices() {
		v.P = centroidOfEnds(v.Ends)
	}
	return nil
}

func (g *junctionGraph) attachEnd(e wallEnd) {
	v := g.findOrCreateVertex(e.point())
	v.Ends = append(v.Ends, e)
	g.endVertex[e.key()] = v
}

func (g *junctionGraph) cellOf(p models.Point) cell {
	return cell{x: int64(math.Floor(p.X / g.tolerance)), y: int64(math.Floor(p.Y / g.tolerance))}
}

// findOrCreateVertex возвращает самый ранний узел в пределах tolerance
// или создаёт новый
func (g *junctionGraph) findOrCreateVertex(p models.Point) *vertex {
	c := g.cellOf(p)
	best := -1
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for _, i := range g.cells[cell{x: c.x + dx, y: c.y + dy}] {
				if (best < 0 || i < best) && !g.order[i].merged && g.order[i].P.Dist(p) <= g.tolerance {
					best = i
				}
			}
		}
	}
	if best >= 0 {
		return g.order[best]
	}

	v := &vertex{P: p}
	g.cells[c] = append(g.cells[c], len(g.order))
	g.order = append(g.order, v)
	return v
}

func (g *junctionGraph) linkReference(r *ribbon, ref models.WallRef, atStart bool) {
	target := ref.Linked()
	if target == nil || ref.CrossLevel || target == r.wall {
		return
	}
	other, ok := g.ribbons[target.ID]
	if !ok {
		return
	}

	from := wallEnd{rib: r, atStart: atStart}
	var to wallEnd
	switch {
	case target.WallAtStart.Linked() == r.wall && target.WallAtEnd.Linked() != r.wall:
		to = wallEnd{rib: other, atStart: true}
	case target.WallAtEnd.Linked() == r.wall && target.WallAtStart.Linked() != r.wall:
		to = wallEnd{rib: other, atStart: false}
	default:
		// односторонняя ссылка: ближайший конец
		p := from.point()
		to = wallEnd{rib: other, atStart: other.center[0].Dist(p) <= other.center[len(other.center)-1].Dist(p)}
	}
	g.mergeVertices(g.endVertex[from.key()], g.endVertex[to.key()])
}

// mergeVertices переносит концы src в dst
func (g *junctionGraph) mergeVertices(dst, src *vertex) {
	if dst == src {
		return
	}
	for _, e := range src.Ends {
		dst.Ends = append(dst.Ends, e)
		g.endVertex[e.key()] = dst
	}
	src.Ends = nil
	src.merged = true
}

// vertices возвращает живые узлы в порядке создания
func (g *junctionGraph) vertices() []*vertex {
	out := make([]*vertex, 0, len(g.order))
	for _, v := range g.order {
		if !v.merged {
			out = append(out, v)
		}
	}
	return out
}

func centroidOfEnds(ends []wallEnd) models.Point {
	var sum models.Point
	for _, e := range ends {
		sum = sum.Add(e.point())
	}
	return sum.Scale(1 / float64(len(ends)))
}

// ============================================================
// End shapes
// ============================================================

// endShape: форма конца стены в терминах исходящего направления:
// leftCorner лежит на исходящей левой границе, rightCorner, на правой
type endShape struct {
	leftCorner  models.Point
	rightCorner models.Point
	apex        *models.Point
	join        models.JoinKind
}

// flatEnd: плоский торец перпендикулярно направлению стены
func flatEnd(e wallEnd) endShape {
	p := e.point()
	n := e.outgoing().Perp().Scale(e.rib.half)
	return endShape{leftCorner: p.Add(n), rightCorner: p.Sub(n), join: models.JoinFlat}
}

// shapeEnds вычисляет форму каждого конца в узле
func shapeEnds(v *vertex, policy JunctionPolicy, miterLimit float64) map[string]endShape {
	shapes := make(map[string]endShape, len(v.Ends))
	if len(v.Ends) == 1 || policy == PolicyFlat {
		for _, e := range v.Ends {
			shapes[e.key()] = flatEnd(e)
		}
		return shapes
	}

	ends := append([]wallEnd(nil), v.Ends...)
	sort.SliceStable(ends, func(i, j int) bool {
		ui, uj := ends[i].outgoing(), ends[j].outgoing()
		return math.Atan2(ui.Y, ui.X) < math.Atan2(uj.Y, uj.X)
	})

	join := models.JoinMiter
	fan := len(ends) >= 3 && policy == PolicyFan
	if fan {
		join = models.JoinFan
	}
	for _, e := range ends {
		s := flatEnd(e)
		s.join = join
		shapes[e.key()] = s
	}

	for i, a := range ends {
		b := ends[(i+1)%len(ends)]
		sa, sb := shapes[a.key()], shapes[b.key()]
		if corner, ok := miterCorner(a, b, v.P, miterLimit); ok {
			sa.leftCorner = corner
			sb.rightCorner = corner
		} else {
			sa.join, sb.join = models.JoinFlat, models.JoinFlat
		}
		shapes[a.key()], shapes[b.key()] = sa, sb
	}

	if fan {
		for _, e := range ends {
			s := shapes[e.key()]
			if s.join == models.JoinFan {
				apex := v.P
				s.apex = &apex
			}
			shapes[e.key()] = s
		}
	}
	return shapes
}

// miterCorner пересекает исходящую левую границу a с исходящей правой границей b.
// Параллельные границы дают точку на общей границе у узла.
func miterCorner(a, b wallEnd, junction models.Point, miterLimit float64) (models.Point, bool) {
	ua, ub := a.outgoing(), b.outgoing()
	pa := a.point().Add(ua.Perp().Scale(a.rib.half))
	pb := b.point().Sub(ub.Perp().Scale(b.rib.half))

	p, ok := intersectLines(pa, ua, pb, ub)
	if !ok {
		return junction.Add(ua.Perp().Scale(a.rib.half)), true
	}
	limit := miterLimit * math.Max(a.rib.half, b.rib.half)
	if p.Dist(junction) > limit {
		return models.Point{}, false
	}
	return p, true
}

// intersectLines пересекает прямые p+t*d и q+s*e
func intersectLines(p, d, q, e models.Point) (models.Point, bool) {
	den := d.Cross(e)
	if math.Abs(den) < 1e-9 {
		return models.Point{}, false
	}
	t := q.Sub(p).Cross(e) / den
	return p.Add(d.Scale(t)), true
}
