package resolve

import (
	"fmt"
	"sort"

	"sh3d-importer/internal/importer/models"
)

// ============================================================
// Reference Resolution
// ============================================================

// Index: глобальный индекс идентификаторов документа
type Index struct {
	Levels    map[string]*models.Level
	Walls     map[string]*models.Wall
	Rooms     map[string]*models.Room
	Furniture map[string]*models.Furniture
	// kinds хранит элемент-владелец каждого занятого id
	kinds map[string]string
	// DuplicateLevels: повторные id уровней; построитель считает их фатальными
	DuplicateLevels []string
}

// Kind возвращает элемент, которому принадлежит id
func (ix *Index) Kind(id string) (string, bool) {
	k, ok := ix.kinds[id]
	return k, ok
}

// Len возвращает число проиндексированных сущностей
func (ix *Index) Len() int { return len(ix.kinds) }

type resolver struct {
	ix       *Index
	warnings []models.Warning
	// firstLevel: id нижнего уровня стека, куда попадают сущности без уровня
	firstLevel string
}

// Resolve строит индекс id и переписывает ссылки документа на месте:
// wallAtStart/wallAtEnd, level и selectedLevel. Повторный id сущности
// (кроме уровней) отбрасывает более позднюю сущность; неразрешённая ссылка
// остаётся в состоянии unresolved с предупреждением.
func Resolve(doc *models.Document) (*Index, []models.Warning) {
	r := &resolver{ix: &Index{
		Levels:    make(map[string]*models.Level),
		Walls:     make(map[string]*models.Wall),
		Rooms:     make(map[string]*models.Room),
		Furniture: make(map[string]*models.Furniture),
		kinds:     make(map[string]string),
	}}

	r.indexLevels(doc)
	r.indexEntities(doc)

	r.resolveLevel(&doc.Home.SelectedLevel, "home", "", 0)
	for _, w := range doc.Walls {
		r.resolveLevel(&w.Level, "wall", w.ID, w.Line)
		r.resolveWall(w, &w.WallAtStart, "wallAtStart")
		r.resolveWall(w, &w.WallAtEnd, "wallAtEnd")
	}
	for _, room := range doc.Rooms {
		r.resolveLevel(&room.Level, "room", room.ID, room.Line)
	}
	models.WalkFurniture(doc.Furniture, func(f *models.Furniture, _ *models.Furniture) {
		r.resolveLevel(&f.Level, f.Element, f.ID, f.Line)
	})
	for _, pl := range doc.Polylines {
		r.resolveLevel(&pl.Level, "polyline", pl.ID, pl.Line)
	}
	for _, d := range doc.DimensionLines {
		r.resolveLevel(&d.Level, "dimensionLine", d.ID, d.Line)
	}
	for _, l := range doc.Labels {
		r.resolveLevel(&l.Level, "label", l.ID, l.Line)
	}

	return r.ix, r.warnings
}

// ============================================================
// Indexing
// ============================================================

func (r *resolver) indexLevels(doc *models.Document) {
	for _, l := range doc.Levels {
		if _, dup := r.ix.Levels[l.ID]; dup {
			r.ix.DuplicateLevels = append(r.ix.DuplicateLevels, l.ID)
			continue
		}
		r.ix.Levels[l.ID] = l
		r.ix.kinds[l.ID] = "level"
	}

	if len(doc.Levels) == 0 {
		return
	}
	stack := append([]*models.Level(nil), doc.Levels...)
	sort.SliceStable(stack, func(i, j int) bool {
		a, c := stack[i], stack[j]
		if a.Elevation != c.Elevation {
			return a.Elevation < c.Elevation
		}
		return a.ElevationIndex < c.ElevationIndex
	})
	r.firstLevel = stack[0].ID
}

// effectiveLevel возвращает id уровня, на котором окажется сущность
func (r *resolver) effectiveLevel(ref models.LevelRef) string {
	if _, ok := r.ix.Levels[ref.ID]; ref.Set() && ok {
		return ref.ID
	}
	return r.firstLevel
}

// claim занимает id; false, id уже занят, сущность отбрасывается
func (r *resolver) claim(id, element string, line int) bool {
	if owner, dup := r.ix.kinds[id]; dup {
		r.warn(models.WarnDuplicateID, element, id, line, "id already used by <%s>; later element dropped", owner)
		return false
	}
	r.ix.kinds[id] = element
	return true
}

func (r *resolver) indexEntities(doc *models.Document) {
	doc.Walls = keep(doc.Walls, func(w *models.Wall) bool {
		if !r.claim(w.ID, "wall", w.Line) {
			return false
		}
		r.ix.Walls[w.ID] = w
		return true
	})
	doc.Rooms = keep(doc.Rooms, func(room *models.Room) bool {
		if !r.claim(room.ID, "room", room.Line) {
			return false
		}
		r.ix.Rooms[room.ID] = room
		return true
	})
	doc.Furniture = r.indexFurniture(doc.Furniture)
	doc.Polylines = keep(doc.Polylines, func(pl *models.Polyline) bool {
		return r.claim(pl.ID, "polyline", pl.Line)
	})
	doc.DimensionLines = keep(doc.DimensionLines, func(d *models.DimensionLine) bool {
		return r.claim(d.ID, "dimensionLine", d.Line)
	})
	doc.Labels = keep(doc.Labels, func(l *models.Label) bool {
		return r.claim(l.ID, "label", l.Line)
	})
	doc.Cameras = keep(doc.Cameras, func(c *models.Camera) bool {
		return r.claim(c.ID, c.Element, c.Line)
	})
}

func (r *resolver) indexFurniture(items []*models.Furniture) []*models.Furniture {
	return keep(items, func(f *models.Furniture) bool {
		if !r.claim(f.ID, f.Element, f.Line) {
			return false
		}
		r.ix.Furniture[f.ID] = f
		if f.Kind == models.FurnitureGroup {
			before := len(f.Children)
			f.Children = r.indexFurniture(f.Children)
			// отброшенные дубликаты не считаются нарушением целостности группы
			f.ChildCount -= before - len(f.Children)
		}
		return true
	})
}

func keep[T any](items []T, fn func(T) bool) []T {
	out := items[:0]
	for _, item := range items {
		if fn(item) {
			out = append(out, item)
		}
	}
	return out
}

// ============================================================
// References
// ============================================================

func (r *resolver) resolveLevel(ref *models.LevelRef, element, id string, line int) {
	if !ref.Set() {
		return
	}
	if lvl, ok := r.ix.Levels[ref.ID]; ok {
		ref.Level = lvl
		ref.State = models.RefResolved
		return
	}
	ref.State = models.RefUnresolved
	r.warn(models.WarnUnresolvedReference, element, id, line, "level %q does not exist", ref.ID)
}

func (r *resolver) resolveWall(w *models.Wall, ref *models.WallRef, attr string) {
	if !ref.Set() {
		return
	}
	target, ok := r.ix.Walls[ref.ID]
	if !ok {
		ref.State = models.RefUnresolved
		r.warn(models.WarnUnresolvedReference, "wall", w.ID, w.Line, "%s references unknown wall %q", attr, ref.ID)
		return
	}
	ref.Wall = target
	ref.State = models.RefResolved
	if from, to := r.effectiveLevel(w.Level), r.effectiveLevel(target.Level); from != to {
		ref.CrossLevel = true
		r.warn(models.WarnCrossLevelReference, "wall", w.ID, w.Line,
			"%s references wall %q on level %q from level %q", attr, ref.ID, to, from)
	}
}

func (r *resolver) warn(code models.WarningCode, element, id string, line int, format string, args ...any) {
	r.warnings = append(r.warnings, models.Warning{
		Stage:    models.StageResolve,
		Code:     code,
		Element:  element,
		EntityID: id,
		Line:     line,
		Message:  fmt.Sprintf(format, args...),
	})
}
