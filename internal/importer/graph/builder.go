package graph

import (
	"context"
	"fmt"
	"sort"

	"sh3d-importer/internal/importer/archive"
	"sh3d-importer/internal/importer/models"
	"sh3d-importer/internal/importer/resolve"
)

// ============================================================
// Scene Graph Builder
// ============================================================

const (
	DefaultLevelID        = "default-floor"
	defaultLevelName      = "Floor"
	defaultLevelHeight    = 250.0
	defaultFloorThickness = 20.0
)

// ResourceIndex: проверка наличия записи в архиве
type ResourceIndex interface {
	Has(name string) bool
}

type Options struct {
	ImportDoors     bool
	ImportFurniture bool
	ImportLights    bool
	ImportCameras   bool
	Hints           models.EmitHints
	// Resources == nil отключает проверку ресурсов
	Resources ResourceIndex
}

func DefaultOptions() Options {
	return Options{
		ImportDoors:     true,
		ImportFurniture: true,
		ImportLights:    true,
		ImportCameras:   true,
		Hints:           models.EmitHints{JoinWalls: true},
	}
}

type Builder struct {
	opts     Options
	doc      *models.Document
	levels   []*models.Level
	warnings []models.Warning
}

func NewBuilder(opts Options) *Builder {
	return &Builder{opts: opts}
}

// Build раскладывает сущности документа по уровням и проверяет инварианты.
// Нарушение у отдельной сущности отбрасывает её с предупреждением;
// нарушение на уровне Home или Level фатально.
func (b *Builder) Build(ctx context.Context, doc *models.Document, ix *resolve.Index) (*models.Scene, []models.Warning, error) {
	b.reset(doc)

	if err := b.buildLevels(ix); err != nil {
		return nil, nil, err
	}

	steps := []func(context.Context) error{b.attachWalls, b.attachRooms, b.attachFurniture, b.attachAnnotations}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return nil, nil, err
		}
	}

	scene := b.scene()
	if b.opts.ImportCameras {
		for _, cam := range doc.Cameras {
			if err := ctx.Err(); err != nil {
				return nil, nil, models.Cancelled(models.StageBuild, err)
			}
			scene.Cameras = append(scene.Cameras, cam)
		}
	}
	return scene, b.warnings, nil
}

func (b *Builder) reset(doc *models.Document) {
	b.doc = doc
	b.levels = nil
	b.warnings = nil
}

func (b *Builder) scene() *models.Scene {
	home := b.doc.Home
	s := &models.Scene{
		Name:            home.Name,
		Version:         home.Version,
		WallHeight:      b.defaultWallHeight(),
		Properties:      b.doc.Properties,
		Environment:     b.doc.Environment,
		BackgroundImage: b.doc.BackgroundImage,
		Print:           b.doc.Print,
		Compass:         b.doc.Compass,
		Camera:          home.Camera,
		SelectedLevel:   home.SelectedLevel,
		Levels:          b.levels,
		Hints:           b.opts.Hints,
	}
	for _, prop := range b.doc.Properties {
		switch prop.Name {
		case "Author":
			s.Metadata.Author = prop.Value
		case "Copyright":
			s.Metadata.Copyright = prop.Value
		case "License":
			s.Metadata.License = prop.Value
		}
	}
	return s
}

func (b *Builder) defaultWallHeight() float64 {
	if b.doc.Home.WallHeight > 0 {
		return b.doc.Home.WallHeight
	}
	return b.levels[0].Height
}

// ============================================================
// Levels
// ============================================================

func (b *Builder) buildLevels(ix *resolve.Index) error {
	if ix != nil && len(ix.DuplicateLevels) > 0 {
		return models.Fatal(models.KindInvariantViolation, models.StageBuild, nil,
			"duplicate level id %q", ix.DuplicateLevels[0])
	}

	for _, l := range b.doc.Levels {
		if l.Height <= 0 {
			return models.Fatal(models.KindInvariantViolation, models.StageBuild, nil,
				"level %q has non-positive height %g", l.ID, l.Height)
		}
		l.Walls, l.Rooms, l.Furniture = nil, nil, nil
		l.Polylines, l.DimensionLines, l.Labels = nil, nil, nil
		b.levels = append(b.levels, l)
	}

	if len(b.levels) == 0 {
		b.levels = []*models.Level{{
			ID:             DefaultLevelID,
			Name:           defaultLevelName,
			Height:         defaultLevelHeight,
			FloorThickness: defaultFloorThickness,
			Visible:        true,
			Viewable:       true,
			Synthetic:      true,
		}}
		return nil
	}

	// порядок документа сохраняется при равных elevation и elevationIndex
	sort.SliceStable(b.levels, func(i, j int) bool {
		a, c := b.levels[i], b.levels[j]
		if a.Elevation != c.Elevation {
			return a.Elevation < c.Elevation
		}
		return a.ElevationIndex < c.ElevationIndex
	})
	return nil
}

// levelFor возвращает уровень сущности; без ссылки или при неразрешённой
// ссылке: первый уровень стека
func (b *Builder) levelFor(ref *models.LevelRef) *models.Level {
	if ref.State == models.RefResolved && ref.Level != nil {
		return ref.Level
	}
	first := b.levels[0]
	if !ref.Set() {
		*ref = models.LevelRef{ID: first.ID, State: models.RefResolved, Level: first}
	}
	return first
}

// ============================================================
// Entities
// ============================================================

func (b *Builder) attachWalls(ctx context.Context) error {
	for _, w := range b.doc.Walls {
		if err := ctx.Err(); err != nil {
			return models.Cancelled(models.StageBuild, err)
		}
		if w.Thickness <= 0 {
			b.warn(models.WarnDegenerateWall, "wall", w.ID, w.Line, "thickness %g is not positive; wall dropped", w.Thickness)
			continue
		}
		if w.Start().Equal(w.End(), 1e-9) {
			b.warn(models.WarnDegenerateWall, "wall", w.ID, w.Line, "start and end points coincide; wall dropped")
			continue
		}

		lvl := b.levelFor(&w.Level)
		if w.Height <= 0 {
			w.Height = b.doc.Home.WallHeight
			if w.Height <= 0 {
				w.Height = lvl.Height
			}
		}
		if !w.Sloped {
			w.HeightAtEnd = w.Height
		}

		b.checkTexture(w.LeftSideTexture, "wall", w.ID)
		b.checkTexture(w.RightSideTexture, "wall", w.ID)
		if b.opts.ImportFurniture {
			for _, bb := range w.Baseboards {
				b.checkTexture(bb.Texture, "wall", w.ID)
			}
		} else {
			w.Baseboards = nil
		}
		lvl.Walls = append(lvl.Walls, w)
	}
	return nil
}

func (b *Builder) attachRooms(ctx context.Context) error {
	for _, r := range b.doc.Rooms {
		if err := ctx.Err(); err != nil {
			return models.Cancelled(models.StageBuild, err)
		}
		r.Points = openRing(r.Points)
		if len(r.Points) < 3 {
			b.warn(models.WarnDegenerateRoom, "room", r.ID, r.Line, "room has %d distinct points, need at least 3; room dropped", len(r.Points))
			continue
		}
		b.checkTexture(r.FloorTexture, "room", r.ID)
		b.checkTexture(r.CeilingTexture, "room", r.ID)

		lvl := b.levelFor(&r.Level)
		lvl.Rooms = append(lvl.Rooms, r)
	}
	return nil
}

// openRing убирает повтор первой точки в конце полигона
func openRing(points []models.Point) []models.Point {
	if len(points) > 1 && points[0].Equal(points[len(points)-1], 1e-9) {
		return points[:len(points)-1]
	}
	return points
}

func (b *Builder) attachFurniture(ctx context.Context) error {
	for _, f := range b.doc.Furniture {
		if err := ctx.Err(); err != nil {
			return models.Cancelled(models.StageBuild, err)
		}
		if !b.checkGroups(f) {
			continue
		}
		kept := b.filter(f)
		if kept == nil {
			continue
		}
		lvl := b.levelFor(&kept.Level)
		lvl.Furniture = append(lvl.Furniture, kept)
	}
	return nil
}

// checkGroups сверяет число детей каждой группы с прочитанным парсером
func (b *Builder) checkGroups(f *models.Furniture) bool {
	if f.Kind != models.FurnitureGroup {
		return true
	}
	if len(f.Children) != f.ChildCount {
		b.warn(models.WarnGroupMismatch, f.Element, f.ID, f.Line,
			"group holds %d children but %d were parsed; group dropped", len(f.Children), f.ChildCount)
		return false
	}
	for _, c := range f.Children {
		if !b.checkGroups(c) {
			return false
		}
	}
	return true
}

// filter применяет опции импорта; группа без оставшихся детей исчезает
func (b *Builder) filter(f *models.Furniture) *models.Furniture {
	switch f.Kind {
	case models.FurnitureDoorOrWindow:
		if !b.opts.ImportDoors {
			return nil
		}
	case models.FurnitureLight:
		if !b.opts.ImportLights {
			return nil
		}
	case models.FurniturePiece:
		if !b.opts.ImportFurniture {
			return nil
		}
	case models.FurnitureGroup:
		children := f.Children[:0]
		for _, c := range f.Children {
			if kept := b.filter(c); kept != nil {
				children = append(children, kept)
			}
		}
		f.Children = children
		f.ChildCount = len(children)
		if len(children) == 0 {
			return nil
		}
		return f
	}
	b.checkPiece(f)
	return f
}

func (b *Builder) attachAnnotations(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return models.Cancelled(models.StageBuild, err)
	}
	for _, pl := range b.doc.Polylines {
		lvl := b.levelFor(&pl.Level)
		lvl.Polylines = append(lvl.Polylines, pl)
	}
	for _, d := range b.doc.DimensionLines {
		lvl := b.levelFor(&d.Level)
		lvl.DimensionLines = append(lvl.DimensionLines, d)
	}
	for _, l := range b.doc.Labels {
		lvl := b.levelFor(&l.Level)
		lvl.Labels = append(lvl.Labels, l)
	}
	return nil
}

// ============================================================
// Resources
// ============================================================

func (b *Builder) checkPiece(f *models.Furniture) {
	if f.Piece == nil {
		return
	}
	b.checkResource(&f.Piece.Model, f.Element, f.ID, "model")
	b.checkResource(&f.Piece.Icon, f.Element, f.ID, "icon")
	b.checkResource(&f.Piece.PlanIcon, f.Element, f.ID, "planIcon")
	b.checkTexture(f.Piece.Texture, f.Element, f.ID)
	for _, m := range f.Piece.Materials {
		b.checkTexture(m.Texture, f.Element, f.ID)
	}
}

func (b *Builder) checkTexture(t *models.Texture, element, id string) {
	if t == nil {
		return
	}
	b.checkResource(&t.Image, element, id, "texture image")
}

// checkResource помечает внешние пути и заменяет отсутствующие заглушкой
func (b *Builder) checkResource(ref *models.ResourceRef, element, id, what string) {
	if ref.Empty() {
		return
	}
	if archive.IsExternal(ref.Path) {
		ref.External = true
		return
	}
	if b.opts.Resources == nil || b.opts.Resources.Has(ref.Path) {
		return
	}
	ref.Placeholder = true
	b.warn(models.WarnMissingResource, element, id, 0, "%s %q is not in the archive; placeholder used", what, ref.Path)
}

func (b *Builder) warn(code models.WarningCode, element, id string, line int, format string, args ...any) {
	b.warnings = append(b.warnings, models.Warning{
		Stage:    models.StageBuild,
		Code:     code,
		Element:  element,
		EntityID: id,
		Line:     line,
		Message:  fmt.Sprintf(format, args...),
	})
}
