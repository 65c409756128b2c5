package parser

import (
	"math"
	"strings"

	"sh3d-importer/internal/importer/models"
)

// ============================================================
// Home-level elements
// ============================================================

func (p *parser) parseHomeAttrs(n *node) {
	a := newAttrs(n)
	p.doc.Home = models.HomeInfo{
		Name:       a.str("name", ""),
		Version:    a.str("version", ""),
		WallHeight: a.float("wallHeight", 0),
		Camera:     a.enum("camera", "topCamera", "observerCamera", "topCamera"),
	}
	if id := a.str("selectedLevel", ""); id != "" {
		p.doc.Home.SelectedLevel = models.LevelRef{ID: id, State: models.RefPending}
	}
	a.ignore("basePlanLocked", "furnitureSortedProperty", "furnitureDescendingSorted",
		"furnitureAdditionalProperties", "allLevelsSelection", "structure")

	// у <home> ошибки атрибутов не отбрасывают документ
	for _, se := range a.errs {
		p.warn(se.Code(), n, "", "%s; default used", se.Error())
	}
	for _, name := range a.unknown() {
		p.warn(models.WarnUnknownAttribute, n, "", "unknown attribute %q ignored", name)
	}
}

func (p *parser) parseProperty(n *node) (models.Property, bool) {
	a := newAttrs(n)
	prop := models.Property{Name: a.reqStr("name"), Value: a.str("value", "")}
	a.ignore("type")
	if p.reject(a, n, "") {
		return models.Property{}, false
	}
	return prop, true
}

// passthrough сохраняет атрибуты элемента без интерпретации
func (p *parser) passthrough(n *node) map[string]string {
	return newAttrs(n).all()
}

// parseEnvironment сохраняет атрибуты окружения; текстуры земли и неба
// кладутся под именем своего атрибута
func (p *parser) parseEnvironment(n *node) map[string]string {
	env := newAttrs(n).all()
	for _, c := range n.children {
		switch c.name {
		case "texture":
			if tex := p.parseTexture(c); tex != nil && tex.Attribute != "" {
				env[tex.Attribute] = tex.Image.Path
			}
		case "camera", "property":
		default:
			p.unknownElement(c, n.name)
		}
	}
	return env
}

func (p *parser) parseCompass(n *node) *models.Compass {
	a := newAttrs(n)
	c := &models.Compass{
		X:              a.reqFloat("x"),
		Y:              a.reqFloat("y"),
		Diameter:       a.reqFloat("diameter"),
		NorthDirection: a.float("northDirection", 0),
		Longitude:      a.float("longitude", 0),
		Latitude:       a.float("latitude", 0),
		TimeZone:       a.str("timeZone", ""),
		Visible:        a.bool("visible", true),
	}
	if p.reject(a, n, "") {
		return nil
	}
	return c
}

func (p *parser) parseCamera(n *node) *models.Camera {
	a := newAttrs(n)
	cam := &models.Camera{
		ID:          p.entityID(a),
		Element:     n.name,
		Attribute:   a.reqEnum("attribute", "observerCamera", "topCamera", "storedCamera", "storedCameras", "cameraPath"),
		Name:        a.str("name", ""),
		Lens:        a.enum("lens", "PINHOLE", "PINHOLE", "NORMAL", "FISHEYE", "SPHERICAL"),
		X:           a.reqFloat("x"),
		Y:           a.reqFloat("y"),
		Z:           a.reqFloat("z"),
		Yaw:         a.reqFloat("yaw"),
		Pitch:       a.reqFloat("pitch"),
		FieldOfView: a.reqFloat("fieldOfView"),
		Time:        a.int64("time", 0),
		Renderer:    a.str("renderer", ""),
		FixedSize:   a.bool("fixedSize", false),
		Line:        n.line,
	}
	a.ignore("planScale")
	if p.reject(a, n, cam.ID) {
		return nil
	}
	return cam
}

// ============================================================
// Level
// ============================================================

// parseLevel: ошибки схемы у уровня фатальны, без него нельзя разложить сущности
func (p *parser) parseLevel(n *node) (*models.Level, error) {
	a := newAttrs(n)
	lvl := &models.Level{
		ID:             a.reqStr("id"),
		Name:           a.reqStr("name"),
		Elevation:      a.reqFloat("elevation"),
		FloorThickness: a.reqFloat("floorThickness"),
		Height:         a.reqFloat("height"),
		ElevationIndex: a.int("elevationIndex", -1),
		Visible:        a.bool("visible", true),
		Viewable:       a.bool("viewable", true),
		Line:           n.line,
	}
	if a.failed() {
		return nil, models.Fatal(models.KindInvariantViolation, models.StageParse, a.errs[0],
			"level %q is invalid", lvl.ID)
	}
	for _, name := range a.unknown() {
		p.warn(models.WarnUnknownAttribute, n, lvl.ID, "unknown attribute %q ignored", name)
	}

	for _, c := range n.children {
		switch c.name {
		case "backgroundImage":
			lvl.BackgroundImage = p.passthrough(c)
		case "property":
		default:
			p.unknownElement(c, n.name)
		}
	}
	return lvl, nil
}

// ============================================================
// Walls
// ============================================================

func (p *parser) parseWall(n *node) *models.Wall {
	a := newAttrs(n)
	w := &models.Wall{
		ID:                 p.entityID(a),
		Level:              levelRef(a),
		WallAtStart:        wallRef(a, "wallAtStart"),
		WallAtEnd:          wallRef(a, "wallAtEnd"),
		XStart:             a.reqFloat("xStart"),
		YStart:             a.reqFloat("yStart"),
		XEnd:               a.reqFloat("xEnd"),
		YEnd:               a.reqFloat("yEnd"),
		Thickness:          a.reqFloat("thickness"),
		Height:             a.float("height", 0),
		ArcExtent:          a.float("arcExtent", 0),
		Pattern:            a.str("pattern", ""),
		TopColor:           a.color("topColor", ""),
		LeftSideShininess:  a.float("leftSideShininess", 0),
		RightSideShininess: a.float("rightSideShininess", 0),
		Line:               n.line,
	}
	if a.has("heightAtEnd") {
		w.HeightAtEnd = a.float("heightAtEnd", 0)
		w.Sloped = true
	}
	// дуга в полный оборот и больше не задаёт окружность по хорде
	if math.Abs(w.ArcExtent) >= 2*math.Pi {
		a.fail(InvalidNumber, "arcExtent", a.values["arcExtent"])
	}
	w.LeftSideColor = a.color("leftSideColor", "")
	w.RightSideColor = a.color("rightSideColor", "")
	if w.LeftSideColor == nil {
		w.LeftSideColor = w.TopColor
	}
	if w.RightSideColor == nil {
		w.RightSideColor = w.TopColor
	}
	if p.reject(a, n, w.ID) {
		return nil
	}

	for _, c := range n.children {
		switch c.name {
		case "texture":
			tex := p.parseTexture(c)
			if tex == nil {
				continue
			}
			switch tex.Attribute {
			case "leftSideTexture":
				w.LeftSideTexture = tex
			case "rightSideTexture":
				w.RightSideTexture = tex
			default:
				p.warn(models.WarnInvalidEnum, c, w.ID, "wall texture attribute %q ignored", tex.Attribute)
			}
		case "baseboard":
			if bb := p.parseBaseboard(c, w.ID); bb != nil {
				w.Baseboards = append(w.Baseboards, bb)
			}
		case "property":
		default:
			p.unknownElement(c, n.name)
		}
	}
	return w
}

func (p *parser) parseBaseboard(n *node, wallID string) *models.Baseboard {
	a := newAttrs(n)
	bb := &models.Baseboard{
		Thickness: a.reqFloat("thickness"),
		Height:    a.reqFloat("height"),
		Color:     a.color("color", ""),
	}
	switch a.reqEnum("attribute", "leftSideBaseboard", "rightSideBaseboard") {
	case "leftSideBaseboard":
		bb.Side = models.SideLeft
	case "rightSideBaseboard":
		bb.Side = models.SideRight
	}
	if p.reject(a, n, wallID) {
		return nil
	}
	for _, c := range n.childrenNamed("texture") {
		bb.Texture = p.parseTexture(c)
	}
	return bb
}

// ============================================================
// Visual modifiers
// ============================================================

func (p *parser) parseTexture(n *node) *models.Texture {
	a := newAttrs(n)
	tex := &models.Texture{
		Attribute:           a.str("attribute", ""),
		Name:                a.str("name", ""),
		CatalogID:           a.str("catalogId", ""),
		Creator:             a.str("creator", ""),
		Image:               a.reqResource("image"),
		Width:               a.reqFloat("width"),
		Height:              a.reqFloat("height"),
		XOffset:             a.float("xOffset", 0),
		YOffset:             a.float("yOffset", 0),
		Angle:               a.float("angle", 0),
		Scale:               a.float("scale", 1),
		LeftToRightOriented: a.bool("leftToRightOriented", true),
	}
	if p.reject(a, n, "") {
		return nil
	}
	return tex
}

func (p *parser) parseMaterial(n *node) *models.Material {
	a := newAttrs(n)
	m := &models.Material{
		Name:      a.reqStr("name"),
		Key:       a.str("key", ""),
		Color:     a.color("color", ""),
		Shininess: a.float("shininess", 0),
	}
	if p.reject(a, n, "") {
		return nil
	}
	for _, c := range n.childrenNamed("texture") {
		m.Texture = p.parseTexture(c)
	}
	return m
}

func (p *parser) parseTransformation(n *node) *models.Transformation {
	a := newAttrs(n)
	tr := &models.Transformation{Name: a.reqStr("name")}
	values := a.floats("matrix")
	if !a.failed() {
		switch {
		case !a.has("matrix"):
			a.fail(MissingAttribute, "matrix", "")
		case len(values) != len(tr.Matrix):
			a.fail(InvalidNumber, "matrix", a.values["matrix"])
		default:
			copy(tr.Matrix[:], values)
		}
	}
	if p.reject(a, n, "") {
		return nil
	}
	return tr
}

// ============================================================
// Rooms
// ============================================================

func (p *parser) parseRoom(n *node) *models.Room {
	a := newAttrs(n)
	r := &models.Room{
		ID:               p.entityID(a),
		Level:            levelRef(a),
		Name:             a.str("name", ""),
		NameAngle:        a.float("nameAngle", 0),
		NameXOffset:      a.float("nameXOffset", 0),
		NameYOffset:      a.float("nameYOffset", 0),
		AreaVisible:      a.bool("areaVisible", false),
		AreaAngle:        a.float("areaAngle", 0),
		AreaXOffset:      a.float("areaXOffset", 0),
		AreaYOffset:      a.float("areaYOffset", 0),
		FloorVisible:     a.bool("floorVisible", true),
		FloorColor:       a.color("floorColor", ""),
		FloorShininess:   a.float("floorShininess", 0),
		CeilingVisible:   a.bool("ceilingVisible", true),
		CeilingColor:     a.color("ceilingColor", ""),
		CeilingShininess: a.float("ceilingShininess", 0),
		CeilingFlat:      a.bool("ceilingFlat", false),
		Line:             n.line,
	}
	a.ignore("areaStyle", "nameStyle")

	// ошибка в любой вершине делает полигон недостоверным
	var points []*attrs
	for _, c := range n.childrenNamed("point") {
		pa := newAttrs(c)
		r.Points = append(r.Points, models.Point{X: pa.reqFloat("x"), Y: pa.reqFloat("y")})
		points = append(points, pa)
	}
	for _, pa := range points {
		a.errs = append(a.errs, pa.errs...)
	}
	if p.reject(a, n, r.ID) {
		return nil
	}

	for _, c := range n.children {
		switch c.name {
		case "point", "property", "textStyle":
		case "texture":
			tex := p.parseTexture(c)
			if tex == nil {
				continue
			}
			switch tex.Attribute {
			case "floorTexture":
				r.FloorTexture = tex
			case "ceilingTexture":
				r.CeilingTexture = tex
			default:
				p.warn(models.WarnInvalidEnum, c, r.ID, "room texture attribute %q ignored", tex.Attribute)
			}
		default:
			p.unknownElement(c, n.name)
		}
	}
	return r
}

// ============================================================
// Annotations
// ============================================================

func (p *parser) parsePolyline(n *node) *models.Polyline {
	a := newAttrs(n)
	pl := &models.Polyline{
		ID:              p.entityID(a),
		Level:           levelRef(a),
		Thickness:       a.float("thickness", 1),
		CapStyle:        a.enum("capStyle", "BUTT", "BUTT", "SQUARE", "ROUND"),
		JoinStyle:       a.enum("joinStyle", "MITER", "BEVEL", "MITER", "ROUND", "CURVED"),
		DashStyle:       a.enum("dashStyle", "SOLID", "SOLID", "DOT", "DASH", "DASH_DOT", "DASH_DOT_DOT", "CUSTOMIZED"),
		DashPattern:     a.floats("dashPattern"),
		StartArrowStyle: a.enum("startArrowStyle", "NONE", "NONE", "DELTA", "OPEN", "DISC"),
		EndArrowStyle:   a.enum("endArrowStyle", "NONE", "NONE", "DELTA", "OPEN", "DISC"),
		Color:           a.color("color", "FF000000"),
		Elevation:       a.float("elevation", 0),
		ClosedPath:      a.bool("closedPath", false),
		Line:            n.line,
	}
	var points []*attrs
	for _, c := range n.childrenNamed("point") {
		pa := newAttrs(c)
		pl.Points = append(pl.Points, models.Point{X: pa.reqFloat("x"), Y: pa.reqFloat("y")})
		points = append(points, pa)
	}
	for _, pa := range points {
		a.errs = append(a.errs, pa.errs...)
	}
	if p.reject(a, n, pl.ID) {
		return nil
	}
	return pl
}

func (p *parser) parseDimensionLine(n *node) *models.DimensionLine {
	a := newAttrs(n)
	d := &models.DimensionLine{
		ID:             p.entityID(a),
		Level:          levelRef(a),
		XStart:         a.reqFloat("xStart"),
		YStart:         a.reqFloat("yStart"),
		ElevationStart: a.float("elevationStart", 0),
		XEnd:           a.reqFloat("xEnd"),
		YEnd:           a.reqFloat("yEnd"),
		ElevationEnd:   a.float("elevationEnd", 0),
		Offset:         a.reqFloat("offset"),
		EndMarkSize:    a.float("endMarkSize", 10),
		Pitch:          a.float("pitch", 0),
		VisibleIn3D:    a.bool("visibleIn3D", false),
		Color:          a.color("color", ""),
		Line:           n.line,
	}
	if p.reject(a, n, d.ID) {
		return nil
	}
	return d
}

func (p *parser) parseLabel(n *node) *models.Label {
	a := newAttrs(n)
	l := &models.Label{
		ID:           p.entityID(a),
		Level:        levelRef(a),
		X:            a.reqFloat("x"),
		Y:            a.reqFloat("y"),
		Angle:        a.float("angle", 0),
		Elevation:    a.float("elevation", 0),
		Pitch:        a.float("pitch", 0),
		Color:        a.color("color", ""),
		OutlineColor: a.color("outlineColor", ""),
		Line:         n.line,
	}
	var text []string
	for _, c := range n.childrenNamed("text") {
		text = append(text, c.text)
	}
	l.Text = strings.Join(text, "\n")
	if p.reject(a, n, l.ID) {
		return nil
	}
	return l
}
