package parser

import (
	"fmt"

	"sh3d-importer/internal/importer/models"
)

// ============================================================
// Furniture
// ============================================================

// Семейства проёмов по catalogId
const (
	FamilyOpen2Pane    = "open-2-pane"
	FamilySliding2Pane = "sliding-2-pane"
	FamilySimpleDoor   = "simple-door"
	FamilyUnknown      = "unknown"
)

var catalogFamilies = map[string]string{
	"eTeks#fixedWindow85x123":         FamilyOpen2Pane,
	"eTeks#window85x123":              FamilyOpen2Pane,
	"eTeks#doubleWindow126x123":       FamilyOpen2Pane,
	"eTeks#doubleWindow126x163":       FamilyOpen2Pane,
	"eTeks#doubleFrenchWindow126x200": FamilyOpen2Pane,
	"eTeks#window85x163":              FamilyOpen2Pane,
	"eTeks#frenchWindow85x200":        FamilyOpen2Pane,
	"eTeks#doubleHungWindow80x122":    FamilyOpen2Pane,
	"eTeks#roundWindow":               FamilyOpen2Pane,
	"eTeks#halfRoundWindow":           FamilyOpen2Pane,
	"Scopia#window_2x1_with_sliders":  FamilySliding2Pane,
	"Scopia#window_2x3_arched":        FamilySliding2Pane,
	"Scopia#window_2x4_arched":        FamilySliding2Pane,
	"eTeks#sliderWindow126x200":       FamilySliding2Pane,
	"eTeks#frontDoor":                 FamilySimpleDoor,
	"eTeks#roundedDoor":               FamilySimpleDoor,
	"eTeks#door":                      FamilySimpleDoor,
	"eTeks#doorFrame":                 FamilySimpleDoor,
	"eTeks#roundDoorFrame":            FamilySimpleDoor,
}

// FamilyOf возвращает семейство проёма для catalogId
func FamilyOf(catalogID string) string {
	if family, ok := catalogFamilies[catalogID]; ok {
		return family
	}
	return FamilyUnknown
}

func kindOf(element string) models.FurnitureKind {
	switch element {
	case "furnitureGroup":
		return models.FurnitureGroup
	case "doorOrWindow":
		return models.FurnitureDoorOrWindow
	case "light":
		return models.FurnitureLight
	default:
		return models.FurniturePiece
	}
}

// parseFurniture разбирает элемент мебели; группы разбираются рекурсивно,
// дочерний элемент с ошибкой отбрасывается без потери группы
func (p *parser) parseFurniture(n *node) *models.Furniture {
	a := newAttrs(n)
	f := &models.Furniture{Kind: kindOf(n.name), Element: n.name, Line: n.line}
	f.FurnitureCommon = p.parseCommon(a, f.Kind == models.FurnitureGroup)

	if f.Kind != models.FurnitureGroup {
		f.Piece = parsePiece(a)
	}
	switch f.Kind {
	case models.FurnitureDoorOrWindow:
		f.Door = parseDoor(a)
		f.Door.Family = FamilyOf(f.CatalogID)
	case models.FurnitureLight:
		f.Light = &models.LightAttrs{Power: a.float("power", 0.5)}
	}
	if p.reject(a, n, f.ID) {
		return nil
	}

	for _, c := range n.children {
		switch c.name {
		case "property":
			if prop, ok := p.parseProperty(c); ok {
				f.Properties = append(f.Properties, prop)
			}
		case "textStyle":
		case "pieceOfFurniture", "doorOrWindow", "light", "shelfUnit", "furnitureGroup":
			if f.Kind != models.FurnitureGroup {
				p.unknownElement(c, n.name)
				continue
			}
			if child := p.parseFurniture(c); child != nil {
				f.Children = append(f.Children, child)
			}
		case "texture":
			if f.Piece == nil {
				p.unknownElement(c, n.name)
				continue
			}
			f.Piece.Texture = p.parseTexture(c)
		case "material":
			if f.Piece == nil {
				p.unknownElement(c, n.name)
				continue
			}
			if m := p.parseMaterial(c); m != nil {
				f.Piece.Materials = append(f.Piece.Materials, m)
			}
		case "transformation":
			if f.Piece == nil {
				p.unknownElement(c, n.name)
				continue
			}
			if tr := p.parseTransformation(c); tr != nil {
				f.Piece.Transformations = append(f.Piece.Transformations, tr)
			}
		case "sash":
			if f.Door == nil {
				p.unknownElement(c, n.name)
				continue
			}
			if s, ok := p.parseSash(c, f.ID); ok {
				f.Door.Sashes = append(f.Door.Sashes, s)
			}
		case "lightSource":
			if f.Light == nil {
				p.unknownElement(c, n.name)
				continue
			}
			id := fmt.Sprintf("%s-%d", f.ID, len(f.Light.Sources))
			if src, ok := p.parseLightSource(c, id); ok {
				f.Light.Sources = append(f.Light.Sources, src)
			}
		case "lightSourceMaterial":
			if f.Light == nil {
				p.unknownElement(c, n.name)
				continue
			}
			ma := newAttrs(c)
			name := ma.reqStr("name")
			if !p.reject(ma, c, f.ID) {
				f.Light.SourceMaterials = append(f.Light.SourceMaterials, name)
			}
		default:
			p.unknownElement(c, n.name)
		}
	}

	if f.Kind == models.FurnitureGroup {
		f.ChildCount = len(f.Children)
	}
	if f.Door != nil && f.Door.Family == FamilyUnknown {
		p.warn(models.WarnUnknownCatalog, n, f.ID, "catalogId %q has no opening family; generic cut-out only", f.CatalogID)
	}
	return f
}

func (p *parser) parseCommon(a *attrs, group bool) models.FurnitureCommon {
	c := models.FurnitureCommon{
		ID:                      p.entityID(a),
		Level:                   levelRef(a),
		Name:                    a.reqStr("name"),
		CatalogID:               a.str("catalogId", ""),
		Creator:                 a.str("creator", ""),
		Description:             a.str("description", ""),
		Information:             a.str("information", ""),
		License:                 a.str("license", ""),
		Elevation:               a.float("elevation", 0),
		Angle:                   a.float("angle", 0),
		Pitch:                   a.float("pitch", 0),
		Roll:                    a.float("roll", 0),
		WidthInPlan:             a.float("widthInPlan", 0),
		DepthInPlan:             a.float("depthInPlan", 0),
		HeightInPlan:            a.float("heightInPlan", 0),
		Visible:                 a.bool("visible", true),
		Movable:                 a.bool("movable", true),
		NameVisible:             a.bool("nameVisible", false),
		NameAngle:               a.float("nameAngle", 0),
		NameXOffset:             a.float("nameXOffset", 0),
		NameYOffset:             a.float("nameYOffset", 0),
		Price:                   a.float("price", 0),
		ValueAddedTaxPercentage: a.float("valueAddedTaxPercentage", 0),
		Currency:                a.str("currency", ""),
	}
	// размеры группы выводятся из детей, в документе они необязательны
	if group {
		c.X = a.float("x", 0)
		c.Y = a.float("y", 0)
		c.Width = a.float("width", 0)
		c.Depth = a.float("depth", 0)
		c.Height = a.float("height", 0)
	} else {
		c.X = a.reqFloat("x")
		c.Y = a.reqFloat("y")
		c.Width = a.reqFloat("width")
		c.Depth = a.reqFloat("depth")
		c.Height = a.reqFloat("height")
	}
	a.ignore("nameStyle", "creationDate", "grade", "iconKey", "planIconKey", "modelKey")
	return c
}

func parsePiece(a *attrs) *models.PieceAttrs {
	pc := &models.PieceAttrs{
		Model:                 a.resource("model"),
		Icon:                  a.resource("icon"),
		PlanIcon:              a.resource("planIcon"),
		ModelRotation:         models.IdentityRotation,
		ModelMirrored:         a.bool("modelMirrored", false),
		ModelCenteredAtOrigin: a.bool("modelCenteredAtOrigin", true),
		ModelSize:             a.int64("modelSize", 0),
		ModelFlags:            a.int("modelFlags", 0),
		BackFaceShown:         a.bool("backFaceShown", false),
		Color:                 a.color("color", ""),
		Shininess:             a.float("shininess", 0),
		Resizable:             a.bool("resizable", true),
		Deformable:            a.bool("deformable", true),
		Texturable:            a.bool("texturable", true),
		HorizontallyRotatable: a.bool("horizontallyRotatable", true),
		DoorOrWindowFlag:      a.bool("doorOrWindow", false),
		DropOnTopElevation:    a.float("dropOnTopElevation", 1),
		StaircaseCutOutShape:  a.str("staircaseCutOutShape", ""),
		ShelfElevations:       a.floats("shelfElevations"),
	}
	if rot := a.floats("modelRotation"); rot != nil {
		if len(rot) != len(pc.ModelRotation) {
			a.fail(InvalidNumber, "modelRotation", a.values["modelRotation"])
		} else {
			copy(pc.ModelRotation[:], rot)
		}
	}
	a.ignore("shelfBoxes")
	return pc
}

func parseDoor(a *attrs) *models.DoorOrWindow {
	return &models.DoorOrWindow{
		WallThickness:         a.float("wallThickness", 1),
		WallDistance:          a.float("wallDistance", 0),
		WallWidth:             a.float("wallWidth", 1),
		WallLeft:              a.float("wallLeft", 0),
		WallHeight:            a.float("wallHeight", 1),
		WallTop:               a.float("wallTop", 0),
		WallCutOutOnBothSides: a.bool("wallCutOutOnBothSides", true),
		WidthDepthDeformable:  a.bool("widthDepthDeformable", true),
		CutOutShape:           a.str("cutOutShape", ""),
		BoundToWall:           a.bool("boundToWall", true),
	}
}

func (p *parser) parseSash(n *node, ownerID string) (models.Sash, bool) {
	a := newAttrs(n)
	s := models.Sash{
		XAxis:      a.reqFloat("xAxis"),
		YAxis:      a.reqFloat("yAxis"),
		Width:      a.reqFloat("width"),
		StartAngle: a.reqFloat("startAngle"),
		EndAngle:   a.reqFloat("endAngle"),
	}
	if p.reject(a, n, ownerID) {
		return models.Sash{}, false
	}
	return s, true
}

func (p *parser) parseLightSource(n *node, id string) (models.LightSource, bool) {
	a := newAttrs(n)
	src := models.LightSource{
		ID:       id,
		X:        a.reqFloat("x"),
		Y:        a.reqFloat("y"),
		Z:        a.reqFloat("z"),
		Color:    a.color("color", ""),
		Diameter: a.float("diameter", 0),
	}
	if !a.has("color") {
		a.fail(MissingAttribute, "color", "")
	}
	if p.reject(a, n, id) {
		return models.LightSource{}, false
	}
	return src, true
}
