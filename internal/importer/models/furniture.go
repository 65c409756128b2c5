package models

// ============================================================
// Furniture tree
// ============================================================

type FurnitureKind string

const (
	FurniturePiece        FurnitureKind = "piece"
	FurnitureDoorOrWindow FurnitureKind = "doorOrWindow"
	FurnitureLight        FurnitureKind = "light"
	FurnitureGroup        FurnitureKind = "group"
)

// Furniture: размеченное объединение, общий набор полей + поля варианта.
// Piece заполнен у piece/doorOrWindow/light, Door, у doorOrWindow,
// Light: у light, Children, у group.
type Furniture struct {
	Kind    FurnitureKind `json:"kind"`
	Element string        `json:"element"`
	FurnitureCommon

	Piece *PieceAttrs   `json:"piece,omitempty"`
	Door  *DoorOrWindow `json:"doorOrWindow,omitempty"`
	Light *LightAttrs   `json:"light,omitempty"`

	Children []*Furniture `json:"children,omitempty"`
	// ChildCount: число дочерних элементов, прочитанных парсером
	ChildCount int `json:"-"`
	Line       int `json:"-"`
}

type FurnitureCommon struct {
	ID                      string     `json:"id"`
	Level                   LevelRef   `json:"level"`
	Name                    string     `json:"name"`
	CatalogID               string     `json:"catalogId,omitempty"`
	Creator                 string     `json:"creator,omitempty"`
	Description             string     `json:"description,omitempty"`
	Information             string     `json:"information,omitempty"`
	License                 string     `json:"license,omitempty"`
	X                       float64    `json:"x"`
	Y                       float64    `json:"y"`
	Elevation               float64    `json:"elevation"`
	Angle                   float64    `json:"angle"`
	Pitch                   float64    `json:"pitch"`
	Roll                    float64    `json:"roll"`
	Width                   float64    `json:"width"`
	Depth                   float64    `json:"depth"`
	Height                  float64    `json:"height"`
	WidthInPlan             float64    `json:"widthInPlan"`
	DepthInPlan             float64    `json:"depthInPlan"`
	HeightInPlan            float64    `json:"heightInPlan"`
	Visible                 bool       `json:"visible"`
	Movable                 bool       `json:"movable"`
	NameVisible             bool       `json:"nameVisible"`
	NameAngle               float64    `json:"nameAngle"`
	NameXOffset             float64    `json:"nameXOffset"`
	NameYOffset             float64    `json:"nameYOffset"`
	Price                   float64    `json:"price"`
	ValueAddedTaxPercentage float64    `json:"valueAddedTaxPercentage"`
	Currency                string     `json:"currency"`
	Properties              []Property `json:"properties,omitempty"`
}

type PieceAttrs struct {
	Model                 ResourceRef       `json:"model"`
	Icon                  ResourceRef       `json:"icon"`
	PlanIcon              ResourceRef       `json:"planIcon"`
	ModelRotation         [9]float64        `json:"modelRotation"`
	ModelMirrored         bool              `json:"modelMirrored"`
	ModelCenteredAtOrigin bool              `json:"modelCenteredAtOrigin"`
	ModelSize             int64             `json:"modelSize"`
	ModelFlags            int               `json:"modelFlags"`
	BackFaceShown         bool              `json:"backFaceShown"`
	Color                 *Color            `json:"color,omitempty"`
	Texture               *Texture          `json:"texture,omitempty"`
	Shininess             float64           `json:"shininess"`
	Materials             []*Material       `json:"materials,omitempty"`
	Transformations       []*Transformation `json:"transformations,omitempty"`
	Resizable             bool              `json:"resizable"`
	Deformable            bool              `json:"deformable"`
	Texturable            bool              `json:"texturable"`
	HorizontallyRotatable bool              `json:"horizontallyRotatable"`
	DoorOrWindowFlag      bool              `json:"doorOrWindowFlag"`
	DropOnTopElevation    float64           `json:"dropOnTopElevation"`
	StaircaseCutOutShape  string            `json:"staircaseCutOutShape,omitempty"`
	ShelfElevations       []float64         `json:"shelfElevations,omitempty"`
}

// IdentityRotation: значение modelRotation по умолчанию
var IdentityRotation = [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}

type DoorOrWindow struct {
	WallThickness         float64 `json:"wallThickness"`
	WallDistance          float64 `json:"wallDistance"`
	WallWidth             float64 `json:"wallWidth"`
	WallLeft              float64 `json:"wallLeft"`
	WallHeight            float64 `json:"wallHeight"`
	WallTop               float64 `json:"wallTop"`
	WallCutOutOnBothSides bool    `json:"wallCutOutOnBothSides"`
	WidthDepthDeformable  bool    `json:"widthDepthDeformable"`
	CutOutShape           string  `json:"cutOutShape,omitempty"`
	BoundToWall           bool    `json:"boundToWall"`
	Sashes                []Sash  `json:"sashes,omitempty"`
	Family                string  `json:"family"`
}

type Sash struct {
	XAxis      float64 `json:"xAxis"`
	YAxis      float64 `json:"yAxis"`
	Width      float64 `json:"width"`
	StartAngle float64 `json:"startAngle"`
	EndAngle   float64 `json:"endAngle"`
}

type LightAttrs struct {
	Power           float64       `json:"power"`
	Sources         []LightSource `json:"sources,omitempty"`
	SourceMaterials []string      `json:"sourceMaterials,omitempty"`
}

// LightSource: точечный источник; X,Y,Z в долях размеров светильника
type LightSource struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	Color    *Color  `json:"color,omitempty"`
	Diameter float64 `json:"diameter"`
}

// ============================================================
// Tree helpers
// ============================================================

// WalkFurniture обходит дерево в глубину (родитель раньше детей)
func WalkFurniture(items []*Furniture, fn func(f *Furniture, parent *Furniture)) {
	var walk func(list []*Furniture, parent *Furniture)
	walk = func(list []*Furniture, parent *Furniture) {
		for _, f := range list {
			fn(f, parent)
			if f.Kind == FurnitureGroup {
				walk(f.Children, f)
			}
		}
	}
	walk(items, nil)
}

// CountFurniture возвращает общее число узлов дерева
func CountFurniture(items []*Furniture) int {
	n := 0
	WalkFurniture(items, func(*Furniture, *Furniture) { n++ })
	return n
}
