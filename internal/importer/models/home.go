package models

// ============================================================
// Parsed document
// ============================================================

// Document: типизированное дерево Home.xml до построения сцены
type Document struct {
	Home            HomeInfo          `json:"home"`
	Properties      []Property        `json:"properties,omitempty"`
	Environment     map[string]string `json:"environment,omitempty"`
	BackgroundImage map[string]string `json:"backgroundImage,omitempty"`
	Print           map[string]string `json:"print,omitempty"`
	Compass         *Compass          `json:"compass,omitempty"`
	Cameras         []*Camera         `json:"cameras,omitempty"`
	Levels          []*Level          `json:"levels,omitempty"`
	Furniture       []*Furniture      `json:"furniture,omitempty"`
	Walls           []*Wall           `json:"walls,omitempty"`
	Rooms           []*Room           `json:"rooms,omitempty"`
	Polylines       []*Polyline       `json:"polylines,omitempty"`
	DimensionLines  []*DimensionLine  `json:"dimensionLines,omitempty"`
	Labels          []*Label          `json:"labels,omitempty"`
}

type HomeInfo struct {
	Name          string   `json:"name,omitempty"`
	Version       string   `json:"version,omitempty"`
	WallHeight    float64  `json:"wallHeight,omitempty"`
	Camera        string   `json:"camera,omitempty"`
	SelectedLevel LevelRef `json:"selectedLevel,omitempty"`
}

type Property struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Compass struct {
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
	Diameter       float64 `json:"diameter"`
	NorthDirection float64 `json:"northDirection"`
	Longitude      float64 `json:"longitude"`
	Latitude       float64 `json:"latitude"`
	TimeZone       string  `json:"timeZone,omitempty"`
	Visible        bool    `json:"visible"`
}

// ============================================================
// Level
// ============================================================

type Level struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Elevation       float64           `json:"elevation"`
	FloorThickness  float64           `json:"floorThickness"`
	Height          float64           `json:"height"`
	ElevationIndex  int               `json:"elevationIndex"`
	Visible         bool              `json:"visible"`
	Viewable        bool              `json:"viewable"`
	Synthetic       bool              `json:"synthetic,omitempty"`
	BackgroundImage map[string]string `json:"backgroundImage,omitempty"`
	Line            int               `json:"-"`

	Walls          []*Wall          `json:"walls"`
	Rooms          []*Room          `json:"rooms"`
	Furniture      []*Furniture     `json:"furniture"`
	Polylines      []*Polyline      `json:"polylines,omitempty"`
	DimensionLines []*DimensionLine `json:"dimensionLines,omitempty"`
	Labels         []*Label         `json:"labels,omitempty"`

	Placements   []Placement         `json:"placements,omitempty"`
	WallGeometry []WallGeometry      `json:"wallGeometry,omitempty"`
	RoomGeometry []RoomGeometry      `json:"roomGeometry,omitempty"`
	CutOuts      []CutOut            `json:"cutOuts,omitempty"`
	Baseboards   []BaseboardGeometry `json:"baseboards,omitempty"`
	FreeOpenings []string            `json:"freeOpenings,omitempty"`
}

// Top возвращает верхнюю границу диапазона [elevation, elevation+height)
func (l *Level) Top() float64 { return l.Elevation + l.Height }

// Lights собирает светильники уровня, включая вложенные в группы
func (l *Level) Lights() []*Furniture {
	var out []*Furniture
	WalkFurniture(l.Furniture, func(f *Furniture, _ *Furniture) {
		if f.Kind == FurnitureLight {
			out = append(out, f)
		}
	})
	return out
}

// ============================================================
// Walls
// ============================================================

type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

type Wall struct {
	ID          string   `json:"id"`
	Level       LevelRef `json:"level"`
	WallAtStart WallRef  `json:"wallAtStart"`
	WallAtEnd   WallRef  `json:"wallAtEnd"`
	XStart      float64  `json:"xStart"`
	YStart      float64  `json:"yStart"`
	XEnd        float64  `json:"xEnd"`
	YEnd        float64  `json:"yEnd"`
	Thickness   float64  `json:"thickness"`
	// Height == 0 до построения сцены означает «высота по умолчанию»
	Height             float64      `json:"height"`
	HeightAtEnd        float64      `json:"heightAtEnd"`
	Sloped             bool         `json:"sloped,omitempty"`
	ArcExtent          float64      `json:"arcExtent,omitempty"`
	Pattern            string       `json:"pattern,omitempty"`
	TopColor           *Color       `json:"topColor,omitempty"`
	LeftSideColor      *Color       `json:"leftSideColor,omitempty"`
	RightSideColor     *Color       `json:"rightSideColor,omitempty"`
	LeftSideShininess  float64      `json:"leftSideShininess"`
	RightSideShininess float64      `json:"rightSideShininess"`
	LeftSideTexture    *Texture     `json:"leftSideTexture,omitempty"`
	RightSideTexture   *Texture     `json:"rightSideTexture,omitempty"`
	Baseboards         []*Baseboard `json:"baseboards,omitempty"`
	Line               int          `json:"-"`
}

func (w *Wall) Start() Point { return Point{X: w.XStart, Y: w.YStart} }
func (w *Wall) End() Point { return Point{X: w.XEnd, Y: w.YEnd} }

// IsArc сообщает, что стена дуговая
func (w *Wall) IsArc() bool { return w.ArcExtent != 0 }

type Baseboard struct {
	Side      Side     `json:"side"`
	Thickness float64  `json:"thickness"`
	Height    float64  `json:"height"`
	Color     *Color   `json:"color,omitempty"`
	Texture   *Texture `json:"texture,omitempty"`
}

// ============================================================
// Rooms
// ============================================================

type Room struct {
	ID               string   `json:"id"`
	Level            LevelRef `json:"level"`
	Name             string   `json:"name,omitempty"`
	Points           []Point  `json:"points"`
	NameAngle        float64  `json:"nameAngle"`
	NameXOffset      float64  `json:"nameXOffset"`
	NameYOffset      float64  `json:"nameYOffset"`
	AreaVisible      bool     `json:"areaVisible"`
	AreaAngle        float64  `json:"areaAngle"`
	AreaXOffset      float64  `json:"areaXOffset"`
	AreaYOffset      float64  `json:"areaYOffset"`
	FloorVisible     bool     `json:"floorVisible"`
	FloorColor       *Color   `json:"floorColor,omitempty"`
	FloorShininess   float64  `json:"floorShininess"`
	FloorTexture     *Texture `json:"floorTexture,omitempty"`
	CeilingVisible   bool     `json:"ceilingVisible"`
	CeilingColor     *Color   `json:"ceilingColor,omitempty"`
	CeilingShininess float64  `json:"ceilingShininess"`
	CeilingTexture   *Texture `json:"ceilingTexture,omitempty"`
	CeilingFlat      bool     `json:"ceilingFlat"`
	Line             int      `json:"-"`
}

// ============================================================
// Annotations & cameras
// ============================================================

type Polyline struct {
	ID              string    `json:"id"`
	Level           LevelRef  `json:"level"`
	Points          []Point   `json:"points"`
	Thickness       float64   `json:"thickness"`
	CapStyle        string    `json:"capStyle"`
	JoinStyle       string    `json:"joinStyle"`
	DashStyle       string    `json:"dashStyle"`
	DashPattern     []float64 `json:"dashPattern,omitempty"`
	StartArrowStyle string    `json:"startArrowStyle"`
	EndArrowStyle   string    `json:"endArrowStyle"`
	Color           *Color    `json:"color,omitempty"`
	Elevation       float64   `json:"elevation"`
	ClosedPath      bool      `json:"closedPath"`
	Line            int       `json:"-"`
}

type DimensionLine struct {
	ID             string   `json:"id"`
	Level          LevelRef `json:"level"`
	XStart         float64  `json:"xStart"`
	YStart         float64  `json:"yStart"`
	ElevationStart float64  `json:"elevationStart"`
	XEnd           float64  `json:"xEnd"`
	YEnd           float64  `json:"yEnd"`
	ElevationEnd   float64  `json:"elevationEnd"`
	Offset         float64  `json:"offset"`
	EndMarkSize    float64  `json:"endMarkSize"`
	Pitch          float64  `json:"pitch"`
	VisibleIn3D    bool     `json:"visibleIn3D"`
	Color          *Color   `json:"color,omitempty"`
	Line           int      `json:"-"`
}

type Label struct {
	ID           string   `json:"id"`
	Level        LevelRef `json:"level"`
	Text         string   `json:"text"`
	X            float64  `json:"x"`
	Y            float64  `json:"y"`
	Angle        float64  `json:"angle"`
	Elevation    float64  `json:"elevation"`
	Pitch        float64  `json:"pitch"`
	Color        *Color   `json:"color,omitempty"`
	OutlineColor *Color   `json:"outlineColor,omitempty"`
	Line         int      `json:"-"`
}

type Camera struct {
	ID          string  `json:"id"`
	Element     string  `json:"element"`
	Attribute   string  `json:"attribute"`
	Name        string  `json:"name,omitempty"`
	Lens        string  `json:"lens"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Z           float64 `json:"z"`
	Yaw         float64 `json:"yaw"`
	Pitch       float64 `json:"pitch"`
	FieldOfView float64 `json:"fieldOfView"`
	Time        int64   `json:"time"`
	Renderer    string  `json:"renderer,omitempty"`
	FixedSize   bool    `json:"fixedSize"`
	Line        int     `json:"-"`
}

// ============================================================
// Visual modifiers
// ============================================================

type Texture struct {
	Attribute           string      `json:"attribute,omitempty"`
	Name                string      `json:"name,omitempty"`
	CatalogID           string      `json:"catalogId,omitempty"`
	Creator             string      `json:"creator,omitempty"`
	Image               ResourceRef `json:"image"`
	Width               float64     `json:"width"`
	Height              float64     `json:"height"`
	XOffset             float64     `json:"xOffset"`
	YOffset             float64     `json:"yOffset"`
	Angle               float64     `json:"angle"`
	Scale               float64     `json:"scale"`
	LeftToRightOriented bool        `json:"leftToRightOriented"`
}

type Material struct {
	Name      string   `json:"name"`
	Key       string   `json:"key,omitempty"`
	Color     *Color   `json:"color,omitempty"`
	Shininess float64  `json:"shininess"`
	Texture   *Texture `json:"texture,omitempty"`
}

// Transformation деформирует именованную часть модели; Matrix, 3x4 построчно
type Transformation struct {
	Name   string      `json:"name"`
	Matrix [12]float64 `json:"matrix"`
}
