package models

// ============================================================
// Scene graph (output of the core)
// ============================================================

// Scene: полностью разрешённый граф сцены для внешнего эмиттера
type Scene struct {
	Name            string            `json:"name,omitempty"`
	Version         string            `json:"version,omitempty"`
	WallHeight      float64           `json:"wallHeight"`
	Metadata        Metadata          `json:"metadata"`
	Properties      []Property        `json:"properties,omitempty"`
	Environment     map[string]string `json:"environment,omitempty"`
	BackgroundImage map[string]string `json:"backgroundImage,omitempty"`
	Print           map[string]string `json:"print,omitempty"`
	Compass         *Compass          `json:"compass,omitempty"`
	Camera          string            `json:"camera,omitempty"`
	SelectedLevel   LevelRef          `json:"selectedLevel,omitempty"`
	Cameras         []*Camera         `json:"cameras,omitempty"`
	Levels          []*Level          `json:"levels"`
	Hints           EmitHints         `json:"hints"`
}

type Metadata struct {
	Author    string `json:"author,omitempty"`
	Copyright string `json:"copyright,omitempty"`
	License   string `json:"license,omitempty"`
}

// EmitHints передаются эмиттеру без изменений; ядро их не интерпретирует
type EmitHints struct {
	MergeElements       bool `json:"mergeElements"`
	CreateRenderProject bool `json:"createRenderProject"`
	JoinWalls           bool `json:"joinWalls"`
}

// Level находит уровень по ID
func (s *Scene) Level(id string) *Level {
	for _, l := range s.Levels {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// Counts: сводка по сущностям сцены
type Counts struct {
	Levels         int `json:"levels"`
	Walls          int `json:"walls"`
	Rooms          int `json:"rooms"`
	Furniture      int `json:"furniture"`
	Openings       int `json:"openings"`
	Lights         int `json:"lights"`
	Cameras        int `json:"cameras"`
	Polylines      int `json:"polylines"`
	DimensionLines int `json:"dimensionLines"`
	Labels         int `json:"labels"`
	CutOuts        int `json:"cutOuts"`
}

func (s *Scene) Counts() Counts {
	c := Counts{Levels: len(s.Levels), Cameras: len(s.Cameras)}
	for _, l := range s.Levels {
		c.Walls += len(l.Walls)
		c.Rooms += len(l.Rooms)
		c.Polylines += len(l.Polylines)
		c.DimensionLines += len(l.DimensionLines)
		c.Labels += len(l.Labels)
		c.CutOuts += len(l.CutOuts)
		WalkFurniture(l.Furniture, func(f *Furniture, _ *Furniture) {
			c.Furniture++
			switch f.Kind {
			case FurnitureDoorOrWindow:
				c.Openings++
			case FurnitureLight:
				c.Lights++
			}
		})
	}
	return c
}

// ============================================================
// Derived geometry
// ============================================================

// Placement: мировое положение экземпляра мебели
type Placement struct {
	FurnitureID  string        `json:"furnitureId"`
	ParentID     string        `json:"parentId,omitempty"`
	Kind         FurnitureKind `json:"kind"`
	Depth        int           `json:"depth"`
	Matrix       [16]float64   `json:"matrix"` // column-major 4x4
	Position     Point3        `json:"position"`
	Angle        float64       `json:"angle"` // радианы, вокруг вертикали
	Mirrored     bool          `json:"mirrored"`
	Footprint    []Point       `json:"footprint"`
	LightSources []PlacedLight `json:"lightSources,omitempty"`
}

type PlacedLight struct {
	ID       string  `json:"id"`
	Position Point3  `json:"position"`
	Color    *Color  `json:"color,omitempty"`
	Diameter float64 `json:"diameter"`
	Power    float64 `json:"power"`
}

type JoinKind string

const (
	JoinFlat  JoinKind = "flat"
	JoinMiter JoinKind = "miter"
	JoinFan   JoinKind = "fan"
	JoinNone  JoinKind = "none"
)

// WallGeometry: лента стены с митрованными углами.
// Footprint идёт по правой стороне от начала к концу, затем по левой обратно.
type WallGeometry struct {
	WallID        string   `json:"wallId"`
	Footprint     []Point  `json:"footprint"`
	Left          []Point  `json:"left"`
	Right         []Point  `json:"right"`
	StartJoin     JoinKind `json:"startJoin"`
	EndJoin       JoinKind `json:"endJoin"`
	Length        float64  `json:"length"`
	Thickness     float64  `json:"thickness"`
	Bottom        float64  `json:"bottom"`
	HeightAtStart float64  `json:"heightAtStart"`
	HeightAtEnd   float64  `json:"heightAtEnd"`
	Arc           *ArcInfo `json:"arc,omitempty"`
}

type ArcInfo struct {
	Center Point   `json:"center"`
	Radius float64 `json:"radius"`
	Start  float64 `json:"start"`
	Extent float64 `json:"extent"`
}

type RoomGeometry struct {
	RoomID    string  `json:"roomId"`
	Polygon   []Point `json:"polygon"`
	Area      float64 `json:"area"`
	Perimeter float64 `json:"perimeter"`
	Clockwise bool    `json:"clockwise"`
	Centroid  Point   `json:"centroid"`
	FloorZ    float64 `json:"floorZ"`
	CeilingZ  float64 `json:"ceilingZ"`
}

// CutOut: вычитаемая область проёма на стене.
// Start/End: смещения вдоль осевой линии от начала стены,
// Bottom/Top: высоты от пола уровня, Profile, контур в координатах (u, v) грани.
type CutOut struct {
	WallID    string  `json:"wallId"`
	OpeningID string  `json:"openingId"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Bottom    float64 `json:"bottom"`
	Top       float64 `json:"top"`
	Profile   []Point `json:"profile"`
	Footprint []Point `json:"footprint"`
	Depth     float64 `json:"depth"`
	BothSides bool    `json:"bothSides"`
	Shaped    bool    `json:"shaped"`
}

type BaseboardGeometry struct {
	WallID    string  `json:"wallId"`
	Side      Side    `json:"side"`
	Footprint []Point `json:"footprint"`
	Bottom    float64 `json:"bottom"`
	Top       float64 `json:"top"`
	Color     *Color  `json:"color,omitempty"`
}
