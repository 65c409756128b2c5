package mapper

import (
	"math"

	"sh3d-importer/internal/importer/geometry"
	"sh3d-importer/internal/importer/graph"
	"sh3d-importer/internal/importer/models"
	"sh3d-importer/internal/importer/transform"
)

// ============================================================
// Import options
// ============================================================

// Options: непрозрачная запись настроек импорта
type Options struct {
	ImportDoors     bool `json:"importDoors" toml:"import_doors"`
	ImportFurniture bool `json:"importFurniture" toml:"import_furniture"`
	ImportLights    bool `json:"importLights" toml:"import_lights"`
	ImportCameras   bool `json:"importCameras" toml:"import_cameras"`

	JoinWalls           bool `json:"joinWalls" toml:"join_walls"`
	MergeElements       bool `json:"mergeElements" toml:"merge_elements"`
	CreateRenderProject bool `json:"createRenderProject" toml:"create_render_project"`

	JunctionPolicy    geometry.JunctionPolicy `json:"junctionPolicy" toml:"junction_policy"`
	AngleUnit         transform.AngleUnit     `json:"angleUnit" toml:"angle_unit"`
	JunctionTolerance float64                 `json:"junctionTolerance" toml:"junction_tolerance"`
	ArcSegments       int                     `json:"arcSegments" toml:"arc_segments"`
	MiterLimit        float64                 `json:"miterLimit" toml:"miter_limit"`

	Sizer    transform.ModelSizer `json:"-" toml:"-"`
	Progress models.ProgressFunc  `json:"-" toml:"-"`
}

func DefaultOptions() Options {
	geo := geometry.DefaultOptions()
	return Options{
		ImportDoors:       true,
		ImportFurniture:   true,
		ImportLights:      true,
		ImportCameras:     true,
		JoinWalls:         true,
		JunctionPolicy:    geo.Policy,
		AngleUnit:         transform.Radians,
		JunctionTolerance: geo.Tolerance,
		ArcSegments:       geo.ArcSegments,
		MiterLimit:        geo.MiterLimit,
	}
}

// Normalize приводит числовые настройки к допустимым значениям:
// нечисловые и неположительные допуски заменяются значениями по умолчанию,
// число отрезков дуги ограничено geometry.MaxArcSegments
func (o Options) Normalize() Options {
	def := DefaultOptions()
	if !positiveFinite(o.JunctionTolerance) {
		o.JunctionTolerance = def.JunctionTolerance
	}
	if !positiveFinite(o.MiterLimit) {
		o.MiterLimit = def.MiterLimit
	}
	o.ArcSegments = geometry.ClampArcSegments(o.ArcSegments)
	o.JunctionPolicy = geometry.ParseJunctionPolicy(string(o.JunctionPolicy))
	o.AngleUnit = transform.ParseAngleUnit(string(o.AngleUnit))
	return o
}

func positiveFinite(f float64) bool {
	return f > 0 && !math.IsInf(f, 0)
}

func (o Options) hints() models.EmitHints {
	return models.EmitHints{
		MergeElements:       o.MergeElements,
		CreateRenderProject: o.CreateRenderProject,
		JoinWalls:           o.JoinWalls,
	}
}

func (o Options) graph(resources graph.ResourceIndex) graph.Options {
	return graph.Options{
		ImportDoors:     o.ImportDoors,
		ImportFurniture: o.ImportFurniture,
		ImportLights:    o.ImportLights,
		ImportCameras:   o.ImportCameras,
		Hints:           o.hints(),
		Resources:       resources,
	}
}

func (o Options) geometry() geometry.Options {
	return geometry.Options{
		Join:        o.JoinWalls,
		Policy:      geometry.ParseJunctionPolicy(string(o.JunctionPolicy)),
		MiterLimit:  o.MiterLimit,
		Tolerance:   o.JunctionTolerance,
		ArcSegments: o.ArcSegments,
		Progress:    o.Progress,
	}
}
