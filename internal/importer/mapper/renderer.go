package mapper

import (
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"sh3d-importer/internal/importer/models"
)

// ============================================================
// Plan renderer
// ============================================================

// planMargin: поля вокруг плана в сантиметрах
const planMargin = 20

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render собирает SVG-план одного уровня: комнаты, контуры стен, плинтусы,
// вырезы проёмов и следы мебели. Пустой levelID, выбранный в документе уровень.
func (r *Renderer) Render(scene *models.Scene, levelID string) (string, error) {
	if scene == nil {
		return "", errors.New("scene is nil")
	}

	lvl, err := r.pickLevel(scene, levelID)
	if err != nil {
		return "", err
	}

	minX, minY, width, height := r.bounds(lvl)

	var elements []string
	elements = append(elements, r.renderRooms(lvl)...)
	elements = append(elements, r.renderWalls(lvl)...)
	elements = append(elements, r.renderBaseboards(lvl)...)
	elements = append(elements, r.renderCutOuts(lvl)...)
	elements = append(elements, r.renderFurniture(lvl)...)

	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="%s %s %s %s">`,
		formatFloat(width), formatFloat(height), formatFloat(minX), formatFloat(minY), formatFloat(width), formatFloat(height)))
	builder.WriteString("\n")
	builder.WriteString(fmt.Sprintf(`  <g id="%s">`, html.EscapeString(lvl.ID)))
	builder.WriteString("\n")

	for _, elem := range elements {
		builder.WriteString("    ")
		builder.WriteString(elem)
		builder.WriteString("\n")
	}

	builder.WriteString("  </g>\n")
	builder.WriteString(`</svg>`)
	return builder.String(), nil
}

// ============================================================
// Level selection & sizing
// ============================================================

func (r *Renderer) pickLevel(scene *models.Scene, levelID string) (*models.Level, error) {
	if len(scene.Levels) == 0 {
		return nil, errors.New("scene has no levels")
	}

	if levelID != "" {
		if lvl := scene.Level(levelID); lvl != nil {
			return lvl, nil
		}
		return nil, errors.Errorf("level %q not found", levelID)
	}

	if scene.SelectedLevel.ID != "" {
		if lvl := scene.Level(scene.SelectedLevel.ID); lvl != nil {
			return lvl, nil
		}
	}
	return scene.Levels[0], nil
}

func (r *Renderer) bounds(lvl *models.Level) (minX, minY, width, height float64) {
	minX, minY = math.MaxFloat64, math.MaxFloat64
	maxX, maxY := -math.MaxFloat64, -math.MaxFloat64

	grow := func(points []models.Point) {
		for _, p := range points {
			minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
			minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
		}
	}
	for _, g := range lvl.WallGeometry {
		grow(g.Footprint)
	}
	for _, g := range lvl.RoomGeometry {
		grow(g.Polygon)
	}
	for _, p := range lvl.Placements {
		grow(p.Footprint)
	}

	if minX == math.MaxFloat64 {
		return 0, 0, 1000, 1000
	}

	return minX - planMargin, minY - planMargin, maxX - minX + 2*planMargin, maxY - minY + 2*planMargin
}

// ============================================================
// Element renderers
// ============================================================

func (r *Renderer) renderRooms(lvl *models.Level) []string {
	colors := make(map[string]string, len(lvl.Rooms))
	for _, room := range lvl.Rooms {
		if room.FloorColor != nil {
			colors[room.ID] = room.FloorColor.CSS()
		}
	}

	var out []string
	for _, g := range lvl.RoomGeometry {
		if len(g.Polygon) < 3 {
			continue
		}
		fill, ok := colors[g.RoomID]
		if !ok {
			fill = "#eeeeee"
		}
		out = append(out, pathElement(g.RoomID, g.Polygon, fill, "#888"))
	}
	return out
}

func (r *Renderer) renderWalls(lvl *models.Level) []string {
	var out []string
	for _, g := range lvl.WallGeometry {
		out = append(out, pathElement(g.WallID, g.Footprint, "#555", "#000"))
	}
	return out
}

func (r *Renderer) renderBaseboards(lvl *models.Level) []string {
	var out []string
	for _, b := range lvl.Baseboards {
		id := b.WallID + "-" + string(b.Side) + "-baseboard"
		out = append(out, pathElement(id, b.Footprint, "#c8b08a", "none"))
	}
	return out
}

func (r *Renderer) renderCutOuts(lvl *models.Level) []string {
	var out []string
	for _, c := range lvl.CutOuts {
		out = append(out, pathElement(c.OpeningID+"-cutout", c.Footprint, "#ffffff", "#d62728"))
	}
	return out
}

func (r *Renderer) renderFurniture(lvl *models.Level) []string {
	var out []string
	for _, p := range lvl.Placements {
		if p.Kind == models.FurnitureGroup || len(p.Footprint) < 3 {
			continue
		}
		stroke := "#2ca02c"
		switch p.Kind {
		case models.FurnitureDoorOrWindow:
			stroke = "#1f77b4"
		case models.FurnitureLight:
			stroke = "#ff7f0e"
		}
		out = append(out, pathElement(p.FurnitureID, p.Footprint, "none", stroke))
	}
	return out
}

// ============================================================
// Formatting helpers
// ============================================================

func pathElement(id string, points []models.Point, fill, stroke string) string {
	if len(points) == 0 {
		return ""
	}

	var path strings.Builder
	path.WriteString(`<path id="`)
	path.WriteString(html.EscapeString(id))
	path.WriteString(`" d="M `)
	path.WriteString(formatPoint(points[0]))
	for _, p := range points[1:] {
		path.WriteString(" L ")
		path.WriteString(formatPoint(p))
	}
	path.WriteString(fmt.Sprintf(` Z" fill="%s" stroke="%s" />`, fill, stroke))
	return path.String()
}

// formatFloat округляет до сотых миллиметра, чтобы вывод был стабильным
func formatFloat(val float64) string {
	val = math.Round(val*1000) / 1000
	if val == 0 {
		val = 0 // -0
	}
	return strconv.FormatFloat(val, 'f', -1, 64)
}

func formatPoint(p models.Point) string {
	return formatFloat(p.X) + " " + formatFloat(p.Y)
}
