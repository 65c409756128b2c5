package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ============================================================
// Geometry primitives
// ============================================================

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) Add(o Point) Point { return Point{X: p.X + o.X, Y: p.Y + o.Y} }
func (p Point) Sub(o Point) Point { return Point{X: p.X - o.X, Y: p.Y - o.Y} }
func (p Point) Scale(k float64) Point { return Point{X: p.X * k, Y: p.Y * k} }
func (p Point) Dot(o Point) float64 { return p.X*o.X + p.Y*o.Y }
func (p Point) Cross(o Point) float64 { return p.X*o.Y - p.Y*o.X }
func (p Point) Len() float64 { return math.Hypot(p.X, p.Y) }
func (p Point) Dist(o Point) float64 { return p.Sub(o).Len() }
func (p Point) Perp() Point { return Point{X: -p.Y, Y: p.X} }
func (p Point) Equal(o Point, eps float64) bool {
	return math.Abs(p.X-o.X) <= eps && math.Abs(p.Y-o.Y) <= eps
}

// Unit возвращает единичный вектор (или нулевой для нулевого вектора)
func (p Point) Unit() Point {
	l := p.Len()
	if l == 0 {
		return Point{}
	}
	return Point{X: p.X / l, Y: p.Y / l}
}

type Point3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// ============================================================
// Colors
// ============================================================

// Color: цвет из ARGB-строки SweetHome3D (например FF96A9BA)
type Color struct {
	Hex          string `json:"hex"`
	R            uint8  `json:"r"`
	G            uint8  `json:"g"`
	B            uint8  `json:"b"`
	A            uint8  `json:"a"`
	Transparency int    `json:"transparency"`
}

// ParseColor разбирает 6- или 8-значный hex; при 6 знаках альфа = FF
func ParseColor(hex string) (Color, error) {
	s := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(s) != 6 && len(s) != 8 {
		return Color{}, fmt.Errorf("color %q: expected 6 or 8 hex digits", hex)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("color %q: %w", hex, err)
	}
	c := Color{Hex: strings.ToUpper(s)}
	if len(s) == 6 {
		v |= 0xFF000000
		c.Hex = "FF" + c.Hex
	}
	c.A = uint8(v >> 24)
	c.R = uint8(v >> 16)
	c.G = uint8(v >> 8)
	c.B = uint8(v)
	c.Transparency = 100 - int(c.A)*100/255
	return c, nil
}

// CSS возвращает цвет в виде #rrggbb
func (c Color) CSS() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ============================================================
// References
// ============================================================

type RefState string

const (
	RefNone       RefState = ""
	RefPending    RefState = "pending"
	RefResolved   RefState = "resolved"
	RefUnresolved RefState = "unresolved"
)

// WallRef: ссылка wallAtStart/wallAtEnd. Wall заполняется проходом разрешения ссылок.
type WallRef struct {
	ID         string   `json:"id,omitempty"`
	State      RefState `json:"state,omitempty"`
	CrossLevel bool     `json:"crossLevel,omitempty"`
	Wall       *Wall    `json:"-"`
}

// Set сообщает, указана ли ссылка в документе
func (r WallRef) Set() bool { return r.ID != "" }

// Linked возвращает стену, если ссылка разрешена
func (r WallRef) Linked() *Wall {
	if r.State != RefResolved {
		return nil
	}
	return r.Wall
}

type LevelRef struct {
	ID    string   `json:"id,omitempty"`
	State RefState `json:"state,omitempty"`
	Level *Level   `json:"-"`
}

func (r LevelRef) Set() bool { return r.ID != "" }

// ResourceRef: путь ресурса внутри архива (текстура, модель, иконка)
type ResourceRef struct {
	Path        string `json:"path"`
	External    bool   `json:"external,omitempty"`
	Placeholder bool   `json:"placeholder,omitempty"`
}

func (r ResourceRef) Empty() bool { return r.Path == "" }
