package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"sh3d-importer/internal/importer/models"
)

// ============================================================
// Cut-out shape path
// ============================================================

// curveSteps: число отрезков при спрямлении кривых Безье
const curveSteps = 8

var pathCommand = regexp.MustCompile(`([MmLlHhVvCcQqZz])([^MmLlHhVvCcQqZz]*)`)

// ParsePath разбирает SVG path формы проёма (единичный квадрат) в подпути.
// Поддерживаются M, L, H, V, C, Q, Z в абсолютной и относительной форме;
// кривые спрямляются.
func ParsePath(d string) ([][]models.Point, error) {
	d = strings.TrimSpace(d)
	if d == "" {
		return nil, errors.New("empty path")
	}
	if loc := pathCommand.FindStringIndex(d); loc == nil || loc[0] != 0 {
		return nil, errors.Errorf("path must start with a command: %q", d)
	}

	var (
		paths   [][]models.Point
		current []models.Point
		pos     models.Point
		start   models.Point
	)
	flush := func() {
		if len(current) > 1 {
			paths = append(paths, current)
		}
		current = nil
	}

	for _, match := range pathCommand.FindAllStringSubmatch(d, -1) {
		cmd := match[1]
		coords, err := parseCoords(match[2])
		if err != nil {
			return nil, errors.Wrapf(err, "command %s", cmd)
		}
		relative := strings.ToLower(cmd) == cmd
		at := func(x, y float64) models.Point {
			if relative {
				return models.Point{X: pos.X + x, Y: pos.Y + y}
			}
			return models.Point{X: x, Y: y}
		}

		switch strings.ToUpper(cmd) {
		case "M":
			if len(coords) < 2 || len(coords)%2 != 0 {
				return nil, errors.Errorf("command %s: expected coordinate pairs, got %d values", cmd, len(coords))
			}
			flush()
			pos = at(coords[0], coords[1])
			start = pos
			current = append(current, pos)
			// последующие пары после M, неявный L
			for i := 2; i < len(coords); i += 2 {
				pos = at(coords[i], coords[i+1])
				current = append(current, pos)
			}

		case "L":
			if len(coords) == 0 || len(coords)%2 != 0 {
				return nil, errors.Errorf("command %s: expected coordinate pairs, got %d values", cmd, len(coords))
			}
			for i := 0; i < len(coords); i += 2 {
				pos = at(coords[i], coords[i+1])
				current = append(current, pos)
			}

		case "H":
			if len(coords) == 0 {
				return nil, errors.Errorf("command %s: missing coordinate", cmd)
			}
			for _, x := range coords {
				if relative {
					pos.X += x
				} else {
					pos.X = x
				}
				current = append(current, pos)
			}

		case "V":
			if len(coords) == 0 {
				return nil, errors.Errorf("command %s: missing coordinate", cmd)
			}
			for _, y := range coords {
				if relative {
					pos.Y += y
				} else {
					pos.Y = y
				}
				current = append(current, pos)
			}

		case "C":
			if len(coords) == 0 || len(coords)%6 != 0 {
				return nil, errors.Errorf("command %s: expected 6 values per segment, got %d", cmd, len(coords))
			}
			for i := 0; i < len(coords); i += 6 {
				c1 := at(coords[i], coords[i+1])
				c2 := at(coords[i+2], coords[i+3])
				end := at(coords[i+4], coords[i+5])
				current = append(current, cubic(pos, c1, c2, end)...)
				pos = end
			}

		case "Q":
			if len(coords) == 0 || len(coords)%4 != 0 {
				return nil, errors.Errorf("command %s: expected 4 values per segment, got %d", cmd, len(coords))
			}
			for i := 0; i < len(coords); i += 4 {
				c := at(coords[i], coords[i+1])
				end := at(coords[i+2], coords[i+3])
				current = append(current, quadratic(pos, c, end)...)
				pos = end
			}

		case "Z":
			if len(coords) != 0 {
				return nil, errors.Errorf("command %s takes no arguments", cmd)
			}
			pos = start
			flush()
		}
	}
	flush()

	if len(paths) == 0 {
		return nil, errors.Errorf("path %q has no drawable segments", d)
	}
	return paths, nil
}

// pathNumber: число в компактной записи пути; знак или вторая точка
// начинают новое число ("1-1", "0.5.5")
var pathNumber = regexp.MustCompile(`[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)

func parseCoords(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	spans := pathNumber.FindAllStringIndex(s, -1)
	coords := make([]float64, 0, len(spans))
	prev := 0
	for _, span := range spans {
		// между числами допустимы только пробелы и запятые
		if gap := s[prev:span[0]]; strings.Trim(gap, " \t\r\n,") != "" {
			return nil, errors.Errorf("invalid number %q", strings.TrimSpace(gap))
		}
		val, err := strconv.ParseFloat(s[span[0]:span[1]], 64)
		if err != nil {
			return nil, errors.Errorf("invalid number %q", s[span[0]:span[1]])
		}
		coords = append(coords, val)
		prev = span[1]
	}
	if rest := s[prev:]; strings.Trim(rest, " \t\r\n,") != "" {
		return nil, errors.Errorf("invalid number %q", strings.TrimSpace(rest))
	}
	return coords, nil
}

func cubic(p0, p1, p2, p3 models.Point) []models.Point {
	out := make([]models.Point, 0, curveSteps)
	for i := 1; i <= curveSteps; i++ {
		t := float64(i) / curveSteps
		u := 1 - t
		out = append(out, p0.Scale(u*u*u).
			Add(p1.Scale(3*u*u*t)).
			Add(p2.Scale(3*u*t*t)).
			Add(p3.Scale(t*t*t)))
	}
	return out
}

func quadratic(p0, p1, p2 models.Point) []models.Point {
	out := make([]models.Point, 0, curveSteps)
	for i := 1; i <= curveSteps; i++ {
		t := float64(i) / curveSteps
		u := 1 - t
		out = append(out, p0.Scale(u*u).Add(p1.Scale(2*u*t)).Add(p2.Scale(t*t)))
	}
	return out
}
