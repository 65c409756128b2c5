package transform

import (
	"context"

	"github.com/go-gl/mathgl/mgl64"

	"sh3d-importer/internal/importer/models"
)

// ============================================================
// Transform Resolver
// ============================================================

type AngleUnit string

const (
	Radians AngleUnit = "radians"
	Degrees AngleUnit = "degrees"
)

// ParseAngleUnit возвращает единицу по имени; неизвестное имя, радианы
func ParseAngleUnit(s string) AngleUnit {
	if AngleUnit(s) == Degrees {
		return Degrees
	}
	return Radians
}

// ModelSizer сообщает собственный размер модели (ширина, глубина, высота)
// после modelRotation. false, размер неизвестен, модель считается единичным кубом.
type ModelSizer interface {
	ModelSize(f *models.Furniture) (mgl64.Vec3, bool)
}

type Resolver struct {
	unit  AngleUnit
	sizer ModelSizer
}

func NewResolver(unit AngleUnit, sizer ModelSizer) *Resolver {
	if unit == "" {
		unit = Radians
	}
	return &Resolver{unit: unit, sizer: sizer}
}

// Resolve заполняет Level.Placements мировыми матрицами всех экземпляров
// мебели в порядке обхода дерева (родитель раньше детей)
func (r *Resolver) Resolve(ctx context.Context, scene *models.Scene) error {
	for _, lvl := range scene.Levels {
		lvl.Placements = nil
		base := mgl64.Translate3D(0, 0, lvl.Elevation)
		for _, f := range lvl.Furniture {
			if err := ctx.Err(); err != nil {
				return models.Cancelled(models.StageTransform, err)
			}
			r.place(lvl, f, nil, base, 0, 0)
		}
	}
	return nil
}

// place вычисляет экземпляр и рекурсивно его детей.
// parent: мировая система координат родителя (для верхнего уровня, сдвиг на высоту уровня).
func (r *Resolver) place(lvl *models.Level, f *models.Furniture, parent *models.Furniture, parentFrame mgl64.Mat4, parentAngle float64, depth int) {
	frame := parentFrame.Mul4(r.Frame(f))
	angle := parentAngle + r.radians(f.Angle)

	pl := models.Placement{
		FurnitureID: f.ID,
		Kind:        f.Kind,
		Depth:       depth,
		Angle:       angle,
		Position:    point3(mgl64.TransformCoordinate(mgl64.Vec3{}, frame)),
		Footprint:   footprint(frame, f.Width, f.Depth),
	}
	if parent != nil {
		pl.ParentID = parent.ID
	}

	if f.Kind == models.FurnitureGroup {
		pl.Matrix = [16]float64(frame)
		lvl.Placements = append(lvl.Placements, pl)
		for _, c := range f.Children {
			r.place(lvl, c, f, frame, angle, depth+1)
		}
		return
	}

	pl.Matrix = [16]float64(frame.Mul4(r.Model(f)))
	pl.Mirrored = f.Piece != nil && f.Piece.ModelMirrored
	if f.Light != nil {
		pl.LightSources = lightSources(frame, f, pl.Mirrored)
	}
	lvl.Placements = append(lvl.Placements, pl)
}

// Frame возвращает перенос и поворот экземпляра в системе родителя, T(x, y, elevation) · Rz(angle)
func (r *Resolver) Frame(f *models.Furniture) mgl64.Mat4 {
	return mgl64.Translate3D(f.X, f.Y, f.Elevation).Mul4(mgl64.HomogRotate3DZ(r.radians(f.Angle)))
}

// Model: часть матрицы в системе экземпляра, применяемая до поворота:
// Rx(pitch) · Ry(roll) · S(size) · Mirror · modelRotation
func (r *Resolver) Model(f *models.Furniture) mgl64.Mat4 {
	m := mgl64.Ident4()
	if f.Pitch != 0 {
		m = m.Mul4(mgl64.HomogRotate3DX(r.radians(f.Pitch)))
	}
	if f.Roll != 0 {
		m = m.Mul4(mgl64.HomogRotate3DY(r.radians(f.Roll)))
	}
	m = m.Mul4(r.scale(f))
	if f.Piece == nil {
		return m
	}
	if f.Piece.ModelMirrored {
		m = m.Mul4(mgl64.Scale3D(-1, 1, 1))
	}
	return m.Mul4(rotation(f.Piece.ModelRotation))
}

func (r *Resolver) scale(f *models.Furniture) mgl64.Mat4 {
	size := mgl64.Vec3{1, 1, 1}
	if r.sizer != nil {
		if s, ok := r.sizer.ModelSize(f); ok {
			size = s
		}
	}
	return mgl64.Scale3D(ratio(f.Width, size[0]), ratio(f.Depth, size[1]), ratio(f.Height, size[2]))
}

func (r *Resolver) radians(a float64) float64 {
	if r.unit == Degrees {
		return mgl64.DegToRad(a)
	}
	return a
}

// ============================================================
// Helpers
// ============================================================

// rotation строит 4x4 из построчной 3x3 modelRotation
func rotation(rows [9]float64) mgl64.Mat4 {
	return mgl64.Mat3FromRows(
		mgl64.Vec3{rows[0], rows[1], rows[2]},
		mgl64.Vec3{rows[3], rows[4], rows[5]},
		mgl64.Vec3{rows[6], rows[7], rows[8]},
	).Mat4()
}

func ratio(target, intrinsic float64) float64 {
	if intrinsic == 0 {
		return target
	}
	return target / intrinsic
}

// footprint: прямоугольник width x depth вокруг начала экземпляра
func footprint(frame mgl64.Mat4, width, depth float64) []models.Point {
	hw, hd := width/2, depth/2
	corners := []mgl64.Vec3{{-hw, -hd, 0}, {hw, -hd, 0}, {hw, hd, 0}, {-hw, hd, 0}}
	out := make([]models.Point, 0, len(corners))
	for _, c := range corners {
		v := mgl64.TransformCoordinate(c, frame)
		out = append(out, models.Point{X: v[0], Y: v[1]})
	}
	return out
}

// lightSources переводит источники из долей размеров светильника в мир
func lightSources(frame mgl64.Mat4, f *models.Furniture, mirrored bool) []models.PlacedLight {
	out := make([]models.PlacedLight, 0, len(f.Light.Sources))
	for _, src := range f.Light.Sources {
		x := (src.X - 0.5) * f.Width
		if mirrored {
			x = -x
		}
		local := mgl64.Vec3{x, (src.Y - 0.5) * f.Depth, src.Z * f.Height}
		out = append(out, models.PlacedLight{
			ID:       src.ID,
			Position: point3(mgl64.TransformCoordinate(local, frame)),
			Color:    src.Color,
			Diameter: src.Diameter,
			Power:    f.Light.Power,
		})
	}
	return out
}

func point3(v mgl64.Vec3) models.Point3 {
	return models.Point3{X: v[0], Y: v[1], Z: v[2]}
}
