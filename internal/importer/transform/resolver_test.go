package transform

import (
	"context"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sh3d-importer/internal/importer/models"
)

const eps = 1e-9

func piece(id string, x, y float64) *models.Furniture {
	return &models.Furniture{
		Kind:            models.FurniturePiece,
		Element:         "pieceOfFurniture",
		FurnitureCommon: models.FurnitureCommon{ID: id, X: x, Y: y, Width: 40, Depth: 20, Height: 80},
		Piece:           &models.PieceAttrs{ModelRotation: models.IdentityRotation},
	}
}

func groupScene(angle, levelElevation float64) *models.Scene {
	group := &models.Furniture{
		Kind:            models.FurnitureGroup,
		Element:         "furnitureGroup",
		FurnitureCommon: models.FurnitureCommon{ID: "g", X: 100, Y: 100, Angle: angle, Width: 200, Depth: 100},
		Children:        []*models.Furniture{piece("child", 50, 0)},
		ChildCount:      1,
	}
	return &models.Scene{Levels: []*models.Level{{ID: "L", Elevation: levelElevation, Height: 250, Furniture: []*models.Furniture{group}}}}
}

func placementOf(t *testing.T, lvl *models.Level, id string) models.Placement {
	t.Helper()
	for _, p := range lvl.Placements {
		if p.FurnitureID == id {
			return p
		}
	}
	require.FailNow(t, "no placement", id)
	return models.Placement{}
}

func TestGroupChildPosition(t *testing.T) {
	tests := []struct {
		name  string
		unit  AngleUnit
		angle float64
		wantX float64
		wantY float64
	}{
		{"no rotation", Radians, 0, 150, 100},
		{"quarter turn in radians", Radians, math.Pi / 2, 100, 150},
		{"quarter turn in degrees", Degrees, 90, 100, 150},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scene := groupScene(tt.angle, 0)
			require.NoError(t, NewResolver(tt.unit, nil).Resolve(context.Background(), scene))

			lvl := scene.Levels[0]
			require.Len(t, lvl.Placements, 2)
			assert.Equal(t, "g", lvl.Placements[0].FurnitureID)

			child := placementOf(t, lvl, "child")
			assert.Equal(t, "g", child.ParentID)
			assert.Equal(t, 1, child.Depth)
			assert.InDelta(t, tt.wantX, child.Position.X, eps)
			assert.InDelta(t, tt.wantY, child.Position.Y, eps)
		})
	}
}

func TestLevelElevationAppliedOnce(t *testing.T) {
	scene := groupScene(0, 300)
	scene.Levels[0].Furniture[0].Elevation = 10
	scene.Levels[0].Furniture[0].Children[0].Elevation = 5

	require.NoError(t, NewResolver(Radians, nil).Resolve(context.Background(), scene))

	child := placementOf(t, scene.Levels[0], "child")
	assert.InDelta(t, 315.0, child.Position.Z, eps)
}

func TestMatrixCompositionOrder(t *testing.T) {
	p := piece("p", 10, 20)
	p.Angle = math.Pi / 2
	p.Piece.ModelMirrored = true
	scene := &models.Scene{Levels: []*models.Level{{ID: "L", Height: 250, Furniture: []*models.Furniture{p}}}}

	require.NoError(t, NewResolver(Radians, nil).Resolve(context.Background(), scene))
	pl := scene.Levels[0].Placements[0]
	assert.True(t, pl.Mirrored)

	m := mgl64.Mat4(pl.Matrix)
	// правый край единичной модели: зеркало -> -0.5, масштаб -> -20, поворот -> (0, -20), перенос
	v := mgl64.TransformCoordinate(mgl64.Vec3{0.5, 0, 0}, m)
	assert.InDelta(t, 10.0, v[0], eps)
	assert.InDelta(t, 0.0, v[1], eps)

	top := mgl64.TransformCoordinate(mgl64.Vec3{0, 0, 1}, m)
	assert.InDelta(t, 80.0, top[2], eps)

	// след: неотзеркаленный прямоугольник 40x20, повёрнутый на 90°
	require.Len(t, pl.Footprint, 4)
	assert.InDelta(t, 20.0, pl.Footprint[0].X, eps)
	assert.InDelta(t, 0.0, pl.Footprint[0].Y, eps)
}

func TestModelRotationAppliedFirst(t *testing.T) {
	p := piece("p", 0, 0)
	// модель лежит «на спине»: y модели -> z, z модели -> -y
	p.Piece.ModelRotation = [9]float64{1, 0, 0, 0, 0, -1, 0, 1, 0}
	scene := &models.Scene{Levels: []*models.Level{{ID: "L", Height: 250, Furniture: []*models.Furniture{p}}}}

	require.NoError(t, NewResolver(Radians, nil).Resolve(context.Background(), scene))
	m := mgl64.Mat4(scene.Levels[0].Placements[0].Matrix)

	v := mgl64.TransformCoordinate(mgl64.Vec3{0, 1, 0}, m)
	assert.InDelta(t, 0.0, v[1], eps)
	assert.InDelta(t, 80.0, v[2], eps)
}

type fixedSizer struct{ size mgl64.Vec3 }

func (s fixedSizer) ModelSize(*models.Furniture) (mgl64.Vec3, bool) { return s.size, true }

func TestModelSizerScales(t *testing.T) {
	p := piece("p", 0, 0)
	scene := &models.Scene{Levels: []*models.Level{{ID: "L", Height: 250, Furniture: []*models.Furniture{p}}}}

	require.NoError(t, NewResolver(Radians, fixedSizer{mgl64.Vec3{20, 10, 40}}).Resolve(context.Background(), scene))
	m := mgl64.Mat4(scene.Levels[0].Placements[0].Matrix)

	v := mgl64.TransformCoordinate(mgl64.Vec3{10, 5, 40}, m)
	assert.InDelta(t, 20.0, v[0], eps)
	assert.InDelta(t, 10.0, v[1], eps)
	assert.InDelta(t, 80.0, v[2], eps)
}

func TestLightSourcesInWorldSpace(t *testing.T) {
	lamp := piece("lamp", 100, 50)
	lamp.Kind = models.FurnitureLight
	lamp.Elevation = 200
	lamp.Light = &models.LightAttrs{Power: 0.5, Sources: []models.LightSource{{ID: "lamp-0", X: 1, Y: 0.5, Z: 0.5, Diameter: 2}}}
	scene := &models.Scene{Levels: []*models.Level{{ID: "L", Height: 250, Furniture: []*models.Furniture{lamp}}}}

	require.NoError(t, NewResolver(Radians, nil).Resolve(context.Background(), scene))
	pl := scene.Levels[0].Placements[0]
	require.Len(t, pl.LightSources, 1)

	src := pl.LightSources[0]
	assert.Equal(t, "lamp-0", src.ID)
	assert.InDelta(t, 120.0, src.Position.X, eps)
	assert.InDelta(t, 50.0, src.Position.Y, eps)
	assert.InDelta(t, 240.0, src.Position.Z, eps)
	assert.Equal(t, 0.5, src.Power)
}

func TestResolveCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewResolver(Radians, nil).Resolve(ctx, groupScene(0, 0))
	require.Error(t, err)
	assert.Equal(t, models.KindCancelled, models.KindOf(err))
}
