package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sh3d-importer/internal/importer/models"
)

func door(id string, x, y float64) *models.Furniture {
	return &models.Furniture{
		Kind:    models.FurnitureDoorOrWindow,
		Element: "doorOrWindow",
		FurnitureCommon: models.FurnitureCommon{
			ID: id, X: x, Y: y, Width: 100, Depth: 20, Height: 200,
		},
		Piece: &models.PieceAttrs{ModelRotation: models.IdentityRotation},
		Door: &models.DoorOrWindow{
			WallThickness:         1,
			WallWidth:             1,
			WallHeight:            1,
			WallCutOutOnBothSides: true,
			BoundToWall:           true,
		},
	}
}

func hostLevel(openings ...*models.Furniture) *models.Level {
	lvl := levelWith(wall("w", 0, 0, 400, 0, 20))
	lvl.Furniture = openings
	return lvl
}

func TestDoorCutOut(t *testing.T) {
	lvl := hostLevel(door("d", 200, 0))
	warnings := reconstruct(t, DefaultOptions(), lvl)
	assert.Empty(t, warnings)

	require.Len(t, lvl.CutOuts, 1)
	c := lvl.CutOuts[0]
	assert.Equal(t, "w", c.WallID)
	assert.Equal(t, "d", c.OpeningID)
	assert.InDelta(t, 150, c.Start, eps)
	assert.InDelta(t, 250, c.End, eps)
	assert.InDelta(t, 0, c.Bottom, eps)
	assert.InDelta(t, 200, c.Top, eps)
	assert.InDelta(t, 20, c.Depth, eps)
	assert.True(t, c.BothSides)
	assert.False(t, c.Shaped)
	assertPoints(t, []models.Point{{X: 150, Y: -10}, {X: 250, Y: -10}, {X: 250, Y: 10}, {X: 150, Y: 10}}, c.Footprint)
	assertPoints(t, []models.Point{{X: 150, Y: 0}, {X: 250, Y: 0}, {X: 250, Y: 200}, {X: 150, Y: 200}}, c.Profile)
	assert.Empty(t, lvl.FreeOpenings)
}

func TestWindowHeights(t *testing.T) {
	w := door("win", 100, 0)
	w.Height = 100
	w.Elevation = 90
	w.Door.WallHeight = 0.5
	w.Door.WallTop = 0.25

	lvl := hostLevel(w)
	reconstruct(t, DefaultOptions(), lvl)

	require.Len(t, lvl.CutOuts, 1)
	assert.InDelta(t, 165, lvl.CutOuts[0].Top, eps)
	assert.InDelta(t, 115, lvl.CutOuts[0].Bottom, eps)
}

func TestPlacementOverridesRawPosition(t *testing.T) {
	d := door("d", 0, 0)
	lvl := hostLevel(d)
	lvl.Elevation = 300
	lvl.Placements = []models.Placement{{
		FurnitureID: "d",
		Position:    models.Point3{X: 300, Y: 2, Z: 310},
	}}
	reconstruct(t, DefaultOptions(), lvl)

	require.Len(t, lvl.CutOuts, 1)
	c := lvl.CutOuts[0]
	assert.InDelta(t, 250, c.Start, eps)
	assert.InDelta(t, 350, c.End, eps)
	assert.InDelta(t, 10, c.Bottom, eps)
	assert.InDelta(t, 210, c.Top, eps)
}

func TestPartialDepthCutOut(t *testing.T) {
	d := door("d", 200, 0)
	d.Depth = 40
	d.Door.WallCutOutOnBothSides = false
	d.Door.WallThickness = 0.25
	d.Door.WallDistance = 0.5

	lvl := hostLevel(d)
	reconstruct(t, DefaultOptions(), lvl)

	require.Len(t, lvl.CutOuts, 1)
	c := lvl.CutOuts[0]
	assert.False(t, c.BothSides)
	assert.InDelta(t, 10, c.Depth, eps)
	assertPoints(t, []models.Point{{X: 150, Y: 0}, {X: 250, Y: 0}, {X: 250, Y: 10}, {X: 150, Y: 10}}, c.Footprint)
}

func TestMirroredSpan(t *testing.T) {
	tests := []struct {
		name      string
		mirrored  bool
		wantStart float64
		wantEnd   float64
	}{
		{"plain", false, 170, 220},
		{"mirrored", true, 180, 230},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := door("d", 200, 0)
			d.Door.WallLeft = 0.2
			d.Door.WallWidth = 0.5
			d.Piece.ModelMirrored = tt.mirrored

			lvl := hostLevel(d)
			reconstruct(t, DefaultOptions(), lvl)

			require.Len(t, lvl.CutOuts, 1)
			assert.InDelta(t, tt.wantStart, lvl.CutOuts[0].Start, eps)
			assert.InDelta(t, tt.wantEnd, lvl.CutOuts[0].End, eps)
		})
	}
}

func TestOpeningWithoutHost(t *testing.T) {
	loose := door("loose", 200, 100)
	free := door("free", 200, 0)
	free.Door.BoundToWall = false

	lvl := hostLevel(loose, free)
	warnings := reconstruct(t, DefaultOptions(), lvl)

	assert.Empty(t, lvl.CutOuts)
	assert.Equal(t, []string{"loose", "free"}, lvl.FreeOpenings)
	require.Len(t, warnings, 1)
	assert.Equal(t, models.WarnNoHostWall, warnings[0].Code)
	assert.Equal(t, "loose", warnings[0].EntityID)
	assert.Equal(t, models.StageGeometry, warnings[0].Stage)
}

func TestNearestCenterlineWins(t *testing.T) {
	lvl := levelWith(
		wall("a", 0, 0, 400, 0, 20),
		wall("b", 200, -100, 200, 100, 20),
	)
	lvl.Furniture = []*models.Furniture{door("d", 202, 3)}
	reconstruct(t, DefaultOptions(), lvl)

	require.Len(t, lvl.CutOuts, 1)
	assert.Equal(t, "b", lvl.CutOuts[0].WallID)
}

func TestOpeningInsideGroup(t *testing.T) {
	group := &models.Furniture{
		Kind:            models.FurnitureGroup,
		Element:         "furnitureGroup",
		FurnitureCommon: models.FurnitureCommon{ID: "g"},
		Children:        []*models.Furniture{door("nested", 100, 0)},
	}
	lvl := hostLevel(group)
	reconstruct(t, DefaultOptions(), lvl)

	require.Len(t, lvl.CutOuts, 1)
	assert.Equal(t, "nested", lvl.CutOuts[0].OpeningID)
}

func TestCutOutShape(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		d := door("d", 200, 0)
		d.Door.CutOutShape = "M0,1 L0,0.5 L0.5,0 L1,0.5 L1,1 Z"

		lvl := hostLevel(d)
		warnings := reconstruct(t, DefaultOptions(), lvl)
		assert.Empty(t, warnings)

		require.Len(t, lvl.CutOuts, 1)
		c := lvl.CutOuts[0]
		assert.True(t, c.Shaped)
		assertPoints(t, []models.Point{
			{X: 150, Y: 0}, {X: 150, Y: 100}, {X: 200, Y: 200}, {X: 250, Y: 100}, {X: 250, Y: 0},
		}, c.Profile)
	})

	t.Run("largest subpath", func(t *testing.T) {
		d := door("d", 200, 0)
		d.Door.CutOutShape = "M0,0 L0.1,0 L0.1,0.1 Z M0,0 L1,0 L1,1 L0,1 Z"

		lvl := hostLevel(d)
		reconstruct(t, DefaultOptions(), lvl)

		require.Len(t, lvl.CutOuts, 1)
		assert.Len(t, lvl.CutOuts[0].Profile, 4)
		assert.InDelta(t, 250, lvl.CutOuts[0].Profile[1].X, eps)
	})

	t.Run("invalid", func(t *testing.T) {
		d := door("d", 200, 0)
		d.Door.CutOutShape = "M0,0 Lx"

		lvl := hostLevel(d)
		warnings := reconstruct(t, DefaultOptions(), lvl)

		require.Len(t, warnings, 1)
		assert.Equal(t, models.WarnInvalidShape, warnings[0].Code)
		require.Len(t, lvl.CutOuts, 1)
		assert.False(t, lvl.CutOuts[0].Shaped)
		assert.Len(t, lvl.CutOuts[0].Profile, 4)
	})
}
