package graph

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sh3d-importer/internal/importer/models"
	"sh3d-importer/internal/importer/parser"
	"sh3d-importer/internal/importer/resolve"
)

type fakeResources map[string]bool

func (f fakeResources) Has(name string) bool { return f[name] }

func build(t *testing.T, opts Options, xml string) (*models.Scene, []models.Warning, error) {
	t.Helper()
	doc, warnings, err := parser.Parse(context.Background(), strings.NewReader(xml))
	require.NoError(t, err)
	require.Empty(t, warnings)
	ix, rw := resolve.Resolve(doc)
	require.Empty(t, rw)
	return NewBuilder(opts).Build(context.Background(), doc, ix)
}

func TestBuildOrdersLevels(t *testing.T) {
	scene, warnings, err := build(t, DefaultOptions(), `<home wallHeight="260">
  <level id="top" name="Top" elevation="500" floorThickness="10" height="250"/>
  <level id="b" name="B" elevation="0" floorThickness="10" height="250" elevationIndex="1"/>
  <level id="a" name="A" elevation="0" floorThickness="10" height="250" elevationIndex="0"/>
  <wall id="w" level="top" xStart="0" yStart="0" xEnd="100" yEnd="0" thickness="10"/>
  <wall id="free" xStart="0" yStart="0" xEnd="0" yEnd="100" thickness="10"/>
</home>`)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	var ids []string
	for _, l := range scene.Levels {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []string{"a", "b", "top"}, ids)

	require.Len(t, scene.Level("top").Walls, 1)
	// без level, первый уровень стека
	require.Len(t, scene.Level("a").Walls, 1)
	free := scene.Level("a").Walls[0]
	assert.Equal(t, "a", free.Level.ID)
	assert.Equal(t, 260.0, free.Height)
	assert.Equal(t, 260.0, free.HeightAtEnd)
}

func TestBuildSyntheticDefaultLevel(t *testing.T) {
	scene, _, err := build(t, DefaultOptions(), `<home>
  <wall id="w" xStart="0" yStart="0" xEnd="100" yEnd="0" thickness="10"/>
  <room id="r"><point x="0" y="0"/><point x="10" y="0"/><point x="10" y="10"/></room>
</home>`)
	require.NoError(t, err)

	require.Len(t, scene.Levels, 1)
	lvl := scene.Levels[0]
	assert.Equal(t, DefaultLevelID, lvl.ID)
	assert.True(t, lvl.Synthetic)
	assert.Equal(t, 250.0, lvl.Height)
	assert.Len(t, lvl.Walls, 1)
	assert.Len(t, lvl.Rooms, 1)
	assert.Equal(t, 250.0, lvl.Walls[0].Height)
}

func TestBuildLevelInvariantsAreFatal(t *testing.T) {
	_, _, err := build(t, DefaultOptions(), `<home>
  <level id="a" name="A" elevation="0" floorThickness="10" height="0"/>
</home>`)
	require.Error(t, err)
	assert.Equal(t, models.KindInvariantViolation, models.KindOf(err))

	doc, _, err := parser.Parse(context.Background(), strings.NewReader(`<home>
  <level id="a" name="A" elevation="0" floorThickness="10" height="250"/>
  <level id="a" name="A2" elevation="250" floorThickness="10" height="250"/>
</home>`))
	require.NoError(t, err)
	ix, _ := resolve.Resolve(doc)
	_, _, err = NewBuilder(DefaultOptions()).Build(context.Background(), doc, ix)
	require.Error(t, err)
	assert.Equal(t, models.KindInvariantViolation, models.KindOf(err))
}

func TestBuildDropsDegenerateEntities(t *testing.T) {
	scene, warnings, err := build(t, DefaultOptions(), `<home>
  <wall id="dot" xStart="5" yStart="5" xEnd="5" yEnd="5" thickness="10"/>
  <wall id="thin" xStart="0" yStart="0" xEnd="5" yEnd="5" thickness="0"/>
  <room id="sliver"><point x="0" y="0"/><point x="10" y="0"/><point x="0" y="0"/></room>
  <room id="closed"><point x="0" y="0"/><point x="10" y="0"/><point x="10" y="10"/><point x="0" y="0"/></room>
</home>`)
	require.NoError(t, err)

	require.Len(t, warnings, 3)
	assert.Equal(t, models.WarnDegenerateWall, warnings[0].Code)
	assert.Equal(t, models.WarnDegenerateWall, warnings[1].Code)
	assert.Equal(t, models.WarnDegenerateRoom, warnings[2].Code)
	assert.Equal(t, "sliver", warnings[2].EntityID)

	lvl := scene.Levels[0]
	assert.Empty(t, lvl.Walls)
	require.Len(t, lvl.Rooms, 1)
	assert.Len(t, lvl.Rooms[0].Points, 3)
}

func TestBuildGroupMismatchDropsGroup(t *testing.T) {
	doc, _, err := parser.Parse(context.Background(), strings.NewReader(`<home>
  <furnitureGroup id="g" name="G">
    <pieceOfFurniture id="p" name="P" x="0" y="0" width="1" depth="1" height="1"/>
  </furnitureGroup>
  <pieceOfFurniture id="solo" name="Solo" x="0" y="0" width="1" depth="1" height="1"/>
</home>`))
	require.NoError(t, err)
	ix, _ := resolve.Resolve(doc)
	doc.Furniture[0].ChildCount = 2

	scene, warnings, err := NewBuilder(DefaultOptions()).Build(context.Background(), doc, ix)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, models.WarnGroupMismatch, warnings[0].Code)
	require.Len(t, scene.Levels[0].Furniture, 1)
	assert.Equal(t, "solo", scene.Levels[0].Furniture[0].ID)
}

func TestBuildImportFilters(t *testing.T) {
	const xml = `<home>
  <wall id="w" xStart="0" yStart="0" xEnd="100" yEnd="0" thickness="10">
    <baseboard attribute="leftSideBaseboard" thickness="1" height="10"/>
  </wall>
  <pieceOfFurniture id="p" name="P" x="0" y="0" width="1" depth="1" height="1"/>
  <doorOrWindow id="d" name="D" catalogId="eTeks#door" x="50" y="0" width="80" depth="10" height="200"/>
  <light id="l" name="L" x="0" y="0" width="1" depth="1" height="1"><lightSource x="0.5" y="0.5" z="0.5" color="FFFFFFFF"/></light>
  <furnitureGroup id="g" name="G">
    <pieceOfFurniture id="gp" name="GP" x="0" y="0" width="1" depth="1" height="1"/>
    <light id="gl" name="GL" x="0" y="0" width="1" depth="1" height="1"/>
  </furnitureGroup>
  <observerCamera attribute="observerCamera" x="0" y="0" z="170" yaw="0" pitch="0" fieldOfView="1"/>
</home>`

	opts := DefaultOptions()
	opts.ImportFurniture = false
	opts.ImportCameras = false
	scene, _, err := build(t, opts, xml)
	require.NoError(t, err)

	lvl := scene.Levels[0]
	assert.Empty(t, lvl.Walls[0].Baseboards)
	var ids []string
	models.WalkFurniture(lvl.Furniture, func(f *models.Furniture, _ *models.Furniture) { ids = append(ids, f.ID) })
	assert.Equal(t, []string{"d", "l", "g", "gl"}, ids)
	assert.Empty(t, scene.Cameras)

	opts = DefaultOptions()
	opts.ImportDoors = false
	opts.ImportLights = false
	scene, _, err = build(t, opts, xml)
	require.NoError(t, err)
	ids = nil
	models.WalkFurniture(scene.Levels[0].Furniture, func(f *models.Furniture, _ *models.Furniture) { ids = append(ids, f.ID) })
	assert.Equal(t, []string{"p", "g", "gp"}, ids)
	assert.Len(t, scene.Cameras, 1)
}

func TestBuildResourcePlaceholders(t *testing.T) {
	opts := DefaultOptions()
	opts.Resources = fakeResources{"1": true}
	scene, warnings, err := build(t, opts, `<home>
  <property name="Author" value="Jane"/>
  <property name="License" value="CC-BY"/>
  <pieceOfFurniture id="p" name="P" x="0" y="0" width="1" depth="1" height="1" model="1" icon="2"
      planIcon="jar:file:/catalog.jar!/icon.png"/>
</home>`)
	require.NoError(t, err)

	require.Len(t, warnings, 1)
	assert.Equal(t, models.WarnMissingResource, warnings[0].Code)
	piece := scene.Levels[0].Furniture[0].Piece
	assert.False(t, piece.Model.Placeholder)
	assert.True(t, piece.Icon.Placeholder)
	assert.True(t, piece.PlanIcon.External)
	assert.Equal(t, "Jane", scene.Metadata.Author)
	assert.Equal(t, "CC-BY", scene.Metadata.License)
}

func TestBuildCancelled(t *testing.T) {
	doc, _, err := parser.Parse(context.Background(), strings.NewReader(`<home>
  <wall id="w" xStart="0" yStart="0" xEnd="100" yEnd="0" thickness="10"/>
</home>`))
	require.NoError(t, err)
	ix, _ := resolve.Resolve(doc)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	scene, _, err := NewBuilder(DefaultOptions()).Build(ctx, doc, ix)
	require.Error(t, err)
	assert.Nil(t, scene)
	assert.Equal(t, models.KindCancelled, models.KindOf(err))
}
