package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sh3d-importer/internal/importer/geometry"
	"sh3d-importer/internal/importer/models"
	"sh3d-importer/internal/importer/transform"
)

func TestFlagsOverrideConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "import.toml")
	require.NoError(t, os.WriteFile(path, []byte("[import]\njunction_policy = \"flat\"\narc_segments = 8\nimport_lights = false\n"), 0o644))

	f := &flags{config: path, noDoors: true, angleUnit: "degrees", arcSegments: 32}
	opts, err := f.options()
	require.NoError(t, err)

	assert.False(t, opts.ImportDoors)
	assert.False(t, opts.ImportLights)
	assert.True(t, opts.ImportFurniture)
	assert.Equal(t, geometry.PolicyFlat, opts.JunctionPolicy)
	assert.Equal(t, transform.Degrees, opts.AngleUnit)
	assert.Equal(t, 32, opts.ArcSegments)
	assert.Nil(t, opts.Progress)
}

func TestExitCodes(t *testing.T) {
	assert.Equal(t, 2, exitCode(models.Fatal(models.KindArchiveCorrupt, models.StageArchive, nil, "bad zip")))
	assert.Equal(t, 3, exitCode(errors.Wrap(models.Fatal(models.KindDocumentMalformed, models.StageParse, nil, "bad xml"), "import")))
	assert.Equal(t, 130, exitCode(models.Cancelled(models.StageGeometry, nil)))
	assert.Equal(t, 1, exitCode(errors.New("disk full")))
}

func TestRootCommandLayout(t *testing.T) {
	root := newRootCmd()
	names := []string{}
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"scene", "warnings", "plan"}, names)
}
