package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sh3d-importer/internal/importer/geometry"
	"sh3d-importer/internal/importer/mapper"
	"sh3d-importer/internal/importer/transform"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "4000")
	t.Setenv("BODY_LIMIT_MB", "12")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("READ_TIMEOUT", "soon")

	cfg := Load()
	assert.Equal(t, "4000", cfg.Port)
	assert.Equal(t, 12, cfg.BodyLimitMB)
	assert.True(t, cfg.MinioUseSSL)
	assert.Equal(t, 30, cfg.ReadTimeout)
	assert.Equal(t, "sh3d-archives", cfg.MinioBucket)
}

func TestLoadImportOptions(t *testing.T) {
	t.Run("defaults without file", func(t *testing.T) {
		opts, err := LoadImportOptions("")
		require.NoError(t, err)
		assert.Equal(t, mapper.DefaultOptions(), opts)
	})

	t.Run("toml overrides", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "import.toml")
		require.NoError(t, os.WriteFile(path, []byte(`
[import]
import_lights = false
join_walls = false
junction_policy = "miter"
angle_unit = "degrees"
arc_segments = 32
`), 0o644))

		opts, err := LoadImportOptions(path)
		require.NoError(t, err)
		assert.False(t, opts.ImportLights)
		assert.False(t, opts.JoinWalls)
		assert.True(t, opts.ImportDoors)
		assert.Equal(t, geometry.PolicyMiter, opts.JunctionPolicy)
		assert.Equal(t, transform.Degrees, opts.AngleUnit)
		assert.Equal(t, 32, opts.ArcSegments)
		assert.Equal(t, 10.0, opts.MiterLimit)
	})

	t.Run("out of range values clamped", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "import.toml")
		require.NoError(t, os.WriteFile(path, []byte(`
[import]
arc_segments = 100000
miter_limit = inf
junction_tolerance = -1.0
`), 0o644))

		opts, err := LoadImportOptions(path)
		require.NoError(t, err)
		assert.Equal(t, geometry.MaxArcSegments, opts.ArcSegments)
		assert.Equal(t, 10.0, opts.MiterLimit)
		assert.Equal(t, 0.5, opts.JunctionTolerance)
	})

	t.Run("broken file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "import.toml")
		require.NoError(t, os.WriteFile(path, []byte("[import\njoin_walls ="), 0o644))

		_, err := LoadImportOptions(path)
		assert.Error(t, err)
	})
}
