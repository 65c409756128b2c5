package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sh3d-importer/internal/importer/models"
)

func TestParsePathPolygons(t *testing.T) {
	tests := []struct {
		name string
		d    string
		want []models.Point
	}{
		{
			name: "absolute rectangle",
			d:    "M0,0 L1,0 L1,1 L0,1 Z",
			want: []models.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}},
		},
		{
			name: "relative with h and v",
			d:    "m0.25 0 h0.5 v1 h-0.5 z",
			want: []models.Point{{X: 0.25, Y: 0}, {X: 0.75, Y: 0}, {X: 0.75, Y: 1}, {X: 0.25, Y: 1}},
		},
		{
			name: "compact signs",
			d:    "M0 0L1-1l-1-1z",
			want: []models.Point{{X: 0, Y: 0}, {X: 1, Y: -1}, {X: 0, Y: -2}},
		},
		{
			name: "compact decimals",
			d:    "M0.5.5L1.5.5 1 1.5e0",
			want: []models.Point{{X: 0.5, Y: 0.5}, {X: 1.5, Y: 0.5}, {X: 1, Y: 1.5}},
		},
		{
			name: "implicit lineto after moveto",
			d:    "M0 0 1 0 1 1",
			want: []models.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paths, err := ParsePath(tt.d)
			require.NoError(t, err)
			require.Len(t, paths, 1)
			assert.Equal(t, tt.want, paths[0])
		})
	}
}

func TestParsePathCurvesAreFlattened(t *testing.T) {
	paths, err := ParsePath("M0,1 L0,0.5 Q0.5,-0.5 1,0.5 L1,1 Z")
	require.NoError(t, err)
	require.Len(t, paths, 1)

	points := paths[0]
	assert.Len(t, points, 2+curveSteps+1)
	last := points[2+curveSteps-1]
	assert.InDelta(t, 1.0, last.X, 1e-9)
	assert.InDelta(t, 0.5, last.Y, 1e-9)

	paths, err = ParsePath("M0,0 C0,1 1,1 1,0")
	require.NoError(t, err)
	assert.Len(t, paths[0], 1+curveSteps)
}

func TestParsePathSubpaths(t *testing.T) {
	paths, err := ParsePath("M0,0 L0.4,0 L0.4,1 Z M0.6,0 L1,0 L1,1 Z")
	require.NoError(t, err)
	assert.Len(t, paths, 2)
}

func TestParsePathErrors(t *testing.T) {
	for _, d := range []string{
		"",
		"   ",
		"0,0 L1,1",
		"M0,0 L1",
		"M0,0 A0.5,0.5 0 0 1 1,0",
		"M0,0 Lx,1",
		"M0,0 L1;1",
		"M0,0 L1,1 2e",
		"M0,0",
	} {
		_, err := ParsePath(d)
		assert.Error(t, err, "path %q", d)
	}
}
