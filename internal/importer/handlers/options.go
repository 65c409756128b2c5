package handlers

import (
	"math"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"sh3d-importer/internal/importer/geometry"
	"sh3d-importer/internal/importer/mapper"
	"sh3d-importer/internal/importer/transform"
)

// ============================================================
// Query options
// ============================================================

// optionsFromQuery накладывает параметры запроса на настройки по умолчанию
func optionsFromQuery(c fiber.Ctx, opts mapper.Options) mapper.Options {
	opts.ImportDoors = queryBool(c, "importDoors", opts.ImportDoors)
	opts.ImportFurniture = queryBool(c, "importFurnitures", queryBool(c, "importFurniture", opts.ImportFurniture))
	opts.ImportLights = queryBool(c, "importLights", opts.ImportLights)
	opts.ImportCameras = queryBool(c, "importCameras", opts.ImportCameras)
	opts.JoinWalls = queryBool(c, "optJoinWalls", queryBool(c, "joinWalls", opts.JoinWalls))
	opts.MergeElements = queryBool(c, "optMergeElements", queryBool(c, "mergeElements", opts.MergeElements))
	opts.CreateRenderProject = queryBool(c, "optCreateRenderProject", queryBool(c, "createRenderProject", opts.CreateRenderProject))

	if v := c.Query("junctionPolicy"); v != "" {
		opts.JunctionPolicy = geometry.ParseJunctionPolicy(v)
	}
	if v := c.Query("angleUnit"); v != "" {
		opts.AngleUnit = transform.ParseAngleUnit(v)
	}
	opts.JunctionTolerance = queryFloat(c, "junctionTolerance", opts.JunctionTolerance)
	opts.MiterLimit = queryFloat(c, "miterLimit", opts.MiterLimit)
	opts.ArcSegments = queryInt(c, "arcSegments", opts.ArcSegments)
	return opts.Normalize()
}

func queryBool(c fiber.Ctx, key string, def bool) bool {
	if v := c.Query(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func queryFloat(c fiber.Ctx, key string, def float64) float64 {
	if v := c.Query(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 && !math.IsInf(f, 0) {
			return f
		}
	}
	return def
}

func queryInt(c fiber.Ctx, key string, def int) int {
	if v := c.Query(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
