package handlers

import (
	"os"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// OpenAPI Handlers
// ============================================================

// DocsSpec отдаёт OpenAPI YAML сервиса импорта
func DocsSpec(path string) fiber.Handler {
	return func(c fiber.Ctx) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "spec not found"})
		}
		c.Type("yaml")
		return c.Send(data)
	}
}

const docsPage = `<!doctype html>
<html>
<head>
  <meta charset="utf-8">
  <title>SH3D Importer API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist/swagger-ui.css">
</head>
<body>
<div id="swagger-ui" style="max-width: 1200px; margin: 0 auto"></div>
<script src="https://unpkg.com/swagger-ui-dist/swagger-ui-bundle.js"></script>
<script>
  window.onload = () => {
    window.ui = SwaggerUIBundle({
      url: '/docs/openapi.yaml',
      dom_id: '#swagger-ui',
      deepLinking: true,
      defaultModelsExpandDepth: 0,
      presets: [SwaggerUIBundle.presets.apis],
    });
  };
</script>
</body>
</html>`

// DocsUI отдаёт страницу Swagger UI, читающую /docs/openapi.yaml
func DocsUI(c fiber.Ctx) error {
	c.Type("html")
	return c.SendString(docsPage)
}
