package http

import (
	"bytes"
	"regexp"
	"text/template"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/roomradar/api"
)

const specPath = "/docs/openapi.yaml"

var swaggerPage = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>{{.Title}} - Swagger UI</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
</head>
<body style="margin:0">
  <div id="swagger-ui"></div>
  <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: '{{.SpecURL}}',
      dom_id: '#swagger-ui',
      deepLinking: true,
      tryItOutEnabled: true,
      displayRequestDuration: true,
    });
  </script>
</body>
</html>`))

var titleLine = regexp.MustCompile(`(?m)^\s+title:\s*(.+)$`)

// specTitle pulls info.title out of the embedded document without a full
// parse; the first indented title key belongs to info.
func specTitle(doc []byte) string {
	if m := titleLine.FindSubmatch(doc); m != nil {
		return string(bytes.Trim(bytes.TrimSpace(m[1]), `"'`))
	}
	return "API"
}

// SetupDocs registers Swagger UI at /docs and the raw OpenAPI document next
// to it.
func SetupDocs(app *fiber.App) {
	var page bytes.Buffer
	err := swaggerPage.Execute(&page, struct{ Title, SpecURL string }{specTitle(api.OpenAPI), specPath})
	if err != nil {
		panic("docs template: " + err.Error())
	}
	html := page.Bytes()

	app.Get("/docs", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.Send(html)
	})

	app.Get(specPath, func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, "application/yaml")
		c.Set(fiber.HeaderCacheControl, "public, max-age=3600")
		return c.Send(api.OpenAPI)
	})
}
