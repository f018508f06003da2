package api

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"tripplanner/internal/models"

	"gopkg.in/yaml.v3"
)

//go:embed openapi/openapi.yaml
var openAPISpec []byte

// apiDocument is the OpenAPI document rendered for one server version, in
// both encodings the docs endpoint serves.
type apiDocument struct {
	yaml, json         []byte
	yamlETag, jsonETag string
}

func etagOf(b []byte) string {
	sum := sha256.Sum256(b)
	return `"` + hex.EncodeToString(sum[:8]) + `"`
}

var (
	docsMu    sync.Mutex
	docsCache = map[string]*apiDocument{}
)

// renderAPIDocument stamps info.version with the running server version
// when one is known. Documents are cached per version.
func renderAPIDocument(version string) (*apiDocument, error) {
	docsMu.Lock()
	defer docsMu.Unlock()
	if doc, ok := docsCache[version]; ok {
		return doc, nil
	}

	var tree map[string]any
	if err := yaml.Unmarshal(openAPISpec, &tree); err != nil {
		return nil, fmt.Errorf("parse openapi document: %w", err)
	}
	if info, ok := tree["info"].(map[string]any); ok && version != "" {
		info["version"] = version
	}

	doc := &apiDocument{yaml: openAPISpec}
	if version != "" {
		out, err := yaml.Marshal(tree)
		if err != nil {
			return nil, fmt.Errorf("render openapi yaml: %w", err)
		}
		doc.yaml = out
	}
	out, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render openapi json: %w", err)
	}
	doc.json = out

	doc.yamlETag = etagOf(doc.yaml)
	doc.jsonETag = etagOf(doc.json)

	docsCache[version] = doc
	return doc, nil
}

// ServeOpenAPISpec serves the OpenAPI 3.0.3 document as YAML, or as JSON
// with ?format=json.
// GET /api/v1/openapi.yaml
func (h *Handlers) ServeOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	doc, err := renderAPIDocument(h.version)
	if err != nil {
		slog.Error("Failed to render API document", "error", err)
		h.writeErrorResponse(w, http.StatusInternalServerError, models.ErrorCodeInternalError, "Internal server error")
		return
	}

	contentType, body, etag := "application/yaml", doc.yaml, doc.yamlETag
	if r.URL.Query().Get("format") == "json" {
		contentType, body, etag = "application/json", doc.json, doc.jsonETag
	}

	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

const swaggerUIHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Trip Planner API - Documentation</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: '/api/v1/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      persistAuthorization: true,
      tryItOutEnabled: true
    });
  </script>
</body>
</html>`

// ServeSwaggerUI serves a Swagger UI page backed by ServeOpenAPISpec.
// GET /api/v1/docs
func (h *Handlers) ServeSwaggerUI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(swaggerUIHTML))
}
