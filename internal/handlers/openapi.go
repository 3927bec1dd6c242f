package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/mux"
	"gopkg.in/yaml.v3"
)

// OpenAPIHandler serves the API contract from disk in YAML or JSON form.
type OpenAPIHandler struct {
	specPath string
}

// NewOpenAPIHandler resolves the spec path once at startup; the path never
// varies per request, so no per-request traversal checks are needed.
func NewOpenAPIHandler(specPath string) *OpenAPIHandler {
	abs, err := filepath.Abs(specPath)
	if err != nil {
		abs = specPath
	}
	return &OpenAPIHandler{specPath: abs}
}

// RegisterRoutes registers spec routes on the router
func (h *OpenAPIHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/v1/openapi.yaml", h.ServeYAML).Methods("GET")
	r.HandleFunc("/api/v1/openapi.json", h.ServeJSON).Methods("GET")
}

func (h *OpenAPIHandler) load(w http.ResponseWriter) ([]byte, bool) {
	data, err := os.ReadFile(h.specPath)
	if err != nil {
		http.Error(w, "OpenAPI specification not found", http.StatusNotFound)
		return nil, false
	}
	return data, true
}

// ServeYAML serves the spec verbatim.
func (h *OpenAPIHandler) ServeYAML(w http.ResponseWriter, r *http.Request) {
	data, ok := h.load(w)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/x-yaml")
	_, _ = w.Write(data)
}

// ServeJSON converts the YAML spec to JSON for tooling that won't eat YAML.
func (h *OpenAPIHandler) ServeJSON(w http.ResponseWriter, r *http.Request) {
	data, ok := h.load(w)
	if !ok {
		return
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		http.Error(w, "Failed to parse OpenAPI specification", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		http.Error(w, "Failed to encode JSON response", http.StatusInternalServerError)
	}
}
