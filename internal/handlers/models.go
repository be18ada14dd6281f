package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mihaisavezi/chatrelay/internal/catalog"
)

// ModelsHandler serves the provider catalog in models.dev shape.
type ModelsHandler struct {
	registry *catalog.Registry
	logger   *slog.Logger
}

func NewModelsHandler(registry *catalog.Registry, logger *slog.Logger) *ModelsHandler {
	return &ModelsHandler{registry: registry, logger: logger}
}

func (h *ModelsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reg := h.registry

	if raw := r.URL.Query().Get("free"); raw != "" {
		free, err := strconv.ParseBool(raw)
		if err != nil {
			httpError(w, h.logger, http.StatusBadRequest, "Invalid free parameter", err.Error())
			return
		}
		if free {
			reg = reg.FreeOnly()
		}
	}

	writeJSON(w, h.logger, http.StatusOK, reg.Catalog())
}
