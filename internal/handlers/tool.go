package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/mihaisavezi/chatrelay/internal/tools"
)

const maxToolBodyBytes = 1 << 20

// Executor runs a named tool; *tools.Registry implements it.
type Executor interface {
	Execute(ctx context.Context, name string, args json.RawMessage) (json.RawMessage, error)
}

type toolRequest struct {
	ToolName string          `json:"toolName"`
	Args     json.RawMessage `json:"args"`
}

type toolResponse struct {
	Result json.RawMessage `json:"result"`
}

type ToolHandler struct {
	tools  Executor
	logger *slog.Logger
}

func NewToolHandler(tools Executor, logger *slog.Logger) *ToolHandler {
	return &ToolHandler{tools: tools, logger: logger}
}

func (h *ToolHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With("request_id", middleware.GetReqID(r.Context()))

	var req toolRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxToolBodyBytes)).Decode(&req); err != nil {
		httpError(w, logger, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if req.ToolName == "" || len(req.Args) == 0 || string(req.Args) == "null" {
		httpError(w, logger, http.StatusBadRequest, "Missing toolName or args", "")
		return
	}

	logger = logger.With("tool", req.ToolName)
	logger.Info("Executing tool")

	result, err := h.tools.Execute(r.Context(), req.ToolName, req.Args)
	switch {
	case err == nil:
		writeJSON(w, logger, http.StatusOK, toolResponse{Result: result})
	case errors.Is(err, tools.ErrUnknownTool):
		httpError(w, logger, http.StatusNotFound, "Unknown tool: "+req.ToolName, "")
	case errors.Is(err, tools.ErrInvalidArgs):
		httpError(w, logger, http.StatusBadRequest, err.Error(), "")
	default:
		httpError(w, logger, http.StatusInternalServerError, err.Error(), "")
	}
}
