package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/mihaisavezi/chatrelay/internal/chat"
	"github.com/mihaisavezi/chatrelay/internal/providers"
)

const maxChatBodyBytes = 32 << 20

// Streamer relays one chat request; *relay.Relay implements it.
type Streamer interface {
	Stream(ctx context.Context, w http.ResponseWriter, req chat.Request) error
}

type ChatHandler struct {
	relay  Streamer
	logger *slog.Logger
}

func NewChatHandler(relay Streamer, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{relay: relay, logger: logger}
}

func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With("request_id", middleware.GetReqID(r.Context()))

	var req chat.Request
	if err := json.NewDecoder(io.LimitReader(r.Body, maxChatBodyBytes)).Decode(&req); err != nil {
		httpError(w, logger, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	err := h.relay.Stream(r.Context(), w, req)
	if err == nil {
		return
	}

	var cfgErr *providers.ConfigurationError
	var upErr *providers.UpstreamError

	switch {
	case errors.As(err, &cfgErr):
		httpError(w, logger, http.StatusBadRequest, cfgErr.Error(), "")
	case errors.As(err, &upErr):
		httpError(w, logger, http.StatusBadGateway, "Upstream provider error", upErr.Error())
	case errors.Is(err, context.Canceled):
		logger.Debug("Client went away before the stream opened")
	default:
		httpError(w, logger, http.StatusInternalServerError, "Internal Server Error", err.Error())
	}
}
