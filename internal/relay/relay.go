// Package relay drives one model invocation per chat request and re-streams
// the provider's events as newline-delimited JSON chunks.
package relay

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mihaisavezi/chatrelay/internal/catalog"
	"github.com/mihaisavezi/chatrelay/internal/chat"
	"github.com/mihaisavezi/chatrelay/internal/providers"
	"github.com/mihaisavezi/chatrelay/internal/stream"
)

// State of a relayed call. Completed and Failed are terminal.
type State string

const (
	StateIdle      State = "idle"
	StateInvoking  State = "invoking"
	StateStreaming State = "streaming"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// ClientFactory builds model handles; *providers.Factory implements it.
type ClientFactory interface {
	NewClient(providerID, modelID string, creds providers.Credentials) (providers.ModelHandle, error)
}

// Observer is told about every state transition of a call.
type Observer func(State)

type Relay struct {
	clients  ClientFactory
	registry *catalog.Registry
	efforts  EffortTable
	tools    []providers.ToolDefinition
	counter  TokenCounter
	observer Observer
	logger   *slog.Logger
}

type Option func(*Relay)

// WithEfforts replaces the thinking effort table.
func WithEfforts(t EffortTable) Option {
	return func(r *Relay) { r.efforts = t.WithDefaults() }
}

// WithTools advertises tools to models whose catalog entry supports tool
// calls.
func WithTools(tools []providers.ToolDefinition) Option {
	return func(r *Relay) { r.tools = tools }
}

func WithTokenCounter(c TokenCounter) Option {
	return func(r *Relay) { r.counter = c }
}

func WithObserver(o Observer) Option {
	return func(r *Relay) { r.observer = o }
}

func New(clients ClientFactory, registry *catalog.Registry, logger *slog.Logger, opts ...Option) *Relay {
	r := &Relay{
		clients:  clients,
		registry: registry,
		efforts:  DefaultEfforts,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Stream serves one chat request. It returns an error only when nothing has
// been written to w: a *providers.ConfigurationError for requests that never
// reached a provider, or a *providers.UpstreamError when the provider refused
// the call. Once the stream is open every outcome is reported in-band.
func (r *Relay) Stream(ctx context.Context, w http.ResponseWriter, req chat.Request) error {
	r.transition(StateIdle)

	if err := req.Validate(); err != nil {
		return err
	}

	r.transition(StateInvoking)

	handle, err := r.clients.NewClient(req.ProviderID, req.ModelID, providers.Credentials{APIKey: req.APIKey})
	if err != nil {
		r.transition(StateFailed)
		return err
	}

	logger := r.logger.With("provider", handle.Provider(), "model", handle.Model())
	preq := r.providerRequest(req)

	if r.counter != nil {
		r.logPromptSize(logger, req, preq)
	} else {
		logger.Info("Relaying chat", "messages", len(preq.Messages), "effort", preq.ReasoningEffort)
	}

	start := time.Now()
	events, err := handle.Stream(ctx, preq)
	if err != nil {
		r.transition(StateFailed)
		logger.Warn("Failed to open provider stream", "error", err)
		return err
	}
	defer events.Close()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	r.transition(StateStreaming)

	final := r.pipe(ctx, events, stream.NewWriter(w), logger)
	r.transition(final)

	logger.Info("Stream finished", "state", final, "duration", time.Since(start))
	return nil
}

// pipe forwards events until the provider stream ends, fails, or the client
// goes away. Every exit writes a terminating chunk when the client is still
// there.
func (r *Relay) pipe(ctx context.Context, events providers.EventStream, out *stream.Writer, logger *slog.Logger) State {
	for {
		ev, err := events.Next()
		if errors.Is(err, io.EOF) {
			// Some providers close without a finish event.
			if werr := out.Write(stream.Done()); werr != nil {
				logger.Debug("Client went away before done", "error", werr)
				return StateFailed
			}
			return StateCompleted
		}
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("Client cancelled stream", "chunks", out.Count())
				return StateFailed
			}
			logger.Warn("Provider stream failed", "error", err)
			if werr := out.Write(stream.Error(err.Error())); werr != nil {
				logger.Debug("Client went away before error", "error", werr)
			}
			return StateFailed
		}

		chunk, ok := translate(ev)
		if !ok {
			logger.Debug("Dropping provider event", "type", ev.Type)
			continue
		}

		if err := out.Write(chunk); err != nil {
			logger.Info("Client went away", "error", err, "chunks", out.Count())
			return StateFailed
		}

		switch chunk.Type {
		case stream.TypeDone:
			return StateCompleted
		case stream.TypeError:
			logger.Warn("Provider reported error", "message", chunk.Message)
			return StateFailed
		}
	}
}

func (r *Relay) providerRequest(req chat.Request) providers.Request {
	preq := providers.Request{
		Messages:        chat.Normalize(req.Messages),
		Temperature:     req.Temperature,
		MaxOutputTokens: req.MaxOutputTokens,
	}

	model, known := r.lookupModel(req.ProviderID, req.ModelID)

	// Models without reasoning reject an effort level, even "none".
	if !known || model.Reasoning {
		preq.ReasoningEffort = r.efforts.Resolve(req.Thinking)
	}
	if len(r.tools) > 0 && known && model.ToolCall {
		preq.Tools = r.tools
	}

	return preq
}

func (r *Relay) lookupModel(providerID, modelID string) (catalog.Model, bool) {
	if r.registry == nil {
		return catalog.Model{}, false
	}
	_, model, err := r.registry.Lookup(providerID, modelID)
	if err != nil {
		return catalog.Model{}, false
	}
	return model, true
}

func (r *Relay) logPromptSize(logger *slog.Logger, req chat.Request, preq providers.Request) {
	tokens := r.counter.Count(promptText(preq.Messages))

	limit := 0
	if model, ok := r.lookupModel(req.ProviderID, req.ModelID); ok {
		limit = model.ContextLimit()
	}

	if limit > 0 && tokens > limit {
		logger.Warn("Prompt exceeds context window", "input_tokens", tokens, "context_limit", limit)
		return
	}
	logger.Info("Relaying chat", "messages", len(preq.Messages), "input_tokens", tokens, "effort", preq.ReasoningEffort)
}

func (r *Relay) transition(s State) {
	if r.observer != nil {
		r.observer(s)
	}
}
