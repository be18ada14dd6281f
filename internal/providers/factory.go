package providers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/mihaisavezi/chatrelay/internal/catalog"
)

// Factory builds model handles from the catalog. It holds no credentials and
// performs no network I/O until a handle is streamed.
type Factory struct {
	registry *catalog.Registry
	client   *http.Client
	logger   *slog.Logger
}

// NewFactory returns a factory over the given registry. A nil client falls
// back to NewHTTPClient(0).
func NewFactory(registry *catalog.Registry, client *http.Client, logger *slog.Logger) *Factory {
	if client == nil {
		client = NewHTTPClient(0)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Factory{
		registry: registry,
		client:   client,
		logger:   logger,
	}
}

// Registry returns the catalog the factory resolves against.
func (f *Factory) Registry() *catalog.Registry {
	return f.registry
}

// NewClient resolves providerID and modelID and binds them to creds. Unknown
// ids fail with *ConfigurationError.
func (f *Factory) NewClient(providerID, modelID string, creds Credentials) (ModelHandle, error) {
	provider, model, err := f.registry.Lookup(providerID, modelID)
	if err != nil {
		return nil, &ConfigurationError{Err: err}
	}

	if strings.TrimSpace(provider.API) == "" {
		return nil, &ConfigurationError{Msg: "provider " + provider.ID + " has no base URL"}
	}

	endpoint := endpointConfig{
		provider: provider.ID,
		model:    model,
		baseURL:  strings.TrimRight(provider.API, "/"),
		apiKey:   creds.APIKey,
		client:   f.client,
		logger:   f.logger.With("provider", provider.ID, "model", model.ID),
	}

	switch model.Adapter() {
	case catalog.AdapterAnthropic:
		return &anthropicHandle{endpointConfig: endpoint}, nil
	default:
		return &openAIHandle{endpointConfig: endpoint}, nil
	}
}

// endpointConfig is shared by every adapter.
type endpointConfig struct {
	provider string
	model    catalog.Model
	baseURL  string
	apiKey   string
	client   *http.Client
	logger   *slog.Logger
}

func (e endpointConfig) Provider() string {
	return e.provider
}

func (e endpointConfig) Model() string {
	return e.model.ID
}
