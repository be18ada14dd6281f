package catalog

// ProviderSetting is the user's configuration for one provider.
type ProviderSetting struct {
	APIKey  string `json:"api_key" yaml:"api_key"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

// Settings maps provider ids to user settings. It is owned by the caller and
// passed explicitly wherever credentials are needed.
type Settings map[string]ProviderSetting

// DefaultSettings disables every provider except opencode, which is enabled
// with the public key so free models work out of the box.
func DefaultSettings(reg *Registry) Settings {
	s := make(Settings, reg.Len())
	for _, p := range reg.List() {
		s[p.ID] = ProviderSetting{}
	}
	s["opencode"] = ProviderSetting{APIKey: PublicAPIKey, Enabled: true}
	return s
}

// Get returns the setting for a provider; missing providers are disabled.
func (s Settings) Get(providerID string) ProviderSetting {
	return s[providerID]
}

// With returns a copy of s with the provider setting replaced.
func (s Settings) With(providerID string, setting ProviderSetting) Settings {
	out := make(Settings, len(s)+1)
	for k, v := range s {
		out[k] = v
	}
	out[providerID] = setting
	return out
}

// IsModelAvailable reports whether the model can be used: the provider must be
// enabled, the model must exist, and a key is required unless the model is free.
func (s Settings) IsModelAvailable(reg *Registry, providerID, modelID string) bool {
	setting, ok := s[providerID]
	if !ok || !setting.Enabled {
		return false
	}

	_, model, err := reg.Lookup(providerID, modelID)
	if err != nil {
		return false
	}

	if model.IsFree() {
		return true
	}
	return setting.APIKey != ""
}

// EnabledProviders returns the enabled providers in registry order.
func (s Settings) EnabledProviders(reg *Registry) []Provider {
	var out []Provider
	for _, p := range reg.List() {
		if s[p.ID].Enabled {
			out = append(out, p)
		}
	}
	return out
}

// APIKeyFor returns the key to send for a model. Free models of a provider
// without a personal key fall back to the public key.
func (s Settings) APIKeyFor(reg *Registry, providerID, modelID string) string {
	if key := s[providerID].APIKey; key != "" {
		return key
	}
	if _, model, err := reg.Lookup(providerID, modelID); err == nil && model.IsFree() {
		return PublicAPIKey
	}
	return ""
}
