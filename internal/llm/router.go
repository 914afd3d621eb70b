package llm

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrNoProvider is returned when a task names a provider that cannot serve it
var ErrNoProvider = errors.New("no usable provider")

// Router resolves the provider a task runs on. Tasks that leave Provider
// empty go to the fallback.
type Router struct {
	mu       sync.RWMutex
	byName   map[string]Provider
	fallback string
}

func NewRouter(fallback string) *Router {
	return &Router{
		byName:   make(map[string]Provider),
		fallback: fallback,
	}
}

// RegisterProvider adds p under p.Name(), replacing any earlier registration
func (r *Router) RegisterProvider(p Provider) {
	r.mu.Lock()
	r.byName[p.Name()] = p
	r.mu.Unlock()
}

// ListProviders returns the names of the providers that have credentials
func (r *Router) ListProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.byName))
	for name, p := range r.byName {
		if p.IsConfigured() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// GetProvider resolves the provider for a task. The error wraps ErrNoProvider
// so the turn fails instead of silently switching vendor.
func (r *Router) GetProvider(name string) (Provider, error) {
	if name == "" {
		name = r.fallback
	}

	r.mu.RLock()
	p, ok := r.byName[name]
	r.mu.RUnlock()

	switch {
	case !ok:
		return nil, fmt.Errorf("%w: task routed to %q, which is not registered", ErrNoProvider, name)
	case !p.IsConfigured():
		return nil, fmt.Errorf("%w: task routed to %q, which has no credentials", ErrNoProvider, name)
	}
	return p, nil
}

// DefaultProvider is the provider used by tasks without an explicit one
func (r *Router) DefaultProvider() string {
	return r.fallback
}

// ProviderInfo is what the admin API reports per provider
type ProviderInfo struct {
	Name       string   `json:"name"`
	Models     []string `json:"models"`
	Default    bool     `json:"default"`
	Configured bool     `json:"configured"`
}

// GetProvidersInfo describes every registered provider, sorted by name
func (r *Router) GetProvidersInfo() []ProviderInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]ProviderInfo, 0, len(r.byName))
	for name, p := range r.byName {
		infos = append(infos, ProviderInfo{
			Name:       name,
			Models:     p.AvailableModels(),
			Default:    name == r.fallback,
			Configured: p.IsConfigured(),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}
