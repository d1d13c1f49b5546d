package providers

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrProviderNotFound is returned when a provider is not registered
	ErrProviderNotFound = errors.New("provider not found")

	// ErrProviderAlreadyRegistered is returned when registering a duplicate name
	ErrProviderAlreadyRegistered = errors.New("provider already registered")

	// ErrInvalidProvider is returned when a candidate fails the capability check
	ErrInvalidProvider = errors.New("provider fails capability contract")

	// ErrNoDefaultProvider is returned when the registry is empty
	ErrNoDefaultProvider = errors.New("no default provider")
)

// healthCheckTimeout bounds each provider's HealthCheck during HealthCheckAll
const healthCheckTimeout = 2 * time.Second

// Registry holds named provider instances and tracks a default. The first
// successfully registered provider becomes the default; unregistering the
// default promotes another remaining provider when one exists.
type Registry struct {
	mu          sync.RWMutex
	providers   map[string]Provider
	defaultName string
	logger      *zap.Logger
}

// NewRegistry creates an empty provider registry
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		providers: make(map[string]Provider),
		logger:    logger,
	}
}

// Register validates the candidate against the capability contract and
// stores it under name. Registering the first provider makes it the default.
func (r *Registry) Register(name string, provider Provider) error {
	if name == "" {
		return errors.New("provider name cannot be empty")
	}
	if provider == nil {
		return ErrInvalidProvider
	}
	if provider.Name() == "" {
		return ErrInvalidProvider
	}
	if provider.Name() != strings.ToLower(provider.Name()) {
		return ErrInvalidProvider
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; exists {
		return ErrProviderAlreadyRegistered
	}

	r.providers[name] = provider
	if r.defaultName == "" {
		r.defaultName = name
	}

	r.logger.Info("provider registered",
		zap.String("provider", name),
		zap.Bool("default", r.defaultName == name))

	return nil
}

// Get retrieves a provider by name
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[name]
	if !exists {
		return nil, ErrProviderNotFound
	}
	return provider, nil
}

// Default returns the current default provider
func (r *Registry) Default() (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.defaultName == "" {
		return nil, ErrNoDefaultProvider
	}
	return r.providers[r.defaultName], nil
}

// DefaultName returns the name of the current default provider, or ""
func (r *Registry) DefaultName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultName
}

// Unregister removes a provider. When the default is removed another
// remaining provider (lowest name, for determinism) is promoted.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; !exists {
		return ErrProviderNotFound
	}

	delete(r.providers, name)

	if r.defaultName == name {
		r.defaultName = ""
		remaining := make([]string, 0, len(r.providers))
		for n := range r.providers {
			remaining = append(remaining, n)
		}
		if len(remaining) > 0 {
			sort.Strings(remaining)
			r.defaultName = remaining[0]
			r.logger.Info("default provider promoted",
				zap.String("provider", r.defaultName))
		}
	}

	r.logger.Info("provider unregistered", zap.String("provider", name))
	return nil
}

// ListAvailable returns all registered provider names, sorted
func (r *Registry) ListAvailable() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered providers
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}

// HealthCheckAll calls HealthCheck on every registered provider
// concurrently. A provider that panics or exceeds the per-check timeout is
// reported unhealthy; one bad provider never prevents reporting on the
// others.
func (r *Registry) HealthCheckAll(ctx context.Context) map[string]bool {
	r.mu.RLock()
	snapshot := make(map[string]Provider, len(r.providers))
	for name, p := range r.providers {
		snapshot[name] = p
	}
	r.mu.RUnlock()

	results := make(map[string]bool, len(snapshot))
	var resultsMu sync.Mutex
	var wg sync.WaitGroup

	for name, p := range snapshot {
		wg.Add(1)
		go func(name string, p Provider) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
			defer cancel()

			healthy := r.safeHealthCheck(checkCtx, name, p)

			resultsMu.Lock()
			results[name] = healthy
			resultsMu.Unlock()
		}(name, p)
	}

	wg.Wait()
	return results
}

// safeHealthCheck shields the registry from a panicking provider
func (r *Registry) safeHealthCheck(ctx context.Context, name string, p Provider) (healthy bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("provider health check panicked",
				zap.String("provider", name),
				zap.Any("panic", rec))
			healthy = false
		}
	}()
	return p.HealthCheck(ctx)
}
