package gitprovider

import (
	"fmt"
	"net/http"
	"sort"
	"sync"
)

// Factory creates a Provider authenticating with token.
type Factory func(token string, client *http.Client) (Provider, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register makes a provider factory available by name.
// It is typically called from an init() function in the adapter package.
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[name]; exists {
		panic(fmt.Sprintf("gitprovider: duplicate registration for %q", name))
	}
	factories[name] = factory
}

// New creates a Provider by name using the registered factory.
func New(name, token string, client *http.Client) (Provider, error) {
	mu.RLock()
	factory, ok := factories[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("gitprovider: unknown provider %q", name)
	}
	return factory(token, client)
}

// Available returns the sorted names of all registered providers.
func Available() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
