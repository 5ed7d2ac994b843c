package provider

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/johanforsgren/threadline/internal/domain"
	"github.com/johanforsgren/threadline/internal/logger"
	"github.com/johanforsgren/threadline/internal/provider/common"
	"github.com/johanforsgren/threadline/internal/provider/lemmy"
)

// Factory builds a site client for a normalized endpoint.
type Factory func(endpoint string) domain.SiteClient

// Manager hands out one SiteClient per instance endpoint, creating them
// lazily.
type Manager struct {
	mu      sync.Mutex
	clients map[string]domain.SiteClient
	factory Factory
}

func NewManager(httpClient *http.Client) *Manager {
	return NewManagerWithFactory(func(endpoint string) domain.SiteClient {
		return lemmy.NewProvider(endpoint, httpClient)
	})
}

func NewManagerWithFactory(factory Factory) *Manager {
	return &Manager{
		clients: make(map[string]domain.SiteClient),
		factory: factory,
	}
}

// ClientFor returns the client for endpoint. Endpoints that differ only in
// scheme defaulting, case or a trailing slash share a client.
func (m *Manager) ClientFor(endpoint string) (domain.SiteClient, error) {
	key := normalize(endpoint)
	if key == "" {
		return nil, fmt.Errorf("no endpoint configured")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.clients[key]; ok {
		return c, nil
	}

	logger.Log("Creating site client for %s", key)
	c := m.factory(key)
	m.clients[key] = c
	return c, nil
}

func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}

func normalize(endpoint string) string {
	return strings.ToLower(common.BaseURL(endpoint))
}
