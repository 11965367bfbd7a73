package verification

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dulang/warehouse-verify/pkg/camera"
	"github.com/dulang/warehouse-verify/pkg/catalog"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// ErrWorkspaceNotFound is returned for unknown or expired workspace IDs.
var ErrWorkspaceNotFound = errors.New("verification: workspace not found")

// RegistryConfig bounds the set of open workspaces.
type RegistryConfig struct {
	// MaxOpen is the most workspaces held at once; opening one more
	// closes the least recently used. Zero means unlimited.
	MaxOpen int
	// IdleTTL closes a workspace not touched for this long.
	// Zero disables expiry.
	IdleTTL time.Duration
}

// Registry holds open workspaces. A workspace leaves the registry by
// submit, explicit close, LRU eviction, idle expiry or Close, and on
// every one of those paths its camera is released.
type Registry struct {
	device camera.Device
	cams   *camera.Manager
	logger *slog.Logger

	// mu serialises Open, Get and Close so only idle expiry can change
	// the cache between a lookup and its refresh.
	mu    sync.Mutex
	cache *expirable.LRU[string, *Workspace]
}

// NewRegistry creates a registry whose workspaces open sessions on dev
// with the configuration current in cams at open time.
func NewRegistry(dev camera.Device, cams *camera.Manager, cfg RegistryConfig, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		device: dev,
		cams:   cams,
		logger: logger,
	}
	r.cache = expirable.NewLRU[string, *Workspace](cfg.MaxOpen, r.evicted, cfg.IdleTTL)
	return r
}

// evicted runs under the cache lock; it must not call back into r.cache.
func (r *Registry) evicted(id string, ws *Workspace) {
	if err := ws.Close(); err != nil {
		r.logger.Warn("close evicted workspace", "workspace", id, "error", err)
	}
}

// Open starts a workspace for product with an idle capture session.
func (r *Registry) Open(product catalog.Product) *Workspace {
	s := camera.NewSession(r.device, r.cams.Config(), camera.WithLogger(r.logger))
	ws := NewWorkspace(product, s, r.logger)

	r.mu.Lock()
	r.cache.Add(ws.ID(), ws)
	n := r.cache.Len()
	r.mu.Unlock()

	r.logger.Info("workspace opened", "workspace", ws.ID(), "product", product.Name, "open", n)
	return ws
}

// Get returns an open workspace and refreshes its idle timer. Closed
// workspaces are never put back.
func (r *Registry) Get(id string) (*Workspace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ws, ok := r.cache.Get(id)
	if !ok {
		return nil, ErrWorkspaceNotFound
	}
	if ws.Closed() {
		r.cache.Remove(id)
		return nil, ErrWorkspaceNotFound
	}
	// Re-adding an existing key resets its expiry. If it expired since
	// the lookup, the slot it left is the one refilled here.
	r.cache.Add(id, ws)
	if ws.Closed() {
		r.cache.Remove(id)
		return nil, ErrWorkspaceNotFound
	}
	return ws, nil
}

// Close closes and forgets a workspace. Unknown IDs are ignored.
func (r *Registry) Close(id string) {
	r.mu.Lock()
	r.cache.Remove(id)
	r.mu.Unlock()
}

// Len returns the number of open workspaces.
func (r *Registry) Len() int {
	return r.cache.Len()
}

// Camera returns the configuration manager used for new sessions.
func (r *Registry) Camera() *camera.Manager {
	return r.cams
}

// Backend returns the camera backend name.
func (r *Registry) Backend() string {
	return r.device.Name()
}

// CloseAll closes every workspace, releasing all cameras. Used on shutdown.
func (r *Registry) CloseAll() {
	n := r.cache.Len()
	r.cache.Purge()
	if n > 0 {
		r.logger.Info("closed all workspaces", "count", n)
	}
}
