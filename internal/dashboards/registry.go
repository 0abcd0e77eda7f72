package dashboards

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/abdalhababsah/outlier/internal/rbac"
)

// Source loads the dashboard type reference data. *rbac.Service and
// *rbac.PGStore both satisfy it.
type Source interface {
	ListDashboardTypes(ctx context.Context) ([]rbac.DashboardType, error)
}

// Registry is an in-process cache over the dashboard type table. The set is
// closed (new types are a schema change), so one load per process is enough;
// Refresh exists for the seeder and tests.
type Registry struct {
	source Source
	group  singleflight.Group

	mu     sync.RWMutex
	types  []rbac.DashboardType
	byName map[string]rbac.DashboardType
	loaded bool
}

// NewRegistry builds a Registry over the given source.
func NewRegistry(source Source) *Registry {
	return &Registry{source: source}
}

// All returns every dashboard type in id order, loading on first use.
func (r *Registry) All(ctx context.Context) ([]rbac.DashboardType, error) {
	r.mu.RLock()
	if r.loaded {
		types := r.types
		r.mu.RUnlock()
		return types, nil
	}
	r.mu.RUnlock()

	_, err, _ := r.group.Do("load", func() (any, error) {
		return nil, r.Refresh(ctx)
	})
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.types, nil
}

// ByName looks up a dashboard type by name.
func (r *Registry) ByName(ctx context.Context, name string) (rbac.DashboardType, bool, error) {
	if _, err := r.All(ctx); err != nil {
		return rbac.DashboardType{}, false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	dt, ok := r.byName[name]
	return dt, ok, nil
}

// DisplayName resolves the human readable name for a dashboard type. Unknown
// names get a title-cased fallback so templates never show a raw identifier.
func (r *Registry) DisplayName(ctx context.Context, name string) string {
	if dt, ok, err := r.ByName(ctx, name); err == nil && ok {
		return dt.DisplayName
	}
	return cases.Title(language.English).String(strings.ReplaceAll(name, "_", " "))
}

// Refresh reloads the registry from the source.
func (r *Registry) Refresh(ctx context.Context) error {
	types, err := r.source.ListDashboardTypes(ctx)
	if err != nil {
		return err
	}
	byName := make(map[string]rbac.DashboardType, len(types))
	for _, dt := range types {
		byName[dt.Name] = dt
	}
	r.mu.Lock()
	r.types = types
	r.byName = byName
	r.loaded = true
	r.mu.Unlock()
	return nil
}
