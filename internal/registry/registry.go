// Package registry is the CRUD store of resource definitions. Records
// live in memory for fast, lock-cheap reads; an optional Store persists
// every mutation write-through so the registry survives restarts.
package registry

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/WismutNaN/resource-queue/internal/model"
)

// Field and collection limits, enforced on create and update.
const (
	MaxResources  = 100
	maxNameLen    = 64
	maxAddressLen = 64
	maxIconLen    = 10
	maxDescLen    = 500
	maxAttrKeyLen = 40
	maxAttrValLen = 200
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrNameRequired = errors.New("resource name required")
	ErrFull         = errors.New("resource limit reached")
)

// Store is the optional persistence hook behind the registry. The MySQL
// repository implements it; a nil Store keeps the registry memory-only.
type Store interface {
	Save(ctx context.Context, r model.Resource) error
	Delete(ctx context.Context, id string) error
	LoadAll(ctx context.Context) ([]model.Resource, error)
}

// Registry owns resource records. It is the only component allowed to
// delete a resource; the engine coordinates the cascade around it.
type Registry struct {
	mu    sync.RWMutex
	store Store
	items map[string]model.Resource
}

// New builds a registry. When store is non-nil, existing records are
// loaded from it.
func New(ctx context.Context, store Store) (*Registry, error) {
	r := &Registry{store: store, items: make(map[string]model.Resource)}
	if store != nil {
		all, err := store.LoadAll(ctx)
		if err != nil {
			return nil, err
		}
		for _, res := range all {
			r.items[res.ID] = res
		}
	}
	return r, nil
}

// Create registers a new resource. The record is sanitized, assigned a
// fresh id, and persisted write-through when a store is configured.
func (r *Registry) Create(ctx context.Context, res model.Resource) (model.Resource, error) {
	sanitize(&res)
	if res.Name == "" {
		return model.Resource{}, ErrNameRequired
	}
	res.ID = newID()
	res.CreatedAt = time.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) >= MaxResources {
		return model.Resource{}, ErrFull
	}
	if r.store != nil {
		if err := r.store.Save(ctx, res); err != nil {
			return model.Resource{}, err
		}
	}
	r.items[res.ID] = res
	return res, nil
}

// Update replaces the mutable fields of an existing resource. Identity,
// creation time and creator are preserved.
func (r *Registry) Update(ctx context.Context, id string, upd model.Resource) (model.Resource, error) {
	sanitize(&upd)
	if upd.Name == "" {
		return model.Resource{}, ErrNameRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.items[id]
	if !ok {
		return model.Resource{}, ErrNotFound
	}
	cur.Name = upd.Name
	cur.Address = upd.Address
	cur.Icon = upd.Icon
	cur.Description = upd.Description
	if upd.Attributes != nil {
		cur.Attributes = upd.Attributes
	}
	if r.store != nil {
		if err := r.store.Save(ctx, cur); err != nil {
			return model.Resource{}, err
		}
	}
	r.items[id] = cur
	return cur, nil
}

// Delete removes the record. Callers must run the ledger/subscription
// cascade around this call; the registry only owns the definition.
func (r *Registry) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	if r.store != nil {
		if err := r.store.Delete(ctx, id); err != nil {
			return err
		}
	}
	delete(r.items, id)
	return nil
}

// Get returns a copy of one resource record.
func (r *Registry) Get(id string) (model.Resource, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.items[id]
	return res, ok
}

// List returns all resources ordered by creation time, oldest first.
func (r *Registry) List() []model.Resource {
	r.mu.RLock()
	out := make([]model.Resource, 0, len(r.items))
	for _, res := range r.items {
		out = append(out, res)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func sanitize(res *model.Resource) {
	res.Name = truncate(strings.TrimSpace(res.Name), maxNameLen)
	res.Address = truncate(strings.TrimSpace(res.Address), maxAddressLen)
	res.Icon = truncate(strings.TrimSpace(res.Icon), maxIconLen)
	res.Description = truncate(strings.TrimSpace(res.Description), maxDescLen)
	if res.Attributes != nil {
		clean := make(map[string]string, len(res.Attributes))
		for k, v := range res.Attributes {
			k = truncate(strings.TrimSpace(k), maxAttrKeyLen)
			v = truncate(strings.TrimSpace(v), maxAttrValLen)
			if k != "" {
				clean[k] = v
			}
		}
		res.Attributes = clean
	}
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

func newID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return hex.EncodeToString([]byte(time.Now().Format("150405.000")))[:8]
	}
	return hex.EncodeToString(b)
}
