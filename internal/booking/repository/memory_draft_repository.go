package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"waypoint/internal/domain"
	apperrors "waypoint/internal/errors"
)

type MemoryDraftRepository struct {
	mu     sync.RWMutex
	drafts map[string]domain.Draft
}

func NewMemoryDraftRepository() *MemoryDraftRepository {
	return &MemoryDraftRepository{drafts: make(map[string]domain.Draft)}
}

func (r *MemoryDraftRepository) EnsureSchema(context.Context) error { return nil }

func (r *MemoryDraftRepository) Save(_ context.Context, d domain.Draft) error {
	d.Payload = append([]byte(nil), d.Payload...)
	r.mu.Lock()
	r.drafts[d.ID] = d
	r.mu.Unlock()
	return nil
}

func (r *MemoryDraftRepository) FindByID(_ context.Context, id string, now time.Time) (*domain.Draft, error) {
	r.mu.RLock()
	d, ok := r.drafts[id]
	r.mu.RUnlock()
	if !ok || d.Expired(now) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("wizard %s not found", id))
	}
	d.Payload = append([]byte(nil), d.Payload...)
	return &d, nil
}

func (r *MemoryDraftRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	delete(r.drafts, id)
	r.mu.Unlock()
	return nil
}

func (r *MemoryDraftRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, d := range r.drafts {
		if d.Expired(now) {
			delete(r.drafts, id)
			n++
		}
	}
	return n, nil
}
