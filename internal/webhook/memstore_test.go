package webhook

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/deploywatch/deploywatch/internal/domain"
)

// memStore is an in-memory DeliveryStore/SubscriptionStore with the same
// conditional-update contract as the Postgres repository. Tests use it to
// exercise claim races without a database.
type memStore struct {
	mu         sync.Mutex
	deliveries map[uuid.UUID]Delivery
	subs       map[uuid.UUID]Subscription
}

func newMemStore() *memStore {
	return &memStore{
		deliveries: make(map[uuid.UUID]Delivery),
		subs:       make(map[uuid.UUID]Subscription),
	}
}

func (m *memStore) putSubscription(sub Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[sub.ID] = sub
}

func (m *memStore) Create(_ context.Context, d *Delivery) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.deliveries[d.ID]; ok {
		return domain.ErrDeliveryExists
	}
	m.deliveries[d.ID] = *d
	return nil
}

func (m *memStore) GetByID(_ context.Context, tenantID, id uuid.UUID) (*Delivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.deliveries[id]
	if !ok || d.TenantID != tenantID {
		return nil, domain.ErrDeliveryNotFound
	}
	out := d
	return &out, nil
}

func (m *memStore) ListDue(_ context.Context, now time.Time, limit int) ([]*Delivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var due []*Delivery
	for _, d := range m.deliveries {
		if d.Status == StatusPending && d.NextAttemptAt != nil && !d.NextAttemptAt.After(now) {
			out := d
			due = append(due, &out)
		}
	}

	sort.Slice(due, func(i, j int) bool {
		return due[i].NextAttemptAt.Before(*due[j].NextAttemptAt)
	})

	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (m *memStore) ListByTenant(_ context.Context, tenantID uuid.UUID, limit int) ([]*Delivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*Delivery
	for _, d := range m.deliveries {
		if d.TenantID == tenantID {
			cp := d
			out = append(out, &cp)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) Update(_ context.Context, d *Delivery, expectedVersion int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.deliveries[d.ID]
	if !ok {
		return domain.ErrDeliveryNotFound
	}
	if stored.Version != expectedVersion {
		return domain.ErrDeliveryConflict
	}

	d.Version = expectedVersion + 1
	d.UpdatedAt = time.Now().UTC()
	m.deliveries[d.ID] = *d
	return nil
}

// memSubStore adapts memStore to the SubscriptionStore interface; in
// production deliveries and subscriptions live in separate repositories.
type memSubStore struct {
	m *memStore
}

func (s memSubStore) GetByID(_ context.Context, tenantID, id uuid.UUID) (*Subscription, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	sub, ok := s.m.subs[id]
	if !ok || sub.TenantID != tenantID {
		return nil, domain.ErrSubscriptionNotFound
	}
	out := sub
	return &out, nil
}
