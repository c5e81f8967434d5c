package services

import (
	"context"
	"sync"
	"time"

	"github.com/digitalme/backend/internal/events"
	"github.com/digitalme/backend/internal/models"
	"github.com/digitalme/backend/internal/repositories"
	"github.com/google/uuid"
)

type memStore struct {
	mu      sync.Mutex
	wallets map[uuid.UUID]models.HolderWallet
}

func newMemStore() *memStore {
	return &memStore{wallets: map[uuid.UUID]models.HolderWallet{}}
}

func (s *memStore) Get(_ context.Context, holderID uuid.UUID) (*models.HolderWallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hw, ok := s.wallets[holderID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &hw, nil
}

func (s *memStore) Save(_ context.Context, holderID uuid.UUID, rec models.WalletRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	hw := s.wallets[holderID]
	if hw.CreatedAt.IsZero() {
		hw.CreatedAt = time.Now()
	}
	hw.HolderID, hw.Record, hw.UpdatedAt = holderID, rec, time.Now()
	s.wallets[holderID] = hw
	return nil
}

type memAudit struct {
	entries []models.AuditLog
}

func (a *memAudit) Log(_ context.Context, entry models.AuditLog) error {
	a.entries = append(a.entries, entry)
	return nil
}

func (a *memAudit) actions() []string {
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

type memPublisher struct {
	events []events.Event
}

func (p *memPublisher) Publish(_ context.Context, stream string, event events.Event) error {
	if stream == events.StreamChain {
		p.events = append(p.events, event)
	}
	return nil
}

// memLocker mimics TxLock: a held key fails fast.
type memLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newMemLocker() *memLocker {
	return &memLocker{held: map[string]bool{}}
}

func (l *memLocker) Acquire(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, ErrBusy
	}
	l.held[key] = true
	return func() {
		l.mu.Lock()
		delete(l.held, key)
		l.mu.Unlock()
	}, nil
}
