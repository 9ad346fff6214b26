package memory

import (
	"context"
	"sync"

	"ecometer/internal/eventing"
)

// OutboxStore is an in-memory outbox, mainly for tests and the seed tool.
type OutboxStore struct {
	mu      sync.Mutex
	records []record
}

type record struct {
	id     string
	env    eventing.Envelope
	status string
}

// NewOutboxStore constructs an in-memory outbox.
func NewOutboxStore() *OutboxStore {
	return &OutboxStore{}
}

// Insert appends a pending record.
func (s *OutboxStore) Insert(_ context.Context, env eventing.Envelope) (string, error) {
	id := eventing.NewEventID()
	s.mu.Lock()
	s.records = append(s.records, record{id: id, env: env, status: "pending"})
	s.mu.Unlock()
	return id, nil
}

// ListPending returns pending records oldest first.
func (s *OutboxStore) ListPending(_ context.Context, limit int) ([]eventing.OutboxRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []eventing.OutboxRecord
	for _, rec := range s.records {
		if rec.status != "pending" {
			continue
		}
		result = append(result, eventing.OutboxRecord{ID: rec.id, Envelope: rec.env})
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

// MarkSent flips a record to sent.
func (s *OutboxStore) MarkSent(_ context.Context, id string) error {
	return s.setStatus(id, "sent")
}

// MarkFailed flips a record to failed.
func (s *OutboxStore) MarkFailed(_ context.Context, id string) error {
	return s.setStatus(id, "failed")
}

func (s *OutboxStore) setStatus(id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if s.records[i].id == id {
			s.records[i].status = status
			return nil
		}
	}
	return nil
}

// ProcessedStore is an in-memory processed-events store.
type ProcessedStore struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewProcessedStore constructs an in-memory processed store.
func NewProcessedStore() *ProcessedStore {
	return &ProcessedStore{seen: make(map[string]struct{})}
}

// HasProcessed reports whether the consumer already handled the event.
func (s *ProcessedStore) HasProcessed(_ context.Context, eventID, consumerName string) (bool, error) {
	s.mu.Lock()
	_, ok := s.seen[eventID+"|"+consumerName]
	s.mu.Unlock()
	return ok, nil
}

// MarkProcessed records the event as handled.
func (s *ProcessedStore) MarkProcessed(_ context.Context, eventID, consumerName string) error {
	s.mu.Lock()
	s.seen[eventID+"|"+consumerName] = struct{}{}
	s.mu.Unlock()
	return nil
}
