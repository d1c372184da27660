package docstore

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-process Store used by unit tests and local
// development. Subscriptions are fan-out channels; a slow subscriber drops
// events rather than blocking writers.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]Document
	subs map[string][]*memorySubscription
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]Document),
		subs: make(map[string][]*memorySubscription),
	}
}

func (m *MemoryStore) Get(_ context.Context, path string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[path]
	if !ok {
		return nil, ErrNotFound
	}
	return doc.Clone(), nil
}

func (m *MemoryStore) List(_ context.Context, collection string) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Document
	for path, doc := range m.docs {
		if Parent(path) == collection {
			out = append(out, doc.Clone())
		}
	}
	return out, nil
}

func (m *MemoryStore) Set(_ context.Context, path string, doc Document) error {
	m.mu.Lock()
	m.docs[path] = doc.Clone()
	m.mu.Unlock()
	m.publish(Event{Kind: EventPut, Path: path})
	return nil
}

func (m *MemoryStore) Update(_ context.Context, path string, fields map[string]any) error {
	m.mu.Lock()
	doc, ok := m.docs[path]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("update %s: %w", path, ErrNotFound)
	}
	merged := doc.Clone()
	for k, v := range fields {
		merged[k] = v
	}
	m.docs[path] = merged
	m.mu.Unlock()
	m.publish(Event{Kind: EventPut, Path: path})
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	_, ok := m.docs[path]
	delete(m.docs, path)
	m.mu.Unlock()
	if ok {
		m.publish(Event{Kind: EventDelete, Path: path})
	}
	return nil
}

func (m *MemoryStore) Subscribe(_ context.Context, collection string) (Subscription, error) {
	sub := &memorySubscription{
		store:      m,
		collection: collection,
		events:     make(chan Event, 16),
	}
	m.mu.Lock()
	m.subs[collection] = append(m.subs[collection], sub)
	m.mu.Unlock()
	return sub, nil
}

func (m *MemoryStore) publish(evt Event) {
	collection := Parent(evt.Path)
	m.mu.RLock()
	subs := m.subs[collection]
	m.mu.RUnlock()
	for _, sub := range subs {
		select {
		case sub.events <- evt:
		default:
			// subscriber is not draining; drop rather than block the writer
		}
	}
}

type memorySubscription struct {
	store      *MemoryStore
	collection string
	events     chan Event
	closeOnce  sync.Once
}

func (s *memorySubscription) Events() <-chan Event { return s.events }

func (s *memorySubscription) Close() error {
	s.closeOnce.Do(func() {
		m := s.store
		m.mu.Lock()
		subs := m.subs[s.collection]
		for i, sub := range subs {
			if sub == s {
				m.subs[s.collection] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		m.mu.Unlock()
		close(s.events)
	})
	return nil
}
