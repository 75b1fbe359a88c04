package storage

import (
	"context"
	"iter"
	"slices"
	"sync"

	"webindexer/internal/document"
)

// Memory keeps documents in process, in first-insert order.
type Memory struct {
	mu     sync.RWMutex
	docs   map[string]document.Document
	order  []string
	closed bool
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[string]document.Document)}
}

func (m *Memory) Put(_ context.Context, doc document.Document) error {
	if doc.URL == "" {
		return ErrEmptyURL
	}
	doc.Links = slices.Clone(doc.Links)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if _, ok := m.docs[doc.URL]; !ok {
		m.order = append(m.order, doc.URL)
	}
	m.docs[doc.URL] = doc
	return nil
}

func (m *Memory) Exists(_ context.Context, url string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return false, ErrClosed
	}
	_, ok := m.docs[url]
	return ok, nil
}

// ScanAll iterates over a snapshot taken when iteration starts.
func (m *Memory) ScanAll(ctx context.Context) iter.Seq2[document.Document, error] {
	return func(yield func(document.Document, error) bool) {
		m.mu.RLock()
		if m.closed {
			m.mu.RUnlock()
			yield(document.Document{}, ErrClosed)
			return
		}
		snapshot := make([]document.Document, 0, len(m.order))
		for _, u := range m.order {
			snapshot = append(snapshot, m.docs[u])
		}
		m.mu.RUnlock()

		for _, doc := range snapshot {
			if err := ctx.Err(); err != nil {
				yield(document.Document{}, err)
				return
			}
			if !yield(doc, nil) {
				return
			}
		}
	}
}

// Len is the number of distinct URLs stored.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// Get returns the document stored for url.
func (m *Memory) Get(url string) (document.Document, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[url]
	return doc, ok
}

func (m *Memory) Close(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
