// Package storage persists crawled documents keyed by URL.
package storage

import (
	"context"
	"errors"
	"iter"

	"webindexer/internal/document"
)

var (
	ErrEmptyURL = errors.New("storage: document has no url")
	ErrClosed   = errors.New("storage: store is closed")
)

// Store is a key-by-URL document store. Put overwrites any earlier document
// with the same URL. ScanAll is lazy; a failing backend yields one error and
// ends the sequence.
type Store interface {
	Put(ctx context.Context, doc document.Document) error
	Exists(ctx context.Context, url string) (bool, error)
	ScanAll(ctx context.Context) iter.Seq2[document.Document, error]
	Close(ctx context.Context) error
}

// Collect drains ScanAll into a slice.
func Collect(ctx context.Context, s Store) ([]document.Document, error) {
	var docs []document.Document
	for doc, err := range s.ScanAll(ctx) {
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
