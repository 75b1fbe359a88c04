package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"

	"webindexer/internal/document"
)

const (
	DefaultElasticIndex = "web_indexer"
	scrollKeepAlive     = time.Minute
	scrollPageSize      = 500
)

const indexMapping = `{
  "mappings": {
    "properties": {
      "url":          {"type": "keyword"},
      "title":        {"type": "text"},
      "content":      {"type": "text"},
      "urls":         {"type": "keyword", "index": false},
      "kind":         {"type": "keyword"},
      "content_type": {"type": "keyword"},
      "fetched_at":   {"type": "date"}
    }
  }
}`

type ElasticConfig struct {
	Addresses []string
	Username  string
	Password  string
	// Transport overrides the HTTP transport, tests use it to stub the cluster.
	Transport http.RoundTripper
}

// NewElasticClient builds a client from cfg.
func NewElasticClient(cfg ElasticConfig) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}
	return client, nil
}

// Elastic stores documents in one index. The document id is the hex SHA-256
// of the URL so arbitrary URLs map to bounded, path-safe ids.
type Elastic struct {
	client *elasticsearch.Client
	index  string
	logger *zap.Logger
}

// NewElastic creates index if it does not exist yet.
func NewElastic(ctx context.Context, client *elasticsearch.Client, index string, logger *zap.Logger) (*Elastic, error) {
	if client == nil {
		return nil, errors.New("elasticsearch client is not initialized")
	}
	if index == "" {
		index = DefaultElasticIndex
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Elastic{client: client, index: index, logger: logger}
	if err := s.ensureIndex(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Elastic) ensureIndex(ctx context.Context) error {
	res, err := s.client.Indices.Exists([]string{s.index}, s.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", s.index, err)
	}
	closeResponse(res)
	if res.StatusCode == http.StatusOK {
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("check index %s: %s", s.index, res.Status())
	}

	res, err = s.client.Indices.Create(s.index,
		s.client.Indices.Create.WithContext(ctx),
		s.client.Indices.Create.WithBody(strings.NewReader(indexMapping)),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", s.index, err)
	}
	defer closeResponse(res)
	if res.IsError() {
		return fmt.Errorf("create index %s: %s", s.index, res.String())
	}
	s.logger.Info("created elasticsearch index", zap.String("index", s.index))
	return nil
}

// DocumentID is the id a URL is stored under.
func DocumentID(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

func (s *Elastic) Put(ctx context.Context, doc document.Document) error {
	if doc.URL == "" {
		return ErrEmptyURL
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document for indexing: %w", err)
	}

	res, err := s.client.Index(
		s.index,
		bytes.NewReader(body),
		s.client.Index.WithContext(ctx),
		s.client.Index.WithDocumentID(DocumentID(doc.URL)),
	)
	if err != nil {
		return fmt.Errorf("index %s: %w", doc.URL, err)
	}
	defer closeResponse(res)
	if res.IsError() {
		return fmt.Errorf("index %s: %s", doc.URL, res.String())
	}
	return nil
}

func (s *Elastic) Exists(ctx context.Context, url string) (bool, error) {
	res, err := s.client.Exists(s.index, DocumentID(url), s.client.Exists.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", url, err)
	}
	closeResponse(res)
	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("exists %s: %s", url, res.Status())
	}
}

type scrollPage struct {
	ScrollID string `json:"_scroll_id"`
	Hits     struct {
		Hits []struct {
			Source document.Document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// ScanAll walks the index with the scroll API.
func (s *Elastic) ScanAll(ctx context.Context) iter.Seq2[document.Document, error] {
	return func(yield func(document.Document, error) bool) {
		res, err := s.client.Search(
			s.client.Search.WithContext(ctx),
			s.client.Search.WithIndex(s.index),
			s.client.Search.WithScroll(scrollKeepAlive),
			s.client.Search.WithSize(scrollPageSize),
			s.client.Search.WithSort("_doc"),
		)
		page, err := decodePage(res, err)
		if err != nil {
			yield(document.Document{}, fmt.Errorf("scan %s: %w", s.index, err))
			return
		}
		// the id can change between scroll calls; clear the latest one
		defer func() { s.clearScroll(page.ScrollID) }()

		for len(page.Hits.Hits) > 0 {
			for _, hit := range page.Hits.Hits {
				if !yield(hit.Source, nil) {
					return
				}
			}

			body, _ := json.Marshal(map[string]string{
				"scroll":    scrollKeepAlive.String(),
				"scroll_id": page.ScrollID,
			})
			res, err := s.client.Scroll(
				s.client.Scroll.WithContext(ctx),
				s.client.Scroll.WithBody(bytes.NewReader(body)),
			)
			next, err := decodePage(res, err)
			if err != nil {
				yield(document.Document{}, fmt.Errorf("scroll %s: %w", s.index, err))
				return
			}
			if next.ScrollID != "" {
				page.ScrollID = next.ScrollID
			}
			page.Hits = next.Hits
		}
	}
}

func (s *Elastic) clearScroll(id string) {
	if id == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := s.client.ClearScroll(
		s.client.ClearScroll.WithContext(ctx),
		s.client.ClearScroll.WithScrollID(id),
	)
	if err != nil {
		s.logger.Debug("clear scroll failed", zap.Error(err))
		return
	}
	closeResponse(res)
}

func (s *Elastic) Close(context.Context) error {
	return nil
}

func decodePage(res *esapi.Response, err error) (scrollPage, error) {
	var page scrollPage
	if err != nil {
		return page, err
	}
	defer closeResponse(res)
	if res.IsError() {
		return page, fmt.Errorf("elasticsearch error: %s", res.String())
	}
	if err := json.NewDecoder(res.Body).Decode(&page); err != nil {
		return page, fmt.Errorf("decode response: %w", err)
	}
	return page, nil
}

func closeResponse(res *esapi.Response) {
	if res == nil || res.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, res.Body)
	_ = res.Body.Close()
}
