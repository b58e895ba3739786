package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/flicky/printmarket/internal/config"
	"github.com/flicky/printmarket/pkg/model"
)

const indexMapping = `{
  "mappings": {
    "properties": {
      "title":       {"type": "text"},
      "description": {"type": "text"},
      "category":    {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "tags":        {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "material":    {"type": "keyword"},
      "seller_id":   {"type": "keyword"},
      "created_at":  {"type": "date"}
    }
  }
}`

// Client indexes and queries products in a single Elasticsearch index.
type Client struct {
	es    *elasticsearch.Client
	index string
}

func NewClient(cfg config.ElasticsearchConfig) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return &Client{es: es, index: cfg.Index}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Info(c.es.Info.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("elasticsearch info", res.Status(), res.Body)
	}
	return nil
}

// EnsureIndex creates the product index with its mapping when missing.
func (c *Client) EnsureIndex(ctx context.Context) error {
	res, err := c.es.Indices.Exists([]string{c.index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	res, err = c.es.Indices.Create(c.index,
		c.es.Indices.Create.WithContext(ctx),
		c.es.Indices.Create.WithBody(strings.NewReader(indexMapping)),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()
	if !res.IsError() {
		return nil
	}
	msg, _ := io.ReadAll(res.Body)
	if bytes.Contains(msg, []byte("resource_already_exists_exception")) {
		return nil
	}
	return responseError("create index", res.Status(), bytes.NewReader(msg))
}

// IndexProduct upserts p under its id.
func (c *Client) IndexProduct(ctx context.Context, p *model.Product) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}
	res, err := c.es.Index(c.index, bytes.NewReader(body),
		c.es.Index.WithContext(ctx),
		c.es.Index.WithDocumentID(p.ID.String()),
	)
	if err != nil {
		return fmt.Errorf("index product: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index product", res.Status(), res.Body)
	}
	return nil
}

// Query builds the request body for a product search. An empty query
// matches everything, newest first.
func Query(q string, from, size int) map[string]any {
	body := map[string]any{"from": from, "size": size}
	if q == "" {
		body["query"] = map[string]any{"match_all": map[string]any{}}
		body["sort"] = []any{map[string]any{"created_at": map[string]any{"order": "desc"}}}
		return body
	}
	body["query"] = map[string]any{
		"multi_match": map[string]any{
			"query":     q,
			"fields":    []string{"title^3", "tags^2", "category", "description"},
			"fuzziness": "AUTO",
		},
	}
	return body
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source model.Product `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (c *Client) Search(ctx context.Context, q string, from, size int) ([]model.Product, int64, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(Query(q, from, size)); err != nil {
		return nil, 0, fmt.Errorf("encode query: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, 0, responseError("search", res.Status(), res.Body)
	}

	return decodeSearch(res.Body)
}

func decodeSearch(r io.Reader) ([]model.Product, int64, error) {
	var sr searchResponse
	if err := json.NewDecoder(r).Decode(&sr); err != nil {
		return nil, 0, fmt.Errorf("decode search response: %w", err)
	}
	products := make([]model.Product, len(sr.Hits.Hits))
	for i, hit := range sr.Hits.Hits {
		products[i] = hit.Source
	}
	return products, sr.Hits.Total.Value, nil
}

func responseError(op, status string, body io.Reader) error {
	msg, _ := io.ReadAll(io.LimitReader(body, 1024))
	return fmt.Errorf("%s: %s: %s", op, status, bytes.TrimSpace(msg))
}
