package journal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/mfenderov/draftpress/internal/events"
	"github.com/mfenderov/draftpress/pkg/models"
)

// DefaultLimit is used when a query does not set one.
const DefaultLimit = 20

// Config holds Elasticsearch client configuration.
type Config struct {
	Addresses []string
	Index     string
	Username  string
	Password  string
}

// Client records document outcomes in an Elasticsearch index.
type Client struct {
	es    *elasticsearch.Client
	index string
}

// New creates a new Elasticsearch client.
func New(config Config) (*Client, error) {
	if config.Index == "" {
		return nil, fmt.Errorf("index is required")
	}

	cfg := elasticsearch.Config{
		Addresses: config.Addresses,
		Username:  config.Username,
		Password:  config.Password,
	}

	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create ES client: %w", err)
	}

	return &Client{
		es:    es,
		index: config.Index,
	}, nil
}

// Ping checks if Elasticsearch is available.
func (c *Client) Ping(ctx context.Context) bool {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return false
	}
	defer res.Body.Close()
	return !res.IsError()
}

// indexMapping defines the ES index mapping for outcomes.
var indexMapping = `{
	"mappings": {
		"properties": {
			"id": { "type": "keyword" },
			"run_id": { "type": "keyword" },
			"file": { "type": "keyword", "fields": { "text": { "type": "text" } } },
			"title": { "type": "text", "analyzer": "french" },
			"stage": { "type": "keyword" },
			"status": { "type": "keyword" },
			"reason": { "type": "text" },
			"media_id": { "type": "integer" },
			"post_id": { "type": "integer" },
			"timestamp": { "type": "date" }
		}
	}
}`

// CreateIndex creates the index with proper mapping.
func (c *Client) CreateIndex(ctx context.Context) error {
	res, err := c.es.Indices.Exists([]string{c.index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to check index: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 200 {
		return nil
	}

	res, err = c.es.Indices.Create(
		c.index,
		c.es.Indices.Create.WithContext(ctx),
		c.es.Indices.Create.WithBody(bytes.NewReader([]byte(indexMapping))),
	)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error creating index: %s", res.String())
	}

	return nil
}

// DeleteIndex removes the index (for testing/cleanup).
func (c *Client) DeleteIndex(ctx context.Context) error {
	res, err := c.es.Indices.Delete([]string{c.index}, c.es.Indices.Delete.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	return nil
}

// IndexOutcome stores one outcome under its ID.
func (c *Client) IndexOutcome(ctx context.Context, outcome models.Outcome) error {
	data, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("failed to marshal outcome: %w", err)
	}

	res, err := c.es.Index(
		c.index,
		bytes.NewReader(data),
		c.es.Index.WithContext(ctx),
		c.es.Index.WithDocumentID(outcome.ID),
	)
	if err != nil {
		return fmt.Errorf("failed to index outcome: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error indexing outcome (status %d): %s", res.StatusCode, res.String())
	}

	return nil
}

// Refresh forces an index refresh.
func (c *Client) Refresh(ctx context.Context) error {
	res, err := c.es.Indices.Refresh(
		c.es.Indices.Refresh.WithContext(ctx),
		c.es.Indices.Refresh.WithIndex(c.index),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	return nil
}

// Query filters journal entries. Zero fields match everything.
type Query struct {
	Text   string        // full-text match on title, file and reason
	RunID  string        // exact run
	Status models.Status // published or skipped
	Limit  int
}

// body builds the search request, newest entries first.
func (q Query) body() map[string]any {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	var must []map[string]any
	if q.Text != "" {
		must = append(must, map[string]any{
			"multi_match": map[string]any{
				"query":  q.Text,
				"fields": []string{"title^2", "file.text", "reason"},
			},
		})
	}
	var filter []map[string]any
	if q.RunID != "" {
		filter = append(filter, map[string]any{"term": map[string]any{"run_id": q.RunID}})
	}
	if q.Status != "" {
		filter = append(filter, map[string]any{"term": map[string]any{"status": string(q.Status)}})
	}

	query := map[string]any{"match_all": map[string]any{}}
	if len(must) > 0 || len(filter) > 0 {
		boolQuery := map[string]any{}
		if len(must) > 0 {
			boolQuery["must"] = must
		}
		if len(filter) > 0 {
			boolQuery["filter"] = filter
		}
		query = map[string]any{"bool": boolQuery}
	}

	return map[string]any{
		"query": query,
		"sort":  []map[string]any{{"timestamp": map[string]any{"order": "desc"}}},
		"size":  limit,
	}
}

// searchResponse represents ES search response structure.
type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source models.Outcome `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search returns the outcomes matching q, newest first.
func (c *Client) Search(ctx context.Context, q Query) ([]models.Outcome, error) {
	data, err := json.Marshal(q.body())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(bytes.NewReader(data)),
	)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search error: %s", res.String())
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	outcomes := make([]models.Outcome, len(sr.Hits.Hits))
	for i, hit := range sr.Hits.Hits {
		outcomes[i] = hit.Source
	}

	return outcomes, nil
}

// getResponse represents ES get response structure.
type getResponse struct {
	Found  bool           `json:"found"`
	Source models.Outcome `json:"_source"`
}

// GetOutcome retrieves an outcome by ID. It returns nil when none exists.
func (c *Client) GetOutcome(ctx context.Context, id string) (*models.Outcome, error) {
	res, err := c.es.Get(
		c.index,
		id,
		c.es.Get.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("get failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return nil, nil
	}

	if res.IsError() {
		return nil, fmt.Errorf("get error: %s", res.String())
	}

	var gr getResponse
	if err := json.NewDecoder(res.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if !gr.Found {
		return nil, nil
	}

	return &gr.Source, nil
}

// DocumentProcessed indexes the outcome. Failures are logged only.
func (c *Client) DocumentProcessed(ctx context.Context, e events.DocumentEvent) {
	if err := c.IndexOutcome(ctx, e.Outcome); err != nil {
		slog.Warn("failed to journal outcome", "file", e.Outcome.File, "error", err)
	}
}

// RunComplete makes the run's outcomes searchable.
func (c *Client) RunComplete(ctx context.Context, e events.RunCompleteEvent) {
	if err := c.Refresh(ctx); err != nil {
		slog.Warn("failed to refresh journal", "run_id", e.RunID, "error", err)
	}
}
