// Package executor runs a scout's search queries against the search provider
// and owns the execution record lifecycle: it inserts the record as running
// and transitions it exactly once to succeeded or failed.
package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/locotown/open-scouts/internal/dispatch"
	"github.com/locotown/open-scouts/internal/scout"
	"github.com/locotown/open-scouts/internal/store"
)

// RunCeiling is the executor's hard per-scout ceiling. The reconciler's
// stuck timeout must never be shorter than this.
const RunCeiling = 2 * time.Minute

type SearchItem struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// SearchClient answers one search query for a location.
type SearchClient interface {
	Search(ctx context.Context, query, location string) ([]SearchItem, error)
}

type Executor struct {
	store  store.Store
	search SearchClient
	log    zerolog.Logger
}

func New(st store.Store, search SearchClient, log zerolog.Logger) *Executor {
	return &Executor{store: st, search: search, log: log}
}

// Execute runs every query of the scout and persists the execution record.
// Safe for concurrent use across disjoint scouts.
func (e *Executor) Execute(ctx context.Context, sc *scout.Scout) (*dispatch.Result, error) {
	exec := scout.NewExecution(sc.ID)
	if err := e.store.InsertExecution(ctx, exec); err != nil {
		return nil, fmt.Errorf("failed to record execution start: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, RunCeiling)
	defer cancel()

	items, err := e.runQueries(ctx, sc)
	if err != nil {
		if failErr := e.store.FailExecution(ctx, exec.ID, err.Error(), time.Now()); failErr != nil {
			e.log.Error().Err(failErr).Str("execution_id", exec.ID).Msg("failed to mark execution failed")
		}
		return nil, err
	}

	if err := e.store.CompleteExecution(ctx, exec.ID, time.Now()); err != nil {
		e.log.Error().Err(err).Str("execution_id", exec.ID).Msg("failed to mark execution succeeded")
	}

	return &dispatch.Result{
		ExecutionID: exec.ID,
		Summary:     fmt.Sprintf("%d results for %q in %s", len(items), sc.Goal, sc.Location),
		ItemCount:   len(items),
	}, nil
}

func (e *Executor) runQueries(ctx context.Context, sc *scout.Scout) ([]SearchItem, error) {
	var items []SearchItem
	for _, query := range sc.Queries {
		found, err := e.search.Search(ctx, query, sc.Location)
		if err != nil {
			return nil, fmt.Errorf("search %q failed: %w", query, err)
		}
		items = append(items, found...)
	}

	return items, nil
}

// HTTPSearchClient talks to the search provider's REST API.
type HTTPSearchClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPSearchClient(baseURL, apiKey string) *HTTPSearchClient {
	return &HTTPSearchClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPSearchClient) Search(ctx context.Context, query, location string) ([]SearchItem, error) {
	endpoint := fmt.Sprintf("%s/search?%s", c.baseURL, url.Values{
		"q":        {query},
		"location": {location},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search provider returned status %d", resp.StatusCode)
	}

	var payload struct {
		Results []SearchItem `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	return payload.Results, nil
}
