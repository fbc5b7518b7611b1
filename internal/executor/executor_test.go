package executor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locotown/open-scouts/internal/scout"
	"github.com/locotown/open-scouts/internal/store"
)

type stubSearchClient struct {
	items map[string][]SearchItem
	err   error
}

func (s *stubSearchClient) Search(_ context.Context, query, _ string) ([]SearchItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.items[query], nil
}

func newScout() *scout.Scout {
	return scout.NewScout("acct-1", "Venues", "find venues", "desc", "Berlin",
		[]string{"live music venue", "jazz bar"}, scout.FrequencyWeekly)
}

func TestExecute_Success(t *testing.T) {
	st := store.NewMockStore()
	search := &stubSearchClient{items: map[string][]SearchItem{
		"live music venue": {{Title: "Venue A", URL: "https://a.example"}},
		"jazz bar":         {{Title: "Bar B", URL: "https://b.example"}, {Title: "Bar C", URL: "https://c.example"}},
	}}

	e := New(st, search, zerolog.Nop())
	sc := newScout()

	res, err := e.Execute(context.Background(), sc)
	require.NoError(t, err)
	assert.Equal(t, 3, res.ItemCount)
	assert.Contains(t, res.Summary, "3 results")

	require.Len(t, st.Executions, 1)
	rec := st.Executions[res.ExecutionID]
	require.NotNil(t, rec)
	assert.Equal(t, sc.ID, rec.ScoutID)
	assert.Equal(t, scout.StatusSucceeded, rec.Status)
	require.NotNil(t, rec.CompletedAt)
}

func TestExecute_SearchFailureFailsRecord(t *testing.T) {
	st := store.NewMockStore()
	search := &stubSearchClient{err: errors.New("provider unreachable")}

	e := New(st, search, zerolog.Nop())

	_, err := e.Execute(context.Background(), newScout())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider unreachable")

	require.Len(t, st.Executions, 1)
	for _, rec := range st.Executions {
		assert.Equal(t, scout.StatusFailed, rec.Status)
		assert.Contains(t, rec.Error, "provider unreachable")
		require.NotNil(t, rec.CompletedAt)
	}
}

func TestExecute_InsertFailureAbortsRun(t *testing.T) {
	st := store.NewMockStore()
	st.InsertError = errors.New("write refused")
	search := &stubSearchClient{}

	e := New(st, search, zerolog.Nop())

	_, err := e.Execute(context.Background(), newScout())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to record execution start")
}

func TestHTTPSearchClient(t *testing.T) {
	t.Run("successful search", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/search", r.URL.Path)
			assert.Equal(t, "live music venue", r.URL.Query().Get("q"))
			assert.Equal(t, "Berlin", r.URL.Query().Get("location"))
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"results":[{"title":"Venue A","url":"https://a.example"}]}`))
		}))
		defer server.Close()

		client := NewHTTPSearchClient(server.URL, "test-key")
		items, err := client.Search(context.Background(), "live music venue", "Berlin")
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Venue A", items[0].Title)
	})

	t.Run("non-200 status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		client := NewHTTPSearchClient(server.URL, "test-key")
		_, err := client.Search(context.Background(), "q", "Berlin")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 429")
	})

	t.Run("malformed response body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("not json"))
		}))
		defer server.Close()

		client := NewHTTPSearchClient(server.URL, "test-key")
		_, err := client.Search(context.Background(), "q", "Berlin")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode")
	})
}
