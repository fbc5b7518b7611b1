package credentials

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type providerStub struct {
	keys    map[string]bool
	creates int
}

func (p *providerStub) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/keys/", func(w http.ResponseWriter, r *http.Request) {
		accountID := r.URL.Path[len("/keys/"):]
		if p.keys[accountID] {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/keys", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		p.creates++
		w.WriteHeader(http.StatusCreated)
	})
	return mux
}

func TestEnsureKey_CreatesMissingKey(t *testing.T) {
	stub := &providerStub{keys: map[string]bool{}}
	server := httptest.NewServer(stub.handler())
	defer server.Close()

	p := NewProvisioner(server.URL, "admin-key", zerolog.Nop())

	require.NoError(t, p.EnsureKey(context.Background(), "acct-1"))
	assert.Equal(t, 1, stub.creates)
}

func TestEnsureKey_ExistingKeyIsIdempotent(t *testing.T) {
	stub := &providerStub{keys: map[string]bool{"acct-1": true}}
	server := httptest.NewServer(stub.handler())
	defer server.Close()

	p := NewProvisioner(server.URL, "admin-key", zerolog.Nop())

	require.NoError(t, p.EnsureKey(context.Background(), "acct-1"))
	require.NoError(t, p.EnsureKey(context.Background(), "acct-1"))
	assert.Zero(t, stub.creates)
}

func TestEnsureKey_ConflictMeansAlreadyProvisioned(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/keys/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/keys", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	p := NewProvisioner(server.URL, "admin-key", zerolog.Nop())
	assert.NoError(t, p.EnsureKey(context.Background(), "acct-1"))
}

func TestEnsureKey_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	p := NewProvisioner(server.URL, "admin-key", zerolog.Nop())
	assert.Error(t, p.EnsureKey(context.Background(), "acct-1"))
}
