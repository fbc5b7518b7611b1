// Package api exposes the orchestrator's trigger surface over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/locotown/open-scouts/internal/credentials"
	"github.com/locotown/open-scouts/internal/dispatch"
	"github.com/locotown/open-scouts/internal/httputil"
	"github.com/locotown/open-scouts/internal/orchestrator"
	"github.com/locotown/open-scouts/internal/store"
)

type API struct {
	orch        *orchestrator.Orchestrator
	store       store.Store
	provisioner *credentials.Provisioner
	log         zerolog.Logger
	mux         *http.ServeMux
}

type RunCycleRequest struct {
	ScoutID string `json:"scout_id"`
}

type SignInHookRequest struct {
	AccountID string `json:"account_id"`
}

func NewAPI(orch *orchestrator.Orchestrator, st store.Store, prov *credentials.Provisioner, log zerolog.Logger) *API {
	api := &API{
		orch:        orch,
		store:       st,
		provisioner: prov,
		log:         log,
		mux:         http.NewServeMux(),
	}

	api.setupRoutes()
	return api
}

func (a *API) setupRoutes() {
	a.mux.HandleFunc("/api/cycles", a.handleRunCycle)
	a.mux.HandleFunc("/api/executions/recent", a.handleRecentExecutions)
	a.mux.HandleFunc("/api/hooks/signin", a.handleSignInHook)
}

func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

// handleRunCycle triggers one orchestrator cycle. An empty body (or empty
// scout_id) runs every due scout; a scout_id forces that scout regardless of
// its schedule.
func (a *API) handleRunCycle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RunCycleRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.WriteJSONError(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
	}

	report, err := a.orch.RunCycle(r.Context(), dispatch.Trigger{ScoutID: req.ScoutID})
	if err != nil {
		httputil.WriteJSONError(w, err.Error(), selectionStatus(err))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, report)
}

func selectionStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrScoutNotFound):
		return http.StatusNotFound
	case errors.Is(err, dispatch.ErrScoutInactive):
		return http.StatusConflict
	case errors.Is(err, dispatch.ErrScoutIncomplete):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (a *API) handleRecentExecutions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			httputil.WriteJSONError(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	summaries, err := a.store.RecentExecutions(r.Context(), limit)
	if err != nil {
		httputil.WriteJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, summaries)
}

// handleSignInHook is called by the authentication subsystem after a sign-in.
// Credential provisioning runs detached so the hook never blocks on the
// provider; provisioning failures are logged and swallowed.
func (a *API) handleSignInHook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req SignInHookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.AccountID == "" {
		httputil.WriteJSONError(w, "account_id is required", http.StatusBadRequest)
		return
	}

	if a.provisioner != nil {
		go func(accountID string) {
			if err := a.provisioner.EnsureKey(context.Background(), accountID); err != nil {
				a.log.Warn().Err(err).Str("account_id", accountID).Msg("credential provisioning failed")
			}
		}(req.AccountID)
	}

	w.WriteHeader(http.StatusAccepted)
}
