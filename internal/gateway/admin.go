package gateway

import (
	"net/http"
	"strconv"

	"github.com/snapmail/snapmail/internal/core"
)

// handleListJobs returns the login IDs with an active daily trigger.
func (g *Gateway) handleListJobs() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		logins := []string{}
		if g.jobs != nil {
			logins = g.jobs.ActiveLogins()
		}
		writeJSON(w, http.StatusOK, map[string]any{"jobs": logins})
	}
}

// handleListRuns returns recent journal records, newest first. The limit
// query parameter caps the result; the journal applies its default when
// absent.
func (g *Gateway) handleListRuns() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if g.runs == nil {
			http.Error(w, "journal not available", http.StatusServiceUnavailable)
			return
		}

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
				return
			}
			limit = n
		}

		records, err := g.runs.Recent(r.Context(), limit)
		if err != nil {
			g.logger.Error("listing runs failed", "error", err)
			http.Error(w, "failed to read journal", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, records)
	}
}

// handleReload rebuilds the job set from the store on demand. The reload
// handler is registered after the gateway starts, so it is resolved per
// request rather than at Start.
func (g *Gateway) handleReload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h, ok := core.ServiceAs[reloader](g.appCtx, "reload.handler")
		if !ok {
			http.Error(w, "reload not available", http.StatusServiceUnavailable)
			return
		}

		if err := h.HandleReload(r.Context()); err != nil {
			g.logger.Error("manual reload failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
	}
}
