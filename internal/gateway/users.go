package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/snapmail/snapmail/internal/principal"
	"github.com/snapmail/snapmail/internal/store"
)

// userJSON is the redacted principal echo returned by registration. The
// caller already knows the secret it just sent; no need to repeat it.
type userJSON struct {
	Name    string `json:"name"`
	LoginID string `json:"username"`
	Email   string `json:"email"`
}

func redact(p principal.Principal) userJSON {
	return userJSON{Name: p.DisplayName, LoginID: p.LoginID, Email: p.NotifyAddress}
}

// handleAddUser registers a principal and schedules its daily job in one
// step. Missing required fields are rejected up front rather than being
// silently skipped later; the interactive edge is where a typo is fixable.
func (g *Gateway) handleAddUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if g.principals == nil {
			http.Error(w, "store not available", http.StatusServiceUnavailable)
			return
		}

		var p principal.Principal
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		if !p.Complete() {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "username, password and email are required",
			})
			return
		}

		added, err := g.principals.Add(p)
		if err != nil {
			if errors.Is(err, store.ErrDuplicateKey) {
				writeJSON(w, http.StatusConflict, map[string]string{
					"error": "username already registered: " + p.LoginID,
				})
				return
			}
			g.logger.Error("adding principal failed", "login_id", p.LoginID, "error", err)
			http.Error(w, "failed to persist user", http.StatusInternalServerError)
			return
		}

		if g.jobs != nil {
			if err := g.jobs.ScheduleOne(added); err != nil {
				// Persisted but not scheduled; the next reload picks it up.
				g.logger.Error("scheduling new principal failed", "login_id", added.LoginID, "error", err)
			}
		}

		g.logger.Info("principal registered", "login_id", added.LoginID)
		writeJSON(w, http.StatusCreated, redact(added))
	}
}

// handleListUsers returns the persisted collection verbatim, secrets
// included. Credential exposure on this surface is a documented weakness
// of the system, not something this handler decides to paper over.
// A corrupt store degrades to an empty list.
func (g *Gateway) handleListUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if g.principals == nil {
			http.Error(w, "store not available", http.StatusServiceUnavailable)
			return
		}

		principals, err := g.principals.Load()
		if err != nil {
			g.logger.Warn("principal list unreadable", "error", err)
		}
		if principals == nil {
			principals = []principal.Principal{}
		}
		writeJSON(w, http.StatusOK, principals)
	}
}

// writeJSON encodes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
