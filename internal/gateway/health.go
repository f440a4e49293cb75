package gateway

import "net/http"

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status     string `json:"status"`
	Jobs       int    `json:"jobs"`
	Principals int    `json:"principals"`
}

// handleHealth returns an http.HandlerFunc for GET /health. The process is
// healthy as long as it can answer; a corrupt store degrades the status
// but still returns 200, since the system keeps operating on an empty set.
func (g *Gateway) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := HealthResponse{Status: "ok"}

		if g.jobs != nil {
			resp.Jobs = len(g.jobs.ActiveLogins())
		}
		if g.principals != nil {
			principals, err := g.principals.Load()
			if err != nil {
				resp.Status = "degraded"
			}
			resp.Principals = len(principals)
		}

		writeJSON(w, http.StatusOK, resp)
	}
}
