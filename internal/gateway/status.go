package gateway

import (
	"net/http"
	"time"
)

// StatusResponse is the JSON response for GET /status.
type StatusResponse struct {
	UptimeSeconds int64    `json:"uptime_seconds"`
	ActiveLogins  []string `json:"active_logins"`
	Subscribers   int      `json:"stream_subscribers"`
}

// handleStatus returns an http.HandlerFunc for GET /status.
func (g *Gateway) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := StatusResponse{
			UptimeSeconds: int64(time.Since(g.startedAt).Seconds()),
			ActiveLogins:  []string{},
		}

		if g.jobs != nil {
			resp.ActiveLogins = g.jobs.ActiveLogins()
		}
		if g.broker != nil {
			resp.Subscribers = g.broker.Len()
		}

		writeJSON(w, http.StatusOK, resp)
	}
}
