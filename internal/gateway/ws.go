package gateway

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// handleRunStream upgrades to a websocket and forwards run events as JSON
// until the client disconnects. Slow clients lose events at the broker
// rather than stalling it.
func (g *Gateway) handleRunStream() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if g.broker == nil {
			http.Error(w, "event stream not available", http.StatusServiceUnavailable)
			return
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			g.logger.Warn("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ch, unsubscribe := g.broker.Subscribe()
		defer unsubscribe()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// The client never sends data frames; reading drains control frames
		// and unblocks the loop when the peer goes away.
		go func() {
			_, _, _ = conn.Read(ctx)
			cancel()
		}()

		g.logger.Info("run stream subscriber connected", "remote", r.RemoteAddr)

		for {
			select {
			case <-ctx.Done():
				_ = conn.Close(websocket.StatusNormalClosure, "shutting down")
				return
			case evt, ok := <-ch:
				if !ok {
					_ = conn.Close(websocket.StatusNormalClosure, "stream closed")
					return
				}
				if err := wsjson.Write(ctx, conn, evt); err != nil {
					return
				}
			}
		}
	}
}
