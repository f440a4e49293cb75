package reload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/snapmail/snapmail/internal/principal"
	"github.com/snapmail/snapmail/internal/store"
)

// Loader loads the current principal set.
type Loader interface {
	Load() ([]principal.Principal, error)
}

// JobSet is the scheduler surface a reload drives.
type JobSet interface {
	ReplaceAll(principals []principal.Principal)
}

// Handler rebuilds the scheduled job set from a fresh load of the
// principal store (service "reload.handler").
type Handler struct {
	loader Loader
	jobs   JobSet
	logger *slog.Logger
}

// NewHandler creates a reload handler.
func NewHandler(loader Loader, jobs JobSet, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{loader: loader, jobs: jobs, logger: logger}
}

// HandleReload loads the store and replaces the whole job set with the
// result. A corrupt store file degrades to an empty principal set with a
// warning rather than failing the reload; any other load error aborts and
// leaves the current job set untouched.
func (h *Handler) HandleReload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("reload: cancelled: %w", err)
	}

	principals, err := h.loader.Load()
	if err != nil {
		if !errors.Is(err, store.ErrStoreCorrupt) {
			return fmt.Errorf("reload: loading principals: %w", err)
		}
		h.logger.Warn("principal store corrupt, reloading with empty set", "error", err)
	}

	h.jobs.ReplaceAll(principals)
	h.logger.Info("job set reloaded from store", "principals", len(principals))
	return nil
}
