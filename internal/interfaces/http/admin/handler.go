package admin

import (
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/sngm3741/inspection-intake/api/internal/inspection/application"
)

// Handler wires operator HTTP endpoints to application services.
type Handler struct {
	logger  zerolog.Logger
	orphans application.OrphanService
}

// Config provides dependencies for Handler.
type Config struct {
	Logger  zerolog.Logger
	Orphans application.OrphanService
}

// NewHandler constructs an operator HTTP handler set.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		logger:  cfg.Logger,
		orphans: cfg.Orphans,
	}
}

// Register mounts operator routes onto router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/orphaned-uploads", h.orphanListHandler())
	r.Patch("/orphaned-uploads/{id}", h.orphanResolveHandler())
}
