package public

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/sngm3741/inspection-intake/api/internal/inspection/application"
	"github.com/sngm3741/inspection-intake/api/internal/inspection/domain"
	"github.com/sngm3741/inspection-intake/api/internal/interfaces/http/common"
)

// Handler wires public HTTP endpoints to application services.
type Handler struct {
	logger         zerolog.Logger
	submissions    application.SubmissionService
	catalog        domain.ItemCatalog
	maxUploadBytes int64
}

// Config defines dependencies required by Handler.
type Config struct {
	Logger         zerolog.Logger
	Submissions    application.SubmissionService
	Catalog        domain.ItemCatalog
	MaxUploadBytes int64
}

// NewHandler constructs a public HTTP handler set.
func NewHandler(cfg Config) *Handler {
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = common.DefaultMaxUploadBytes
	}
	return &Handler{
		logger:         cfg.Logger,
		submissions:    cfg.Submissions,
		catalog:        cfg.Catalog,
		maxUploadBytes: maxUpload,
	}
}

// Register mounts all public routes onto the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/inspection", h.inspectionCreateHandler())
	r.Post("/inspection", h.inspectionCreateHandler())
	r.Get("/api/item-types", h.itemTypesHandler())
}

func (h *Handler) itemTypesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		common.WriteJSON(h.logger, w, http.StatusOK, itemTypesResponse{
			ItemTypes: h.catalog.Items(),
			Levels:    append([]int(nil), domain.DefaultLevels...),
		})
	}
}
