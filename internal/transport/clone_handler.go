package transport

import (
	"errors"
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CloneHandler exposes the clone pipeline to admin sessions and machine callers
type CloneHandler struct {
	admin  service.CloneOrchestrator
	public service.CloneOrchestrator
	logger *zap.Logger
}

// NewCloneHandler creates a new CloneHandler
func NewCloneHandler(admin, public service.CloneOrchestrator, logger *zap.Logger) *CloneHandler {
	return &CloneHandler{
		admin:  admin,
		public: public,
		logger: logger.Named("clone_http"),
	}
}

// RegisterRoutes registers the clone routes. publicLimit guards the shared-secret route.
func (h *CloneHandler) RegisterRoutes(r chi.Router, publicLimit func(http.Handler) http.Handler) {
	r.Post("/api/admin/clone", h.serve(h.admin))
	r.With(publicLimit).Post("/api/public/clone", h.serve(h.public))
}

// serve decodes the request and runs the orchestrator. Authorization is checked by the
// orchestrator, and also before a malformed body is rejected so that 401/403 win over 400.
func (h *CloneHandler) serve(orch service.CloneOrchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creds := middleware.ExtractCredentials(r)

		var req service.CloneRequest
		if err := middleware.DecodeJSON(r, &req); err != nil {
			if _, authErr := orch.Authorize(r.Context(), creds); authErr != nil {
				respondWithServiceError(w, authErr, h.logger, nil)
				return
			}
			h.logger.Debug("Clone request decode failed", zap.Error(err))
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		report, err := orch.Run(r.Context(), creds, req, func(p domain.Progress) {
			h.logger.Debug("Clone progress",
				zap.Int("percentage", p.Percentage),
				zap.String("message", p.Message),
			)
		})
		if err != nil {
			var details map[string]interface{}
			if report != nil && errors.Is(err, service.ErrQuotaExceeded) {
				details = map[string]interface{}{"report": report}
			}
			respondWithServiceError(w, err, h.logger, details)
			return
		}

		middleware.RespondWithJSON(w, http.StatusOK, report)
	}
}
