package transport

import (
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	AccessToken string          `json:"access_token"`
	Account     *domain.Account `json:"account"`
}

// AccountCloneRequest provisions a new account from a template
type AccountCloneRequest struct {
	TemplateID string                  `json:"templateId" validate:"required,uuid"`
	Account    service.NewAccountInput `json:"account"`
}

// AccountHandler handles session and account administration requests
type AccountHandler struct {
	accounts  service.AccountService
	cloner    service.AccountCloner
	inventory service.InventoryService
	logger    *zap.Logger
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(
	accounts service.AccountService,
	cloner service.AccountCloner,
	inventory service.InventoryService,
	logger *zap.Logger,
) *AccountHandler {
	return &AccountHandler{
		accounts:  accounts,
		cloner:    cloner,
		inventory: inventory,
		logger:    logger.Named("account_http"),
	}
}

// RegisterRoutes registers login and the admin-only account routes
func (h *AccountHandler) RegisterRoutes(r chi.Router, adminOnly func(http.Handler) http.Handler) {
	r.Post("/api/auth/login", h.Login)

	r.Route("/api/admin/accounts", func(r chi.Router) {
		r.Use(adminOnly)
		r.Post("/clone", h.CloneAccount)
		r.Get("/{id}/inventory", h.Inventory)
	})
}

// Login handles account authentication
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Login validation failed", zap.Error(err))
		respondWithDecodeError(w, err)
		return
	}

	token, account, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Debug("Login failed", zap.Error(err))
		respondWithServiceError(w, err, h.logger, nil)
		return
	}

	h.logger.Info("Account logged in", zap.String("account_id", account.ID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, LoginResponse{AccessToken: token, Account: account})
}

// CloneAccount handles provisioning an account from a template
func (h *AccountHandler) CloneAccount(w http.ResponseWriter, r *http.Request) {
	var req AccountCloneRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondWithDecodeError(w, err)
		return
	}
	templateID, err := uuid.Parse(req.TemplateID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid template id")
		return
	}

	result, err := h.cloner.CloneAccount(r.Context(), templateID, req.Account)
	if err != nil {
		respondWithServiceError(w, err, h.logger, nil)
		return
	}

	if p, ok := middleware.GetPrincipal(r.Context()); ok {
		h.logger.Info("Account provisioned from template",
			zap.String("template_id", templateID.String()),
			zap.String("account_id", result.Account.ID.String()),
			zap.String("admin_id", p.AccountID.String()),
		)
	}
	middleware.RespondWithJSON(w, http.StatusCreated, result)
}

// Inventory reports what an account owns
func (h *AccountHandler) Inventory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid account id")
		return
	}

	inv, err := h.inventory.Inspect(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, h.logger, nil)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, inv)
}
