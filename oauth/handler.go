package oauth

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/upb/identity-service/config"
	"github.com/upb/identity-service/models"
	"github.com/upb/identity-service/token"
	"github.com/upb/identity-service/utils"
	"go.uber.org/zap"
)

// CodeExchanger exchanges authorization codes for token bundles.
type CodeExchanger interface {
	Exchange(ctx context.Context, code string) (*TokenBundle, error)
}

// TokenValidator verifies and validates a compact token, returning its
// decoded claims.
type TokenValidator interface {
	ValidateToken(ctx context.Context, compact string) (token.ClaimSet, error)
}

// IdentityReconciler maps an external identity onto a persisted user.
type IdentityReconciler interface {
	ReconcileExternal(ctx context.Context, identity models.Identity) (*models.User, error)
}

// Handler handles the authorization-code flow endpoints.
type Handler struct {
	cfg        config.KeycloakConfig
	exchanger  CodeExchanger
	validator  TokenValidator
	reconciler IdentityReconciler
	logger     *zap.Logger
}

// NewHandler creates a new oauth Handler.
func NewHandler(
	cfg config.KeycloakConfig,
	exchanger CodeExchanger,
	validator TokenValidator,
	reconciler IdentityReconciler,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		cfg:        cfg,
		exchanger:  exchanger,
		validator:  validator,
		reconciler: reconciler,
		logger:     logger,
	}
}

// HandleAuthorize returns the provider authorization URL that starts
// the flow.
func (h *Handler) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	if h.cfg.AuthServerURL == "" || h.cfg.ClientID == "" {
		h.logger.Error("identity provider not configured")
		_ = utils.WriteInternalServerError(w, "Identity provider not configured")
		return
	}

	authURL := BuildAuthorizationURL(
		AuthorizationEndpoint(h.cfg.AuthServerURL),
		h.cfg.ClientID,
		h.cfg.RedirectURI,
		h.cfg.Scope,
		uuid.NewString(),
	)

	_ = utils.WriteOK(w, map[string]string{"authorization_url": authURL})
}

// HandleCallback exchanges the authorization code, validates the
// identity token, and reconciles the resulting identity onto a user
// record.
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.FormValue("code")
	if code == "" {
		_ = utils.WriteBadRequest(w, "Missing authorization code", nil)
		return
	}

	bundle, err := h.exchanger.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Warn("authorization code exchange failed", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to exchange code for tokens: "+err.Error())
		return
	}

	claims, err := h.validator.ValidateToken(r.Context(), bundle.IDToken)
	if err != nil {
		h.logger.Warn("identity token rejected", zap.Error(err))
		_ = utils.WriteUnauthorized(w, unauthorizedCause(err))
		return
	}

	identity := models.Identity{
		Subject: token.Subject(claims),
		Email:   token.Email(claims),
		Name:    token.DisplayName(claims),
	}

	user, err := h.reconciler.ReconcileExternal(r.Context(), identity)
	if err != nil {
		h.logger.Error("identity reconciliation failed",
			zap.String("external_id", identity.Subject),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to reconcile user")
		return
	}

	_ = utils.WriteOK(w, map[string]any{
		"tokens": bundle,
		"user": map[string]any{
			"id":            user.ID,
			"name":          user.Name,
			"email":         user.Email,
			"auth_provider": user.AuthProvider,
		},
	})
}

// unauthorizedCause trims a validation error to its cause for logging.
func unauthorizedCause(err error) string {
	var verr *token.ValidationError
	if errors.As(err, &verr) {
		return verr.Cause.Error()
	}
	return err.Error()
}
