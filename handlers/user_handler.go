package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/upb/identity-service/app"
	"github.com/upb/identity-service/middleware"
	"github.com/upb/identity-service/models"
	"github.com/upb/identity-service/token"
	"github.com/upb/identity-service/utils"
	"go.uber.org/zap"
)

// RegisterRequest is the payload for local account registration
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest is the payload for local password authentication
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// userResponse is the wire shape of a user record
type userResponse struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	AuthProvider string `json:"auth_provider"`
}

func toUserResponse(user *models.User) userResponse {
	return userResponse{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		AuthProvider: string(user.AuthProvider),
	}
}

// RegisterHandler creates a local account from name, email, and password
func RegisterHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			_ = utils.WriteBadRequest(w, "Invalid request body", nil)
			return
		}

		if err := utils.ValidateStruct(&req); err != nil {
			details := map[string]interface{}{}
			for field, msg := range utils.GetValidationFields(err) {
				details[field] = msg
			}
			_ = utils.WriteBadRequest(w, "Validation failed", details)
			return
		}

		user, err := deps.UserService.Register(r.Context(), req.Name, req.Email, req.Password)
		if err != nil {
			HandleServiceError(w, err, deps.Logger)
			return
		}

		deps.Logger.Info("user registered",
			zap.Int64("user_id", user.ID),
			zap.String("email", user.Email))

		_ = utils.WriteCreated(w, map[string]interface{}{
			"message": "User registered successfully",
			"user":    toUserResponse(user),
		})
	}
}

// LoginHandler authenticates a local account by email and password
func LoginHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			_ = utils.WriteBadRequest(w, "Invalid request body", nil)
			return
		}

		if err := utils.ValidateStruct(&req); err != nil {
			_ = utils.WriteBadRequest(w, "Email and password are required", nil)
			return
		}

		user, err := deps.UserService.Authenticate(r.Context(), req.Email, req.Password)
		if err != nil {
			HandleServiceError(w, err, deps.Logger)
			return
		}

		_ = utils.WriteOK(w, map[string]interface{}{
			"message": "Login successful",
			"user":    toUserResponse(user),
		})
	}
}

// GetUserHandler looks up a user record by numeric id
func GetUserHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			_ = utils.WriteBadRequest(w, "Invalid user id", nil)
			return
		}

		user, err := deps.UserService.GetByID(r.Context(), id)
		if err != nil {
			HandleServiceError(w, err, deps.Logger)
			return
		}

		_ = utils.WriteOK(w, toUserResponse(user))
	}
}

// GetUserByEmailHandler looks up a user record by email
func GetUserByEmailHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := chi.URLParam(r, "email")
		if email == "" {
			_ = utils.WriteBadRequest(w, "Email is required", nil)
			return
		}

		user, err := deps.UserService.GetByEmail(r.Context(), email)
		if err != nil {
			HandleServiceError(w, err, deps.Logger)
			return
		}

		_ = utils.WriteOK(w, toUserResponse(user))
	}
}

// ProfileHandler returns the protected profile derived from the bearer
// token that authenticated the request: the extracted user info, an
// expiration summary, and an echo of the identity claims.
func ProfileHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.GetClaimsFromContext(r.Context())
		if claims == nil {
			// RequireAuth did not run; treat as unauthenticated.
			_ = utils.WriteUnauthorized(w, "Authentication required")
			return
		}

		_ = utils.WriteOK(w, map[string]interface{}{
			"message":          "Access granted to protected resource!",
			"timestamp":        time.Now().UnixMilli(),
			"token_validation": "VALID",
			"token_expiration": token.ExpirationSummary(claims, time.Now()),
			"user_info": map[string]string{
				"name":       valueOrUnknown(token.DisplayName(claims)),
				"email":      valueOrUnknown(token.Email(claims)),
				"subject_id": valueOrUnknown(token.Subject(claims)),
			},
			"token_claims": map[string]interface{}{
				"issuer":     claims["iss"],
				"audience":   claims["aud"],
				"issued_at":  claims["iat"],
				"expires_at": claims["exp"],
				"token_type": claims["typ"],
			},
			"status": "authenticated",
		})
	}
}

func valueOrUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
