package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/identity"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type authenticator interface {
	Authenticate(ctx context.Context, email, password string) (identity.Session, error)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	IDToken      string             `json:"id_token"`
	RefreshToken string             `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time          `json:"expires_at"`
	Principal    identity.Principal `json:"principal"`
}

// AuthLogin exchanges admin credentials for an ID token used as bearer on
// the admin routes.
func AuthLogin(auth authenticator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if auth == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "admin sign-in is not configured"))
			return
		}

		var body loginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := auth.Authenticate(r.Context(), body.Email, body.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, loginResponse{
			IDToken:      session.IDToken,
			RefreshToken: session.RefreshToken,
			ExpiresAt:    session.Principal.ExpiresAt,
			Principal:    session.Principal,
		})
	}
}
