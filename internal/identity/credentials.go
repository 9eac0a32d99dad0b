package identity

import (
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/go-playground/validator/v10"
)

var credentialValidator = validator.New()

type credentials struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// checkCredentials rejects obviously bad input before any remote call.
func checkCredentials(email, password string) *LoginError {
	err := credentialValidator.Struct(credentials{Email: email, Password: password})
	if err == nil {
		return nil
	}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			if fe.Field() == "Email" {
				return newLoginError(enums.LoginFailureMalformedEmail, err)
			}
		}
	}
	return newLoginError(enums.LoginFailureBadCredentials, err)
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(email)
}
