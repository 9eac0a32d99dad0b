package identity

import (
	"errors"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// LoginError describes a rejected sign-in attempt.
type LoginError struct {
	Failure enums.LoginFailure
	Message string
	Err     error
}

func newLoginError(failure enums.LoginFailure, err error) *LoginError {
	return &LoginError{Failure: failure, Message: loginMessage(failure), Err: err}
}

func (e *LoginError) Error() string {
	if e.Err != nil {
		return e.Failure.String() + ": " + e.Err.Error()
	}
	return e.Failure.String()
}

func (e *LoginError) Unwrap() error {
	return e.Err
}

// Code maps the failure onto the shared error vocabulary.
func (e *LoginError) Code() pkgerrors.Code {
	switch e.Failure {
	case enums.LoginFailureBadCredentials, enums.LoginFailureUnknownAccount:
		return pkgerrors.CodeUnauthorized
	case enums.LoginFailureMalformedEmail:
		return pkgerrors.CodeValidation
	case enums.LoginFailureRateLimited:
		return pkgerrors.CodeRateLimit
	default:
		return pkgerrors.CodeDependency
	}
}

// AsLoginError extracts a *LoginError from err's chain.
func AsLoginError(err error) (*LoginError, bool) {
	var le *LoginError
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}

// asAppError wraps a login failure so callers using pkg/errors see the mapped
// code while errors.As still finds the *LoginError.
func asAppError(le *LoginError) error {
	return pkgerrors.Wrap(le.Code(), le, le.Message).
		WithDetails(map[string]string{"failure": le.Failure.String()})
}

func loginMessage(failure enums.LoginFailure) string {
	switch failure {
	case enums.LoginFailureBadCredentials:
		return "Credenciais inválidas. Verifique email e senha."
	case enums.LoginFailureUnknownAccount:
		return "Usuário não encontrado."
	case enums.LoginFailureMalformedEmail:
		return "Email inválido."
	case enums.LoginFailureRateLimited:
		return "Muitas tentativas. Tente novamente mais tarde."
	case enums.LoginFailureMisconfigured:
		return "Erro de configuração. Verifique as credenciais do Firebase."
	default:
		return "Erro ao fazer login. Tente novamente."
	}
}
