package auth

import (
	errors "github.com/frahmantamala/retail-backoffice/internal"
	"github.com/frahmantamala/retail-backoffice/internal/core/common/validation"
)

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token"`
}

func (d LoginDTO) Validate() *errors.AppError {
	validator := validation.NewValidator()
	validator.Field("email", d.Email).Required().MaxLength(255)
	validator.Field("password", d.Password).Required()
	return validator.Validate()
}

func (d RefreshTokenDTO) Validate() *errors.AppError {
	validator := validation.NewValidator()
	validator.Field("refresh_token", d.RefreshToken).Required()
	return validator.Validate()
}
