package auth

import "github.com/frahmantamala/teacher-contracts/internal/core/common/validation"

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func (d LoginDTO) Validate() error {
	return validation.Struct(d)
}

func (d RefreshTokenDTO) Validate() error {
	return validation.Struct(d)
}
