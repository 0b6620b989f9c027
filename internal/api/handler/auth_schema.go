package handler

import (
	"github.com/atreo/portal/internal/core/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type signupRequest struct {
	Name            string `json:"name"             validate:"required,max=120"`
	Email           string `json:"email"            validate:"required,email"`
	Password        string `json:"password"         validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	Role            string `json:"role"             validate:"omitempty,oneof=admin user employee accountant"`
}

// sessionResponse is returned by every /auth endpoint. Token is the portal
// token the browser sends back as a bearer; the backend token never leaves
// the server.
type sessionResponse struct {
	Token     string          `json:"token,omitempty"`
	Session   *domain.Session `json:"session"`
	ActiveTab domain.Tab      `json:"active_tab,omitempty"`
	Error     string          `json:"error,omitempty"`
}
