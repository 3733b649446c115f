package domain

import "context"

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleService Role = "service"
)

type AdminLoginRequest struct {
	Password string `json:"password" validate:"required"`
}

type AdminLoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

type AuthUsecase interface {
	AdminLogin(ctx context.Context, req AdminLoginRequest) (AdminLoginResponse, error)
}
