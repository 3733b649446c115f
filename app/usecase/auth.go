package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"thrift-stock-service/app/domain"
	"thrift-stock-service/config"
	"thrift-stock-service/pkg"
	"thrift-stock-service/pkg/clock"
	"thrift-stock-service/pkg/password"
)

type authUsecase struct {
	cfg   *config.Config
	clock clock.Clock
}

func NewAuthUsecase(cfg *config.Config, clk clock.Clock) domain.AuthUsecase {
	return &authUsecase{cfg, clk}
}

func (u *authUsecase) AdminLogin(ctx context.Context, req domain.AdminLoginRequest) (domain.AdminLoginResponse, error) {
	if u.cfg.Admin.PasswordHash == "" {
		slog.ErrorContext(ctx, "[authUsecase] AdminLogin", "passwordHash", "not configured")
		return domain.AdminLoginResponse{}, domain.ErrUnauthorized
	}

	if err := password.Compare(u.cfg.Admin.PasswordHash, req.Password); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			slog.WarnContext(ctx, "[authUsecase] AdminLogin", "compare", err)
		} else {
			slog.ErrorContext(ctx, "[authUsecase] AdminLogin", "compare", err)
		}
		return domain.AdminLoginResponse{}, domain.ErrUnauthorized
	}

	token, expiresAt, err := pkg.SignJwtToken(u.cfg.Jwt.SecretKey, "admin", string(domain.RoleAdmin),
		u.clock.Now(), time.Duration(u.cfg.Jwt.Expire)*time.Second)
	if err != nil {
		slog.ErrorContext(ctx, "[authUsecase] AdminLogin", "signJwtToken", err)
		return domain.AdminLoginResponse{}, err
	}

	slog.InfoContext(ctx, "[authUsecase] AdminLogin", "expiresAt", expiresAt)
	return domain.AdminLoginResponse{Token: token, ExpiresAt: expiresAt.Unix()}, nil
}
