package ctxutil

import (
	"context"
	"thrift-stock-service/app/domain"
)

type ctxKey string

const (
	RequestIDKey   ctxKey = "request_id"
	RequestMetaKey ctxKey = "request_meta"
	RoleKey        ctxKey = "role"
)

func WithRequestID(ctx context.Context, reqID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, reqID)
}

func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(RequestIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

func WithRequestMeta(ctx context.Context, meta domain.RequestMeta) context.Context {
	return context.WithValue(ctx, RequestMetaKey, meta)
}

// GetRequestMeta returns the zero value when the request went through no
// middleware (background jobs, tests).
func GetRequestMeta(ctx context.Context) domain.RequestMeta {
	if v := ctx.Value(RequestMetaKey); v != nil {
		if meta, ok := v.(domain.RequestMeta); ok {
			return meta
		}
	}
	return domain.RequestMeta{}
}

func GetRole(ctx context.Context) (domain.Role, error) {
	if v := ctx.Value(RoleKey); v != nil {
		if role, ok := v.(domain.Role); ok {
			return role, nil
		}
	}
	return "", domain.ErrUnauthorized
}
