package domain

import "context"

type RequestMeta struct {
	IP        string
	UserAgent string
}

type SessionValidation struct {
	IsValid     bool   `json:"is_valid"`
	IPAddress   string `json:"ip_address"`
	Fingerprint string `json:"fingerprint"`
}

// SessionValidator checks the shape of a shopper session token and binds it to
// the caller's IP and fingerprint. It proves ownership of a hold, not identity.
type SessionValidator interface {
	ValidateSession(ctx context.Context, sessionID string, meta RequestMeta) SessionValidation
	CheckRateLimit(ctx context.Context, sessionID, ip string) RateLimitResult
}
