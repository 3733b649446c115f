package usecase

import (
	"context"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"

	"thrift-stock-service/app/domain"
	"thrift-stock-service/pkg/clock"
	"thrift-stock-service/pkg/validation"

	"github.com/zeebo/blake3"
)

type sessionBinding struct {
	ip          string
	fingerprint string
	lastSeen    time.Time
}

// SessionValidator binds each session token to the IP and fingerprint it was
// last seen with. A changed binding is logged, not rejected: shoppers switch
// networks mid-cart.
type SessionValidator struct {
	limiter domain.RateLimiter
	profile domain.RateLimitConfig
	ttl     time.Duration
	clock   clock.Clock

	mu       sync.Mutex
	bindings map[string]sessionBinding
}

func NewSessionValidator(limiter domain.RateLimiter, profile domain.RateLimitConfig, ttl time.Duration, clk clock.Clock) *SessionValidator {
	return &SessionValidator{
		limiter:  limiter,
		profile:  profile,
		ttl:      ttl,
		clock:    clk,
		bindings: make(map[string]sessionBinding),
	}
}

// Fingerprint is the hex BLAKE3 digest (16 bytes) of the caller's IP and user agent.
func Fingerprint(ip, userAgent string) string {
	sum := blake3.Sum256([]byte(ip + "\x00" + userAgent))
	return hex.EncodeToString(sum[:16])
}

func (v *SessionValidator) ValidateSession(ctx context.Context, sessionID string, meta domain.RequestMeta) domain.SessionValidation {
	result := domain.SessionValidation{
		IsValid:     validation.ValidSessionID(sessionID),
		IPAddress:   meta.IP,
		Fingerprint: Fingerprint(meta.IP, meta.UserAgent),
	}

	slog.InfoContext(ctx, "[SessionValidator] ValidateSession",
		"sessionId", maskSessionID(sessionID),
		"ip", meta.IP,
		"valid", result.IsValid)

	if !result.IsValid {
		return result
	}

	now := v.clock.Now()
	v.mu.Lock()
	prev, seen := v.bindings[sessionID]
	v.bindings[sessionID] = sessionBinding{ip: meta.IP, fingerprint: result.Fingerprint, lastSeen: now}
	v.mu.Unlock()

	if seen && (prev.ip != meta.IP || prev.fingerprint != result.Fingerprint) {
		slog.WarnContext(ctx, "[SessionValidator] ValidateSession", "bindingChanged", maskSessionID(sessionID),
			"previousIp", prev.ip,
			"ip", meta.IP,
			"fingerprintChanged", prev.fingerprint != result.Fingerprint)
	}
	return result
}

func (v *SessionValidator) CheckRateLimit(ctx context.Context, sessionID, ip string) domain.RateLimitResult {
	return v.limiter.CheckRateLimit(ctx, "session:"+sessionID+":"+ip, v.profile)
}

// Sweep forgets bindings idle for longer than the binding TTL.
func (v *SessionValidator) Sweep(ctx context.Context) (int, error) {
	cutoff := v.clock.Now().Add(-v.ttl)

	v.mu.Lock()
	defer v.mu.Unlock()
	removed := 0
	for id, b := range v.bindings {
		if b.lastSeen.Before(cutoff) {
			delete(v.bindings, id)
			removed++
		}
	}
	return removed, nil
}

func maskSessionID(id string) string {
	if len(id) <= 8 {
		return "****"
	}
	return id[:4] + "****" + id[len(id)-4:]
}
