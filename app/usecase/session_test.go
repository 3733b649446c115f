package usecase_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"thrift-stock-service/app/domain"
	"thrift-stock-service/app/usecase"

	"github.com/stretchr/testify/assert"
)

func TestValidateSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	meta := domain.RequestMeta{IP: "10.0.0.1", UserAgent: "Mozilla/5.0"}

	cases := []struct {
		name  string
		id    string
		valid bool
	}{
		{"typical token", "sess_1f3a9c2b", true},
		{"minimum length", strings.Repeat("a", 8), true},
		{"maximum length", strings.Repeat("a", 128), true},
		{"too short", "abc", false},
		{"too long", strings.Repeat("a", 129), false},
		{"illegal characters", "session id!", false},
		{"empty", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := f.sessions.ValidateSession(ctx, tc.id, meta)
			assert.Equal(t, tc.valid, res.IsValid)
			assert.Equal(t, meta.IP, res.IPAddress)
		})
	}

	t.Run("changed binding is still valid", func(t *testing.T) {
		first := f.sessions.ValidateSession(ctx, sessionA, meta)
		second := f.sessions.ValidateSession(ctx, sessionA, domain.RequestMeta{IP: "10.0.0.2", UserAgent: "Mozilla/5.0"})
		assert.True(t, second.IsValid)
		assert.NotEqual(t, first.Fingerprint, second.Fingerprint)
	})
}

func TestFingerprint(t *testing.T) {
	fp := usecase.Fingerprint("10.0.0.1", "Mozilla/5.0")
	assert.Len(t, fp, 32)
	assert.Equal(t, fp, usecase.Fingerprint("10.0.0.1", "Mozilla/5.0"))
	assert.NotEqual(t, fp, usecase.Fingerprint("10.0.0.1", "curl/8.0"))
}

func TestSessionSweep(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	meta := domain.RequestMeta{IP: "10.0.0.1"}

	f.sessions.ValidateSession(ctx, sessionA, meta)
	f.clock.Add(f.cfg.Session.BindingTTL - time.Hour)
	f.sessions.ValidateSession(ctx, sessionB, meta)
	f.clock.Add(2 * time.Hour)

	removed, err := f.sessions.Sweep(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestSessionCheckRateLimit(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	for i := int64(0); i < f.cfg.RateLimit.RollbackMax; i++ {
		assert.True(t, f.sessions.CheckRateLimit(ctx, sessionA, "10.0.0.1").Allowed)
	}
	assert.False(t, f.sessions.CheckRateLimit(ctx, sessionA, "10.0.0.1").Allowed)
	assert.True(t, f.sessions.CheckRateLimit(ctx, sessionA, "10.0.0.9").Allowed)
}
