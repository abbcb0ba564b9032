package authinfra_test

import (
	"context"
	"testing"
	"time"

	"github.com/fieldops360/auth-service/pkg/iam/auth/authinfra"
	"github.com/fieldops360/auth-service/pkg/logx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptPasswordService(t *testing.T) {
	svc := authinfra.NewBcryptPasswordService(bcrypt.MinCost)

	hash, err := svc.Hash("Manager@2026")
	require.NoError(t, err)
	assert.NotEqual(t, "Manager@2026", hash)

	assert.True(t, svc.Compare(hash, "Manager@2026"))
	assert.False(t, svc.Compare(hash, "manager@2026"))
	assert.False(t, svc.Compare("", "Manager@2026"))
	svc.CompareDummy("anything")
}

func TestBcryptPasswordService_InvalidCostFallsBack(t *testing.T) {
	svc := authinfra.NewBcryptPasswordService(2)
	hash, err := svc.Hash("x")
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func TestLogxAuditService_EmitsStructuredEvents(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	previous := logx.GetDefaultLogger()
	logx.SetDefaultLogger(logx.NewWithCore(core))
	t.Cleanup(func() { logx.SetDefaultLogger(previous) })

	svc := authinfra.NewLogxAuditService()
	ctx := logx.ContextWithRequestID(context.Background(), "req-9")
	svc.LogLoginAttempt(ctx, "t-demo", "manager@demo.com", "u-1", "invalid_credentials", "10.0.0.1", "curl")
	svc.LogAccountLocked(ctx, "t-demo", "u-1", time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC), "10.0.0.1")

	require.Equal(t, 2, logs.Len())
	first := logs.All()[0]
	assert.Equal(t, zap.WarnLevel, first.Level)
	assert.Equal(t, "login_attempt", first.ContextMap()["audit_event"])
	assert.Equal(t, "req-9", first.ContextMap()["request_id"])
	assert.Equal(t, "2026-01-01T12:00:00Z", logs.All()[1].ContextMap()["locked_until"])
}
