package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPolicyDefaultsFollowEnv(t *testing.T) {
	t.Setenv("FREE_MONTHLY_QUOTA", "25")
	t.Setenv("WORKER_MAX_ATTEMPTS", "7")
	t.Setenv("WORKER_BACKOFF", "fixed")
	t.Setenv("WORKER_BACKOFF_BASE", "2s")

	cfg := Load()
	d := cfg.policyDefaults()
	require.Equal(t, 25, d.Quota.FreeMonthlyLimit)
	require.Equal(t, 7, d.Retry.MaxAttempts)
	require.Equal(t, "fixed", d.Retry.Policy)
	require.Equal(t, 2*time.Second, d.Retry.BaseDelay)

	// The holder serves the env-derived values when no policy file
	// overrides them.
	holder, err := NewPolicyHolder(cfg, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, 25, holder.Get().Quota.FreeMonthlyLimit)
	require.Equal(t, 7, holder.Get().Retry.MaxAttempts)
	require.Equal(t, "fixed", holder.Get().Retry.Policy)
}

func TestPolicyDefaultsIgnoreUnsetKnobs(t *testing.T) {
	d := Config{}.policyDefaults()
	require.Equal(t, DefaultPolicyConfig(), d)
}

func TestPolicyHolderRejectsInvalidBackoff(t *testing.T) {
	cfg := Config{WorkerBackoff: "quadratic"}
	_, err := NewPolicyHolder(cfg, zap.NewNop())
	require.Error(t, err)
}
