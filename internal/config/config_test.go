package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 15*time.Minute, cfg.SLA.SOSResponseBudget)
	assert.Equal(t, 60*time.Minute, cfg.SLA.SOSResolutionBudget)
	assert.Equal(t, 7*24*time.Hour, cfg.SLA.VerificationVisitBudget)
	assert.Equal(t, 30*24*time.Hour, cfg.SLA.RoutineVisitBudget)
	assert.Equal(t, "*/5 * * * *", cfg.Scheduler.SLASweepSpec)
	assert.Equal(t, "0 0 * * *", cfg.Scheduler.DailySummarySpec)
	assert.Equal(t, 30*time.Second, cfg.Scope.RoleConfigTTL)
	assert.Equal(t, "officer-events", cfg.Kafka.Topics.OfficerEvents)
}

func TestValidateRejectsInvertedBudgets(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	cfg.SLA.SOSResponseBudget = 2 * time.Hour
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsMissingBrokers(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	cfg.Kafka.Brokers = nil
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	cfg.Server.HTTPPort = 0
	assert.Error(t, cfg.Validate())
}
