package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadReadsRoleAllowLists(t *testing.T) {
	t.Setenv("ADMIN_EMAILS", "head@psgtech.ac.in, second@psgtech.ac.in")
	t.Setenv("EVENT_COORDINATOR_EMAILS", "coord@psgtech.ac.in")
	t.Setenv("EVENT_COORDINATOR_ASSIGNMENTS", "Coord@psgtech.ac.in:5;6")
	t.Setenv("STATS_CACHE_TTL", "90s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"head@psgtech.ac.in", "second@psgtech.ac.in"}, cfg.Roles.AdminEmails)
	assert.Equal(t, []string{"coord@psgtech.ac.in"}, cfg.Roles.EventCoordinatorEmails)
	assert.Equal(t, []int{5, 6}, cfg.Roles.EventAssignments["coord@psgtech.ac.in"])
	assert.Equal(t, 90*time.Second, cfg.Stats.CacheTTL)
	assert.Equal(t, "@psgtech.ac.in", cfg.Institution.EmailDomain)
	assert.Equal(t, StoreDriverPostgres, cfg.Store.Driver)
}

func TestParseAssignmentsSkipsGarbage(t *testing.T) {
	got := parseAssignments("a@x.in:1;two;3, nocolon, :4, b@x.in:")
	assert.Equal(t, []int{1, 3}, got["a@x.in"])
	assert.NotContains(t, got, "b@x.in")
	assert.Len(t, got, 1)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("soon", time.Minute))
	assert.Equal(t, 5*time.Second, parseDuration("5s", time.Minute))
}
