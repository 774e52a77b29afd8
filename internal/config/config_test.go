package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadSchedulerEnabledDefaultsOn(t *testing.T) {
	t.Setenv("SCHEDULER_ENABLED", "")
	assert.True(t, Load().SchedulerEnabled)
}

func TestLoadSchedulerEnabledFlag(t *testing.T) {
	t.Setenv("SCHEDULER_ENABLED", "false")
	assert.False(t, Load().SchedulerEnabled)

	t.Setenv("SCHEDULER_ENABLED", "true")
	assert.True(t, Load().SchedulerEnabled)

	// Unparseable values fall back to the default.
	t.Setenv("SCHEDULER_ENABLED", "sometimes")
	assert.True(t, Load().SchedulerEnabled)
}
