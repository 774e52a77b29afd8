package config

import (
	"testing"
	"time"

	"github.com/elrc-run/attendly/internal/recurrence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRulesFallsBackToDefaults(t *testing.T) {
	// No rules.yml in the test working directory.
	rules, err := LoadRules()
	require.NoError(t, err)
	assert.Equal(t, DefaultRules(), rules)
}

func TestDefaultRulesAreValid(t *testing.T) {
	rules := DefaultRules()
	require.NoError(t, recurrence.ValidateRules(rules))
	require.Len(t, rules, 2)

	assert.Equal(t, time.Wednesday, rules[0].Weekday)
	assert.Equal(t, 20, rules[0].Hour)
	assert.Equal(t, 30, rules[0].Minute)
	assert.Equal(t, time.Saturday, rules[1].Weekday)
	assert.Equal(t, 8, rules[1].Hour)
	assert.Equal(t, 0, rules[1].Minute)
}

func TestParseRuleEntry(t *testing.T) {
	rule, err := parseRuleEntry(ruleEntry{Weekday: "wed", Time: "20:30", Title: "수요일 저녁 출석체크"})
	require.NoError(t, err)
	assert.Equal(t, time.Wednesday, rule.Weekday)
	assert.Equal(t, 20, rule.Hour)
	assert.Equal(t, 30, rule.Minute)

	_, err = parseRuleEntry(ruleEntry{Weekday: "someday", Time: "20:30", Title: "x"})
	assert.ErrorIs(t, err, recurrence.ErrInvalidRule)

	_, err = parseRuleEntry(ruleEntry{Weekday: "wed", Time: "25:00", Title: "x"})
	assert.ErrorIs(t, err, recurrence.ErrInvalidRule)

	_, err = parseRuleEntry(ruleEntry{Weekday: "wed", Time: "2030", Title: "x"})
	assert.ErrorIs(t, err, recurrence.ErrInvalidRule)
}
