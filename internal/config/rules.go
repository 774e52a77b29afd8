package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/elrc-run/attendly/internal/recurrence"
	"github.com/spf13/viper"
)

// ruleEntry is the on-disk shape of one recurrence rule in rules.yml.
type ruleEntry struct {
	Weekday string `mapstructure:"weekday"`
	Time    string `mapstructure:"time"`
	Title   string `mapstructure:"title"`
}

// DefaultRules returns the built-in weekly attendance checks used when
// no rules.yml is present.
func DefaultRules() []recurrence.Rule {
	return []recurrence.Rule{
		{Weekday: time.Wednesday, Hour: 20, Minute: 30, Title: "수요일 저녁 출석체크"},
		{Weekday: time.Saturday, Hour: 8, Minute: 0, Title: "토요일 오전 출석체크"},
	}
}

// LoadRules reads the recurrence rule set from an optional rules.yml.
// The set is loaded exactly once at startup and is immutable afterwards;
// declaration order is preserved because it breaks ties between rules
// that compute the same next instant.
func LoadRules() ([]recurrence.Rule, error) {
	v := viper.New()

	v.SetConfigName("rules")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/attendly")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ATTENDLY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		rules := DefaultRules()
		if err := recurrence.ValidateRules(rules); err != nil {
			return nil, err
		}
		return rules, nil
	}

	var entries []ruleEntry
	if err := v.UnmarshalKey("rules", &entries); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, recurrence.ErrNoRules
	}

	rules := make([]recurrence.Rule, 0, len(entries))
	for _, e := range entries {
		rule, err := parseRuleEntry(e)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	if err := recurrence.ValidateRules(rules); err != nil {
		return nil, err
	}
	return rules, nil
}

func parseRuleEntry(e ruleEntry) (recurrence.Rule, error) {
	wd, err := parseWeekday(e.Weekday)
	if err != nil {
		return recurrence.Rule{}, err
	}
	hour, minute, err := parseClock(e.Time)
	if err != nil {
		return recurrence.Rule{}, err
	}
	return recurrence.Rule{
		Weekday: wd,
		Hour:    hour,
		Minute:  minute,
		Title:   strings.TrimSpace(e.Title),
	}, nil
}

func parseWeekday(raw string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "sunday", "sun":
		return time.Sunday, nil
	case "monday", "mon":
		return time.Monday, nil
	case "tuesday", "tue":
		return time.Tuesday, nil
	case "wednesday", "wed":
		return time.Wednesday, nil
	case "thursday", "thu":
		return time.Thursday, nil
	case "friday", "fri":
		return time.Friday, nil
	case "saturday", "sat":
		return time.Saturday, nil
	default:
		return 0, fmt.Errorf("%w: unknown weekday %q", recurrence.ErrInvalidRule, raw)
	}
}

func parseClock(raw string) (int, int, error) {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: time %q must be HH:MM", recurrence.ErrInvalidRule, raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: time %q must be HH:MM", recurrence.ErrInvalidRule, raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: time %q must be HH:MM", recurrence.ErrInvalidRule, raw)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: time %q out of range", recurrence.ErrInvalidRule, raw)
	}
	return hour, minute, nil
}
