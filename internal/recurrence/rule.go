package recurrence

import (
	"errors"
	"fmt"
	"time"
)

// Rule describes one weekly recurring attendance check: a weekday and a
// wall-clock time interpreted in the configured zone, plus the title
// stamped onto materialized occurrences.
type Rule struct {
	Weekday time.Weekday
	Hour    int
	Minute  int
	Title   string
}

var (
	ErrNoRules       = errors.New("no_recurrence_rules")
	ErrDuplicateRule = errors.New("duplicate_recurrence_rule")
	ErrInvalidRule   = errors.New("invalid_recurrence_rule")
)

// Validate checks a single rule's fields.
func (r Rule) Validate() error {
	if r.Hour < 0 || r.Hour > 23 || r.Minute < 0 || r.Minute > 59 {
		return fmt.Errorf("%w: time %02d:%02d out of range", ErrInvalidRule, r.Hour, r.Minute)
	}
	if r.Weekday < time.Sunday || r.Weekday > time.Saturday {
		return fmt.Errorf("%w: weekday %d out of range", ErrInvalidRule, r.Weekday)
	}
	if r.Title == "" {
		return fmt.Errorf("%w: empty title", ErrInvalidRule)
	}
	return nil
}

func (r Rule) String() string {
	return fmt.Sprintf("%s %02d:%02d %q", r.Weekday, r.Hour, r.Minute, r.Title)
}

// ValidateRules rejects an empty rule set and any two rules sharing the
// same weekday and local time, which would make the occurrence they
// materialize ambiguous.
func ValidateRules(rules []Rule) error {
	if len(rules) == 0 {
		return ErrNoRules
	}
	type slot struct {
		wd     time.Weekday
		hour   int
		minute int
	}
	seen := make(map[slot]struct{}, len(rules))
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return err
		}
		k := slot{r.Weekday, r.Hour, r.Minute}
		if _, dup := seen[k]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateRule, r)
		}
		seen[k] = struct{}{}
	}
	return nil
}
