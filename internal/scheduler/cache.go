package scheduler

import (
	"fmt"
	"sync"

	"github.com/elrc-run/attendly/internal/recurrence"
)

// creationCache remembers, per rule, the local calendar date of the
// occurrence last provisioned. It only suppresses redundant existence
// checks within a single process; the unique index on scheduled_time
// remains the authority on duplicates, so losing this state on restart
// is harmless.
type creationCache struct {
	mu   sync.Mutex
	last map[string]string
}

func newCreationCache() *creationCache {
	return &creationCache{last: make(map[string]string)}
}

func ruleKey(r recurrence.Rule) string {
	return fmt.Sprintf("%d-%02d:%02d", r.Weekday, r.Hour, r.Minute)
}

// Seen reports whether the rule's slot on the given local date has
// already been provisioned.
func (c *creationCache) Seen(r recurrence.Rule, date string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last[ruleKey(r)] == date
}

// Mark records a completed provisioning attempt for the rule's slot on
// the given local date. Failed attempts are never marked, so the next
// tick retries.
func (c *creationCache) Mark(r recurrence.Rule, date string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last[ruleKey(r)] = date
}

// Reset clears all remembered dates.
func (c *creationCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = make(map[string]string)
}
