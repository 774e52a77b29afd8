package recurrence

import "time"

// Slot is one computed occurrence instant together with the title of
// the rule that produced it.
type Slot struct {
	At    time.Time
	Title string
}

// Next returns the earliest strictly-future instant matching the rule's
// weekday and wall-clock time in loc. An instant exactly equal to now is
// treated as already past and advances a full week, so a tick firing at
// the very second of an occurrence never re-selects it.
func Next(now time.Time, r Rule, loc *time.Location) time.Time {
	local := now.In(loc)
	daysAhead := (int(r.Weekday) - int(local.Weekday()) + 7) % 7
	candidate := time.Date(local.Year(), local.Month(), local.Day()+daysAhead, r.Hour, r.Minute, 0, 0, loc)
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 7)
	}
	return candidate
}

// NextDue returns the rule with the soonest future instant across the
// set, or ok=false for an empty set. When two rules compute the same
// instant the first-declared rule wins; rule order is stable
// configuration, so the choice is deterministic.
func NextDue(now time.Time, rules []Rule, loc *time.Location) (Rule, time.Time, bool) {
	var (
		best   Rule
		bestAt time.Time
		found  bool
	)
	for _, r := range rules {
		at := Next(now, r, loc)
		if !found || at.Before(bestAt) {
			best, bestAt, found = r, at, true
		}
	}
	return best, bestAt, found
}

// InRange expands every rule over the inclusive calendar-date range
// [start, end], both interpreted in loc. For each rule the produced
// slots ascend by date; order across rules follows declaration order.
func InRange(rules []Rule, start, end time.Time, loc *time.Location) []Slot {
	first := dateOf(start, loc)
	last := dateOf(end, loc)

	var out []Slot
	for _, r := range rules {
		d := first
		for !d.After(last) {
			if d.Weekday() == r.Weekday {
				out = append(out, Slot{
					At:    time.Date(d.Year(), d.Month(), d.Day(), r.Hour, r.Minute, 0, 0, loc),
					Title: r.Title,
				})
				d = d.AddDate(0, 0, 7)
				continue
			}
			d = d.AddDate(0, 0, 1)
		}
	}
	return out
}

// NextSunday returns the first date on or after t (in loc) whose weekday
// is Sunday. A Sunday t returns t's own date.
func NextSunday(t time.Time, loc *time.Location) time.Time {
	d := dateOf(t, loc)
	for d.Weekday() != time.Sunday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

func dateOf(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
