// Package window resolves window selectors into concrete half-open date
// intervals. Resolution is a pure function of the selector and an explicit
// "now" so callers and tests control the clock.
package window

import (
	"fmt"
	"time"

	"github.com/lk479o000/twitter-crawler-app/internal/domain"
)

// DefaultRadiusDays is the symmetric window used by anchor-based batch
// queries when the caller does not override it.
const DefaultRadiusDays = 180

// Rolling durations for the recent-N selectors. Month, quarter, half-year
// and year use fixed day counts (30/90/182/365) rather than calendar
// arithmetic, so the same selector always yields the same span.
var recentDays = map[string]int{
	"last_day":       1,
	"last_week":      7,
	"last_month":     30,
	"last_quarter":   90,
	"last_half_year": 182,
	"last_year":      365,
}

// Resolve turns a selector into a validated interval. Exactly one selector
// kind must be set: explicit start/end, a calendar preset, a rolling recent
// span, or an anchor date with a radius in days.
func Resolve(sel domain.WindowSelector, now time.Time) (domain.DateInterval, error) {
	now = now.UTC()

	kinds := 0
	if sel.Start != nil || sel.End != nil {
		kinds++
	}
	if sel.Preset != "" {
		kinds++
	}
	if sel.Recent != "" {
		kinds++
	}
	if sel.Anchor != nil {
		kinds++
	}
	if kinds == 0 {
		return domain.DateInterval{}, fmt.Errorf("%w: no window selector given", domain.ErrInvalidSelector)
	}
	if kinds > 1 {
		return domain.DateInterval{}, fmt.Errorf("%w: multiple window selectors given", domain.ErrInvalidSelector)
	}

	switch {
	case sel.Start != nil || sel.End != nil:
		if sel.Start == nil || sel.End == nil {
			return domain.DateInterval{}, fmt.Errorf("%w: explicit window needs both start and end", domain.ErrInvalidSelector)
		}
		return domain.NewDateInterval(*sel.Start, *sel.End)

	case sel.Preset != "":
		start, err := presetStart(sel.Preset, now)
		if err != nil {
			return domain.DateInterval{}, err
		}
		return domain.NewDateInterval(start, now)

	case sel.Recent != "":
		days, ok := recentDays[sel.Recent]
		if !ok {
			return domain.DateInterval{}, fmt.Errorf("%w: unknown recent selector %q", domain.ErrInvalidSelector, sel.Recent)
		}
		return domain.NewDateInterval(now.AddDate(0, 0, -days), now)

	default:
		radius := sel.Radius
		if radius == 0 {
			radius = DefaultRadiusDays
		}
		if radius < 0 {
			return domain.DateInterval{}, fmt.Errorf("%w: negative radius %d", domain.ErrInvalidSelector, radius)
		}
		anchor := sel.Anchor.UTC()
		return domain.NewDateInterval(anchor.AddDate(0, 0, -radius), anchor.AddDate(0, 0, radius))
	}
}

// presetStart returns the calendar-aligned period start for now. ISO weeks
// start on Monday; quarters are Jan/Apr/Jul/Oct; half-years are Jan and Jul.
func presetStart(preset string, now time.Time) (time.Time, error) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch preset {
	case "today":
		return midnight, nil
	case "this_week":
		weekday := int(now.Weekday())
		if weekday == 0 { // Sunday
			weekday = 7
		}
		return midnight.AddDate(0, 0, -(weekday - 1)), nil
	case "this_month":
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	case "this_quarter":
		quarterStart := time.Month((int(now.Month())-1)/3*3 + 1)
		return time.Date(now.Year(), quarterStart, 1, 0, 0, 0, 0, time.UTC), nil
	case "this_half_year":
		if now.Month() <= time.June {
			return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC), nil
		}
		return time.Date(now.Year(), time.July, 1, 0, 0, 0, 0, time.UTC), nil
	case "this_year":
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("%w: unknown preset %q", domain.ErrInvalidSelector, preset)
}
