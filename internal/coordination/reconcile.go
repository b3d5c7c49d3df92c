package coordination

import (
	"fmt"
	"sort"
	"time"
)

// intersectWindows computes the pairwise intersection of two window lists:
// for every same-day pair, [max(start), min(end)] when that interval is
// non-empty.
func intersectWindows(a, b []TimeWindow) []TimeWindow {
	byDayA := make(map[time.Time][]TimeWindow)
	for _, w := range a {
		byDayA[w.Day] = append(byDayA[w.Day], w)
	}

	var out []TimeWindow
	for _, wb := range b {
		for _, wa := range byDayA[wb.Day] {
			start := max(wa.StartMinute, wb.StartMinute)
			end := min(wa.EndMinute, wb.EndMinute)
			if start < end {
				out = append(out, TimeWindow{Day: wb.Day, StartMinute: start, EndMinute: end})
			}
		}
	}
	return out
}

// EarliestOverlap intersects every participant's windows progressively and
// returns the earliest sub-window that fits the thread's meeting duration,
// or nil when no common slot exists. Participants are visited in sorted
// email order so the result is deterministic for a given snapshot.
func EarliestOverlap(thread *MeetingThread) (*SchedulePlan, error) {
	loc, err := thread.Location()
	if err != nil {
		return nil, fmt.Errorf("coordination: invalid thread timezone %q: %w", thread.Timezone, err)
	}

	emails := thread.ParticipantEmails()
	if len(emails) == 0 {
		return nil, nil
	}

	current := append([]TimeWindow(nil), thread.Participants[emails[0]].ParsedWindows...)
	for _, email := range emails[1:] {
		current = intersectWindows(current, thread.Participants[email].ParsedWindows)
		if len(current) == 0 {
			return nil, nil
		}
	}

	sort.Slice(current, func(i, j int) bool {
		if !current[i].Day.Equal(current[j].Day) {
			return current[i].Day.Before(current[j].Day)
		}
		return current[i].StartMinute < current[j].StartMinute
	})

	duration := thread.DurationMinutes
	if duration <= 0 {
		duration = DefaultDurationMinutes
	}

	for _, w := range current {
		if w.Duration() < duration {
			continue
		}
		start := minuteOfDay(w.Day, w.StartMinute, loc)
		end := minuteOfDay(w.Day, w.StartMinute+duration, loc)
		rationale := fmt.Sprintf("Earliest overlap across %d participants on %s.", len(emails), w.Day.Format("2006-01-02"))
		return &SchedulePlan{Start: start, End: end, Rationale: rationale}, nil
	}

	return nil, nil
}

// minuteOfDay combines a calendar date with minutes since midnight in the
// given location.
func minuteOfDay(day time.Time, minutes int, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), minutes/60, minutes%60, 0, 0, loc)
}
