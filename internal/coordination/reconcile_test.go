package coordination

import (
	"testing"
	"time"
)

func threadWithWindows(t *testing.T, duration int, windows map[string][]TimeWindow) *MeetingThread {
	t.Helper()
	participants := make(map[string]*Participant, len(windows))
	for email, w := range windows {
		participants[email] = &Participant{
			Email:         email,
			HasResponded:  true,
			Status:        ParticipantResponded,
			ParsedWindows: w,
		}
	}
	thread := NewMeetingThread("thread-overlap", "a@example.com", participants, "America/New_York", "Sync", testNow)
	thread.DurationMinutes = duration
	return thread
}

func TestEarliestOverlap(t *testing.T) {
	t.Parallel()

	monday := time.Date(2026, time.February, 16, 0, 0, 0, 0, time.UTC)
	tuesday := time.Date(2026, time.February, 17, 0, 0, 0, 0, time.UTC)

	t.Run("picks the earliest common sub-window that fits", func(t *testing.T) {
		t.Parallel()
		thread := threadWithWindows(t, 30, map[string][]TimeWindow{
			"a@example.com": {{Day: monday, StartMinute: 14 * 60, EndMinute: 16 * 60}},
			"b@example.com": {{Day: monday, StartMinute: 14*60 + 30, EndMinute: 15*60 + 30}},
			"c@example.com": {{Day: monday, StartMinute: 13 * 60, EndMinute: 15 * 60}},
		})

		plan, err := EarliestOverlap(thread)
		if err != nil {
			t.Fatalf("EarliestOverlap returned error: %v", err)
		}
		if plan == nil {
			t.Fatalf("expected a plan")
		}

		loc, err := time.LoadLocation("America/New_York")
		if err != nil {
			t.Fatalf("failed to load location: %v", err)
		}
		wantStart := time.Date(2026, time.February, 16, 14, 30, 0, 0, loc)
		wantEnd := time.Date(2026, time.February, 16, 15, 0, 0, 0, loc)
		if !plan.Start.Equal(wantStart) {
			t.Fatalf("expected start %v, got %v", wantStart, plan.Start)
		}
		if !plan.End.Equal(wantEnd) {
			t.Fatalf("expected end %v, got %v", wantEnd, plan.End)
		}
		if plan.Rationale == "" {
			t.Fatalf("expected a rationale")
		}
	})

	t.Run("earlier day wins over earlier minute", func(t *testing.T) {
		t.Parallel()
		thread := threadWithWindows(t, 30, map[string][]TimeWindow{
			"a@example.com": {
				{Day: tuesday, StartMinute: 9 * 60, EndMinute: 10 * 60},
				{Day: monday, StartMinute: 15 * 60, EndMinute: 16 * 60},
			},
			"b@example.com": {
				{Day: tuesday, StartMinute: 9 * 60, EndMinute: 10 * 60},
				{Day: monday, StartMinute: 15 * 60, EndMinute: 16 * 60},
			},
		})

		plan, err := EarliestOverlap(thread)
		if err != nil {
			t.Fatalf("EarliestOverlap returned error: %v", err)
		}
		if plan == nil {
			t.Fatalf("expected a plan")
		}
		if got := plan.Start.Day(); got != 16 {
			t.Fatalf("expected the Monday slot, got day %d", got)
		}
	})

	t.Run("disjoint days yield no plan", func(t *testing.T) {
		t.Parallel()
		thread := threadWithWindows(t, 30, map[string][]TimeWindow{
			"a@example.com": {{Day: monday, StartMinute: 9 * 60, EndMinute: 10 * 60}},
			"b@example.com": {{Day: tuesday, StartMinute: 9 * 60, EndMinute: 10 * 60}},
		})

		plan, err := EarliestOverlap(thread)
		if err != nil {
			t.Fatalf("EarliestOverlap returned error: %v", err)
		}
		if plan != nil {
			t.Fatalf("expected no plan, got %+v", plan)
		}
	})

	t.Run("a responded participant with no windows yields no plan", func(t *testing.T) {
		t.Parallel()
		thread := threadWithWindows(t, 30, map[string][]TimeWindow{
			"a@example.com": {{Day: monday, StartMinute: 9 * 60, EndMinute: 10 * 60}},
			"b@example.com": {},
			"c@example.com": {{Day: monday, StartMinute: 9 * 60, EndMinute: 10 * 60}},
		})

		plan, err := EarliestOverlap(thread)
		if err != nil {
			t.Fatalf("EarliestOverlap returned error: %v", err)
		}
		if plan != nil {
			t.Fatalf("expected no plan, got %+v", plan)
		}
	})

	t.Run("an empty first window list yields no plan", func(t *testing.T) {
		t.Parallel()
		thread := threadWithWindows(t, 30, map[string][]TimeWindow{
			"a@example.com": nil,
			"b@example.com": {{Day: monday, StartMinute: 9 * 60, EndMinute: 10 * 60}},
		})

		plan, err := EarliestOverlap(thread)
		if err != nil {
			t.Fatalf("EarliestOverlap returned error: %v", err)
		}
		if plan != nil {
			t.Fatalf("expected no plan, got %+v", plan)
		}
	})

	t.Run("overlap shorter than the meeting duration is skipped", func(t *testing.T) {
		t.Parallel()
		thread := threadWithWindows(t, 30, map[string][]TimeWindow{
			"a@example.com": {{Day: monday, StartMinute: 9 * 60, EndMinute: 9*60 + 15}},
			"b@example.com": {{Day: monday, StartMinute: 9 * 60, EndMinute: 10 * 60}},
		})

		plan, err := EarliestOverlap(thread)
		if err != nil {
			t.Fatalf("EarliestOverlap returned error: %v", err)
		}
		if plan != nil {
			t.Fatalf("expected no plan, got %+v", plan)
		}
	})

	t.Run("invalid timezone reports an error", func(t *testing.T) {
		t.Parallel()
		thread := threadWithWindows(t, 30, map[string][]TimeWindow{
			"a@example.com": {{Day: monday, StartMinute: 9 * 60, EndMinute: 10 * 60}},
		})
		thread.Timezone = "Not/AZone"

		if _, err := EarliestOverlap(thread); err == nil {
			t.Fatalf("expected error for invalid timezone")
		}
	})
}
