package coordination

import (
	"strings"
	"testing"
	"time"
)

func TestParseAvailability(t *testing.T) {
	t.Parallel()

	feb11 := time.Date(2026, time.February, 11, 0, 0, 0, 0, time.UTC)
	feb12 := time.Date(2026, time.February, 12, 0, 0, 0, 0, time.UTC)

	t.Run("parses multi-slot day-list lines", func(t *testing.T) {
		t.Parallel()
		result := ParseAvailability("Tue, 02/11: 1pm–3pm, 4:30pm–5pm", testNow)

		if result.NeedsClarification {
			t.Fatalf("unexpected clarification: %q", result.ClarificationQuestion)
		}
		want := []TimeWindow{
			{Day: feb11, StartMinute: 13 * 60, EndMinute: 15 * 60},
			{Day: feb11, StartMinute: 16*60 + 30, EndMinute: 17 * 60},
		}
		assertWindows(t, result.Windows, want)
	})

	t.Run("propagates a one-sided meridiem", func(t *testing.T) {
		t.Parallel()
		result := ParseAvailability("Wed, 02/12: 9–11am", testNow)

		want := []TimeWindow{{Day: feb12, StartMinute: 9 * 60, EndMinute: 11 * 60}}
		assertWindows(t, result.Windows, want)
	})

	t.Run("accepts a line without a weekday name", func(t *testing.T) {
		t.Parallel()
		result := ParseAvailability("02/12: 4-5pm", testNow)

		want := []TimeWindow{{Day: feb12, StartMinute: 16 * 60, EndMinute: 17 * 60}}
		assertWindows(t, result.Windows, want)
	})

	t.Run("ambiguous slot produces a clarification quoting the input", func(t *testing.T) {
		t.Parallel()
		result := ParseAvailability("Tue, 02/11: 1–3", testNow)

		if len(result.Windows) != 0 {
			t.Fatalf("expected no windows, got %v", result.Windows)
		}
		if !result.NeedsClarification {
			t.Fatalf("expected clarification")
		}
		if !strings.Contains(result.ClarificationQuestion, "1–3 on 02/11") {
			t.Fatalf("expected question to quote the ambiguous slot, got %q", result.ClarificationQuestion)
		}
		if !strings.Contains(result.ClarificationQuestion, "AM or PM") {
			t.Fatalf("expected question to ask about AM/PM, got %q", result.ClarificationQuestion)
		}
	})

	t.Run("unambiguous lines still parse alongside an ambiguous one", func(t *testing.T) {
		t.Parallel()
		result := ParseAvailability("Wed, 02/12: 9–11am\nTue, 02/11: 1–3", testNow)

		if !result.NeedsClarification {
			t.Fatalf("expected clarification")
		}
		want := []TimeWindow{{Day: feb12, StartMinute: 9 * 60, EndMinute: 11 * 60}}
		assertWindows(t, result.Windows, want)
	})

	t.Run("passed MM/DD rolls to next year", func(t *testing.T) {
		t.Parallel()
		december := time.Date(2026, time.December, 20, 10, 0, 0, 0, time.UTC)
		result := ParseAvailability("01/05: 9–11am", december)

		want := []TimeWindow{{
			Day:         time.Date(2027, time.January, 5, 0, 0, 0, 0, time.UTC),
			StartMinute: 9 * 60,
			EndMinute:   11 * 60,
		}}
		assertWindows(t, result.Windows, want)
	})

	t.Run("invalid calendar dates and prose lines are ignored", func(t *testing.T) {
		t.Parallel()
		result := ParseAvailability("Hi! Here is my availability:\n02/30: 9–11am\n13/01: 9–11am", testNow)

		if len(result.Windows) != 0 || result.NeedsClarification {
			t.Fatalf("expected empty result, got %+v", result)
		}
	})

	t.Run("parsing is idempotent", func(t *testing.T) {
		t.Parallel()
		text := "Tue, 02/11: 1pm–3pm"
		first := ParseAvailability(text, testNow)
		second := ParseAvailability(text, testNow)
		assertWindows(t, second.Windows, first.Windows)
	})
}

func assertWindows(t *testing.T, got, want []TimeWindow) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d windows, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if !got[i].Day.Equal(want[i].Day) || got[i].StartMinute != want[i].StartMinute || got[i].EndMinute != want[i].EndMinute {
			t.Fatalf("window %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}
