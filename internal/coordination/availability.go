package coordination

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// dayListLineRE matches structured availability lines such as
// "Tue, 02/11: 1pm–3pm, 4:30pm–5pm" or "02/12: 9–11am".
var dayListLineRE = regexp.MustCompile(`^\s*(?:([A-Za-z]{3,9})\s*,\s*)?(\d{1,2})/(\d{1,2})\s*:\s*(.+?)\s*$`)

var slotSplitRE = regexp.MustCompile(`\s*,\s*`)

// ParseAvailability scans text for structured day-list availability lines and
// converts them to windows. Non-conforming lines are ignored; slots whose
// AM/PM cannot be resolved are skipped and reported through a clarification
// question quoting the first ambiguous example verbatim. Windows parsed from
// other lines are still returned alongside the clarification.
//
// now supplies the reference instant for MM/DD year inference; it must
// already be located in the thread's timezone.
func ParseAvailability(text string, now time.Time) ParseResult {
	var windows []TimeWindow
	var ambiguous []string

	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}

		m := dayListLineRE.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		month, _ := strconv.Atoi(m[2])
		dayOfMonth, _ := strconv.Atoi(m[3])
		if month < 1 || month > 12 || dayOfMonth < 1 || dayOfMonth > 31 {
			continue
		}
		year := inferYear(month, dayOfMonth, now)
		day := time.Date(year, time.Month(month), dayOfMonth, 0, 0, 0, 0, time.UTC)
		if day.Day() != dayOfMonth {
			continue // e.g. 02/30 normalised away by time.Date
		}

		slots := slotSplitRE.Split(normalizeDashes(m[4]), -1)
		for _, slot := range slots {
			startTok, endTok, ok := splitTimeRange(slot)
			if !ok {
				continue
			}

			start, ok := parseTimeToken(startTok)
			if !ok {
				continue
			}
			end, ok := parseTimeToken(endTok)
			if !ok {
				continue
			}

			start, end, ok = coerceMeridiem(start, end)
			if !ok {
				ambiguous = append(ambiguous, fmt.Sprintf("%s–%s on %02d/%02d", startTok, endTok, month, dayOfMonth))
				continue
			}

			w := TimeWindow{Day: day, StartMinute: toMinutes(start), EndMinute: toMinutes(end)}
			if w.Valid() {
				windows = append(windows, w)
			}
		}
	}

	if len(ambiguous) > 0 {
		return ParseResult{
			Windows:            windows,
			NeedsClarification: true,
			ClarificationQuestion: fmt.Sprintf(
				"I can't confidently interpret `%s`. Did you mean AM or PM (e.g., `1pm–3pm`)?", ambiguous[0]),
		}
	}
	return ParseResult{Windows: windows}
}
