package coordination

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const weekdayPattern = `(mon(?:day)?|tue(?:s|sday)?|wed(?:nesday)?|thu(?:r|rs|rsday)?|fri(?:day)?|sat(?:urday)?|sun(?:day)?)`

var (
	weekdayRangeRE = regexp.MustCompile(`(?i)\b` + weekdayPattern + `\s*-\s*` + weekdayPattern + `\b`)
	weekdayListRE  = regexp.MustCompile(`(?i)\b` + weekdayPattern + `(?:\s*/\s*` + weekdayPattern + `)+\b`)
	weekdayWordRE  = regexp.MustCompile(`(?i)\b` + weekdayPattern + `\b`)
	listSplitRE    = regexp.MustCompile(`\s*/\s*`)

	dayTimeLineRE = regexp.MustCompile(`^\s*([A-Za-z]{3,9})\b\s*[:,-]?\s*(.+?)\s*$`)

	betweenRE = regexp.MustCompile(`(?i)\bbetween\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\s+and\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)
	afterRE   = regexp.MustCompile(`(?i)\bafter\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)
	beforeRE  = regexp.MustCompile(`(?i)\bbefore\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)

	morningRE   = regexp.MustCompile(`(?i)\bmornings?\b`)
	afternoonRE = regexp.MustCompile(`(?i)\bafternoons?\b`)
	eveningRE   = regexp.MustCompile(`(?i)\bevenings?\b`)

	todayRE    = regexp.MustCompile(`(?i)\btoday\b`)
	tomorrowRE = regexp.MustCompile(`(?i)\btomorrow\b`)
)

// partOfDayBounds returns the default minute bounds for a part-of-day keyword.
// The empty string means "anytime" (working hours).
func partOfDayBounds(part string) (int, int) {
	switch part {
	case "morning":
		return 9 * 60, 12 * 60
	case "afternoon":
		return 12 * 60, 17 * 60
	case "evening":
		return 17 * 60, 21 * 60
	}
	return 9 * 60, 17 * 60
}

// ParseConstraints interprets unstructured availability text: weekday ranges
// and lists, relative-day mentions, part-of-day keywords and explicit bound
// phrases. It returns extracted windows, or a clarification question when the
// text is recognisably a constraint but too ambiguous to commit (for example
// "between 1 and 3" without AM/PM).
//
// Day resolution rule: a plain weekday reference means its nearest future
// occurrence within the current 7-day window; "next week" always anchors to
// the following Monday-based week.
func ParseConstraints(text string, now time.Time) ([]TimeWindow, string) {
	t := strings.TrimSpace(text)
	if t == "" {
		return nil, ""
	}

	if windows := parseDayTimeLines(t, now); len(windows) > 0 {
		return windows, ""
	}

	days := extractDays(t, now)
	if len(days) == 0 {
		return nil, ""
	}

	part := ""
	if morningRE.MatchString(t) {
		part = "morning"
	}
	if afternoonRE.MatchString(t) {
		part = "afternoon"
	}
	if eveningRE.MatchString(t) {
		part = "evening"
	}
	startMin, endMin := partOfDayBounds(part)

	// Explicit bounds override the part-of-day default.
	bounds, boundsOK := parseTimeBounds(t)
	if !boundsOK && strings.Contains(strings.ToLower(t), "between") {
		return nil, "For `between ... and ...`, could you include AM/PM (e.g., 1pm–3pm) and your timezone?"
	}
	if boundsOK {
		startMin, endMin = bounds[0], bounds[1]
	}

	var windows []TimeWindow
	for _, d := range days {
		w := TimeWindow{Day: d, StartMinute: startMin, EndMinute: endMin}
		if w.Valid() {
			windows = append(windows, w)
		}
	}
	return windows, ""
}

// parseTimeBounds extracts an explicit bound phrase: "between X and Y",
// "after X", "before X". A "between" missing either meridiem is ambiguous and
// reports false.
func parseTimeBounds(text string) ([2]int, bool) {
	t := strings.ToLower(text)

	if m := betweenRE.FindStringSubmatch(t); m != nil {
		if m[3] == "" || m[6] == "" {
			return [2]int{}, false
		}
		start := toMinutes(mustParsedTime(m[1], m[2], m[3]))
		end := toMinutes(mustParsedTime(m[4], m[5], m[6]))
		return [2]int{start, end}, true
	}

	if m := afterRE.FindStringSubmatch(t); m != nil {
		start := toMinutes(mustParsedTime(m[1], m[2], m[3]))
		return [2]int{start, 21 * 60}, true
	}

	if m := beforeRE.FindStringSubmatch(t); m != nil {
		end := toMinutes(mustParsedTime(m[1], m[2], m[3]))
		return [2]int{9 * 60, end}, true
	}

	return [2]int{}, false
}

func mustParsedTime(hourStr, minuteStr, meridiem string) ParsedTime {
	hour, _ := strconv.Atoi(hourStr)
	minute := 0
	if minuteStr != "" {
		minute, _ = strconv.Atoi(minuteStr)
	}
	return ParsedTime{Hour: hour, Minute: minute, Meridiem: strings.ToLower(meridiem)}
}

// extractDays resolves the calendar dates referenced by the text: a weekday
// range ("Mon-Tue"), a weekday list ("Tue/Thu"), relative days ("today",
// "tomorrow") or bare weekday mentions.
func extractDays(text string, now time.Time) []time.Time {
	t := strings.ToLower(text)
	today := dateOnly(now)

	base := today
	if strings.Contains(t, "next week") {
		base = startOfNextWeek(today)
	}

	if m := weekdayRangeRE.FindStringSubmatch(t); m != nil {
		startKey, okA := canonWeekday(m[1])
		endKey, okB := canonWeekday(m[2])
		if okA && okB {
			start := dayIndex[startKey]
			end := dayIndex[endKey]
			var days []time.Time
			for i := 0; i < 7; i++ {
				d := base.AddDate(0, 0, i)
				idx := weekdayIdx(d)
				if start <= end {
					if idx >= start && idx <= end {
						days = append(days, d)
					}
				} else if idx >= start || idx <= end { // wrap, e.g. Fri-Mon
					days = append(days, d)
				}
			}
			return days
		}
	}

	if m := weekdayListRE.FindString(t); m != "" {
		wanted := make(map[int]bool)
		for _, tok := range listSplitRE.Split(m, -1) {
			if key, ok := canonWeekday(tok); ok {
				wanted[dayIndex[key]] = true
			}
		}
		if len(wanted) > 0 {
			var days []time.Time
			for i := 0; i < 7; i++ {
				d := base.AddDate(0, 0, i)
				if wanted[weekdayIdx(d)] {
					days = append(days, d)
				}
			}
			return days
		}
	}

	if todayRE.MatchString(t) {
		return []time.Time{today}
	}
	if tomorrowRE.MatchString(t) {
		return []time.Time{today.AddDate(0, 0, 1)}
	}

	// Bare weekday mentions; collect each referenced day once, in mention order.
	var days []time.Time
	seen := make(map[int]bool)
	for _, m := range weekdayWordRE.FindAllString(t, -1) {
		key, ok := canonWeekday(m)
		if !ok {
			continue
		}
		idx := dayIndex[key]
		if seen[idx] {
			continue
		}
		seen[idx] = true
		days = append(days, nextWeekday(base, idx))
	}
	return days
}

// parseDayTimeLines handles per-line day-plus-slot variants such as
// "Tue: 10pm" (a one-hour window) and "Tue: 1-3pm, 4:30-5pm", reusing the
// day-list grammar's AM/PM coercion rule.
func parseDayTimeLines(text string, now time.Time) []TimeWindow {
	var windows []TimeWindow

	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}
		m := dayTimeLineRE.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		key, ok := canonWeekday(m[1])
		if !ok {
			continue
		}

		base := dateOnly(now)
		if strings.Contains(strings.ToLower(line), "next week") {
			base = startOfNextWeek(base)
		}
		day := nextWeekday(base, dayIndex[key])

		timesRaw := m[2]
		if single, ok := parseTimeToken(timesRaw); ok && !strings.Contains(timesRaw, "-") && !strings.Contains(strings.ToLower(timesRaw), "to") {
			startMin := toMinutes(single)
			w := TimeWindow{Day: day, StartMinute: startMin, EndMinute: startMin + 60}
			if w.Valid() {
				windows = append(windows, w)
			}
			continue
		}

		for _, slot := range strings.Split(normalizeDashes(timesRaw), ",") {
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
				continue
			}
			w := TimeWindow{Day: day, StartMinute: toMinutes(start), EndMinute: toMinutes(end)}
			if w.Valid() {
				windows = append(windows, w)
			}
		}
	}
	return windows
}
