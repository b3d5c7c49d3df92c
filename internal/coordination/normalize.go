package coordination

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// dayAliases maps the weekday spellings accepted in free text to a canonical
// three-letter key.
var dayAliases = map[string]string{
	"mon": "mon", "monday": "mon",
	"tue": "tue", "tues": "tue", "tuesday": "tue",
	"wed": "wed", "weds": "wed", "wednesday": "wed",
	"thu": "thu", "thur": "thu", "thurs": "thu", "thursday": "thu",
	"fri": "fri", "friday": "fri",
	"sat": "sat", "saturday": "sat",
	"sun": "sun", "sunday": "sun",
}

// dayIndex maps canonical weekday keys to Monday-based indices.
var dayIndex = map[string]int{
	"mon": 0, "tue": 1, "wed": 2, "thu": 3, "fri": 4, "sat": 5, "sun": 6,
}

var weekdayNames = map[string]string{
	"mon": "Monday",
	"tue": "Tuesday",
	"wed": "Wednesday",
	"thu": "Thursday",
	"fri": "Friday",
	"sat": "Saturday",
	"sun": "Sunday",
}

var (
	timeTokenRE      = regexp.MustCompile(`(?i)^\s*(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\s*$`)
	timeRangeSplitRE = regexp.MustCompile(`(?i)\s*(?:–|—|-|to)\s*`)
	quotedHeaderRE   = regexp.MustCompile(`^\s*On .* wrote:\s*$`)
)

// canonWeekday resolves a free-text weekday token to its canonical key.
func canonWeekday(token string) (string, bool) {
	canon, ok := dayAliases[strings.ToLower(strings.TrimSpace(token))]
	return canon, ok
}

// weekdayIdx returns the Monday-based weekday index of t.
func weekdayIdx(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// dateOnly truncates t to its calendar date, normalised to midnight UTC so
// dates compare and hash by value regardless of the zone t carried.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// normalizeDashes rewrites em-dashes and hyphens to en-dashes so range
// splitting sees a single separator form.
func normalizeDashes(s string) string {
	return strings.NewReplacer("—", "–", "-", "–").Replace(s)
}

// splitTimeRange splits "4pm–5pm", "4-5pm" or "4 to 5pm" into its two
// endpoint tokens. Returns false when the text is not a two-ended range.
func splitTimeRange(s string) (string, string, bool) {
	parts := timeRangeSplitRE.Split(strings.TrimSpace(s), -1)
	if len(parts) != 2 {
		return "", "", false
	}
	start := strings.TrimSpace(parts[0])
	end := strings.TrimSpace(parts[1])
	if start == "" || end == "" {
		return "", "", false
	}
	return start, end, true
}

// parseTimeToken scans a single time token such as "4", "4:30pm" or "16:00".
// Hours 13-23 without a meridiem are accepted as 24-hour values.
func parseTimeToken(token string) (ParsedTime, bool) {
	m := timeTokenRE.FindStringSubmatch(token)
	if m == nil {
		return ParsedTime{}, false
	}
	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	meridiem := strings.ToLower(m[3])

	if minute > 59 {
		return ParsedTime{}, false
	}
	if meridiem == "" {
		if hour > 23 {
			return ParsedTime{}, false
		}
	} else if hour < 1 || hour > 12 {
		return ParsedTime{}, false
	}
	return ParsedTime{Hour: hour, Minute: minute, Meridiem: meridiem}, true
}

// coerceMeridiem applies the AM/PM propagation rule to a range's endpoints:
// a meridiem on either endpoint is copied to the other; two bare endpoints
// are only acceptable when either hour is >= 13 (24-hour clock). Returns
// false when the pair stays ambiguous (e.g. "1-3").
func coerceMeridiem(start, end ParsedTime) (ParsedTime, ParsedTime, bool) {
	switch {
	case start.Meridiem == "" && end.Meridiem == "" && (start.Hour >= 13 || end.Hour >= 13):
		return start, end, true
	case start.Meridiem == "" && (end.Meridiem == "am" || end.Meridiem == "pm"):
		start.Meridiem = end.Meridiem
		return start, end, true
	case end.Meridiem == "" && (start.Meridiem == "am" || start.Meridiem == "pm"):
		end.Meridiem = start.Meridiem
		return start, end, true
	case start.Meridiem != "" && end.Meridiem != "":
		return start, end, true
	}
	return start, end, false
}

// toMinutes converts a parsed time to minutes since midnight, applying the
// standard 12h mapping (12am -> 0, 12pm -> 720) and clamping to [0, 1440].
// A time without a meridiem is taken as a 24-hour value.
func toMinutes(pt ParsedTime) int {
	h := pt.Hour
	switch pt.Meridiem {
	case "am":
		if h == 12 {
			h = 0
		}
	case "pm":
		if h != 12 {
			h += 12
		}
	}
	return clampMinutes(h*60 + pt.Minute)
}

func clampMinutes(m int) int {
	if m < 0 {
		return 0
	}
	if m > 24*60 {
		return 24 * 60
	}
	return m
}

// inferYear picks the year for an MM/DD mention: the current year unless that
// date already passed, in which case it rolls to next year.
func inferYear(month, day int, now time.Time) int {
	today := dateOnly(now)
	candidate := time.Date(today.Year(), time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if candidate.Before(today) {
		return today.Year() + 1
	}
	return today.Year()
}

// startOfNextWeek returns the Monday strictly after the given date.
func startOfNextWeek(d time.Time) time.Time {
	days := (7 - weekdayIdx(d)) % 7
	if days == 0 {
		days = 7
	}
	return dateOnly(d).AddDate(0, 0, days)
}

// nextWeekday returns the first date on or after base falling on the given
// Monday-based weekday index.
func nextWeekday(base time.Time, idx int) time.Time {
	offset := (idx - weekdayIdx(base) + 7) % 7
	return dateOnly(base).AddDate(0, 0, offset)
}

// formatTime12h renders minutes since midnight as "3:05 PM".
func formatTime12h(minutes int) string {
	h := minutes / 60
	m := minutes % 60
	meridiem := "AM"
	switch {
	case h == 0:
		h = 12
	case h == 12:
		meridiem = "PM"
	case h > 12:
		h -= 12
		meridiem = "PM"
	}
	return strconv.Itoa(h) + ":" + pad2(m) + " " + meridiem
}

func pad2(v int) string {
	if v < 10 {
		return "0" + strconv.Itoa(v)
	}
	return strconv.Itoa(v)
}

// CleanReplyText strips quoted reply tails from an email body: lines starting
// with ">" are dropped and scanning stops at an "On ... wrote:" header.
func CleanReplyText(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, ">") {
			continue
		}
		if quotedHeaderRE.MatchString(line) {
			break
		}
		lines = append(lines, line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
