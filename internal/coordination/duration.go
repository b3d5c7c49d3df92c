package coordination

import (
	"regexp"
	"strconv"
)

var (
	durationMinutesRE = regexp.MustCompile(`(?i)\b(\d{1,3})\s*(?:min|mins|minute|minutes)\b`)
	durationHoursRE   = regexp.MustCompile(`(?i)\b(\d{1,2})\s*(?:h|hr|hrs|hour|hours)\b`)
	halfHourRE        = regexp.MustCompile(`(?i)\bhalf\s*hour\b`)
)

// maxDurationMinutes caps requested meeting lengths at 8 hours.
const maxDurationMinutes = 480

// ParseDurationMinutes extracts a meeting length from phrases like
// "45 minutes", "1 hour" or "half hour". Returns false when the text names no
// usable duration.
func ParseDurationMinutes(text string) (int, bool) {
	if text == "" {
		return 0, false
	}

	if m := durationMinutesRE.FindStringSubmatch(text); m != nil {
		v, _ := strconv.Atoi(m[1])
		if v >= 1 && v <= maxDurationMinutes {
			return v, true
		}
		return 0, false
	}

	if m := durationHoursRE.FindStringSubmatch(text); m != nil {
		v, _ := strconv.Atoi(m[1])
		v *= 60
		if v >= 1 && v <= maxDurationMinutes {
			return v, true
		}
		return 0, false
	}

	if halfHourRE.MatchString(text) {
		return 30, true
	}

	return 0, false
}
