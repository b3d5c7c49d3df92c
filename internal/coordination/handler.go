package coordination

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/example/meeting-coordinator/internal/logging"
)

// ErrNoThread reports a caller contract violation: new-request handling was
// invoked but no thread was provided. This indicates an upstream bug, not bad
// user input, and is the one failure the handler refuses to absorb.
var ErrNoThread = errors.New("coordination: new request handling invoked with no existing thread")

const fallbackClarifyingQuestion = "Could you clarify the exact time (including AM/PM and timezone)?"

const explicitRationale = "Explicit time requested by organizer."

var (
	meridiemTimeRE  = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)
	atHourRE        = regexp.MustCompile(`(?i)\bat\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)
	weekdayInTextRE = regexp.MustCompile(`(?i)\b(mon(?:day)?|tue(?:sday)?|wed(?:nesday)?|thu(?:rsday)?|fri(?:day)?|sat(?:urday)?|sun(?:day)?)\b`)
	bareClockRE     = regexp.MustCompile(`\b(\d{1,2})(?::(\d{2}))?\b`)
)

// Handler is the per-message entry point of the coordination engine. It owns
// the in-memory thread aggregate for the duration of one invocation and
// persists it exactly once at the end of processing.
type Handler struct {
	store       ThreadStore
	coordinator *Coordinator
	now         func() time.Time
}

// NewHandler wires the decision handler. A nil now falls back to time.Now.
func NewHandler(store ThreadStore, coordinator *Coordinator, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	if coordinator == nil {
		coordinator = NewCoordinator(DefaultDeadline, now)
	}
	return &Handler{store: store, coordinator: coordinator, now: now}
}

// Handle processes one inbound message against persisted thread state and
// returns the ordered outbound actions plus an optional schedule decision.
func (h *Handler) Handle(ctx context.Context, inbound InboundMessage) ([]OutboundMessage, *SchedulePlan, error) {
	thread, err := h.store.Get(ctx, inbound.ThreadID)
	if err != nil {
		return nil, nil, fmt.Errorf("coordination: load thread %s: %w", inbound.ThreadID, err)
	}

	if inbound.IsNewRequest {
		if thread == nil {
			return nil, nil, ErrNoThread
		}
		return h.handleNewRequest(ctx, thread, inbound)
	}

	if thread == nil {
		// Nothing to do; the message does not belong to a known negotiation.
		return nil, nil, nil
	}

	if inbound.FromEmail == thread.OrganizerEmail &&
		thread.Status == StatusNeedsClarification &&
		thread.AvailabilityRequestsSentAt == nil {
		return h.handleOrganizerFollowUp(ctx, thread, inbound)
	}

	outbound := h.coordinator.IngestParticipantReply(thread, inbound.FromEmail, inbound.BodyText)

	plan, followups, err := h.coordinator.TrySchedule(thread)
	if err != nil {
		return nil, nil, err
	}
	outbound = append(outbound, followups...)

	if err := h.store.Put(ctx, thread); err != nil {
		return nil, nil, fmt.Errorf("coordination: save thread %s: %w", thread.ThreadID, err)
	}
	return outbound, plan, nil
}

// handleNewRequest interprets the opening message of a coordination thread.
// Time information is merged with fixed precedence: explicit meridiem-bearing
// text, then the AI hint's candidates by confidence, then an availability
// round across all participants.
func (h *Handler) handleNewRequest(ctx context.Context, thread *MeetingThread, inbound InboundMessage) ([]OutboundMessage, *SchedulePlan, error) {
	localNow, loc := h.localNow(thread)
	body := CleanReplyText(inbound.BodyText)

	if minutes, ok := ParseDurationMinutes(body); ok {
		thread.DurationMinutes = minutes
	}

	// Explicit day and time in the raw text wins outright.
	if loc != nil {
		if start, ok := parseExplicitDayTime(body, loc, localNow); ok {
			return h.commitExplicit(ctx, thread, start)
		}
	}

	// A bare hour needs AM/PM before the engine will commit to it.
	if weekday, hour, ok := detectAmbiguousHour(body); ok {
		thread.PendingCandidate = &Candidate{
			StartLocal: weekday,
			Confidence: 0.5,
			SourceText: truncate(body, 200),
		}
		question := fmt.Sprintf(
			"Did you mean %d AM or %d PM? Could you also confirm the timezone (%s)?",
			hour, hour, thread.Timezone)
		return h.commitClarification(ctx, thread, question)
	}

	if hint := inbound.Hint; hint != nil {
		if hint.NeedsClarification {
			if len(hint.Candidates) > 0 {
				cand := hint.Candidates[0]
				thread.PendingCandidate = &cand
			}
			question := hint.ClarifyingQuestion
			if strings.TrimSpace(question) == "" {
				question = fallbackClarifyingQuestion
			}
			return h.commitClarification(ctx, thread, question)
		}

		if loc != nil {
			for _, cand := range candidatesByConfidence(hint.Candidates) {
				start, end, err := candidateToTimes(cand, loc, localNow)
				if err != nil {
					logDebug(ctx, "discarding unusable hint candidate", "start_local", cand.StartLocal, "error", err)
					continue
				}
				return h.commitSchedule(ctx, thread, start, end)
			}
		}
	}

	// No committable time; open the availability round.
	msg := h.coordinator.StartThread(thread)
	if err := h.store.Put(ctx, thread); err != nil {
		return nil, nil, fmt.Errorf("coordination: save thread %s: %w", thread.ThreadID, err)
	}
	return []OutboundMessage{msg}, nil, nil
}

// handleOrganizerFollowUp resolves a pending clarification with the
// organizer. Partial answers (a time without a day, or a day without a time)
// are merged with the pending candidate retained from the prior exchange.
func (h *Handler) handleOrganizerFollowUp(ctx context.Context, thread *MeetingThread, inbound InboundMessage) ([]OutboundMessage, *SchedulePlan, error) {
	localNow, loc := h.localNow(thread)
	body := CleanReplyText(inbound.BodyText)

	if hint := inbound.Hint; hint != nil && (hint.Intent == "NEW_REQUEST" || hint.Intent == "CONFIRMATION") {
		if hint.NeedsClarification {
			if len(hint.Candidates) > 0 {
				cand := hint.Candidates[0]
				thread.PendingCandidate = &cand
			}
			question := hint.ClarifyingQuestion
			if strings.TrimSpace(question) == "" {
				question = fallbackClarifyingQuestion
			}
			return h.commitClarification(ctx, thread, question)
		}

		if loc != nil {
			for _, cand := range candidatesByConfidence(hint.Candidates) {
				start, end, err := candidateToTimes(cand, loc, localNow)
				if err != nil {
					logDebug(ctx, "discarding unusable hint candidate", "start_local", cand.StartLocal, "error", err)
					continue
				}
				return h.commitSchedule(ctx, thread, start, end)
			}
		}
	}

	if loc != nil {
		if start, ok := parseExplicitDayTime(body, loc, localNow); ok {
			return h.commitExplicit(ctx, thread, start)
		}

		if derived, ok := mergePendingCandidate(thread, body); ok {
			start, end, err := candidateToTimes(derived, loc, localNow)
			if err == nil {
				return h.commitSchedule(ctx, thread, start, end)
			}
			logDebug(ctx, "pending candidate merge did not resolve", "error", err)
		}
	}

	// Could not resolve the clarification; fall back to a full availability round.
	msg := h.coordinator.StartThread(thread)
	if err := h.store.Put(ctx, thread); err != nil {
		return nil, nil, fmt.Errorf("coordination: save thread %s: %w", thread.ThreadID, err)
	}
	return []OutboundMessage{msg}, nil, nil
}

func (h *Handler) commitExplicit(ctx context.Context, thread *MeetingThread, start time.Time) ([]OutboundMessage, *SchedulePlan, error) {
	duration := thread.DurationMinutes
	if duration <= 0 {
		duration = DefaultDurationMinutes
	}
	return h.commitSchedule(ctx, thread, start, start.Add(time.Duration(duration)*time.Minute))
}

func (h *Handler) commitSchedule(ctx context.Context, thread *MeetingThread, start, end time.Time) ([]OutboundMessage, *SchedulePlan, error) {
	thread.ScheduledStart = &start
	thread.ScheduledEnd = &end
	thread.SchedulingRationale = explicitRationale
	thread.Status = StatusScheduled
	thread.PendingCandidate = nil

	if err := h.store.Put(ctx, thread); err != nil {
		return nil, nil, fmt.Errorf("coordination: save thread %s: %w", thread.ThreadID, err)
	}
	return nil, &SchedulePlan{Start: start, End: end, Rationale: explicitRationale}, nil
}

func (h *Handler) commitClarification(ctx context.Context, thread *MeetingThread, question string) ([]OutboundMessage, *SchedulePlan, error) {
	thread.Status = StatusNeedsClarification

	if err := h.store.Put(ctx, thread); err != nil {
		return nil, nil, fmt.Errorf("coordination: save thread %s: %w", thread.ThreadID, err)
	}
	return []OutboundMessage{{
		To:      []string{thread.OrganizerEmail},
		Subject: thread.Subject + " — quick clarification",
		Body:    clarificationBody(question),
	}}, nil, nil
}

func (h *Handler) localNow(thread *MeetingThread) (time.Time, *time.Location) {
	now := h.now()
	loc, err := thread.Location()
	if err != nil {
		return now, nil
	}
	return now.In(loc), loc
}

// parseExplicitDayTime finds a weekday together with a meridiem-bearing time
// in the text and resolves it to the next occurrence of that weekday. A
// same-day time already in the past rolls forward a week.
func parseExplicitDayTime(text string, loc *time.Location, now time.Time) (time.Time, bool) {
	if text == "" {
		return time.Time{}, false
	}

	weekday, ok := firstWeekday(text)
	if !ok {
		return time.Time{}, false
	}

	m := meridiemTimeRE.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	minutes := toMinutes(mustParsedTime(m[1], m[2], m[3]))

	base := nextWeekday(dateOnly(now), dayIndex[weekday])
	start := time.Date(base.Year(), base.Month(), base.Day(), minutes/60, minutes%60, 0, 0, loc)
	if !start.After(now) && weekdayIdx(now) == dayIndex[weekday] {
		start = start.AddDate(0, 0, 7)
	}
	return start, true
}

// detectAmbiguousHour spots a weekday paired with a bare "at H" mention whose
// hour could be either AM or PM.
func detectAmbiguousHour(text string) (weekdayName string, hour int, ok bool) {
	weekday, found := firstWeekday(text)
	if !found {
		return "", 0, false
	}
	m := atHourRE.FindStringSubmatch(text)
	if m == nil || m[3] != "" {
		return "", 0, false
	}
	h, _ := strconv.Atoi(m[1])
	if h < 1 || h > 12 {
		return "", 0, false
	}
	return weekdayNames[weekday], h, true
}

// firstWeekday returns the canonical key of the first weekday word in text.
func firstWeekday(text string) (string, bool) {
	m := weekdayInTextRE.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return canonWeekday(m[1])
}

// extractTimeMinutes pulls the first meridiem-bearing time out of free text.
func extractTimeMinutes(text string) (int, bool) {
	m := meridiemTimeRE.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	return toMinutes(mustParsedTime(m[1], m[2], m[3])), true
}

// mergePendingCandidate combines a partial follow-up answer with the day or
// time retained from the previous exchange.
func mergePendingCandidate(thread *MeetingThread, body string) (Candidate, bool) {
	pending := thread.PendingCandidate
	if pending == nil {
		return Candidate{}, false
	}

	weekday, haveDay := firstWeekday(pending.StartLocal)
	if replyDay, ok := firstWeekday(body); ok {
		weekday, haveDay = replyDay, true
	}

	minutes, haveTime := extractTimeMinutes(pending.StartLocal)
	if replyMinutes, ok := extractTimeMinutes(body); ok {
		minutes, haveTime = replyMinutes, true
	}

	if !haveDay || !haveTime {
		return Candidate{}, false
	}

	duration := thread.DurationMinutes
	if duration <= 0 {
		duration = DefaultDurationMinutes
	}
	return candidateFromDayTime(weekdayNames[weekday], minutes, duration, body), true
}

// candidateFromDayTime builds a synthetic candidate from a weekday name and
// minutes since midnight.
func candidateFromDayTime(weekdayName string, startMinutes, durationMinutes int, sourceText string) Candidate {
	endMinutes := (startMinutes + durationMinutes) % (24 * 60)
	return Candidate{
		StartLocal: weekdayName + " " + formatTime12h(startMinutes),
		EndLocal:   weekdayName + " " + formatTime12h(endMinutes),
		Confidence: 0.9,
		SourceText: truncate(sourceText, 200),
	}
}

// candidateToTimes converts an advisory candidate such as
// {start_local: "Saturday 3:00 PM", end_local: "3:30 PM"} into concrete
// instants on the next occurrence of that weekday.
func candidateToTimes(cand Candidate, loc *time.Location, now time.Time) (time.Time, time.Time, error) {
	startLocal := strings.TrimSpace(cand.StartLocal)
	endLocal := strings.TrimSpace(cand.EndLocal)
	if startLocal == "" || endLocal == "" {
		return time.Time{}, time.Time{}, errors.New("candidate missing start_local/end_local")
	}

	weekday, ok := firstWeekday(startLocal)
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("no weekday found in start_local %q", startLocal)
	}

	startMinutes, ok := extractCandidateMinutes(startLocal)
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("no time found in start_local %q", startLocal)
	}
	endMinutes, ok := extractCandidateMinutes(endLocal)
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("no time found in end_local %q", endLocal)
	}

	base := nextWeekday(dateOnly(now.In(loc)), dayIndex[weekday])
	start := time.Date(base.Year(), base.Month(), base.Day(), startMinutes/60, startMinutes%60, 0, 0, loc)
	end := time.Date(base.Year(), base.Month(), base.Day(), endMinutes/60, endMinutes%60, 0, 0, loc)

	if !start.After(now) && base.Equal(dateOnly(now.In(loc))) {
		start = start.AddDate(0, 0, 7)
		end = end.AddDate(0, 0, 7)
	}
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return start, end, nil
}

// extractCandidateMinutes parses the time component of a candidate string.
// Unlike extractTimeMinutes it tolerates a missing meridiem, taking the hour
// as given (candidates were already normalised upstream).
func extractCandidateMinutes(s string) (int, bool) {
	if minutes, ok := extractTimeMinutes(s); ok {
		return minutes, true
	}
	m := bareClockRE.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	hour, _ := strconv.Atoi(m[1])
	if hour > 23 {
		return 0, false
	}
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if minute > 59 {
		return 0, false
	}
	return hour*60 + minute, true
}

// candidatesByConfidence orders candidates from most to least confident,
// preserving list order between equals.
func candidatesByConfidence(cands []Candidate) []Candidate {
	out := append([]Candidate(nil), cands...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func logDebug(ctx context.Context, msg string, args ...any) {
	if logger := logging.FromContext(ctx); logger != nil {
		logger.DebugContext(ctx, msg, args...)
		return
	}
	slog.Default().Debug(msg, args...)
}
