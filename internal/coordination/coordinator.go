package coordination

import (
	"strings"
	"time"
)

// OnNoOverlapResetAll names the reconciliation-failure policy: when no common
// slot exists, every participant's response state is cleared and a fresh
// availability round is requested from everyone. Tests assert participants
// truly lose prior windows under this policy.
const OnNoOverlapResetAll = true

// DefaultDeadline is how long participants are given to reply with
// availability before the reminder sweep starts nudging them.
const DefaultDeadline = 48 * time.Hour

// flexiblePhrases mark replies that grant full flexibility; when such a reply
// yields no concrete windows the coordinator synthesizes open working-hours
// windows instead of asking again.
var flexiblePhrases = []string{
	"these times work",
	"works for me",
	"work for me",
	"whatever works",
	"any time",
	"anytime",
	"i'm flexible",
	"im flexible",
}

// Coordinator owns meeting-thread lifecycle transitions. It is a pure state
// mutator: all I/O stays with the caller.
type Coordinator struct {
	deadline time.Duration
	now      func() time.Time
}

// NewCoordinator wires a coordinator with the given response deadline. A nil
// now falls back to time.Now.
func NewCoordinator(deadline time.Duration, now func() time.Time) *Coordinator {
	if deadline <= 0 {
		deadline = DefaultDeadline
	}
	if now == nil {
		now = time.Now
	}
	return &Coordinator{deadline: deadline, now: now}
}

// StartThread opens the availability-collection round: records the deadline,
// stamps each participant's request time and returns the availability-request
// broadcast.
func (c *Coordinator) StartThread(thread *MeetingThread) OutboundMessage {
	now := c.now()
	if thread.DeadlineAt == nil {
		deadline := now.Add(c.deadline)
		thread.DeadlineAt = &deadline
	}
	sentAt := now
	thread.AvailabilityRequestsSentAt = &sentAt
	thread.Status = StatusWaiting

	for _, p := range thread.Participants {
		requestedAt := now
		p.RequestedAt = &requestedAt
	}

	return OutboundMessage{
		To:      thread.ParticipantEmails(),
		Subject: thread.Subject + " — availability",
		Body:    availabilityRequestBody(thread.DeadlineAt, thread.Timezone),
	}
}

// IngestParticipantReply parses a participant's reply, updates thread state
// and returns any clarification message (addressed to that participant only).
// Replies on a SCHEDULED thread are acknowledged but never reopen scheduling.
func (c *Coordinator) IngestParticipantReply(thread *MeetingThread, participantEmail, bodyText string) []OutboundMessage {
	if thread.Status == StatusScheduled {
		return nil
	}

	p, ok := thread.Participant(participantEmail)
	if !ok {
		// Unknown sender; the roster is fixed at thread creation.
		return nil
	}

	now := c.now()
	localNow := now
	if loc, err := thread.Location(); err == nil {
		localNow = now.In(loc)
	}

	cleaned := CleanReplyText(bodyText)
	p.RawResponseText = cleaned
	respondedAt := now
	p.RespondedAt = &respondedAt
	p.HasResponded = true
	p.Status = ParticipantResponded

	result := ParseAvailability(cleaned, localNow)
	p.ParsedWindows = result.Windows

	if len(p.ParsedWindows) == 0 && !result.NeedsClarification {
		windows, question := ParseConstraints(cleaned, localNow)
		switch {
		case len(windows) > 0:
			p.ParsedWindows = windows
		case question != "":
			result.NeedsClarification = true
			result.ClarificationQuestion = question
		case isFlexibleReply(cleaned):
			p.ParsedWindows = openWindows(localNow)
		}
	}

	if result.NeedsClarification {
		p.NeedsClarification = true
		p.ClarificationQuestion = result.ClarificationQuestion
		thread.Status = StatusNeedsClarification
		return []OutboundMessage{{
			To:      []string{strings.ToLower(strings.TrimSpace(participantEmail))},
			Subject: thread.Subject + " — quick clarification",
			Body:    clarificationBody(result.ClarificationQuestion),
		}}
	}

	p.NeedsClarification = false
	p.ClarificationQuestion = ""

	switch {
	case thread.AnyNeedsClarification():
		thread.Status = StatusNeedsClarification
	case thread.AllResponded():
		thread.Status = StatusReadyToSchedule
	default:
		thread.Status = StatusWaiting
	}

	return nil
}

// TrySchedule attempts reconciliation once every participant has usable
// windows. On success the thread becomes SCHEDULED; on no overlap the
// OnNoOverlapResetAll policy clears everyone's responses and requests a fresh
// round. Calling TrySchedule on a SCHEDULED thread is a no-op.
func (c *Coordinator) TrySchedule(thread *MeetingThread) (*SchedulePlan, []OutboundMessage, error) {
	if thread.Status == StatusScheduled {
		return nil, nil, nil
	}
	if !thread.AllResponded() {
		return nil, nil, nil
	}
	if thread.AnyNeedsClarification() {
		thread.Status = StatusNeedsClarification
		return nil, nil, nil
	}

	thread.Status = StatusReadyToSchedule

	plan, err := EarliestOverlap(thread)
	if err != nil {
		return nil, nil, err
	}

	if plan == nil {
		thread.Status = StatusWaiting
		for _, p := range thread.Participants {
			p.HasResponded = false
			p.Status = ParticipantPending
			p.ParsedWindows = nil
			p.NeedsClarification = false
			p.ClarificationQuestion = ""
		}
		return nil, []OutboundMessage{{
			To:      thread.ParticipantEmails(),
			Subject: thread.Subject + " — need more availability",
			Body:    noOverlapBody(),
		}}, nil
	}

	start := plan.Start
	end := plan.End
	thread.ScheduledStart = &start
	thread.ScheduledEnd = &end
	thread.SchedulingRationale = plan.Rationale
	thread.Status = StatusScheduled

	confirmation := OutboundMessage{
		To:      thread.ParticipantEmails(),
		Subject: thread.Subject + " — scheduled",
		Body: scheduledBody(
			plan.Start.Format("Mon 01/02 3:04PM"),
			plan.End.Format("3:04PM"),
			thread.Timezone,
			plan.Rationale,
		),
	}
	return plan, []OutboundMessage{confirmation}, nil
}

func isFlexibleReply(text string) bool {
	t := strings.ToLower(text)
	for _, phrase := range flexiblePhrases {
		if strings.Contains(t, phrase) {
			return true
		}
	}
	return false
}

// openWindows synthesizes working-hours availability for the next five
// weekdays, representing a fully flexible participant.
func openWindows(now time.Time) []TimeWindow {
	var windows []TimeWindow
	day := dateOnly(now)
	for len(windows) < 5 {
		day = day.AddDate(0, 0, 1)
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		windows = append(windows, TimeWindow{Day: day, StartMinute: 9 * 60, EndMinute: 17 * 60})
	}
	return windows
}
