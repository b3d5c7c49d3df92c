package coordination

import (
	"sort"
	"strings"
	"time"
)

// ThreadStatus tracks the lifecycle of a coordination thread.
type ThreadStatus string

const (
	// StatusWaiting indicates the thread is collecting availability responses.
	StatusWaiting ThreadStatus = "WAITING"
	// StatusNeedsClarification indicates at least one participant gave ambiguous input.
	StatusNeedsClarification ThreadStatus = "NEEDS_CLARIFICATION"
	// StatusReadyToSchedule indicates all participants responded without open questions.
	StatusReadyToSchedule ThreadStatus = "READY_TO_SCHEDULE"
	// StatusScheduled indicates a slot was committed. Terminal for scheduling purposes.
	StatusScheduled ThreadStatus = "SCHEDULED"
)

// ParticipantStatus tracks whether a participant has replied on the thread.
type ParticipantStatus string

const (
	ParticipantPending   ParticipantStatus = "PENDING"
	ParticipantResponded ParticipantStatus = "RESPONDED"
)

// TimeWindow is a contiguous availability interval on one calendar day, in
// minutes since midnight local to the owning thread's timezone. Day carries
// only the calendar date (midnight UTC); the thread timezone is applied when
// a window is converted to concrete instants.
type TimeWindow struct {
	Day         time.Time
	StartMinute int
	EndMinute   int
}

// Valid reports whether the window satisfies 0 <= start < end <= 1440.
func (w TimeWindow) Valid() bool {
	return w.StartMinute >= 0 && w.StartMinute < w.EndMinute && w.EndMinute <= 24*60
}

// Duration returns the window length in minutes.
func (w TimeWindow) Duration() int {
	return w.EndMinute - w.StartMinute
}

// ParsedTime is the intermediate value produced while scanning one time token.
// Meridiem is "am", "pm" or "" (empty means either a 24-hour value or an
// ambiguous 12-hour one; coercion decides which).
type ParsedTime struct {
	Hour     int
	Minute   int
	Meridiem string
}

// ParseResult is the outcome of running a parser over one body of text.
// Windows and NeedsClarification may coexist: unambiguous lines still
// contribute windows even when another line needs a follow-up question.
type ParseResult struct {
	Windows               []TimeWindow
	NeedsClarification    bool
	ClarificationQuestion string
}

// Participant records one counterpart on a coordination thread.
type Participant struct {
	Email                 string
	HasResponded          bool
	Status                ParticipantStatus
	RawResponseText       string
	ParsedWindows         []TimeWindow
	NeedsClarification    bool
	ClarificationQuestion string
	RespondedAt           *time.Time
	RequestedAt           *time.Time
	LastRemindedAt        *time.Time
}

// Candidate is one advisory time suggestion produced by the AI hint provider.
// StartLocal and EndLocal are free-form local descriptions such as
// "Saturday 3:00 PM"; the engine validates them independently.
type Candidate struct {
	StartLocal string
	EndLocal   string
	Confidence float64
	SourceText string
}

// Hint is the advisory output of the external language-model call. It is an
// input among several and never authoritative.
type Hint struct {
	Intent             string
	NeedsClarification bool
	ClarifyingQuestion string
	Timezone           string
	Candidates         []Candidate
}

// InboundMessage is the per-invocation input contract of the decision handler.
type InboundMessage struct {
	ThreadID     string
	FromEmail    string
	ToEmails     []string
	CcEmails     []string
	Subject      string
	BodyText     string
	IsNewRequest bool
	Hint         *Hint
}

// OutboundMessage is a plain-text message the caller should deliver.
// Rendering and transport are external concerns.
type OutboundMessage struct {
	To      []string
	Subject string
	Body    string
}

// SchedulePlan is a committed meeting slot handed to the external
// calendar-invite generator.
type SchedulePlan struct {
	Start     time.Time
	End       time.Time
	Rationale string
}

// MeetingThread is the root aggregate for one multi-participant scheduling
// negotiation. Participants are keyed by lower-cased email.
type MeetingThread struct {
	ThreadID                   string
	OrganizerEmail             string
	Participants               map[string]*Participant
	Timezone                   string
	DurationMinutes            int
	Subject                    string
	Status                     ThreadStatus
	CreatedAt                  time.Time
	AvailabilityRequestsSentAt *time.Time
	DeadlineAt                 *time.Time
	ScheduledStart             *time.Time
	ScheduledEnd               *time.Time
	SchedulingRationale        string
	PendingCandidate           *Candidate
}

// DefaultDurationMinutes is applied when a request names no meeting length.
const DefaultDurationMinutes = 30

// NewMeetingThread constructs a thread in the WAITING state.
func NewMeetingThread(threadID, organizerEmail string, participants map[string]*Participant, timezone, subject string, now time.Time) *MeetingThread {
	if participants == nil {
		participants = make(map[string]*Participant)
	}
	if subject == "" {
		subject = "Meeting"
	}
	return &MeetingThread{
		ThreadID:        threadID,
		OrganizerEmail:  organizerEmail,
		Participants:    participants,
		Timezone:        timezone,
		DurationMinutes: DefaultDurationMinutes,
		Subject:         subject,
		Status:          StatusWaiting,
		CreatedAt:       now,
	}
}

// Participant returns the participant for the given address, if present.
func (t *MeetingThread) Participant(email string) (*Participant, bool) {
	p, ok := t.Participants[strings.ToLower(strings.TrimSpace(email))]
	return p, ok
}

// ParticipantEmails returns the roster addresses in stable (sorted) order.
func (t *MeetingThread) ParticipantEmails() []string {
	emails := make([]string, 0, len(t.Participants))
	for email := range t.Participants {
		emails = append(emails, email)
	}
	sort.Strings(emails)
	return emails
}

// PendingParticipants returns the participants that have not yet responded.
func (t *MeetingThread) PendingParticipants() []*Participant {
	var pending []*Participant
	for _, email := range t.ParticipantEmails() {
		if p := t.Participants[email]; !p.HasResponded {
			pending = append(pending, p)
		}
	}
	return pending
}

// AllResponded reports whether every participant has replied.
func (t *MeetingThread) AllResponded() bool {
	if len(t.Participants) == 0 {
		return false
	}
	for _, p := range t.Participants {
		if !p.HasResponded {
			return false
		}
	}
	return true
}

// AnyNeedsClarification reports whether any participant has an open question.
func (t *MeetingThread) AnyNeedsClarification() bool {
	for _, p := range t.Participants {
		if p.NeedsClarification {
			return true
		}
	}
	return false
}

// Location resolves the thread timezone.
func (t *MeetingThread) Location() (*time.Location, error) {
	return time.LoadLocation(t.Timezone)
}

// Clone returns a deep copy of the thread so stored state cannot be mutated
// through retained references.
func (t *MeetingThread) Clone() *MeetingThread {
	if t == nil {
		return nil
	}
	out := *t
	out.Participants = make(map[string]*Participant, len(t.Participants))
	for email, p := range t.Participants {
		cp := *p
		cp.ParsedWindows = append([]TimeWindow(nil), p.ParsedWindows...)
		cp.RespondedAt = cloneTime(p.RespondedAt)
		cp.RequestedAt = cloneTime(p.RequestedAt)
		cp.LastRemindedAt = cloneTime(p.LastRemindedAt)
		out.Participants[email] = &cp
	}
	out.AvailabilityRequestsSentAt = cloneTime(t.AvailabilityRequestsSentAt)
	out.DeadlineAt = cloneTime(t.DeadlineAt)
	out.ScheduledStart = cloneTime(t.ScheduledStart)
	out.ScheduledEnd = cloneTime(t.ScheduledEnd)
	if t.PendingCandidate != nil {
		pc := *t.PendingCandidate
		out.PendingCandidate = &pc
	}
	return &out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}
