package sqlite

import (
	"fmt"
	"time"

	"github.com/example/meeting-coordinator/internal/coordination"
)

// Serialization DTOs. The core never operates on these; conversion happens at
// the store boundary only. Dates are ISO calendar dates, instants RFC3339.

type timeWindowRecord struct {
	Day         string `json:"day"`
	StartMinute int    `json:"start_minute"`
	EndMinute   int    `json:"end_minute"`
}

type candidateRecord struct {
	StartLocal string  `json:"start_local"`
	EndLocal   string  `json:"end_local"`
	Confidence float64 `json:"confidence"`
	SourceText string  `json:"source_text"`
}

type participantRecord struct {
	Email                 string             `json:"email"`
	HasResponded          bool               `json:"has_responded"`
	Status                string             `json:"status"`
	RawResponseText       string             `json:"raw_response_text,omitempty"`
	ParsedWindows         []timeWindowRecord `json:"parsed_windows"`
	NeedsClarification    bool               `json:"needs_clarification"`
	ClarificationQuestion string             `json:"clarification_question,omitempty"`
	RespondedAt           string             `json:"responded_at,omitempty"`
	RequestedAt           string             `json:"requested_at,omitempty"`
	LastRemindedAt        string             `json:"last_reminded_at,omitempty"`
}

type threadRecord struct {
	ThreadID                   string                       `json:"thread_id"`
	OrganizerEmail             string                       `json:"organizer_email"`
	Participants               map[string]participantRecord `json:"participants"`
	Timezone                   string                       `json:"timezone"`
	DurationMinutes            int                          `json:"meeting_duration_minutes"`
	Subject                    string                       `json:"subject"`
	Status                     string                       `json:"status"`
	CreatedAt                  string                       `json:"created_at"`
	AvailabilityRequestsSentAt string                       `json:"availability_requests_sent_at,omitempty"`
	DeadlineAt                 string                       `json:"deadline_at,omitempty"`
	ScheduledStart             string                       `json:"scheduled_start,omitempty"`
	ScheduledEnd               string                       `json:"scheduled_end,omitempty"`
	SchedulingRationale        string                       `json:"scheduling_rationale,omitempty"`
	PendingCandidate           *candidateRecord             `json:"pending_candidate,omitempty"`
}

const dateLayout = "2006-01-02"

func newThreadRecord(t *coordination.MeetingThread) threadRecord {
	participants := make(map[string]participantRecord, len(t.Participants))
	for email, p := range t.Participants {
		participants[email] = participantRecord{
			Email:                 p.Email,
			HasResponded:          p.HasResponded,
			Status:                string(p.Status),
			RawResponseText:       p.RawResponseText,
			ParsedWindows:         encodeWindows(p.ParsedWindows),
			NeedsClarification:    p.NeedsClarification,
			ClarificationQuestion: p.ClarificationQuestion,
			RespondedAt:           encodeInstant(p.RespondedAt),
			RequestedAt:           encodeInstant(p.RequestedAt),
			LastRemindedAt:        encodeInstant(p.LastRemindedAt),
		}
	}

	var pending *candidateRecord
	if t.PendingCandidate != nil {
		pending = &candidateRecord{
			StartLocal: t.PendingCandidate.StartLocal,
			EndLocal:   t.PendingCandidate.EndLocal,
			Confidence: t.PendingCandidate.Confidence,
			SourceText: t.PendingCandidate.SourceText,
		}
	}

	return threadRecord{
		ThreadID:                   t.ThreadID,
		OrganizerEmail:             t.OrganizerEmail,
		Participants:               participants,
		Timezone:                   t.Timezone,
		DurationMinutes:            t.DurationMinutes,
		Subject:                    t.Subject,
		Status:                     string(t.Status),
		CreatedAt:                  t.CreatedAt.UTC().Format(time.RFC3339),
		AvailabilityRequestsSentAt: encodeInstant(t.AvailabilityRequestsSentAt),
		DeadlineAt:                 encodeInstant(t.DeadlineAt),
		ScheduledStart:             encodeInstant(t.ScheduledStart),
		ScheduledEnd:               encodeInstant(t.ScheduledEnd),
		SchedulingRationale:        t.SchedulingRationale,
		PendingCandidate:           pending,
	}
}

func (r threadRecord) toDomain() (*coordination.MeetingThread, error) {
	participants := make(map[string]*coordination.Participant, len(r.Participants))
	for email, pr := range r.Participants {
		windows, err := decodeWindows(pr.ParsedWindows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: participant %s: %w", email, err)
		}
		respondedAt, err := decodeInstant(pr.RespondedAt)
		if err != nil {
			return nil, fmt.Errorf("sqlite: participant %s responded_at: %w", email, err)
		}
		requestedAt, err := decodeInstant(pr.RequestedAt)
		if err != nil {
			return nil, fmt.Errorf("sqlite: participant %s requested_at: %w", email, err)
		}
		lastRemindedAt, err := decodeInstant(pr.LastRemindedAt)
		if err != nil {
			return nil, fmt.Errorf("sqlite: participant %s last_reminded_at: %w", email, err)
		}
		participants[email] = &coordination.Participant{
			Email:                 pr.Email,
			HasResponded:          pr.HasResponded,
			Status:                coordination.ParticipantStatus(pr.Status),
			RawResponseText:       pr.RawResponseText,
			ParsedWindows:         windows,
			NeedsClarification:    pr.NeedsClarification,
			ClarificationQuestion: pr.ClarificationQuestion,
			RespondedAt:           respondedAt,
			RequestedAt:           requestedAt,
			LastRemindedAt:        lastRemindedAt,
		}
	}

	createdAt, err := time.Parse(time.RFC3339, r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("sqlite: thread %s created_at: %w", r.ThreadID, err)
	}
	sentAt, err := decodeInstant(r.AvailabilityRequestsSentAt)
	if err != nil {
		return nil, fmt.Errorf("sqlite: thread %s availability_requests_sent_at: %w", r.ThreadID, err)
	}
	deadlineAt, err := decodeInstant(r.DeadlineAt)
	if err != nil {
		return nil, fmt.Errorf("sqlite: thread %s deadline_at: %w", r.ThreadID, err)
	}
	scheduledStart, err := decodeInstant(r.ScheduledStart)
	if err != nil {
		return nil, fmt.Errorf("sqlite: thread %s scheduled_start: %w", r.ThreadID, err)
	}
	scheduledEnd, err := decodeInstant(r.ScheduledEnd)
	if err != nil {
		return nil, fmt.Errorf("sqlite: thread %s scheduled_end: %w", r.ThreadID, err)
	}

	var pending *coordination.Candidate
	if r.PendingCandidate != nil {
		pending = &coordination.Candidate{
			StartLocal: r.PendingCandidate.StartLocal,
			EndLocal:   r.PendingCandidate.EndLocal,
			Confidence: r.PendingCandidate.Confidence,
			SourceText: r.PendingCandidate.SourceText,
		}
	}

	return &coordination.MeetingThread{
		ThreadID:                   r.ThreadID,
		OrganizerEmail:             r.OrganizerEmail,
		Participants:               participants,
		Timezone:                   r.Timezone,
		DurationMinutes:            r.DurationMinutes,
		Subject:                    r.Subject,
		Status:                     coordination.ThreadStatus(r.Status),
		CreatedAt:                  createdAt,
		AvailabilityRequestsSentAt: sentAt,
		DeadlineAt:                 deadlineAt,
		ScheduledStart:             scheduledStart,
		ScheduledEnd:               scheduledEnd,
		SchedulingRationale:        r.SchedulingRationale,
		PendingCandidate:           pending,
	}, nil
}

func encodeWindows(windows []coordination.TimeWindow) []timeWindowRecord {
	out := make([]timeWindowRecord, 0, len(windows))
	for _, w := range windows {
		out = append(out, timeWindowRecord{
			Day:         w.Day.Format(dateLayout),
			StartMinute: w.StartMinute,
			EndMinute:   w.EndMinute,
		})
	}
	return out
}

func decodeWindows(records []timeWindowRecord) ([]coordination.TimeWindow, error) {
	if len(records) == 0 {
		return nil, nil
	}
	out := make([]coordination.TimeWindow, 0, len(records))
	for _, r := range records {
		day, err := time.ParseInLocation(dateLayout, r.Day, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("window day %q: %w", r.Day, err)
		}
		out = append(out, coordination.TimeWindow{Day: day, StartMinute: r.StartMinute, EndMinute: r.EndMinute})
	}
	return out, nil
}

func encodeInstant(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func decodeInstant(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
