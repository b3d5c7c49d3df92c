// Package reminder produces nudge messages for participants who have not
// replied with availability. The engine itself is time-insensitive; an
// external scheduled trigger invokes the sweep.
package reminder

import (
	"time"

	"github.com/example/meeting-coordinator/internal/coordination"
)

// DefaultDelay is the minimum interval between reminders to one participant.
const DefaultDelay = 24 * time.Hour

// Service evaluates reminder deadlines against a controllable clock.
type Service struct {
	delay time.Duration
	now   func() time.Time
}

// NewService wires the sweep. A non-positive delay falls back to
// DefaultDelay; a nil now falls back to time.Now.
func NewService(delay time.Duration, now func() time.Time) *Service {
	if delay <= 0 {
		delay = DefaultDelay
	}
	if now == nil {
		now = time.Now
	}
	return &Service{delay: delay, now: now}
}

// Sweep returns one reminder per pending participant whose last nudge (or
// the original request) is older than the configured delay, stamping
// LastRemindedAt on the thread. Scheduled threads produce nothing; the caller
// persists the mutated thread.
func (s *Service) Sweep(thread *coordination.MeetingThread) []coordination.OutboundMessage {
	if thread == nil || thread.Status == coordination.StatusScheduled {
		return nil
	}
	if thread.AvailabilityRequestsSentAt == nil {
		return nil
	}

	now := s.now()
	var out []coordination.OutboundMessage
	for _, p := range thread.PendingParticipants() {
		last := p.LastRemindedAt
		if last == nil {
			last = p.RequestedAt
		}
		if last == nil {
			last = thread.AvailabilityRequestsSentAt
		}
		if now.Sub(*last) < s.delay {
			continue
		}

		remindedAt := now
		p.LastRemindedAt = &remindedAt
		out = append(out, coordination.OutboundMessage{
			To:      []string{p.Email},
			Subject: thread.Subject + " — gentle reminder",
			Body:    reminderBody(thread.DeadlineAt, thread.Timezone),
		})
	}
	return out
}

func reminderBody(deadline *time.Time, tzName string) string {
	deadlineStr := "soon"
	if deadline != nil {
		deadlineStr = deadline.Format("Mon 01/02 3:04PM") + " " + tzName
	}
	return "Just a gentle reminder — I'm still collecting availability for this meeting.\n\n" +
		"Please reply with a few time windows, for example:\n\n" +
		"Tue, 02/11: 1pm–3pm, 4:30pm–5pm\n\n" +
		"Please reply by " + deadlineStr + " so I can schedule promptly.\n"
}
