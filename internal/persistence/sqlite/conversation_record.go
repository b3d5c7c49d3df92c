package sqlite

import (
	"fmt"

	"github.com/example/meeting-coordinator/internal/conversation"
)

type timeSpecRecord struct {
	Windows  []timeWindowRecord `json:"windows"`
	Timezone string             `json:"timezone"`
}

type conversationRecord struct {
	State           string          `json:"state"`
	Timezone        string          `json:"timezone"`
	Intent          string          `json:"intent"`
	Participants    []string        `json:"participants"`
	Time            *timeSpecRecord `json:"time,omitempty"`
	DurationMinutes int             `json:"duration_minutes"`
	Subject         string          `json:"subject,omitempty"`
}

func newConversationRecord(c *conversation.Context) conversationRecord {
	rec := conversationRecord{
		State:           string(c.State),
		Timezone:        c.Timezone,
		Intent:          string(c.Memory.Intent),
		Participants:    c.Memory.Participants,
		DurationMinutes: c.Memory.DurationMinutes,
		Subject:         c.Memory.Subject,
	}
	if c.Memory.Time != nil {
		rec.Time = &timeSpecRecord{
			Windows:  encodeWindows(c.Memory.Time.Windows),
			Timezone: c.Memory.Time.Timezone,
		}
	}
	return rec
}

func (r conversationRecord) toDomain() (*conversation.Context, error) {
	c := &conversation.Context{
		State:    conversation.State(r.State),
		Timezone: r.Timezone,
		Memory: conversation.WorkingMemory{
			Intent:          conversation.Intent(r.Intent),
			Participants:    r.Participants,
			DurationMinutes: r.DurationMinutes,
			Subject:         r.Subject,
		},
	}
	if r.Time != nil {
		windows, err := decodeWindows(r.Time.Windows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: conversation time spec: %w", err)
		}
		c.Memory.Time = &conversation.TimeSpec{Windows: windows, Timezone: r.Time.Timezone}
	}
	return c, nil
}
