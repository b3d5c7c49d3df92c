package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/meeting-coordinator/internal/coordination"
)

var threadCounter uint64

// referenceTime is a Monday at 09:00 US Eastern (14:00 UTC), chosen so
// weekday arithmetic in tests starts from a known business-hours instant.
var referenceTime = time.Date(2026, time.February, 9, 14, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ThreadFixture represents a deterministic meeting thread that can be
// materialised for coordination or persistence tests.
type ThreadFixture struct {
	ThreadID     string
	Organizer    string
	Participants []string
	Timezone     string
	Subject      string
	CreatedAt    time.Time
}

// ThreadOption configures the generated thread fixture.
type ThreadOption func(*ThreadFixture)

// NewThreadFixture returns a deterministic thread fixture with optional
// overrides. The organizer is always part of the roster.
func NewThreadFixture(opts ...ThreadOption) ThreadFixture {
	idx := atomic.AddUint64(&threadCounter, 1)
	fixture := ThreadFixture{
		ThreadID:     fmt.Sprintf("thread-%03d", idx),
		Organizer:    "alice@example.com",
		Participants: []string{"alice@example.com", "bob@example.com"},
		Timezone:     "America/New_York",
		Subject:      "Project sync",
		CreatedAt:    referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithThreadID overrides the generated thread ID.
func WithThreadID(id string) ThreadOption {
	return func(f *ThreadFixture) {
		f.ThreadID = id
	}
}

// WithOrganizer sets the organizer address.
func WithOrganizer(email string) ThreadOption {
	return func(f *ThreadFixture) {
		f.Organizer = email
	}
}

// WithParticipants sets the roster addresses.
func WithParticipants(emails ...string) ThreadOption {
	return func(f *ThreadFixture) {
		f.Participants = append([]string(nil), emails...)
	}
}

// WithTimezone sets the thread timezone.
func WithTimezone(tz string) ThreadOption {
	return func(f *ThreadFixture) {
		f.Timezone = tz
	}
}

// WithSubject sets the thread subject.
func WithSubject(subject string) ThreadOption {
	return func(f *ThreadFixture) {
		f.Subject = subject
	}
}

// WithCreatedAt sets the creation timestamp.
func WithCreatedAt(t time.Time) ThreadOption {
	return func(f *ThreadFixture) {
		f.CreatedAt = t
	}
}

// Build materialises the fixture as a coordination.MeetingThread.
func (f ThreadFixture) Build() *coordination.MeetingThread {
	participants := make(map[string]*coordination.Participant, len(f.Participants))
	for _, email := range f.Participants {
		participants[email] = &coordination.Participant{Email: email, Status: coordination.ParticipantPending}
	}
	return coordination.NewMeetingThread(f.ThreadID, f.Organizer, participants, f.Timezone, f.Subject, f.CreatedAt)
}
