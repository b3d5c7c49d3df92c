package coordination

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
)

func newServiceFixture() (*Service, *MemoryStore) {
	store := NewMemoryStore()
	coordinator := NewCoordinator(0, fixedNow)
	ids := 0
	gen := func() string {
		ids++
		return fmt.Sprintf("thread-%03d", ids)
	}
	service := NewService(store, coordinator, "assistant@example.com", "America/New_York", gen, fixedNow)
	return service, store
}

func TestService_HandleInbound(t *testing.T) {
	t.Parallel()

	t.Run("coordination request opens a thread and requests availability", func(t *testing.T) {
		t.Parallel()
		service, store := newServiceFixture()

		handled, out, plan, err := service.HandleInbound(context.Background(), InboundMessage{
			FromEmail: "Alice@Example.com",
			ToEmails:  []string{"assistant@example.com", "bob@example.com"},
			CcEmails:  []string{"carol@example.com", "BOB@example.com"},
			Subject:   "Quarterly planning",
			BodyText:  "Can you find a time for all of us next week?",
		})
		if err != nil {
			t.Fatalf("HandleInbound returned error: %v", err)
		}
		if !handled {
			t.Fatalf("expected the message to be handled")
		}
		if plan != nil {
			t.Fatalf("expected no plan, got %+v", plan)
		}
		if len(out) != 1 {
			t.Fatalf("expected one broadcast, got %d", len(out))
		}
		if want := "alice@example.com,bob@example.com,carol@example.com"; strings.Join(out[0].To, ",") != want {
			t.Fatalf("unexpected roster: %v", out[0].To)
		}

		thread, err := store.Get(context.Background(), "thread-001")
		if err != nil || thread == nil {
			t.Fatalf("thread not stored: %v %v", thread, err)
		}
		if thread.OrganizerEmail != "alice@example.com" {
			t.Fatalf("unexpected organizer: %q", thread.OrganizerEmail)
		}
		if len(thread.Participants) != 3 {
			t.Fatalf("expected 3 participants, got %v", thread.ParticipantEmails())
		}
		if thread.Timezone != "America/New_York" {
			t.Fatalf("unexpected timezone: %q", thread.Timezone)
		}
	})

	t.Run("hint timezone overrides the default", func(t *testing.T) {
		t.Parallel()
		service, store := newServiceFixture()

		_, _, _, err := service.HandleInbound(context.Background(), InboundMessage{
			FromEmail: "alice@example.com",
			ToEmails:  []string{"assistant@example.com", "bob@example.com"},
			BodyText:  "Please coordinate a sync.",
			Hint:      &Hint{Intent: "COORDINATE_MEETING", Timezone: "Europe/London"},
		})
		if err != nil {
			t.Fatalf("HandleInbound returned error: %v", err)
		}

		thread, err := store.Get(context.Background(), "thread-001")
		if err != nil || thread == nil {
			t.Fatalf("thread not stored: %v %v", thread, err)
		}
		if thread.Timezone != "Europe/London" {
			t.Fatalf("expected hint timezone, got %q", thread.Timezone)
		}
	})

	t.Run("non-coordination traffic is left alone", func(t *testing.T) {
		t.Parallel()
		service, store := newServiceFixture()

		handled, out, plan, err := service.HandleInbound(context.Background(), InboundMessage{
			FromEmail: "dave@example.com",
			ToEmails:  []string{"assistant@example.com"},
			BodyText:  "Lunch tomorrow?",
		})
		if err != nil {
			t.Fatalf("HandleInbound returned error: %v", err)
		}
		if handled || out != nil || plan != nil {
			t.Fatalf("expected nothing to happen, got handled=%v out=%v plan=%v", handled, out, plan)
		}

		thread, err := store.Get(context.Background(), "thread-001")
		if err != nil {
			t.Fatalf("Get returned error: %v", err)
		}
		if thread != nil {
			t.Fatalf("unexpected thread created: %+v", thread)
		}
	})

	t.Run("full negotiation ends in a schedule", func(t *testing.T) {
		t.Parallel()
		service, store := newServiceFixture()
		ctx := context.Background()

		_, _, _, err := service.HandleInbound(ctx, InboundMessage{
			FromEmail: "alice@example.com",
			ToEmails:  []string{"assistant@example.com", "bob@example.com", "carol@example.com"},
			Subject:   "Roadmap review",
			BodyText:  "Can you find a time for us?",
		})
		if err != nil {
			t.Fatalf("opening message returned error: %v", err)
		}

		replies := []struct {
			from string
			body string
		}{
			{"bob@example.com", "Tue, 02/17: 1pm–3pm"},
			{"carol@example.com", "Tue, 02/17: 2pm–2:30pm"},
			{"alice@example.com", "Tue, 02/17: 1pm–3pm"},
		}

		var plan *SchedulePlan
		for _, reply := range replies {
			var handled bool
			handled, _, plan, err = service.HandleInbound(ctx, InboundMessage{
				ThreadID:  "thread-001",
				FromEmail: reply.from,
				BodyText:  reply.body,
			})
			if err != nil {
				t.Fatalf("reply from %s returned error: %v", reply.from, err)
			}
			if !handled {
				t.Fatalf("reply from %s not handled", reply.from)
			}
		}

		if plan == nil {
			t.Fatalf("expected a plan after all replies")
		}
		loc, _ := time.LoadLocation("America/New_York")
		wantStart := time.Date(2026, time.February, 17, 14, 0, 0, 0, loc)
		if !plan.Start.Equal(wantStart) {
			t.Fatalf("expected start %v, got %v", wantStart, plan.Start)
		}

		thread, err := store.Get(ctx, "thread-001")
		if err != nil || thread == nil {
			t.Fatalf("thread not stored: %v %v", thread, err)
		}
		if thread.Status != StatusScheduled {
			t.Fatalf("expected SCHEDULED, got %s", thread.Status)
		}
	})
}

func TestBuildParticipants(t *testing.T) {
	t.Parallel()

	participants := BuildParticipants(
		"Alice@Example.com",
		[]string{"assistant@example.com", "bob@example.com"},
		[]string{"BOB@example.com", "", "carol@example.com"},
		"Assistant@Example.com",
	)

	if len(participants) != 3 {
		t.Fatalf("expected 3 participants, got %d", len(participants))
	}
	for _, email := range []string{"alice@example.com", "bob@example.com", "carol@example.com"} {
		if _, ok := participants[email]; !ok {
			t.Fatalf("missing participant %s", email)
		}
	}
	if _, ok := participants["assistant@example.com"]; ok {
		t.Fatalf("assistant must not join the roster")
	}
}

func TestLooksLikeCoordinationRequest(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name         string
		hint         *Hint
		body         string
		participants int
		want         bool
	}{
		{"keyword with enough participants", nil, "please find a time for us", 2, true},
		{"intent with enough participants", &Hint{Intent: "COORDINATE_MEETING"}, "hello", 3, true},
		{"too few participants", &Hint{Intent: "COORDINATE_MEETING"}, "find a time", 1, false},
		{"no signal", nil, "see you there", 4, false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := LooksLikeCoordinationRequest(tc.hint, tc.body, tc.participants); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
