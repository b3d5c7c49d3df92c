package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/meeting-coordinator/internal/coordination"
)

type stubService struct {
	lastMessage coordination.InboundMessage
	handled     bool
	outbound    []coordination.OutboundMessage
	plan        *coordination.SchedulePlan
	err         error
}

func (s *stubService) HandleInbound(_ context.Context, msg coordination.InboundMessage) (bool, []coordination.OutboundMessage, *coordination.SchedulePlan, error) {
	s.lastMessage = msg
	return s.handled, s.outbound, s.plan, s.err
}

type stubConversation struct {
	lastSender string
	lastBody   string
	reply      coordination.OutboundMessage
	err        error
}

func (s *stubConversation) Reply(_ context.Context, senderEmail, _, bodyText string) (coordination.OutboundMessage, error) {
	s.lastSender = senderEmail
	s.lastBody = bodyText
	return s.reply, s.err
}

func newTestRouter(service *stubService, fallback ConversationService) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(RouterConfig{
		Inbound:    NewInboundHandler(service, fallback, logger),
		Middleware: []func(http.Handler) http.Handler{RequestLogger(logger)},
	})
}

func TestInboundHandler_Handle(t *testing.T) {
	t.Parallel()

	t.Run("accepts a full payload and echoes the engine result", func(t *testing.T) {
		t.Parallel()
		start := time.Date(2026, time.February, 14, 15, 0, 0, 0, time.UTC)
		service := &stubService{
			handled: true,
			outbound: []coordination.OutboundMessage{{
				To:      []string{"bob@example.com"},
				Subject: "Project sync — availability",
				Body:    "please reply",
			}},
			plan: &coordination.SchedulePlan{Start: start, End: start.Add(30 * time.Minute), Rationale: "Explicit time requested by organizer."},
		}
		router := newTestRouter(service, nil)

		payload := `{
			"thread_id": "thread-1",
			"from_email": "alice@example.com",
			"to_emails": ["assistant@example.com", "bob@example.com"],
			"subject": "Project sync",
			"body_text": "Saturday at 3pm please",
			"ai_parsed": {
				"intent": "COORDINATE_MEETING",
				"candidates": [{"start_local": "Saturday 3:00 PM", "end_local": "Saturday 3:30 PM", "confidence": 0.9}]
			}
		}`
		req := httptest.NewRequest(http.MethodPost, "/inbound", strings.NewReader(payload))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp inboundResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if !resp.Handled {
			t.Fatalf("expected handled=true")
		}
		if len(resp.Outbound) != 1 || resp.Outbound[0].To[0] != "bob@example.com" {
			t.Fatalf("unexpected outbound: %+v", resp.Outbound)
		}
		if resp.Plan == nil || !resp.Plan.Start.Equal(start) {
			t.Fatalf("unexpected plan: %+v", resp.Plan)
		}

		if service.lastMessage.ThreadID != "thread-1" || service.lastMessage.FromEmail != "alice@example.com" {
			t.Fatalf("message not forwarded: %+v", service.lastMessage)
		}
		if service.lastMessage.Hint == nil || len(service.lastMessage.Hint.Candidates) != 1 {
			t.Fatalf("hint not forwarded: %+v", service.lastMessage.Hint)
		}
	})

	t.Run("declined messages fall through to the conversation fallback", func(t *testing.T) {
		t.Parallel()
		service := &stubService{handled: false}
		fallback := &stubConversation{
			reply: coordination.OutboundMessage{
				To:      []string{"dave@example.com"},
				Subject: "Re: Lunch plans",
				Body:    "Who should be in the meeting?",
			},
		}
		router := newTestRouter(service, fallback)

		payload := `{
			"from_email": "dave@example.com",
			"to_emails": ["assistant@example.com"],
			"subject": "Lunch plans",
			"body_text": "Can we set something up tomorrow morning?"
		}`
		req := httptest.NewRequest(http.MethodPost, "/inbound", strings.NewReader(payload))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp inboundResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if !resp.Handled {
			t.Fatalf("expected fallback traffic to be reported as handled")
		}
		if len(resp.Outbound) != 1 || resp.Outbound[0].To[0] != "dave@example.com" {
			t.Fatalf("unexpected outbound: %+v", resp.Outbound)
		}
		if resp.Outbound[0].Body != "Who should be in the meeting?" {
			t.Fatalf("unexpected reply body: %q", resp.Outbound[0].Body)
		}
		if fallback.lastSender != "dave@example.com" {
			t.Fatalf("fallback not consulted for sender: %q", fallback.lastSender)
		}
		if fallback.lastBody != "Can we set something up tomorrow morning?" {
			t.Fatalf("fallback body not forwarded: %q", fallback.lastBody)
		}
	})

	t.Run("claimed messages never reach the fallback", func(t *testing.T) {
		t.Parallel()
		service := &stubService{handled: true}
		fallback := &stubConversation{}
		router := newTestRouter(service, fallback)

		req := httptest.NewRequest(http.MethodPost, "/inbound", strings.NewReader(`{"from_email":"alice@example.com"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if fallback.lastSender != "" {
			t.Fatalf("fallback should not have been consulted, saw sender %q", fallback.lastSender)
		}
	})

	t.Run("without a fallback declined messages stay unhandled", func(t *testing.T) {
		t.Parallel()
		router := newTestRouter(&stubService{handled: false}, nil)

		req := httptest.NewRequest(http.MethodPost, "/inbound", strings.NewReader(`{"from_email":"alice@example.com"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var resp inboundResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Handled {
			t.Fatalf("expected handled=false without a fallback")
		}
	})

	t.Run("fallback failures map to 500", func(t *testing.T) {
		t.Parallel()
		router := newTestRouter(&stubService{handled: false}, &stubConversation{err: context.DeadlineExceeded})

		req := httptest.NewRequest(http.MethodPost, "/inbound", strings.NewReader(`{"from_email":"alice@example.com"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
	})

	t.Run("rejects a payload without a sender", func(t *testing.T) {
		t.Parallel()
		router := newTestRouter(&stubService{}, nil)

		req := httptest.NewRequest(http.MethodPost, "/inbound", strings.NewReader(`{"subject":"hi"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		t.Parallel()
		router := newTestRouter(&stubService{}, nil)

		req := httptest.NewRequest(http.MethodPost, "/inbound", strings.NewReader("{not json"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("rejects non-POST methods", func(t *testing.T) {
		t.Parallel()
		router := newTestRouter(&stubService{}, nil)

		req := httptest.NewRequest(http.MethodGet, "/inbound", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("engine failures map to 500", func(t *testing.T) {
		t.Parallel()
		router := newTestRouter(&stubService{err: context.DeadlineExceeded}, nil)

		req := httptest.NewRequest(http.MethodPost, "/inbound", strings.NewReader(`{"from_email":"alice@example.com"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
	})
}

func TestRouter_Healthz(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&stubService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"status":"ok"}` {
		t.Fatalf("unexpected body: %q", got)
	}
}
