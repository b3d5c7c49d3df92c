package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/meeting-coordinator/internal/coordination"
)

// CoordinationService is the slice of the coordination engine the transport
// layer depends on.
type CoordinationService interface {
	HandleInbound(ctx context.Context, msg coordination.InboundMessage) (bool, []coordination.OutboundMessage, *coordination.SchedulePlan, error)
}

// ConversationService is the single-counterpart fallback consulted when the
// coordination engine declines a message.
type ConversationService interface {
	Reply(ctx context.Context, senderEmail, subject, bodyText string) (coordination.OutboundMessage, error)
}

// InboundHandler accepts inbound email events and runs them through the
// coordination engine, falling back to the conversation service for traffic
// the engine does not claim. Message retrieval, envelope parsing and outbound
// delivery remain the caller's responsibility; this endpoint only carries the
// engine's input and output contracts over HTTP.
type InboundHandler struct {
	service   CoordinationService
	fallback  ConversationService
	responder responder
}

// NewInboundHandler wires the handler. fallback may be nil, in which case
// declined messages are reported as unhandled.
func NewInboundHandler(service CoordinationService, fallback ConversationService, logger *slog.Logger) *InboundHandler {
	return &InboundHandler{service: service, fallback: fallback, responder: newResponder(logger)}
}

type candidatePayload struct {
	StartLocal string  `json:"start_local"`
	EndLocal   string  `json:"end_local"`
	Confidence float64 `json:"confidence"`
	SourceText string  `json:"source_text"`
}

type hintPayload struct {
	Intent             string             `json:"intent"`
	NeedsClarification bool               `json:"needs_clarification"`
	ClarifyingQuestion string             `json:"clarifying_question"`
	Timezone           string             `json:"timezone"`
	Candidates         []candidatePayload `json:"candidates"`
}

type inboundPayload struct {
	ThreadID string       `json:"thread_id"`
	From     string       `json:"from_email"`
	To       []string     `json:"to_emails"`
	Cc       []string     `json:"cc_emails"`
	Subject  string       `json:"subject"`
	BodyText string       `json:"body_text"`
	AIParsed *hintPayload `json:"ai_parsed"`
}

type outboundPayload struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

type planPayload struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Rationale string    `json:"rationale"`
}

type inboundResponse struct {
	Handled  bool              `json:"handled"`
	Outbound []outboundPayload `json:"outbound"`
	Plan     *planPayload      `json:"plan,omitempty"`
}

// Handle processes POST /inbound.
func (h *InboundHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload inboundPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	if payload.From == "" {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errors.New("from_email is required"))
		return
	}

	msg := coordination.InboundMessage{
		ThreadID:  payload.ThreadID,
		FromEmail: payload.From,
		ToEmails:  payload.To,
		CcEmails:  payload.Cc,
		Subject:   payload.Subject,
		BodyText:  payload.BodyText,
		Hint:      payload.AIParsed.toDomain(),
	}

	handled, outbound, plan, err := h.service.HandleInbound(ctx, msg)
	if err != nil {
		h.responder.writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}

	if !handled && h.fallback != nil {
		reply, replyErr := h.fallback.Reply(ctx, payload.From, payload.Subject, payload.BodyText)
		if replyErr != nil {
			h.responder.writeError(ctx, w, http.StatusInternalServerError, replyErr)
			return
		}
		handled = true
		outbound = append(outbound, reply)
	}

	resp := inboundResponse{Handled: handled, Outbound: make([]outboundPayload, 0, len(outbound))}
	for _, out := range outbound {
		resp.Outbound = append(resp.Outbound, outboundPayload{To: out.To, Subject: out.Subject, Body: out.Body})
	}
	if plan != nil {
		resp.Plan = &planPayload{Start: plan.Start, End: plan.End, Rationale: plan.Rationale}
	}

	h.responder.writeJSON(ctx, w, http.StatusOK, resp)
}

func (p *hintPayload) toDomain() *coordination.Hint {
	if p == nil {
		return nil
	}
	hint := &coordination.Hint{
		Intent:             p.Intent,
		NeedsClarification: p.NeedsClarification,
		ClarifyingQuestion: p.ClarifyingQuestion,
		Timezone:           p.Timezone,
	}
	for _, c := range p.Candidates {
		hint.Candidates = append(hint.Candidates, coordination.Candidate{
			StartLocal: c.StartLocal,
			EndLocal:   c.EndLocal,
			Confidence: c.Confidence,
			SourceText: c.SourceText,
		})
	}
	return hint
}
