package coordination

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// coordinationKeywords are body-text signals that a message opens a
// multi-participant scheduling negotiation, used when no AI intent is
// available.
var coordinationKeywords = []string{
	"coordinate",
	"find a time",
	"schedule us",
	"schedule a time",
	"availability",
}

// coordinationIntents are AI-hint intents recognised as coordination signals.
var coordinationIntents = map[string]bool{
	"COORDINATE_MEETING":           true,
	"MULTI_PARTICIPANT_SCHEDULING": true,
	"NEW_REQUEST":                  true,
}

// Service is the top-level entry point gluing roster construction, thread
// creation and the decision handler together for one inbound message.
type Service struct {
	store          ThreadStore
	handler        *Handler
	assistantEmail string
	defaultTZ      string
	idGenerator    func() string
	now            func() time.Time
}

// NewService wires the coordination service. assistantEmail identifies the
// assistant's own address so it is never added to a roster. A nil idGenerator
// falls back to random UUIDs; a nil now falls back to time.Now.
func NewService(store ThreadStore, coordinator *Coordinator, assistantEmail, defaultTZ string, idGenerator func() string, now func() time.Time) *Service {
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:          store,
		handler:        NewHandler(store, coordinator, now),
		assistantEmail: strings.ToLower(strings.TrimSpace(assistantEmail)),
		defaultTZ:      defaultTZ,
		idGenerator:    idGenerator,
		now:            now,
	}
}

// HandleInbound decides whether the message belongs to (or opens) a
// coordination thread and runs the decision handler. The boolean result
// reports whether the message was handled as coordination traffic at all.
func (s *Service) HandleInbound(ctx context.Context, msg InboundMessage) (bool, []OutboundMessage, *SchedulePlan, error) {
	threadID := msg.ThreadID
	if strings.TrimSpace(threadID) == "" {
		threadID = s.idGenerator()
	}

	existing, err := s.store.Get(ctx, threadID)
	if err != nil {
		return false, nil, nil, fmt.Errorf("coordination: load thread %s: %w", threadID, err)
	}

	participants := BuildParticipants(msg.FromEmail, msg.ToEmails, msg.CcEmails, s.assistantEmail)

	isNewRequest := existing == nil && LooksLikeCoordinationRequest(msg.Hint, msg.BodyText, len(participants))

	if isNewRequest {
		tz := s.defaultTZ
		if msg.Hint != nil && strings.TrimSpace(msg.Hint.Timezone) != "" {
			tz = msg.Hint.Timezone
		}
		thread := NewMeetingThread(threadID, strings.ToLower(strings.TrimSpace(msg.FromEmail)), participants, tz, msg.Subject, s.now())
		if err := s.store.Put(ctx, thread); err != nil {
			return false, nil, nil, fmt.Errorf("coordination: create thread %s: %w", threadID, err)
		}
	} else if existing == nil {
		return false, nil, nil, nil
	}

	msg.ThreadID = threadID
	msg.IsNewRequest = isNewRequest

	outbound, plan, err := s.handler.Handle(ctx, msg)
	if err != nil {
		return true, nil, nil, err
	}
	return true, outbound, plan, nil
}

// BuildParticipants assembles the thread roster from the sender and all
// recipients, excluding the assistant's own address, keyed and de-duplicated
// by lower-cased email.
func BuildParticipants(fromEmail string, toEmails, ccEmails []string, assistantEmail string) map[string]*Participant {
	assistant := strings.ToLower(strings.TrimSpace(assistantEmail))

	all := make([]string, 0, 1+len(toEmails)+len(ccEmails))
	all = append(all, fromEmail)
	all = append(all, toEmails...)
	all = append(all, ccEmails...)

	participants := make(map[string]*Participant)
	for _, email := range all {
		normalized := strings.ToLower(strings.TrimSpace(email))
		if normalized == "" || normalized == assistant {
			continue
		}
		if _, ok := participants[normalized]; ok {
			continue
		}
		participants[normalized] = &Participant{Email: normalized, Status: ParticipantPending}
	}
	return participants
}

// LooksLikeCoordinationRequest reports whether the message should open a
// multi-participant negotiation: at least two non-assistant participants and
// either an AI coordination intent or coordination keywords in the body.
func LooksLikeCoordinationRequest(hint *Hint, bodyText string, participantCount int) bool {
	if participantCount < 2 {
		return false
	}

	if hint != nil && coordinationIntents[hint.Intent] {
		return true
	}

	lowered := strings.ToLower(bodyText)
	for _, keyword := range coordinationKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}
