package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/meeting-coordinator/internal/coordination"
)

// Service runs the single-counterpart fallback over persisted per-sender
// state. The transport shell consults it after the coordination service
// declines a message.
type Service struct {
	store     ContextStore
	defaultTZ string
	now       func() time.Time
}

// NewService wires the fallback service. A nil now falls back to time.Now.
func NewService(store ContextStore, defaultTZ string, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, defaultTZ: defaultTZ, now: now}
}

// Reply advances the sender's conversation with one inbound message and
// renders the assistant's answer as an outbound message addressed back to the
// sender. The updated conversation state is persisted before returning.
func (s *Service) Reply(ctx context.Context, senderEmail, subject, bodyText string) (coordination.OutboundMessage, error) {
	sender := NormalizeSender(senderEmail)

	conv, err := s.store.Get(ctx, sender)
	if err != nil {
		return coordination.OutboundMessage{}, fmt.Errorf("conversation: load state for %s: %w", sender, err)
	}
	if conv == nil {
		conv = NewContext(s.defaultTZ)
	}

	localNow := s.now()
	if loc, locErr := time.LoadLocation(conv.Timezone); locErr == nil {
		localNow = localNow.In(loc)
	}

	result := HandleMessage(conv, bodyText, localNow)

	if err := s.store.Put(ctx, sender, conv); err != nil {
		return coordination.OutboundMessage{}, fmt.Errorf("conversation: save state for %s: %w", sender, err)
	}

	return coordination.OutboundMessage{
		To:      []string{sender},
		Subject: replySubject(subject),
		Body:    result.Reply,
	}, nil
}

func replySubject(subject string) string {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "Scheduling"
	}
	if strings.HasPrefix(strings.ToLower(subject), "re:") {
		return subject
	}
	return "Re: " + subject
}
