// Package conversation implements the single-counterpart fallback used when a
// scheduling exchange never escalates to multi-party coordination. It reuses
// the coordination package's parsers so ambiguity rules stay in one place.
package conversation

import (
	"fmt"
	"strings"
	"time"

	"github.com/example/meeting-coordinator/internal/coordination"
)

// State tracks the progress of a single-counterpart conversation.
type State string

const (
	StateIntentDetection   State = "INTENT_DETECTION"
	StateInfoGathering     State = "INFO_GATHERING"
	StateConfirmationCheck State = "CONFIRMATION_CHECK"
)

// Intent is the recognised purpose of the conversation.
type Intent string

const (
	IntentUnknown    Intent = "unknown"
	IntentSchedule   Intent = "schedule"
	IntentReschedule Intent = "reschedule"
)

// TimeSpec holds the time information gathered so far, as the participant
// expressed it, together with the timezone it is interpreted in.
type TimeSpec struct {
	Windows  []coordination.TimeWindow
	Timezone string
}

// WorkingMemory accumulates the fields needed before a meeting can be set up.
type WorkingMemory struct {
	Intent          Intent
	Participants    []string
	Time            *TimeSpec
	DurationMinutes int
	Subject         string
}

// Context is the persistent state of one conversation.
type Context struct {
	State    State
	Memory   WorkingMemory
	Timezone string
}

// NewContext returns a conversation at the intent-detection stage.
func NewContext(timezone string) *Context {
	return &Context{
		State:    StateIntentDetection,
		Memory:   WorkingMemory{Intent: IntentUnknown, DurationMinutes: coordination.DefaultDurationMinutes},
		Timezone: timezone,
	}
}

// Clone returns a deep copy so stored conversation state cannot be mutated
// through retained references.
func (c *Context) Clone() *Context {
	if c == nil {
		return nil
	}
	out := *c
	out.Memory.Participants = append([]string(nil), c.Memory.Participants...)
	if c.Memory.Time != nil {
		spec := *c.Memory.Time
		spec.Windows = append([]coordination.TimeWindow(nil), c.Memory.Time.Windows...)
		out.Memory.Time = &spec
	}
	return &out
}

// Result is the outcome of handling one message: a reply to send and whether
// the conversation has gathered everything needed to execute.
type Result struct {
	Reply string
	Ready bool
}

// HandleMessage advances the conversation with one inbound message. now must
// already be located in the conversation's timezone.
func HandleMessage(ctx *Context, text string, now time.Time) Result {
	cleaned := coordination.CleanReplyText(text)

	if ctx.State == StateIntentDetection {
		ctx.Memory.Intent = inferIntent(cleaned)
		ctx.State = StateInfoGathering
	}

	absorbParticipants(ctx, cleaned)
	if reply, asked := absorbTime(ctx, cleaned, now); asked {
		return Result{Reply: reply}
	}
	if minutes, ok := coordination.ParseDurationMinutes(cleaned); ok {
		ctx.Memory.DurationMinutes = minutes
	}

	if missing := missingFields(ctx); len(missing) > 0 {
		return Result{Reply: askForMissing(missing[0])}
	}

	ctx.State = StateConfirmationCheck
	return Result{Reply: confirmSummary(ctx), Ready: true}
}

// absorbTime extracts availability from the message using the shared parsers,
// following the same precedence as the coordination handler: structured
// day-list text first, then natural-language constraints. When the parsers
// report ambiguity the clarification question is relayed verbatim.
func absorbTime(ctx *Context, text string, now time.Time) (string, bool) {
	if ctx.Memory.Time != nil {
		return "", false
	}

	result := coordination.ParseAvailability(text, now)
	if len(result.Windows) > 0 {
		ctx.Memory.Time = &TimeSpec{Windows: result.Windows, Timezone: ctx.Timezone}
		return "", false
	}
	if result.NeedsClarification {
		return result.ClarificationQuestion, true
	}

	windows, question := coordination.ParseConstraints(text, now)
	if len(windows) > 0 {
		ctx.Memory.Time = &TimeSpec{Windows: windows, Timezone: ctx.Timezone}
		return "", false
	}
	if question != "" {
		return question, true
	}
	return "", false
}

func absorbParticipants(ctx *Context, text string) {
	for _, token := range strings.Fields(text) {
		token = strings.Trim(token, ",;:()<>?.!")
		if strings.Count(token, "@") != 1 || strings.HasPrefix(token, "@") || strings.HasSuffix(token, "@") {
			continue
		}
		normalized := strings.ToLower(token)
		if !contains(ctx.Memory.Participants, normalized) {
			ctx.Memory.Participants = append(ctx.Memory.Participants, normalized)
		}
	}
}

func inferIntent(text string) Intent {
	t := strings.ToLower(text)
	if strings.Contains(t, "reschedule") {
		return IntentReschedule
	}
	if strings.Contains(t, "schedule") || strings.Contains(t, "meeting") {
		return IntentSchedule
	}
	return IntentUnknown
}

func missingFields(ctx *Context) []string {
	var missing []string
	if len(ctx.Memory.Participants) == 0 {
		missing = append(missing, "participants")
	}
	if ctx.Memory.Time == nil {
		missing = append(missing, "time")
	}
	return missing
}

func askForMissing(field string) string {
	switch field {
	case "participants":
		return "Who should be in the meeting?"
	case "time":
		return "When should it be scheduled?"
	}
	return "Can you provide more details?"
}

func confirmSummary(ctx *Context) string {
	return fmt.Sprintf("I am ready to schedule the meeting with %s.", strings.Join(ctx.Memory.Participants, ", "))
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
