package coordination

import "time"

// Outbound message bodies are fixed templates; natural-language generation of
// replies is out of scope.

func availabilityRequestBody(deadline *time.Time, tzName string) string {
	deadlineStr := "soon"
	if deadline != nil {
		deadlineStr = deadline.Format("Mon 01/02 3:04PM") + " " + tzName
	}
	return "Hi everyone — I'll coordinate this meeting.\n\n" +
		"Please reply with your availability using this format (one or more lines):\n\n" +
		"Day, MM/DD: start–end, start–end\n\n" +
		"Examples:\n" +
		"Tue, 02/11: 1pm–3pm, 4:30pm–5pm\n" +
		"Wed, 02/12: 9–11am\n\n" +
		"Notes:\n" +
		"- You can write `4–5pm` or `4pm–5pm` — I'll interpret both.\n" +
		"- You can include multiple days.\n\n" +
		"Please reply by " + deadlineStr + " so I can schedule promptly.\n"
}

func clarificationBody(question string) string {
	if question == "" {
		question = "Could you clarify?"
	}
	return "Quick clarification so I don't schedule the wrong time:\n\n" + question + "\n"
}

func scheduledBody(startStr, endStr, tzName, rationale string) string {
	return "Thanks everyone — I've scheduled the meeting for:\n\n" +
		startStr + " – " + endStr + " (" + tzName + ")\n\n" +
		"Rationale: " + rationale + "\n"
}

func noOverlapBody() string {
	return "I couldn't find any overlapping availability across everyone's replies.\n\n" +
		"Could each of you share a few additional time windows (same format as before), " +
		"and I'll try again?\n"
}
