package chat

import "strings"

const systemPrompt = `You are a CRM assistant for a real-estate brokerage. You answer questions
about the team's HubSpot data: companies, contacts, properties, deals,
activities, and the sales reps who own them.

Rules:
- Figures under AUTHORITATIVE COUNTS are exact database counts. Use them
  verbatim for any "how many" question.
- RELATED RECORDS are a similarity sample. Quote them, but never count or
  total them; the sample is not the full data set.
- If the context does not contain what the question needs, say the data is
  not available rather than guessing.
- Be concise and concrete. Use names and numbers from the context.`

const unavailableAnswer = "I wasn't able to reach the CRM data just now. Please try again in a moment."

func buildUserPrompt(contextBlock, question string) string {
	var b strings.Builder
	if strings.TrimSpace(contextBlock) != "" {
		b.WriteString("Context:\n")
		b.WriteString(contextBlock)
		b.WriteString("\n\n")
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}

// sessionTitle derives a short title from the first message.
func sessionTitle(firstMessage string) string {
	words := strings.Fields(strings.TrimSpace(firstMessage))
	if len(words) == 0 {
		return "New conversation"
	}
	if len(words) > 8 {
		words = words[:8]
	}
	title := strings.Join(words, " ")
	if len(title) > 80 {
		title = title[:80]
	}
	return title
}
