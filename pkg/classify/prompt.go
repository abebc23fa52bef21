package classify

import (
	"strconv"
	"strings"
)

// response is the JSON schema the model is required to return.
type response struct {
	TopicInput     string   `json:"topic_input"`
	MainTopic      string   `json:"main_topic"`
	SpecificFocus  *string  `json:"specific_focus"`
	Confidence     *float64 `json:"confidence"`
	RationaleShort string   `json:"rationale_short"`
}

// systemPrompt builds the deterministic system prompt: the full controlled
// vocabulary and the required output schema. Identical input always yields
// an identical prompt so runs stay reproducible.
func systemPrompt() string {
	var b strings.Builder
	b.WriteString("You classify European Parliament plenary agenda topics.\n")
	b.WriteString("Assign the topic to exactly one of the following policy areas. ")
	b.WriteString("Never invent a label; answer with one of these verbatim:\n\n")
	for i, label := range Vocabulary {
		b.WriteString("  ")
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". ")
		b.WriteString(label)
		b.WriteString("\n")
	}
	b.WriteString("\nReturn ONLY valid JSON with this exact shape:\n")
	b.WriteString(`{"topic_input": string, "main_topic": <one of the labels above>, ` +
		`"specific_focus": string|null, "confidence": number between 0 and 1, ` +
		`"rationale_short": string of at most 15 words}`)
	b.WriteString("\nNo markdown, no commentary, no extra keys.")
	return b.String()
}

// userPrompt builds the per-topic user message.
func userPrompt(topic string) string {
	return "Topic: " + strings.TrimSpace(topic)
}
