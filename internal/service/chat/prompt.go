package chat

import (
	"fmt"
	"strings"
)

const promptTemplate = `You are a professional medical assistant. Provide clear, concise, and non-alarming guidance.
%s

Patient Input: "%s"
Relevant Medical Information (from local RAG): "%s"

Instructions:
- If the question is "is it normal?", use the provided context if available.
- Give practical next steps, red flags to watch for, and when to seek in-person care.
- Keep it friendly and brief.`

// BuildPrompt assembles the LLM prompt. lastContext is only included for
// follow-ups asking whether something is normal.
func BuildPrompt(message, advice, lastContext string) string {
	contextBlock := ""
	if lastContext != "" && strings.Contains(strings.ToLower(message), "normal") {
		contextBlock = "Patient previously received this data: " + lastContext
	}
	return fmt.Sprintf(promptTemplate, contextBlock, message, advice)
}
