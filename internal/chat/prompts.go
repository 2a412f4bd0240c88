package chat

import (
	"encoding/json"
	"fmt"

	"github.com/MikeSquared-Agency/persona/internal/schema"
)

const systemPromptTemplate = `You are Persona AI, a personalized learning assistant. You are helping a student with the subject %q.

Here is the student's learning profile, extracted from an interview:
%s

Always use this profile to tailor your responses. Respond in the tone the student prefers, match their preferred level of detail and pacing, and present content according to their learning preferences (examples, analogies, structure). Stay on the subject of %q; if the conversation drifts, gently bring it back.`

const noProfile = `(no profile available yet; ask the student how they like to learn when it helps)`

// NoTextReply is stored as the assistant message when the model returns
// nothing usable.
const NoTextReply = "Sorry, I could not generate a response. Please try again."

func systemPrompt(subject string, p *schema.Profile) string {
	body := noProfile
	if p != nil {
		if data, err := json.MarshalIndent(p, "", "  "); err == nil {
			body = string(data)
		}
	}
	return fmt.Sprintf(systemPromptTemplate, subject, body, subject)
}

func transportReply(err error) string {
	return "Error: " + err.Error()
}
