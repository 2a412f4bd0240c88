package extractor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MikeSquared-Agency/persona/internal/schema"
)

const roleFraming = `You are an expert educational psychologist analyzing a student's interview responses to build their structured learning profile.

## YOUR TASK
Carefully read all interview responses and extract the student's learning preferences into the JSON schema provided below. Interpret open-ended answers intelligently and infer the best matching values.`

const importantNotes = `## IMPORTANT NOTES
- If information for a field is not available, use %q for text, categorical and boolean fields and null for numeric fields
- The situational questions (planning a week, structuring study time, ideal environment) reveal a lot about study behavior, attention span and emotional patterns; analyze them carefully
- Look for patterns across multiple answers that point to the same preference
- Descriptions of good learning moments versus difficult moments reveal learning preferences
- The %q field is ALWAYS required, even when most other fields are unknown`

const outputContract = `## OUTPUT FORMAT
Return ONLY valid JSON that matches the schema structure, with %q as the single top-level key. No markdown code fences, no explanations, just the JSON object. Do not add fields that are not in the schema.`

// BuildPrompt assembles the one-shot extraction instruction for a set of
// interview answers.
func BuildPrompt(s *schema.Schema, responses map[string]any) (string, error) {
	answers, err := json.MarshalIndent(responses, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode responses: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(roleFraming)
	sb.WriteString("\n\n## TARGET SCHEMA\n")
	sb.WriteString(s.PromptJSON())
	sb.WriteString("\n\n## EXTRACTION RULES\n\n")
	sb.WriteString(s.Rubric())
	sb.WriteString("\n## INTERVIEW RESPONSES TO ANALYZE\n")
	sb.Write(answers)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, importantNotes, s.Unknown, schema.SummaryKey)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, outputContract, schema.RootKey)
	sb.WriteString("\n")
	return sb.String(), nil
}
