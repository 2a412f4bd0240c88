package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/persona/internal/chat"
	"github.com/MikeSquared-Agency/persona/internal/llm"
)

const analystFraming = `You are a learning analyst. Review one day of a student's study chat with their AI tutor for the subject %q on %s and describe their study behavior.`

const timeInstruction = `## ACTIVE STUDY TIME
Estimate the elapsed active study time from the timestamps: gaps longer than %d minutes are breaks, not study. Timestamps suggest %d study session(s) totalling about %s.`

const reportContract = `## OUTPUT FORMAT
Return ONLY a JSON object with exactly these keys, no markdown code fences and no explanations:
{
  "summary": "2-3 sentences on what the student worked on and how it went",
  "topics": ["topics covered"],
  "estimated_study_time": "active study time, e.g. \"1h 20m\"",
  "confidence": "integer 1-10, how confident the student seemed",
  "satisfaction": "integer 1-10, how satisfied the student seemed with the help",
  "mood": "one or two words",
  "improvements": ["concrete suggestions for the next session"]
}`

func buildPrompt(subject, date string, msgs []chat.Message, gap time.Duration) string {
	sessions := SplitSessions(msgs, gap)
	var active time.Duration
	for _, s := range sessions {
		active += s.Duration()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, analystFraming, subject, date)
	sb.WriteString("\n\n## TRANSCRIPT\n")
	for _, m := range msgs {
		speaker := "Student"
		if m.Role == llm.RoleAssistant {
			speaker = "Tutor"
		}
		stamp := "--:--"
		if !m.CreatedAt.IsZero() {
			stamp = m.CreatedAt.Format("15:04")
		}
		fmt.Fprintf(&sb, "[%s] %s: %s\n", stamp, speaker, m.Content)
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, timeInstruction, int(gap.Minutes()), len(sessions), FormatDuration(active))
	sb.WriteString("\n\n")
	sb.WriteString(reportContract)
	sb.WriteString("\n")
	return sb.String()
}
