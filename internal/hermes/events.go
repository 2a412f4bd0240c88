package hermes

import "time"

// Subjects published and consumed by persona.
const (
	SubjectProfileExtracted = "persona.profile.extracted"
	SubjectChatFeedback     = "persona.chat.feedback"
	SubjectReportGenerated  = "persona.report.generated"
	SubjectReportRequested  = "persona.report.requested"
	SubjectChatReaction     = "persona.chat.reaction"
)

// ProfileExtracted is emitted after a new profile replaces the stored one.
type ProfileExtracted struct {
	SchemaVersion int       `json:"schema_version"`
	Fields        int       `json:"fields"`
	Repairs       int       `json:"repairs"`
	Summary       string    `json:"summary"`
	ExtractedAt   time.Time `json:"extracted_at"`
}

// ChatFeedback is emitted whenever a reaction is recorded on a message.
type ChatFeedback struct {
	Subject   string `json:"subject"`
	Date      string `json:"date"`
	Index     int    `json:"index"`
	MessageID string `json:"message_id"`
	Role      string `json:"role"`
	Verdict   string `json:"verdict"`
}

// ReportGenerated is emitted after a study-behavior report is saved.
type ReportGenerated struct {
	Subject            string `json:"subject"`
	Date               string `json:"date"`
	EstimatedStudyTime string `json:"estimated_study_time"`
	ActiveMinutes      int    `json:"active_minutes"`
}

// ReportRequested asks the service to summarise one subject/date partition.
type ReportRequested struct {
	Subject string `json:"subject"`
	Date    string `json:"date"`
}

// ChatReaction is an inbound reaction from a chat surface, e.g. an emoji
// name such as "+1" or "thumbsdown".
type ChatReaction struct {
	Subject  string `json:"subject"`
	Date     string `json:"date"`
	Index    int    `json:"index"`
	Reaction string `json:"reaction"`
}
