package chat

import (
	"encoding/json"
	"time"

	"github.com/MikeSquared-Agency/persona/internal/feedback"
	"github.com/MikeSquared-Agency/persona/internal/schema"
)

// DateLayout is the format of date-partition keys.
const DateLayout = "2006-01-02"

type Message struct {
	ID        string    `json:"id,omitempty"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"timestamp"`
	// Feedback starts zeroed on assistant messages and is nil on user messages until rated.
	Feedback *feedback.Counts `json:"feedback,omitempty"`
}

// Log is one subject's conversation, keyed by date.
type Log map[string][]Message

// UnmarshalJSON skips top-level entries that are not message lists, so
// documents carrying extra summary keys still load.
func (l *Log) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Log, len(raw))
	for date, body := range raw {
		var msgs []Message
		if err := json.Unmarshal(body, &msgs); err != nil {
			continue
		}
		out[date] = msgs
	}
	*l = out
	return nil
}

// subjectField holds the display name inside a stored conversation. It can
// never collide with a date key.
const subjectField = "subject"

// document is one subject's stored conversation: the date partitions plus
// the subject's display name, since document keys are not reversible.
type document struct {
	Subject string
	Log     Log
}

func (d document) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Log)+1)
	for date, msgs := range d.Log {
		out[date] = msgs
	}
	if d.Subject != "" {
		out[subjectField] = d.Subject
	}
	return json.Marshal(out)
}

func (d *document) UnmarshalJSON(data []byte) error {
	var head map[string]json.RawMessage
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	var subject string
	if raw, ok := head[subjectField]; ok {
		_ = json.Unmarshal(raw, &subject)
	}
	var log Log
	if err := json.Unmarshal(data, &log); err != nil {
		return err
	}
	if log == nil {
		log = Log{}
	}
	d.Subject, d.Log = subject, log
	return nil
}

// Reactions returns the feedback records per date, for tallying.
func (l Log) Reactions() map[string][]*feedback.Counts {
	out := make(map[string][]*feedback.Counts, len(l))
	for date, msgs := range l {
		counts := make([]*feedback.Counts, len(msgs))
		for i := range msgs {
			counts[i] = msgs[i].Feedback
		}
		out[date] = counts
	}
	return out
}

// Session is the explicit context a reply is produced in.
type Session struct {
	Subject string
	Date    string
	// Profile is nil when no profile has been extracted yet.
	Profile *schema.Profile
}
