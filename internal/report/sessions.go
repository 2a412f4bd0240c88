package report

import (
	"fmt"
	"time"

	"github.com/MikeSquared-Agency/persona/internal/chat"
)

// DefaultGap is the silence after which the student is assumed to have
// stopped studying.
const DefaultGap = 30 * time.Minute

// minSessionCredit is the least a session counts for, so a lone message or a
// quick back-and-forth still registers as study time.
const minSessionCredit = 2 * time.Minute

// StudySession is a run of messages with no gap longer than the threshold.
type StudySession struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Messages int       `json:"messages"`
}

// Duration is the span of the session, never less than minSessionCredit.
// Adding a message to a session can therefore never shorten it.
func (s StudySession) Duration() time.Duration {
	return max(s.End.Sub(s.Start), minSessionCredit)
}

// SplitSessions breaks a day's messages into study sessions on timestamp
// gaps. Messages without a timestamp join the current session.
func SplitSessions(msgs []chat.Message, gap time.Duration) []StudySession {
	var sessions []StudySession
	var cur *StudySession

	for _, m := range msgs {
		if m.CreatedAt.IsZero() {
			if cur != nil {
				cur.Messages++
			}
			continue
		}
		if cur != nil && m.CreatedAt.Sub(cur.End) > gap {
			sessions = append(sessions, *cur)
			cur = nil
		}
		if cur == nil {
			cur = &StudySession{Start: m.CreatedAt, End: m.CreatedAt}
		}
		if m.CreatedAt.After(cur.End) {
			cur.End = m.CreatedAt
		}
		cur.Messages++
	}

	if cur != nil {
		sessions = append(sessions, *cur)
	}
	return sessions
}

// EstimateActiveTime sums the duration of every study session.
func EstimateActiveTime(msgs []chat.Message, gap time.Duration) time.Duration {
	var total time.Duration
	for _, s := range SplitSessions(msgs, gap) {
		total += s.Duration()
	}
	return total
}

// FormatDuration renders d as "1h 25m" or "40m".
func FormatDuration(d time.Duration) string {
	m := int(d.Round(time.Minute).Minutes())
	if m < 60 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %dm", m/60, m%60)
}
