package report

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
)

// Report is the study-behavior summary of one subject's chat on one date.
type Report struct {
	Subject            string    `json:"subject"`
	Date               string    `json:"date"`
	Summary            string    `json:"summary"`
	Topics             []string  `json:"topics"`
	EstimatedStudyTime string    `json:"estimated_study_time"`
	Confidence         *int      `json:"confidence"`
	Satisfaction       *int      `json:"satisfaction"`
	Mood               string    `json:"mood"`
	Improvements       []string  `json:"improvements"`
	ActiveMinutes      int       `json:"active_minutes"`
	Sessions           int       `json:"sessions"`
	Messages           int       `json:"messages"`
	GeneratedAt        time.Time `json:"generated_at"`
}

// modelReport is the shape requested from the model. Scales and lists are
// decoded leniently.
type modelReport struct {
	Summary            string     `json:"summary"`
	Topics             stringList `json:"topics"`
	EstimatedStudyTime string     `json:"estimated_study_time"`
	Confidence         scale      `json:"confidence"`
	Satisfaction       scale      `json:"satisfaction"`
	Mood               string     `json:"mood"`
	Improvements       stringList `json:"improvements"`
}

// scale accepts 7, 7.4, "7" or "7/10" and clamps to 1..10. Anything else is
// left unset.
type scale struct{ v *int }

func (s *scale) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var f float64
	switch t := raw.(type) {
	case float64:
		f = t
	case string:
		num, _, _ := strings.Cut(strings.TrimSpace(t), "/")
		parsed, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	n := lo.Clamp(int(math.Round(f)), 1, 10)
	s.v = &n
	return nil
}

// stringList accepts a JSON list or a single comma-separated string.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var items []string
	switch t := raw.(type) {
	case []any:
		items = lo.FilterMap(t, func(v any, _ int) (string, bool) {
			s, ok := v.(string)
			return strings.TrimSpace(s), ok
		})
	case string:
		items = strings.Split(t, ",")
	}
	*l = lo.Compact(lo.Map(items, func(s string, _ int) string { return strings.TrimSpace(s) }))
	return nil
}
