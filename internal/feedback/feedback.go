// Package feedback handles thumbs-up/down reactions on chat messages.
package feedback

import (
	"sort"
	"strings"

	"github.com/samber/lo"
)

// Counts is the reaction record attached to a chat message. At most one of
// the two counters is set: the latest reaction wins.
type Counts struct {
	ThumbsUp   int `json:"thumbs_up"`
	ThumbsDown int `json:"thumbs_down"`
}

// Apply records a reaction, clearing the opposite one.
func Apply(c *Counts, up bool) {
	if up {
		c.ThumbsUp, c.ThumbsDown = 1, 0
		return
	}
	c.ThumbsUp, c.ThumbsDown = 0, 1
}

// Verdict is a normalised reaction.
type Verdict string

const (
	VerdictUp      Verdict = "up"
	VerdictDown    Verdict = "down"
	VerdictUnknown Verdict = "unknown"
)

// ParseReaction converts a reaction name or emoji to a verdict. Surrounding
// colons, as in ":+1:", are ignored.
func ParseReaction(reaction string) Verdict {
	r := strings.ToLower(strings.TrimSpace(reaction))
	if len(r) > 2 && r[0] == ':' && r[len(r)-1] == ':' {
		r = r[1 : len(r)-1]
	}
	switch r {
	case "+1", "thumbsup", "thumbs_up", "up", "👍", "true":
		return VerdictUp
	case "-1", "thumbsdown", "thumbs_down", "down", "👎", "false":
		return VerdictDown
	default:
		return VerdictUnknown
	}
}

// Day is the reaction total for one date-partition.
type Day struct {
	Date       string `json:"date"`
	ThumbsUp   int    `json:"thumbs_up"`
	ThumbsDown int    `json:"thumbs_down"`
}

// Approval is the share of reactions that were positive, or 0 with none.
func (d Day) Approval() float64 {
	total := d.ThumbsUp + d.ThumbsDown
	if total == 0 {
		return 0
	}
	return float64(d.ThumbsUp) / float64(total)
}

// DailyTally sums the reactions per date, newest date first. Messages
// without a reaction record are nil and count as zero.
func DailyTally(days map[string][]*Counts) []Day {
	out := lo.MapToSlice(days, func(date string, counts []*Counts) Day {
		d := Day{Date: date}
		for _, c := range counts {
			if c == nil {
				continue
			}
			d.ThumbsUp += c.ThumbsUp
			d.ThumbsDown += c.ThumbsDown
		}
		return d
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

// Total folds a tally into a single row with an empty date.
func Total(days []Day) Day {
	return lo.Reduce(days, func(acc Day, d Day, _ int) Day {
		acc.ThumbsUp += d.ThumbsUp
		acc.ThumbsDown += d.ThumbsDown
		return acc
	}, Day{})
}
