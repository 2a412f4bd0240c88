package feedback

import "testing"

func TestParseReaction(t *testing.T) {
	tests := []struct {
		name     string
		reaction string
		want     Verdict
	}{
		{"thumbsup", "+1", VerdictUp},
		{"thumbsup alt", "thumbsup", VerdictUp},
		{"colons", ":+1:", VerdictUp},
		{"emoji", "👍", VerdictUp},
		{"thumbsdown", "-1", VerdictDown},
		{"thumbsdown alt", "Thumbs_Down", VerdictDown},
		{"bool", "false", VerdictDown},
		{"unknown reaction", "heart", VerdictUnknown},
		{"empty", "", VerdictUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseReaction(tt.reaction)
			if got != tt.want {
				t.Errorf("ParseReaction(%q) = %q, want %q", tt.reaction, got, tt.want)
			}
		})
	}
}

func TestApplyIsExclusive(t *testing.T) {
	var c Counts
	Apply(&c, true)
	if c != (Counts{ThumbsUp: 1}) {
		t.Errorf("after up: %+v", c)
	}
	Apply(&c, false)
	if c != (Counts{ThumbsDown: 1}) {
		t.Errorf("after down: %+v", c)
	}
	Apply(&c, false)
	if c != (Counts{ThumbsDown: 1}) {
		t.Errorf("repeated down must not accumulate: %+v", c)
	}
}

func TestDailyTally(t *testing.T) {
	days := map[string][]*Counts{
		"2025-01-01": {nil, {ThumbsUp: 1}, nil, {ThumbsDown: 1}},
		"2025-01-03": {nil, {ThumbsUp: 1}, nil, {ThumbsUp: 1}},
		"2025-01-02": {nil},
	}
	got := DailyTally(days)
	want := []Day{
		{Date: "2025-01-03", ThumbsUp: 2},
		{Date: "2025-01-02"},
		{Date: "2025-01-01", ThumbsUp: 1, ThumbsDown: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d days, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("day %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	total := Total(got)
	if total.ThumbsUp != 3 || total.ThumbsDown != 1 {
		t.Errorf("Total = %+v", total)
	}
	if a := total.Approval(); a != 0.75 {
		t.Errorf("Approval = %v, want 0.75", a)
	}
	if (Day{}).Approval() != 0 {
		t.Error("Approval with no reactions should be 0")
	}
}
