// Package report summarises a day of chat into a study-behavior report.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/persona/internal/chat"
	"github.com/MikeSquared-Agency/persona/internal/hermes"
	"github.com/MikeSquared-Agency/persona/internal/llm"
	"github.com/MikeSquared-Agency/persona/internal/store"
)

// ErrNoMessages is returned when the requested date has no conversation.
var ErrNoMessages = errors.New("no messages for date")

var (
	errNotObject = errors.New("model output is not a JSON object")
	errNoSummary = errors.New("model output has no summary")
)

type Summarizer struct {
	llm    llm.Completer
	chats  *chat.Engine
	store  store.DocumentStore
	events hermes.Publisher
	logger *slog.Logger
	gap    time.Duration
	now    func() time.Time
}

func NewSummarizer(c llm.Completer, chats *chat.Engine, st store.DocumentStore, events hermes.Publisher, logger *slog.Logger) *Summarizer {
	if events == nil {
		events = hermes.Nop{}
	}
	return &Summarizer{
		llm:    c,
		chats:  chats,
		store:  st,
		events: events,
		logger: logger,
		gap:    DefaultGap,
		now:    time.Now,
	}
}

func reportKey(subject, date string) (string, error) {
	slug, err := store.Slug(subject)
	if err != nil {
		return "", err
	}
	return slug + "@" + date, nil
}

// Summarize builds the report for (subject, date) and stores it, replacing
// any earlier report for the same pair. Model failures are *llm.Failure.
func (s *Summarizer) Summarize(ctx context.Context, subject, date string) (*Report, error) {
	msgs, err := s.chats.History(ctx, subject, date)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("%w: %s %s", ErrNoMessages, subject, date)
	}
	key, err := reportKey(subject, date)
	if err != nil {
		return nil, err
	}

	prompt := buildPrompt(subject, date, msgs, s.gap)
	s.logger.Info("summarising study day", "subject", subject, "date", date, "messages", len(msgs))

	env, err := s.llm.Complete(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}})
	if err != nil {
		s.logger.Error("llm summary failed", "subject", subject, "date", date, "error", err)
		return nil, &llm.Failure{Kind: llm.KindTransport, Err: err}
	}
	text, ok := llm.ExtractText(env)
	if !ok {
		return nil, &llm.Failure{Kind: llm.KindEmptyResponse}
	}
	out, err := decodeReport(text)
	if err != nil {
		s.logger.Error("failed to parse summary response", "subject", subject, "date", date, "raw", text, "error", err)
		return nil, &llm.Failure{Kind: llm.KindInvalidJSON, Raw: text, Err: err}
	}

	sessions := SplitSessions(msgs, s.gap)
	active := EstimateActiveTime(msgs, s.gap)
	r := &Report{
		Subject:            subject,
		Date:               date,
		Summary:            out.Summary,
		Topics:             nonNil(out.Topics),
		EstimatedStudyTime: out.EstimatedStudyTime,
		Confidence:         out.Confidence.v,
		Satisfaction:       out.Satisfaction.v,
		Mood:               out.Mood,
		Improvements:       nonNil(out.Improvements),
		ActiveMinutes:      int(active.Round(time.Minute).Minutes()),
		Sessions:           len(sessions),
		Messages:           len(msgs),
		GeneratedAt:        s.now().UTC(),
	}
	if r.EstimatedStudyTime == "" {
		r.EstimatedStudyTime = FormatDuration(active)
	}

	if err := store.SaveJSON(ctx, s.store, store.KindReport, key, r); err != nil {
		return nil, &llm.Failure{Kind: llm.KindStorage, Raw: text, Err: err}
	}

	if err := s.events.Publish(hermes.SubjectReportGenerated, hermes.ReportGenerated{
		Subject:            subject,
		Date:               date,
		EstimatedStudyTime: r.EstimatedStudyTime,
		ActiveMinutes:      r.ActiveMinutes,
	}); err != nil {
		s.logger.Warn("failed to publish report event", "error", err)
	}
	return r, nil
}

// Load returns the stored report, store.ErrNotFound if there is none.
func (s *Summarizer) Load(ctx context.Context, subject, date string) (*Report, error) {
	if err := chat.ValidDate(date); err != nil {
		return nil, err
	}
	key, err := reportKey(subject, date)
	if err != nil {
		return nil, err
	}
	var r Report
	if err := store.LoadJSON(ctx, s.store, store.KindReport, key, &r); err != nil {
		if errors.Is(err, store.ErrCorrupt) {
			s.logger.Warn("stored report is corrupted, treating as absent", "key", key, "error", err)
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

// decodeReport accepts only a JSON object carrying a non-empty summary.
func decodeReport(text string) (*modelReport, error) {
	var out *modelReport
	if err := llm.DecodeJSONInto(text, &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, errNotObject
	}
	if strings.TrimSpace(out.Summary) == "" {
		return nil, errNoSummary
	}
	out.Summary = strings.TrimSpace(out.Summary)
	return out, nil
}

func nonNil(l stringList) []string {
	if l == nil {
		return []string{}
	}
	return l
}
