// Package processor wires the engines to the event bus and builds the
// explicit session context each operation runs in.
package processor

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/MikeSquared-Agency/persona/internal/chat"
	"github.com/MikeSquared-Agency/persona/internal/feedback"
	"github.com/MikeSquared-Agency/persona/internal/hermes"
	"github.com/MikeSquared-Agency/persona/internal/profile"
	"github.com/MikeSquared-Agency/persona/internal/report"
)

// Processor orchestrates persona's event-driven work.
type Processor struct {
	profiles *profile.Repository
	chats    *chat.Engine
	reports  *report.Summarizer
	logger   *slog.Logger
	now      func() time.Time
}

func New(profiles *profile.Repository, chats *chat.Engine, reports *report.Summarizer, logger *slog.Logger) *Processor {
	return &Processor{
		profiles: profiles,
		chats:    chats,
		reports:  reports,
		logger:   logger,
		now:      time.Now,
	}
}

// Reply opens a session and produces a grounded reply in it.
func (p *Processor) Reply(ctx context.Context, subject, date, text string) (*chat.Message, error) {
	sess, err := p.OpenSession(ctx, subject, date, ModeChat)
	if err != nil {
		return nil, err
	}
	return p.chats.Reply(ctx, sess.Session, text)
}

// HandleReportRequested is the NATS handler for persona.report.requested.
func (p *Processor) HandleReportRequested(subject string, data []byte) {
	ctx := context.Background()

	var req hermes.ReportRequested
	if err := json.Unmarshal(data, &req); err != nil {
		p.logger.Error("failed to parse report request", "error", err)
		return
	}
	if req.Date == "" {
		req.Date = p.now().Format(chat.DateLayout)
	}

	p.logger.Info("processing report request", "subject", req.Subject, "date", req.Date)

	r, err := p.reports.Summarize(ctx, req.Subject, req.Date)
	if err != nil {
		p.logger.Error("report generation failed", "subject", req.Subject, "date", req.Date, "error", err)
		return
	}
	p.logger.Info("report generated", "subject", req.Subject, "date", req.Date, "active_minutes", r.ActiveMinutes)
}

// HandleChatReaction is the NATS handler for persona.chat.reaction.
func (p *Processor) HandleChatReaction(subject string, data []byte) {
	ctx := context.Background()

	var evt hermes.ChatReaction
	if err := json.Unmarshal(data, &evt); err != nil {
		p.logger.Error("failed to parse reaction", "error", err)
		return
	}

	var up bool
	switch feedback.ParseReaction(evt.Reaction) {
	case feedback.VerdictUp:
		up = true
	case feedback.VerdictDown:
		up = false
	default:
		p.logger.Debug("ignoring reaction", "reaction", evt.Reaction)
		return
	}

	if _, err := p.chats.SetFeedback(ctx, evt.Subject, evt.Date, evt.Index, up); err != nil {
		p.logger.Error("failed to record reaction", "subject", evt.Subject, "date", evt.Date, "index", evt.Index, "error", err)
	}
}
