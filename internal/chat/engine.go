// Package chat produces profile-grounded replies and keeps the per-subject,
// per-day conversation logs.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/persona/internal/feedback"
	"github.com/MikeSquared-Agency/persona/internal/hermes"
	"github.com/MikeSquared-Agency/persona/internal/llm"
	"github.com/MikeSquared-Agency/persona/internal/store"
)

var (
	// ErrTransport wraps LLM call failures. The reply returned alongside it is
	// the stored fallback message.
	ErrTransport = errors.New("llm transport")
	// ErrMessageIndex is returned when a feedback index is out of range.
	ErrMessageIndex = errors.New("message index out of range")
	ErrEmptyMessage = errors.New("empty message")
	ErrInvalidDate  = errors.New("invalid date")
)

type Engine struct {
	llm    llm.Completer
	store  store.DocumentStore
	events hermes.Publisher
	logger *slog.Logger

	mu  sync.Mutex
	now func() time.Time
}

func New(c llm.Completer, st store.DocumentStore, events hermes.Publisher, logger *slog.Logger) *Engine {
	if events == nil {
		events = hermes.Nop{}
	}
	return &Engine{llm: c, store: st, events: events, logger: logger, now: time.Now}
}

// ValidDate reports whether date is a YYYY-MM-DD partition key.
func ValidDate(date string) error {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return fmt.Errorf("%w %q: want YYYY-MM-DD", ErrInvalidDate, date)
	}
	return nil
}

// Reply appends the user's message, asks the model for an answer grounded in
// the session profile and appends that answer. The user message is persisted
// before the model is called. On transport failure a diagnostic assistant
// message is stored and returned together with an ErrTransport error.
func (e *Engine) Reply(ctx context.Context, sess Session, text string) (*Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if err := ValidDate(sess.Date); err != nil {
		return nil, err
	}
	key, err := store.Slug(sess.Subject)
	if err != nil {
		return nil, err
	}

	var history []Message
	err = e.update(ctx, sess.Subject, key, func(log Log) error {
		log[sess.Date] = append(log[sess.Date], Message{
			ID:        uuid.NewString(),
			Role:      llm.RoleUser,
			Content:   text,
			CreatedAt: e.now().UTC(),
		})
		history = append([]Message(nil), log[sess.Date]...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("save user message: %w", err)
	}

	msgs := make([]llm.Message, 0, len(history)+1)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: systemPrompt(sess.Subject, sess.Profile)})
	for _, m := range history {
		msgs = append(msgs, llm.Message{Role: m.Role, Content: m.Content})
	}

	e.logger.Info("generating reply", "subject", sess.Subject, "date", sess.Date, "history", len(history))

	var callErr error
	content := NoTextReply
	env, err := e.llm.Complete(ctx, msgs)
	switch {
	case err != nil:
		e.logger.Error("llm reply failed", "subject", sess.Subject, "date", sess.Date, "error", err)
		callErr = fmt.Errorf("%w: %v", ErrTransport, err)
		content = transportReply(err)
	default:
		if t, ok := llm.ExtractText(env); ok {
			content = t
		} else {
			e.logger.Warn("llm returned no text", "subject", sess.Subject, "date", sess.Date)
		}
	}

	reply := Message{
		ID:        uuid.NewString(),
		Role:      llm.RoleAssistant,
		Content:   content,
		CreatedAt: e.now().UTC(),
		Feedback:  &feedback.Counts{},
	}
	// The request context may already be cancelled; the reply is stored regardless.
	err = e.update(context.WithoutCancel(ctx), sess.Subject, key, func(log Log) error {
		log[sess.Date] = append(log[sess.Date], reply)
		return nil
	})
	if err != nil {
		return nil, errors.Join(callErr, fmt.Errorf("save assistant message: %w", err))
	}
	return &reply, callErr
}

// SetFeedback records a thumbs-up or thumbs-down on the message at index in
// the date-partition. The latest reaction replaces any earlier one.
func (e *Engine) SetFeedback(ctx context.Context, subject, date string, index int, thumbsUp bool) (*Message, error) {
	if err := ValidDate(date); err != nil {
		return nil, err
	}
	key, err := store.Slug(subject)
	if err != nil {
		return nil, err
	}

	var target Message
	err = e.update(ctx, subject, key, func(log Log) error {
		msgs := log[date]
		if index < 0 || index >= len(msgs) {
			return fmt.Errorf("%w: %d of %d", ErrMessageIndex, index, len(msgs))
		}
		m := &msgs[index]
		if m.Role != llm.RoleAssistant {
			e.logger.Warn("feedback on non-assistant message", "subject", subject, "date", date, "index", index, "role", m.Role)
		}
		if m.Feedback == nil {
			m.Feedback = &feedback.Counts{}
		}
		feedback.Apply(m.Feedback, thumbsUp)
		target = *m
		return nil
	})
	if err != nil {
		return nil, err
	}

	verdict := feedback.VerdictDown
	if thumbsUp {
		verdict = feedback.VerdictUp
	}
	if err := e.events.Publish(hermes.SubjectChatFeedback, hermes.ChatFeedback{
		Subject:   subject,
		Date:      date,
		Index:     index,
		MessageID: target.ID,
		Role:      target.Role,
		Verdict:   string(verdict),
	}); err != nil {
		e.logger.Warn("failed to publish feedback event", "error", err)
	}
	return &target, nil
}

// History returns the messages of one date-partition, empty if none.
func (e *Engine) History(ctx context.Context, subject, date string) ([]Message, error) {
	if err := ValidDate(date); err != nil {
		return nil, err
	}
	log, err := e.Log(ctx, subject)
	if err != nil {
		return nil, err
	}
	msgs := log[date]
	if msgs == nil {
		msgs = []Message{}
	}
	return msgs, nil
}

// Log returns a subject's whole conversation. A missing or corrupted
// document yields an empty log.
func (e *Engine) Log(ctx context.Context, subject string) (Log, error) {
	key, err := store.Slug(subject)
	if err != nil {
		return nil, err
	}
	doc, err := e.load(ctx, key)
	if err != nil {
		return nil, err
	}
	return doc.Log, nil
}

// Subjects lists the display name of every stored conversation, sorted.
func (e *Engine) Subjects(ctx context.Context) ([]string, error) {
	keys, err := e.store.List(ctx, store.KindChat)
	if err != nil {
		return nil, err
	}
	subjects := make([]string, 0, len(keys))
	for _, key := range keys {
		doc, err := e.load(ctx, key)
		if err != nil {
			return nil, err
		}
		name := doc.Subject
		if name == "" {
			name = key
		}
		subjects = append(subjects, name)
	}
	sort.Strings(subjects)
	return subjects, nil
}

// Tally returns per-date reaction totals for a subject, newest first.
func (e *Engine) Tally(ctx context.Context, subject string) ([]feedback.Day, error) {
	log, err := e.Log(ctx, subject)
	if err != nil {
		return nil, err
	}
	return feedback.DailyTally(log.Reactions()), nil
}

func (e *Engine) load(ctx context.Context, key string) (document, error) {
	var doc document
	err := store.LoadJSON(ctx, e.store, store.KindChat, key, &doc)
	switch {
	case err == nil:
		return doc, nil
	case errors.Is(err, store.ErrNotFound):
		return document{Log: Log{}}, nil
	case errors.Is(err, store.ErrCorrupt):
		e.logger.Warn("chat log is corrupted, starting empty", "key", key, "error", err)
		return document{Log: Log{}}, nil
	default:
		return document{}, err
	}
}

// update runs a read-modify-write of one subject's log under the engine lock.
func (e *Engine) update(ctx context.Context, subject, key string, fn func(Log) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	doc, err := e.load(ctx, key)
	if err != nil {
		return err
	}
	if err := fn(doc.Log); err != nil {
		return err
	}
	doc.Subject = strings.TrimSpace(subject)
	return store.SaveJSON(ctx, e.store, store.KindChat, key, doc)
}
