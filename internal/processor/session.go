package processor

import (
	"context"
	"errors"
	"fmt"

	"github.com/MikeSquared-Agency/persona/internal/chat"
	"github.com/MikeSquared-Agency/persona/internal/store"
)

// Mode is what the UI is doing in a session.
type Mode string

const (
	ModeChat   Mode = "chat"
	ModeEdit   Mode = "edit"
	ModeReview Mode = "review"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeChat, ModeEdit, ModeReview:
		return true
	}
	return false
}

// Session is the transient per-request context. It is rebuilt from storage
// whenever it is needed and never persisted itself.
type Session struct {
	chat.Session
	Mode Mode
}

// OpenSession builds a session for subject on date, loading the current
// profile if one exists. An empty date means today; an empty mode means chat.
func (p *Processor) OpenSession(ctx context.Context, subject, date string, mode Mode) (*Session, error) {
	if date == "" {
		date = p.now().Format(chat.DateLayout)
	}
	if err := chat.ValidDate(date); err != nil {
		return nil, err
	}
	if _, err := store.Slug(subject); err != nil {
		return nil, err
	}
	if mode == "" {
		mode = ModeChat
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("unknown session mode %q", mode)
	}

	sess := &Session{Session: chat.Session{Subject: subject, Date: date}, Mode: mode}
	prof, err := p.profiles.Load(ctx)
	switch {
	case err == nil:
		sess.Profile = &prof
	case errors.Is(err, store.ErrNotFound):
		p.logger.Debug("no profile yet, chatting ungrounded", "subject", subject)
	default:
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return sess, nil
}
