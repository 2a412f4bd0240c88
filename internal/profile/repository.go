// Package profile persists the interview answers and the learning profile
// extracted from them.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MikeSquared-Agency/persona/internal/schema"
	"github.com/MikeSquared-Agency/persona/internal/store"
)

// Document keys. The installation is single-user, so each kind holds one document.
const (
	InterviewKey = "interviewResponse"
	ProfileKey   = "extractedPreferences"
)

// Interview maps "<section>-<question index>" to an answer: free text, a
// selected option, or a numeric rating.
type Interview map[string]any

// Validate rejects empty keys and answers that are not text or numbers.
func (iv Interview) Validate() error {
	if len(iv) == 0 {
		return errors.New("interview has no answers")
	}
	for k, v := range iv {
		if k == "" {
			return errors.New("interview answer with empty key")
		}
		switch v.(type) {
		case string, float64, int, json.Number, nil:
		default:
			return fmt.Errorf("answer %q: unsupported type %T", k, v)
		}
	}
	return nil
}

type Repository struct {
	store  store.DocumentStore
	schema *schema.Schema
	logger *slog.Logger
}

func NewRepository(st store.DocumentStore, sch *schema.Schema, logger *slog.Logger) *Repository {
	return &Repository{store: st, schema: sch, logger: logger}
}

func (r *Repository) Schema() *schema.Schema { return r.schema }

func (r *Repository) SaveInterview(ctx context.Context, iv Interview) error {
	if err := iv.Validate(); err != nil {
		return err
	}
	return store.SaveJSON(ctx, r.store, store.KindInterview, InterviewKey, iv)
}

// LoadInterview returns store.ErrNotFound when no readable interview exists.
func (r *Repository) LoadInterview(ctx context.Context) (Interview, error) {
	var iv Interview
	if err := r.load(ctx, store.KindInterview, InterviewKey, &iv); err != nil {
		return nil, err
	}
	return iv, nil
}

// Save replaces the stored profile in full.
func (r *Repository) Save(ctx context.Context, p schema.Profile) error {
	return store.SaveJSON(ctx, r.store, store.KindProfile, ProfileKey, p)
}

// Load returns store.ErrNotFound when no profile exists or the stored one
// cannot be decoded.
func (r *Repository) Load(ctx context.Context) (schema.Profile, error) {
	var p schema.Profile
	if err := r.load(ctx, store.KindProfile, ProfileKey, &p); err != nil {
		return schema.Profile{}, err
	}
	return p, nil
}

func (r *Repository) Exists(ctx context.Context) (bool, error) {
	return r.store.Exists(ctx, store.KindProfile, ProfileKey)
}

// UpdateField overwrites a single field and saves the profile, leaving every
// other field untouched.
func (r *Repository) UpdateField(ctx context.Context, section, field string, value any) (schema.Profile, error) {
	p, err := r.Load(ctx)
	if err != nil {
		return schema.Profile{}, err
	}
	if err := r.schema.SetField(&p, section, field, value); err != nil {
		return schema.Profile{}, err
	}
	if err := r.Save(ctx, p); err != nil {
		return schema.Profile{}, err
	}
	r.logger.Info("profile field updated", "section", section, "field", field)
	return p, nil
}

// UpdateSummary replaces the free-text summary.
func (r *Repository) UpdateSummary(ctx context.Context, summary string) (schema.Profile, error) {
	p, err := r.Load(ctx)
	if err != nil {
		return schema.Profile{}, err
	}
	if summary == "" {
		summary = r.schema.Unknown
	}
	p.Summary = summary
	if err := r.Save(ctx, p); err != nil {
		return schema.Profile{}, err
	}
	return p, nil
}

func (r *Repository) load(ctx context.Context, kind store.Kind, key string, v any) error {
	err := store.LoadJSON(ctx, r.store, kind, key, v)
	if err == nil || errors.Is(err, store.ErrNotFound) {
		return err
	}
	if errors.Is(err, store.ErrCorrupt) {
		r.logger.Warn("stored document is corrupted, treating as absent", "kind", kind, "key", key, "error", err)
		return store.ErrNotFound
	}
	return err
}
