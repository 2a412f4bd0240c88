// Package review keeps the user's running rating of their extracted profile.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/persona/internal/store"
)

const (
	Key           = "profileReview"
	DefaultRating = 5
	MinRating     = 1
	MaxRating     = 10
)

var ErrRating = fmt.Errorf("rating must be between %d and %d", MinRating, MaxRating)

type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Rating    int       `json:"rating"`
	Review    string    `json:"review"`
}

// ProfileReview is the current rating plus every review ever submitted.
type ProfileReview struct {
	Rating  int     `json:"rating"`
	Reviews []Entry `json:"reviews"`
}

func defaultReview() ProfileReview {
	return ProfileReview{Rating: DefaultRating, Reviews: []Entry{}}
}

type Repository struct {
	store  store.DocumentStore
	logger *slog.Logger
	mu     sync.Mutex
	now    func() time.Time
}

func NewRepository(st store.DocumentStore, logger *slog.Logger) *Repository {
	return &Repository{store: st, logger: logger, now: time.Now}
}

// Load returns the stored review, or the default when it is missing or
// unreadable.
func (r *Repository) Load(ctx context.Context) (ProfileReview, error) {
	var pr ProfileReview
	err := store.LoadJSON(ctx, r.store, store.KindReview, Key, &pr)
	switch {
	case err == nil:
		if pr.Reviews == nil {
			pr.Reviews = []Entry{}
		}
		return pr, nil
	case errors.Is(err, store.ErrNotFound):
		return defaultReview(), nil
	case errors.Is(err, store.ErrCorrupt):
		r.logger.Warn("profile review is corrupted, using default", "error", err)
		return defaultReview(), nil
	default:
		return ProfileReview{}, err
	}
}

// Add appends a review and makes its rating the current one.
func (r *Repository) Add(ctx context.Context, rating int, text string) (ProfileReview, error) {
	if rating < MinRating || rating > MaxRating {
		return ProfileReview{}, ErrRating
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	pr, err := r.Load(ctx)
	if err != nil {
		return ProfileReview{}, err
	}
	pr.Rating = rating
	pr.Reviews = append(pr.Reviews, Entry{
		ID:        uuid.NewString(),
		Timestamp: r.now().UTC(),
		Rating:    rating,
		Review:    strings.TrimSpace(text),
	})
	if err := store.SaveJSON(ctx, r.store, store.KindReview, Key, pr); err != nil {
		return ProfileReview{}, err
	}
	r.logger.Info("profile review added", "rating", rating, "reviews", len(pr.Reviews))
	return pr, nil
}
