package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrCorrupt is returned by LoadJSON when a stored document cannot be decoded.
	ErrCorrupt = errors.New("document corrupted")
	// ErrInvalidKey is wrapped when a key or label cannot address a document.
	ErrInvalidKey = errors.New("invalid document key")
)

// Kind groups documents of one type, e.g. all chat histories.
type Kind string

const (
	KindInterview Kind = "interview"
	KindProfile   Kind = "profile"
	KindChat      Kind = "chat_history"
	KindReport    Kind = "reports"
	KindReview    Kind = "review"
)

// DocumentStore persists whole JSON documents addressed by kind and key.
// Save replaces a document atomically; readers never see a partial write.
type DocumentStore interface {
	Load(ctx context.Context, kind Kind, key string) ([]byte, error)
	Save(ctx context.Context, kind Kind, key string, body []byte) error
	Exists(ctx context.Context, kind Kind, key string) (bool, error)
	List(ctx context.Context, kind Kind) ([]string, error)
}

var validKey = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._@-]{0,127}$`)

// ValidKey reports whether key is safe to use as a document key.
func ValidKey(key string) error {
	if !validKey.MatchString(key) || key == "." || key == ".." {
		return fmt.Errorf("%w %q", ErrInvalidKey, key)
	}
	return nil
}

var unsafeSlugChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

const (
	slugReadableMax = 48
	slugHashLen     = 16
)

// Slug maps a free-form label such as a subject name to a document key: a
// readable ASCII part followed by a hash of the exact trimmed label, so
// "C++" and "C#" get different keys and labels in any script are accepted.
// The readable part never contains '@', leaving it free as a separator.
func Slug(label string) (string, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", fmt.Errorf("%w: empty label", ErrInvalidKey)
	}
	sum := sha256.Sum256([]byte(label))
	hash := hex.EncodeToString(sum[:])[:slugHashLen]

	readable := strings.Trim(unsafeSlugChars.ReplaceAllString(label, "_"), "._-")
	if len(readable) > slugReadableMax {
		readable = strings.TrimRight(readable[:slugReadableMax], "._-")
	}
	if readable == "" {
		readable = "label"
	}
	key := readable + "-" + hash
	if err := ValidKey(key); err != nil {
		return "", err
	}
	return key, nil
}

// LoadJSON loads a document and decodes it into v.
func LoadJSON(ctx context.Context, s DocumentStore, kind Kind, key string, v any) error {
	body, err := s.Load(ctx, kind, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %s/%s: %v", ErrCorrupt, kind, key, err)
	}
	return nil
}

// SaveJSON encodes v with indentation and saves it.
func SaveJSON(ctx context.Context, s DocumentStore, kind Kind, key string, v any) error {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", kind, key, err)
	}
	return s.Save(ctx, kind, key, body)
}
