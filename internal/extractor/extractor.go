package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MikeSquared-Agency/persona/internal/hermes"
	"github.com/MikeSquared-Agency/persona/internal/llm"
	"github.com/MikeSquared-Agency/persona/internal/profile"
)

var errNotObject = errors.New("model output is not a JSON object")

type Extractor struct {
	llm      llm.Completer
	profiles *profile.Repository
	events   hermes.Publisher
	logger   *slog.Logger
}

func New(c llm.Completer, profiles *profile.Repository, events hermes.Publisher, logger *slog.Logger) *Extractor {
	if events == nil {
		events = hermes.Nop{}
	}
	return &Extractor{llm: c, profiles: profiles, events: events, logger: logger}
}

// Extract turns interview answers into a schema-conformant profile and
// replaces the stored profile with it. Failures past input validation are
// returned as *Failure.
func (e *Extractor) Extract(ctx context.Context, responses profile.Interview) (*Result, error) {
	if err := responses.Validate(); err != nil {
		return nil, fmt.Errorf("invalid interview: %w", err)
	}
	sch := e.profiles.Schema()
	prompt, err := BuildPrompt(sch, responses)
	if err != nil {
		return nil, err
	}

	e.logger.Info("extracting profile",
		"answers", len(responses),
		"prompt_len", len(prompt),
		"schema_version", sch.Version,
	)

	env, err := e.llm.Complete(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}})
	if err != nil {
		e.logger.Error("llm extraction failed", "error", err)
		return nil, &Failure{Kind: KindTransport, Err: err}
	}

	text, ok := llm.ExtractText(env)
	if !ok {
		e.logger.Error("llm returned no text")
		return nil, &Failure{Kind: KindEmptyResponse}
	}

	decoded, ok := llm.DecodeJSON(text)
	if !ok {
		e.logger.Error("failed to parse extraction response", "raw", text)
		return nil, &Failure{Kind: KindInvalidJSON, Raw: text, Err: llm.ErrUndecodable}
	}
	if _, isObject := decoded.(map[string]any); !isObject {
		e.logger.Error("extraction response is not an object", "raw", text)
		return nil, &Failure{Kind: KindInvalidJSON, Raw: text, Err: errNotObject}
	}

	p, issues := sch.Conform(decoded)
	for _, is := range issues {
		e.logger.Debug("conformed profile field", "issue", is.String())
	}

	if err := e.profiles.Save(ctx, p); err != nil {
		e.logger.Error("failed to save profile", "error", err)
		return nil, &Failure{Kind: KindStorage, Raw: text, Err: err}
	}

	e.logger.Info("extraction complete", "fields", sch.FieldCount(), "repairs", len(issues))

	if err := e.events.Publish(hermes.SubjectProfileExtracted, hermes.ProfileExtracted{
		SchemaVersion: sch.Version,
		Fields:        sch.FieldCount(),
		Repairs:       len(issues),
		Summary:       p.Summary,
		ExtractedAt:   time.Now().UTC(),
	}); err != nil {
		e.logger.Warn("failed to publish extraction event", "error", err)
	}

	return &Result{Profile: p, Issues: issues, Raw: text}, nil
}

// Regenerate re-runs extraction against the stored interview answers.
func (e *Extractor) Regenerate(ctx context.Context) (*Result, error) {
	iv, err := e.profiles.LoadInterview(ctx)
	if err != nil {
		return nil, fmt.Errorf("load interview: %w", err)
	}
	return e.Extract(ctx, iv)
}
