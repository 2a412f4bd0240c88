package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/MikeSquared-Agency/persona/internal/anthropic"
	"github.com/MikeSquared-Agency/persona/internal/llm"
	"github.com/MikeSquared-Agency/persona/internal/profile"
	"github.com/MikeSquared-Agency/persona/internal/schema"
	"github.com/MikeSquared-Agency/persona/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (p *recordingPublisher) Publish(subject string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return nil
}

func scripted(text string, err error) llm.Completer {
	return llm.CompleterFunc(func(_ context.Context, msgs []llm.Message) (llm.Envelope, error) {
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": text}}},
		}, nil
	})
}

func newRepo(t *testing.T) *profile.Repository {
	t.Helper()
	fs, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return profile.NewRepository(fs, schema.Default(), discardLogger())
}

var interview = profile.Interview{"Section-0": "I am studying Computer Science, semester 4"}

const modelProfile = `{
  "learning_profile": {
    "background": {"academic_program": "Computer Science", "semester": 4, "current_focus": "N/A", "goals": "N/A", "age": null},
    "learning_preferences": {"explanation_preference": "step-by-step", "detail_level": 8},
    "communication_style": {"tone": "Conversational"},
    "emotional_patterns": {"confidence_level": "6"},
    "study_behavior": {"study_rhythm": "cramming", "attention_span": 12},
    "summary": "A computer science student who likes structure."
  }
}`

func TestExtract_Success(t *testing.T) {
	repo := newRepo(t)
	pub := &recordingPublisher{}
	var sent []llm.Message
	c := llm.CompleterFunc(func(_ context.Context, msgs []llm.Message) (llm.Envelope, error) {
		sent = msgs
		return scripted("```json\n"+modelProfile+"\n```", nil).Complete(context.Background(), msgs)
	})

	ext := New(c, repo, pub, discardLogger())
	result, err := ext.Extract(context.Background(), interview)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sent) != 1 || sent[0].Role != llm.RoleUser {
		t.Fatalf("expected a single user message, got %+v", sent)
	}
	if !strings.Contains(sent[0].Content, "semester 4") {
		t.Error("prompt does not embed the interview answers")
	}

	p := result.Profile
	if v, _ := p.Get("background", "academic_program"); v != "Computer Science" {
		t.Errorf("academic_program = %v", v)
	}
	if v, _ := p.Get("background", "semester"); v != 4 {
		t.Errorf("semester = %#v, want 4", v)
	}
	if v, _ := p.Get("communication_style", "tone"); v != "conversational" {
		t.Errorf("tone = %v, want conversational", v)
	}
	if v, _ := p.Get("study_behavior", "attention_span"); v != 10 {
		t.Errorf("attention_span = %v, want clamped 10", v)
	}
	if issues := schema.Default().Check(p); len(issues) != 0 {
		t.Errorf("extracted profile not conformant: %v", issues)
	}

	stored, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("profile not persisted: %v", err)
	}
	if stored.Summary != p.Summary {
		t.Errorf("stored summary %q != %q", stored.Summary, p.Summary)
	}
	if len(pub.subjects) != 1 || pub.subjects[0] != "persona.profile.extracted" {
		t.Errorf("published %v", pub.subjects)
	}
}

func TestExtract_FreeTextBackground(t *testing.T) {
	repo := newRepo(t)
	text := `{"background": {"academic_program": "Computer Science", "semester": "fourth"}, "summary": "CS student."}`
	result, err := New(scripted(text, nil), repo, nil, discardLogger()).Extract(context.Background(), interview)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, _ := result.Profile.Get("background", "academic_program")
	if s, ok := v.(string); !ok || s == "N/A" {
		t.Errorf("academic_program = %#v, want a known string", v)
	}
	sem, _ := result.Profile.Get("background", "semester")
	if n, ok := sem.(int); sem != nil && (!ok || n < 1 || n > 20) {
		t.Errorf("semester = %#v, want int in range or null", sem)
	}
}

func TestExtract_Failures(t *testing.T) {
	tests := []struct {
		name     string
		llm      llm.Completer
		wantKind FailureKind
		wantRaw  string
	}{
		{"transport", scripted("", errors.New("connection refused")), KindTransport, ""},
		{"empty response", scripted("", nil), KindEmptyResponse, ""},
		{"not json", scripted(`sure! {"a":1}`, nil), KindInvalidJSON, `sure! {"a":1}`},
		{"array", scripted(`[1, 2, 3]`, nil), KindInvalidJSON, `[1, 2, 3]`},
		{"no envelope", llm.CompleterFunc(func(context.Context, []llm.Message) (llm.Envelope, error) {
			return nil, nil
		}), KindEmptyResponse, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newRepo(t)
			pub := &recordingPublisher{}
			_, err := New(tt.llm, repo, pub, discardLogger()).Extract(context.Background(), interview)

			var f *Failure
			if !errors.As(err, &f) {
				t.Fatalf("expected *Failure, got %v", err)
			}
			if f.Kind != tt.wantKind {
				t.Errorf("Kind = %s, want %s", f.Kind, tt.wantKind)
			}
			if f.Raw != tt.wantRaw {
				t.Errorf("Raw = %q, want %q", f.Raw, tt.wantRaw)
			}
			if ok, _ := repo.Exists(context.Background()); ok {
				t.Error("failed extraction must not write a profile")
			}
			if len(pub.subjects) != 0 {
				t.Errorf("failed extraction published %v", pub.subjects)
			}
		})
	}
}

func TestExtract_InvalidJSONKeepsPreviousProfile(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	if _, err := New(scripted(modelProfile, nil), repo, nil, discardLogger()).Extract(ctx, interview); err != nil {
		t.Fatalf("first extraction: %v", err)
	}
	if _, err := New(scripted("oops", nil), repo, nil, discardLogger()).Extract(ctx, interview); err == nil {
		t.Fatal("expected failure")
	}
	p, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("previous profile lost: %v", err)
	}
	if v, _ := p.Get("background", "semester"); v != 4 {
		t.Errorf("semester = %v, want 4 from first extraction", v)
	}
}

func TestExtract_ReplacesWholeProfile(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	New(scripted(modelProfile, nil), repo, nil, discardLogger()).Extract(ctx, interview)
	if _, err := repo.UpdateField(ctx, "background", "age", 22); err != nil {
		t.Fatalf("UpdateField: %v", err)
	}

	second := `{"background": {"academic_program": "Mathematics"}, "summary": "Maths student."}`
	if _, err := New(scripted(second, nil), repo, nil, discardLogger()).Extract(ctx, interview); err != nil {
		t.Fatalf("second extraction: %v", err)
	}
	p, _ := repo.Load(ctx)
	if v, _ := p.Get("background", "age"); v != nil {
		t.Errorf("age = %v, want nil after full replacement", v)
	}
	if v, _ := p.Get("background", "semester"); v != nil {
		t.Errorf("semester = %v, want nil after full replacement", v)
	}
}

func TestExtract_InvalidInterview(t *testing.T) {
	_, err := New(scripted(modelProfile, nil), newRepo(t), nil, discardLogger()).Extract(context.Background(), profile.Interview{})
	if err == nil {
		t.Fatal("expected error for empty interview")
	}
	var f *Failure
	if errors.As(err, &f) {
		t.Errorf("input validation should not be an extraction failure, got %v", f)
	}
}

func TestRegenerate(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	ext := New(scripted(modelProfile, nil), repo, nil, discardLogger())

	if _, err := ext.Regenerate(ctx); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound without interview, got %v", err)
	}
	repo.SaveInterview(ctx, interview)
	if _, err := ext.Regenerate(ctx); err != nil {
		t.Fatalf("Regenerate: %v", err)
	}
}

func TestExtract_AnthropicTransport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)
		if _, hasSystem := req["system"]; hasSystem {
			t.Error("extraction must not send a system prompt")
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"content":     []map[string]any{{"type": "text", "text": modelProfile}},
			"stop_reason": "end_turn",
		})
	}))
	defer server.Close()

	client := anthropic.NewClient("test-key", "test-model", 4096)
	client.SetTestTransport(server.URL)

	result, err := New(client, newRepo(t), nil, discardLogger()).Extract(context.Background(), interview)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Profile.Summary != "A computer science student who likes structure." {
		t.Errorf("Summary = %q", result.Profile.Summary)
	}
}

func TestExtract_AnthropicError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"type": "rate_limit_error", "message": "slow down"}}`))
	}))
	defer server.Close()

	client := anthropic.NewClient("test-key", "test-model", 4096)
	client.SetTestTransport(server.URL)

	_, err := New(client, newRepo(t), nil, discardLogger()).Extract(context.Background(), interview)
	var f *Failure
	if !errors.As(err, &f) || f.Kind != KindTransport {
		t.Fatalf("expected transport failure, got %v", err)
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt, err := BuildPrompt(schema.Default(), interview)
	if err != nil {
		t.Fatalf("BuildPrompt: %v", err)
	}
	for _, want := range []string{
		"expert educational psychologist",
		"## TARGET SCHEMA",
		`"learning_profile"`,
		"## EXTRACTION RULES",
		`"high-level" = prefers overview or big picture first`,
		"## INTERVIEW RESPONSES TO ANALYZE",
		"I am studying Computer Science, semester 4",
		`"N/A"`,
		"No markdown code fences",
		`"summary" field is ALWAYS required`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
