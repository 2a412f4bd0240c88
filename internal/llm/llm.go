package llm

import "context"

// Roles accepted by every provider.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Envelope is a provider response in whatever shape the provider returns it.
// Use ExtractText to get the generated text out of it.
type Envelope any

// Completer is the chat capability the engines depend on. Transport errors are
// returned as errors; an envelope with no text is not an error at this layer.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (Envelope, error)
}

// CompleterFunc adapts a plain function to Completer.
type CompleterFunc func(ctx context.Context, messages []Message) (Envelope, error)

func (f CompleterFunc) Complete(ctx context.Context, messages []Message) (Envelope, error) {
	return f(ctx, messages)
}

// SplitSystem separates leading system messages from the conversation, for
// providers that take the system prompt out of band.
func SplitSystem(messages []Message) (string, []Message) {
	var system string
	rest := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		rest = append(rest, m)
	}
	return system, rest
}
