package extractor

import (
	"github.com/MikeSquared-Agency/persona/internal/llm"
	"github.com/MikeSquared-Agency/persona/internal/schema"
)

type (
	Failure     = llm.Failure
	FailureKind = llm.FailureKind
)

const (
	KindTransport     = llm.KindTransport
	KindEmptyResponse = llm.KindEmptyResponse
	KindInvalidJSON   = llm.KindInvalidJSON
	KindStorage       = llm.KindStorage
)

// Result is a successful extraction.
type Result struct {
	Profile schema.Profile `json:"profile"`
	// Issues lists the repairs applied to the model output to make it conform.
	Issues []schema.Issue `json:"issues,omitempty"`
	Raw    string         `json:"-"`
}
