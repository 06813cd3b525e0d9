package llm

import (
	"context"
	"net/http"

	"github.com/auraihq/aurai/internal/session"
)

// Message represents a single conversation message on the wire.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatClient unifies divergent backend APIs into one chat operation. The
// provider is selected once at construction and fixed for the client's
// lifetime. Chat never returns an error: every failure mode collapses into
// a well-formed response with RequiresHumanIntervention set.
type ChatClient interface {
	Chat(ctx context.Context, userMessage, systemPrompt string, history []session.Turn) session.Response
	ListModels(ctx context.Context) ([]string, error)
}

// HTTPClient abstracts http.Client for testability.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}
