package llm

import (
	"encoding/json"
	"strings"

	"github.com/auraihq/aurai/internal/session"
)

// parseFailureMarker is the analysis value on fallback responses so a human
// can tell a recovered reply from a parsed one.
const parseFailureMarker = "parse failure"

// Normalize recovers a structured response from raw model text. A fenced
// code block (with or without a language tag) is unwrapped first. When the
// remainder is not valid JSON the raw text survives as guidance on a
// fallback response; a malformed reply never vanishes and never errors.
func Normalize(raw string) session.Response {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)

	var resp session.Response
	if err := json.Unmarshal([]byte(clean), &resp); err != nil {
		return session.Response{
			Analysis:                  parseFailureMarker,
			Guidance:                  clean,
			ActionItems:               []string{},
			NeedsAnotherIteration:     false,
			Resolved:                  false,
			RequiresHumanIntervention: true,
		}
	}
	if resp.ActionItems == nil {
		resp.ActionItems = []string{}
	}
	if resp.Questions == nil {
		resp.Questions = []string{}
	}
	return resp
}

// FailureKind classifies transport-level failures for the hint string. The
// classification never changes the boolean defaults of the response.
type FailureKind int

const (
	FailureUnclassified FailureKind = iota
	FailureAuth
	FailureRateLimit
	FailureInvalidModel
)

func (k FailureKind) hint() string {
	switch k {
	case FailureAuth:
		return "Check the API key: the backend rejected the credentials."
	case FailureRateLimit:
		return "The backend is rate limiting requests; wait before retrying."
	case FailureInvalidModel:
		return "The configured model name was rejected; verify it against the provider's model list."
	default:
		return "Check the API key, base URL, and network connectivity."
	}
}

// Failure converts a transport failure into the canonical fallback
// response. The cause text lands in the analysis field for inspection.
func Failure(kind FailureKind, cause string) session.Response {
	return session.Response{
		Analysis:                  "request failed: " + cause,
		Guidance:                  kind.hint(),
		ActionItems:               []string{},
		NeedsAnotherIteration:     false,
		Resolved:                  false,
		RequiresHumanIntervention: true,
	}
}

// classifyStatus maps an HTTP status and body excerpt to a failure kind.
func classifyStatus(status int, body string) FailureKind {
	switch status {
	case 401, 403:
		return FailureAuth
	case 429:
		return FailureRateLimit
	case 404:
		return FailureInvalidModel
	}
	if status == 400 && strings.Contains(strings.ToLower(body), "model") {
		return FailureInvalidModel
	}
	return FailureUnclassified
}
