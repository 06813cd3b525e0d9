// Package session holds the bounded conversation log shared by all advisory
// operations: the turn records, the normalized response shape they carry,
// and the store that bounds and persists them.
package session

// Turn kinds.
const (
	KindConsult     = "consult"
	KindProgress    = "progress"
	KindSyncContext = "sync_context"
)

// CodeChange is a single suggested edit inside a response.
type CodeChange struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Old  string `json:"old"`
	New  string `json:"new"`
}

// Response is the canonical shape of a provider reply after normalization.
// Status is "aligning" when the advisor asks clarifying questions, "guiding"
// when it commits to advice, and empty for fallback responses. Resolved and
// RequiresHumanIntervention are carried independently; the store never
// reconciles them.
type Response struct {
	Status                    string       `json:"status,omitempty"`
	Questions                 []string     `json:"questions,omitempty"`
	Analysis                  string       `json:"analysis,omitempty"`
	Guidance                  string       `json:"guidance,omitempty"`
	ActionItems               []string     `json:"action_items,omitempty"`
	CodeChanges               []CodeChange `json:"code_changes,omitempty"`
	Verification              string       `json:"verification,omitempty"`
	NeedsAnotherIteration     bool         `json:"needs_another_iteration"`
	Resolved                  bool         `json:"resolved"`
	RequiresHumanIntervention bool         `json:"requires_human_intervention"`
}

// Turn is one entry in the conversation log, tagged by Kind. Consult and
// progress turns always carry a non-nil Response, even when the provider
// call failed (a synthetic failure response is substituted).
type Turn struct {
	Kind string `json:"type"`

	// Consult fields.
	ProblemType  string `json:"problem_type,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	HadAnswers   bool   `json:"had_answers,omitempty"`

	// Progress fields.
	ActionsTaken string `json:"actions_taken,omitempty"`
	Result       string `json:"result,omitempty"`
	NewError     string `json:"new_error,omitempty"`
	Feedback     string `json:"feedback,omitempty"`

	// Sync-context fields.
	Operation    string            `json:"operation,omitempty"`
	Files        []string          `json:"files,omitempty"`
	TempFiles    []string          `json:"temp_files,omitempty"`
	FileContents map[string]string `json:"file_contents,omitempty"`
	ProjectInfo  map[string]any    `json:"project_info,omitempty"`

	Response *Response `json:"response,omitempty"`
}
