// Package advisor orchestrates advisory requests: it builds prompts from the
// conversation log, invokes the provider client, and applies the session
// lifecycle transitions.
package advisor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/auraihq/aurai/internal/config"
	"github.com/auraihq/aurai/internal/contextopt"
	"github.com/auraihq/aurai/internal/llm"
	"github.com/auraihq/aurai/internal/logging"
	"github.com/auraihq/aurai/internal/session"
)

// ConsultRequest is a guidance request from the local agent.
type ConsultRequest struct {
	ProblemType        string
	ErrorMessage       string
	CodeSnippet        string
	Context            map[string]any
	AttemptsMade       string
	AnswersToQuestions string
	IsNewQuestion      bool
}

// ConsultResult is the boundary payload for consult operations. Status is
// "need_info" when the advisor asked clarifying questions and "success"
// otherwise.
type ConsultResult struct {
	Status                    string               `json:"status"`
	Message                   string               `json:"message,omitempty"`
	QuestionsToAnswer         []string             `json:"questions_to_answer,omitempty"`
	Instruction               string               `json:"instruction,omitempty"`
	RelatedToolsHint          map[string]string    `json:"related_tools_hint,omitempty"`
	Analysis                  string               `json:"analysis,omitempty"`
	Guidance                  string               `json:"guidance,omitempty"`
	ActionItems               []string             `json:"action_items,omitempty"`
	CodeChanges               []session.CodeChange `json:"code_changes,omitempty"`
	Verification              string               `json:"verification,omitempty"`
	NeedsAnotherIteration     bool                 `json:"needs_another_iteration"`
	Resolved                  bool                 `json:"resolved"`
	RequiresHumanIntervention bool                 `json:"requires_human_intervention"`
	Hint                      string               `json:"hint,omitempty"`
}

// ProgressRequest reports the outcome of executing prior guidance.
type ProgressRequest struct {
	ActionsTaken string
	Result       string
	NewError     string
	Feedback     string
}

// SyncRequest mirrors the sync_context operation.
type SyncRequest struct {
	Operation   string
	Files       []string
	ProjectInfo map[string]any
}

// SyncResult is the boundary payload for sync_context.
type SyncResult struct {
	Status           string   `json:"status"`
	Message          string   `json:"message"`
	FilesCount       int      `json:"files_count,omitempty"`
	TextFilesRead    int      `json:"text_files_read,omitempty"`
	TempFilesCreated int      `json:"temp_files_created,omitempty"`
	SkippedFiles     []string `json:"skipped_files,omitempty"`
	HistoryCount     int      `json:"history_count"`
}

// Status reports the current session state and fixed configuration.
type Status struct {
	HistoryCount  int    `json:"conversation_history_count"`
	MaxIterations int    `json:"max_iterations"`
	MaxHistory    int    `json:"max_history"`
	Provider      string `json:"provider"`
	Model         string `json:"model"`
}

// Advisor coordinates a single logical advisory session. One exclusive lock
// serializes the whole read-prompt-call-append sequence, network call
// included: concurrent advisory turns are deliberately not pipelined since
// backend latency dominates either way.
type Advisor struct {
	mu        sync.Mutex
	cfg       config.Config
	store     *session.Store
	client    llm.ChatClient
	optimizer *contextopt.Optimizer
	logger    *logging.Logger
}

// New builds an Advisor from its collaborators.
func New(cfg config.Config, store *session.Store, client llm.ChatClient, optimizer *contextopt.Optimizer, logger *logging.Logger) *Advisor {
	return &Advisor{
		cfg:       cfg,
		store:     store,
		client:    client,
		optimizer: optimizer,
		logger:    logger,
	}
}

const newQuestionHint = "To consult on a new problem, set is_new_question=true on the next call. " +
	"That clears all prior conversation history (previous problems and advisor guidance); " +
	"the new question itself is processed normally and seeds the fresh conversation."

// Consult forwards a problem to the advisor, applying new-topic detection
// before processing and auto-clear after a resolving reply.
func (a *Advisor) Consult(ctx context.Context, req ConsultRequest) ConsultResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.logger.Infof("consult request, problem type %q, new question %v", req.ProblemType, req.IsNewQuestion)

	if req.IsNewQuestion {
		n := a.store.Clear()
		a.logger.Infof("new question flagged, cleared %d history turns", n)
	} else if last, ok := a.store.Last(); ok && last.Response != nil && last.Response.Resolved {
		n := a.store.Clear()
		a.logger.Infof("previous conversation resolved, cleared %d history turns", n)
	}

	contextInfo := make(map[string]any, len(req.Context)+1)
	for k, v := range req.Context {
		contextInfo[k] = v
	}
	if req.AnswersToQuestions != "" {
		contextInfo["answers_to_questions"] = req.AnswersToQuestions
	}

	history := a.store.Recent(a.cfg.Server.MaxHistory)
	prompt := buildConsultPrompt(req, contextInfo, a.store.Len(), history)

	resp := a.client.Chat(ctx, prompt, SystemPrompt, history)

	a.store.Append(session.Turn{
		Kind:         session.KindConsult,
		ProblemType:  req.ProblemType,
		ErrorMessage: req.ErrorMessage,
		HadAnswers:   req.AnswersToQuestions != "",
		Response:     &resp,
	})

	if resp.Status == "aligning" {
		a.logger.Infof("advisor requested more information, %d questions", len(resp.Questions))
		return ConsultResult{
			Status:            "need_info",
			Message:           "The advisor needs more information. Answer the questions below.",
			QuestionsToAnswer: resp.Questions,
			Instruction:       "Gather the requested information, call consult_aurai again, and put the answers in 'answers_to_questions'.",
			RelatedToolsHint: map[string]string{
				"sync_context": "Upload .txt/.md documents to supply missing context, e.g. sync_context(operation='full_sync', files=['path/to/doc.md']).",
			},
		}
	}

	a.logger.Infof("advisor provided guidance, resolved %v", resp.Resolved)
	if resp.Resolved {
		n := a.store.Clear()
		a.logger.Infof("problem resolved, cleared %d history turns", n)
	}

	return ConsultResult{
		Status:                    "success",
		Analysis:                  resp.Analysis,
		Guidance:                  resp.Guidance,
		ActionItems:               resp.ActionItems,
		CodeChanges:               resp.CodeChanges,
		Verification:              resp.Verification,
		NeedsAnotherIteration:     resp.NeedsAnotherIteration,
		Resolved:                  resp.Resolved,
		RequiresHumanIntervention: resp.RequiresHumanIntervention,
		Hint:                      newQuestionHint,
	}
}

// ReportProgress reports executed actions and asks for the next step. When
// the iteration ceiling is already reached the provider is not contacted
// and history stays unmodified.
func (a *Advisor) ReportProgress(ctx context.Context, req ProgressRequest) session.Response {
	a.mu.Lock()
	defer a.mu.Unlock()

	iteration := a.store.Len()
	if iteration >= a.cfg.Provider.MaxIterations {
		a.logger.Warnf("iteration ceiling %d reached, requesting human intervention", a.cfg.Provider.MaxIterations)
		return iterationCeilingResponse(a.cfg.Provider.MaxIterations)
	}

	a.logger.Infof("progress report, result %q", req.Result)

	history := a.store.Recent(a.cfg.Server.MaxHistory)
	prompt := buildProgressPrompt(req, iteration, history)
	resp := a.client.Chat(ctx, prompt, SystemPrompt, history)

	a.store.Append(session.Turn{
		Kind:         session.KindProgress,
		ActionsTaken: req.ActionsTaken,
		Result:       req.Result,
		NewError:     req.NewError,
		Feedback:     req.Feedback,
		Response:     &resp,
	})

	if resp.Resolved {
		n := a.store.Clear()
		a.logger.Infof("problem resolved, cleared %d history turns", n)
	}

	return resp
}

func iterationCeilingResponse(maxIterations int) session.Response {
	return session.Response{
		Analysis:                  "maximum iteration count reached",
		Guidance:                  "human intervention is recommended before continuing",
		ActionItems:               []string{"request a human review of the current state"},
		NeedsAnotherIteration:     false,
		Resolved:                  false,
		RequiresHumanIntervention: true,
	}
}

// textExtensions are the only file types sync_context will read.
var textExtensions = map[string]bool{
	".txt": true,
	".md":  true,
}

// SyncContext ingests project context: uploaded files, project info (with
// oversized fields externalized), or a full history clear.
func (a *Advisor) SyncContext(ctx context.Context, req SyncRequest) SyncResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.logger.Infof("sync_context request, operation %q", req.Operation)

	switch req.Operation {
	case "clear":
		a.store.Clear()
		a.logger.Infof("conversation history cleared")
		return SyncResult{
			Status:       "success",
			Message:      "conversation history cleared",
			HistoryCount: 0,
		}
	case "full_sync", "incremental":
	default:
		return SyncResult{
			Status:       "error",
			Message:      "unknown operation: " + req.Operation,
			HistoryCount: a.store.Len(),
		}
	}

	optimizedInfo, tempFiles, fileContents := a.optimizer.Optimize(req.ProjectInfo)
	if fileContents == nil {
		fileContents = make(map[string]string)
	}

	var skipped []string
	for _, path := range req.Files {
		if !textExtensions[strings.ToLower(filepath.Ext(path))] {
			a.logger.Warnf("skipping unsupported file type: %s (only .txt and .md)", path)
			skipped = append(skipped, path)
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			a.logger.Errorf("read file %s: %v", path, err)
			continue
		}
		fileContents[path] = string(data)
		a.logger.Infof("read file %s (%d chars)", path, len(data))
	}

	a.store.Append(session.Turn{
		Kind:         session.KindSyncContext,
		Operation:    req.Operation,
		Files:        req.Files,
		TempFiles:    tempFiles,
		FileContents: fileContents,
		ProjectInfo:  optimizedInfo,
	})

	messageParts := []string{"context synced (" + req.Operation + ")"}
	if len(tempFiles) > 0 {
		messageParts = append(messageParts, "oversized content cached")
	}
	if len(skipped) > 0 {
		messageParts = append(messageParts, "unsupported files skipped")
	}

	a.logger.Infof("context synced: %d files, %d read, %d cached, %d skipped",
		len(req.Files)+len(tempFiles), len(fileContents), len(tempFiles), len(skipped))

	return SyncResult{
		Status:           "success",
		Message:          strings.Join(messageParts, ", "),
		FilesCount:       len(req.Files) + len(tempFiles),
		TextFilesRead:    len(fileContents),
		TempFilesCreated: len(tempFiles),
		SkippedFiles:     skipped,
		HistoryCount:     a.store.Len(),
	}
}

// Status reports the current conversation state.
func (a *Advisor) Status() Status {
	return Status{
		HistoryCount:  a.store.Len(),
		MaxIterations: a.cfg.Provider.MaxIterations,
		MaxHistory:    a.cfg.Server.MaxHistory,
		Provider:      a.cfg.Provider.Name,
		Model:         a.cfg.Provider.Model,
	}
}
