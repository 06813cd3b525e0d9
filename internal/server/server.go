// Package server exposes the advisory operations as MCP tools over stdio.
package server

import (
	"context"
	"encoding/json"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/auraihq/aurai/internal/advisor"
	"github.com/auraihq/aurai/internal/logging"
	"github.com/auraihq/aurai/internal/session"
)

// Server wires the Advisor to an MCP stdio transport.
type Server struct {
	name    string
	advisor *advisor.Advisor
	logger  *logging.Logger
}

// New builds a Server around an Advisor.
func New(name string, adv *advisor.Advisor, logger *logging.Logger) *Server {
	return &Server{name: name, advisor: adv, logger: logger}
}

type consultArgs struct {
	ProblemType        string `json:"problem_type"`
	ErrorMessage       string `json:"error_message"`
	CodeSnippet        string `json:"code_snippet,omitempty"`
	Context            any    `json:"context,omitempty"`
	AttemptsMade       string `json:"attempts_made,omitempty"`
	AnswersToQuestions string `json:"answers_to_questions,omitempty"`
	IsNewQuestion      bool   `json:"is_new_question,omitempty"`
}

type progressArgs struct {
	ActionsTaken string `json:"actions_taken"`
	Result       string `json:"result"`
	NewError     string `json:"new_error,omitempty"`
	Feedback     string `json:"feedback,omitempty"`
}

type syncArgs struct {
	Operation   string `json:"operation"`
	Files       any    `json:"files,omitempty"`
	ProjectInfo any    `json:"project_info,omitempty"`
}

type statusArgs struct{}

const consultDescription = "Ask the senior AI advisor for guidance on a programming problem. " +
	"Supports a multi-turn alignment protocol: when the reply carries status=need_info, gather " +
	"the requested information and call again with answers_to_questions filled in. " +
	"Set is_new_question=true to discard all prior conversation history before a fresh topic. " +
	"For long code or documents, upload files via sync_context instead of inlining them."

const progressDescription = "Report the outcome of executing the advisor's guidance " +
	"(actions_taken, result: success/failed/partial, optional new_error and feedback) " +
	"and receive the next step."

const syncDescription = "Sync project context to the advisor. operation is full_sync, incremental, " +
	"or clear. files accepts .txt and .md paths only; other extensions are skipped and reported. " +
	"Oversized project_info fields are cached to files automatically."

const statusDescription = "Report the current conversation state: history count, iteration and " +
	"history limits, provider, and model."

// Run serves the four advisory tools over stdio until ctx ends.
func (s *Server) Run(ctx context.Context) error {
	server := sdk.NewServer(&sdk.Implementation{
		Name:    s.name,
		Version: "1.0.0",
	}, nil)

	sdk.AddTool(server, &sdk.Tool{Name: "consult_aurai", Description: consultDescription}, s.consult)
	sdk.AddTool(server, &sdk.Tool{Name: "report_progress", Description: progressDescription}, s.reportProgress)
	sdk.AddTool(server, &sdk.Tool{Name: "sync_context", Description: syncDescription}, s.syncContext)
	sdk.AddTool(server, &sdk.Tool{Name: "get_status", Description: statusDescription}, s.getStatus)

	s.logger.Infof("starting %s MCP server", s.name)
	return server.Run(ctx, &sdk.StdioTransport{})
}

func (s *Server) consult(ctx context.Context, _ *sdk.CallToolRequest, args consultArgs) (*sdk.CallToolResult, advisor.ConsultResult, error) {
	result := s.advisor.Consult(ctx, advisor.ConsultRequest{
		ProblemType:        args.ProblemType,
		ErrorMessage:       args.ErrorMessage,
		CodeSnippet:        args.CodeSnippet,
		Context:            s.parseObject("context", args.Context),
		AttemptsMade:       args.AttemptsMade,
		AnswersToQuestions: args.AnswersToQuestions,
		IsNewQuestion:      args.IsNewQuestion,
	})
	return nil, result, nil
}

func (s *Server) reportProgress(ctx context.Context, _ *sdk.CallToolRequest, args progressArgs) (*sdk.CallToolResult, session.Response, error) {
	resp := s.advisor.ReportProgress(ctx, advisor.ProgressRequest{
		ActionsTaken: args.ActionsTaken,
		Result:       args.Result,
		NewError:     args.NewError,
		Feedback:     args.Feedback,
	})
	return nil, resp, nil
}

func (s *Server) syncContext(ctx context.Context, _ *sdk.CallToolRequest, args syncArgs) (*sdk.CallToolResult, advisor.SyncResult, error) {
	result := s.advisor.SyncContext(ctx, advisor.SyncRequest{
		Operation:   args.Operation,
		Files:       s.parseStringList("files", args.Files),
		ProjectInfo: s.parseObject("project_info", args.ProjectInfo),
	})
	return nil, result, nil
}

func (s *Server) getStatus(_ context.Context, _ *sdk.CallToolRequest, _ statusArgs) (*sdk.CallToolResult, advisor.Status, error) {
	return nil, s.advisor.Status(), nil
}

// parseObject accepts a native JSON object or a JSON-encoded string; bad
// input degrades to nil rather than failing the tool call.
func (s *Server) parseObject(field string, value any) map[string]any {
	switch v := value.(type) {
	case nil:
		return nil
	case map[string]any:
		return v
	case string:
		var parsed map[string]any
		if err := json.Unmarshal([]byte(v), &parsed); err != nil {
			s.logger.Warnf("parse %s as JSON object failed: %v, using empty", field, err)
			return nil
		}
		return parsed
	default:
		s.logger.Warnf("unsupported %s type %T, using empty", field, value)
		return nil
	}
}

// parseStringList accepts a native JSON array or a JSON-encoded string.
func (s *Server) parseStringList(field string, value any) []string {
	toStrings := func(items []any) []string {
		out := make([]string, 0, len(items))
		for _, item := range items {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}

	switch v := value.(type) {
	case nil:
		return nil
	case []any:
		return toStrings(v)
	case []string:
		return v
	case string:
		var parsed []any
		if err := json.Unmarshal([]byte(v), &parsed); err != nil {
			s.logger.Warnf("parse %s as JSON array failed: %v, using empty", field, err)
			return nil
		}
		return toStrings(parsed)
	default:
		s.logger.Warnf("unsupported %s type %T, using empty", field, value)
		return nil
	}
}
