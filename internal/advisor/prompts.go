package advisor

import (
	"fmt"
	"strings"

	"github.com/auraihq/aurai/internal/session"
)

// SystemPrompt frames the remote model as a senior advisor and pins the two
// JSON response modes the normalizer expects.
const SystemPrompt = `You are a rigorous principal technical architect advising a local AI assistant.

Interaction principles:
1. Never guide blindly: when information is insufficient you must ask questions first instead of proposing a solution.
2. Alignment granularity: judge whether the information covers the 5W1H (what, when, where, who, why, how).

Output modes — reply with exactly one JSON object:

[Mode A: alignment phase] (information is vague, code, error text, or context is missing)
{
  "status": "aligning",
  "questions": ["key question 1", "key question 2"],
  "analysis": null,
  "guidance": null
}

[Mode B: guidance phase] (information is sufficient)
{
  "status": "guiding",
  "questions": [],
  "analysis": "root cause analysis",
  "guidance": "concrete steps",
  "action_items": ["step 1", "step 2"],
  "code_changes": [
    {
      "file": "path",
      "line": 0,
      "old": "original code",
      "new": "new code"
    }
  ],
  "verification": "how to verify",
  "needs_another_iteration": false,
  "resolved": false,
  "requires_human_intervention": false
}

Information requirements:
- Must have: a concrete error message or observed behavior
- Should have: the relevant code snippet
- Nice to have: attempted fixes, runtime environment, stack traces`

// historyDigest renders the most recent turns for inclusion in a prompt
// body. Only the last five turns are summarized.
func historyDigest(history []session.Turn) string {
	if len(history) == 0 {
		return ""
	}
	if len(history) > 5 {
		history = history[len(history)-5:]
	}

	var b strings.Builder
	b.WriteString("\n## Conversation history\n\n")
	for i, turn := range history {
		fmt.Fprintf(&b, "### Round %d\n", i+1)
		switch turn.Kind {
		case session.KindConsult:
			fmt.Fprintf(&b, "**Problem**: %s\n", turn.ErrorMessage)
		case session.KindProgress:
			fmt.Fprintf(&b, "**Actions taken**: %s\n", turn.ActionsTaken)
			fmt.Fprintf(&b, "**Result**: %s\n", turn.Result)
		case session.KindSyncContext:
			fmt.Fprintf(&b, "**Context synced**: %d files\n", len(turn.FileContents))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func buildConsultPrompt(req ConsultRequest, contextInfo map[string]any, iteration int, history []session.Turn) string {
	var contextLines []string
	if path, ok := contextInfo["file_path"].(string); ok && path != "" {
		contextLines = append(contextLines, fmt.Sprintf("- File path: %s", path))
	}
	if line, ok := contextInfo["line_number"]; ok {
		contextLines = append(contextLines, fmt.Sprintf("- Line number: %v", line))
	}
	if out, ok := contextInfo["terminal_output"].(string); ok && out != "" {
		contextLines = append(contextLines, fmt.Sprintf("- Terminal output:\n```\n%s\n```", out))
	}
	if answers, ok := contextInfo["answers_to_questions"].(string); ok && answers != "" {
		contextLines = append(contextLines, fmt.Sprintf("- Answers to your questions: %s", answers))
	}

	contextDesc := "none"
	if len(contextLines) > 0 {
		contextDesc = strings.Join(contextLines, "\n")
	}

	codeDesc := "none"
	if req.CodeSnippet != "" {
		language := "text"
		if lang, ok := contextInfo["language"].(string); ok && lang != "" {
			language = lang
		}
		codeDesc = fmt.Sprintf("```%s\n%s\n```", language, req.CodeSnippet)
	}

	attempts := "none"
	if req.AttemptsMade != "" {
		attempts = req.AttemptsMade
	}

	return fmt.Sprintf(`# You are the senior AI advisor

## Role
You are an experienced technical consultant guiding a local AI assistant through a programming problem.

## Task
Analyze the problem below and give clear, executable guidance.

## Problem
- **Type**: %s
- **Description**: %s
- **Iteration**: round %d

## Context
%s

## Code snippet
%s

## Attempted fixes
%s
%s

## Response contract

Evaluate information completeness first, then answer in exactly one of the two JSON modes from your instructions ("aligning" with questions, or "guiding" with analysis, guidance, action_items, code_changes, verification, needs_another_iteration, resolved, requires_human_intervention).

Principles: be concrete and executable, prefer the smallest change, guide step by step, admit limits and set requires_human_intervention when you cannot solve it, and escalate instead of looping on the same advice.

Now analyze the problem above and respond.`,
		req.ProblemType, req.ErrorMessage, iteration+1,
		contextDesc, codeDesc, attempts, historyDigest(history))
}

func buildProgressPrompt(req ProgressRequest, iteration int, history []session.Turn) string {
	var extra strings.Builder
	if req.NewError != "" {
		fmt.Fprintf(&extra, "- **New error**: %s\n", req.NewError)
	}
	if req.Feedback != "" {
		fmt.Fprintf(&extra, "- **Feedback**: %s\n", req.Feedback)
	}

	return fmt.Sprintf(`# Progress report

## Execution
- **Iteration**: round %d
- **Actions taken**: %s
- **Result**: %s
%s%s

## Judge

1. Is the problem solved?
2. Should another approach be tried?
3. Is human intervention needed?

Respond in the same JSON format as before with the next guidance.`,
		iteration+1, req.ActionsTaken, req.Result, extra.String(), historyDigest(history))
}
