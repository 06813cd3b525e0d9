package llm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/auraihq/aurai/internal/session"
	"github.com/auraihq/aurai/internal/tokens"
)

// flattenHistory converts stored turns into wire messages. Sync-context
// turns come first: every uploaded file is replayed as one or more system
// messages, split against the per-message token ceiling and labeled with its
// segment position. Consult turns follow as a user message plus, when the
// recorded response carried analysis or guidance, an assistant message.
// Progress turns are skipped; their content lives in the prompt body.
func flattenHistory(history []session.Turn, perMessageTokens int) []Message {
	if len(history) == 0 {
		return nil
	}

	var messages []Message

	for _, turn := range history {
		if turn.Kind != session.KindSyncContext || len(turn.FileContents) == 0 {
			continue
		}
		paths := make([]string, 0, len(turn.FileContents))
		for path := range turn.FileContents {
			paths = append(paths, path)
		}
		sort.Strings(paths)

		for _, path := range paths {
			chunks := tokens.Split(turn.FileContents[path], perMessageTokens)
			for idx, chunk := range chunks {
				messages = append(messages, Message{
					Role:    "system",
					Content: tokens.Label(path, idx, len(chunks)) + "```\n" + chunk + "\n```",
				})
			}
		}
	}

	for _, turn := range history {
		if turn.Kind != session.KindConsult {
			continue
		}

		messages = append(messages, Message{
			Role:    "user",
			Content: fmt.Sprintf("Problem type: %s\nError description: %s", turn.ProblemType, turn.ErrorMessage),
		})

		if turn.Response == nil {
			continue
		}
		if turn.Response.Analysis != "" || turn.Response.Guidance != "" {
			messages = append(messages, Message{
				Role:    "assistant",
				Content: fmt.Sprintf("Analysis: %s\nGuidance: %s", turn.Response.Analysis, turn.Response.Guidance),
			})
		}
	}

	return messages
}

// foldToPrompt collapses a system prompt and message list into one prompt
// text for providers whose transport has no system role. Ordering matches
// the message-list construction.
func foldToPrompt(systemPrompt string, messages []Message, userMessage string) string {
	var b strings.Builder
	if strings.TrimSpace(systemPrompt) != "" {
		b.WriteString(systemPrompt)
		b.WriteString("\n\n")
	}
	for _, msg := range messages {
		switch msg.Role {
		case "assistant":
			b.WriteString("[Advisor]\n")
		case "system":
			b.WriteString("[Context]\n")
		default:
			b.WriteString("[Agent]\n")
		}
		b.WriteString(msg.Content)
		b.WriteString("\n\n")
	}
	b.WriteString(userMessage)
	return b.String()
}
