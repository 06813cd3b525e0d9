package server

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/auraihq/aurai/internal/advisor"
	"github.com/auraihq/aurai/internal/config"
	"github.com/auraihq/aurai/internal/contextopt"
	"github.com/auraihq/aurai/internal/session"
)

type stubClient struct {
	prompts  []string
	response session.Response
}

func (s *stubClient) Chat(_ context.Context, userMessage, _ string, _ []session.Turn) session.Response {
	s.prompts = append(s.prompts, userMessage)
	return s.response
}

func (s *stubClient) ListModels(context.Context) ([]string, error) {
	return []string{"glm-4.7"}, nil
}

func newTestServer(t *testing.T, client *stubClient) *Server {
	t.Helper()
	cfg := config.Config{
		Provider: config.Provider{
			Name:             "openai",
			APIKey:           "sk-0123456789abcdef",
			BaseURL:          "https://api.example.com/v1",
			Model:            "glm-4.7",
			ContextWindow:    config.DefaultContextWindow,
			MaxMessageTokens: config.DefaultMaxMessageTokens,
			MaxTokens:        config.DefaultMaxTokens,
			MaxIterations:    5,
			Temperature:      0.7,
		},
		Server: config.Server{
			Name:       "Aurai Advisor",
			MaxHistory: 10,
		},
	}
	store := session.NewStore(cfg.Server.MaxHistory, nil, nil)
	blobs := contextopt.NewDirStore(t.TempDir(), nil)
	optimizer := contextopt.NewOptimizer(blobs, contextopt.DefaultThreshold, nil)
	adv := advisor.New(cfg, store, client, optimizer, nil)
	return New(cfg.Server.Name, adv, nil)
}

func TestConsultHandlerAcceptsContextAsJSONString(t *testing.T) {
	t.Parallel()

	client := &stubClient{response: session.Response{Status: "guiding", Guidance: "use a mutex"}}
	srv := newTestServer(t, client)

	_, result, err := srv.consult(context.Background(), nil, consultArgs{
		ProblemType:  "concurrency",
		ErrorMessage: "data race",
		Context:      `{"file_path": "store.go", "line_number": 42}`,
	})
	if err != nil {
		t.Fatalf("consult returned error: %v", err)
	}
	if result.Status != "success" || result.Guidance != "use a mutex" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(client.prompts) != 1 {
		t.Fatalf("expected one chat call, got %d", len(client.prompts))
	}
	prompt := client.prompts[0]
	for _, want := range []string{"store.go", "42"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestConsultHandlerDegradesBadContextToEmpty(t *testing.T) {
	t.Parallel()

	client := &stubClient{response: session.Response{Status: "guiding", Guidance: "g"}}
	srv := newTestServer(t, client)

	_, result, err := srv.consult(context.Background(), nil, consultArgs{
		ProblemType:  "bug",
		ErrorMessage: "boom",
		Context:      `{not json`,
	})
	if err != nil {
		t.Fatalf("consult returned error: %v", err)
	}
	if result.Status != "success" {
		t.Fatalf("bad context should not fail the call, got status %q", result.Status)
	}
}

func TestReportProgressHandler(t *testing.T) {
	t.Parallel()

	client := &stubClient{response: session.Response{Status: "guiding", Guidance: "run the tests", NeedsAnotherIteration: true}}
	srv := newTestServer(t, client)

	_, resp, err := srv.reportProgress(context.Background(), nil, progressArgs{
		ActionsTaken: "applied the fix",
		Result:       "partial",
		NewError:     "one test still failing",
	})
	if err != nil {
		t.Fatalf("reportProgress returned error: %v", err)
	}
	if resp.Guidance != "run the tests" || !resp.NeedsAnotherIteration {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestSyncContextHandlerAcceptsFilesAsJSONString(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	notes := filepath.Join(dir, "notes.md")
	if err := os.WriteFile(notes, []byte("# design notes"), 0o644); err != nil {
		t.Fatal(err)
	}

	srv := newTestServer(t, &stubClient{})

	_, result, err := srv.syncContext(context.Background(), nil, syncArgs{
		Operation: "full_sync",
		Files:     `["` + notes + `"]`,
	})
	if err != nil {
		t.Fatalf("syncContext returned error: %v", err)
	}
	if result.Status != "success" {
		t.Fatalf("status = %q, want success", result.Status)
	}
	if result.TextFilesRead != 1 {
		t.Fatalf("TextFilesRead = %d, want 1", result.TextFilesRead)
	}
}

func TestGetStatusHandler(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubClient{})

	_, status, err := srv.getStatus(context.Background(), nil, statusArgs{})
	if err != nil {
		t.Fatalf("getStatus returned error: %v", err)
	}
	if status.Provider != "openai" || status.Model != "glm-4.7" {
		t.Fatalf("unexpected status: %+v", status)
	}
	if status.HistoryCount != 0 {
		t.Fatalf("HistoryCount = %d, want 0", status.HistoryCount)
	}
}

func TestParseObjectVariants(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubClient{})

	if got := srv.parseObject("context", map[string]any{"k": "v"}); got["k"] != "v" {
		t.Fatalf("native object not passed through: %v", got)
	}
	if got := srv.parseObject("context", `{"k": "v"}`); got["k"] != "v" {
		t.Fatalf("encoded object not decoded: %v", got)
	}
	if got := srv.parseObject("context", nil); got != nil {
		t.Fatalf("nil should stay nil, got %v", got)
	}
	if got := srv.parseObject("context", 7); got != nil {
		t.Fatalf("unsupported type should degrade to nil, got %v", got)
	}
}

func TestParseStringListVariants(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubClient{})

	if got := srv.parseStringList("files", []any{"a.md", 3, "b.txt"}); len(got) != 2 {
		t.Fatalf("mixed array should keep strings only, got %v", got)
	}
	if got := srv.parseStringList("files", `["a.md"]`); len(got) != 1 || got[0] != "a.md" {
		t.Fatalf("encoded array not decoded: %v", got)
	}
	if got := srv.parseStringList("files", `[broken`); got != nil {
		t.Fatalf("bad JSON should degrade to nil, got %v", got)
	}
}
