package session_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/auraihq/aurai/internal/session"
)

func consultTurn(i int) session.Turn {
	return session.Turn{
		Kind:         session.KindConsult,
		ProblemType:  "runtime_error",
		ErrorMessage: fmt.Sprintf("error %d", i),
		Response:     &session.Response{Status: "guiding"},
	}
}

func TestStoreAppendEvictsOldestBeyondBound(t *testing.T) {
	t.Parallel()

	store := session.NewStore(3, nil, nil)
	for i := 0; i < 5; i++ {
		store.Append(consultTurn(i))
	}

	if store.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", store.Len())
	}
	turns := store.All()
	for i, turn := range turns {
		want := fmt.Sprintf("error %d", i+2)
		if turn.ErrorMessage != want {
			t.Fatalf("turn %d = %q, want %q", i, turn.ErrorMessage, want)
		}
	}
}

func TestStoreRecentPreservesOrder(t *testing.T) {
	t.Parallel()

	store := session.NewStore(10, nil, nil)
	for i := 0; i < 4; i++ {
		store.Append(consultTurn(i))
	}

	recent := store.Recent(2)
	if len(recent) != 2 {
		t.Fatalf("Recent(2) returned %d turns", len(recent))
	}
	if recent[0].ErrorMessage != "error 2" || recent[1].ErrorMessage != "error 3" {
		t.Fatalf("unexpected order: %q, %q", recent[0].ErrorMessage, recent[1].ErrorMessage)
	}

	if got := store.Recent(100); len(got) != 4 {
		t.Fatalf("Recent(100) returned %d turns, want 4", len(got))
	}
	if got := store.Recent(0); got != nil {
		t.Fatalf("Recent(0) = %#v, want nil", got)
	}
}

func TestStoreClearReportsDiscardedCount(t *testing.T) {
	t.Parallel()

	store := session.NewStore(10, nil, nil)
	store.Append(consultTurn(0))
	store.Append(consultTurn(1))

	if n := store.Clear(); n != 2 {
		t.Fatalf("Clear() = %d, want 2", n)
	}
	if store.Len() != 0 {
		t.Fatalf("Len() = %d after clear", store.Len())
	}
	if _, ok := store.Last(); ok {
		t.Fatalf("Last() should report empty after clear")
	}
}

func TestStoreConcurrentAppendsLoseNothingWithinBound(t *testing.T) {
	t.Parallel()

	store := session.NewStore(200, nil, nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				store.Append(consultTurn(base*10 + j))
			}
		}(i)
	}
	wg.Wait()

	if store.Len() != 80 {
		t.Fatalf("Len() = %d, want 80", store.Len())
	}
}

func TestFileSinkRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.json")
	sink := session.NewFileSink(path)

	store := session.NewStore(10, sink, nil)
	store.Append(consultTurn(0))
	store.Append(session.Turn{
		Kind:         session.KindSyncContext,
		Operation:    "incremental",
		Files:        []string{"notes.md"},
		FileContents: map[string]string{"notes.md": "content"},
	})

	reloaded := session.NewStore(10, session.NewFileSink(path), nil)
	if reloaded.Len() != 2 {
		t.Fatalf("reloaded %d turns, want 2", reloaded.Len())
	}
	last, ok := reloaded.Last()
	if !ok || last.Kind != session.KindSyncContext {
		t.Fatalf("unexpected last turn: %+v", last)
	}
	if last.FileContents["notes.md"] != "content" {
		t.Fatalf("file contents lost in round trip")
	}
}

func TestFileSinkAbsentFileLoadsEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sub", "history.json")
	sink := session.NewFileSink(path)

	turns, err := sink.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(turns) != 0 {
		t.Fatalf("expected empty history, got %d turns", len(turns))
	}

	// First load seeds an empty file.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("history file not created: %v", err)
	}
	var arr []session.Turn
	if err := json.Unmarshal(data, &arr); err != nil {
		t.Fatalf("seeded file is not a JSON array: %v", err)
	}
}

func TestFileSinkCorruptFileSurfacesError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.json")
	if err := os.WriteFile(path, []byte("{not an array"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := session.NewFileSink(path).Load(); err == nil {
		t.Fatalf("expected parse error for corrupt history")
	}
}

type failingSink struct{ saves int }

func (f *failingSink) Load() ([]session.Turn, error) { return nil, errors.New("load broken") }
func (f *failingSink) Save([]session.Turn) error {
	f.saves++
	return errors.New("save broken")
}

func TestStoreSwallowsSinkFailures(t *testing.T) {
	t.Parallel()

	sink := &failingSink{}
	store := session.NewStore(10, sink, nil)

	store.Append(consultTurn(0))
	store.Clear()

	if store.Len() != 0 {
		t.Fatalf("in-memory state diverged: %d", store.Len())
	}
	if sink.saves != 2 {
		t.Fatalf("expected a save attempt per mutation, got %d", sink.saves)
	}
}

func TestNewStoreTruncatesOversizedPersistedLog(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.json")
	sink := session.NewFileSink(path)
	var turns []session.Turn
	for i := 0; i < 6; i++ {
		turns = append(turns, consultTurn(i))
	}
	if err := sink.Save(turns); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	store := session.NewStore(4, session.NewFileSink(path), nil)
	if store.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", store.Len())
	}
	first := store.All()[0]
	if first.ErrorMessage != "error 2" {
		t.Fatalf("expected oldest retained turn to be error 2, got %q", first.ErrorMessage)
	}
}
