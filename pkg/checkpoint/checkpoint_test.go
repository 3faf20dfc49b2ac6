package checkpoint

import (
	"errors"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestMarkAndCheckCompletion(t *testing.T) {
	store := openTestStore(t)

	done, err := store.IsCompleted("batch-1", "scope-1", "Alice works for Acme Corp.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if done {
		t.Error("expected item to start incomplete")
	}

	if err := store.MarkCompleted("batch-1", "scope-1", "Alice works for Acme Corp.", "doc-1"); err != nil {
		t.Fatalf("failed to mark: %v", err)
	}

	done, err = store.IsCompleted("batch-1", "scope-1", "Alice works for Acme Corp.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !done {
		t.Error("expected item to be completed")
	}

	// Markers are content keyed. Another text, scope, or batch is unaffected.
	if done, _ := store.IsCompleted("batch-1", "scope-1", "Alice knows Bob."); done {
		t.Error("different text must not be completed")
	}
	if done, _ := store.IsCompleted("batch-1", "scope-2", "Alice works for Acme Corp."); done {
		t.Error("different scope must not be completed")
	}
	if done, _ := store.IsCompleted("batch-2", "scope-1", "Alice works for Acme Corp."); done {
		t.Error("batch-2 must not be completed")
	}
}

func TestCompletedCount(t *testing.T) {
	store := openTestStore(t)

	texts := []string{"one", "two", "three", "four", "five"}
	for _, text := range texts {
		if err := store.MarkCompleted("batch-1", "scope-1", text, ""); err != nil {
			t.Fatalf("failed to mark %q: %v", text, err)
		}
	}
	if err := store.MarkCompleted("batch-2", "scope-1", "one", ""); err != nil {
		t.Fatalf("failed to mark: %v", err)
	}

	count, err := store.CompletedCount("batch-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 5 {
		t.Errorf("expected 5 completed items, got %d", count)
	}
}

func TestMarkIsIdempotentPerText(t *testing.T) {
	store := openTestStore(t)

	for i := 0; i < 3; i++ {
		if err := store.MarkCompleted("batch-1", "scope-1", "same text", "doc-1"); err != nil {
			t.Fatalf("failed to mark: %v", err)
		}
	}

	count, err := store.CompletedCount("batch-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Errorf("expected a single marker for repeated text, got %d", count)
	}
}

func TestClear(t *testing.T) {
	store := openTestStore(t)

	for _, text := range []string{"one", "two", "three"} {
		if err := store.MarkCompleted("batch-1", "scope-1", text, ""); err != nil {
			t.Fatalf("failed to mark %q: %v", text, err)
		}
	}
	if err := store.Clear("batch-1"); err != nil {
		t.Fatalf("failed to clear: %v", err)
	}

	count, err := store.CompletedCount("batch-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 0 {
		t.Errorf("expected cleared batch, got %d items", count)
	}
}

func TestEmptyBatchIDRejected(t *testing.T) {
	store := openTestStore(t)

	if err := store.MarkCompleted("", "scope-1", "text", ""); !errors.Is(err, ErrEmptyBatchID) {
		t.Errorf("expected ErrEmptyBatchID from MarkCompleted, got %v", err)
	}
	if _, err := store.IsCompleted("", "scope-1", "text"); !errors.Is(err, ErrEmptyBatchID) {
		t.Errorf("expected ErrEmptyBatchID from IsCompleted, got %v", err)
	}
}
