package localreporter

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSupportsExistingPathOnly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "story.log")
	if err := os.WriteFile(path, []byte("seed"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	r := New(path, TriggerNewContent)
	if r.Supports(path) != 1 {
		t.Fatal("expected full confidence for an existing file")
	}
	if r.Supports(filepath.Join(dir, "missing.log")) != 0 {
		t.Fatal("expected zero confidence for a non-existent path")
	}
}

func TestNewContentTriggerReportsOnlyAppendedBytes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "story.log")
	if err := os.WriteFile(path, []byte("seed\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	r := New(path, TriggerNewContent)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := r.CoverStory(ctx); err != nil {
		t.Fatalf("CoverStory: %v", err)
	}
	defer r.FinishStory()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if _, err := f.WriteString("new line\n"); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	f.Close()

	select {
	case data := <-r.Subscribe():
		if string(data.Payload) != "new line\n" {
			t.Fatalf("expected only the appended bytes, got %q", string(data.Payload))
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for a NewData update")
	}
}

func TestFileChangeTriggerReportsFullContents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "story.log")
	if err := os.WriteFile(path, []byte("seed\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	r := New(path, TriggerFileChange)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := r.CoverStory(ctx); err != nil {
		t.Fatalf("CoverStory: %v", err)
	}
	defer r.FinishStory()

	if err := os.WriteFile(path, []byte("replaced contents\n"), 0o644); err != nil {
		t.Fatalf("WriteFile (replace): %v", err)
	}

	select {
	case data := <-r.Subscribe():
		if string(data.Payload) != "replaced contents\n" {
			t.Fatalf("expected full replaced contents, got %q", string(data.Payload))
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for a NewData update")
	}
}
