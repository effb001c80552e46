package migrate

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWatch_RunsOnSeedChange(t *testing.T) {
	dir := t.TempDir()
	seedPath := filepath.Join(dir, "tools.json")
	if err := os.WriteFile(seedPath, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ran := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, seedPath, discardLogger(), func(context.Context) error {
			select {
			case ran <- struct{}{}:
			default:
			}
			return nil
		})
	}()

	// Give the watcher a moment to register the directory.
	time.Sleep(200 * time.Millisecond)
	if err := os.WriteFile(seedPath, []byte(`{"tools":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not rerun after seed change")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Watch: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on cancel")
	}
}

func TestWatch_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	seedPath := filepath.Join(dir, "tools.json")
	if err := os.WriteFile(seedPath, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ran := make(chan struct{}, 1)
	go func() {
		_ = Watch(ctx, seedPath, discardLogger(), func(context.Context) error {
			ran <- struct{}{}
			return nil
		})
	}()

	time.Sleep(200 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-ran:
		t.Fatal("watcher fired for an unrelated file")
	case <-time.After(1 * time.Second):
	}
}
