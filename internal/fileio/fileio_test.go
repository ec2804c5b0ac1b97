package fileio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadPrefix(t *testing.T) {
	path := writeTemp(t, "hello world")
	got, err := ReadPrefix(path, 5)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello" {
		t.Errorf("got %q, want %q", got, "hello")
	}
}

func TestReadPrefixShorterThanMax(t *testing.T) {
	path := writeTemp(t, "hi")
	got, err := ReadPrefix(path, 4096)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hi" {
		t.Errorf("got %q, want %q", got, "hi")
	}
}

func TestReadPrefixOpenFailed(t *testing.T) {
	_, err := ReadPrefix(filepath.Join(t.TempDir(), "missing"), 10)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestReadChunks(t *testing.T) {
	path := writeTemp(t, "xxabcxxabc")
	var chunks []string
	err := ReadChunks(context.Background(), path, 4, func(c []byte) error {
		chunks = append(chunks, string(c))
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"xxab", "cxxa", "bc"}
	if len(chunks) != len(want) {
		t.Fatalf("got %v chunks, want %v", chunks, want)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, chunks[i], want[i])
		}
	}
}

func TestReadChunksCallbackError(t *testing.T) {
	path := writeTemp(t, "abcdefgh")
	sentinel := errors.New("stop")
	calls := 0
	err := ReadChunks(context.Background(), path, 2, func(c []byte) error {
		calls++
		if calls == 2 {
			return sentinel
		}
		return nil
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("got err %v, want %v", err, sentinel)
	}
	if calls != 2 {
		t.Errorf("expected short-circuit after 2 calls, got %d", calls)
	}
}

func TestReadChunksCancellation(t *testing.T) {
	path := writeTemp(t, "abcdefghij")
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := ReadChunks(ctx, path, 2, func(c []byte) error {
		calls++
		if calls == 1 {
			cancel()
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls >= 5 {
		t.Errorf("expected cancellation to stop early, got %d calls", calls)
	}
}
