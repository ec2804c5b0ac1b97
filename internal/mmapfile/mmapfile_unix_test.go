//go:build unix

package mmapfile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenAndRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(path, []byte("hello world"), 0o644); err != nil {
		t.Fatal(err)
	}

	mf, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer mf.Close()

	if mf.Size() != 11 {
		t.Errorf("Size() = %d, want 11", mf.Size())
	}
	if string(mf.Bytes()) != "hello world" {
		t.Errorf("Bytes() = %q", mf.Bytes())
	}
}

func TestOpenZeroLength(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.txt")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	mf, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer mf.Close()

	if mf.Size() != 0 {
		t.Errorf("Size() = %d, want 0", mf.Size())
	}
	if len(mf.Bytes()) != 0 {
		t.Errorf("Bytes() = %v, want empty", mf.Bytes())
	}
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
