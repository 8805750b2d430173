package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomicCreatesParents(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "a", "b", "file.strm")
	if err := WriteFileAtomic(target, []byte("https://example.test/v.mkv"), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "https://example.test/v.mkv" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestWriteFileAtomicLeavesNoTempFiles(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "file.txt")
	if err := WriteFileAtomic(target, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}
	entries, err := os.ReadDir(base)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected single file, found %d entries", len(entries))
	}
}

func TestHashFile(t *testing.T) {
	base := t.TempDir()
	path := filepath.Join(base, "data.bin")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	// md5("hello")
	got, err := HashFile(path, "md5")
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	if got != "5d41402abc4b2a76b9719d911017c592" {
		t.Fatalf("md5 digest = %s", got)
	}

	// Default algorithm is md5.
	def, err := HashFile(path, "")
	if err != nil {
		t.Fatalf("HashFile default: %v", err)
	}
	if def != got {
		t.Fatalf("default digest %s != md5 digest %s", def, got)
	}

	if _, err := HashFile(path, "crc99"); err == nil {
		t.Fatal("expected error for unknown algorithm")
	}
}
