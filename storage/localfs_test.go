package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalFileIOWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	fio, err := NewLocalFileIO(dir)
	if err != nil {
		t.Fatal(err)
	}

	out, err := fio.NewOutput("idx.bin")
	if err != nil {
		t.Fatal(err)
	}
	w, err := out.Writer(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []byte("hello file index")
	if _, err := w.Write(want); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	in, err := fio.NewInput("idx.bin")
	if err != nil {
		t.Fatal(err)
	}

	size, err := in.Stat(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if size != int64(len(want)) {
		t.Fatalf("Stat() = %d, want %d", size, len(want))
	}

	got, err := in.ReadRange(context.Background(), ByteRange{Start: 6, Length: 4})
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "file" {
		t.Fatalf("ReadRange = %q, want %q", got, "file")
	}

	if err := fio.Delete(context.Background(), "idx.bin"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "idx.bin")); !os.IsNotExist(err) {
		t.Fatal("expected file to be deleted")
	}
}

func TestNewLocalFileIOCreatesMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "dir")
	if _, err := NewLocalFileIO(dir); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("expected %s to exist as a directory", dir)
	}
}

func TestNewLocalFileIORejectsFileAsDir(t *testing.T) {
	parent := t.TempDir()
	filePath := filepath.Join(parent, "not-a-dir")
	if err := os.WriteFile(filePath, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewLocalFileIO(filePath); err == nil {
		t.Fatal("expected error when dir path is actually a file")
	}
}
