package export

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveWritesFile(t *testing.T) {
	dir := t.TempDir()
	s := NewFileSaver(filepath.Join(dir, "exports"))

	path, err := s.Save("Request-Document.csv", []byte("Req_id,MSISDN\n"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if path != filepath.Join(dir, "exports", "Request-Document.csv") {
		t.Fatalf("unexpected path %s", path)
	}
	got, err := os.ReadFile(path)
	if err != nil || string(got) != "Req_id,MSISDN\n" {
		t.Fatalf("unexpected content %q (%v)", got, err)
	}

	entries, _ := os.ReadDir(filepath.Join(dir, "exports"))
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestSaveOverwrites(t *testing.T) {
	dir := t.TempDir()
	s := NewFileSaver(dir)
	if _, err := s.Save("Request-Document.csv", []byte("old")); err != nil {
		t.Fatal(err)
	}
	path, err := s.Save("Request-Document.csv", []byte("new"))
	if err != nil {
		t.Fatal(err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "new" {
		t.Fatalf("expected overwritten content, got %q", got)
	}
}

func TestSaveStripsDirectories(t *testing.T) {
	dir := t.TempDir()
	path, err := NewFileSaver(dir).Save("../../etc/Request-Document.csv", []byte("x"))
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("export escaped its directory: %s", path)
	}
}
