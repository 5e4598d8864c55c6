package archive

import (
	"archive/zip"
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func TestFetch_Success(t *testing.T) {
	payload := buildZip(t, map[string]string{"a.docx": "x"})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("Expected GET, got %s", r.Method)
		}
		w.Write(payload)
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "articles.zip")
	if err := New(Config{}).Fetch(t.Context(), server.URL, path); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("Fetch() wrote %d bytes, want %d", len(got), len(payload))
	}
}

func TestFetch_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	tests := []struct {
		name string
		url  string
	}{
		{"empty url", ""},
		{"error status", server.URL},
		{"unreachable", "http://127.0.0.1:1/articles.zip"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "articles.zip")
			if err := New(Config{}).Fetch(t.Context(), tt.url, path); err == nil {
				t.Error("Fetch() expected error")
			}
		})
	}
}

func TestFetch_InterruptedTransferKeepsPreviousArchive(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000")
		w.Write([]byte("PK partial"))
		w.(http.Flusher).Flush()
		// returning early closes the connection short of Content-Length
	}))
	defer server.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "articles.zip")
	previous := buildZip(t, map[string]string{"old.docx": "x"})
	if err := os.WriteFile(path, previous, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := New(Config{}).Fetch(t.Context(), server.URL, path); err == nil {
		t.Fatal("Fetch() expected error for an interrupted transfer")
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !bytes.Equal(got, previous) {
		t.Errorf("previous archive was replaced (%d bytes, want %d)", len(got), len(previous))
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temporary download should be removed, stat error = %v", err)
	}
}

func TestExtract(t *testing.T) {
	tmp := t.TempDir()
	archivePath := filepath.Join(tmp, "articles.zip")
	payload := buildZip(t, map[string]string{
		"b.docx":        "second",
		"a.docx":        "first",
		"notes.txt":     "ignored",
		"sub/c.docx":    "nested",
		"sub/readme.md": "readme",
	})
	if err := os.WriteFile(archivePath, payload, 0o644); err != nil {
		t.Fatal(err)
	}

	dir := filepath.Join(tmp, "articles_docx")
	if err := Extract(archivePath, dir); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	content, err := os.ReadFile(filepath.Join(dir, "sub", "c.docx"))
	if err != nil || string(content) != "nested" {
		t.Errorf("nested entry = %q, %v", content, err)
	}

	// Re-extracting over an existing directory overwrites without error
	if err := Extract(archivePath, dir); err != nil {
		t.Fatalf("second Extract() error = %v", err)
	}

	files, err := ListDocuments(dir)
	if err != nil {
		t.Fatalf("ListDocuments() error = %v", err)
	}
	want := []string{filepath.Join(dir, "a.docx"), filepath.Join(dir, "b.docx")}
	if len(files) != len(want) {
		t.Fatalf("ListDocuments() = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("ListDocuments()[%d] = %q, want %q", i, files[i], want[i])
		}
	}
}

func TestExtract_CorruptArchive(t *testing.T) {
	tmp := t.TempDir()
	archivePath := filepath.Join(tmp, "articles.zip")
	os.WriteFile(archivePath, []byte("not a zip"), 0o644)

	dir := filepath.Join(tmp, "out")
	if err := Extract(archivePath, dir); err == nil {
		t.Error("Extract() expected error for corrupt archive")
	}
	// The working directory is still created
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("work dir should exist: %v", err)
	}
}

func TestExtract_MissingArchive(t *testing.T) {
	tmp := t.TempDir()
	if err := Extract(filepath.Join(tmp, "missing.zip"), filepath.Join(tmp, "out")); err == nil {
		t.Error("Extract() expected error for missing archive")
	}
}

func TestExtract_RejectsPathTraversal(t *testing.T) {
	tmp := t.TempDir()
	archivePath := filepath.Join(tmp, "evil.zip")
	os.WriteFile(archivePath, buildZip(t, map[string]string{"../escape.docx": "x"}), 0o644)

	if err := Extract(archivePath, filepath.Join(tmp, "out")); err == nil {
		t.Error("Extract() expected error for entry escaping the directory")
	}
	if _, err := os.Stat(filepath.Join(tmp, "escape.docx")); err == nil {
		t.Error("entry was written outside the target directory")
	}
}

func TestListDocuments_MissingDir(t *testing.T) {
	files, err := ListDocuments(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("ListDocuments() error = %v", err)
	}
	if len(files) != 0 {
		t.Errorf("ListDocuments() = %v, want empty", files)
	}
}
