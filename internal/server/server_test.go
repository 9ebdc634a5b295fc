package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tessro/flipbook/internal/core"
	"github.com/tessro/flipbook/internal/frames"
	"github.com/tessro/flipbook/internal/source"
)

func newTestServer(t *testing.T, n int) *Server {
	t.Helper()

	dir := t.TempDir()
	for i := 0; i < n; i++ {
		content := fmt.Sprintf("<svg>%d</svg>", i)
		if err := os.WriteFile(filepath.Join(dir, source.FrameName(i, "svg")), []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}
	// Present on disk but outside the manifest.
	if err := os.WriteFile(filepath.Join(dir, source.FrameName(n, "svg")), []byte("extra"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	src, err := source.NewDir(dir, "svg", source.Options{})
	if err != nil {
		t.Fatalf("NewDir() error = %v", err)
	}
	srv, err := New("127.0.0.1:0", src, core.Manifest{Frames: n, FrameRate: 12}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv
}

func TestHandler(t *testing.T) {
	srv := newTestServer(t, 3)
	defer func() { _ = srv.Shutdown(context.Background()) }()

	tests := []struct {
		path        string
		wantStatus  int
		wantBody    string
		contentType string
	}{
		{"/0.svg", http.StatusOK, "<svg>0</svg>", "image/svg+xml"},
		{"/2.svg", http.StatusOK, "<svg>2</svg>", "image/svg+xml"},
		{"/3.svg", http.StatusNotFound, "", ""},
		{"/-1.svg", http.StatusNotFound, "", ""},
		{"/01.svg", http.StatusNotFound, "", ""},
		{"/1.png", http.StatusNotFound, "", ""},
		{"/abc.svg", http.StatusNotFound, "", ""},
		{"/1", http.StatusNotFound, "", ""},
	}

	handler := srv.Handler()
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("GET %s status = %d, want %d", tt.path, rec.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			if got := rec.Body.String(); got != tt.wantBody {
				t.Errorf("GET %s body = %q, want %q", tt.path, got, tt.wantBody)
			}
			if got := rec.Header().Get("Content-Type"); got != tt.contentType {
				t.Errorf("GET %s Content-Type = %q, want %q", tt.path, got, tt.contentType)
			}
		})
	}
}

func TestManifestEndpoint(t *testing.T) {
	srv := newTestServer(t, 4)
	defer func() { _ = srv.Shutdown(context.Background()) }()

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/"+source.ManifestName, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got core.Manifest
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	want := core.Manifest{Frames: 4, FrameRate: 12, Extension: "svg"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("manifest mismatch (-want +got):\n%s", diff)
	}
}

func TestNewRejectsInvalidManifest(t *testing.T) {
	src, err := source.NewDir(t.TempDir(), "svg", source.Options{})
	if err != nil {
		t.Fatalf("NewDir() error = %v", err)
	}
	if _, err := New("127.0.0.1:0", src, core.Manifest{}, nil); err == nil {
		t.Error("New() with empty manifest error = nil, want error")
	}
}

// Frames served here play back through the HTTP source and loader.
func TestServeToLoader(t *testing.T) {
	srv := newTestServer(t, 5)
	srv.Start()
	defer func() { _ = srv.Shutdown(context.Background()) }()

	if srv.Port() == 0 {
		t.Fatal("Port() = 0 after Start")
	}

	src, err := source.NewHTTP(srv.URL(), "svg", source.Options{})
	if err != nil {
		t.Fatalf("NewHTTP() error = %v", err)
	}
	m, err := src.Manifest(context.Background())
	if err != nil {
		t.Fatalf("Manifest() error = %v", err)
	}
	if m.Frames != 5 {
		t.Fatalf("Manifest().Frames = %d, want 5", m.Frames)
	}

	l, err := frames.New(m.Frames, src)
	if err != nil {
		t.Fatalf("frames.New() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = l.Run(ctx) }()

	tk, err := l.Request(4)
	if err != nil {
		t.Fatalf("Request(4) error = %v", err)
	}
	content, err := tk.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if string(content) != "<svg>4</svg>" {
		t.Errorf("frame 4 = %q, want %q", content, "<svg>4</svg>")
	}

	resp, err := http.Get(srv.URL() + "/5.svg")
	if err != nil {
		t.Fatalf("GET /5.svg error = %v", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET /5.svg status = %d, want 404", resp.StatusCode)
	}
}
