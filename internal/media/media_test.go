package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func TestFetchNone(t *testing.T) {
	f := NewFetcher(t.TempDir(), time.Second, nil)
	res, err := f.Fetch(context.Background(), "post", Ref{Kind: KindNone})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Handles) != 0 {
		t.Errorf("expected no handles, got %d", len(res.Handles))
	}
}

func TestFetchImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("\x89PNG fake"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := NewFetcher(dir, time.Second, nil)
	res, err := f.Fetch(context.Background(), "post_1", Ref{Kind: KindImage, Locator: srv.URL + "/a.png"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Handles) != 1 {
		t.Fatalf("expected 1 handle, got %d", len(res.Handles))
	}
	h := res.Handles[0]
	if h.MIMEType != "image/png" {
		t.Errorf("expected image/png, got %q", h.MIMEType)
	}
	if h.Path != filepath.Join(dir, "post_1.png") {
		t.Errorf("unexpected path %q", h.Path)
	}
	data, err := os.ReadFile(h.Path)
	if err != nil || string(data) != "\x89PNG fake" {
		t.Errorf("unexpected file contents %q (err %v)", data, err)
	}
}

func TestFetchImageDefaultsToJPEG(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write([]byte("jpeg bytes"))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir(), time.Second, nil)
	res, err := f.Fetch(context.Background(), "p", Ref{Kind: KindImage, Locator: srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Handles[0].MIMEType != "image/jpeg" || filepath.Ext(res.Handles[0].Path) != ".jpg" {
		t.Errorf("expected jpeg fallback, got %+v", res.Handles[0])
	}
}

func TestFetchImageHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir(), time.Second, nil)
	if _, err := f.Fetch(context.Background(), "p", Ref{Kind: KindImage, Locator: srv.URL}); err == nil {
		t.Error("expected error for 404 image")
	}
}

func TestFetchImageWithoutLocator(t *testing.T) {
	f := NewFetcher(t.TempDir(), time.Second, nil)
	res, err := f.Fetch(context.Background(), "p", Ref{Kind: KindImage})
	if err != nil || len(res.Handles) != 0 {
		t.Errorf("expected empty result, got %+v err=%v", res, err)
	}
}

func TestFetchVideoWithoutExtractor(t *testing.T) {
	f := NewFetcher(t.TempDir(), time.Second, nil)
	if _, err := f.Fetch(context.Background(), "p", Ref{Kind: KindVideo, Locator: "https://x/reel/1"}); err == nil {
		t.Error("expected error without extractor")
	}
}

func TestParsePayload(t *testing.T) {
	out := []byte("[download] 100% of 3MiB\n{\"videos\": [\"downloads/abc.mp4\"], \"caption\": \" สินเชื่อ {ดอกเบี้ยต่ำ} \"}\n")
	res, err := ParsePayload(out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Handles) != 1 || res.Handles[0].Path != "downloads/abc.mp4" {
		t.Errorf("unexpected handles %+v", res.Handles)
	}
	if res.Handles[0].MIMEType != "video/mp4" {
		t.Errorf("expected video/mp4, got %q", res.Handles[0].MIMEType)
	}
	if res.Caption != "สินเชื่อ {ดอกเบี้ยต่ำ}" {
		t.Errorf("unexpected caption %q", res.Caption)
	}
}

func TestParsePayloadRejectsGarbage(t *testing.T) {
	for _, out := range []string{"", "no json here", "{not json}"} {
		if _, err := ParsePayload([]byte(out)); err == nil {
			t.Errorf("expected error for %q", out)
		}
	}
}

func TestCommandExtractor(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}
	dir := t.TempDir()
	e := &CommandExtractor{
		Command: []string{"sh", "-c", `echo "fetching $1"; echo "{\"videos\": [\"$2.mp4\"], \"caption\": \"reel\"}"`, "extract"},
		Dir:     dir,
	}
	res, err := e.Extract(context.Background(), "https://x/reel/1", "post_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Handles) != 1 || res.Handles[0].Path != filepath.Join(dir, "post_1.mp4") {
		t.Errorf("unexpected handles %+v", res.Handles)
	}
	if res.Caption != "reel" {
		t.Errorf("unexpected caption %q", res.Caption)
	}
}

func TestCommandExtractorFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}
	e := &CommandExtractor{Command: []string{"sh", "-c", "echo boom >&2; exit 3", "extract"}}
	if _, err := e.Extract(context.Background(), "u", "n"); err == nil {
		t.Error("expected error for non-zero exit")
	}
}
