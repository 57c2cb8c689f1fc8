package handlers

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

func TestMediaHandlerVideo(t *testing.T) {
	local := newLocalStorage(t)
	if err := os.WriteFile(local.VideoPath("VID-000000000001.webm"), []byte("0123456789"), 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}
	handler := MediaHandler{Storage: local}

	req := httptest.NewRequest(http.MethodGet, "/media/videos/VID-000000000001.webm", nil)
	req.SetPathValue("name", "VID-000000000001.webm")
	req.Header.Set("Range", "bytes=2-5")
	rec := httptest.NewRecorder()
	handler.Video(rec, req)

	if rec.Code != http.StatusPartialContent {
		t.Fatalf("expected status 206 got %d", rec.Code)
	}
	if got := rec.Body.String(); got != "2345" {
		t.Fatalf("unexpected range body %q", got)
	}
	if got := rec.Header().Get("Content-Type"); got != "video/webm" {
		t.Fatalf("unexpected content type %q", got)
	}
	if got := rec.Header().Get("Accept-Ranges"); got != "bytes" {
		t.Fatalf("unexpected Accept-Ranges %q", got)
	}
}

func TestMediaHandlerThumbnail(t *testing.T) {
	local := newLocalStorage(t)
	if err := os.WriteFile(local.ThumbnailPath("VID-000000000001.jpg"), []byte("jpeg"), 0o644); err != nil {
		t.Fatalf("write thumbnail: %v", err)
	}
	handler := MediaHandler{Storage: local}

	req := httptest.NewRequest(http.MethodGet, "/media/thumbnails/VID-000000000001.jpg", nil)
	req.SetPathValue("name", "VID-000000000001.jpg")
	rec := httptest.NewRecorder()
	handler.Thumbnail(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "image/jpeg" {
		t.Fatalf("unexpected content type %q", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "public, max-age=86400" {
		t.Fatalf("unexpected cache control %q", got)
	}
}

func TestMediaHandlerNotFound(t *testing.T) {
	handler := MediaHandler{Storage: newLocalStorage(t)}

	for _, name := range []string{"missing.mp4", "../secret.mp4", ".upload-123", ""} {
		req := httptest.NewRequest(http.MethodGet, "/media/videos/x", nil)
		req.SetPathValue("name", name)
		rec := httptest.NewRecorder()
		handler.Video(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("name %q: expected status 404 got %d", name, rec.Code)
		}
	}
}
