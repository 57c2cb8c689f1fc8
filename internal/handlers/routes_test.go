package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

func TestRegisterRoutes(t *testing.T) {
	manager := newManager()
	users := newInMemoryUserStore()
	videos := newInMemoryVideoStore(seedVideos()...)
	local := newLocalStorage(t)
	if err := os.WriteFile(local.VideoPath("VID-000000000001.mp4"), []byte("video"), 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}
	if err := os.WriteFile(local.ThumbnailPath("VID-000000000001.jpg"), []byte("jpeg"), 0o644); err != nil {
		t.Fatalf("write thumbnail: %v", err)
	}

	mux := http.NewServeMux()
	RegisterRoutes(mux, Dependencies{
		Users:    users,
		Sessions: manager,
		Videos:   videos,
		Feed:     &feedStub{VideoStore: videos},
		Storage:  local,
	})

	tokens, err := manager.Issue(context.Background(), "u1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	cases := []struct {
		method string
		target string
		authed bool
		status int
	}{
		{http.MethodGet, "/healthz", false, http.StatusOK},
		{http.MethodGet, "/api/v1/videos", false, http.StatusOK},
		{http.MethodPut, "/api/v1/videos", false, http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/v1/videos/VID-000000000001", false, http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/videos/VID-000000000001", true, http.StatusOK},
		{http.MethodGet, "/api/v1/dashboard", false, http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/dashboard", true, http.StatusOK},
		{http.MethodGet, "/media/videos/VID-000000000001.mp4", false, http.StatusUnauthorized},
		{http.MethodGet, "/media/videos/VID-000000000001.mp4", true, http.StatusOK},
		{http.MethodGet, "/media/thumbnails/VID-000000000001.jpg", false, http.StatusOK},
		{http.MethodGet, "/api/v1/admin", false, http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/auth/login", false, http.StatusMethodNotAllowed},
		{http.MethodGet, "/unknown", false, http.StatusNotFound},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.target, nil)
		if tc.authed {
			req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
		}
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != tc.status {
			t.Errorf("%s %s (authed=%v): expected status %d got %d", tc.method, tc.target, tc.authed, tc.status, rec.Code)
		}
	}
}
