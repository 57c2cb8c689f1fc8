package handlers

import (
	"net/http"

	"github.com/hartmath/woovb/internal/middleware"
)

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	requireAuth := middleware.RequireAuth(deps.Sessions)
	protect := func(h http.HandlerFunc) http.Handler { return requireAuth(h) }

	health := HealthHandler{}
	auth := AuthHandler{Users: deps.Users, Sessions: deps.Sessions, Limiter: deps.RateLimiter}
	videos := VideoHandler{
		Videos:         deps.Videos,
		Feed:           deps.Feed,
		Storage:        deps.Storage,
		Thumbnails:     deps.Thumbnails,
		Mirror:         deps.Mirror,
		Limiter:        deps.RateLimiter,
		MaxUploadBytes: deps.MaxUploadBytes,
	}
	media := MediaHandler{Storage: deps.Storage}
	admin := AdminHandler{
		Users:   deps.Users,
		Videos:  deps.Videos,
		Feed:    deps.Feed,
		Storage: deps.Storage,
		Mirror:  deps.Mirror,
	}

	mux.HandleFunc("/healthz", health.Handle)

	mux.HandleFunc("POST /api/v1/auth/signup", auth.SignUp)
	mux.HandleFunc("POST /api/v1/auth/login", auth.Login)
	mux.HandleFunc("POST /api/v1/auth/refresh", auth.Refresh)
	mux.HandleFunc("POST /api/v1/auth/logout", auth.Logout)

	mux.HandleFunc("GET /api/v1/videos", videos.List)
	mux.Handle("POST /api/v1/videos", protect(videos.Upload))
	mux.Handle("GET /api/v1/videos/{id}", protect(videos.Watch))
	mux.Handle("GET /api/v1/dashboard", protect(videos.Dashboard))

	mux.Handle("GET /media/videos/{name}", protect(media.Video))
	mux.HandleFunc("GET /media/thumbnails/{name}", media.Thumbnail)

	mux.Handle("GET /api/v1/admin", protect(admin.Overview))
	mux.Handle("DELETE /api/v1/admin/users/{id}", protect(admin.DeleteUser))
	mux.Handle("DELETE /api/v1/admin/videos/{id}", protect(admin.DeleteVideo))
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users          UserStore
	Sessions       SessionManager
	Videos         VideoStore
	Feed           Feed
	Storage        MediaStorage
	Thumbnails     ThumbnailQueue
	Mirror         ObjectMirror
	RateLimiter    RateLimiter
	MaxUploadBytes int64
}
