package handlers

import (
	"errors"
	"net/http"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/hartmath/woovb/internal/auth"
	"github.com/hartmath/woovb/internal/logging"
	"github.com/hartmath/woovb/internal/models"
	"github.com/hartmath/woovb/internal/repositories"
	"github.com/hartmath/woovb/internal/storage"
	"github.com/hartmath/woovb/internal/videos"
)

// multipartOverhead leaves room for form fields around the video part.
const multipartOverhead = 1 << 20

// VideoHandler implements the feed, upload, watch and dashboard endpoints.
type VideoHandler struct {
	Videos         VideoStore
	Feed           Feed
	Storage        MediaStorage
	Thumbnails     ThumbnailQueue
	Mirror         ObjectMirror
	Limiter        RateLimiter
	MaxUploadBytes int64
	NowFunc        func() time.Time
}

// List handles GET /api/v1/videos. The optional q parameter filters on title
// and description; limit caps the number of results.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Feed == nil {
		logger.Error("video feed unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "video service unavailable"})
		return
	}

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	all, err := h.Feed.ListAll(ctx)
	if err != nil {
		logger.Error("failed to load video feed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load videos"})
		return
	}

	list := videos.Limit(videos.Filter(all, r.URL.Query().Get("q")), limit)

	resp := feedResponse{Videos: list}
	if len(list) > 0 {
		featured := list[0]
		resp.Featured = &featured
	}
	respondJSON(ctx, w, http.StatusOK, resp)
}

// Upload handles POST /api/v1/videos with a multipart "video" file part.
func (h VideoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "upload") {
		respondTooManyRequests(ctx, w)
		return
	}

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	if h.Videos == nil || h.Storage == nil {
		logger.Error("upload dependencies unavailable", "hasVideos", h.Videos != nil, "hasStorage", h.Storage != nil)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "video service unavailable"})
		return
	}

	maxBytes := h.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = videos.MaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)

	file, header, err := r.FormFile("video")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondJSON(ctx, w, http.StatusRequestEntityTooLarge, map[string]string{"error": "file too large"})
			return
		}
		logger.Warn("upload missing video part", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "no video file provided"})
		return
	}
	defer file.Close()

	if header.Filename == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "no file selected"})
		return
	}
	if !videos.Allowed(header.Filename) {
		logger.Warn("upload rejected file type", "filename", header.Filename)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid file type"})
		return
	}

	id := videos.NewID()
	name := videos.StoredName(id, header.Filename)
	ctx = logging.With(ctx, "video_id", id)
	logger = logging.FromContext(ctx)

	size, err := h.Storage.SaveVideo(name, file, maxBytes)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			respondJSON(ctx, w, http.StatusRequestEntityTooLarge, map[string]string{"error": "file too large"})
			return
		}
		logger.Error("failed to store upload", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to store video"})
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		title = videos.DefaultTitle
	}

	video := models.Video{
		ID:          id,
		OwnerID:     userID,
		Title:       title,
		Description: strings.TrimSpace(r.FormValue("description")),
		Filename:    name,
		CreatedAt:   h.now(),
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		_ = h.Storage.RemoveVideo(name)
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "account no longer exists"})
			return
		}
		logger.Error("failed to create video record", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to save video"})
		return
	}

	if h.Feed != nil {
		h.Feed.Invalidate()
	}

	if h.Thumbnails != nil {
		if err := h.Thumbnails.Enqueue(ctx, video); err != nil {
			logger.Warn("thumbnail job not scheduled, backfill will pick it up", "error", err)
		}
	}

	h.mirrorVideo(r, name)

	logger.Info("video uploaded", "filename", name, "size", size)
	respondJSON(ctx, w, http.StatusCreated, uploadResponse{Success: true, VideoID: id})
}

func (h VideoHandler) mirrorVideo(r *http.Request, name string) {
	if h.Mirror == nil {
		return
	}
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	f, err := os.Open(h.Storage.VideoPath(name))
	if err != nil {
		logger.Warn("open video for mirroring", "error", err)
		return
	}
	defer f.Close()

	if _, err := h.Mirror.Save(ctx, path.Join("videos", name), f); err != nil {
		logger.Warn("mirror video", "filename", name, "error", err)
	}
}

// Watch handles GET /api/v1/videos/{id}: it counts a view and returns the record.
func (h VideoHandler) Watch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Videos == nil {
		logger.Error("video store unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "video service unavailable"})
		return
	}

	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video not found"})
		return
	}

	if err := h.Videos.IncrementViews(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video not found"})
			return
		}
		logger.Error("failed to count view", "video_id", id, "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load video"})
		return
	}

	video, err := h.Videos.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video not found"})
			return
		}
		logger.Error("failed to load video", "video_id", id, "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load video"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, videoResponse{Video: video})
}

// Dashboard handles GET /api/v1/dashboard and lists the caller's uploads.
func (h VideoHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	if h.Videos == nil {
		logger.Error("video store unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "video service unavailable"})
		return
	}

	list, err := h.Videos.ListByOwner(ctx, userID)
	if err != nil {
		logger.Error("failed to list own videos", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load videos"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string][]models.Video{"videos": list})
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

type feedResponse struct {
	Videos   []models.Video `json:"videos"`
	Featured *models.Video  `json:"featured"`
}

type uploadResponse struct {
	Success bool   `json:"success"`
	VideoID string `json:"videoId"`
}

type videoResponse struct {
	Video models.Video `json:"video"`
}
