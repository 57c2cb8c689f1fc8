package handlers

import (
	"context"
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/hartmath/woovb/internal/auth"
	"github.com/hartmath/woovb/internal/logging"
	"github.com/hartmath/woovb/internal/models"
	"github.com/hartmath/woovb/internal/repositories"
)

// AdminHandler implements the admin panel endpoints. Every method requires the
// caller to be an authenticated admin.
type AdminHandler struct {
	Users   UserStore
	Videos  VideoStore
	Feed    Feed
	Storage MediaStorage
	Mirror  ObjectMirror
}

// Overview handles GET /api/v1/admin.
func (h AdminHandler) Overview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}
	logger := logging.FromContext(ctx)

	users, err := h.Users.List(ctx)
	if err != nil {
		logger.Error("admin list users failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load users"})
		return
	}

	list, err := h.Videos.ListAll(ctx)
	if err != nil {
		logger.Error("admin list videos failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load videos"})
		return
	}

	stats, err := h.Videos.Stats(ctx)
	if err != nil {
		logger.Error("admin stats failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load stats"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, adminResponse{Users: users, Videos: list, Stats: stats})
}

// DeleteUser handles DELETE /api/v1/admin/users/{id}. The user's videos,
// thumbnails and sessions go with them; admins cannot delete themselves.
func (h AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	admin, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}
	logger := logging.FromContext(ctx)

	id := strings.TrimSpace(r.PathValue("id"))
	if id == admin.ID {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "cannot delete your own account"})
		return
	}

	if _, err := h.Users.FindByID(ctx, id); err != nil {
		h.respondLookupError(ctx, w, err, "user not found")
		return
	}

	owned, err := h.Videos.ListByOwner(ctx, id)
	if err != nil {
		logger.Error("admin list user videos failed", "user_id", id, "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to delete user"})
		return
	}

	if err := h.Users.Delete(ctx, id); err != nil {
		h.respondLookupError(ctx, w, err, "user not found")
		return
	}

	for _, video := range owned {
		h.removeFiles(ctx, video)
	}
	h.invalidate()

	logger.Info("admin deleted user", "user_id", id, "videos", len(owned))
	respondJSON(ctx, w, http.StatusOK, map[string]bool{"success": true})
}

// DeleteVideo handles DELETE /api/v1/admin/videos/{id}.
func (h AdminHandler) DeleteVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}

	id := strings.TrimSpace(r.PathValue("id"))
	video, err := h.Videos.FindByID(ctx, id)
	if err != nil {
		h.respondLookupError(ctx, w, err, "video not found")
		return
	}

	if err := h.Videos.Delete(ctx, id); err != nil {
		h.respondLookupError(ctx, w, err, "video not found")
		return
	}

	h.removeFiles(ctx, video)
	h.invalidate()

	logging.FromContext(ctx).Info("admin deleted video", "video_id", id)
	respondJSON(ctx, w, http.StatusOK, map[string]bool{"success": true})
}

func (h AdminHandler) requireAdmin(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	ctx := r.Context()

	if h.Users == nil || h.Videos == nil {
		logging.FromContext(ctx).Error("admin dependencies unavailable", "hasUsers", h.Users != nil, "hasVideos", h.Videos != nil)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "admin services unavailable"})
		return models.User{}, false
	}

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return models.User{}, false
	}

	user, err := h.Users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "account no longer exists"})
			return models.User{}, false
		}
		logging.FromContext(ctx).Error("admin lookup failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "admin services unavailable"})
		return models.User{}, false
	}

	if !user.IsAdmin {
		respondJSON(ctx, w, http.StatusForbidden, map[string]string{"error": "admin access required"})
		return models.User{}, false
	}

	return user, true
}

func (h AdminHandler) respondLookupError(ctx context.Context, w http.ResponseWriter, err error, notFound string) {
	if errors.Is(err, repositories.ErrNotFound) {
		respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": notFound})
		return
	}
	logging.FromContext(ctx).Error("admin operation failed", "error", err)
	respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "admin operation failed"})
}

// removeFiles deletes the artifacts of a removed record. Failures are logged;
// the record is already gone.
func (h AdminHandler) removeFiles(ctx context.Context, video models.Video) {
	logger := logging.FromContext(ctx)

	if h.Storage != nil {
		if err := h.Storage.RemoveVideo(video.Filename); err != nil {
			logger.Warn("remove video file", "video_id", video.ID, "error", err)
		}
		if video.HasThumbnail() {
			if err := h.Storage.RemoveThumbnail(video.Thumbnail); err != nil {
				logger.Warn("remove thumbnail file", "video_id", video.ID, "error", err)
			}
		}
	}

	if h.Mirror != nil {
		keys := []string{path.Join("videos", video.Filename)}
		if video.HasThumbnail() {
			keys = append(keys, path.Join("thumbnails", video.Thumbnail))
		}
		for _, key := range keys {
			if err := h.Mirror.Delete(ctx, key); err != nil {
				logger.Warn("remove mirrored object", "key", key, "error", err)
			}
		}
	}
}

func (h AdminHandler) invalidate() {
	if h.Feed != nil {
		h.Feed.Invalidate()
	}
}

type adminResponse struct {
	Users  []models.User  `json:"users"`
	Videos []models.Video `json:"videos"`
	Stats  models.Stats   `json:"stats"`
}
