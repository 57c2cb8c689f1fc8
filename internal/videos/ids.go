package videos

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxUploadBytes is the default cap on a single uploaded video.
const MaxUploadBytes = 50 << 20

// DefaultTitle is used when an upload carries no title.
const DefaultTitle = "Untitled Video"

var allowedExtensions = map[string]struct{}{
	"mp4":  {},
	"avi":  {},
	"mov":  {},
	"mkv":  {},
	"webm": {},
	"flv":  {},
}

var mimeTypes = map[string]string{
	"mp4":  "video/mp4",
	"webm": "video/webm",
	"ogg":  "video/ogg",
	"avi":  "video/x-msvideo",
	"mov":  "video/quicktime",
	"mkv":  "video/x-matroska",
	"flv":  "video/x-flv",
}

// NewID returns a new video identifier of the form VID-XXXXXXXXXXXX.
func NewID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "VID-" + strings.ToUpper(hex[:12])
}

// Extension returns the lower-cased extension of filename without the dot.
func Extension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// Allowed reports whether filename carries an accepted video extension.
func Allowed(filename string) bool {
	_, ok := allowedExtensions[Extension(filename)]
	return ok
}

// StoredName returns the on-disk filename for a video identifier and upload name.
func StoredName(id, uploadName string) string {
	return id + "." + Extension(uploadName)
}

// MimeType returns the content type served for filename.
func MimeType(filename string) string {
	if mt, ok := mimeTypes[Extension(filename)]; ok {
		return mt
	}
	return "video/mp4"
}
