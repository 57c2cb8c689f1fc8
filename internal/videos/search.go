package videos

import (
	"strings"

	"github.com/hartmath/woovb/internal/models"
)

// Filter returns the videos whose title or description contains query,
// ignoring case. An empty query returns the list unchanged.
func Filter(list []models.Video, query string) []models.Video {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return list
	}

	out := make([]models.Video, 0, len(list))
	for _, v := range list {
		if strings.Contains(strings.ToLower(v.Title), query) ||
			strings.Contains(strings.ToLower(v.Description), query) {
			out = append(out, v)
		}
	}
	return out
}

// Limit truncates list to at most n entries. Non-positive n means no limit.
func Limit(list []models.Video, n int) []models.Video {
	if n <= 0 || len(list) <= n {
		return list
	}
	return list[:n]
}
