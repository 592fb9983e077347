// Package storage saves uploaded media files.
package storage

import (
	"path"
	"strings"

	"github.com/google/uuid"
)

// Storage persists uploaded files under slash-separated names.
type Storage interface {
	Save(name, contentType string, data []byte) (string, error)
	Delete(name string) error
	URL(name string) string
}

// ImageName builds a unique name under dir. ext must come from the sniffed
// content type, never from the client's filename, since file servers pick
// the response type from it.
func ImageName(dir, ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return path.Join(dir, uuid.NewString()+ext)
}
