package content

import (
	"context"
	"net/http"
	"path"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/devure/internal/domain"
	"github.com/MrSnakeDoc/devure/internal/logger"
	"github.com/MrSnakeDoc/devure/internal/objectstore"
)

// DefaultAssetPrefix is where uploaded media lives in the object store.
const DefaultAssetPrefix = "images"

// Assets stores media files referenced by content (cover images, inline
// pictures). Object names are "{uuid}-{sanitized filename}".
type Assets struct {
	objects objectstore.Store
	prefix  string
	logger  logger.Logger
	newID   func() string
}

func NewAssets(objects objectstore.Store, prefix string, log logger.Logger) *Assets {
	if prefix == "" {
		prefix = DefaultAssetPrefix
	}
	return &Assets{
		objects: objects,
		prefix:  strings.Trim(prefix, "/"),
		logger:  log,
		newID:   uuid.NewString,
	}
}

// Upload stores body and returns its public URL and key. An empty
// contentType is sniffed from the body.
func (a *Assets) Upload(ctx context.Context, filename, contentType string, body []byte) (*objectstore.PutResult, error) {
	name := SanitizeFilename(filename)
	if name == "" {
		return nil, domain.NewValidationError("file", "missing file name")
	}
	if len(body) == 0 {
		return nil, domain.NewValidationError("file", "empty file")
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(body)
	}

	key := objectstore.Key(a.prefix, a.newID()+"-"+name, "")
	res, err := a.objects.Put(ctx, key, body, contentType, map[string]string{
		"original-name": objectstore.ASCIIMetadata(filename),
	})
	if err != nil {
		return nil, err
	}

	a.logger.Info("asset uploaded",
		logger.String("key", key),
		logger.String("content_type", contentType),
		logger.Int("bytes", len(body)))
	return res, nil
}

// Delete removes the asset stored under name (the last key segment).
func (a *Assets) Delete(ctx context.Context, name string) error {
	if name == "" || strings.ContainsAny(name, "/\\") || name == "." || name == ".." {
		return domain.NewValidationError("name", "invalid asset name")
	}

	// Exists folds every failure into "absent", so the listing decides
	// presence and a storage failure stays a StorageError.
	key := objectstore.Key(a.prefix, name, "")
	infos, err := a.objects.List(ctx, key)
	if err != nil {
		return err
	}
	if !slices.ContainsFunc(infos, func(info objectstore.ObjectInfo) bool { return info.Key == key }) {
		return domain.NotFound("asset", name)
	}
	if err := a.objects.Delete(ctx, key); err != nil {
		return err
	}

	a.logger.Info("asset deleted", logger.String("key", key))
	return nil
}

// SanitizeFilename reduces a client file name to a slugged stem plus a
// lowercase extension, ex: "My Photo (1).PNG" -> "my-photo-1.png".
func SanitizeFilename(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}
	ext := strings.ToLower(path.Ext(base))
	stem := domain.Slugify(strings.TrimSuffix(base, path.Ext(base)))
	ext = "." + domain.Slugify(strings.TrimPrefix(ext, "."))
	if ext == "." {
		ext = ""
	}
	if stem == "" {
		stem = "file"
	}
	return stem + ext
}
