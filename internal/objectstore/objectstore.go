// Package objectstore defines durable blob storage for content bodies and
// media assets, keyed by deterministic paths such as "mdx/my-post.mdx".
package objectstore

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"
)

// Store is implemented by every blob backend.
type Store interface {
	// Put uploads body under key, silently overwriting any existing object.
	Put(ctx context.Context, key string, body []byte, contentType string, metadata map[string]string) (*PutResult, error)
	// Get downloads the object. A missing key is reported as a *StorageError
	// like any other failure.
	Get(ctx context.Context, key string) (*Object, error)
	Delete(ctx context.Context, key string) error
	// Exists reports whether key is present. Any error reads as false.
	Exists(ctx context.Context, key string) bool
	// List returns every object under prefix.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	// Ping checks that the bucket is reachable.
	Ping(ctx context.Context) error

	Bucket() string
	Region() string
}

// PutResult identifies a freshly written object version.
type PutResult struct {
	URL  string `json:"url"`
	Key  string `json:"key"`
	ETag string `json:"etag"`
}

// Object is a downloaded blob.
type Object struct {
	Content      []byte
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// ObjectInfo is a listing entry.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	LastModified time.Time
}

// StorageError wraps any failure of an object-store call: network,
// credentials and not-found alike.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("object store %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("object store %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Key joins prefix, name and extension into an object key.
// Example: Key("mdx", "hello-world", "mdx") -> "mdx/hello-world.mdx"
func Key(prefix, name, ext string) string {
	file := name
	if ext != "" {
		file = name + "." + strings.TrimPrefix(ext, ".")
	}
	if prefix == "" {
		return file
	}
	return path.Join(strings.Trim(prefix, "/"), file)
}

// SplitKey is the inverse of Key. ok is false when key does not live
// directly under prefix with the given extension.
func SplitKey(key, prefix, ext string) (name string, ok bool) {
	rest := key
	if p := strings.Trim(prefix, "/"); p != "" {
		if !strings.HasPrefix(key, p+"/") {
			return "", false
		}
		rest = strings.TrimPrefix(key, p+"/")
	}
	if strings.Contains(rest, "/") {
		return "", false
	}
	if ext != "" {
		suffix := "." + strings.TrimPrefix(ext, ".")
		if !strings.HasSuffix(rest, suffix) {
			return "", false
		}
		rest = strings.TrimSuffix(rest, suffix)
	}
	return rest, rest != ""
}

// ASCIIMetadata drops every non-ASCII or control character from s.
// Object-store metadata travels as HTTP headers, which reject them.
func ASCIIMetadata(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= 0x20 && r < 0x7f {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
