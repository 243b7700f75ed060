package redis

import (
	"strings"

	"github.com/MrSnakeDoc/devure/internal/domain"
)

const (
	// KeyPrefixViews is the prefix of the per-kind view ranking sorted sets
	KeyPrefixViews = "devure:views:"
	// KeyPrefixHTML is the prefix of rendered body cache entries
	KeyPrefixHTML = "devure:html:"
)

// ViewsKey returns the sorted set holding view counts of every item of kind.
// Members are slugs, scores are view counts.
func ViewsKey(kind domain.Kind) string {
	return KeyPrefixViews + string(kind)
}

// HTMLKey returns the cache key of slug's rendered body at etag, ex:
// "devure:html:blog:hello-world:9b2cf535f27731c974343645a3985328".
func HTMLKey(kind domain.Kind, slug, etag string) string {
	return KeyPrefixHTML + string(kind) + ":" + slug + ":" + strings.Trim(etag, `"`)
}

// HTMLKeyPattern matches every cached rendition of slug.
func HTMLKeyPattern(kind domain.Kind, slug string) string {
	return KeyPrefixHTML + string(kind) + ":" + slug + ":*"
}
