package domain

import (
	"fmt"
	"strings"
)

// Kind identifies one family of content items sharing the same schema.
// Slugs are unique per kind.
type Kind string

const (
	KindBlog    Kind = "blog"
	KindProject Kind = "project"
	KindService Kind = "service"
)

// Kinds lists every supported kind in display order.
var Kinds = []Kind{KindBlog, KindProject, KindService}

// Plural is the path segment and collection name for the kind.
func (k Kind) Plural() string {
	return string(k) + "s"
}

func (k Kind) Valid() bool {
	switch k {
	case KindBlog, KindProject, KindService:
		return true
	}
	return false
}

// ParseKind accepts both the singular and plural spelling ("blog", "blogs").
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, k := range Kinds {
		if s == string(k) || s == k.Plural() {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: unknown content kind %q", ErrNotFound, s)
}
