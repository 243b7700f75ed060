package seed

import "github.com/MrSnakeDoc/devure/internal/domain"

// File is the top-level structure of a seed YAML file.
type File struct {
	Blogs    []Entry `yaml:"blogs"`
	Projects []Entry `yaml:"projects"`
	Services []Entry `yaml:"services"`
}

// Entry is one item to import. Content is inline, or read from ContentFile
// (relative to the seed file) when Content is empty.
type Entry struct {
	Title       string        `yaml:"title"`
	Slug        string        `yaml:"slug,omitempty"`
	Description string        `yaml:"description,omitempty"`
	Category    string        `yaml:"category,omitempty"`
	Tags        []string      `yaml:"tags,omitempty"`
	CoverImage  string        `yaml:"coverImage,omitempty"`
	OgImage     string        `yaml:"ogImage,omitempty"`
	Author      domain.Author `yaml:"author,omitempty"`
	ReadTime    string        `yaml:"readTime,omitempty"`
	Featured    bool          `yaml:"featured,omitempty"`
	Draft       bool          `yaml:"draft,omitempty"`
	Date        string        `yaml:"date,omitempty"` // "2006-01-02" or RFC3339
	Excerpt     string        `yaml:"excerpt,omitempty"`
	Content     string        `yaml:"content,omitempty"`
	ContentFile string        `yaml:"contentFile,omitempty"`
}

// entries returns the list of kind.
func (f *File) entries(kind domain.Kind) []Entry {
	switch kind {
	case domain.KindBlog:
		return f.Blogs
	case domain.KindProject:
		return f.Projects
	case domain.KindService:
		return f.Services
	}
	return nil
}
