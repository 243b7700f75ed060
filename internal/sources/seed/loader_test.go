package seed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/MrSnakeDoc/devure/internal/domain"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	return path
}

func TestLoaderLoad(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "posts/hello.mdx", "# Hello\n\nFrom a file.")
	yamlPath := writeFile(t, tmpDir, "seed.yaml", `---
blogs:
  - title: Hello World
    category: general
    tags: [intro, news]
    author:
      name: Ada
      url: https://example.com/ada
    date: 2024-01-15
    contentFile: posts/hello.mdx
  - title: Inline
    content: inline body
projects:
  - title: Site Rebuild
    slug: site-rebuild
    featured: true
    content: <p>Project</p>
services:
  - title: Audits
    draft: true
`)

	file, err := NewLoader(yamlPath).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(file.Blogs) != 2 || len(file.Projects) != 1 || len(file.Services) != 1 {
		t.Fatalf("Load() counts = %d/%d/%d, want 2/1/1", len(file.Blogs), len(file.Projects), len(file.Services))
	}
	if got := file.Blogs[0].Content; got != "# Hello\n\nFrom a file." {
		t.Errorf("contentFile not inlined, got %q", got)
	}
	if file.Blogs[0].Author.Name != "Ada" {
		t.Errorf("author = %+v", file.Blogs[0].Author)
	}
	if got := file.entries(domain.KindProject); len(got) != 1 || !got[0].Featured {
		t.Errorf("entries(project) = %+v", got)
	}
}

func TestLoaderLoadErrors(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name string
		yaml string
	}{
		{"unknown key", "blogs:\n  - title: x\n    titel: typo\n"},
		{"missing content file", "blogs:\n  - title: x\n    contentFile: nope.mdx\n"},
		{"malformed yaml", "blogs: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tmpDir, tt.name+".yaml", tt.yaml)
			if _, err := NewLoader(path).Load(); err == nil {
				t.Error("Load() expected error")
			}
		})
	}

	if _, err := NewLoader(filepath.Join(tmpDir, "absent.yaml")).Load(); err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestLoaderLoadEmptyFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "empty.yaml", "")
	file, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(file.Blogs) != 0 {
		t.Errorf("expected no entries")
	}
}
