package objectstore

import (
	"errors"
	"testing"
)

func TestKey(t *testing.T) {
	tests := []struct {
		prefix, name, ext string
		expected          string
	}{
		{"mdx", "hello-world", "mdx", "mdx/hello-world.mdx"},
		{"/projects/", "site", ".html", "projects/site.html"},
		{"", "logo.png", "", "logo.png"},
		{"images", "abc-logo.png", "", "images/abc-logo.png"},
	}

	for _, tt := range tests {
		if got := Key(tt.prefix, tt.name, tt.ext); got != tt.expected {
			t.Errorf("Key(%q, %q, %q) = %q, want %q", tt.prefix, tt.name, tt.ext, got, tt.expected)
		}
	}
}

func TestSplitKey(t *testing.T) {
	tests := []struct {
		key, prefix, ext string
		name             string
		ok               bool
	}{
		{"mdx/hello-world.mdx", "mdx", "mdx", "hello-world", true},
		{"mdx/nested/x.mdx", "mdx", "mdx", "", false},
		{"images/x.png", "mdx", "mdx", "", false},
		{"mdx/readme.txt", "mdx", "mdx", "", false},
		{"mdx/.mdx", "mdx", "mdx", "", false},
	}

	for _, tt := range tests {
		name, ok := SplitKey(tt.key, tt.prefix, tt.ext)
		if name != tt.name || ok != tt.ok {
			t.Errorf("SplitKey(%q) = (%q, %v), want (%q, %v)", tt.key, name, ok, tt.name, tt.ok)
		}
	}
}

func TestASCIIMetadata(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Plain title", "Plain title"},
		{"Café – déjà vu", "Caf  dj vu"},
		{"Emoji 🚀 launch", "Emoji  launch"},
		{"tab\tand\nnewline", "tabandnewline"},
	}

	for _, tt := range tests {
		if got := ASCIIMetadata(tt.input); got != tt.expected {
			t.Errorf("ASCIIMetadata(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestStorageErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := error(&StorageError{Op: "put", Key: "k", Err: inner})
	if !errors.Is(err, inner) {
		t.Error("StorageError should unwrap to the inner error")
	}
	var se *StorageError
	if !errors.As(err, &se) || se.Op != "put" {
		t.Error("errors.As should find the StorageError")
	}
}
