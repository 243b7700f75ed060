package domain

import "time"

// SourceObjectStore marks items whose body is mirrored to the object store.
const SourceObjectStore = "s3"

// Author is the byline attached to an item.
type Author struct {
	Name string `bson:"name" json:"name" yaml:"name"`
	URL  string `bson:"url,omitempty" json:"url,omitempty" yaml:"url,omitempty"`
}

// Frontmatter is the structured metadata of an item.
type Frontmatter struct {
	Title       string   `bson:"title" json:"title"`
	Slug        string   `bson:"slug" json:"slug"`
	Description string   `bson:"description" json:"description"`
	Category    string   `bson:"category" json:"category"`
	Tags        []string `bson:"tags" json:"tags"`
	CoverImage  string   `bson:"coverImage,omitempty" json:"coverImage,omitempty"`
	OgImage     string   `bson:"ogImage,omitempty" json:"ogImage,omitempty"`
	Author      Author   `bson:"author" json:"author"`

	// ReadTime is free text chosen by the editor ("5 min read"), never computed.
	ReadTime string `bson:"readTime,omitempty" json:"readTime,omitempty"`

	Featured bool `bson:"featured" json:"featured"`
	// Draft=true means unpublished.
	Draft bool `bson:"draft" json:"draft"`

	Date time.Time `bson:"date" json:"date"`
	// PublishedAt is set iff Draft is false.
	PublishedAt *time.Time `bson:"publishedAt,omitempty" json:"publishedAt,omitempty"`
	UpdatedAt   time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// Item is one piece of site content (blog post, project, service page).
//
// The body lives in two places: the object store holds the canonical blob
// under S3Key, and Content keeps a denormalized copy for reads. List queries
// leave Content empty.
type Item struct {
	// ─────────────────────────────
	// Identity
	// ─────────────────────────────

	ID   string `bson:"_id" json:"id"`
	Kind Kind   `bson:"kind" json:"kind"`

	Frontmatter Frontmatter `bson:"frontmatter" json:"frontmatter"`

	// ─────────────────────────────
	// Body and derived fields
	// ─────────────────────────────

	Content   string `bson:"content,omitempty" json:"content,omitempty"`
	Excerpt   string `bson:"excerpt" json:"excerpt"`
	WordCount int    `bson:"wordCount" json:"wordCount"`

	// ─────────────────────────────
	// Object-store provenance
	// ─────────────────────────────

	Source       string    `bson:"source" json:"source"`
	S3Key        string    `bson:"s3Key" json:"s3Key"`
	S3Bucket     string    `bson:"s3Bucket" json:"s3Bucket"`
	S3Region     string    `bson:"s3Region" json:"s3Region"`
	ETag         string    `bson:"etag" json:"etag"`
	LastModified time.Time `bson:"lastModified" json:"lastModified"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// Slug is a shorthand for Frontmatter.Slug.
func (it *Item) Slug() string { return it.Frontmatter.Slug }

// Published reports whether the item is visible on the public site.
func (it *Item) Published() bool { return !it.Frontmatter.Draft }

// Summary returns a copy without the body, as served by list views.
func (it *Item) Summary() *Item {
	cp := it.Clone()
	cp.Content = ""
	return cp
}

// Clone returns a deep copy safe to mutate independently of it.
func (it *Item) Clone() *Item {
	cp := *it
	cp.Frontmatter.Tags = append([]string(nil), it.Frontmatter.Tags...)
	if it.Frontmatter.PublishedAt != nil {
		published := *it.Frontmatter.PublishedAt
		cp.Frontmatter.PublishedAt = &published
	}
	return &cp
}

// SetDraft moves the item between Draft and Published. Publishing stamps
// PublishedAt with now, unpublishing clears it.
func (it *Item) SetDraft(draft bool, now time.Time) {
	it.Frontmatter.Draft = draft
	if draft {
		it.Frontmatter.PublishedAt = nil
		return
	}
	published := now
	it.Frontmatter.PublishedAt = &published
}

// FrontmatterPatch carries the optional fields of a partial update. Nil
// fields are left untouched. Slug and Draft are deliberately absent: slugs
// never change, and draft state moves only through the toggle operation.
type FrontmatterPatch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Category    *string    `json:"category,omitempty"`
	Tags        *[]string  `json:"tags,omitempty"`
	CoverImage  *string    `json:"coverImage,omitempty"`
	OgImage     *string    `json:"ogImage,omitempty"`
	Author      *Author    `json:"author,omitempty"`
	ReadTime    *string    `json:"readTime,omitempty"`
	Featured    *bool      `json:"featured,omitempty"`
	Date        *time.Time `json:"date,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p FrontmatterPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Category == nil &&
		p.Tags == nil && p.CoverImage == nil && p.OgImage == nil &&
		p.Author == nil && p.ReadTime == nil && p.Featured == nil && p.Date == nil
}

// Apply merges the patch into fm.
func (p FrontmatterPatch) Apply(fm *Frontmatter) {
	if p.Title != nil {
		fm.Title = *p.Title
	}
	if p.Description != nil {
		fm.Description = *p.Description
	}
	if p.Category != nil {
		fm.Category = *p.Category
	}
	if p.Tags != nil {
		fm.Tags = append([]string(nil), (*p.Tags)...)
	}
	if p.CoverImage != nil {
		fm.CoverImage = *p.CoverImage
	}
	if p.OgImage != nil {
		fm.OgImage = *p.OgImage
	}
	if p.Author != nil {
		fm.Author = *p.Author
	}
	if p.ReadTime != nil {
		fm.ReadTime = *p.ReadTime
	}
	if p.Featured != nil {
		fm.Featured = *p.Featured
	}
	if p.Date != nil {
		fm.Date = *p.Date
	}
}
