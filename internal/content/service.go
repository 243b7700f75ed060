// Package content orchestrates the object store and the document store for
// one content kind: the body blob is written first, the metadata record
// second, and reads are served from the record alone.
package content

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/devure/internal/domain"
	"github.com/MrSnakeDoc/devure/internal/logger"
	"github.com/MrSnakeDoc/devure/internal/metrics"
	"github.com/MrSnakeDoc/devure/internal/objectstore"
)

// Options configures a Service.
type Options struct {
	Kind    domain.Kind
	Prefix  string // object-store prefix, ex: "mdx"
	Ext     string // body extension, ex: "mdx"
	Repo    Repository
	Objects objectstore.Store
	Logger  logger.Logger
	Metrics metrics.Recorder
	HTML    HTMLCache // optional

	// OnDelete runs after an item is gone from both stores. Failures are
	// its own business.
	OnDelete func(ctx context.Context, item *domain.Item)

	Now   func() time.Time
	NewID func() string
}

// Service owns the write path of one kind.
type Service struct {
	kind     domain.Kind
	prefix   string
	ext      string
	repo     Repository
	objects  objectstore.Store
	logger   logger.Logger
	metrics  metrics.Recorder
	html     HTMLCache
	onDelete func(ctx context.Context, item *domain.Item)
	now      func() time.Time
	newID    func() string
	catalog  *Catalog
}

// NewService builds a Service, filling defaults for optional collaborators.
func NewService(opts Options) *Service {
	s := &Service{
		kind:     opts.Kind,
		prefix:   strings.Trim(opts.Prefix, "/"),
		ext:      strings.TrimPrefix(opts.Ext, "."),
		repo:     opts.Repo,
		objects:  opts.Objects,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		html:     opts.HTML,
		onDelete: opts.OnDelete,
		now:      opts.Now,
		newID:    opts.NewID,
	}
	if s.logger == nil {
		s.logger = logger.Nop()
	}
	s.logger = s.logger.With(logger.String("kind", string(s.kind)))
	if s.metrics == nil {
		s.metrics = metrics.Nop{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	s.catalog = NewCatalog(s.kind, s.repo)
	return s
}

func (s *Service) Kind() domain.Kind          { return s.kind }
func (s *Service) Prefix() string             { return s.prefix }
func (s *Service) Ext() string                { return s.ext }
func (s *Service) Repo() Repository           { return s.repo }
func (s *Service) Catalog() *Catalog          { return s.catalog }
func (s *Service) Objects() objectstore.Store { return s.objects }

// KeyFor returns the object key of slug's body, ex: "mdx/hello-world.mdx".
func (s *Service) KeyFor(slug string) string {
	return objectstore.Key(s.prefix, slug, s.ext)
}

// ─────────────────────────────────────────────────────────────────
// Write path
// ─────────────────────────────────────────────────────────────────

// CreateInput is the payload of Create. A nil or blank Excerpt is generated.
type CreateInput struct {
	Frontmatter domain.Frontmatter `json:"frontmatter"`
	Content     string             `json:"content"`
	Excerpt     *string            `json:"excerpt,omitempty"`
}

// Create uploads the body, then inserts the record. A record insert that
// fails after a successful upload leaves the blob orphaned.
func (s *Service) Create(ctx context.Context, in CreateInput) (item *domain.Item, err error) {
	defer s.record("create", &err)

	fm := in.Frontmatter
	fm.Title = strings.TrimSpace(fm.Title)
	if fm.Title == "" {
		return nil, domain.NewValidationError("title", "must not be empty")
	}
	if fm.Slug == "" {
		fm.Slug = domain.Slugify(fm.Title)
	} else if !domain.ValidSlug(fm.Slug) {
		return nil, domain.NewValidationError("slug", "must be lowercase alphanumerics separated by single hyphens")
	}
	if fm.Slug == "" {
		return nil, domain.NewValidationError("slug", "title yields an empty slug")
	}
	fm.Tags = append([]string(nil), fm.Tags...)

	if _, err := s.repo.FindBySlug(ctx, fm.Slug); err == nil {
		return nil, domain.DuplicateSlug(s.kind, fm.Slug)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	now := s.now().UTC()
	if fm.Date.IsZero() {
		fm.Date = now
	}
	fm.UpdatedAt = now

	put, err := s.objects.Put(ctx, s.KeyFor(fm.Slug), []byte(in.Content), contentTypeFor(s.ext), s.objectMetadata(fm))
	if err != nil {
		return nil, err
	}

	item = &domain.Item{
		ID:           s.newID(),
		Kind:         s.kind,
		Frontmatter:  fm,
		Content:      in.Content,
		Excerpt:      s.excerpt(in.Content, in.Excerpt),
		WordCount:    domain.CountWords(in.Content),
		Source:       domain.SourceObjectStore,
		S3Key:        put.Key,
		S3Bucket:     s.objects.Bucket(),
		S3Region:     s.objects.Region(),
		ETag:         put.ETag,
		LastModified: now,
		CreatedAt:    now,
	}
	item.SetDraft(fm.Draft, now)

	if err := s.repo.Insert(ctx, item); err != nil {
		s.logger.Warn("record insert failed after body upload, blob orphaned",
			logger.String("slug", fm.Slug),
			logger.String("key", put.Key),
			logger.Error(err))
		return nil, err
	}

	s.logger.Info("content created",
		logger.String("slug", fm.Slug),
		logger.Bool("draft", fm.Draft),
		logger.Int("words", item.WordCount))
	return item, nil
}

// UpdateInput is the payload of Update. Nil fields are left untouched.
type UpdateInput struct {
	Frontmatter domain.FrontmatterPatch `json:"frontmatter"`
	Content     *string                 `json:"content,omitempty"`
	Excerpt     *string                 `json:"excerpt,omitempty"`
}

// Update merges the patch into the stored frontmatter. A new body is
// re-uploaded under the same key before the record is replaced, and
// refreshes the word count, the etag and (unless given) the excerpt.
func (s *Service) Update(ctx context.Context, slug string, in UpdateInput) (item *domain.Item, err error) {
	defer s.record("update", &err)

	item, err = s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	in.Frontmatter.Apply(&item.Frontmatter)
	item.Frontmatter.Title = strings.TrimSpace(item.Frontmatter.Title)
	if item.Frontmatter.Title == "" {
		return nil, domain.NewValidationError("title", "must not be empty")
	}

	now := s.now().UTC()

	if in.Content != nil {
		put, err := s.objects.Put(ctx, s.KeyFor(slug), []byte(*in.Content), contentTypeFor(s.ext), s.objectMetadata(item.Frontmatter))
		if err != nil {
			return nil, err
		}
		item.Content = *in.Content
		item.WordCount = domain.CountWords(*in.Content)
		item.S3Key = put.Key
		item.S3Bucket = s.objects.Bucket()
		item.S3Region = s.objects.Region()
		item.ETag = put.ETag
		item.LastModified = now
		if in.Excerpt == nil {
			item.Excerpt = s.excerpt(item.Content, nil)
		}
	}
	if in.Excerpt != nil {
		item.Excerpt = s.excerpt(item.Content, in.Excerpt)
	}

	item.Frontmatter.UpdatedAt = now

	if err := s.repo.Replace(ctx, item); err != nil {
		if in.Content != nil {
			s.logger.Warn("record replace failed after body upload, stored body is ahead of record",
				logger.String("slug", slug),
				logger.Error(err))
		}
		return nil, err
	}

	if in.Content != nil {
		s.forgetHTML(ctx, slug)
	}

	s.logger.Info("content updated",
		logger.String("slug", slug),
		logger.Bool("body_changed", in.Content != nil))
	return item, nil
}

// Delete removes the blob, then the record. When the blob delete fails the
// record is kept and the error returned.
func (s *Service) Delete(ctx context.Context, slug string) (err error) {
	defer s.record("delete", &err)

	item, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return err
	}

	key := item.S3Key
	if key == "" {
		key = s.KeyFor(slug)
	}
	if err := s.objects.Delete(ctx, key); err != nil {
		s.logger.Warn("body delete failed, record kept",
			logger.String("slug", slug),
			logger.String("key", key),
			logger.Error(err))
		return err
	}

	if err := s.repo.Delete(ctx, slug); err != nil {
		s.logger.Warn("record delete failed after body delete",
			logger.String("slug", slug),
			logger.Error(err))
		return err
	}

	s.forgetHTML(ctx, slug)
	if s.onDelete != nil {
		s.onDelete(ctx, item)
	}

	s.logger.Info("content deleted", logger.String("slug", slug))
	return nil
}

// ToggleDraft flips the draft flag, stamping or clearing PublishedAt.
func (s *Service) ToggleDraft(ctx context.Context, slug string) (item *domain.Item, err error) {
	defer s.record("toggle_draft", &err)

	item, err = s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	item.SetDraft(!item.Frontmatter.Draft, now)
	item.Frontmatter.UpdatedAt = now

	if err := s.repo.Replace(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Info("draft status toggled",
		logger.String("slug", slug),
		logger.Bool("draft", item.Frontmatter.Draft))
	return item, nil
}

// ToggleFeatured flips the featured flag.
func (s *Service) ToggleFeatured(ctx context.Context, slug string) (item *domain.Item, err error) {
	defer s.record("toggle_featured", &err)

	item, err = s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	item.Frontmatter.Featured = !item.Frontmatter.Featured
	item.Frontmatter.UpdatedAt = s.now().UTC()

	if err := s.repo.Replace(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Info("featured status toggled",
		logger.String("slug", slug),
		logger.Bool("featured", item.Frontmatter.Featured))
	return item, nil
}

// ─────────────────────────────────────────────────────────────────
// Read path
// ─────────────────────────────────────────────────────────────────

// GetBySlug returns the full item, drafts included.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*domain.Item, error) {
	return s.repo.FindBySlug(ctx, slug)
}

// GetPublished returns the item only when it is published.
func (s *Service) GetPublished(ctx context.Context, slug string) (*domain.Item, error) {
	item, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !item.Published() {
		return nil, domain.NotFound(s.kind, slug)
	}
	return item, nil
}

func (s *Service) ListPublished(ctx context.Context) ([]*domain.Item, error) {
	return s.repo.List(ctx, domain.ListFilter{})
}

func (s *Service) ListAll(ctx context.Context) ([]*domain.Item, error) {
	return s.repo.List(ctx, domain.ListFilter{IncludeDrafts: true})
}

func (s *Service) ListFeatured(ctx context.Context) ([]*domain.Item, error) {
	featured := true
	return s.repo.List(ctx, domain.ListFilter{Featured: &featured})
}

func (s *Service) ListByCategory(ctx context.Context, category string) ([]*domain.Item, error) {
	return s.repo.List(ctx, domain.ListFilter{Category: strings.TrimSpace(category)})
}

func (s *Service) ListByTag(ctx context.Context, tag string) ([]*domain.Item, error) {
	return s.repo.List(ctx, domain.ListFilter{Tag: strings.TrimSpace(tag)})
}

// Search normalizes opts and queries the repository.
func (s *Service) Search(ctx context.Context, opts domain.SearchOptions) (*domain.SearchResult, error) {
	if err := opts.Normalize(); err != nil {
		return nil, err
	}
	return s.repo.Search(ctx, opts)
}

// Stats is a shorthand for Catalog().Stats.
func (s *Service) Stats(ctx context.Context) (*domain.Stats, error) {
	return s.catalog.Stats(ctx)
}

// Source downloads the stored body blob of slug.
func (s *Service) Source(ctx context.Context, slug string) (*objectstore.Object, error) {
	item, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	key := item.S3Key
	if key == "" {
		key = s.KeyFor(slug)
	}
	return s.objects.Get(ctx, key)
}

// Render returns the sanitized HTML of item's body, through the HTML cache
// when one is configured.
func (s *Service) Render(ctx context.Context, item *domain.Item) (string, error) {
	if s.html == nil || item.ETag == "" {
		return RenderBody(item.Content, s.ext)
	}

	html, ok, err := s.html.GetHTML(ctx, s.kind, item.Slug(), item.ETag)
	if err != nil {
		s.logger.Debug("html cache lookup failed",
			logger.String("slug", item.Slug()),
			logger.Error(err))
	} else if ok {
		return html, nil
	}

	html, err = RenderBody(item.Content, s.ext)
	if err != nil {
		return "", err
	}
	if err := s.html.SetHTML(ctx, s.kind, item.Slug(), item.ETag, html); err != nil {
		s.logger.Debug("html cache store failed",
			logger.String("slug", item.Slug()),
			logger.Error(err))
	}
	return html, nil
}

// ─────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────

// excerpt keeps an explicit non-blank excerpt, otherwise generates one
// from the markup-free body.
func (s *Service) excerpt(body string, explicit *string) string {
	if explicit != nil {
		if e := strings.TrimSpace(*explicit); e != "" {
			return e
		}
	}
	text := PlainText(body)
	if isMarkdown(s.ext) {
		text = MarkdownPlainText(body)
	}
	return domain.GenerateExcerpt(text, domain.DefaultExcerptLength)
}

func (s *Service) forgetHTML(ctx context.Context, slug string) {
	if s.html == nil {
		return
	}
	if err := s.html.Forget(ctx, s.kind, slug); err != nil {
		s.logger.Warn("failed to forget cached html",
			logger.String("slug", slug),
			logger.Error(err))
	}
}

// objectMetadata builds header-safe metadata for the body blob.
func (s *Service) objectMetadata(fm domain.Frontmatter) map[string]string {
	meta := map[string]string{
		"slug":     fm.Slug,
		"kind":     string(s.kind),
		"title":    objectstore.ASCIIMetadata(fm.Title),
		"author":   objectstore.ASCIIMetadata(fm.Author.Name),
		"category": objectstore.ASCIIMetadata(fm.Category),
	}
	for k, v := range meta {
		if v == "" {
			delete(meta, k)
		}
	}
	return meta
}

func (s *Service) record(op string, err *error) {
	outcome := metrics.OutcomeSuccess
	if *err != nil {
		outcome = metrics.OutcomeError
	}
	s.metrics.RecordOperation(string(s.kind), op, outcome)
}
