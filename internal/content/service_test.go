package content

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/devure/internal/domain"
	"github.com/MrSnakeDoc/devure/internal/objectstore"
	objmemory "github.com/MrSnakeDoc/devure/internal/objectstore/memory"
	"github.com/MrSnakeDoc/devure/internal/store/memory"
)

var errBoom = errors.New("boom")

// flakyRepo wraps the memory repository with injectable write failures.
type flakyRepo struct {
	*memory.Repository
	insertErr  error
	replaceErr error
	deleteErr  error
	finds      int
}

func (r *flakyRepo) Insert(ctx context.Context, item *domain.Item) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	return r.Repository.Insert(ctx, item)
}

func (r *flakyRepo) Replace(ctx context.Context, item *domain.Item) error {
	if r.replaceErr != nil {
		return r.replaceErr
	}
	return r.Repository.Replace(ctx, item)
}

func (r *flakyRepo) Delete(ctx context.Context, slug string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	return r.Repository.Delete(ctx, slug)
}

func (r *flakyRepo) FindBySlug(ctx context.Context, slug string) (*domain.Item, error) {
	r.finds++
	return r.Repository.FindBySlug(ctx, slug)
}

type fixture struct {
	svc     *Service
	repo    *flakyRepo
	objects *objmemory.Store
	clock   *fakeClock
	deleted []string
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }
func (c *fakeClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		repo:    &flakyRepo{Repository: memory.NewRepository(domain.KindBlog)},
		objects: objmemory.New("devure-content", "eu-west-3", ""),
		clock:   &fakeClock{t: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
	}
	ids := 0
	f.svc = NewService(Options{
		Kind:    domain.KindBlog,
		Prefix:  "mdx",
		Ext:     "mdx",
		Repo:    f.repo,
		Objects: f.objects,
		Now:     f.clock.Now,
		NewID: func() string {
			ids++
			return "id-" + string(rune('0'+ids))
		},
		OnDelete: func(_ context.Context, item *domain.Item) {
			f.deleted = append(f.deleted, item.Slug())
		},
	})
	return f
}

func (f *fixture) create(t *testing.T, slug string, draft bool, body string) *domain.Item {
	t.Helper()
	item, err := f.svc.Create(context.Background(), CreateInput{
		Frontmatter: domain.Frontmatter{Title: "Title " + slug, Slug: slug, Draft: draft},
		Content:     body,
	})
	require.NoError(t, err)
	return item
}

func strPtr(s string) *string { return &s }

func TestCreate_DraftScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item := f.create(t, "hello-world", true, "a b c")
	assert.Equal(t, 3, item.WordCount)
	assert.Nil(t, item.Frontmatter.PublishedAt)
	assert.Equal(t, "mdx/hello-world.mdx", item.S3Key)
	assert.Equal(t, "devure-content", item.S3Bucket)
	assert.Equal(t, "eu-west-3", item.S3Region)
	assert.Equal(t, domain.SourceObjectStore, item.Source)
	assert.NotEmpty(t, item.ETag)

	f.clock.Advance(time.Hour)
	toggled, err := f.svc.ToggleDraft(ctx, "hello-world")
	require.NoError(t, err)
	assert.False(t, toggled.Frontmatter.Draft)
	require.NotNil(t, toggled.Frontmatter.PublishedAt)
	assert.Equal(t, f.clock.Now(), *toggled.Frontmatter.PublishedAt)
	assert.Equal(t, f.clock.Now(), toggled.Frontmatter.UpdatedAt)

	again, err := f.svc.ToggleDraft(ctx, "hello-world")
	require.NoError(t, err)
	assert.True(t, again.Frontmatter.Draft)
	assert.Nil(t, again.Frontmatter.PublishedAt)
}

func TestCreate_ThenGetBySlug(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bodies := []string{
		"one",
		"  spaced   out\n\nwords\tand tabs ",
		"<p>Some <strong>HTML</strong> body</p><p>second paragraph</p>",
		"",
	}
	for i, body := range bodies {
		slug := "post-" + string(rune('a'+i))
		f.create(t, slug, false, body)

		got, err := f.svc.GetBySlug(ctx, slug)
		require.NoError(t, err)
		assert.Equal(t, len(strings.Fields(body)), got.WordCount, "body %q", body)
		assert.NotEmpty(t, got.Excerpt)
		assert.Equal(t, body, got.Content)
		require.NotNil(t, got.Frontmatter.PublishedAt)
	}
}

func TestCreate_ExcerptFromHTMLIsPlainText(t *testing.T) {
	f := newFixture(t)
	item := f.create(t, "html", false, "<p>Hello <em>there</em> &amp; welcome</p><p>Next</p>")
	assert.Equal(t, "Hello there & welcome Next", item.Excerpt)
}

func TestCreate_MarkdownExcerptKeepsAngleBrackets(t *testing.T) {
	f := newFixture(t)
	item := f.create(t, "compare", false, "Compare `x<y` in Go.\n\nThe loop ends when a < b holds.")
	assert.Equal(t, "Compare x<y in Go. The loop ends when a < b holds.", item.Excerpt)
}

func TestCreate_HTMLKindExcerptStripsTags(t *testing.T) {
	svc := NewService(Options{
		Kind:    domain.KindProject,
		Prefix:  "projects",
		Ext:     "html",
		Repo:    memory.NewRepository(domain.KindProject),
		Objects: objmemory.New("devure-content", "eu-west-3", ""),
	})

	item, err := svc.Create(context.Background(), CreateInput{
		Frontmatter: domain.Frontmatter{Title: "Rebuild"},
		Content:     "<h2>Rebuild</h2><p>Moved to Go &amp; Mongo.</p><script>track()</script>",
	})
	require.NoError(t, err)
	assert.Equal(t, "Rebuild Moved to Go & Mongo.", item.Excerpt)
}

func TestCreate_ExplicitExcerptKept(t *testing.T) {
	f := newFixture(t)
	item, err := f.svc.Create(context.Background(), CreateInput{
		Frontmatter: domain.Frontmatter{Title: "Hello"},
		Content:     "body",
		Excerpt:     strPtr("  Handwritten summary "),
	})
	require.NoError(t, err)
	assert.Equal(t, "Handwritten summary", item.Excerpt)
	assert.Equal(t, "hello", item.Slug(), "slug derived from title")
}

func TestCreate_DuplicateSlugMutatesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	original := f.create(t, "taken", false, "original body")
	putsBefore := f.objects.Calls("put")

	_, err := f.svc.Create(ctx, CreateInput{
		Frontmatter: domain.Frontmatter{Title: "Other", Slug: "taken"},
		Content:     "new body",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDuplicateSlug))
	assert.Equal(t, putsBefore, f.objects.Calls("put"), "no blob overwrite")

	got, err := f.svc.GetBySlug(ctx, "taken")
	require.NoError(t, err)
	assert.Equal(t, original.Content, got.Content)
	assert.Equal(t, original.ETag, got.ETag)

	obj, err := f.objects.Get(ctx, "mdx/taken.mdx")
	require.NoError(t, err)
	assert.Equal(t, "original body", string(obj.Content))
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		fm   domain.Frontmatter
	}{
		{"missing title", domain.Frontmatter{Title: "  "}},
		{"non canonical slug", domain.Frontmatter{Title: "x", Slug: "Hello World"}},
		{"title without slug characters", domain.Frontmatter{Title: "!!!"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), CreateInput{Frontmatter: tt.fm})
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrValidation))
		})
	}
	assert.Equal(t, 0, f.objects.Calls("put"))
}

func TestCreate_StorageFailureLeavesNoRecord(t *testing.T) {
	f := newFixture(t)
	f.objects.FailOn("put", errBoom)

	_, err := f.svc.Create(context.Background(), CreateInput{Frontmatter: domain.Frontmatter{Title: "Fails"}})
	require.Error(t, err)
	var se *objectstore.StorageError
	assert.True(t, errors.As(err, &se))
	assert.Equal(t, 0, f.repo.Count())
}

func TestCreate_InsertFailureOrphansBlob(t *testing.T) {
	f := newFixture(t)
	f.repo.insertErr = errBoom

	_, err := f.svc.Create(context.Background(), CreateInput{Frontmatter: domain.Frontmatter{Title: "Orphan"}, Content: "x"})
	require.ErrorIs(t, err, errBoom)
	assert.True(t, f.objects.Exists(context.Background(), "mdx/orphan.mdx"), "blob is not rolled back")
}

func TestCreate_ObjectMetadataIsASCII(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Create(ctx, CreateInput{
		Frontmatter: domain.Frontmatter{
			Title:    "Café über alles",
			Slug:     "cafe",
			Category: "Événements",
			Author:   domain.Author{Name: "Zoë"},
		},
		Content: "x",
	})
	require.NoError(t, err)

	obj, err := f.objects.Get(ctx, "mdx/cafe.mdx")
	require.NoError(t, err)
	assert.Equal(t, "Caf ber alles", obj.Metadata["title"])
	assert.Equal(t, "vnements", obj.Metadata["category"])
	assert.Equal(t, "Zo", obj.Metadata["author"])
	assert.Equal(t, "text/markdown; charset=utf-8", obj.ContentType)
}

func TestUpdate_ContentOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	before := f.create(t, "post", false, "first version")

	f.clock.Advance(time.Minute)
	after, err := f.svc.Update(ctx, "post", UpdateInput{Content: strPtr("second version of the body")})
	require.NoError(t, err)

	assert.Equal(t, "post", after.Slug())
	assert.NotEqual(t, before.ETag, after.ETag)
	assert.Equal(t, 5, after.WordCount)
	assert.Equal(t, "second version of the body", after.Excerpt)
	assert.Equal(t, f.clock.Now(), after.Frontmatter.UpdatedAt)
	assert.Equal(t, before.Frontmatter.PublishedAt, after.Frontmatter.PublishedAt, "publishedAt untouched")

	obj, err := f.objects.Get(ctx, "mdx/post.mdx")
	require.NoError(t, err)
	assert.Equal(t, "second version of the body", string(obj.Content))
}

func TestUpdate_FrontmatterPatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	before := f.create(t, "post", false, "body")
	putsBefore := f.objects.Calls("put")

	featured := true
	tags := []string{"go", "mongo"}
	after, err := f.svc.Update(ctx, "post", UpdateInput{
		Frontmatter: domain.FrontmatterPatch{
			Title:    strPtr("New title"),
			Tags:     &tags,
			Featured: &featured,
		},
		Excerpt: strPtr("Custom"),
	})
	require.NoError(t, err)

	assert.Equal(t, "New title", after.Frontmatter.Title)
	assert.Equal(t, tags, after.Frontmatter.Tags)
	assert.True(t, after.Frontmatter.Featured)
	assert.Equal(t, "Custom", after.Excerpt)
	assert.Equal(t, before.ETag, after.ETag, "no body change, no upload")
	assert.Equal(t, putsBefore, f.objects.Calls("put"))
	assert.Equal(t, "post", after.Slug())
}

func TestUpdate_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Update(ctx, "missing", UpdateInput{Content: strPtr("x")})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Equal(t, 0, f.objects.Calls("put"))

	f.create(t, "post", false, "body")
	_, err = f.svc.Update(ctx, "post", UpdateInput{Frontmatter: domain.FrontmatterPatch{Title: strPtr("")}})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	f.objects.FailOn("put", errBoom)
	_, err = f.svc.Update(ctx, "post", UpdateInput{Content: strPtr("new")})
	var se *objectstore.StorageError
	assert.True(t, errors.As(err, &se))

	got, _ := f.svc.GetBySlug(ctx, "post")
	assert.Equal(t, "body", got.Content)
}

func TestDelete_MissingMakesNoObjectStoreCall(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Delete(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Equal(t, 0, f.objects.Calls("delete"))
	assert.Empty(t, f.deleted)
}

func TestDelete_RemovesBlobThenRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, "bye", false, "body")

	require.NoError(t, f.svc.Delete(ctx, "bye"))
	assert.False(t, f.objects.Exists(ctx, "mdx/bye.mdx"))
	_, err := f.svc.GetBySlug(ctx, "bye")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Equal(t, []string{"bye"}, f.deleted)
}

func TestDelete_BlobFailureKeepsRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, "keep", false, "body")
	f.objects.FailOn("delete", errBoom)

	err := f.svc.Delete(ctx, "keep")
	var se *objectstore.StorageError
	require.True(t, errors.As(err, &se))

	_, err = f.svc.GetBySlug(ctx, "keep")
	assert.NoError(t, err, "record must survive a failed blob delete")
	assert.Empty(t, f.deleted)
}

func TestToggleDraft_Parity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, "flip", true, "x")

	for i := 1; i <= 5; i++ {
		item, err := f.svc.ToggleDraft(ctx, "flip")
		require.NoError(t, err)
		if i%2 == 1 {
			assert.False(t, item.Frontmatter.Draft)
			assert.NotNil(t, item.Frontmatter.PublishedAt)
		} else {
			assert.True(t, item.Frontmatter.Draft)
			assert.Nil(t, item.Frontmatter.PublishedAt)
		}
	}
}

func TestToggleFeatured(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, "star", false, "x")

	item, err := f.svc.ToggleFeatured(ctx, "star")
	require.NoError(t, err)
	assert.True(t, item.Frontmatter.Featured)

	featured, err := f.svc.ListFeatured(ctx)
	require.NoError(t, err)
	require.Len(t, featured, 1)

	item, err = f.svc.ToggleFeatured(ctx, "star")
	require.NoError(t, err)
	assert.False(t, item.Frontmatter.Featured)

	_, err = f.svc.ToggleFeatured(ctx, "nope")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestLists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, in := range []CreateInput{
		{Frontmatter: domain.Frontmatter{Title: "A", Category: "go", Tags: []string{"api"}, Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}, Content: "x"},
		{Frontmatter: domain.Frontmatter{Title: "B", Category: "rust", Tags: []string{"cli"}, Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)}, Content: "x"},
		{Frontmatter: domain.Frontmatter{Title: "C", Category: "go", Draft: true, Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}, Content: "x"},
	} {
		_, err := f.svc.Create(ctx, in)
		require.NoError(t, err)
	}

	published, err := f.svc.ListPublished(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, slugsOf(published))
	assert.Empty(t, published[0].Content)

	all, err := f.svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, slugsOf(all))

	byCat, err := f.svc.ListByCategory(ctx, "go")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, slugsOf(byCat))

	byTag, err := f.svc.ListByTag(ctx, "cli")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, slugsOf(byTag))

	_, err = f.svc.GetPublished(ctx, "c")
	assert.True(t, errors.Is(err, domain.ErrNotFound), "drafts are hidden publicly")
}

func TestSearch_NormalizesAndPages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := f.svc.Create(ctx, CreateInput{
			Frontmatter: domain.Frontmatter{
				Title:    "Frontend " + string(rune('a'+i)),
				Category: "frontend",
				Date:     time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC),
			},
			Content: "x",
		})
		require.NoError(t, err)
	}

	res, err := f.svc.Search(ctx, domain.SearchOptions{
		Category: "frontend", SortBy: domain.SortByDate, SortOrder: domain.SortDesc, Limit: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"frontend-e", "frontend-d"}, slugsOf(res.Items))
	assert.True(t, res.HasMore)
	assert.Equal(t, int64(5), res.Total)

	_, err = f.svc.Search(ctx, domain.SearchOptions{SortBy: "bogus"})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestSource_ReadsBlob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, "src", false, "# Heading")

	obj, err := f.svc.Source(ctx, "src")
	require.NoError(t, err)
	assert.Equal(t, "# Heading", string(obj.Content))

	_, err = f.svc.Source(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestStats_ThroughCatalog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, "one", false, strings.Repeat("word ", 700))
	f.create(t, "two", true, strings.Repeat("word ", 50))

	st, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.TotalItems)
	assert.Equal(t, 700, st.TotalWords)
	assert.Equal(t, 4, st.AverageReadTimeMinutes)
	assert.Equal(t, 1, st.DraftCount)
}

func slugsOf(items []*domain.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Slug())
	}
	return out
}
