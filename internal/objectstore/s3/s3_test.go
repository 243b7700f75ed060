package s3

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/xml"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/devure/internal/logger"
	"github.com/MrSnakeDoc/devure/internal/objectstore"
)

const testBucket = "content"

// fakeS3 serves the path-style subset of the S3 API the store uses.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]fakeObject
}

type fakeObject struct {
	body        []byte
	contentType string
	etag        string
	metadata    map[string]string
	modified    time.Time
}

type listResult struct {
	XMLName     xml.Name       `xml:"ListBucketResult"`
	Name        string         `xml:"Name"`
	Prefix      string         `xml:"Prefix"`
	KeyCount    int            `xml:"KeyCount"`
	MaxKeys     int            `xml:"MaxKeys"`
	IsTruncated bool           `xml:"IsTruncated"`
	Contents    []listContents `xml:"Contents"`
}

type listContents struct {
	Key          string `xml:"Key"`
	LastModified string `xml:"LastModified"`
	ETag         string `xml:"ETag"`
	Size         int    `xml:"Size"`
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/")
	bucket, key, _ := strings.Cut(path, "/")
	if bucket != testBucket {
		writeS3Error(w, http.StatusNotFound, "NoSuchBucket")
		return
	}

	switch {
	case key == "" && r.Method == http.MethodHead:
		w.WriteHeader(http.StatusOK)

	case key == "" && r.Method == http.MethodGet:
		prefix := r.URL.Query().Get("prefix")
		res := listResult{Name: testBucket, Prefix: prefix, MaxKeys: 1000}
		keys := make([]string, 0, len(f.objects))
		for k := range f.objects {
			if strings.HasPrefix(k, prefix) {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			o := f.objects[k]
			res.Contents = append(res.Contents, listContents{
				Key:          k,
				LastModified: o.modified.UTC().Format("2006-01-02T15:04:05.000Z"),
				ETag:         o.etag,
				Size:         len(o.body),
			})
		}
		res.KeyCount = len(res.Contents)
		w.Header().Set("Content-Type", "application/xml")
		_ = xml.NewEncoder(w).Encode(res)

	case r.Method == http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		sum := md5.Sum(body)
		meta := make(map[string]string)
		for h, v := range r.Header {
			if strings.HasPrefix(strings.ToLower(h), "x-amz-meta-") {
				meta[strings.ToLower(strings.TrimPrefix(strings.ToLower(h), "x-amz-meta-"))] = v[0]
			}
		}
		obj := fakeObject{
			body:        body,
			contentType: r.Header.Get("Content-Type"),
			etag:        `"` + hex.EncodeToString(sum[:]) + `"`,
			metadata:    meta,
			modified:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		}
		f.objects[key] = obj
		w.Header().Set("ETag", obj.etag)
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodGet || r.Method == http.MethodHead:
		obj, ok := f.objects[key]
		if !ok {
			if r.Method == http.MethodHead {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			writeS3Error(w, http.StatusNotFound, "NoSuchKey")
			return
		}
		w.Header().Set("Content-Type", obj.contentType)
		w.Header().Set("ETag", obj.etag)
		w.Header().Set("Last-Modified", obj.modified.Format(http.TimeFormat))
		for k, v := range obj.metadata {
			w.Header().Set("X-Amz-Meta-"+k, v)
		}
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = w.Write(obj.body)
		}

	case r.Method == http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func writeS3Error(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>`+code+`</Code><Message>`+code+`</Message></Error>`)
}

func newTestStore(t *testing.T, bucket string) *Store {
	t.Helper()

	fake := &fakeS3{objects: make(map[string]fakeObject)}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client := s3.New(s3.Options{
		Region:                     "eu-west-3",
		BaseEndpoint:               aws.String(srv.URL),
		UsePathStyle:               true,
		Credentials:                credentials.NewStaticCredentialsProvider("test", "test", ""),
		RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
		ResponseChecksumValidation: aws.ResponseChecksumValidationWhenRequired,
		RetryMaxAttempts:           1,
	})

	return NewWithClient(client, Options{
		Bucket:        bucket,
		Region:        "eu-west-3",
		PublicBaseURL: "https://cdn.example.com/",
	}, logger.Nop())
}

func TestStore_PutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, testBucket)

	res, err := store.Put(ctx, "mdx/hello.mdx", []byte("# Hello"), "text/markdown", map[string]string{"title": "Hello"})
	require.NoError(t, err)
	assert.Equal(t, "mdx/hello.mdx", res.Key)
	assert.Equal(t, "https://cdn.example.com/mdx/hello.mdx", res.URL)
	assert.NotEmpty(t, res.ETag)

	obj, err := store.Get(ctx, "mdx/hello.mdx")
	require.NoError(t, err)
	assert.Equal(t, "# Hello", string(obj.Content))
	assert.Equal(t, "text/markdown", obj.ContentType)
	assert.Equal(t, "Hello", obj.Metadata["title"])
	assert.False(t, obj.LastModified.IsZero())
}

func TestStore_PutOverwritesWithNewETag(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, testBucket)

	first, err := store.Put(ctx, "mdx/a.mdx", []byte("v1"), "text/markdown", nil)
	require.NoError(t, err)
	second, err := store.Put(ctx, "mdx/a.mdx", []byte("v2"), "text/markdown", nil)
	require.NoError(t, err)

	assert.NotEqual(t, first.ETag, second.ETag)

	obj, err := store.Get(ctx, "mdx/a.mdx")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(obj.Content))
}

func TestStore_GetMissingIsStorageError(t *testing.T) {
	store := newTestStore(t, testBucket)

	_, err := store.Get(context.Background(), "mdx/missing.mdx")
	require.Error(t, err)

	var se *objectstore.StorageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "get", se.Op)
	assert.Equal(t, "mdx/missing.mdx", se.Key)
}

func TestStore_ExistsAndDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, testBucket)

	assert.False(t, store.Exists(ctx, "projects/p.html"))

	_, err := store.Put(ctx, "projects/p.html", []byte("<p>x</p>"), "text/html", nil)
	require.NoError(t, err)
	assert.True(t, store.Exists(ctx, "projects/p.html"))

	require.NoError(t, store.Delete(ctx, "projects/p.html"))
	assert.False(t, store.Exists(ctx, "projects/p.html"))

	// deleting an absent object is not an error
	require.NoError(t, store.Delete(ctx, "projects/p.html"))
}

func TestStore_ListByPrefix(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, testBucket)

	for _, k := range []string{"mdx/b.mdx", "mdx/a.mdx", "projects/c.html"} {
		_, err := store.Put(ctx, k, []byte(k), "text/plain", nil)
		require.NoError(t, err)
	}

	infos, err := store.List(ctx, "mdx/")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "mdx/a.mdx", infos[0].Key)
	assert.Equal(t, "mdx/b.mdx", infos[1].Key)
	assert.Equal(t, int64(len("mdx/a.mdx")), infos[0].Size)
}

func TestStore_Ping(t *testing.T) {
	ctx := context.Background()

	require.NoError(t, newTestStore(t, testBucket).Ping(ctx))

	err := newTestStore(t, "other").Ping(ctx)
	require.Error(t, err)
	var se *objectstore.StorageError
	assert.True(t, errors.As(err, &se))
}

func TestStore_URLWithoutPublicBase(t *testing.T) {
	store := NewWithClient(nil, Options{Bucket: "b", Region: "us-east-1"}, logger.Nop())
	assert.Equal(t, "https://b.s3.us-east-1.amazonaws.com/k.txt", store.URL("k.txt"))
	assert.Equal(t, "b", store.Bucket())
	assert.Equal(t, "us-east-1", store.Region())
}
