// Package memory is an in-process objectstore.Store used for local
// development and tests.
package memory

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/MrSnakeDoc/devure/internal/objectstore"
)

// ErrNoSuchKey is wrapped in the StorageError returned by Get for unknown keys.
var ErrNoSuchKey = errors.New("no such key")

type entry struct {
	body         []byte
	contentType  string
	metadata     map[string]string
	etag         string
	lastModified time.Time
}

// Store keeps objects in a map guarded by a RWMutex.
type Store struct {
	mu      sync.RWMutex
	bucket  string
	region  string
	baseURL string
	objects map[string]*entry
	now     func() time.Time

	failures map[string]error
	calls    map[string]int
}

// New creates an empty store. baseURL prefixes object URLs.
func New(bucket, region, baseURL string) *Store {
	return &Store{
		bucket:   bucket,
		region:   region,
		baseURL:  strings.TrimRight(baseURL, "/"),
		objects:  make(map[string]*entry),
		now:      time.Now,
		failures: make(map[string]error),
		calls:    make(map[string]int),
	}
}

// FailOn makes every subsequent call of op ("put", "get", "delete", "list",
// "ping") fail with err. A nil err clears the injected failure.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// Calls returns how many times op was invoked, failed calls included.
func (s *Store) Calls(op string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls[op]
}

// SetClock overrides the time source for LastModified.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// track records a call and returns the injected failure, if any. Caller holds mu.
func (s *Store) track(op, key string) error {
	s.calls[op]++
	if err := s.failures[op]; err != nil {
		return &objectstore.StorageError{Op: op, Key: key, Err: err}
	}
	return nil
}

func (s *Store) Put(_ context.Context, key string, body []byte, contentType string, metadata map[string]string) (*objectstore.PutResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.track("put", key); err != nil {
		return nil, err
	}

	sum := md5.Sum(body)
	etag := `"` + hex.EncodeToString(sum[:]) + `"`

	meta := make(map[string]string, len(metadata))
	for k, v := range metadata {
		meta[k] = v
	}

	s.objects[key] = &entry{
		body:         append([]byte(nil), body...),
		contentType:  contentType,
		metadata:     meta,
		etag:         etag,
		lastModified: s.now(),
	}

	return &objectstore.PutResult{
		URL:  s.url(key),
		Key:  key,
		ETag: etag,
	}, nil
}

func (s *Store) Get(_ context.Context, key string) (*objectstore.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.track("get", key); err != nil {
		return nil, err
	}

	e, ok := s.objects[key]
	if !ok {
		return nil, &objectstore.StorageError{Op: "get", Key: key, Err: ErrNoSuchKey}
	}
	return &objectstore.Object{
		Content:      append([]byte(nil), e.body...),
		ContentType:  e.contentType,
		LastModified: e.lastModified,
		Metadata:     e.metadata,
	}, nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.track("delete", key); err != nil {
		return err
	}
	delete(s.objects, key)
	return nil
}

func (s *Store) Exists(_ context.Context, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.track("exists", key); err != nil {
		return false
	}
	_, ok := s.objects[key]
	return ok
}

func (s *Store) List(_ context.Context, prefix string) ([]objectstore.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.track("list", prefix); err != nil {
		return nil, err
	}

	infos := make([]objectstore.ObjectInfo, 0, len(s.objects))
	for key, e := range s.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		infos = append(infos, objectstore.ObjectInfo{
			Key:          key,
			Size:         int64(len(e.body)),
			ETag:         e.etag,
			LastModified: e.lastModified,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.track("ping", "")
}

func (s *Store) Bucket() string { return s.bucket }
func (s *Store) Region() string { return s.region }

func (s *Store) url(key string) string {
	if s.baseURL == "" {
		return "memory://" + s.bucket + "/" + key
	}
	return s.baseURL + "/" + key
}
