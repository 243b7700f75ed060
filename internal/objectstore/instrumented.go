package objectstore

import (
	"context"
	"time"
)

// LatencyRecorder receives the duration of every object-store call.
type LatencyRecorder interface {
	RecordStorageLatency(op string, d time.Duration)
}

// Instrumented wraps a Store and times each call.
type Instrumented struct {
	Store
	rec LatencyRecorder
	now func() time.Time
}

// Instrument returns s with call latencies reported to rec.
func Instrument(s Store, rec LatencyRecorder) *Instrumented {
	return &Instrumented{Store: s, rec: rec, now: time.Now}
}

func (i *Instrumented) observe(op string, start time.Time) {
	i.rec.RecordStorageLatency(op, i.now().Sub(start))
}

func (i *Instrumented) Put(ctx context.Context, key string, body []byte, contentType string, metadata map[string]string) (*PutResult, error) {
	defer i.observe("put", i.now())
	return i.Store.Put(ctx, key, body, contentType, metadata)
}

func (i *Instrumented) Get(ctx context.Context, key string) (*Object, error) {
	defer i.observe("get", i.now())
	return i.Store.Get(ctx, key)
}

func (i *Instrumented) Delete(ctx context.Context, key string) error {
	defer i.observe("delete", i.now())
	return i.Store.Delete(ctx, key)
}

func (i *Instrumented) Exists(ctx context.Context, key string) bool {
	defer i.observe("exists", i.now())
	return i.Store.Exists(ctx, key)
}

func (i *Instrumented) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	defer i.observe("list", i.now())
	return i.Store.List(ctx, prefix)
}
