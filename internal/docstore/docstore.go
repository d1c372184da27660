// Package docstore abstracts the hosted document database the authoring
// console writes to. Documents are schemaless JSON objects addressed by
// slash-separated paths: a collection ("grades", "grades/g1/units") holds
// documents ("grades/g1"), and collections nest under documents.
package docstore

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned by Get when no document exists at the path.
var ErrNotFound = errors.New("docstore: document not found")

// Document is one stored record, decoded from JSON. Values follow
// encoding/json conventions: numbers are float64, nested objects are
// map[string]any, arrays are []any.
type Document map[string]any

// EventKind discriminates change notifications.
type EventKind string

const (
	EventPut    EventKind = "put"
	EventDelete EventKind = "delete"
)

// Event is a single change observed on a subscribed collection.
type Event struct {
	Kind EventKind
	Path string
}

// Subscription is a live listen on one collection. Close releases the
// underlying resources; Events is closed afterwards.
type Subscription interface {
	Events() <-chan Event
	Close() error
}

// Store is the persistence primitive set the rest of the system builds on.
// Implementations: Redis (key-per-document plus Pub/Sub), Postgres (jsonb
// table plus LISTEN/NOTIFY) and an in-process memory store for tests.
type Store interface {
	Get(ctx context.Context, path string) (Document, error)
	List(ctx context.Context, collection string) ([]Document, error)
	Set(ctx context.Context, path string, doc Document) error
	Update(ctx context.Context, path string, fields map[string]any) error
	Delete(ctx context.Context, path string) error
	Subscribe(ctx context.Context, collection string) (Subscription, error)
}

// Join builds a document or collection path from segments.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// Parent returns the collection a document path belongs to.
func Parent(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return ""
	}
	return path[:idx]
}

// Str returns the string stored under key, or "".
func (d Document) Str(key string) string {
	s, _ := d[key].(string)
	return s
}

// Int returns the number stored under key truncated to int, or 0. JSON
// decoding yields float64 for all numbers, but int is accepted too so that
// documents built in-process behave the same as documents read back.
func (d Document) Int(key string) int {
	switch v := d[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}

// Bool returns the bool stored under key, or false.
func (d Document) Bool(key string) bool {
	b, _ := d[key].(bool)
	return b
}

// Slice returns the array stored under key, or nil.
func (d Document) Slice(key string) []any {
	s, _ := d[key].([]any)
	return s
}

// StringSlice returns the array stored under key with every element coerced
// to string; non-string elements are skipped. A native []string is returned
// as-is so in-process documents round-trip.
func (d Document) StringSlice(key string) []string {
	if s, ok := d[key].([]string); ok {
		return s
	}
	raw, ok := d[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Map returns the nested object stored under key, or nil.
func (d Document) Map(key string) map[string]any {
	m, _ := d[key].(map[string]any)
	return m
}

// Has reports whether key is present at all, regardless of its value.
func (d Document) Has(key string) bool {
	_, ok := d[key]
	return ok
}

// Clone returns a shallow copy one level deep, enough to let callers attach
// or strip top-level fields without mutating the source document.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
