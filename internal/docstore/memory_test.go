package docstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParent(t *testing.T) {
	assert.Equal(t, "grades", Parent("grades/g1"))
	assert.Equal(t, "grades/g1/units", Parent("grades/g1/units/u1"))
	assert.Equal(t, "", Parent("grades"))
}

func TestMemoryStoreGetSetDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Get(ctx, "grades/g1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "grades/g1", Document{"id": "g1", "name": "Grade 1"}))

	doc, err := store.Get(ctx, "grades/g1")
	require.NoError(t, err)
	assert.Equal(t, "Grade 1", doc.Str("name"))

	require.NoError(t, store.Delete(ctx, "grades/g1"))
	_, err = store.Get(ctx, "grades/g1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreListScopedToCollection(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Set(ctx, "grades/g1", Document{"id": "g1"}))
	require.NoError(t, store.Set(ctx, "grades/g2", Document{"id": "g2"}))
	require.NoError(t, store.Set(ctx, "grades/g1/units/u1", Document{"id": "u1"}))

	docs, err := store.List(ctx, "grades")
	require.NoError(t, err)
	assert.Len(t, docs, 2, "nested documents do not leak into the parent collection")

	units, err := store.List(ctx, "grades/g1/units")
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, "u1", units[0].Str("id"))
}

func TestMemoryStoreUpdateMergesFields(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Set(ctx, "grades/g1", Document{"id": "g1", "name": "Grade 1"}))
	require.NoError(t, store.Update(ctx, "grades/g1", map[string]any{"description": "updated"}))

	doc, err := store.Get(ctx, "grades/g1")
	require.NoError(t, err)
	assert.Equal(t, "Grade 1", doc.Str("name"))
	assert.Equal(t, "updated", doc.Str("description"))

	err = store.Update(ctx, "grades/missing", map[string]any{"x": 1})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Set(ctx, "grades/g1", Document{"id": "g1", "name": "Grade 1"}))

	doc, err := store.Get(ctx, "grades/g1")
	require.NoError(t, err)
	doc["name"] = "mutated"

	again, err := store.Get(ctx, "grades/g1")
	require.NoError(t, err)
	assert.Equal(t, "Grade 1", again.Str("name"))
}

func TestMemoryStoreSubscribeDeliversCollectionEvents(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	sub, err := store.Subscribe(ctx, "grades")
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, store.Set(ctx, "grades/g1", Document{"id": "g1"}))
	require.NoError(t, store.Set(ctx, "grades/g1/units/u1", Document{"id": "u1"}))
	require.NoError(t, store.Delete(ctx, "grades/g1"))

	var events []Event
	timeout := time.After(time.Second)
	for len(events) < 2 {
		select {
		case evt := <-sub.Events():
			events = append(events, evt)
		case <-timeout:
			t.Fatal("timed out waiting for events")
		}
	}

	assert.Equal(t, Event{Kind: EventPut, Path: "grades/g1"}, events[0])
	assert.Equal(t, Event{Kind: EventDelete, Path: "grades/g1"}, events[1], "unit write must not reach the grades subscription")
}

func TestMemoryStoreSubscriptionCloseIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	sub, err := store.Subscribe(ctx, "grades")
	require.NoError(t, err)

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())

	_, ok := <-sub.Events()
	assert.False(t, ok, "events channel closes with the subscription")

	// writes after close must not panic
	require.NoError(t, store.Set(ctx, "grades/g1", Document{"id": "g1"}))
}

func TestDocumentAccessors(t *testing.T) {
	doc := Document{
		"name":    "Grade 1",
		"number":  float64(3),
		"count":   7,
		"active":  true,
		"tags":    []any{"a", 1, "b"},
		"answers": []string{"x", "y"},
		"meta":    map[string]any{"k": "v"},
	}

	assert.Equal(t, "Grade 1", doc.Str("name"))
	assert.Equal(t, "", doc.Str("missing"))
	assert.Equal(t, 3, doc.Int("number"))
	assert.Equal(t, 7, doc.Int("count"))
	assert.Equal(t, 0, doc.Int("name"))
	assert.True(t, doc.Bool("active"))
	assert.Equal(t, []string{"a", "b"}, doc.StringSlice("tags"))
	assert.Equal(t, []string{"x", "y"}, doc.StringSlice("answers"))
	assert.Equal(t, map[string]any{"k": "v"}, doc.Map("meta"))
	assert.True(t, doc.Has("active"))
	assert.False(t, doc.Has("missing"))
}
