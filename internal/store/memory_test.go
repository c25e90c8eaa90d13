package store

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MKhiriev/go-natours/internal/logger"
	"github.com/MKhiriev/go-natours/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRunningStore(t *testing.T, opts ...MemoryOption) *MemoryStore {
	t.Helper()
	s, err := NewMemoryStore(logger.Nop(), opts...)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(stopped)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})
	return s
}

func mustCreate(t *testing.T, s DocumentStore, collection string, doc models.Document) models.Document {
	t.Helper()
	created, err := s.Create(context.Background(), collection, doc)
	require.NoError(t, err)
	return created
}

func seedTours(t *testing.T, s DocumentStore) {
	t.Helper()
	mustCreate(t, s, models.CollectionTours, models.Document{"name": "The Forest Hiker", "difficulty": "easy", "price": 397.0, "duration": 5.0})
	mustCreate(t, s, models.CollectionTours, models.Document{"name": "The Sea Explorer", "difficulty": "medium", "price": 497.0, "duration": 7.0})
	mustCreate(t, s, models.CollectionTours, models.Document{"name": "The Snow Adventurer", "difficulty": "difficult", "price": 997.0, "duration": 4.0})
	mustCreate(t, s, models.CollectionTours, models.Document{"name": "The City Wanderer", "difficulty": "easy", "price": 1197.0, "duration": 9.0})
}

func names(docs []models.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.String("name")
	}
	return out
}

func TestMemoryStore_CreateAndGet(t *testing.T) {
	s := newRunningStore(t)
	ctx := context.Background()

	first := mustCreate(t, s, models.CollectionTours, models.Document{"name": "The Forest Hiker", "id": 77})
	second := mustCreate(t, s, models.CollectionTours, models.Document{"name": "The Sea Explorer"})

	assert.Equal(t, int64(1), first[models.IDField], "client supplied ids are ignored")
	assert.Equal(t, int64(2), second[models.IDField])

	got, err := s.Get(ctx, models.CollectionTours, "1")
	require.NoError(t, err)
	assert.Equal(t, "The Forest Hiker", got.String("name"))

	got["name"] = "mutated"
	again, err := s.Get(ctx, models.CollectionTours, "1")
	require.NoError(t, err)
	assert.Equal(t, "The Forest Hiker", again.String("name"), "returned documents are copies")
}

func TestMemoryStore_Get_Errors(t *testing.T) {
	s := newRunningStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, models.CollectionTours, "99")
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	_, err = s.Get(ctx, models.CollectionTours, "wwwww")
	var castErr *CastError
	require.ErrorAs(t, err, &castErr)
	assert.Equal(t, "id", castErr.Path)
	assert.Equal(t, "wwwww", castErr.Value)

	_, err = s.Get(ctx, "planets", "1")
	assert.ErrorIs(t, err, ErrUnknownCollection)
}

func TestMemoryStore_Create_DuplicateKey(t *testing.T) {
	s := newRunningStore(t)
	mustCreate(t, s, models.CollectionTours, models.Document{"name": "Everest Trek"})

	_, err := s.Create(context.Background(), models.CollectionTours, models.Document{"name": "Everest Trek"})

	var dupErr *DuplicateKeyError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, models.CollectionTours, dupErr.Collection)
	assert.Equal(t, map[string]any{"name": "Everest Trek"}, dupErr.KeyValue)

	// reviews carry no unique keys
	mustCreate(t, s, models.CollectionReviews, models.Document{"name": "Everest Trek"})
	mustCreate(t, s, models.CollectionReviews, models.Document{"name": "Everest Trek"})
}

func TestMemoryStore_Update(t *testing.T) {
	s := newRunningStore(t)
	ctx := context.Background()
	mustCreate(t, s, models.CollectionTours, models.Document{"name": "The Forest Hiker", "price": 397.0, "secretTour": true})
	mustCreate(t, s, models.CollectionTours, models.Document{"name": "The Sea Explorer"})

	updated, err := s.Update(ctx, models.CollectionTours, "1", models.Document{
		"price":      450.0,
		"secretTour": nil,
		"id":         42,
	})
	require.NoError(t, err)
	assert.Equal(t, models.Document{"id": int64(1), "name": "The Forest Hiker", "price": 450.0}, updated)

	// keeping its own unique value is fine
	_, err = s.Update(ctx, models.CollectionTours, "1", models.Document{"name": "The Forest Hiker"})
	require.NoError(t, err)

	_, err = s.Update(ctx, models.CollectionTours, "1", models.Document{"name": "The Sea Explorer"})
	var dupErr *DuplicateKeyError
	require.ErrorAs(t, err, &dupErr)

	// renaming frees the old value
	_, err = s.Update(ctx, models.CollectionTours, "2", models.Document{"name": "The Park Camper"})
	require.NoError(t, err)
	mustCreate(t, s, models.CollectionTours, models.Document{"name": "The Sea Explorer"})

	_, err = s.Update(ctx, models.CollectionTours, "9", models.Document{"price": 1.0})
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestMemoryStore_Delete(t *testing.T) {
	s := newRunningStore(t)
	ctx := context.Background()
	mustCreate(t, s, models.CollectionTours, models.Document{"name": "A"})
	mustCreate(t, s, models.CollectionTours, models.Document{"name": "B"})

	require.NoError(t, s.Delete(ctx, models.CollectionTours, "2"))

	_, err := s.Get(ctx, models.CollectionTours, "2")
	assert.ErrorIs(t, err, ErrDocumentNotFound)
	assert.ErrorIs(t, s.Delete(ctx, models.CollectionTours, "2"), ErrDocumentNotFound)
	assert.Equal(t, 1, s.Count(models.CollectionTours))

	next := mustCreate(t, s, models.CollectionTours, models.Document{"name": "B"})
	assert.Equal(t, int64(3), next[models.IDField], "ids are never reused")
}

func TestMemoryStore_List(t *testing.T) {
	s := newRunningStore(t)
	seedTours(t, s)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{
			name:   "all in insertion order",
			filter: Filter{Page: 1, Limit: DefaultLimit},
			want:   []string{"The Forest Hiker", "The Sea Explorer", "The Snow Adventurer", "The City Wanderer"},
		},
		{
			name: "equality",
			filter: Filter{
				Conditions: []Condition{{Field: "difficulty", Op: OpEq, Values: []string{"easy"}}},
				Page:       1, Limit: DefaultLimit,
			},
			want: []string{"The Forest Hiker", "The City Wanderer"},
		},
		{
			name: "membership",
			filter: Filter{
				Conditions: []Condition{{Field: "difficulty", Op: OpIn, Values: []string{"medium", "difficult"}}},
				Page:       1, Limit: DefaultLimit,
			},
			want: []string{"The Sea Explorer", "The Snow Adventurer"},
		},
		{
			name: "numeric equality compares text",
			filter: Filter{
				Conditions: []Condition{{Field: "duration", Op: OpEq, Values: []string{"5"}}},
				Page:       1, Limit: DefaultLimit,
			},
			want: []string{"The Forest Hiker"},
		},
		{
			name: "range",
			filter: Filter{
				Conditions: []Condition{{Field: "price", Op: OpGte, Values: []string{"497"}}, {Field: "price", Op: OpLt, Values: []string{"1000"}}},
				Page:       1, Limit: DefaultLimit,
			},
			want: []string{"The Sea Explorer", "The Snow Adventurer"},
		},
		{
			name:   "sort descending",
			filter: Filter{Sort: []SortKey{{Field: "price", Desc: true}}, Page: 1, Limit: DefaultLimit},
			want:   []string{"The City Wanderer", "The Snow Adventurer", "The Sea Explorer", "The Forest Hiker"},
		},
		{
			name:   "sort by two keys",
			filter: Filter{Sort: []SortKey{{Field: "difficulty"}, {Field: "duration", Desc: true}}, Page: 1, Limit: DefaultLimit},
			want:   []string{"The Snow Adventurer", "The City Wanderer", "The Forest Hiker", "The Sea Explorer"},
		},
		{
			name:   "second page",
			filter: Filter{Sort: []SortKey{{Field: "price"}}, Page: 2, Limit: 3},
			want:   []string{"The City Wanderer"},
		},
		{
			name:   "page past the end",
			filter: Filter{Page: 5, Limit: 3},
			want:   []string{},
		},
		{
			name:   "offset beyond int",
			filter: Filter{Page: math.MaxInt, Limit: 2},
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := s.List(ctx, models.CollectionTours, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(docs))
		})
	}
}

func TestMemoryStore_List_Projection(t *testing.T) {
	s := newRunningStore(t)
	seedTours(t, s)

	docs, err := s.List(context.Background(), models.CollectionTours, Filter{Fields: []string{"name"}, Page: 1, Limit: 1})

	require.NoError(t, err)
	assert.Equal(t, []models.Document{{"id": int64(1), "name": "The Forest Hiker"}}, docs)
}

func TestMemoryStore_FindOne(t *testing.T) {
	s := newRunningStore(t)
	ctx := context.Background()
	mustCreate(t, s, models.CollectionUsers, models.Document{"name": "Jonas", "email": "jonas@example.com"})

	got, err := s.FindOne(ctx, models.CollectionUsers, "email", "jonas@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Jonas", got.String("name"))

	_, err = s.FindOne(ctx, models.CollectionUsers, "email", "nobody@example.com")
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestMemoryStore_ConcurrentCreates(t *testing.T) {
	s := newRunningStore(t)
	ctx := context.Background()

	const n = 50
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			_, err := s.Create(ctx, models.CollectionReviews, models.Document{"review": "nice"})
			errs <- err
		}()
	}
	for i := 0; i < n; i++ {
		require.NoError(t, <-errs)
	}

	docs, err := s.List(ctx, models.CollectionReviews, Filter{Page: 1, Limit: DefaultLimit})
	require.NoError(t, err)
	seen := make(map[any]bool, n)
	for _, d := range docs {
		seen[d[models.IDField]] = true
	}
	assert.Len(t, seen, n, "every create got its own id")
}

func TestMemoryStore_Snapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "store.json")
	ctx := context.Background()

	s := newRunningStore(t, WithSnapshot(path))
	mustCreate(t, s, models.CollectionTours, models.Document{"name": "A", "price": 10.0})
	mustCreate(t, s, models.CollectionTours, models.Document{"name": "B"})
	require.NoError(t, s.Delete(ctx, models.CollectionTours, "2"))

	_, err := os.Stat(path)
	require.NoError(t, err)
	_, err = os.Stat(path + ".tmp")
	assert.True(t, errors.Is(err, os.ErrNotExist), "temporary file is renamed away")

	restored := newRunningStore(t, WithSnapshot(path))
	got, err := restored.Get(ctx, models.CollectionTours, "1")
	require.NoError(t, err)
	assert.Equal(t, models.Document{"id": int64(1), "name": "A", "price": 10.0}, got)

	next := mustCreate(t, restored, models.CollectionTours, models.Document{"name": "C"})
	assert.Equal(t, int64(3), next[models.IDField])

	_, err = restored.Create(ctx, models.CollectionTours, models.Document{"name": "A"})
	var dupErr *DuplicateKeyError
	assert.ErrorAs(t, err, &dupErr, "unique index is rebuilt on load")
}

func TestMemoryStore_Snapshot_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewMemoryStore(logger.Nop(), WithSnapshot(path))

	assert.Error(t, err)
}

func TestMemoryStore_ClosedAfterRun(t *testing.T) {
	s, err := NewMemoryStore(logger.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(stopped)
	}()
	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}

	_, err = s.Create(context.Background(), models.CollectionTours, models.Document{"name": "late"})
	assert.ErrorIs(t, err, ErrStoreClosed)
}

func TestMemoryStore_WriteHonoursContext(t *testing.T) {
	s, err := NewMemoryStore(logger.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// no writer is running, so only the cancelled context can end the call
	_, err = s.Create(ctx, models.CollectionTours, models.Document{"name": "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStore_Seed(t *testing.T) {
	s, err := NewMemoryStore(logger.Nop())
	require.NoError(t, err)

	require.NoError(t, s.Seed(models.CollectionTours, []models.Document{
		{"id": 5.0, "name": "A"},
		{"name": "B"},
	}))

	got, err := s.Get(context.Background(), models.CollectionTours, "5")
	require.NoError(t, err)
	assert.Equal(t, "A", got.String("name"))
	got, err = s.Get(context.Background(), models.CollectionTours, "6")
	require.NoError(t, err)
	assert.Equal(t, "B", got.String("name"))

	var dupErr *DuplicateKeyError
	assert.ErrorAs(t, s.Seed(models.CollectionTours, []models.Document{{"id": 5.0, "name": "Z"}}), &dupErr)
	assert.ErrorAs(t, s.Seed(models.CollectionTours, []models.Document{{"name": "A"}}), &dupErr)
}
