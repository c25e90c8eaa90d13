package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/MKhiriev/go-natours/internal/logger"
	"github.com/MKhiriev/go-natours/models"
)

// arena holds one collection. Documents live in slots in insertion order;
// deleted slots become tombstones (nil) and are never reused, so iteration
// order is stable. Identifiers come from an accession counter that only
// grows.
type arena struct {
	name   string
	slots  []models.Document
	index  map[int64]int
	unique map[string]map[string]int64
	nextID int64
}

func newArena(name string) *arena {
	a := &arena{
		name:   name,
		index:  make(map[int64]int),
		unique: make(map[string]map[string]int64),
		nextID: 1,
	}
	for _, field := range UniqueKeys[name] {
		a.unique[field] = make(map[string]int64)
	}
	return a
}

func (a *arena) get(id int64) (models.Document, bool) {
	slot, ok := a.index[id]
	if !ok {
		return nil, false
	}
	return a.slots[slot], true
}

func (a *arena) live() []models.Document {
	docs := make([]models.Document, 0, len(a.index))
	for _, d := range a.slots {
		if d != nil {
			docs = append(docs, d)
		}
	}
	return docs
}

// checkUnique returns a *DuplicateKeyError when doc collides with a document
// other than self on any unique field.
func (a *arena) checkUnique(doc models.Document, self int64) error {
	for field, values := range a.unique {
		v, ok := doc[field]
		if !ok || v == nil {
			continue
		}
		if owner, taken := values[textOf(v)]; taken && owner != self {
			return &DuplicateKeyError{Collection: a.name, KeyValue: map[string]any{field: v}}
		}
	}
	return nil
}

func (a *arena) indexUnique(doc models.Document, id int64) {
	for field, values := range a.unique {
		if v, ok := doc[field]; ok && v != nil {
			values[textOf(v)] = id
		}
	}
}

func (a *arena) unindexUnique(doc models.Document) {
	for field, values := range a.unique {
		if v, ok := doc[field]; ok && v != nil {
			delete(values, textOf(v))
		}
	}
}

// insert stores doc under id. doc must already carry id.
func (a *arena) insert(doc models.Document, id int64) {
	a.index[id] = len(a.slots)
	a.slots = append(a.slots, doc)
	a.indexUnique(doc, id)
	if id >= a.nextID {
		a.nextID = id + 1
	}
}

type writeOp struct {
	apply  func() (models.Document, error)
	result chan writeResult
}

type writeResult struct {
	doc models.Document
	err error
}

// MemoryStore is an in-process DocumentStore.
//
// All writes are funnelled through a single writer goroutine started by Run;
// reads take a read lock and may run concurrently with each other. When a
// snapshot path is configured the full state is written to it, atomically,
// after every successful write and loaded back on construction.
type MemoryStore struct {
	mu     sync.RWMutex
	arenas map[string]*arena

	ops  chan writeOp
	done chan struct{}
	once sync.Once

	snapshotPath string
	logger       *logger.Logger
}

// MemoryOption customises a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithSnapshot persists the store to path.
func WithSnapshot(path string) MemoryOption {
	return func(s *MemoryStore) { s.snapshotPath = path }
}

// NewMemoryStore returns an empty store, or one restored from its snapshot
// file when that exists.
func NewMemoryStore(log *logger.Logger, opts ...MemoryOption) (*MemoryStore, error) {
	s := &MemoryStore{
		arenas: make(map[string]*arena, len(models.Collections)),
		ops:    make(chan writeOp),
		done:   make(chan struct{}),
		logger: log,
	}
	for _, name := range models.Collections {
		s.arenas[name] = newArena(name)
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.snapshotPath != "" {
		if err := s.load(); err != nil {
			return nil, err
		}
	}
	log.Debug().Str("snapshot", s.snapshotPath).Msg("created memory document store")
	return s, nil
}

// Run is the single writer. It applies queued writes one at a time until
// ctx is cancelled; writes submitted afterwards fail with ErrStoreClosed.
func (s *MemoryStore) Run(ctx context.Context) {
	defer s.once.Do(func() { close(s.done) })

	for {
		select {
		case <-ctx.Done():
			return
		case op := <-s.ops:
			s.mu.Lock()
			doc, err := op.apply()
			s.mu.Unlock()

			if err == nil && s.snapshotPath != "" {
				if snapErr := s.snapshot(); snapErr != nil {
					s.logger.Err(snapErr).Str("path", s.snapshotPath).Msg("error writing memory store snapshot")
				}
			}
			op.result <- writeResult{doc: doc, err: err}
		}
	}
}

func (s *MemoryStore) submit(ctx context.Context, apply func() (models.Document, error)) (models.Document, error) {
	op := writeOp{apply: apply, result: make(chan writeResult, 1)}

	select {
	case s.ops <- op:
	case <-s.done:
		return nil, ErrStoreClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	res := <-op.result
	return res.doc, res.err
}

func (s *MemoryStore) arena(collection string) (*arena, error) {
	a, ok := s.arenas[collection]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
	return a, nil
}

// List implements DocumentStore.
func (s *MemoryStore) List(_ context.Context, collection string, filter Filter) ([]models.Document, error) {
	a, err := s.arena(collection)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	var docs []models.Document
	for _, d := range a.live() {
		if matchesAll(d, filter.Conditions) {
			docs = append(docs, d)
		}
	}
	s.mu.RUnlock()

	sortDocuments(docs, filter.Sort)

	offset := filter.Offset()
	if offset < 0 || offset >= len(docs) {
		return []models.Document{}, nil
	}
	docs = docs[offset:]
	if filter.Limit > 0 && len(docs) > filter.Limit {
		docs = docs[:filter.Limit]
	}

	out := make([]models.Document, len(docs))
	for i, d := range docs {
		out[i] = d.Project(filter.Fields)
	}
	return out, nil
}

func matchesAll(doc models.Document, conds []Condition) bool {
	for _, c := range conds {
		if !matches(doc, c) {
			return false
		}
	}
	return true
}

func sortDocuments(docs []models.Document, keys []SortKey) {
	if len(keys) == 0 {
		return
	}
	slices.SortStableFunc(docs, func(a, b models.Document) int {
		for _, k := range keys {
			c := compareValues(a[k.Field], b[k.Field])
			if k.Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
}

// Get implements DocumentStore.
func (s *MemoryStore) Get(_ context.Context, collection, id string) (models.Document, error) {
	a, err := s.arena(collection)
	if err != nil {
		return nil, err
	}
	n, err := parseID(id)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := a.get(n)
	if !ok {
		return nil, ErrDocumentNotFound
	}
	return d.Clone(), nil
}

// FindOne implements DocumentStore.
func (s *MemoryStore) FindOne(_ context.Context, collection, field, value string) (models.Document, error) {
	a, err := s.arena(collection)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range a.live() {
		if v, ok := d[field]; ok && textOf(v) == value {
			return d.Clone(), nil
		}
	}
	return nil, ErrDocumentNotFound
}

// Create implements DocumentStore.
func (s *MemoryStore) Create(ctx context.Context, collection string, doc models.Document) (models.Document, error) {
	a, err := s.arena(collection)
	if err != nil {
		return nil, err
	}
	stored := doc.Without(models.IDField)

	return s.submit(ctx, func() (models.Document, error) {
		if err := a.checkUnique(stored, 0); err != nil {
			return nil, err
		}
		id := a.nextID
		stored[models.IDField] = id
		a.insert(stored, id)
		return stored.Clone(), nil
	})
}

// Update implements DocumentStore.
func (s *MemoryStore) Update(ctx context.Context, collection, id string, patch models.Document) (models.Document, error) {
	a, err := s.arena(collection)
	if err != nil {
		return nil, err
	}
	n, err := parseID(id)
	if err != nil {
		return nil, err
	}
	patch = patch.Without(models.IDField)

	return s.submit(ctx, func() (models.Document, error) {
		current, ok := a.get(n)
		if !ok {
			return nil, ErrDocumentNotFound
		}

		merged := current.Clone()
		for k, v := range patch {
			if v == nil {
				delete(merged, k)
				continue
			}
			merged[k] = v
		}
		if err := a.checkUnique(merged, n); err != nil {
			return nil, err
		}

		a.unindexUnique(current)
		a.slots[a.index[n]] = merged
		a.indexUnique(merged, n)
		return merged.Clone(), nil
	})
}

// Delete implements DocumentStore.
func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	a, err := s.arena(collection)
	if err != nil {
		return err
	}
	n, err := parseID(id)
	if err != nil {
		return err
	}

	_, err = s.submit(ctx, func() (models.Document, error) {
		slot, ok := a.index[n]
		if !ok {
			return nil, ErrDocumentNotFound
		}
		a.unindexUnique(a.slots[slot])
		a.slots[slot] = nil
		delete(a.index, n)
		return nil, nil
	})
	return err
}

// snapshotState is the on-disk form: documents per collection plus the
// accession counters, so ids of deleted documents are never handed out again.
type snapshotState struct {
	Collections map[string][]models.Document `json:"collections"`
	NextIDs     map[string]int64             `json:"nextIds"`
}

func (s *MemoryStore) snapshot() error {
	s.mu.RLock()
	state := snapshotState{
		Collections: make(map[string][]models.Document, len(s.arenas)),
		NextIDs:     make(map[string]int64, len(s.arenas)),
	}
	for name, a := range s.arenas {
		state.Collections[name] = a.live()
		state.NextIDs[name] = a.nextID
	}
	data, err := json.MarshalIndent(state, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err = os.MkdirAll(filepath.Dir(s.snapshotPath), 0o755); err != nil {
		return err
	}
	tmpPath := s.snapshotPath + ".tmp"
	if err = os.WriteFile(tmpPath, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpPath, s.snapshotPath)
}

func (s *MemoryStore) load() error {
	data, err := os.ReadFile(s.snapshotPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read snapshot: %w", err)
	}

	var state snapshotState
	if err = json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("decode snapshot %s: %w", s.snapshotPath, err)
	}

	for name, docs := range state.Collections {
		a, err := s.arena(name)
		if err != nil {
			return err
		}
		for _, d := range docs {
			id, ok := d.ID()
			if !ok {
				return fmt.Errorf("snapshot %s: document without id in %s", s.snapshotPath, name)
			}
			d[models.IDField] = id
			a.insert(d, id)
		}
		if next := state.NextIDs[name]; next > a.nextID {
			a.nextID = next
		}
	}
	return nil
}

// Seed inserts docs into collection, keeping their ids when present. It is
// meant for start-up before Run and bypasses the writer queue.
func (s *MemoryStore) Seed(collection string, docs []models.Document) error {
	a, err := s.arena(collection)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range docs {
		stored := d.Clone()
		id, ok := stored.ID()
		if !ok {
			id = a.nextID
		}
		if _, exists := a.index[id]; exists {
			return &DuplicateKeyError{Collection: collection, KeyValue: map[string]any{models.IDField: id}}
		}
		if err := a.checkUnique(stored, id); err != nil {
			return err
		}
		stored[models.IDField] = id
		a.insert(stored, id)
	}
	return nil
}

// Count returns the number of live documents in collection.
func (s *MemoryStore) Count(collection string) int {
	a, err := s.arena(collection)
	if err != nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(a.index)
}
