package store

import (
	"context"
	"slices"
	"sync"

	"github.com/tclzcja/apiserver/internal/notes/entity"
	"github.com/tclzcja/apiserver/internal/notes/usecase"
	"github.com/tclzcja/apiserver/internal/pkg/pkgerror"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	notes   map[string]entity.Note
	order   []string
	imports map[string]*importRecord
	tags    map[string]int
}

type importRecord struct {
	mu   sync.RWMutex
	meta entity.ImportMeta
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		notes:   make(map[string]entity.Note),
		imports: make(map[string]*importRecord),
		tags:    make(map[string]int),
	}
}

func (s *InMemoryStore) CreateNote(ctx context.Context, note entity.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.notes[note.ID]; exists {
		return pkgerror.NewBusiness("note already exists", pkgerror.CodeConflict)
	}

	note.Tags = slices.Clone(note.Tags)
	s.notes[note.ID] = note
	s.order = append(s.order, note.ID)

	return nil
}

func (s *InMemoryStore) GetNote(ctx context.Context, id string) (entity.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	note, ok := s.notes[id]
	if !ok {
		return entity.Note{}, pkgerror.ErrNotFound
	}

	note.Tags = slices.Clone(note.Tags)
	return note, nil
}

func (s *InMemoryStore) ListNotes(ctx context.Context, filter usecase.NoteFilter, page, pageSize int) ([]entity.Note, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	start := (page - 1) * pageSize
	end := start + pageSize
	items := make([]entity.Note, 0, pageSize)

	for _, id := range s.order {
		note := s.notes[id]
		if !filter.Matches(note) {
			continue
		}

		if total >= start && total < end {
			note.Tags = slices.Clone(note.Tags)
			items = append(items, note)
		}
		total++
	}

	return items, total, nil
}

func (s *InMemoryStore) DeleteNote(ctx context.Context, id string) (entity.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	note, ok := s.notes[id]
	if !ok {
		return entity.Note{}, pkgerror.ErrNotFound
	}

	delete(s.notes, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })

	return note, nil
}

func (s *InMemoryStore) CountNotes(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.notes), nil
}

func (s *InMemoryStore) AdjustTags(ctx context.Context, tags []string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tag := range tags {
		n := s.tags[tag] + delta
		if n <= 0 {
			delete(s.tags, tag)
			continue
		}
		s.tags[tag] = n
	}

	return nil
}

func (s *InMemoryStore) TagCounts(ctx context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]int, len(s.tags))
	for tag, n := range s.tags {
		out[tag] = n
	}

	return out, nil
}

func (s *InMemoryStore) CreateImport(ctx context.Context, meta entity.ImportMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.imports[meta.ID]; exists {
		return pkgerror.NewBusiness("import already exists", pkgerror.CodeConflict)
	}

	s.imports[meta.ID] = &importRecord{meta: meta}

	return nil
}

func (s *InMemoryStore) UpdateImport(ctx context.Context, importID string, fn func(meta *entity.ImportMeta)) error {
	rec, err := s.getImport(importID)
	if err != nil {
		return err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	fn(&rec.meta)

	return nil
}

func (s *InMemoryStore) GetImport(ctx context.Context, importID string) (entity.ImportMeta, error) {
	rec, err := s.getImport(importID)
	if err != nil {
		return entity.ImportMeta{}, err
	}

	rec.mu.RLock()
	defer rec.mu.RUnlock()

	return rec.meta, nil
}

func (s *InMemoryStore) getImport(importID string) (*importRecord, error) {
	s.mu.RLock()
	rec, ok := s.imports[importID]
	s.mu.RUnlock()
	if !ok {
		return nil, pkgerror.ErrNotFound
	}

	return rec, nil
}
