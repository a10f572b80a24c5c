// Copyright (c) 2026 Veriface. All rights reserved.
// Author: dev@veriface.app

package users

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/veriface/veriface/internal/platform/apperr"
	"github.com/veriface/veriface/pkg/vector"
)

// # In-Memory Store

// MemoryStore is the Repository implementation backing one session.
//
// All state lives behind a single RWMutex. Reads hand out copies so callers
// can never observe a record while a writer mutates it.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[int64]*Record
	order  []int64 // Insertion order of live IDs.
	nextID int64

	now func() time.Time // Injectable for tests.
}

// NewMemoryStore returns an empty store. IDs start at 1.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[int64]*Record),
		nextID: 1,
		now:    time.Now,
	}
}

// clone returns a defensive copy of r including its embedding.
func clone(r *Record) *Record {
	cp := *r
	cp.Embedding = vector.Clone(r.Embedding)
	return &cp
}

// lockedFindUsername returns the record holding username, skipping exceptID.
// Caller must hold mu.
func (s *MemoryStore) lockedFindUsername(username string, exceptID int64) *Record {
	for _, r := range s.byID {
		if r.ID != exceptID && r.Username == username {
			return r
		}
	}
	return nil
}

// lockedFindEmail returns the record holding email, skipping exceptID.
// Caller must hold mu.
func (s *MemoryStore) lockedFindEmail(email string, exceptID int64) *Record {
	for _, r := range s.byID {
		if r.ID != exceptID && r.Email == email {
			return r
		}
	}
	return nil
}

func (s *MemoryStore) Create(_ context.Context, params CreateParams) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Uniqueness check and insert under one lock so concurrent creates
	// cannot both pass the check.
	if s.lockedFindUsername(params.Username, 0) != nil {
		return nil, apperr.Conflict("Username already exists")
	}
	if s.lockedFindEmail(params.Email, 0) != nil {
		return nil, apperr.Conflict("Email already exists")
	}

	now := s.now().UTC()
	rec := &Record{
		ID:           s.nextID,
		Username:     params.Username,
		Email:        params.Email,
		FullName:     params.FullName,
		PasswordHash: params.PasswordHash,
		IsActive:     params.IsActive,
		IsAdmin:      params.IsAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.nextID++
	s.byID[rec.ID] = rec
	s.order = append(s.order, rec.ID)

	return clone(rec), nil
}

func (s *MemoryStore) ByID(_ context.Context, id int64) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	return clone(rec), nil
}

func (s *MemoryStore) ByUsername(_ context.Context, username string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if rec := s.lockedFindUsername(username, 0); rec != nil {
		return clone(rec), nil
	}
	return nil, apperr.NotFound("User")
}

func (s *MemoryStore) ByEmail(_ context.Context, email string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if rec := s.lockedFindEmail(email, 0); rec != nil {
		return clone(rec), nil
	}
	return nil, apperr.NotFound("User")
}

func (s *MemoryStore) Update(_ context.Context, id int64, fields UpdateFields) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}

	if fields.Username != nil && *fields.Username != rec.Username {
		if s.lockedFindUsername(*fields.Username, id) != nil {
			return nil, apperr.Conflict("Username already exists")
		}
		rec.Username = *fields.Username
	}
	if fields.Email != nil && *fields.Email != rec.Email {
		if s.lockedFindEmail(*fields.Email, id) != nil {
			return nil, apperr.Conflict("Email already exists")
		}
		rec.Email = *fields.Email
	}
	if fields.FullName != nil {
		rec.FullName = *fields.FullName
	}
	if fields.Password != nil {
		rec.PasswordHash = *fields.Password
	}
	if fields.IsActive != nil {
		rec.IsActive = *fields.IsActive
	}
	if fields.IsAdmin != nil {
		rec.IsAdmin = *fields.IsAdmin
	}
	if fields.HeadPic != nil {
		rec.HeadPic = *fields.HeadPic
	}
	rec.UpdatedAt = s.now().UTC()

	return clone(rec), nil
}

func (s *MemoryStore) Delete(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return false, nil
	}
	delete(s.byID, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (s *MemoryStore) List(_ context.Context) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Record, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, clone(s.byID[id]))
	}
	return out, nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID), nil
}

func (s *MemoryStore) UpsertEmbedding(_ context.Context, id int64, embedding []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok {
		return apperr.NotFound("User")
	}
	rec.Embedding = vector.Clone(embedding)
	rec.UpdatedAt = s.now().UTC()
	return nil
}

func (s *MemoryStore) ClearEmbedding(_ context.Context, ids ...int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.order
	if len(ids) > 0 {
		target = ids
	}

	cleared := 0
	for _, id := range target {
		rec, ok := s.byID[id]
		if !ok || rec.Embedding == nil {
			continue
		}
		rec.Embedding = nil
		rec.HeadPic = ""
		rec.UpdatedAt = s.now().UTC()
		cleared++
	}
	return cleared, nil
}

func (s *MemoryStore) Search(_ context.Context, query []float32, limit int, threshold float64) ([]Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]Match, 0)
	for _, id := range s.order {
		rec := s.byID[id]
		if rec.Embedding == nil {
			continue
		}
		sim := vector.Cosine(query, rec.Embedding)
		if sim >= threshold {
			matches = append(matches, Match{ID: id, Similarity: sim})
		}
	}

	// Similarity descending, ID ascending on equal similarity: results are
	// deterministic for any store contents.
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].ID < matches[j].ID
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}
