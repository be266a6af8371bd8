package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
)

type MemStore struct {
	mu     sync.RWMutex
	m      map[int]Product
	nextID int
}

func NewMemStore() *MemStore {
	return &MemStore{m: map[int]Product{}}
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

// seed bulk-loads records keyed by their existing ids and positions the id
// counter at the highest seen id, so the first Add gets max+1 (or 1 when empty).
func (s *MemStore) seed(products []Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range products {
		s.m[p.ID] = p
		if p.ID > s.nextID {
			s.nextID = p.ID
		}
	}
}

func (s *MemStore) GetAll(ctx context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, 0, len(s.m))
	for _, p := range s.m {
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) GetByID(ctx context.Context, id int) (Product, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.m[id]
	return p, ok, nil
}

func (s *MemStore) Add(ctx context.Context, p *Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	p.ID = s.nextID
	s.m[p.ID] = *p
	return nil
}

func (s *MemStore) Update(ctx context.Context, id int, p Product) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.m[id]; !ok {
		return false, nil
	}

	p.ID = id
	s.m[id] = p
	return true, nil
}

func (s *MemStore) Delete(ctx context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.m[id]; !ok {
		return false, nil
	}

	delete(s.m, id)
	return true, nil
}

func (s *MemStore) ExistsDuplicate(ctx context.Context, title, brand string, excludeID int) (bool, error) {
	t := foldKey(title)
	b := foldKey(brand)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.m {
		if excludeID != 0 && p.ID == excludeID {
			continue
		}
		if foldKey(p.Title) == t && foldKey(strOrEmpty(p.Brand)) == b {
			return true, nil
		}
	}
	return false, nil
}

func foldKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
