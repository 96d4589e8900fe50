package datatable

import "sync"

// Selection is the set of row keys ticked in a multi-select list, kept in
// the order they were selected.
type Selection struct {
	mu    sync.Mutex
	keys  map[string]struct{}
	order []string
}

func NewSelection(keys ...string) *Selection {
	s := &Selection{keys: make(map[string]struct{})}
	for _, k := range keys {
		s.add(k)
	}
	return s
}

func (s *Selection) add(key string) {
	if _, ok := s.keys[key]; ok || key == "" {
		return
	}
	s.keys[key] = struct{}{}
	s.order = append(s.order, key)
}

func (s *Selection) remove(key string) {
	if _, ok := s.keys[key]; !ok {
		return
	}
	delete(s.keys, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Toggle flips key and reports whether it is now selected
func (s *Selection) Toggle(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.keys[key]; ok {
		s.remove(key)
		return false
	}
	s.add(key)
	return true
}

// ToggleAll selects every key of the visible page, or clears them when all
// are already selected.
func (s *Selection) ToggleAll(keys []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := len(keys) > 0
	for _, k := range keys {
		if _, ok := s.keys[k]; !ok {
			all = false
			break
		}
	}
	for _, k := range keys {
		if all {
			s.remove(k)
		} else {
			s.add(k)
		}
	}
}

func (s *Selection) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.keys[key]
	return ok
}

func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = make(map[string]struct{})
	s.order = nil
}

func (s *Selection) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Keys returns the selected keys in selection order
func (s *Selection) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
