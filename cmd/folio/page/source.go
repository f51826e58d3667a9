package page

import (
	"sync"
)

// scrollSource adapts the bubbles viewport to viewport.ScrollSource. The model calls
// emit whenever the viewport's offset changes.
type scrollSource struct {
	mu     sync.Mutex
	fn     func(float64)
	height float64
	last   float64
}

func (s *scrollSource) SubscribeScroll(fn func(float64)) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fn = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.fn = nil
	}, nil
}

func (s *scrollSource) ViewportHeight() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.height
}

func (s *scrollSource) setHeight(h int) {
	s.mu.Lock()
	s.height = float64(h)
	s.mu.Unlock()
}

// emit reports offset if it differs from the last reported one.
func (s *scrollSource) emit(offset int) {
	s.mu.Lock()
	fn := s.fn
	changed := float64(offset) != s.last
	s.last = float64(offset)
	s.mu.Unlock()
	if fn != nil && changed {
		fn(float64(offset))
	}
}

// refresh reports the last offset again so the sampler re-reads the viewport height.
func (s *scrollSource) refresh() {
	s.mu.Lock()
	fn, last := s.fn, s.last
	s.mu.Unlock()
	if fn != nil {
		fn(last)
	}
}
