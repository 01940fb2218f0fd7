package routing

import (
	"sync"

	"github.com/upb/llm-gateway/services/providers"
)

// Scheduler orders eligible steps for one request: an honored preference
// goes first, otherwise the list is rotated by a per-model counter.
type Scheduler struct {
	mu              sync.Mutex
	roundRobinIndex map[string]uint64
}

// NewScheduler creates a scheduler with all counters at zero
func NewScheduler() *Scheduler {
	return &Scheduler{
		roundRobinIndex: make(map[string]uint64),
	}
}

// Order returns the attempt order for model. The preferred provider is
// honored only when it is among eligible; in that case the rotation counter
// is left untouched.
func (s *Scheduler) Order(model string, eligible []providers.RouteStep, preferred string) []providers.RouteStep {
	n := len(eligible)
	if n == 0 {
		return []providers.RouteStep{}
	}

	if preferred != "" {
		for i, step := range eligible {
			if step.ProviderID != preferred {
				continue
			}
			ordered := make([]providers.RouteStep, 0, n)
			ordered = append(ordered, step)
			ordered = append(ordered, eligible[:i]...)
			ordered = append(ordered, eligible[i+1:]...)
			return ordered
		}
	}

	s.mu.Lock()
	counter := s.roundRobinIndex[model]
	s.roundRobinIndex[model] = counter + 1
	s.mu.Unlock()

	offset := int(counter % uint64(n))
	ordered := make([]providers.RouteStep, 0, n)
	ordered = append(ordered, eligible[offset:]...)
	ordered = append(ordered, eligible[:offset]...)
	return ordered
}

// Counter returns the rotation counter for model
func (s *Scheduler) Counter(model string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.roundRobinIndex[model]
}

// Counters returns a copy of every rotation counter
func (s *Scheduler) Counters() map[string]uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	counters := make(map[string]uint64, len(s.roundRobinIndex))
	for model, c := range s.roundRobinIndex {
		counters[model] = c
	}
	return counters
}
