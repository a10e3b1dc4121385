package ledger

import "sync"

// Subscriptions tracks which identities want state-change notifications
// per resource. Membership is a plain set: subscribe and unsubscribe are
// idempotent, there is no payload beyond existence.
type Subscriptions struct {
	mu   sync.RWMutex
	sets map[string]map[string]struct{}
}

func NewSubscriptions() *Subscriptions {
	return &Subscriptions{sets: make(map[string]map[string]struct{})}
}

func (s *Subscriptions) Subscribe(resourceID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[resourceID]
	if !ok {
		set = make(map[string]struct{})
		s.sets[resourceID] = set
	}
	set[userID] = struct{}{}
}

func (s *Subscriptions) Unsubscribe(resourceID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if set, ok := s.sets[resourceID]; ok {
		delete(set, userID)
		if len(set) == 0 {
			delete(s.sets, resourceID)
		}
	}
}

func (s *Subscriptions) IsSubscribed(resourceID, userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sets[resourceID][userID]
	return ok
}

// Subscribers returns a snapshot of the subscriber set for a resource.
// The engine calls this under the resource lock and dispatches after
// releasing it, so the returned slice must be independent of live state.
func (s *Subscriptions) Subscribers(resourceID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := s.sets[resourceID]
	out := make([]string, 0, len(set))
	for uid := range set {
		out = append(out, uid)
	}
	return out
}

// Clear drops every subscription for a resource, used when the resource
// itself is deleted.
func (s *Subscriptions) Clear(resourceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sets, resourceID)
}
