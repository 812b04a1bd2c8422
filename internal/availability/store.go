package availability

import "sync/atomic"

// PolicyStore holds the live policy. Readers always see a complete value.
type PolicyStore struct {
	v atomic.Pointer[Policy]
}

func NewPolicyStore(p Policy) *PolicyStore {
	s := &PolicyStore{}
	s.Store(p)
	return s
}

func (s *PolicyStore) Policy() Policy {
	return *s.v.Load()
}

func (s *PolicyStore) Store(p Policy) {
	s.v.Store(&p)
}
