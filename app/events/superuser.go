package events

import (
	"strings"
	"sync"
)

// SuperUsers is a list of moderators, thread-safe. Chat admins added by the listener on start.
type SuperUsers struct {
	names []string
	lock  sync.RWMutex
}

// NewSuperUsers makes SuperUsers with the given names
func NewSuperUsers(names ...string) *SuperUsers {
	res := &SuperUsers{}
	res.Add(names...)
	return res
}

// IsSuper checks if username in the list of super users
func (s *SuperUsers) IsSuper(userName string) bool {
	if strings.TrimSpace(userName) == "" {
		return false
	}
	s.lock.RLock()
	defer s.lock.RUnlock()
	for _, super := range s.names {
		if strings.EqualFold(userName, super) || strings.EqualFold("/"+userName, super) {
			return true
		}
	}
	return false
}

// Add appends names not in the list yet, empty names ignored
func (s *SuperUsers) Add(names ...string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		found := false
		for _, super := range s.names {
			if strings.EqualFold(name, super) {
				found = true
				break
			}
		}
		if !found {
			s.names = append(s.names, name)
		}
	}
}

// List returns a copy of the names
func (s *SuperUsers) List() []string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	res := make([]string, len(s.names))
	copy(res, s.names)
	return res
}
