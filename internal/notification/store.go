package notification

import (
	"sort"
	"sync"
)

// ChangeKind says which operation changed a store.
type ChangeKind string

const (
	ChangeRecomputed  ChangeKind = "recomputed"
	ChangeMarkedRead  ChangeKind = "marked_read"
	ChangeAllMarkRead ChangeKind = "all_marked_read"
)

// Change is delivered to subscribers after a store mutation.
type Change struct {
	Kind        ChangeKind
	UnreadCount int
}

// Store holds the current notification set and owns every notification's
// read flag. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	items    []Notification // kept sorted by less
	index    map[string]int
	nextSub  int
	subs     map[int]func(Change)
	subOrder []int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		index: make(map[string]int),
		subs:  make(map[int]func(Change)),
	}
}

// Recompute replaces the notification set with candidates. A candidate whose
// id was already present keeps its previous read flag and the earlier of the
// two creation times, so its position in List is stable; every other candidate
// starts unread. Ids missing from candidates are dropped together with their
// read state. When an id repeats within candidates only the first is kept.
func (s *Store) Recompute(candidates []Notification) {
	s.mu.Lock()
	next := make([]Notification, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		c.Read = false
		if i, ok := s.index[c.ID]; ok {
			prev := s.items[i]
			c.Read = prev.Read
			if prev.CreatedAt.Before(c.CreatedAt) {
				c.CreatedAt = prev.CreatedAt
			}
		}
		next = append(next, c)
	}
	sort.SliceStable(next, func(i, j int) bool { return less(next[i], next[j]) })
	s.items = next
	s.reindex()
	unread := s.unreadLocked()
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeRecomputed, UnreadCount: unread})
}

// MarkRead marks the notification with id as read. It reports whether the
// flag changed; an unknown or already read id is a no-op.
func (s *Store) MarkRead(id string) bool {
	s.mu.Lock()
	i, ok := s.index[id]
	if !ok || s.items[i].Read {
		s.mu.Unlock()
		return false
	}
	s.items[i].Read = true
	unread := s.unreadLocked()
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeMarkedRead, UnreadCount: unread})
	return true
}

// MarkAllRead marks every current notification as read and returns how many
// were unread before the call.
func (s *Store) MarkAllRead() int {
	s.mu.Lock()
	changed := 0
	for i := range s.items {
		if !s.items[i].Read {
			s.items[i].Read = true
			changed++
		}
	}
	s.mu.Unlock()

	if changed > 0 {
		s.notify(Change{Kind: ChangeAllMarkRead, UnreadCount: 0})
	}
	return changed
}

// List returns a copy of the current set ordered by CreatedAt descending,
// then priority (urgent first), then id.
func (s *Store) List() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Notification, len(s.items))
	copy(out, s.items)
	return out
}

// Get returns the notification with id, if present.
func (s *Store) Get(id string) (Notification, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return Notification{}, false
	}
	return s.items[i], true
}

// Len returns the number of notifications in the current set.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// UnreadCount counts the unread notifications in the current set.
func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unreadLocked()
}

// Subscribe registers fn to run after every change. Listeners run on the
// goroutine that made the change, outside the store lock, in registration
// order. The returned func removes the listener.
func (s *Store) Subscribe(fn func(Change)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subOrder = append(s.subOrder, id)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			for i, sid := range s.subOrder {
				if sid == id {
					s.subOrder = append(s.subOrder[:i], s.subOrder[i+1:]...)
					break
				}
			}
		})
	}
}

func (s *Store) notify(c Change) {
	s.mu.RLock()
	listeners := make([]func(Change), 0, len(s.subOrder))
	for _, id := range s.subOrder {
		listeners = append(listeners, s.subs[id])
	}
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(c)
	}
}

func (s *Store) reindex() {
	s.index = make(map[string]int, len(s.items))
	for i, n := range s.items {
		s.index[n.ID] = i
	}
}

func (s *Store) unreadLocked() int {
	unread := 0
	for _, n := range s.items {
		if !n.Read {
			unread++
		}
	}
	return unread
}
