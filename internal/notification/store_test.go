package notification

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func note(id string, p Priority, createdAt time.Time) Notification {
	return Notification{ID: id, Type: TypeTask, Priority: p, Title: id, CreatedAt: createdAt}
}

func assertUnreadConsistent(t *testing.T, s *Store) {
	t.Helper()
	unread := 0
	for _, n := range s.List() {
		if !n.Read {
			unread++
		}
	}
	assert.Equal(t, unread, s.UnreadCount())
}

func TestStore_ReadStateSurvivesRecompute(t *testing.T) {
	s := NewStore()
	ts := evalNow

	s.Recompute([]Notification{note("x", PriorityHigh, ts), note("y", PriorityLow, ts)})
	s.Recompute([]Notification{note("x", PriorityHigh, ts), note("z", PriorityLow, ts)})
	require.True(t, s.MarkRead("x"))

	// A fresh candidate always arrives unread; the store restores the flag.
	s.Recompute([]Notification{note("x", PriorityUrgent, ts), note("z", PriorityLow, ts)})

	x, ok := s.Get("x")
	require.True(t, ok)
	assert.True(t, x.Read)
	assert.Equal(t, PriorityUrgent, x.Priority)
	assert.Equal(t, 1, s.UnreadCount())
	assertUnreadConsistent(t, s)
}

func TestStore_RecomputeKeepsFirstCreatedAt(t *testing.T) {
	s := NewStore()
	older := evalNow.Add(-time.Hour)

	s.Recompute([]Notification{note("due-soon", PriorityMedium, evalNow), note("older", PriorityMedium, older)})

	// A later recompute re-stamps due-soon with the new clock; it must not jump ahead.
	later := evalNow.Add(2 * time.Hour)
	s.Recompute([]Notification{
		note("due-soon", PriorityMedium, later),
		note("older", PriorityMedium, older),
		note("fresh", PriorityMedium, evalNow.Add(time.Hour)),
	})

	n, ok := s.Get("due-soon")
	require.True(t, ok)
	assert.Equal(t, evalNow, n.CreatedAt)
	list := s.List()
	require.Len(t, list, 3)
	assert.Equal(t, "fresh", list[0].ID)
	assert.Equal(t, "due-soon", list[1].ID)
	assert.Equal(t, "older", list[2].ID)

	// An earlier timestamp from the rules wins.
	s.Recompute([]Notification{note("due-soon", PriorityMedium, older.Add(-time.Hour))})
	n, _ = s.Get("due-soon")
	assert.Equal(t, older.Add(-time.Hour), n.CreatedAt)
}

func TestStore_DropsDisappearedNotifications(t *testing.T) {
	s := NewStore()
	s.Recompute([]Notification{note("x", PriorityHigh, evalNow), note("y", PriorityLow, evalNow)})
	s.MarkRead("x")

	s.Recompute([]Notification{note("y", PriorityLow, evalNow)})
	_, ok := s.Get("x")
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len())

	// Re-emitted later, it comes back as new and unread.
	s.Recompute([]Notification{note("x", PriorityHigh, evalNow), note("y", PriorityLow, evalNow)})
	x, ok := s.Get("x")
	require.True(t, ok)
	assert.False(t, x.Read)
	assertUnreadConsistent(t, s)
}

func TestStore_RecomputeIgnoresIncomingReadFlag(t *testing.T) {
	s := NewStore()
	n := note("x", PriorityHigh, evalNow)
	n.Read = true
	s.Recompute([]Notification{n})

	assert.Equal(t, 1, s.UnreadCount())
}

func TestStore_RecomputeDuplicatesAndNil(t *testing.T) {
	s := NewStore()
	s.Recompute([]Notification{
		note("x", PriorityHigh, evalNow),
		note("x", PriorityLow, evalNow),
	})
	require.Equal(t, 1, s.Len())
	x, _ := s.Get("x")
	assert.Equal(t, PriorityHigh, x.Priority)

	s.Recompute(nil)
	assert.Equal(t, 0, s.Len())
	assert.NotNil(t, s.List())
	assert.Equal(t, 0, s.UnreadCount())
}

func TestStore_ListOrdering(t *testing.T) {
	s := NewStore()
	older := evalNow.Add(-time.Hour)
	s.Recompute([]Notification{
		note("low-now", PriorityLow, evalNow),
		note("urgent-old", PriorityUrgent, older),
		note("b-high-now", PriorityHigh, evalNow),
		note("a-high-now", PriorityHigh, evalNow),
		note("urgent-now", PriorityUrgent, evalNow),
		note("medium-now", PriorityMedium, evalNow),
	})

	var ids []string
	for _, n := range s.List() {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"urgent-now", "a-high-now", "b-high-now", "medium-now", "low-now", "urgent-old"}, ids)
}

func TestStore_MarkAllRead(t *testing.T) {
	s := NewStore()
	s.Recompute([]Notification{
		note("a", PriorityUrgent, evalNow),
		note("b", PriorityHigh, evalNow),
		note("c", PriorityMedium, evalNow),
		note("d", PriorityLow, evalNow),
		note("e", PriorityLow, evalNow.Add(-time.Minute)),
	})
	s.MarkRead("c")

	assert.Equal(t, 4, s.MarkAllRead())
	assert.Equal(t, 0, s.UnreadCount())
	for _, n := range s.List() {
		assert.True(t, n.Read, n.ID)
	}
	assert.Equal(t, 0, s.MarkAllRead())
}

func TestStore_MarkReadUnknownIsNoop(t *testing.T) {
	s := NewStore()
	s.Recompute([]Notification{note("x", PriorityHigh, evalNow)})

	assert.False(t, s.MarkRead("missing"))
	assert.Equal(t, 1, s.UnreadCount())
	assert.True(t, s.MarkRead("x"))
	assert.False(t, s.MarkRead("x"))
}

func TestStore_ListReturnsCopy(t *testing.T) {
	s := NewStore()
	s.Recompute([]Notification{note("x", PriorityHigh, evalNow)})

	list := s.List()
	list[0].Read = true
	assert.Equal(t, 1, s.UnreadCount())
}

func TestStore_Subscribe(t *testing.T) {
	s := NewStore()
	var order []string
	var changes []Change

	cancelFirst := s.Subscribe(func(c Change) {
		order = append(order, "first")
		changes = append(changes, c)
	})
	s.Subscribe(func(Change) { order = append(order, "second") })

	s.Recompute([]Notification{note("x", PriorityHigh, evalNow), note("y", PriorityLow, evalNow)})
	s.MarkRead("x")
	s.MarkRead("unknown")
	s.MarkAllRead()

	require.Len(t, changes, 3)
	assert.Equal(t, Change{Kind: ChangeRecomputed, UnreadCount: 2}, changes[0])
	assert.Equal(t, Change{Kind: ChangeMarkedRead, UnreadCount: 1}, changes[1])
	assert.Equal(t, Change{Kind: ChangeAllMarkRead, UnreadCount: 0}, changes[2])
	assert.Equal(t, []string{"first", "second", "first", "second", "first", "second"}, order)

	cancelFirst()
	cancelFirst()
	s.Recompute(nil)
	assert.Len(t, changes, 3)
	assert.Equal(t, "second", order[len(order)-1])
}

func TestStore_ListenerMayReadStore(t *testing.T) {
	s := NewStore()
	var seen int
	s.Subscribe(func(Change) { seen = s.UnreadCount() })

	s.Recompute([]Notification{note("x", PriorityHigh, evalNow)})
	assert.Equal(t, 1, seen)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := NewStore()
	candidates := []Notification{
		note("a", PriorityHigh, evalNow),
		note("b", PriorityLow, evalNow),
		note("c", PriorityMedium, evalNow),
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				switch (i + j) % 4 {
				case 0:
					s.Recompute(candidates)
				case 1:
					s.MarkRead("b")
				case 2:
					s.MarkAllRead()
				default:
					_ = s.List()
				}
			}
		}(i)
	}
	wg.Wait()
	assertUnreadConsistent(t, s)
}
