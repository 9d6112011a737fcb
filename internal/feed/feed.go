package feed

import (
	"sync"

	"github.com/dugout-app/lineup-backend/internal/engine"
)

// Event is a full-snapshot change notification for one game and inning.
// No field-level diff: consumers always receive the complete set.
type Event struct {
	GameID      string
	Inning      int
	Origin      string // session that produced the write; used to skip self-notification
	Lineup      []engine.Slot
	Substitutes []engine.Substitute
}

// Feed delivers lineup change events to subscribers scoped by game.
type Feed interface {
	Subscribe(gameID string, buffer int) (<-chan Event, func())
	Publish(evt Event)
}

type memoryFeed struct {
	mu    sync.RWMutex
	rooms map[string]map[chan Event]bool
}

// NewMemory returns an in-process feed. Sessions for the same game in one
// server process see each other's confirmed writes through it.
func NewMemory() Feed {
	return &memoryFeed{rooms: map[string]map[chan Event]bool{}}
}

func (f *memoryFeed) Subscribe(gameID string, buffer int) (<-chan Event, func()) {
	ch := make(chan Event, buffer)

	f.mu.Lock()
	if f.rooms[gameID] == nil {
		f.rooms[gameID] = map[chan Event]bool{}
	}
	f.rooms[gameID][ch] = true
	f.mu.Unlock()

	unsubscribe := func() { f.drop(gameID, ch) }
	return ch, unsubscribe
}

func (f *memoryFeed) Publish(evt Event) {
	f.mu.RLock()
	var slow []chan Event
	for ch := range f.rooms[evt.GameID] {
		select {
		case ch <- evt:
		default:
			slow = append(slow, ch)
		}
	}
	f.mu.RUnlock()

	// A full buffer means the subscriber stopped draining; dropping it
	// puts that session into degraded no-live-merge mode rather than
	// blocking every publisher.
	for _, ch := range slow {
		f.drop(evt.GameID, ch)
	}
}

func (f *memoryFeed) drop(gameID string, ch chan Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	room := f.rooms[gameID]
	if room == nil || !room[ch] {
		return
	}
	delete(room, ch)
	if len(room) == 0 {
		delete(f.rooms, gameID)
	}
	close(ch)
}
