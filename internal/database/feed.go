package database

import (
	"sync"

	"github.com/example/grevocab/pkg/models"
)

// Feed pushes fresh word-list snapshots to subscribers of an owner.
// A subscriber that falls behind only ever sees the latest snapshot.
type Feed struct {
	mu   sync.Mutex
	subs map[int64]map[chan []models.VocabularyEntry]struct{}
}

// NewFeed creates an empty feed
func NewFeed() *Feed {
	return &Feed{subs: make(map[int64]map[chan []models.VocabularyEntry]struct{})}
}

// Subscribe registers for ownerID's snapshots. The returned cancel
// function unregisters and closes the channel; it is safe to call twice.
func (f *Feed) Subscribe(ownerID int64) (<-chan []models.VocabularyEntry, func()) {
	ch := make(chan []models.VocabularyEntry, 1)

	f.mu.Lock()
	if f.subs[ownerID] == nil {
		f.subs[ownerID] = make(map[chan []models.VocabularyEntry]struct{})
	}
	f.subs[ownerID][ch] = struct{}{}
	f.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()

			delete(f.subs[ownerID], ch)
			if len(f.subs[ownerID]) == 0 {
				delete(f.subs, ownerID)
			}
			close(ch)
		})
	}
	return ch, cancel
}

// Publish replaces any undelivered snapshot with snapshot
func (f *Feed) Publish(ownerID int64, snapshot []models.VocabularyEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for ch := range f.subs[ownerID] {
		select {
		case <-ch:
		default:
		}
		ch <- snapshot
	}
}

// Subscribers reports how many subscriptions ownerID has
func (f *Feed) Subscribers(ownerID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[ownerID])
}
