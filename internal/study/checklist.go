package study

import (
	"fmt"

	"github.com/example/grevocab/pkg/models"
)

// ChecklistItem is one word of a checklist session
type ChecklistItem struct {
	Entry models.VocabularyEntry
	Read  bool
}

// Checklist shows every session word at once. It is complete exactly when
// every item is marked read. There is no timer.
type Checklist struct {
	Items           []ChecklistItem
	UniqueWordsMode bool
	State           State

	studied *StudiedSet
}

// BuildChecklist selects words the same way BuildSession does
func BuildChecklist(pool []models.VocabularyEntry, settings models.StudySettings, studied *StudiedSet, opts ...Option) (*Checklist, error) {
	o := buildOptions(opts)

	words, err := selectWords(pool, settings, studied, o.rnd)
	if err != nil {
		return nil, err
	}

	if studied == nil {
		studied = NewStudiedSet()
	}

	items := make([]ChecklistItem, len(words))
	for i, w := range words {
		items[i] = ChecklistItem{Entry: w}
	}

	return &Checklist{
		Items:           items,
		UniqueWordsMode: settings.UniqueWordsMode,
		State:           StateReading,
		studied:         studied,
	}, nil
}

// Toggle flips the read flag of item i and returns the new value.
// Marking an item read in unique-words mode records it as studied;
// unmarking does not forget it.
func (c *Checklist) Toggle(i int) (bool, error) {
	if c.State == StateConfiguring {
		return false, ErrSessionInactive
	}
	if i < 0 || i >= len(c.Items) {
		return false, fmt.Errorf("%w: %d", ErrItemOutOfRange, i)
	}

	item := &c.Items[i]
	item.Read = !item.Read
	if item.Read && c.UniqueWordsMode {
		c.studied.Add(item.Entry.ID)
	}

	if c.ReadCount() == len(c.Items) {
		c.State = StateComplete
	} else {
		c.State = StateReading
	}
	return item.Read, nil
}

// ReadCount returns how many items are marked read
func (c *Checklist) ReadCount() int {
	n := 0
	for _, it := range c.Items {
		if it.Read {
			n++
		}
	}
	return n
}

func (c *Checklist) Complete() bool {
	return c.State == StateComplete
}

// Studied returns the set read items are recorded in
func (c *Checklist) Studied() *StudiedSet {
	return c.studied
}

// Reset abandons the checklist
func (c *Checklist) Reset() {
	c.State = StateConfiguring
}
