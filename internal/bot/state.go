package bot

import (
	"sync"

	"github.com/example/grevocab/internal/extract"
	"github.com/example/grevocab/internal/study"
	"github.com/example/grevocab/pkg/models"
)

// uploadMode is what the next document sent to a chat is used for
type uploadMode int

const (
	uploadNone uploadMode = iota
	uploadImport
	uploadExtract
)

// chatState is the conversation state of one chat. Updates for the same
// chat may be handled concurrently, so every access holds mu.
type chatState struct {
	mu sync.Mutex

	awaiting uploadMode

	review        *extract.Review
	reviewMsgID   int
	showLowReview bool

	countdown    *study.Countdown
	sessionMsgID int

	checklist      *study.Checklist
	checklistMsgID int
	checklistPage  int

	// listing is the last numbered word list shown, for /delete N
	listing []models.VocabularyEntry

	liveCancel func()
}

// detachSession forgets the running timed session and returns its
// countdown. Countdown.Stop waits for tick callbacks, which take cs.mu,
// so the caller stops it only after releasing cs.mu.
func (cs *chatState) detachSession() *study.Countdown {
	countdown := cs.countdown
	cs.countdown = nil
	cs.sessionMsgID = 0
	return countdown
}

// stopCountdown stops countdown when it is set. No lock may be held.
func stopCountdown(countdown *study.Countdown) {
	if countdown != nil {
		countdown.Stop()
	}
}

// stopLive ends the live word list, if any
func (cs *chatState) stopLive() {
	if cs.liveCancel != nil {
		cs.liveCancel()
		cs.liveCancel = nil
	}
}

// closeAll drops every piece of conversation state and returns the
// detached session countdown for the caller to stop
func (cs *chatState) closeAll() *study.Countdown {
	countdown := cs.detachSession()
	cs.stopLive()
	cs.awaiting = uploadNone
	cs.review = nil
	cs.reviewMsgID = 0
	cs.checklist = nil
	cs.checklistMsgID = 0
	cs.listing = nil
	return countdown
}

// chat returns the state of chatID, creating it on first use
func (b *Bot) chat(chatID int64) *chatState {
	b.mu.Lock()
	defer b.mu.Unlock()

	cs, ok := b.chats[chatID]
	if !ok {
		cs = &chatState{}
		b.chats[chatID] = cs
	}
	return cs
}

// forgetChat drops the state of chatID after stopping its workers
func (b *Bot) forgetChat(chatID int64) {
	b.mu.Lock()
	cs, ok := b.chats[chatID]
	delete(b.chats, chatID)
	b.mu.Unlock()

	if ok {
		cs.mu.Lock()
		countdown := cs.closeAll()
		cs.mu.Unlock()
		stopCountdown(countdown)
	}
}
