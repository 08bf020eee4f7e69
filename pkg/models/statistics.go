package models

import "time"

// Statistics is the dashboard summary of a user's collection
type Statistics struct {
	TotalWords      int        `json:"total_words"`
	WordsAddedToday int        `json:"words_added_today"`
	StudiedWords    int        `json:"studied_words"`
	LastAddition    *time.Time `json:"last_addition,omitempty"`
}
