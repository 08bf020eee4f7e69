package models

import "time"

// VocabularyEntry is a word with its definition owned by a single user.
// Entries are immutable once stored; the only mutation is deletion.
type VocabularyEntry struct {
	ID         string    `json:"id" db:"id" yaml:"id"`
	Word       string    `json:"word" db:"word" yaml:"word"`
	Definition string    `json:"definition" db:"definition" yaml:"definition"`
	OwnerID    int64     `json:"owner_id" db:"owner_id" yaml:"owner_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at" yaml:"created_at"`
}

// WordDefinition is the (word, definition) pair used by imports and exports.
type WordDefinition struct {
	Word       string `json:"word" yaml:"word"`
	Definition string `json:"definition" yaml:"definition"`
}
