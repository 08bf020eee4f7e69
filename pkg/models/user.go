package models

import "time"

// User represents a Telegram account using the bot. The Telegram user id
// is the identity; there is no separate credential.
type User struct {
	ID              int64     `json:"id" db:"id"` // Telegram User ID
	Username        string    `json:"username" db:"username"`
	FirstName       string    `json:"first_name" db:"first_name"`
	LastName        string    `json:"last_name" db:"last_name"`
	ReminderEnabled bool      `json:"reminder_enabled" db:"reminder_enabled"`
	ReminderHour    int       `json:"reminder_hour" db:"reminder_hour"` // Hour of day for reminders (0-23)
	SignedIn        bool      `json:"signed_in" db:"signed_in"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}
