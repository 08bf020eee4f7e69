package database

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a row addressed by id does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned for values the store refuses to persist
	ErrInvalidInput = errors.New("invalid input")
)

// Supported drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config selects and locates the database
type Config struct {
	Driver  string
	DSN     string
	DataDir string
}

// SortOrder orders a word listing
type SortOrder string

const (
	SortNewest       SortOrder = "newest"
	SortOldest       SortOrder = "oldest"
	SortAlphabetical SortOrder = "alphabetical"
)

// ParseSortOrder accepts a sort order name; an empty name means newest
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortNewest:
		return SortNewest, nil
	case SortOldest:
		return SortOldest, nil
	case SortAlphabetical, "alpha", "az":
		return SortAlphabetical, nil
	}
	return "", fmt.Errorf("%w: unknown sort order %q", ErrInvalidInput, s)
}

func (o SortOrder) orderBy() []string {
	switch o {
	case SortOldest:
		return []string{"created_at ASC", "LOWER(word) ASC"}
	case SortAlphabetical:
		return []string{"LOWER(word) ASC", "created_at DESC"}
	default:
		return []string{"created_at DESC", "LOWER(word) ASC"}
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
