// Package importer reads and writes bulk word lists.
//
// Every parser sorts the rows it reads into three groups: valid entries,
// duplicates (same word, ignoring case, as an earlier row or as a word the
// owner already has) and invalid rows missing a word or a definition.
// Only a file that cannot be read as a list at all is an error.
package importer

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/example/grevocab/pkg/models"
)

var (
	// ErrParse marks an upload that is not a readable word list
	ErrParse = errors.New("parse error")
	// ErrUnsupportedFormat is returned for file extensions with no parser
	ErrUnsupportedFormat = errors.New("unsupported import format")
)

// ParseError describes why a whole upload was rejected
type ParseError struct {
	Format string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s file: %s: %v", e.Format, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid %s file: %s", e.Format, e.Reason)
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Result holds the classified rows of one upload
type Result struct {
	Total      int
	Valid      []models.WordDefinition
	Duplicates []models.WordDefinition
	Invalid    int
	Errors     []string
}

// Summary renders the counts for a user-facing reply
func (r *Result) Summary() string {
	return fmt.Sprintf("%d valid, %d duplicates, %d invalid out of %d entries",
		len(r.Valid), len(r.Duplicates), r.Invalid, r.Total)
}

// collector classifies rows as they are read
type collector struct {
	existing map[string]struct{}
	seen     map[string]struct{}
	res      *Result
}

func newCollector(existing map[string]struct{}) *collector {
	return &collector{
		existing: existing,
		seen:     make(map[string]struct{}),
		res: &Result{
			Valid:      make([]models.WordDefinition, 0),
			Duplicates: make([]models.WordDefinition, 0),
			Errors:     make([]string, 0),
		},
	}
}

func (c *collector) invalid(row int, reason string) {
	c.res.Total++
	c.res.Invalid++
	c.res.Errors = append(c.res.Errors, fmt.Sprintf("Row %d: %s", row, reason))
}

func (c *collector) add(row int, word, definition string) {
	word = strings.TrimSpace(word)
	definition = strings.TrimSpace(definition)

	if word == "" {
		c.invalid(row, "word cannot be empty")
		return
	}
	if definition == "" {
		c.invalid(row, "definition cannot be empty")
		return
	}

	c.res.Total++
	wd := models.WordDefinition{Word: word, Definition: definition}
	key := strings.ToLower(word)

	if _, ok := c.existing[key]; ok {
		c.res.Duplicates = append(c.res.Duplicates, wd)
		return
	}
	if _, ok := c.seen[key]; ok {
		c.res.Duplicates = append(c.res.Duplicates, wd)
		return
	}

	c.seen[key] = struct{}{}
	c.res.Valid = append(c.res.Valid, wd)
}

// SupportedExtensions lists the file extensions Parse accepts
func SupportedExtensions() []string {
	return []string{".json", ".yaml", ".yml", ".xlsx", ".csv"}
}

// IsSupported reports whether Parse can read a file called name
func IsSupported(name string) bool {
	return slices.Contains(SupportedExtensions(), strings.ToLower(filepath.Ext(name)))
}

// Parse picks a parser from the file extension of name
func Parse(name string, r io.Reader, existing map[string]struct{}) (*Result, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return ParseJSON(r, existing)
	case ".yaml", ".yml":
		return ParseYAML(r, existing)
	case ".xlsx", ".csv":
		return ParseSpreadsheet(name, r, existing, DefaultSpreadsheetConfig())
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
}
