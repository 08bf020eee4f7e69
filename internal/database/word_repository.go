package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"

	"github.com/example/grevocab/pkg/models"
)

const entriesTable = "vocabulary_entries"

var entryColumns = []string{"id", "owner_id", "word", "definition", "created_at"}

// batchChunk keeps multi-row inserts under SQLite's bound-variable limit
const batchChunk = 500

// WordRepository handles database operations for vocabulary entries
type WordRepository struct {
	db    *sqlx.DB
	sb    squirrel.StatementBuilderType
	feed  *Feed
	clock clockwork.Clock
}

// NewWordRepository creates a new repository instance. feed may be nil
// when nobody watches the word lists.
func NewWordRepository(db *sqlx.DB, feed *Feed) *WordRepository {
	return &WordRepository{
		db:    db,
		sb:    builder(db),
		feed:  feed,
		clock: clockwork.NewRealClock(),
	}
}

// WithClock sets the clock used for creation timestamps
func (r *WordRepository) WithClock(c clockwork.Clock) *WordRepository {
	r.clock = c
	return r
}

func newEntry(ownerID int64, wd models.WordDefinition, createdAt time.Time) (models.VocabularyEntry, error) {
	word := strings.TrimSpace(wd.Word)
	definition := strings.TrimSpace(wd.Definition)
	if word == "" || definition == "" {
		return models.VocabularyEntry{}, fmt.Errorf("%w: word and definition are required", ErrInvalidInput)
	}
	return models.VocabularyEntry{
		ID:         uuid.NewString(),
		OwnerID:    ownerID,
		Word:       word,
		Definition: definition,
		CreatedAt:  createdAt,
	}, nil
}

// Add stores one entry and returns it with its generated id
func (r *WordRepository) Add(ctx context.Context, ownerID int64, wd models.WordDefinition) (models.VocabularyEntry, error) {
	entry, err := newEntry(ownerID, wd, r.clock.Now().UTC())
	if err != nil {
		return models.VocabularyEntry{}, err
	}

	query, args, err := r.sb.Insert(entriesTable).
		Columns(entryColumns...).
		Values(entry.ID, entry.OwnerID, entry.Word, entry.Definition, entry.CreatedAt).
		ToSql()
	if err != nil {
		return models.VocabularyEntry{}, fmt.Errorf("failed to build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return models.VocabularyEntry{}, fmt.Errorf("failed to create word: %w", err)
	}

	r.publish(ctx, ownerID)
	return entry, nil
}

// AddBatch stores all entries in one transaction. Either every entry is
// written or none is.
func (r *WordRepository) AddBatch(ctx context.Context, ownerID int64, wds []models.WordDefinition) ([]models.VocabularyEntry, error) {
	if len(wds) == 0 {
		return nil, nil
	}

	now := r.clock.Now().UTC()
	entries := make([]models.VocabularyEntry, 0, len(wds))
	for _, wd := range wds {
		entry, err := newEntry(ownerID, wd, now)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for start := 0; start < len(entries); start += batchChunk {
		end := min(start+batchChunk, len(entries))

		insert := r.sb.Insert(entriesTable).Columns(entryColumns...)
		for _, e := range entries[start:end] {
			insert = insert.Values(e.ID, e.OwnerID, e.Word, e.Definition, e.CreatedAt)
		}

		query, args, err := insert.ToSql()
		if err != nil {
			return nil, fmt.Errorf("failed to build insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return nil, fmt.Errorf("failed to create words: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit words: %w", err)
	}

	r.publish(ctx, ownerID)
	return entries, nil
}

// Delete removes an entry owned by ownerID
func (r *WordRepository) Delete(ctx context.Context, ownerID int64, id string) error {
	query, args, err := r.sb.Delete(entriesTable).
		Where(squirrel.Eq{"id": id, "owner_id": ownerID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete word: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("word %s: %w", id, ErrNotFound)
	}

	r.publish(ctx, ownerID)
	return nil
}

// Get returns one entry owned by ownerID
func (r *WordRepository) Get(ctx context.Context, ownerID int64, id string) (models.VocabularyEntry, error) {
	query, args, err := r.sb.Select(entryColumns...).
		From(entriesTable).
		Where(squirrel.Eq{"id": id, "owner_id": ownerID}).
		ToSql()
	if err != nil {
		return models.VocabularyEntry{}, fmt.Errorf("failed to build select: %w", err)
	}

	var entry models.VocabularyEntry
	err = r.db.GetContext(ctx, &entry, query, args...)
	if err == sql.ErrNoRows {
		return models.VocabularyEntry{}, fmt.Errorf("word %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.VocabularyEntry{}, fmt.Errorf("failed to get word: %w", err)
	}
	return entry, nil
}

// ListByOwner returns a snapshot of ownerID's entries
func (r *WordRepository) ListByOwner(ctx context.Context, ownerID int64, order SortOrder) ([]models.VocabularyEntry, error) {
	return r.list(ctx, squirrel.Eq{"owner_id": ownerID}, order)
}

// Search returns entries whose word or definition contains term, ignoring case
func (r *WordRepository) Search(ctx context.Context, ownerID int64, term string) ([]models.VocabularyEntry, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return r.ListByOwner(ctx, ownerID, SortNewest)
	}

	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	where := squirrel.And{
		squirrel.Eq{"owner_id": ownerID},
		squirrel.Or{
			squirrel.Expr(`LOWER(word) LIKE ? ESCAPE '\'`, pattern),
			squirrel.Expr(`LOWER(definition) LIKE ? ESCAPE '\'`, pattern),
		},
	}
	return r.list(ctx, where, SortNewest)
}

// ExistingWords returns the lowercased words ownerID already has
func (r *WordRepository) ExistingWords(ctx context.Context, ownerID int64) (map[string]struct{}, error) {
	query, args, err := r.sb.Select("word").
		From(entriesTable).
		Where(squirrel.Eq{"owner_id": ownerID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	var words []string
	if err := r.db.SelectContext(ctx, &words, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get words: %w", err)
	}

	existing := make(map[string]struct{}, len(words))
	for _, w := range words {
		existing[strings.ToLower(w)] = struct{}{}
	}
	return existing, nil
}

// Subscribe returns a live stream of ownerID's word list, newest first.
// The current snapshot is delivered straight away.
func (r *WordRepository) Subscribe(ctx context.Context, ownerID int64) (<-chan []models.VocabularyEntry, func(), error) {
	if r.feed == nil {
		return nil, nil, fmt.Errorf("%w: word feed is not configured", ErrInvalidInput)
	}

	ch, cancel := r.feed.Subscribe(ownerID)
	snapshot, err := r.ListByOwner(ctx, ownerID, SortNewest)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	r.feed.Publish(ownerID, snapshot)
	return ch, cancel, nil
}

func (r *WordRepository) list(ctx context.Context, where squirrel.Sqlizer, order SortOrder) ([]models.VocabularyEntry, error) {
	query, args, err := r.sb.Select(entryColumns...).
		From(entriesTable).
		Where(where).
		OrderBy(order.orderBy()...).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	entries := make([]models.VocabularyEntry, 0)
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get words: %w", err)
	}
	return entries, nil
}

// publish pushes a fresh snapshot to live subscribers; a failed reload
// skips one update
func (r *WordRepository) publish(ctx context.Context, ownerID int64) {
	if r.feed == nil || r.feed.Subscribers(ownerID) == 0 {
		return
	}
	snapshot, err := r.ListByOwner(ctx, ownerID, SortNewest)
	if err != nil {
		return
	}
	r.feed.Publish(ownerID, snapshot)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
