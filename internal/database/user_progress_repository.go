package database

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"

	"github.com/example/grevocab/internal/study"
)

const studiedTable = "studied_words"

var _ study.ProgressStore = (*ProgressRepository)(nil)

// ProgressRepository persists which words each user already studied in
// unique-words mode
type ProgressRepository struct {
	db    *sqlx.DB
	sb    squirrel.StatementBuilderType
	clock clockwork.Clock
}

// NewProgressRepository creates a new repository instance
func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db, sb: builder(db), clock: clockwork.NewRealClock()}
}

// Studied returns the ids of the words userID has studied
func (r *ProgressRepository) Studied(ctx context.Context, userID int64) ([]string, error) {
	query, args, err := r.sb.Select("entry_id").
		From(studiedTable).
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("entry_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	ids := make([]string, 0)
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get studied words: %w", err)
	}
	return ids, nil
}

// MarkStudied records entryID as studied. Marking twice is a no-op.
func (r *ProgressRepository) MarkStudied(ctx context.Context, userID int64, entryID string) error {
	query, args, err := r.sb.Insert(studiedTable).
		Columns("user_id", "entry_id", "studied_at").
		Values(userID, entryID, r.clock.Now().UTC()).
		Suffix("ON CONFLICT (user_id, entry_id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to mark word studied: %w", err)
	}
	return nil
}

// ResetStudied forgets every studied word of userID
func (r *ProgressRepository) ResetStudied(ctx context.Context, userID int64) error {
	query, args, err := r.sb.Delete(studiedTable).
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to reset studied words: %w", err)
	}
	return nil
}
