package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/example/grevocab/pkg/models"
)

// StatisticsRepository computes dashboard statistics
type StatisticsRepository struct {
	db *sqlx.DB
	sb squirrel.StatementBuilderType
}

// NewStatisticsRepository creates a new repository instance
func NewStatisticsRepository(db *sqlx.DB) *StatisticsRepository {
	return &StatisticsRepository{db: db, sb: builder(db)}
}

// ForUser returns userID's statistics. "Today" is the calendar day of now
// in now's location.
func (r *StatisticsRepository) ForUser(ctx context.Context, userID int64, now time.Time) (*models.Statistics, error) {
	var stats models.Statistics

	total, err := r.count(ctx, r.sb.Select("COUNT(*)").
		From(entriesTable).
		Where(squirrel.Eq{"owner_id": userID}))
	if err != nil {
		return nil, err
	}
	stats.TotalWords = total

	y, m, d := now.Date()
	startOfDay := time.Date(y, m, d, 0, 0, 0, 0, now.Location()).UTC()
	today, err := r.count(ctx, r.sb.Select("COUNT(*)").
		From(entriesTable).
		Where(squirrel.Eq{"owner_id": userID}).
		Where(squirrel.GtOrEq{"created_at": startOfDay}))
	if err != nil {
		return nil, err
	}
	stats.WordsAddedToday = today

	studied, err := r.count(ctx, r.sb.Select("COUNT(*)").
		From(studiedTable+" s").
		Join(entriesTable+" e ON e.id = s.entry_id AND e.owner_id = s.user_id").
		Where(squirrel.Eq{"s.user_id": userID}))
	if err != nil {
		return nil, err
	}
	stats.StudiedWords = studied

	// MAX() loses the column type in SQLite, so read the newest row instead
	query, args, err := r.sb.Select("created_at").
		From(entriesTable).
		Where(squirrel.Eq{"owner_id": userID}).
		OrderBy("created_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	var last time.Time
	err = r.db.GetContext(ctx, &last, query, args...)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return nil, fmt.Errorf("failed to get last addition: %w", err)
	default:
		stats.LastAddition = &last
	}

	return &stats, nil
}

func (r *StatisticsRepository) count(ctx context.Context, q squirrel.SelectBuilder) (int, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count: %w", err)
	}

	var n int
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("failed to get statistics: %w", err)
	}
	return n, nil
}
