package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/example/grevocab/pkg/models"
)

const settingsTable = "user_settings"

// SettingsRepository stores the study settings of each user
type SettingsRepository struct {
	db *sqlx.DB
	sb squirrel.StatementBuilderType
}

// NewSettingsRepository creates a new repository instance
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db, sb: builder(db)}
}

// Get returns the user's settings, or the defaults if none were saved
func (r *SettingsRepository) Get(ctx context.Context, userID int64) (models.StudySettings, error) {
	query, args, err := r.sb.Select("words_per_session", "time_per_word", "auto_advance", "shuffle_words", "unique_words_mode").
		From(settingsTable).
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return models.StudySettings{}, fmt.Errorf("failed to build select: %w", err)
	}

	var s models.StudySettings
	err = r.db.GetContext(ctx, &s, query, args...)
	if err == sql.ErrNoRows {
		return models.DefaultStudySettings(), nil
	}
	if err != nil {
		return models.StudySettings{}, fmt.Errorf("failed to get settings: %w", err)
	}
	return s, nil
}

// Save stores the user's settings, replacing any previous ones
func (r *SettingsRepository) Save(ctx context.Context, userID int64, s models.StudySettings) error {
	query, args, err := r.sb.Insert(settingsTable).
		Columns("user_id", "words_per_session", "time_per_word", "auto_advance", "shuffle_words", "unique_words_mode").
		Values(userID, s.WordsPerSession, s.TimePerWord, s.AutoAdvance, s.ShuffleWords, s.UniqueWordsMode).
		Suffix(`ON CONFLICT (user_id) DO UPDATE SET
			words_per_session = excluded.words_per_session,
			time_per_word = excluded.time_per_word,
			auto_advance = excluded.auto_advance,
			shuffle_words = excluded.shuffle_words,
			unique_words_mode = excluded.unique_words_mode`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
