package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"

	"github.com/example/grevocab/pkg/models"
)

const usersTable = "users"

var userColumns = []string{"id", "username", "first_name", "last_name", "reminder_enabled", "reminder_hour", "signed_in", "created_at"}

// DefaultReminderHour is the reminder hour of new users
const DefaultReminderHour = 9

// UserRepository handles database operations for users
type UserRepository struct {
	db    *sqlx.DB
	sb    squirrel.StatementBuilderType
	clock clockwork.Clock
}

// NewUserRepository creates a new repository instance
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db, sb: builder(db), clock: clockwork.NewRealClock()}
}

// Get returns a user by Telegram id
func (r *UserRepository) Get(ctx context.Context, id int64) (*models.User, error) {
	query, args, err := r.sb.Select(userColumns...).
		From(usersTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	var user models.User
	err = r.db.GetContext(ctx, &user, query, args...)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return &user, nil
}

// Ensure registers user on first contact and refreshes the profile names
// afterwards. It reports whether the user was created.
func (r *UserRepository) Ensure(ctx context.Context, user *models.User) (bool, error) {
	existing, err := r.Get(ctx, user.ID)
	if err == nil {
		query, args, err := r.sb.Update(usersTable).
			Set("username", user.Username).
			Set("first_name", user.FirstName).
			Set("last_name", user.LastName).
			Set("signed_in", true).
			Where(squirrel.Eq{"id": user.ID}).
			ToSql()
		if err != nil {
			return false, fmt.Errorf("failed to build update: %w", err)
		}
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return false, fmt.Errorf("failed to update user: %w", err)
		}

		user.ReminderEnabled = existing.ReminderEnabled
		user.ReminderHour = existing.ReminderHour
		user.SignedIn = true
		user.CreatedAt = existing.CreatedAt
		return false, nil
	}
	if !isNotFound(err) {
		return false, err
	}

	user.ReminderEnabled = true
	user.ReminderHour = DefaultReminderHour
	user.SignedIn = true
	user.CreatedAt = r.clock.Now().UTC()

	query, args, err := r.sb.Insert(usersTable).
		Columns(userColumns...).
		Values(user.ID, user.Username, user.FirstName, user.LastName, user.ReminderEnabled, user.ReminderHour, user.SignedIn, user.CreatedAt).
		Suffix("ON CONFLICT (id) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build insert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return false, fmt.Errorf("failed to create user: %w", err)
	}
	return true, nil
}

// SignOut ends the user's session. Words, settings and progress are
// kept until the next Ensure signs the user back in.
func (r *UserRepository) SignOut(ctx context.Context, id int64) error {
	query, args, err := r.sb.Update(usersTable).
		Set("signed_in", false).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to sign out user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return nil
}

// Delete removes a user together with every word, setting and progress
// row they own
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	deletes := []squirrel.DeleteBuilder{
		r.sb.Delete(studiedTable).Where(squirrel.Eq{"user_id": id}),
		r.sb.Delete(settingsTable).Where(squirrel.Eq{"user_id": id}),
		r.sb.Delete(entriesTable).Where(squirrel.Eq{"owner_id": id}),
		r.sb.Delete(usersTable).Where(squirrel.Eq{"id": id}),
	}

	var removed int64
	for _, d := range deletes {
		query, args, err := d.ToSql()
		if err != nil {
			return fmt.Errorf("failed to build delete: %w", err)
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to delete user data: %w", err)
		}
		removed, _ = res.RowsAffected()
	}
	if removed == 0 {
		return fmt.Errorf("user %d: %w", id, ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit user deletion: %w", err)
	}
	return nil
}

// UpdateReminder changes the reminder preference of a user
func (r *UserRepository) UpdateReminder(ctx context.Context, id int64, enabled bool, hour int) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("%w: reminder hour must be between 0 and 23", ErrInvalidInput)
	}

	query, args, err := r.sb.Update(usersTable).
		Set("reminder_enabled", enabled).
		Set("reminder_hour", hour).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update reminder: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return nil
}

// ListForReminder returns signed-in users who want a reminder at hour
func (r *UserRepository) ListForReminder(ctx context.Context, hour int) ([]models.User, error) {
	query, args, err := r.sb.Select(userColumns...).
		From(usersTable).
		Where(squirrel.Eq{"reminder_enabled": true, "reminder_hour": hour, "signed_in": true}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	users := make([]models.User, 0)
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get users for reminder: %w", err)
	}
	return users, nil
}

// Count returns the number of registered users
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	query, args, err := r.sb.Select("COUNT(*)").From(usersTable).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build select: %w", err)
	}

	var n int
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}
