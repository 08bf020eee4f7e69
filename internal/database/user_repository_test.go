package database

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/grevocab/pkg/models"
)

func TestUserRepository_EnsureAndGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	u := &models.User{ID: 42, Username: "abate", FirstName: "Ada"}
	created, err := repo.Ensure(ctx, u)
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, u.ReminderEnabled)
	assert.Equal(t, DefaultReminderHour, u.ReminderHour)

	require.NoError(t, repo.UpdateReminder(ctx, 42, false, 20))

	again := &models.User{ID: 42, Username: "abate2", FirstName: "Ada", LastName: "L"}
	created, err = repo.Ensure(ctx, again)
	require.NoError(t, err)
	assert.False(t, created)
	assert.False(t, again.ReminderEnabled)
	assert.Equal(t, 20, again.ReminderHour)

	got, err := repo.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "abate2", got.Username)
	assert.Equal(t, "L", got.LastName)

	_, err = repo.Get(ctx, 7)
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUserRepository_Reminders(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	for _, id := range []int64{1, 2, 3} {
		_, err := repo.Ensure(ctx, &models.User{ID: id})
		require.NoError(t, err)
	}
	require.NoError(t, repo.UpdateReminder(ctx, 2, true, 18))
	require.NoError(t, repo.UpdateReminder(ctx, 3, false, DefaultReminderHour))

	users, err := repo.ListForReminder(ctx, DefaultReminderHour)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, int64(1), users[0].ID)

	assert.ErrorIs(t, repo.UpdateReminder(ctx, 1, true, 24), ErrInvalidInput)
	assert.ErrorIs(t, repo.UpdateReminder(ctx, 99, true, 10), ErrNotFound)
}

func TestUserRepository_SignOutKeepsData(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserRepository(db)
	wordsRepo := NewWordRepository(db, nil)

	_, err := users.Ensure(ctx, &models.User{ID: 5})
	require.NoError(t, err)
	_, err = wordsRepo.Add(ctx, 5, models.WordDefinition{Word: "abate", Definition: "to lessen"})
	require.NoError(t, err)

	require.NoError(t, users.SignOut(ctx, 5))

	got, err := users.Get(ctx, 5)
	require.NoError(t, err)
	assert.False(t, got.SignedIn)

	due, err := users.ListForReminder(ctx, DefaultReminderHour)
	require.NoError(t, err)
	assert.Empty(t, due)

	entries, err := wordsRepo.ListByOwner(ctx, 5, SortNewest)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	created, err := users.Ensure(ctx, &models.User{ID: 5})
	require.NoError(t, err)
	assert.False(t, created)

	got, err = users.Get(ctx, 5)
	require.NoError(t, err)
	assert.True(t, got.SignedIn)

	assert.ErrorIs(t, users.SignOut(ctx, 99), ErrNotFound)
}

func TestUserRepository_DeleteRemovesData(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserRepository(db)
	wordsRepo := NewWordRepository(db, nil)
	settings := NewSettingsRepository(db)
	progress := NewProgressRepository(db)

	_, err := users.Ensure(ctx, &models.User{ID: 5})
	require.NoError(t, err)
	e, err := wordsRepo.Add(ctx, 5, models.WordDefinition{Word: "Abate", Definition: "to reduce"})
	require.NoError(t, err)
	require.NoError(t, settings.Save(ctx, 5, models.DefaultStudySettings()))
	require.NoError(t, progress.MarkStudied(ctx, 5, e.ID))

	require.NoError(t, users.Delete(ctx, 5))

	_, err = users.Get(ctx, 5)
	assert.ErrorIs(t, err, ErrNotFound)
	list, err := wordsRepo.ListByOwner(ctx, 5, SortNewest)
	require.NoError(t, err)
	assert.Empty(t, list)
	ids, err := progress.Studied(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, ids)

	assert.ErrorIs(t, users.Delete(ctx, 5), ErrNotFound)
}

func TestSettingsRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	createUser(t, db, 1)
	repo := NewSettingsRepository(db)

	got, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultStudySettings(), got)

	custom := models.StudySettings{WordsPerSession: 50, TimePerWord: 15, AutoAdvance: false, ShuffleWords: true, UniqueWordsMode: false}
	require.NoError(t, repo.Save(ctx, 1, custom))
	got, err = repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, custom, got)

	custom.TimePerWord = 60
	require.NoError(t, repo.Save(ctx, 1, custom))
	got, err = repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 60, got.TimePerWord)
}

func TestProgressRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	createUser(t, db, 1)
	repo := NewProgressRepository(db)

	require.NoError(t, repo.MarkStudied(ctx, 1, "b"))
	require.NoError(t, repo.MarkStudied(ctx, 1, "a"))
	require.NoError(t, repo.MarkStudied(ctx, 1, "a"))

	ids, err := repo.Studied(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	require.NoError(t, repo.ResetStudied(ctx, 1))
	ids, err = repo.Studied(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestStatisticsRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	createUser(t, db, 1)

	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC))
	wordsRepo := NewWordRepository(db, nil).WithClock(clock)
	stats := NewStatisticsRepository(db)
	progress := NewProgressRepository(db)

	empty, err := stats.ForUser(ctx, 1, clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, empty.TotalWords)
	assert.Nil(t, empty.LastAddition)

	old, err := wordsRepo.Add(ctx, 1, models.WordDefinition{Word: "Abate", Definition: "to reduce"})
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)
	_, err = wordsRepo.AddBatch(ctx, 1, []models.WordDefinition{
		{Word: "Venal", Definition: "open to bribery"},
		{Word: "Zealot", Definition: "a fanatic"},
	})
	require.NoError(t, err)

	require.NoError(t, progress.MarkStudied(ctx, 1, old.ID))
	require.NoError(t, progress.MarkStudied(ctx, 1, "deleted-entry"))

	got, err := stats.ForUser(ctx, 1, clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 3, got.TotalWords)
	assert.Equal(t, 2, got.WordsAddedToday)
	assert.Equal(t, 1, got.StudiedWords)
	require.NotNil(t, got.LastAddition)
	assert.True(t, got.LastAddition.Equal(clock.Now()))
}
