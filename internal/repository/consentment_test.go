package repository

import (
	"context"
	"errors"
	"testing"

	"guildlink/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsentmentRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewConsentmentRepository(db)
	ctx := context.Background()

	first := &models.Consentment{VID: 100, ChatID: "chat-a", Nickname: "Ann - 100", Roles: "XE Member", Active: true}
	require.NoError(t, repo.Create(ctx, first))
	require.NotZero(t, first.ID)

	t.Run("second active row is a conflict", func(t *testing.T) {
		err := repo.Create(ctx, &models.Consentment{VID: 100, ChatID: "chat-b", Active: true})
		require.Error(t, err)
		var appErr *models.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, models.CodeConflict, appErr.Code)
	})

	t.Run("other active links exclude the current chat id", func(t *testing.T) {
		has, err := repo.HasOtherActiveLink(ctx, 100, "chat-a")
		require.NoError(t, err)
		assert.False(t, has)

		has, err = repo.HasOtherActiveLink(ctx, 100, "chat-b")
		require.NoError(t, err)
		assert.True(t, has)

		links, err := repo.OtherActiveLinks(ctx, 100, "chat-b")
		require.NoError(t, err)
		require.Len(t, links, 1)
		assert.Equal(t, "chat-a", links[0].ChatID)
	})

	t.Run("remove active keeps history", func(t *testing.T) {
		require.NoError(t, repo.RemoveActive(ctx, 100))

		active, err := repo.ActiveLinks(ctx, 100)
		require.NoError(t, err)
		assert.Empty(t, active)

		history, err := repo.ListByVID(ctx, 100)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.False(t, history[0].Active)
		assert.NotNil(t, history[0].RevokedAt)
	})

	t.Run("relink after removal", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, &models.Consentment{VID: 100, ChatID: "chat-b", Active: true}))

		active, err := repo.ActiveLinks(ctx, 100)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, "chat-b", active[0].ChatID)

		history, err := repo.ListByVID(ctx, 100)
		require.NoError(t, err)
		assert.Len(t, history, 2)
	})

	t.Run("other members are untouched", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, &models.Consentment{VID: 200, ChatID: "chat-z", Active: true}))
		require.NoError(t, repo.RemoveActive(ctx, 100))

		active, err := repo.ActiveLinks(ctx, 200)
		require.NoError(t, err)
		assert.Len(t, active, 1)
	})
}

func TestConsentmentRepository_CreateUniqueViolation(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewConsentmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "consentments"`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Consentment{VID: 1, ChatID: "x", Active: true})
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeConflict, appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsentmentRepository_RemoveActiveFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewConsentmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "consentments"`).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.RemoveActive(context.Background(), 1)
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeInternal, appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsentmentRepository_ActiveLinksQuery(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewConsentmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "vid", "chat_id", "active"}).
		AddRow(1, 7, "chat-1", true).
		AddRow(2, 7, "chat-2", true)
	mock.ExpectQuery(`SELECT \* FROM "consentments" WHERE vid = \$1 AND active = \$2`).
		WithArgs(int64(7), true).
		WillReturnRows(rows)

	links, err := repo.ActiveLinks(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, "chat-2", links[1].ChatID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
