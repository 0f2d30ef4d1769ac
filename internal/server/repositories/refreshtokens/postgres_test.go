package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/taskboard/internal/common"
	"github.com/dmitrijs2005/taskboard/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	insertQ    = `(?s)^INSERT\s+INTO\s+refresh_tokens\s*\(user_id,\s*jti,\s*expires_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*RETURNING\s+id,\s*revoked,\s*created_at,\s*updated_at\s*$`
	findQ      = `(?s)^SELECT\s+id,\s*user_id,\s*jti,\s*expires_at,\s*revoked,\s*created_at,\s*updated_at\s+FROM\s+refresh_tokens\s+WHERE\s+jti\s*=\s*\$1\s*$`
	revokeQ    = `(?s)^UPDATE\s+refresh_tokens\s+SET\s+revoked\s*=\s*TRUE,\s*updated_at\s*=\s*NOW\(\)\s+WHERE\s+jti\s*=\s*\$1\s+AND\s+NOT\s+revoked\s*$`
	revokeAllQ = `(?s)^UPDATE\s+refresh_tokens\s+SET\s+revoked\s*=\s*TRUE,\s*updated_at\s*=\s*NOW\(\)\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+NOT\s+revoked\s*$`
	listQ      = `(?s)^SELECT\s+.*FROM\s+refresh_tokens\s+WHERE\s+user_id\s*=\s*\$1\s+ORDER\s+BY\s+created_at\s+DESC\s+OFFSET\s+\$2\s+LIMIT\s+\$3\s*$`
	deleteQ    = `(?s)^DELETE\s+FROM\s+refresh_tokens\s+WHERE\s+expires_at\s*<\s*\$1\s*$`
)

var tokenCols = []string{"id", "user_id", "jti", "expires_at", "revoked", "created_at", "updated_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewPostgresRepository(db), mock
}

func TestCreate(t *testing.T) {
	exp := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	now := time.Now()

	t.Run("success", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(insertQ).
			WithArgs("u1", "jti-1", exp).
			WillReturnRows(sqlmock.NewRows([]string{"id", "revoked", "created_at", "updated_at"}).AddRow("rt-1", false, now, now))

		got, err := repo.Create(context.Background(), &models.RefreshToken{UserID: "u1", JTI: "jti-1", ExpiresAt: exp})
		require.NoError(t, err)
		assert.Equal(t, "rt-1", got.ID)
		assert.False(t, got.Revoked)
		assert.Equal(t, exp, got.ExpiresAt)
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(insertQ).
			WithArgs("u1", "jti-1", exp).
			WillReturnError(errors.New("db down"))

		_, err := repo.Create(context.Background(), &models.RefreshToken{UserID: "u1", JTI: "jti-1", ExpiresAt: exp})
		require.Error(t, err)
		assert.Regexp(t, regexp.MustCompile(`error performing sql request: .*db down`), err.Error())
	})
}

func TestFindByJTI(t *testing.T) {
	exp := time.Now().Add(time.Hour)
	now := time.Now()

	t.Run("found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(findQ).
			WithArgs("jti-1").
			WillReturnRows(sqlmock.NewRows(tokenCols).AddRow("rt-1", "u1", "jti-1", exp, true, now, now))

		got, err := repo.FindByJTI(context.Background(), "jti-1")
		require.NoError(t, err)
		assert.Equal(t, &models.RefreshToken{ID: "rt-1", UserID: "u1", JTI: "jti-1", ExpiresAt: exp, Revoked: true, CreatedAt: now, UpdatedAt: now}, got)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(findQ).WithArgs("nope").WillReturnError(sql.ErrNoRows)

		_, err := repo.FindByJTI(context.Background(), "nope")
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(findQ).WithArgs("jti-1").WillReturnError(errors.New("boom"))

		_, err := repo.FindByJTI(context.Background(), "jti-1")
		require.Error(t, err)
		assert.Regexp(t, `db error: .*boom`, err.Error())
		assert.NotErrorIs(t, err, common.ErrorNotFound)
	})
}

func TestRevoke(t *testing.T) {
	t.Run("revokes", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(revokeQ).WithArgs("jti-1").WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Revoke(context.Background(), "jti-1"))
	})

	t.Run("no row is not an error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(revokeQ).WithArgs("ghost").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(revokeQ).WithArgs("ghost").WillReturnResult(sqlmock.NewResult(0, 0))

		assert.NoError(t, repo.Revoke(context.Background(), "ghost"))
		assert.NoError(t, repo.Revoke(context.Background(), "ghost"))
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(revokeQ).WithArgs("jti-1").WillReturnError(errors.New("db down"))

		err := repo.Revoke(context.Background(), "jti-1")
		require.Error(t, err)
		assert.Regexp(t, `db error: .*db down`, err.Error())
	})
}

func TestRevokeAllForUser(t *testing.T) {
	t.Run("counts", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(revokeAllQ).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 3))

		n, err := repo.RevokeAllForUser(context.Background(), "u1")
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})

	t.Run("rows affected error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(revokeAllQ).WithArgs("u1").WillReturnResult(sqlmock.NewErrorResult(errors.New("no count")))

		_, err := repo.RevokeAllForUser(context.Background(), "u1")
		require.Error(t, err)
		assert.Regexp(t, `db error: .*no count`, err.Error())
	})
}

func TestListByUser(t *testing.T) {
	now := time.Now()

	t.Run("rows", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(listQ).
			WithArgs("u1", 0, 10).
			WillReturnRows(sqlmock.NewRows(tokenCols).
				AddRow("rt-2", "u1", "jti-2", now.Add(time.Hour), false, now, now).
				AddRow("rt-1", "u1", "jti-1", now.Add(-time.Hour), true, now.Add(-time.Minute), now))

		got, err := repo.ListByUser(context.Background(), "u1", 0, 10)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "jti-2", got[0].JTI)
		assert.True(t, got[1].Revoked)
	})

	t.Run("empty", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(listQ).WithArgs("u1", 20, 10).WillReturnRows(sqlmock.NewRows(tokenCols))

		got, err := repo.ListByUser(context.Background(), "u1", 20, 10)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("row error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(listQ).
			WithArgs("u1", 0, 10).
			WillReturnRows(sqlmock.NewRows(tokenCols).
				AddRow("rt-1", "u1", "jti-1", now, false, now, now).
				RowError(0, errors.New("broken row")))

		_, err := repo.ListByUser(context.Background(), "u1", 0, 10)
		require.Error(t, err)
		assert.Regexp(t, `db error: .*broken row`, err.Error())
	})

	t.Run("query error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(listQ).WithArgs("u1", 0, 10).WillReturnError(errors.New("db down"))

		_, err := repo.ListByUser(context.Background(), "u1", 0, 10)
		assert.Error(t, err)
	})
}

func TestDeleteExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("counts", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(deleteQ).WithArgs(now).WillReturnResult(sqlmock.NewResult(0, 7))

		n, err := repo.DeleteExpired(context.Background(), now)
		require.NoError(t, err)
		assert.Equal(t, int64(7), n)
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(deleteQ).WithArgs(now).WillReturnError(errors.New("db down"))

		_, err := repo.DeleteExpired(context.Background(), now)
		require.Error(t, err)
		assert.Regexp(t, `db error: .*db down`, err.Error())
	})
}
