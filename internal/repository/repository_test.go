package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"room_manager/internal/models"
	"room_manager/internal/storage"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), storage.GormConfig())
	require.NoError(t, err)
	return db, mock
}

func TestRoomRepository_CreateDuplicateCode(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRoomRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "rooms"`).
		WillReturnError(&pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "rooms_code_key"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Room{Name: "dup", Code: 1234, CurrentRound: 1})
	assert.ErrorIs(t, err, ErrDuplicateEntry)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRoomRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "rooms"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectCommit()

	room := &models.Room{Name: "ok", Code: 4321, CurrentRound: 1}
	require.NoError(t, repo.Create(context.Background(), room))
	assert.Equal(t, uint(11), room.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepository_FindByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRoomRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "rooms"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "code", "current_round"}))

	_, err := repo.FindByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepository_FindByIDForUpdateLocksRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRoomRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "rooms" WHERE "rooms"."id" = \$1 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "code", "current_round"}).AddRow(3, "locked", 2345, 4))

	room, err := repo.FindByIDForUpdate(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 4, room.CurrentRound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepository_UnexpectedErrorIsNotMapped(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRoomRepository(db)

	boom := errors.New("connection reset by peer")
	mock.ExpectQuery(`SELECT count\(\*\) FROM "rooms"`).WillReturnError(boom)

	_, err := repo.Count(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrDuplicateEntry)
}

func TestRoomRepository_IncrementRound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRoomRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "rooms" SET "current_round"=current_round \+ 1 WHERE id = \$1`).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT "current_round" FROM "rooms" WHERE id = \$1`).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"current_round"}).AddRow(3))

	round, err := repo.IncrementRound(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 3, round)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepository_IncrementRoundMissingRoom(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRoomRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "rooms"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	_, err := repo.IncrementRound(context.Background(), 5)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMembershipRepository_CreateMapsConstraintErrors(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		constraint string
		want       error
	}{
		{name: "user already has a membership", code: pgUniqueViolation, constraint: "memberships_user_id_key", want: ErrDuplicateEntry},
		{name: "room deleted concurrently", code: pgForeignKeyViolation, constraint: "memberships_room_id_fkey", want: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewMembershipRepository(db)

			mock.ExpectBegin()
			mock.ExpectQuery(`INSERT INTO "memberships"`).
				WillReturnError(&pgconn.PgError{Code: tt.code, ConstraintName: tt.constraint})
			mock.ExpectRollback()

			err := repo.Create(context.Background(), &models.Membership{UserID: 1, RoomID: 2})
			assert.ErrorIs(t, err, tt.want)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMembershipRepository_CreateMissingUserIsNotMapped(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMembershipRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "memberships"`).
		WillReturnError(&pgconn.PgError{Code: pgForeignKeyViolation, ConstraintName: "memberships_user_id_fkey"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Membership{UserID: 404, RoomID: 2})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrDuplicateEntry)

	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)
	assert.Equal(t, "memberships_user_id_fkey", pgErr.ConstraintName)
}

func TestMatchRepository_CreateMissingRoom(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMatchRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "matches"`).
		WillReturnError(&pgconn.PgError{Code: pgForeignKeyViolation, ConstraintName: "matches_room_id_fkey"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), models.NewMatch(1, 2, models.AI(), 1))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMembershipRepository_DeleteByUserIDReturnsRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMembershipRepository(db)

	joined := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery(`DELETE FROM "memberships" WHERE user_id = \$1 RETURNING \*`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "room_id", "joined_at"}).AddRow(1, 7, 3, joined))
	mock.ExpectCommit()

	membership, err := repo.DeleteByUserID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, uint(3), membership.RoomID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMembershipRepository_DeleteByUserIDMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMembershipRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`DELETE FROM "memberships"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "room_id", "joined_at"}))
	mock.ExpectCommit()

	_, err := repo.DeleteByUserID(context.Background(), 7)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMatchRepository_DeactivateRound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMatchRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "matches" SET "is_active"=\$1 WHERE room_id = \$2 AND round = \$3 AND is_active = \$4`).
		WithArgs(false, 4, 2, true).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	n, err := repo.DeactivateRound(context.Background(), 4, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchRepository_CreateDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMatchRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "matches"`).
		WillReturnError(&pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "matches_pair_round_key"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), models.NewMatch(1, 2, models.AI(), 1))
	assert.ErrorIs(t, err, ErrDuplicateEntry)
}

func TestRepositories_TransactionRollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	repos := NewRepositories(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "rooms" .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "code", "current_round"}).AddRow(1, "r", 1234, 1))
	mock.ExpectRollback()

	stop := errors.New("stop")
	err := repos.Transaction(context.Background(), func(tx *Repositories) error {
		if _, err := tx.Room.FindByIDForUpdate(context.Background(), 1); err != nil {
			return err
		}
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.NoError(t, mock.ExpectationsWereMet())
}
