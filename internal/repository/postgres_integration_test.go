package repository_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"room_manager/internal/models"
	"room_manager/internal/repository"
	"room_manager/internal/testutil"
)

func seedUsers(t *testing.T, repos *repository.Repositories, n int) []uint {
	t.Helper()
	ids := make([]uint, 0, n)
	for i := 0; i < n; i++ {
		user := &models.User{Username: fmt.Sprintf("user%d", i), Password: "x", Role: models.RoleStudent}
		require.NoError(t, repos.User.Create(context.Background(), user))
		ids = append(ids, user.ID)
	}
	return ids
}

func TestPostgres_ConstraintsAndCascade(t *testing.T) {
	db := testutil.StartPostgres(t)
	repos := repository.NewRepositories(db)
	ctx := context.Background()
	users := seedUsers(t, repos, 3)

	room := &models.Room{Name: "integration", Code: 4242, CurrentRound: 1, OwnerID: &users[0]}
	require.NoError(t, repos.Room.Create(ctx, room))

	t.Run("room code is unique", func(t *testing.T) {
		err := repos.Room.Create(ctx, &models.Room{Name: "clash", Code: 4242, CurrentRound: 1})
		assert.ErrorIs(t, err, repository.ErrDuplicateEntry)
	})

	t.Run("one membership per user", func(t *testing.T) {
		require.NoError(t, repos.Membership.Create(ctx, &models.Membership{UserID: users[1], RoomID: room.ID}))
		require.NoError(t, repos.Membership.Create(ctx, &models.Membership{UserID: users[2], RoomID: room.ID}))

		err := repos.Membership.Create(ctx, &models.Membership{UserID: users[1], RoomID: room.ID})
		assert.ErrorIs(t, err, repository.ErrDuplicateEntry)
	})

	t.Run("membership for missing room", func(t *testing.T) {
		err := repos.Membership.Create(ctx, &models.Membership{UserID: users[0], RoomID: room.ID + 1000})
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("membership for missing user", func(t *testing.T) {
		err := repos.Membership.Create(ctx, &models.Membership{UserID: users[2] + 1000, RoomID: room.ID})
		require.Error(t, err)
		assert.NotErrorIs(t, err, repository.ErrNotFound)
		assert.NotErrorIs(t, err, repository.ErrDuplicateEntry)
	})

	t.Run("ai matches participate in uniqueness", func(t *testing.T) {
		require.NoError(t, repos.Match.Create(ctx, models.NewMatch(room.ID, users[1], models.AI(), 1)))
		err := repos.Match.Create(ctx, models.NewMatch(room.ID, users[1], models.AI(), 1))
		assert.ErrorIs(t, err, repository.ErrDuplicateEntry)

		require.NoError(t, repos.Match.Create(ctx, models.NewMatch(room.ID, users[1], models.Human(users[2]), 1)))
		err = repos.Match.Create(ctx, models.NewMatch(room.ID, users[1], models.Human(users[2]), 1))
		assert.ErrorIs(t, err, repository.ErrDuplicateEntry)
	})

	t.Run("advance round in transaction", func(t *testing.T) {
		var round int
		err := repos.Transaction(ctx, func(tx *repository.Repositories) error {
			locked, err := tx.Room.FindByIDForUpdate(ctx, room.ID)
			if err != nil {
				return err
			}
			if round, err = tx.Room.IncrementRound(ctx, room.ID); err != nil {
				return err
			}
			_, err = tx.Match.DeactivateRound(ctx, room.ID, locked.CurrentRound)
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, 2, round)

		_, err = repos.Match.FindActiveByUser(ctx, room.ID, users[2])
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("leave returns deleted membership", func(t *testing.T) {
		m, err := repos.Membership.DeleteByUserID(ctx, users[2])
		require.NoError(t, err)
		assert.Equal(t, room.ID, m.RoomID)

		_, err = repos.Membership.DeleteByUserID(ctx, users[2])
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("deleting room cascades", func(t *testing.T) {
		require.NoError(t, repos.Room.Delete(ctx, room.ID))

		_, err := repos.Membership.FindByUserID(ctx, users[1])
		assert.ErrorIs(t, err, repository.ErrNotFound)

		matches, err := repos.Match.FindByRound(ctx, room.ID, 1)
		require.NoError(t, err)
		assert.Empty(t, matches)

		exists, err := repos.Room.CodeExists(ctx, 4242)
		require.NoError(t, err)
		assert.False(t, exists)
	})
}
