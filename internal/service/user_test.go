package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"room_manager/internal/models"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	users := env.services.User

	user, err := users.Register(ctx, "alice", "s3cret", models.RoleTeacher)
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, user.Role)
	assert.NotEqual(t, "s3cret", user.Password)

	token, loggedIn, err := users.Login(ctx, "alice", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user.ID, loggedIn.ID)

	_, _, err = users.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = users.Login(ctx, "nobody", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	users := env.services.User

	student, err := users.Register(ctx, "bob", "pw", "")
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, student.Role)

	_, err = users.Register(ctx, "bob", "pw", models.RoleStudent)
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = users.Register(ctx, "carol", "pw", "admin")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = users.Register(ctx, " ", "pw", models.RoleStudent)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestGetUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.services.User.Register(ctx, "dave", "pw", models.RoleStudent)
	require.NoError(t, err)

	got, err := env.services.User.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "dave", got.Username)

	_, err = env.services.User.GetUser(ctx, user.ID+100)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
