package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"room_manager/internal/models"
	"room_manager/internal/repository"
	"room_manager/internal/utils"
)

type UserService struct {
	userRepo repository.UserRepository
	tokens   *utils.JWTManager
}

func NewUserService(userRepo repository.UserRepository, tokens *utils.JWTManager) *UserService {
	return &UserService{userRepo: userRepo, tokens: tokens}
}

// Register 建立帳號；未指定角色時為學生
func (s *UserService) Register(ctx context.Context, username, password string, role models.UserRole) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, invalidArgument("username and password are required")
	}
	if role == "" {
		role = models.RoleStudent
	}
	if !role.Valid() {
		return nil, invalidArgument("unknown role %q", role)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, internalError("hash password", err)
	}

	user := &models.User{Username: username, Password: string(hashed), Role: role}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, ErrUsernameTaken
		}
		return nil, internalError("create user", err)
	}

	logrus.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("User registered")
	return user, nil
}

// Login 驗證帳密並簽發 token
func (s *UserService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, internalError("find user", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return "", nil, internalError("sign token", err)
	}
	return token, user, nil
}

func (s *UserService) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, mapNotFound(err, ErrUserNotFound, "find user")
	}
	return user, nil
}
