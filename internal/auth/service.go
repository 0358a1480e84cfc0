package auth

import (
	"context"

	"tasktracker/internal/domain/errors"
	"tasktracker/internal/domain/models"

	"github.com/google/uuid"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// dummyHash — bcrypt-хеш заведомо несуществующего пароля. Сравнение с ним
// при неизвестном email выравнивает время ответа с веткой неверного пароля.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

type Service struct {
	users  UserRepository
	hasher *PasswordHasher
	tokens *TokenService
}

func NewService(users UserRepository, hasher *PasswordHasher, tokens *TokenService) *Service {
	return &Service{users: users, hasher: hasher, tokens: tokens}
}

// Register создаёт пользователя. Email уникален без учёта регистра.
// Роли из запроса игнорируются: новый пользователь всегда получает USER.
func (s *Service) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	existing, err := s.users.GetUserByEmail(ctx, req.Email)
	if err != nil && err != errors.ErrUserNotFound {
		return nil, err
	}
	if existing != nil {
		return nil, errors.ErrEmailTaken
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Roles:        []string{models.RoleUser},
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login возвращает подписанный токен. Неизвестный email и неверный пароль
// дают один и тот же ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err == errors.ErrUserNotFound {
		s.hasher.Verify(password, dummyHash)
		return "", errors.ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return "", errors.ErrInvalidCredentials
	}
	return s.tokens.Issue(user)
}

func (s *Service) Profile(ctx context.Context, id string) (*models.User, error) {
	return s.users.GetUserByID(ctx, id)
}

func RequireRole(roles []string, required string) error {
	for _, r := range roles {
		if r == required {
			return nil
		}
	}
	return errors.ErrForbidden
}
