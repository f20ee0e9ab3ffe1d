package service

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/freelance-escrow/internal/domain/repository"
	"github.com/ignatzorin/freelance-escrow/internal/logger"
	"github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"
)

// AuthService выдаёт токены API. Администраторы входят по паролю,
// пользователи получают токен через бота.
type AuthService struct {
	accounts     repository.AccountRepository
	tokenManager *TokenManager
	admins       map[int64]struct{}
	passwordHash []byte
}

func NewAuthService(accounts repository.AccountRepository, tokenManager *TokenManager, adminIDs []int64, passwordHash string) *AuthService {
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &AuthService{
		accounts:     accounts,
		tokenManager: tokenManager,
		admins:       admins,
		passwordHash: []byte(passwordHash),
	}
}

func (s *AuthService) IsAdmin(userID int64) bool {
	_, ok := s.admins[userID]
	return ok
}

// AdminLogin проверяет пароль администратора и выдаёт токен с ролью admin.
func (s *AuthService) AdminLogin(ctx context.Context, adminID int64, password string) (*AccessToken, error) {
	if !s.IsAdmin(adminID) || len(s.passwordHash) == 0 {
		return nil, apperror.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		logger.Log.WithField("admin_id", adminID).Warn("admin login: wrong password")
		return nil, apperror.ErrInvalidCredentials
	}

	token, err := s.tokenManager.Issue(adminID, RoleAdmin)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось выпустить токен")
	}
	logger.Log.WithFields(logrus.Fields{"admin_id": adminID}).Info("admin logged in")
	return token, nil
}

// IssueUserToken выдаёт токен зарегистрированному пользователю.
// Администратор получает роль admin.
func (s *AuthService) IssueUserToken(ctx context.Context, userID int64) (*AccessToken, error) {
	role := RoleAdmin
	if !s.IsAdmin(userID) {
		acc, err := s.accounts.FindByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		role = string(acc.Role)
	}

	token, err := s.tokenManager.Issue(userID, role)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось выпустить токен")
	}
	return token, nil
}

// ParseToken возвращает пользователя и роль из токена.
func (s *AuthService) ParseToken(token string) (int64, string, error) {
	userID, role, err := s.tokenManager.ParseAccess(token)
	if err != nil {
		return 0, "", apperror.Wrap(err, apperror.ErrCodeUnauthorized, "недействительный токен")
	}
	return userID, role, nil
}
