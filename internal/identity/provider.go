// Package identity реализует провайдера идентификации: регистрацию,
// вход и выход пользователей. Для остального кода провайдер — чёрный
// ящик, его отказы всегда превращаются в сообщение пользователю и
// никогда не роняют вызывающего.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/insight-aggregator/internal/lib/password"
	"github.com/magabrotheeeer/insight-aggregator/internal/lib/sl"
	"github.com/magabrotheeeer/insight-aggregator/internal/storage/repository"
)

var (
	// ErrInvalidCredentials — провайдер отклонил пару email/пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken — на email уже есть учётная запись.
	ErrEmailTaken = errors.New("email already registered")
)

// Identity — подтверждённая личность пользователя.
type Identity struct {
	Email       string
	DisplayName string
	Gender      string
}

// UserRepository описывает контракт хранилища учётных записей.
type UserRepository interface {
	CreateUser(ctx context.Context, u repository.UserAccount) (string, error)
	GetUserByEmail(ctx context.Context, email string) (*repository.UserAccount, error)
}

// Provider описывает операции провайдера идентификации.
type Provider interface {
	Register(ctx context.Context, email, pass, displayName, gender string) (*Identity, error)
	Login(ctx context.Context, email, pass string) (*Identity, error)
}

// Service — провайдер идентификации поверх хранилища учётных записей.
type Service struct {
	users UserRepository
	log   *slog.Logger
}

// NewService создаёт провайдера идентификации.
func NewService(users UserRepository, log *slog.Logger) *Service {
	return &Service{users: users, log: log}
}

// Register создаёт учётную запись с bcrypt-хэшем пароля.
func (s *Service) Register(ctx context.Context, email, pass, displayName, gender string) (*Identity, error) {
	const op = "identity.Register"

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hashed, err := password.GetHash(pass)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	account := repository.UserAccount{
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hashed,
		Gender:       gender,
	}
	if _, err := s.users.CreateUser(ctx, account); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("identity registered", sl.Op(op), slog.String("email", email))
	return &Identity{Email: email, DisplayName: displayName, Gender: gender}, nil
}

// Login проверяет пароль и возвращает подтверждённую личность.
func (s *Service) Login(ctx context.Context, email, pass string) (*Identity, error) {
	const op = "identity.Login"

	account, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(account.PasswordHash, pass); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &Identity{
		Email:       account.Email,
		DisplayName: account.DisplayName,
		Gender:      account.Gender,
	}, nil
}
