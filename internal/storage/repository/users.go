package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrUserNotFound возвращается, когда учётной записи с таким email нет.
var ErrUserNotFound = errors.New("user not found")

// UserAccount — учётная запись провайдера идентификации.
type UserAccount struct {
	UID          string
	Email        string
	DisplayName  string
	PasswordHash string
	Gender       string
}

// CreateUser сохраняет новую учётную запись и возвращает её UID.
func (s *Storage) CreateUser(ctx context.Context, u UserAccount) (string, error) {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID string
	query := `INSERT INTO users (email, display_name, password_hash, gender)
			  VALUES ($1, $2, $3, $4)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		u.Email, u.DisplayName, u.PasswordHash, u.Gender).Scan(&newID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetUserByEmail возвращает учётную запись по email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*UserAccount, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, display_name, password_hash, gender
			  FROM users
			  WHERE email = $1`
	u := &UserAccount{}
	row := s.DB.QueryRowContext(ctx, query, email)

	var gender sql.NullString
	if err := row.Scan(&u.UID, &u.Email, &u.DisplayName, &u.PasswordHash, &gender); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if gender.Valid {
		u.Gender = gender.String
	}
	return u, nil
}
