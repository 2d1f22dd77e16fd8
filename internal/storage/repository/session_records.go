package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/insight-aggregator/internal/models"
)

// Зеркальные записи сессий хранятся как ключ-значение: email -> JSON.
// Повреждённая запись (битый JSON, неизвестный tier) трактуется как
// отсутствующая — вызывающий уходит на путь первого входа, это
// никогда не фатальная ошибка.

// GetSessionRecord возвращает зеркальную запись сессии по email.
// Второе значение false означает, что записи нет или она нечитаема.
func (s *Storage) GetSessionRecord(ctx context.Context, email string) (*models.PersistedSessionRecord, bool, error) {
	const op = "storage.GetSessionRecord"
	select {
	case <-ctx.Done():
		return nil, false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT payload FROM session_records WHERE email = $1`
	var payload []byte
	if err := s.DB.QueryRowContext(ctx, query, email).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	var record models.PersistedSessionRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, false, nil
	}
	if !record.Tier.Valid() || record.Email == "" {
		return nil, false, nil
	}
	return &record, true, nil
}

// UpsertSessionRecord сохраняет зеркальную запись сессии по email.
func (s *Storage) UpsertSessionRecord(ctx context.Context, record models.PersistedSessionRecord) error {
	const op = "storage.UpsertSessionRecord"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `INSERT INTO session_records (email, payload)
			  VALUES ($1, $2)
			  ON CONFLICT (email) DO UPDATE SET payload = EXCLUDED.payload`
	if _, err := s.DB.ExecContext(ctx, query, record.Email, payload); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
