// Package cache реализует снапшоты сессий поверх Redis: последняя
// известная UserSession хранится под отдельным ключом, чтобы клиент
// мог восстановить состояние после перезагрузки, не дожидаясь
// колбэка провайдера идентификации.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/magabrotheeeer/insight-aggregator/internal/config"
	"github.com/magabrotheeeer/insight-aggregator/internal/models"
)

// Время жизни снапшота сессии.
const snapshotTTL = 24 * time.Hour

// Cache инкапсулирует клиент Redis.
type Cache struct {
	Db *redis.Client
}

// InitServer подключается к Redis по настройкам из конфига.
func InitServer(ctx context.Context, cfg config.RedisConnection) (*Cache, error) {
	const op = "cache.InitServer"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.AddressRedis,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.TimeoutRedis,
		WriteTimeout: cfg.TimeoutRedis,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Cache{Db: db}, nil
}

// Get читает значение по ключу и декодирует его в result.
// Возвращает false без ошибки, если ключа нет; повреждённое значение
// также трактуется как отсутствующее.
func (c *Cache) Get(ctx context.Context, key string, result any) (bool, error) {
	const op = "cache.Get"
	val, err := c.Db.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if err = json.Unmarshal([]byte(val), result); err != nil {
		return false, nil
	}
	return true, nil
}

// Set сохраняет значение в кеш с временем жизни.
func (c *Cache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Db.Set(ctx, key, jsonData, expiration).Err()
}

// Invalidate удаляет значение из кеша по ключу.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	return c.Db.Del(ctx, key).Err()
}

func snapshotKey(sessionKey string) string {
	return "session:snapshot:" + sessionKey
}

// SaveSnapshot сохраняет последнюю известную UserSession для сессии.
func (c *Cache) SaveSnapshot(ctx context.Context, sessionKey string, session models.UserSession) error {
	return c.Set(ctx, snapshotKey(sessionKey), session, snapshotTTL)
}

// LoadSnapshot возвращает снапшот сессии, если он есть и читается.
func (c *Cache) LoadSnapshot(ctx context.Context, sessionKey string) (models.UserSession, bool, error) {
	var session models.UserSession
	found, err := c.Get(ctx, snapshotKey(sessionKey), &session)
	if err != nil || !found {
		return models.GuestSession(), false, err
	}
	return session, true, nil
}

// DropSnapshot удаляет снапшот сессии (выход пользователя).
func (c *Cache) DropSnapshot(ctx context.Context, sessionKey string) error {
	return c.Invalidate(ctx, snapshotKey(sessionKey))
}
