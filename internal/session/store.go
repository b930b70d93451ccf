// Package session управляет сессиями операторов консоли: парой токенов
// (access + refresh) внешнего API, её долговременным хранением и
// оповещением подписчиков об изменениях.
//
// Пара токенов всегда живёт в памяти процесса; в долговременное хранилище
// (redis) она попадает только когда оператор попросил "запомнить меня".
// Хранилище в redis разделяется репликами шлюза, поэтому выход из системы
// на одной реплике со временем деавторизует остальные.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/apartment-console/internal/cache"
)

// Store — долговременное хранилище пары токенов сессии.
type Store interface {
	SaveToken(ctx context.Context, sessionID, token string) error
	SaveRefreshToken(ctx context.Context, sessionID, token string) error
	// LoadToken и LoadRefreshToken возвращают пустую строку, если токена нет.
	LoadToken(ctx context.Context, sessionID string) (string, error)
	LoadRefreshToken(ctx context.Context, sessionID string) (string, error)
	// Clear удаляет оба токена сессии.
	Clear(ctx context.Context, sessionID string) error
}

// RedisStore хранит токены в redis под фиксированными ключами с TTL сессии.
type RedisStore struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewRedisStore создаёт RedisStore поверх готового подключения к redis.
func NewRedisStore(c *cache.Cache, ttl time.Duration) *RedisStore {
	return &RedisStore{cache: c, ttl: ttl}
}

func tokenKey(sessionID string) string {
	return "session:" + sessionID + ":token"
}

func refreshTokenKey(sessionID string) string {
	return "session:" + sessionID + ":refresh_token"
}

// SaveToken сохраняет access токен сессии.
func (s *RedisStore) SaveToken(ctx context.Context, sessionID, token string) error {
	const op = "session.RedisStore.SaveToken"
	if err := s.cache.Set(ctx, tokenKey(sessionID), token, s.ttl); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SaveRefreshToken сохраняет refresh токен сессии.
func (s *RedisStore) SaveRefreshToken(ctx context.Context, sessionID, token string) error {
	const op = "session.RedisStore.SaveRefreshToken"
	if err := s.cache.Set(ctx, refreshTokenKey(sessionID), token, s.ttl); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// LoadToken возвращает сохранённый access токен или пустую строку.
func (s *RedisStore) LoadToken(ctx context.Context, sessionID string) (string, error) {
	const op = "session.RedisStore.LoadToken"
	var token string
	if _, err := s.cache.Get(ctx, tokenKey(sessionID), &token); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return token, nil
}

// LoadRefreshToken возвращает сохранённый refresh токен или пустую строку.
func (s *RedisStore) LoadRefreshToken(ctx context.Context, sessionID string) (string, error) {
	const op = "session.RedisStore.LoadRefreshToken"
	var token string
	if _, err := s.cache.Get(ctx, refreshTokenKey(sessionID), &token); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return token, nil
}

// Clear удаляет оба токена сессии из redis.
func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	const op = "session.RedisStore.Clear"
	if err := s.cache.Invalidate(ctx, tokenKey(sessionID)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Invalidate(ctx, refreshTokenKey(sessionID)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// NullStore — хранилище-пустышка для сессий без "запомнить меня":
// ничего не сохраняет и ничего не находит.
type NullStore struct{}

func (NullStore) SaveToken(context.Context, string, string) error        { return nil }
func (NullStore) SaveRefreshToken(context.Context, string, string) error { return nil }
func (NullStore) LoadToken(context.Context, string) (string, error)      { return "", nil }
func (NullStore) LoadRefreshToken(context.Context, string) (string, error) {
	return "", nil
}
func (NullStore) Clear(context.Context, string) error { return nil }
