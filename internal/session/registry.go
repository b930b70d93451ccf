package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Registry выдаёт менеджеры сессий по непрозрачному идентификатору из
// cookie консоли. Менеджер создаётся лениво: сессия, начатая другой
// репликой шлюза, поднимется из общего redis при первом обращении.
type Registry struct {
	store Store
	log   *slog.Logger

	mu       sync.Mutex
	managers map[string]*Manager
}

// NewRegistry создаёт реестр сессий поверх долговременного хранилища store.
func NewRegistry(store Store, log *slog.Logger) *Registry {
	return &Registry{
		store:    store,
		log:      log,
		managers: make(map[string]*Manager),
	}
}

// Create начинает новую сессию со свежим идентификатором.
func (r *Registry) Create() *Manager {
	id := uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()
	m := NewManager(id, r.store, r.log)
	r.managers[id] = m
	return m
}

// Get возвращает менеджер сессии sessionID. Неизвестный идентификатор
// поднимается из долговременного хранилища; менеджер удерживается в
// реестре, только если у сессии нашёлся хотя бы один токен. Произвольные
// значения cookie приходят с каждым неавторизованным запросом и не должны
// наращивать карту менеджеров.
func (r *Registry) Get(ctx context.Context, sessionID string) *Manager {
	r.mu.Lock()
	if m, ok := r.managers[sessionID]; ok {
		r.mu.Unlock()
		return m
	}
	r.mu.Unlock()

	m := NewManager(sessionID, r.store, r.log)
	if m.Token(ctx) == "" && m.RefreshToken(ctx) == "" {
		return m
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.managers[sessionID]; ok {
		return existing
	}
	r.managers[sessionID] = m
	return m
}

// Drop завершает сессию: стирает токены и убирает менеджер из реестра.
func (r *Registry) Drop(ctx context.Context, sessionID string) {
	r.mu.Lock()
	m, ok := r.managers[sessionID]
	delete(r.managers, sessionID)
	r.mu.Unlock()

	if !ok {
		m = NewManager(sessionID, r.store, r.log)
	}
	m.Clear(ctx)
}
