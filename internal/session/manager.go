package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/magabrotheeeer/apartment-console/internal/lib/sl"
)

// Change — уведомление об изменении access токена сессии.
// Пустой Token означает выход из системы.
type Change struct {
	Token string
}

// Manager владеет парой токенов одной сессии. Копия в памяти всегда
// авторитетна для текущего процесса; долговременная копия пишется только
// при persist=true, а её недоступность не считается фатальной ошибкой.
//
// Manager безопасен для конкурентного использования: перекрывающиеся
// запросы одной сессии разделяют его между горутинами.
type Manager struct {
	sessionID string
	store     Store
	log       *slog.Logger

	mu           sync.Mutex
	token        string
	refreshToken string
	persist      bool // оператор просил "запомнить меня"
	hydrated     bool // ленивое чтение долговременной копии уже выполнено

	subsMu  sync.Mutex
	subs    map[int]chan Change
	nextSub int
}

// NewManager создаёт менеджер сессии sessionID поверх долговременного
// хранилища store.
func NewManager(sessionID string, store Store, log *slog.Logger) *Manager {
	return &Manager{
		sessionID: sessionID,
		store:     store,
		log:       log,
		subs:      make(map[int]chan Change),
	}
}

// ID возвращает идентификатор сессии.
func (m *Manager) ID() string {
	return m.sessionID
}

// SetToken сохраняет access токен в памяти и, при persist=true,
// в долговременном хранилище. Подписчики получают уведомление
// в любом случае.
func (m *Manager) SetToken(ctx context.Context, token string, persist bool) {
	m.mu.Lock()
	m.token = token
	m.persist = persist
	m.hydrated = true
	m.mu.Unlock()

	if persist {
		if err := m.store.SaveToken(ctx, m.sessionID, token); err != nil {
			m.log.Warn("failed to persist access token, keeping in-memory copy", sl.Err(err))
		}
	}
	m.broadcast(Change{Token: token})
}

// SetRefreshToken сохраняет refresh токен. Сервер панели ротирует refresh
// токен на каждом обновлении, поэтому сохранять замену обязательно —
// старый токен повторно использовать нельзя.
func (m *Manager) SetRefreshToken(ctx context.Context, token string, persist bool) {
	m.mu.Lock()
	m.refreshToken = token
	m.persist = persist
	m.hydrated = true
	m.mu.Unlock()

	if persist {
		if err := m.store.SaveRefreshToken(ctx, m.sessionID, token); err != nil {
			m.log.Warn("failed to persist refresh token, keeping in-memory copy", sl.Err(err))
		}
	}
}

// Token возвращает access токен: из памяти, а при её пустоте — лениво
// поднимает долговременную копию. Пустая строка — токена нет нигде.
func (m *Manager) Token(ctx context.Context) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" && !m.hydrated {
		m.hydrateLocked(ctx)
	}
	return m.token
}

// RefreshToken возвращает refresh токен по тем же правилам, что и Token.
func (m *Manager) RefreshToken(ctx context.Context) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.refreshToken == "" && !m.hydrated {
		m.hydrateLocked(ctx)
	}
	return m.refreshToken
}

// Persist сообщает, хранится ли сессия долговременно. Преференция
// запоминается при входе и используется при ротации токенов: замена
// должна попасть туда же, где лежал оригинал.
func (m *Manager) Persist() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.persist
}

// Clear стирает оба токена из памяти и долговременного хранилища
// и рассылает уведомление с пустым токеном.
func (m *Manager) Clear(ctx context.Context) {
	m.mu.Lock()
	m.token = ""
	m.refreshToken = ""
	m.persist = false
	m.hydrated = true
	m.mu.Unlock()

	if err := m.store.Clear(ctx, m.sessionID); err != nil {
		m.log.Warn("failed to clear persisted tokens", sl.Err(err))
	}
	m.broadcast(Change{})
}

// Subscribe возвращает канал уведомлений об изменениях токена и функцию
// отписки. Медленный подписчик не блокирует рассылку: непрочитанные
// уведомления отбрасываются.
func (m *Manager) Subscribe() (<-chan Change, func()) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()

	id := m.nextSub
	m.nextSub++
	ch := make(chan Change, 4)
	m.subs[id] = ch

	cancel := func() {
		m.subsMu.Lock()
		defer m.subsMu.Unlock()
		if _, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

func (m *Manager) broadcast(change Change) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	for _, ch := range m.subs {
		select {
		case ch <- change:
		default:
		}
	}
}

// hydrateLocked читает долговременную копию пары токенов и кэширует её
// в памяти. Вызывается под m.mu.
func (m *Manager) hydrateLocked(ctx context.Context) {
	m.hydrated = true

	// Каждая половина пары читается независимо: отказ одного чтения не
	// должен терять уже прочитанный токен второй половины.
	token, err := m.store.LoadToken(ctx, m.sessionID)
	if err != nil {
		m.log.Warn("failed to load persisted access token", sl.Err(err))
	} else if m.token == "" {
		m.token = token
	}
	refreshToken, err := m.store.LoadRefreshToken(ctx, m.sessionID)
	if err != nil {
		m.log.Warn("failed to load persisted refresh token", sl.Err(err))
	} else if m.refreshToken == "" {
		m.refreshToken = refreshToken
	}
	if m.token != "" || m.refreshToken != "" {
		m.persist = true
	}
}
