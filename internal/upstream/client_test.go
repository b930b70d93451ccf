package upstream

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/apartment-console/internal/lib/jwt"
	"github.com/magabrotheeeer/apartment-console/internal/session"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestClient(baseURL string) *Client {
	return New(baseURL, 5*time.Second, prometheus.NewRegistry(), testLogger())
}

func newSession(t *testing.T) *session.Manager {
	t.Helper()
	return session.NewManager("test-session", session.NullStore{}, testLogger())
}

func signedToken(t *testing.T, username string, ttl time.Duration) string {
	t.Helper()
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwt.Claims{
		Username: username,
		Roles:    []string{"ROLE_ADMIN"},
		RegisteredClaims: jwtlib.RegisteredClaims{
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(ttl)),
		},
	}).SignedString([]byte("panel-secret"))
	require.NoError(t, err)
	return token
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestDo_NonUnauthorizedPassedThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		writeJSON(w, http.StatusForbidden, map[string]string{"message": "insufficient rights"})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	sess := newSession(t)
	sess.SetToken(context.Background(), signedToken(t, "user", time.Hour), false)

	resp, err := client.Get(context.Background(), sess, "/users")
	require.NoError(t, err)
	defer resp.Body.Close()

	// 403 терминален: без попыток обновления, ответ отдан как есть.
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestDo_AttachesBearerAndResolvesRelativePath(t *testing.T) {
	token := signedToken(t, "user", time.Hour)

	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, map[string]string{})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL + "/api")
	sess := newSession(t)
	sess.SetToken(context.Background(), token, false)

	resp, err := client.Get(context.Background(), sess, "/users")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "/api/users", gotPath)
	assert.Equal(t, "Bearer "+token, gotAuth)
}

func TestDo_AbsoluteURLPassedThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{})
	}))
	defer srv.Close()

	client := newTestClient("https://panel.example.com/api")

	resp, err := client.Get(context.Background(), nil, srv.URL+"/pictures/1.jpg")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDo_CallerContentTypePreserved(t *testing.T) {
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		writeJSON(w, http.StatusOK, map[string]string{})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)

	resp, err := client.PostRaw(context.Background(), nil, "/apartments/1/picture",
		[]byte("--boundary--"), "multipart/form-data; boundary=boundary")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "multipart/form-data; boundary=boundary", gotContentType)
}

// panelStub имитирует сервер панели: защищённый эндпоинт принимает только
// текущий валидный токен, /token/refresh считает обращения и ротирует пару.
type panelStub struct {
	t *testing.T

	mu           sync.Mutex
	validToken   string
	validRefresh string

	refreshCalls atomic.Int32
	refreshDelay time.Duration
	failRefresh  bool
}

func (p *panelStub) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/token/refresh", func(w http.ResponseWriter, r *http.Request) {
		p.refreshCalls.Add(1)
		time.Sleep(p.refreshDelay)

		var req struct {
			RefreshToken string `json:"refresh_token"`
		}
		require.NoError(p.t, json.NewDecoder(r.Body).Decode(&req))

		p.mu.Lock()
		defer p.mu.Unlock()
		if p.failRefresh || req.RefreshToken != p.validRefresh {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid refresh token"})
			return
		}
		p.validToken = signedToken(p.t, "user", time.Hour)
		p.validRefresh = "rotated-" + p.validRefresh
		writeJSON(w, http.StatusOK, TokenPair{Token: p.validToken, RefreshToken: p.validRefresh})
	})
	mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		valid := "Bearer "+p.validToken == r.Header.Get("Authorization")
		p.mu.Unlock()
		if !valid {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "expired token"})
			return
		}
		writeJSON(w, http.StatusOK, []map[string]any{{"id": 1}})
	})
	return mux
}

func TestDo_RefreshAndRetryOnce(t *testing.T) {
	stub := &panelStub{t: t, validToken: signedToken(t, "user", time.Hour), validRefresh: "refresh-1"}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	client := newTestClient(srv.URL)
	sess := newSession(t)
	sess.SetToken(context.Background(), signedToken(t, "user", -time.Minute), false)
	sess.SetRefreshToken(context.Background(), "refresh-1", false)

	resp, err := client.Get(context.Background(), sess, "/users")
	require.NoError(t, err)
	defer resp.Body.Close()

	// Вызывающий не видит 401: запрос прозрачно повторён с новым токеном.
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(1), stub.refreshCalls.Load())
	assert.Equal(t, stub.validToken, sess.Token(context.Background()))
	assert.Equal(t, "rotated-refresh-1", sess.RefreshToken(context.Background()))
}

func TestDo_SingleFlightRefresh(t *testing.T) {
	stub := &panelStub{
		t:            t,
		validToken:   signedToken(t, "user", time.Hour),
		validRefresh: "refresh-1",
		refreshDelay: 50 * time.Millisecond,
	}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	client := newTestClient(srv.URL)
	sess := newSession(t)
	sess.SetToken(context.Background(), signedToken(t, "user", -time.Minute), false)
	sess.SetRefreshToken(context.Background(), "refresh-1", false)

	const workers = 8
	var wg sync.WaitGroup
	statuses := make([]int, workers)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := client.Get(context.Background(), sess, "/users")
			if err != nil {
				errs[i] = err
				return
			}
			defer resp.Body.Close()
			statuses[i] = resp.StatusCode
		}(i)
	}
	wg.Wait()

	// Ровно одно сетевое обновление на N одновременных 401,
	// и все N запросов завершились его результатом.
	assert.Equal(t, int32(1), stub.refreshCalls.Load())
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, http.StatusOK, statuses[i])
	}
}

func TestDo_RefreshFailureLogsOutAllWaiters(t *testing.T) {
	stub := &panelStub{
		t:            t,
		validToken:   signedToken(t, "user", time.Hour),
		validRefresh: "refresh-1",
		refreshDelay: 50 * time.Millisecond,
		failRefresh:  true,
	}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	client := newTestClient(srv.URL)
	sess := newSession(t)
	sess.SetToken(context.Background(), signedToken(t, "user", -time.Minute), false)
	sess.SetRefreshToken(context.Background(), "refresh-1", false)

	const workers = 4
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = client.Get(context.Background(), sess, "/users")
		}(i)
	}
	wg.Wait()

	// Все ожидающие наблюдают один и тот же исход — отказ.
	assert.Equal(t, int32(1), stub.refreshCalls.Load())
	for i := 0; i < workers; i++ {
		assert.ErrorIs(t, errs[i], ErrSessionExpired)
	}
	assert.Empty(t, sess.Token(context.Background()))
	assert.Empty(t, sess.RefreshToken(context.Background()))
}

func TestDo_UnauthorizedOnRefreshEndpointForcesLogout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid refresh token"})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	sess := newSession(t)
	sess.SetToken(context.Background(), signedToken(t, "user", time.Hour), false)

	_, err := client.Post(context.Background(), sess, RefreshPath, map[string]string{"refresh_token": "stale"})

	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Empty(t, sess.Token(context.Background()))
}

func TestDo_NoRefreshTokenMeansExpiredSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "expired token"})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	sess := newSession(t)
	sess.SetToken(context.Background(), signedToken(t, "user", -time.Minute), false)

	_, err := client.Get(context.Background(), sess, "/users")

	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestLogin_StoresPairAndReturnsClaims(t *testing.T) {
	accessToken := signedToken(t, "jkowalski", time.Hour)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/login", r.URL.Path)
		var creds map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		if creds["username"] != "jkowalski" || creds["password"] != "correct-horse" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "bad credentials"})
			return
		}
		writeJSON(w, http.StatusOK, TokenPair{Token: accessToken, RefreshToken: "refresh-1"})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	sess := newSession(t)

	claims, err := client.Login(context.Background(), sess, "jkowalski", "correct-horse", false)
	require.NoError(t, err)

	assert.Equal(t, "jkowalski", claims.Username)
	assert.Equal(t, accessToken, sess.Token(context.Background()))
	assert.Equal(t, "refresh-1", sess.RefreshToken(context.Background()))
}

func TestLogin_BadCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "bad credentials"})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	sess := newSession(t)

	_, err := client.Login(context.Background(), sess, "jkowalski", "wrong", false)

	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.Empty(t, sess.Token(context.Background()))
}

func TestEndToEnd_LoginCallExpireRefresh(t *testing.T) {
	stub := &panelStub{t: t, validToken: "", validRefresh: ""}
	mux := http.NewServeMux()
	mux.Handle("/", stub.handler())
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		stub.mu.Lock()
		stub.validToken = signedToken(t, "user", time.Hour)
		stub.validRefresh = "refresh-1"
		pair := TokenPair{Token: stub.validToken, RefreshToken: stub.validRefresh}
		stub.mu.Unlock()
		writeJSON(w, http.StatusOK, pair)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newTestClient(srv.URL)
	sess := newSession(t)
	ctx := context.Background()

	// Вход с валидными учётными данными.
	_, err := client.Login(ctx, sess, "user", "pass", false)
	require.NoError(t, err)

	// Запрос с полученным токеном успешен.
	resp, err := client.Get(ctx, sess, "/users")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, int32(0), stub.refreshCalls.Load())

	// Токен "истекает": панель принимает только новый токен с другим
	// субъектом — подпись тех же claims в ту же секунду дала бы байт в
	// байт прежний токен, и устаревание не случилось бы.
	stub.mu.Lock()
	stub.validToken = signedToken(t, "rotated", time.Hour)
	stub.mu.Unlock()

	// Тот же вызов прозрачно обновляется и завершается успехом.
	resp, err = client.Get(ctx, sess, "/users")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(1), stub.refreshCalls.Load())
	assert.Equal(t, "rotated-refresh-1", sess.RefreshToken(ctx))
}

func TestDo_TokenNearExpiryRefreshedBeforeCall(t *testing.T) {
	nearExpiry := signedToken(t, "user", 5*time.Second)
	stub := &panelStub{t: t, validToken: nearExpiry, validRefresh: "refresh-1"}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	client := newTestClient(srv.URL)
	sess := newSession(t)
	sess.SetToken(context.Background(), nearExpiry, false)
	sess.SetRefreshToken(context.Background(), "refresh-1", false)

	resp, err := client.Get(context.Background(), sess, "/users")
	require.NoError(t, err)
	defer resp.Body.Close()

	// Панель ещё приняла бы старый токен, но до истечения оставалось
	// меньше запаса: пара обновлена до отправки запроса, без 401.
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(1), stub.refreshCalls.Load())
	assert.Equal(t, stub.validToken, sess.Token(context.Background()))
	assert.Equal(t, "rotated-refresh-1", sess.RefreshToken(context.Background()))
}
