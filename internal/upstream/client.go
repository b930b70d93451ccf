// Package upstream реализует клиента внешнего REST API панели.
//
// Клиент разрешает относительные пути против базового URL, подставляет
// bearer токен сессии и прозрачно обновляет истёкший access токен: на 401
// выполняется ровно одно сетевое обновление (single-flight), после чего
// исходный запрос повторяется один раз с новым токеном. Конкурентные
// запросы, получившие 401 во время обновления, не порождают собственных
// обращений к /token/refresh — все они дожидаются общего результата.
// Это исключает лавину одновременных refresh-запросов и гонку ротации
// refresh токена, которая сделала бы часть полученных токенов невалидной.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"

	"github.com/magabrotheeeer/apartment-console/internal/lib/jwt"
	"github.com/magabrotheeeer/apartment-console/internal/lib/sl"
	"github.com/magabrotheeeer/apartment-console/internal/session"
)

// RefreshPath — эндпоинт обновления пары токенов. 401 с этого эндпоинта
// означает невалидный refresh токен: сессия принудительно завершается,
// повторных попыток не делается — иначе возможен бесконечный цикл.
const RefreshPath = "/token/refresh"

// ErrSessionExpired — сессию нельзя продлить, требуется повторный вход.
var ErrSessionExpired = errors.New("session expired, login required")

// Client — клиент API панели. Безопасен для конкурентного использования.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger

	refreshGroup singleflight.Group

	refreshTotal    prometheus.Counter
	refreshFailures prometheus.Counter
}

// New создаёт клиента API панели. Счётчики обновлений токена
// регистрируются в reg.
func New(baseURL string, timeout time.Duration, reg prometheus.Registerer, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	factory := promauto.With(reg)
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
		refreshTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "console_upstream_token_refresh_total",
			Help: "Number of token refresh calls issued to the panel API.",
		}),
		refreshFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "console_upstream_token_refresh_failures_total",
			Help: "Number of token refresh calls that failed.",
		}),
	}
}

// resolveURL разрешает относительный путь против базового URL;
// абсолютные URL проходят без изменений.
func (c *Client) resolveURL(path string) string {
	if strings.HasPrefix(path, "http") {
		return path
	}
	return c.baseURL + path
}

// Do выполняет запрос к API панели от имени сессии sess.
//
// Токен, истекающий в пределах jwt.ExpiryMargin, обновляется до отправки:
// иначе проверка прошла бы, а токен истёк, пока запрос идёт по сети.
// Любой статус, кроме 401, возвращается вызывающему без изменений — и
// успех, и прикладные ошибки интерпретирует экран консоли. На 401
// запускается протокол обновления токена; при успехе запрос повторяется
// ровно один раз, при неудаче сессия завершается и ошибка
// распространяется. Для sess=nil запрос уходит анонимно и 401 не
// обрабатывается.
//
// Content-Type по умолчанию application/json; вызывающий, отправляющий
// multipart-тело, задаёт свой contentType, и он проходит как есть.
func (c *Client) Do(ctx context.Context, sess *session.Manager, method, path string, body []byte, contentType string) (*http.Response, error) {
	const op = "upstream.Do"

	forceToken := ""
	if sess != nil && !strings.Contains(path, RefreshPath) {
		if token := sess.Token(ctx); token != "" && !jwt.IsValid(token, time.Now()) {
			fresh, err := c.refresh(ctx, sess)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			forceToken = fresh
		}
	}

	resp, err := c.send(ctx, sess, method, path, body, contentType, forceToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if resp.StatusCode != http.StatusUnauthorized || sess == nil {
		return resp, nil
	}
	drain(resp)

	if strings.Contains(path, RefreshPath) {
		sess.Clear(ctx)
		return nil, fmt.Errorf("%s: %w", op, ErrSessionExpired)
	}

	token, err := c.refresh(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	retry, err := c.send(ctx, sess, method, path, body, contentType, token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return retry, nil
}

// send выполняет одиночный HTTP-запрос. Непустой forceToken подставляется
// вместо токена сессии — так повтор после обновления гарантированно уходит
// с новым токеном, даже если память сессии уже изменилась.
func (c *Client) send(ctx context.Context, sess *session.Manager, method, path string, body []byte, contentType, forceToken string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.resolveURL(path), reader)
	if err != nil {
		return nil, err
	}

	if contentType == "" {
		contentType = "application/json"
	}
	req.Header.Set("Content-Type", contentType)

	token := forceToken
	if token == "" && sess != nil {
		token = sess.Token(ctx)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.httpClient.Do(req)
}

// refresh обменивает refresh токен сессии на новую пару токенов.
// На одну сессию одновременно выполняется не более одного сетевого
// обновления; все ожидающие получают один и тот же результат.
func (c *Client) refresh(ctx context.Context, sess *session.Manager) (string, error) {
	v, err, _ := c.refreshGroup.Do(sess.ID(), func() (any, error) {
		return c.doRefresh(ctx, sess)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) doRefresh(ctx context.Context, sess *session.Manager) (string, error) {
	const op = "upstream.refresh"
	c.refreshTotal.Inc()

	refreshToken := sess.RefreshToken(ctx)
	if refreshToken == "" {
		c.refreshFailures.Inc()
		sess.Clear(ctx)
		return "", ErrSessionExpired
	}

	body, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.send(ctx, nil, http.MethodPost, RefreshPath, body, "", "")
	if err != nil {
		c.refreshFailures.Inc()
		sess.Clear(ctx)
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		c.refreshFailures.Inc()
		sess.Clear(ctx)
		c.log.Warn("token refresh rejected by panel API", sl.Status(resp.StatusCode))
		return "", ErrSessionExpired
	}

	var pair TokenPair
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
		c.refreshFailures.Inc()
		sess.Clear(ctx)
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if pair.Token == "" {
		c.refreshFailures.Inc()
		sess.Clear(ctx)
		return "", ErrSessionExpired
	}

	// Сервер ротирует refresh токен на каждом обновлении: сохранить замену
	// обязательно, старый токен больше не действителен.
	persist := sess.Persist()
	sess.SetToken(ctx, pair.Token, persist)
	if pair.RefreshToken != "" {
		sess.SetRefreshToken(ctx, pair.RefreshToken, persist)
	}

	c.log.Info("access token refreshed", slog.String("session_id", sess.ID()))
	return pair.Token, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
