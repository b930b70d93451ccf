package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/magabrotheeeer/apartment-console/internal/lib/jwt"
	"github.com/magabrotheeeer/apartment-console/internal/models"
	"github.com/magabrotheeeer/apartment-console/internal/session"
)

// TokenPair — ответ эндпоинтов /login и /token/refresh.
type TokenPair struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

// ErrNoToken — успешный ответ аутентификации без токена.
var ErrNoToken = errors.New("no token in authentication response")

// Login аутентифицирует оператора на сервере панели и сохраняет полученную
// пару токенов в сессии. При persist=true пара зеркалируется в
// долговременное хранилище ("запомнить меня"). Возвращает claims из
// полученного access токена.
func (c *Client) Login(ctx context.Context, sess *session.Manager, username, password string, persist bool) (*jwt.Claims, error) {
	const op = "upstream.Login"

	// Запрос уходит анонимно: 401 здесь означает неверные учётные данные,
	// а не истёкший токен, и протокол обновления запускать нельзя.
	body, err := marshalPayload(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	resp, err := c.Do(ctx, nil, http.MethodPost, "/login", body, "")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := Decode[TokenPair](resp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if pair.Token == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNoToken)
	}

	sess.SetToken(ctx, pair.Token, persist)
	if pair.RefreshToken != "" {
		sess.SetRefreshToken(ctx, pair.RefreshToken, persist)
	}
	return jwt.Parse(pair.Token), nil
}

// Me возвращает полный профиль текущего оператора, включая его удзялы.
func (c *Client) Me(ctx context.Context, sess *session.Manager) (*models.User, error) {
	const op = "upstream.Me"

	resp, err := c.Get(ctx, sess, "/me")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user, err := Decode[models.User](resp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &user, nil
}

// RequestPasswordReset начинает внеполосное восстановление пароля.
// Эндпоинты восстановления не защищены bearer токеном.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	return c.passwordReset(ctx, "/password-reset/request", map[string]string{"email": email})
}

// VerifyPasswordReset проверяет код восстановления.
func (c *Client) VerifyPasswordReset(ctx context.Context, email, code string) error {
	return c.passwordReset(ctx, "/password-reset/verify", map[string]string{
		"email": email,
		"code":  code,
	})
}

// ResetPassword завершает восстановление, устанавливая новый пароль.
func (c *Client) ResetPassword(ctx context.Context, email, code, password string) error {
	return c.passwordReset(ctx, "/password-reset/reset", map[string]string{
		"email":    email,
		"code":     code,
		"password": password,
	})
}

func (c *Client) passwordReset(ctx context.Context, path string, payload map[string]string) error {
	const op = "upstream.passwordReset"

	body, err := marshalPayload(payload)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	resp, err := c.Do(ctx, nil, http.MethodPost, path, body, "")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := Discard(resp); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
