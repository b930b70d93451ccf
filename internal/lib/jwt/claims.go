// Package jwt реализует разбор JWT токенов, выданных внешним API панели.
//
// Консоль не владеет ключом подписи: токен проверяет сервер панели, клиент
// лишь извлекает из payload данные о пользователе (username, роли, срок
// действия). Поэтому разбор выполняется без проверки подписи, а функция
// Parse никогда не паникует — при любом повреждении токена возвращает nil.
package jwt

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims описывает данные пользователя, хранящиеся в JWT панели.
type Claims struct {
	Username             string   `json:"username"` // Имя пользователя
	Roles                []string `json:"roles"`    // Список ролей, например ROLE_ADMIN
	jwt.RegisteredClaims          // Встроенные стандартные claims JWT (ExpiresAt, IssuedAt и пр.)
}

// Parse разбирает средний (payload) сегмент токена без проверки подписи
// и возвращает Claims. При любом повреждении токена возвращает nil —
// отсутствие идентичности является обычной ветвью управления, не ошибкой.
func Parse(tokenStr string) *Claims {
	if tokenStr == "" {
		return nil
	}
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, &claims); err != nil {
		return nil
	}
	return &claims
}
