package jwt

import "time"

// ExpiryMargin — запас до истечения токена. Токен, живущий меньше этого
// запаса, считается невалидным: иначе проверка может пройти, а токен
// истечёт, пока запрос идёт по сети.
const ExpiryMargin = 10 * time.Second

// IsValid сообщает, можно ли использовать токен в момент now.
// False для пустого или нечитаемого токена, токена без exp
// и токена, истекающего в пределах ExpiryMargin.
func IsValid(tokenStr string, now time.Time) bool {
	claims := Parse(tokenStr)
	if claims == nil || claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Time.After(now.Add(ExpiryMargin))
}
