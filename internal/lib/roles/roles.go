// Package roles содержит чистые функции ролевой политики консоли.
//
// Политика используется только для отображения навигации и закрытия
// административных маршрутов шлюза. Границей безопасности она не является:
// сервер панели проверяет права на каждом запросе самостоятельно.
package roles

// Маркеры ролей, приходящие в JWT и в профиле пользователя панели.
const (
	RoleAdmin = "ROLE_ADMIN"
	RoleUser  = "ROLE_USER"
)

// Человекочитаемые метки наивысшей роли.
const (
	LabelAdmin = "Admin"
	LabelUser  = "User"
)

// HighestRole возвращает метку наивысшей роли пользователя.
// Admin имеет приоритет над User; для nil или пустого списка
// возвращается наименее привилегированная метка.
func HighestRole(roles []string) string {
	for _, r := range roles {
		if r == RoleAdmin {
			return LabelAdmin
		}
	}
	return LabelUser
}

// IsAdmin сообщает, есть ли у пользователя административная роль.
func IsAdmin(roles []string) bool {
	return HighestRole(roles) == LabelAdmin
}

// HasRole проверяет наличие конкретной роли в списке.
// Для nil-списка всегда false.
func HasRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
