package models

// Тела запросов консоли. Данные валидируются на стороне шлюза до похода
// во внешний API: обязательные поля, форма e-mail, длина и совпадение
// пароля, границы процентов.

// LoginRequest — вход оператора. Remember включает долговременное
// хранение пары токенов ("запомнить меня").
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Remember bool   `json:"remember"`
}

// CreateUserRequest — регистрация нового пользователя панели.
type CreateUserRequest struct {
	Name            string       `json:"name" validate:"required"`
	Surname         string       `json:"surname" validate:"required"`
	Email           string       `json:"email" validate:"required,email"`
	Username        string       `json:"username" validate:"required,min=3,alphanum"`
	Phone           string       `json:"phone" validate:"omitempty,min=9"`
	Password        string       `json:"password" validate:"required,min=8"`
	PasswordConfirm string       `json:"password_confirm" validate:"required,eqfield=Password"`
	Roles           []string     `json:"roles"`
	InvoiceInfo     *InvoiceInfo `json:"invoiceInfo,omitempty"`
}

// UpdateUserRequest — правка профиля пользователя.
type UpdateUserRequest struct {
	Name        string       `json:"name" validate:"required"`
	Surname     string       `json:"surname" validate:"required"`
	Email       string       `json:"email" validate:"required,email"`
	Username    string       `json:"username" validate:"required,min=3,alphanum"`
	Phone       string       `json:"phone" validate:"omitempty,min=9"`
	Roles       []string     `json:"roles"`
	InvoiceInfo *InvoiceInfo `json:"invoiceInfo,omitempty"`
}

// CheckUsernameRequest — проверка доступности имени пользователя.
// ExcludeUserID исключает самого пользователя при редактировании.
type CheckUsernameRequest struct {
	Username      string `json:"username" validate:"required,min=3"`
	ExcludeUserID *int   `json:"excludeUserId,omitempty"`
}

// ShareholderAssignment — доля участника при создании апартамента.
// Нулевые проценты у всех участников означают "распределить поровну".
type ShareholderAssignment struct {
	UserID  int `json:"user_id" validate:"required"`
	Procent int `json:"procent" validate:"min=0,max=100"`
}

// CreateApartmentRequest — создание апартамента, при необходимости
// вместе с начальным набором долей.
type CreateApartmentRequest struct {
	Name          string                  `json:"name" validate:"required"`
	PriceForClean string                  `json:"priceForClean" validate:"required,numeric"`
	Vat           string                  `json:"vat" validate:"required,numeric"`
	CanFaktura    bool                    `json:"canFaktura"`
	Image         string                  `json:"image,omitempty"` // base64-кодированное изображение
	Shareholders  []ShareholderAssignment `json:"shareholders,omitempty" validate:"omitempty,dive"`
}

// UpdateApartmentRequest — правка апартамента.
type UpdateApartmentRequest struct {
	Name          string `json:"name" validate:"required"`
	PriceForClean string `json:"priceForClean" validate:"required,numeric"`
	Vat           string `json:"vat" validate:"required,numeric"`
	CanFaktura    bool   `json:"canFaktura"`
	Image         string `json:"image,omitempty"`
}

// AddShareholderRequest — добавление участника к апартаменту.
type AddShareholderRequest struct {
	UserID int `json:"user_id" validate:"required"`
}

// AddUserShareRequest — добавление доли пользователю: экран пользователя
// выбирает апартамент и процент, шлюз проверяет правила по полному набору
// долей этого апартамента.
type AddUserShareRequest struct {
	ApartmentID int `json:"apartament" validate:"required"`
	Procent     int `json:"procent" validate:"min=0,max=100"`
}

// UpdateSharePercentRequest — ручная правка процента доли.
type UpdateSharePercentRequest struct {
	Procent int `json:"procent" validate:"min=0,max=100"`
}

// PasswordResetRequestBody — начало восстановления пароля.
type PasswordResetRequestBody struct {
	Email string `json:"email" validate:"required,email"`
}

// PasswordResetVerifyBody — проверка кода восстановления.
type PasswordResetVerifyBody struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required"`
}

// PasswordResetBody — завершение восстановления пароля.
type PasswordResetBody struct {
	Email           string `json:"email" validate:"required,email"`
	Code            string `json:"code" validate:"required"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}
