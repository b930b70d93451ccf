package models

// Share (удзял) связывает пользователя и апартамент процентной долей
// владения. Сумма долей одного апартамента должна равняться 100, но это
// инвариант уровня консоли: API позволяет сохранить и другое значение,
// консоль лишь предупреждает.
type Share struct {
	ID      int    `json:"id"`
	Procent string `json:"procent"` // Процент владения, 0–100

	// В ответе /users доля содержит апартамент, в ответе /apartments —
	// пользователя. Отсутствующая сторона остаётся nil.
	User      *User      `json:"user,omitempty"`
	Apartment *Apartment `json:"apartment,omitempty"`
}

// CreateShareRequest — тело запроса POST /udzialy.
type CreateShareRequest struct {
	UserID      int `json:"user"`
	ApartmentID int `json:"apartament"`
	Procent     int `json:"procent"`
}

// UpdateShareRequest — тело запроса PUT /udzialy/{id}.
type UpdateShareRequest struct {
	Procent int `json:"procent"`
}

// ShareAssignment — одна доля в массовом обновлении долей апартамента.
type ShareAssignment struct {
	UserID  int `json:"user"`
	Procent int `json:"procent"`
}

// BulkSharesRequest — тело запроса PUT /udzialy/apartment/{id}:
// полный набор долей апартамента одним вызовом.
type BulkSharesRequest struct {
	Udzialy []ShareAssignment `json:"udzialy"`
}
