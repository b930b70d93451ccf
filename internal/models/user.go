// Package models содержит доменные структуры панели управления апартаментами:
// пользователей, апартаменты и удзялы (доли владения). Структуры описывают
// JSON-формат внешнего API — консоль не владеет их хранением, все записи
// живут на сервере панели и загружаются по требованию.
package models

import "time"

// User представляет пользователя панели: данные учётной записи,
// список ролей и доли владения апартаментами.
type User struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Surname   string    `json:"surname"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Phone     string    `json:"phone"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"createdAt"`

	// InvoiceInfo — необязательный профиль для выставления счетов.
	InvoiceInfo *InvoiceInfo `json:"invoiceInfo,omitempty"`

	// Udzialy — доли владения апартаментами, принадлежащие пользователю.
	Udzialy []Share `json:"udzialy,omitempty"`
}

// InvoiceInfo описывает реквизиты пользователя для счетов-фактур.
type InvoiceInfo struct {
	Country      string `json:"country"`
	City         string `json:"city"`
	CompanyName  string `json:"companyName"`
	NIP          string `json:"nip"` // Налоговый идентификатор
	Address      string `json:"address"`
	InvoiceEmail string `json:"invoiceEmail"`
}
