package models

import (
	"strconv"
	"time"
)

// Apartment представляет апартамент панели.
//
// Цена уборки и ставка НДС приходят от API строками; при сортировке
// и поиске они разбираются в числа на стороне консоли.
type Apartment struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	PriceForClean string    `json:"priceForClean"` // Цена уборки
	Vat           string    `json:"vat"`           // Ставка НДС в процентах
	CanFaktura    bool      `json:"canFaktura"`    // Можно ли выставлять счёт-фактуру
	Picture       string    `json:"picture"`       // Относительный путь к изображению
	CreatedAt     time.Time `json:"createdAt"`

	// Udzialy — доли владения, привязанные к апартаменту.
	Udzialy []Share `json:"udzialy,omitempty"`
}

// SharesTotal возвращает сумму процентов долей апартамента.
// Невалидные проценты считаются нулём.
func (a *Apartment) SharesTotal() int {
	total := 0
	for _, u := range a.Udzialy {
		if v, err := strconv.ParseFloat(u.Procent, 64); err == nil {
			total += int(v)
		}
	}
	return total
}

// SharesBalanced сообщает, равна ли сумма долей ровно 100. Недобор не
// блокирует операции, но подсвечивается на экранах консоли.
func (a *Apartment) SharesBalanced() bool {
	return a.SharesTotal() == 100
}
