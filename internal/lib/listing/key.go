package listing

import (
	"strconv"
	"strings"
	"time"
)

// Key — ключ сортировки: либо строка без учёта регистра, либо число.
// Числовые ключи используются для цен, ставок НДС и дат.
type Key struct {
	str     string
	num     float64
	numeric bool
}

// StringKey возвращает строковый ключ, сравниваемый без учёта регистра.
func StringKey(s string) Key {
	return Key{str: strings.ToLower(s)}
}

// NumberKey разбирает строку в число с плавающей точкой.
// Неразборчивое значение считается нулём.
func NumberKey(raw string) Key {
	n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		n = 0
	}
	return Key{num: n, numeric: true}
}

// TimeKey возвращает ключ по временной метке.
func TimeKey(t time.Time) Key {
	return Key{num: float64(t.UnixNano()), numeric: true}
}

// Less сравнивает два ключа. Числовые ключи сравниваются как числа,
// прочие — лексикографически.
func (k Key) Less(other Key) bool {
	if k.numeric && other.numeric {
		return k.num < other.num
	}
	return k.str < other.str
}
