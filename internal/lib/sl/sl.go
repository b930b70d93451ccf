// Package sl содержит вспомогательные функции для работы с логгером slog.
// Основная цель — упростить формирование структурированных полей лога,
// например, для передачи информации об ошибках и HTTP-статусах.
package sl

import "log/slog"

// Err возвращает slog.Attr с ключом "error" и значением текста ошибки.
// Удобно использовать в логировании для единообразного вывода ошибок.
//
// Пример:
//
//	log.Error("failed to do something", sl.Err(err))
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Status возвращает slog.Attr с ключом "status" и HTTP-статусом ответа.
// Используется при логировании запросов к внешнему API.
func Status(code int) slog.Attr {
	return slog.Attr{
		Key:   "status",
		Value: slog.IntValue(code),
	}
}
