package upstream

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// APIError описывает неуспешный (не 2xx) ответ API панели.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("panel API: %s (status %d)", e.Message, e.StatusCode)
}

// ResponseError строит APIError из неуспешного ответа, забирая сообщение
// из тела ({"message": ...} или {"error": ...}), и закрывает тело.
func ResponseError(resp *http.Response) error {
	defer drain(resp)

	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	message := http.StatusText(resp.StatusCode)
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		if body.Message != "" {
			message = body.Message
		} else if body.Error != "" {
			message = body.Error
		}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: message}
}

// IsStatus сообщает, является ли err ошибкой API с данным статусом.
func IsStatus(err error, statusCode int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == statusCode
}

// Decode закрывает тело ответа и разбирает его JSON в T.
// Неуспешный статус превращается в APIError.
func Decode[T any](resp *http.Response) (T, error) {
	var out T
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return out, ResponseError(resp)
	}
	defer drain(resp)
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("upstream: decode response: %w", err)
	}
	return out, nil
}

// Discard закрывает тело ответа; неуспешный статус превращается в APIError.
// Используется для запросов, тело ответа которых не нужно.
func Discard(resp *http.Response) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ResponseError(resp)
	}
	drain(resp)
	return nil
}
