package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/magabrotheeeer/apartment-console/internal/session"
)

// Get выполняет GET-запрос.
func (c *Client) Get(ctx context.Context, sess *session.Manager, path string) (*http.Response, error) {
	return c.Do(ctx, sess, http.MethodGet, path, nil, "")
}

// Post выполняет POST-запрос с JSON-телом payload (nil — без тела).
func (c *Client) Post(ctx context.Context, sess *session.Manager, path string, payload any) (*http.Response, error) {
	body, err := marshalPayload(payload)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, sess, http.MethodPost, path, body, "")
}

// Put выполняет PUT-запрос с JSON-телом payload (nil — без тела).
func (c *Client) Put(ctx context.Context, sess *session.Manager, path string, payload any) (*http.Response, error) {
	body, err := marshalPayload(payload)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, sess, http.MethodPut, path, body, "")
}

// Delete выполняет DELETE-запрос.
func (c *Client) Delete(ctx context.Context, sess *session.Manager, path string) (*http.Response, error) {
	return c.Do(ctx, sess, http.MethodDelete, path, nil, "")
}

// PostRaw выполняет POST с готовым телом и типом содержимого вызывающего,
// например multipart-загрузку изображения. Тело не сериализуется.
func (c *Client) PostRaw(ctx context.Context, sess *session.Manager, path string, body []byte, contentType string) (*http.Response, error) {
	return c.Do(ctx, sess, http.MethodPost, path, body, contentType)
}

func marshalPayload(payload any) ([]byte, error) {
	if payload == nil {
		return nil, nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("upstream: marshal payload: %w", err)
	}
	return body, nil
}
