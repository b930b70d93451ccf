package useradd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/apartment-console/internal/http/middlewarectx"
	"github.com/magabrotheeeer/apartment-console/internal/lib/shares"
	"github.com/magabrotheeeer/apartment-console/internal/models"
	"github.com/magabrotheeeer/apartment-console/internal/session"
)

type UserShareServiceMock struct {
	mock.Mock
}

func (m *UserShareServiceMock) AddUserShare(ctx context.Context, sess *session.Manager, userID, apartmentID, percent int) (*models.User, error) {
	args := m.Called(ctx, sess, userID, apartmentID, percent)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newRouter(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Post("/users/{id}/shares", New(newNoopLogger(), svc).ServeHTTP)
	return r
}

func newRequest(t *testing.T, target string, body any) *http.Request {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	sess := session.NewManager("test-session", session.NullStore{}, newNoopLogger())
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(payload))
	ctx := context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123")
	ctx = context.WithValue(ctx, middlewarectx.Session, sess)
	return req.WithContext(ctx)
}

func TestUserAddHandler_Success(t *testing.T) {
	svc := new(UserShareServiceMock)
	svc.On("AddUserShare", mock.Anything, mock.Anything, 3, 5, 30).
		Return(&models.User{ID: 3, Name: "Maria"}, nil).Once()

	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, newRequest(t, "/users/3/shares",
		models.AddUserShareRequest{ApartmentID: 5, Procent: 30}))

	assert.Equal(t, http.StatusCreated, rec.Code)

	var got map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "OK", got["status"])

	data, ok := got["data"].(map[string]any)
	require.True(t, ok)
	user, ok := data["user"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 3, user["id"])

	svc.AssertExpectations(t)
}

func TestUserAddHandler_OverAllocation(t *testing.T) {
	svc := new(UserShareServiceMock)
	svc.On("AddUserShare", mock.Anything, mock.Anything, 3, 5, 60).
		Return(nil, shares.ErrOverAllocated).Once()

	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, newRequest(t, "/users/3/shares",
		models.AddUserShareRequest{ApartmentID: 5, Procent: 60}))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var got map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "Error", got["status"])
	assert.Equal(t, shares.ErrOverAllocated.Error(), got["error"])
}

func TestUserAddHandler_MissingApartment(t *testing.T) {
	svc := new(UserShareServiceMock)

	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, newRequest(t, "/users/3/shares", map[string]any{"procent": 10}))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	svc.AssertNotCalled(t, "AddUserShare")
}
