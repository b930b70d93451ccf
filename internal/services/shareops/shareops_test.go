package shareops

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/apartment-console/internal/cache"
	"github.com/magabrotheeeer/apartment-console/internal/lib/shares"
	"github.com/magabrotheeeer/apartment-console/internal/models"
	"github.com/magabrotheeeer/apartment-console/internal/session"
	"github.com/magabrotheeeer/apartment-console/internal/upstream"
)

func newTestService(t *testing.T, upstreamURL string) (*Service, *session.Manager) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := upstream.New(upstreamURL, 5*time.Second, prometheus.NewRegistry(), log)
	sess := session.NewManager("test-session", session.NullStore{}, log)
	sess.SetToken(context.Background(), testToken(t), false)
	c := &cache.Cache{Db: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	return New(client, c, log), sess
}

// testToken подписывает JWT с часом жизни: клиент панели проверяет
// срок действия токена перед каждым запросом.
func testToken(t *testing.T) string {
	t.Helper()
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"username": "console",
		"exp":      time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

// fixtureApartment — апартамент с двумя участниками по 50 процентов.
func fixtureApartment() models.Apartment {
	return models.Apartment{
		ID:   5,
		Name: "Seaside",
		Udzialy: []models.Share{
			{ID: 100, Procent: "50.00", User: &models.User{ID: 1, Name: "Anna"}},
			{ID: 101, Procent: "50.00", User: &models.User{ID: 2, Name: "Piotr"}},
		},
	}
}

func apartmentEndpoint(t *testing.T, apartment func() models.Apartment) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(apartment()))
	}
}

func TestAddShareholder_RebalancesAndSavesBulk(t *testing.T) {
	var saved models.BulkSharesRequest
	var bulkCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("GET /apartments/5", apartmentEndpoint(t, fixtureApartment))
	mux.HandleFunc("PUT /udzialy/apartment/5", func(w http.ResponseWriter, r *http.Request) {
		bulkCalls.Add(1)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&saved))
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	svc, sess := newTestService(t, srv.URL)

	apartment, err := svc.AddShareholder(context.Background(), sess, 5, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, apartment.ID)

	require.EqualValues(t, 1, bulkCalls.Load())
	require.Len(t, saved.Udzialy, 3)
	assert.Equal(t, models.ShareAssignment{UserID: 1, Procent: 34}, saved.Udzialy[0])
	assert.Equal(t, models.ShareAssignment{UserID: 2, Procent: 33}, saved.Udzialy[1])
	assert.Equal(t, models.ShareAssignment{UserID: 3, Procent: 33}, saved.Udzialy[2])
}

func TestAddShareholder_DuplicateRejectedWithoutNetworkWrite(t *testing.T) {
	var bulkCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("GET /apartments/5", apartmentEndpoint(t, fixtureApartment))
	mux.HandleFunc("PUT /udzialy/apartment/5", func(w http.ResponseWriter, r *http.Request) {
		bulkCalls.Add(1)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	svc, sess := newTestService(t, srv.URL)

	_, err := svc.AddShareholder(context.Background(), sess, 5, 1)
	require.ErrorIs(t, err, shares.ErrAlreadyParticipant)
	assert.EqualValues(t, 0, bulkCalls.Load(), "при отказе набор долей не должен сохраняться")
}

func TestUpdatePercentage_AcceptsWithinLimit(t *testing.T) {
	var updated models.UpdateShareRequest
	var putCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("GET /apartments/5", apartmentEndpoint(t, fixtureApartment))
	mux.HandleFunc("PUT /udzialy/100", func(w http.ResponseWriter, r *http.Request) {
		putCalls.Add(1)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&updated))
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	svc, sess := newTestService(t, srv.URL)

	// 40 + 50 = 90: недобор до 100 допустим.
	_, err := svc.UpdatePercentage(context.Background(), sess, 5, 100, 40)
	require.NoError(t, err)
	require.EqualValues(t, 1, putCalls.Load())
	assert.Equal(t, 40, updated.Procent)
}

func TestUpdatePercentage_RejectsOverAllocation(t *testing.T) {
	var putCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("GET /apartments/5", apartmentEndpoint(t, fixtureApartment))
	mux.HandleFunc("PUT /udzialy/100", func(w http.ResponseWriter, r *http.Request) {
		putCalls.Add(1)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	svc, sess := newTestService(t, srv.URL)

	// 51 + 50 превышает 100 — значение отклоняется до похода в API.
	_, err := svc.UpdatePercentage(context.Background(), sess, 5, 100, 51)
	require.ErrorIs(t, err, shares.ErrOverAllocated)
	assert.EqualValues(t, 0, putCalls.Load())
}

func TestUpdatePercentage_UnknownShare(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /apartments/5", apartmentEndpoint(t, fixtureApartment))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	svc, sess := newTestService(t, srv.URL)

	_, err := svc.UpdatePercentage(context.Background(), sess, 5, 999, 10)
	require.ErrorIs(t, err, shares.ErrNotFound)
}

func TestRemoveShareholder_DoesNotRebalance(t *testing.T) {
	var deleteCalls, bulkCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("GET /apartments/5", apartmentEndpoint(t, fixtureApartment))
	mux.HandleFunc("DELETE /udzialy/100", func(w http.ResponseWriter, r *http.Request) {
		deleteCalls.Add(1)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("PUT /udzialy/apartment/5", func(w http.ResponseWriter, r *http.Request) {
		bulkCalls.Add(1)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	svc, sess := newTestService(t, srv.URL)

	_, err := svc.RemoveShareholder(context.Background(), sess, 5, 100)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleteCalls.Load())
	assert.EqualValues(t, 0, bulkCalls.Load(),
		"удаление не перераспределяет проценты оставшихся участников")
}

// fixtureUser — пользователь 1 с долей 100 в апартаменте 5.
func fixtureUser() models.User {
	return models.User{
		ID:   1,
		Name: "Anna",
		Udzialy: []models.Share{
			{ID: 100, Procent: "50.00", Apartment: &models.Apartment{ID: 5, Name: "Seaside"}},
		},
	}
}

func userEndpoint(t *testing.T, user func() models.User) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(user()))
	}
}

func TestAddUserShare_PostsWithinFreeAllocation(t *testing.T) {
	var created models.CreateShareRequest
	var postCalls atomic.Int32

	mux := http.NewServeMux()
	// 40 + 30: до 100 свободно ещё 30 процентов.
	mux.HandleFunc("GET /apartments/5", apartmentEndpoint(t, func() models.Apartment {
		a := fixtureApartment()
		a.Udzialy[0].Procent = "40.00"
		a.Udzialy[1].Procent = "30.00"
		return a
	}))
	mux.HandleFunc("GET /users/3", userEndpoint(t, func() models.User {
		return models.User{ID: 3, Name: "Maria"}
	}))
	mux.HandleFunc("POST /udzialy", func(w http.ResponseWriter, r *http.Request) {
		postCalls.Add(1)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
		w.WriteHeader(http.StatusCreated)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	svc, sess := newTestService(t, srv.URL)

	user, err := svc.AddUserShare(context.Background(), sess, 3, 5, 30)
	require.NoError(t, err)
	assert.Equal(t, 3, user.ID)
	require.EqualValues(t, 1, postCalls.Load())
	assert.Equal(t, models.CreateShareRequest{UserID: 3, ApartmentID: 5, Procent: 30}, created)
}

func TestAddUserShare_RejectsOverAllocation(t *testing.T) {
	var postCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("GET /apartments/5", apartmentEndpoint(t, fixtureApartment))
	mux.HandleFunc("POST /udzialy", func(w http.ResponseWriter, r *http.Request) {
		postCalls.Add(1)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	svc, sess := newTestService(t, srv.URL)

	// Апартамент уже распределён полностью: 50 + 50.
	_, err := svc.AddUserShare(context.Background(), sess, 3, 5, 1)
	require.ErrorIs(t, err, shares.ErrOverAllocated)
	assert.EqualValues(t, 0, postCalls.Load())
}

func TestAddUserShare_DuplicateRejected(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /apartments/5", apartmentEndpoint(t, fixtureApartment))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	svc, sess := newTestService(t, srv.URL)

	_, err := svc.AddUserShare(context.Background(), sess, 1, 5, 0)
	require.ErrorIs(t, err, shares.ErrAlreadyParticipant)
}

func TestUpdateUserShare_ChecksApartmentTotal(t *testing.T) {
	var updated models.UpdateShareRequest
	var putCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/1", userEndpoint(t, fixtureUser))
	mux.HandleFunc("GET /apartments/5", apartmentEndpoint(t, fixtureApartment))
	mux.HandleFunc("PUT /udzialy/100", func(w http.ResponseWriter, r *http.Request) {
		putCalls.Add(1)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&updated))
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	svc, sess := newTestService(t, srv.URL)

	// 51 + 50 превысило бы 100 по апартаменту доли.
	_, err := svc.UpdateUserShare(context.Background(), sess, 1, 100, 51)
	require.ErrorIs(t, err, shares.ErrOverAllocated)
	assert.EqualValues(t, 0, putCalls.Load())

	user, err := svc.UpdateUserShare(context.Background(), sess, 1, 100, 40)
	require.NoError(t, err)
	assert.Equal(t, 1, user.ID)
	require.EqualValues(t, 1, putCalls.Load())
	assert.Equal(t, 40, updated.Procent)
}

func TestUpdateUserShare_UnknownShare(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/1", userEndpoint(t, fixtureUser))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	svc, sess := newTestService(t, srv.URL)

	_, err := svc.UpdateUserShare(context.Background(), sess, 1, 999, 10)
	require.ErrorIs(t, err, shares.ErrNotFound)
}

func TestRemoveUserShare_DeletesWithoutRebalance(t *testing.T) {
	var deleteCalls, bulkCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/1", userEndpoint(t, fixtureUser))
	mux.HandleFunc("DELETE /udzialy/100", func(w http.ResponseWriter, r *http.Request) {
		deleteCalls.Add(1)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("PUT /udzialy/apartment/5", func(w http.ResponseWriter, r *http.Request) {
		bulkCalls.Add(1)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	svc, sess := newTestService(t, srv.URL)

	_, err := svc.RemoveUserShare(context.Background(), sess, 1, 100)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleteCalls.Load())
	assert.EqualValues(t, 0, bulkCalls.Load())
}

func TestRemoveUserShare_ForeignShareRejected(t *testing.T) {
	var deleteCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/1", userEndpoint(t, fixtureUser))
	mux.HandleFunc("DELETE /udzialy/777", func(w http.ResponseWriter, r *http.Request) {
		deleteCalls.Add(1)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	svc, sess := newTestService(t, srv.URL)

	// Доля 777 не принадлежит пользователю 1 — удаление не доходит до API.
	_, err := svc.RemoveUserShare(context.Background(), sess, 1, 777)
	require.ErrorIs(t, err, shares.ErrNotFound)
	assert.EqualValues(t, 0, deleteCalls.Load())
}
