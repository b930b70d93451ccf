// Package shareops реализует операции над долями владения в двух разрезах:
// апартамента (добавление участника с равным перераспределением, ручная
// правка процента, удаление без перераспределения) и пользователя
// (набор долей одного пользователя по разным апартаментам). Правила одни
// и те же и всегда проверяются по полному набору долей апартамента.
package shareops

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/magabrotheeeer/apartment-console/internal/cache"
	"github.com/magabrotheeeer/apartment-console/internal/lib/shares"
	"github.com/magabrotheeeer/apartment-console/internal/lib/sl"
	"github.com/magabrotheeeer/apartment-console/internal/models"
	"github.com/magabrotheeeer/apartment-console/internal/services/apartments"
	"github.com/magabrotheeeer/apartment-console/internal/services/users"
	"github.com/magabrotheeeer/apartment-console/internal/session"
	"github.com/magabrotheeeer/apartment-console/internal/upstream"
)

// Service — сервис операций над долями.
type Service struct {
	client *upstream.Client
	cache  *cache.Cache
	log    *slog.Logger
}

// New создает сервис долей.
func New(client *upstream.Client, c *cache.Cache, log *slog.Logger) *Service {
	return &Service{client: client, cache: c, log: log}
}

// AddShareholder добавляет участника к апартаменту и перераспределяет
// проценты поровну между всеми участниками. Полный набор долей сохраняется
// одним массовым запросом, поэтому промежуточных неполных состояний на
// сервере не возникает.
func (s *Service) AddShareholder(ctx context.Context, sess *session.Manager, apartmentID, userID int) (*models.Apartment, error) {
	const op = "services.shareops.AddShareholder"

	apartment, err := s.fetchApartment(ctx, sess, apartmentID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	set := buildSet(apartment.Udzialy)
	if err := set.Add(userID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.saveSet(ctx, sess, apartmentID, set); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx)
	return s.refetch(ctx, sess, apartmentID, op)
}

// UpdatePercentage вручную задаёт процент одной доли. Новое значение
// принимается, только если сумма всех долей апартамента не превысит 100;
// недобор до 100 допустим.
func (s *Service) UpdatePercentage(ctx context.Context, sess *session.Manager, apartmentID, shareID, percent int) (*models.Apartment, error) {
	const op = "services.shareops.UpdatePercentage"

	apartment, err := s.fetchApartment(ctx, sess, apartmentID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	userID, found := participantOf(apartment.Udzialy, shareID)
	if !found {
		return nil, fmt.Errorf("%s: %w", op, shares.ErrNotFound)
	}
	set := buildSet(apartment.Udzialy)
	if err := set.SetPercentage(userID, percent); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := s.client.Put(ctx, sess, "/udzialy/"+strconv.Itoa(shareID), models.UpdateShareRequest{Procent: percent})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := upstream.Discard(resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx)
	return s.refetch(ctx, sess, apartmentID, op)
}

// RemoveShareholder удаляет долю. Проценты остальных участников не
// трогаются: администратор перераспределяет их вручную, а Balanced на
// экране подсвечивает недобор.
func (s *Service) RemoveShareholder(ctx context.Context, sess *session.Manager, apartmentID, shareID int) (*models.Apartment, error) {
	const op = "services.shareops.RemoveShareholder"

	resp, err := s.client.Delete(ctx, sess, "/udzialy/"+strconv.Itoa(shareID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := upstream.Discard(resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx)
	return s.refetch(ctx, sess, apartmentID, op)
}

// AddUserShare добавляет пользователю долю в апартаменте apartmentID с
// заданным процентом. Дубликат отклоняется, превышение 100 процентов по
// апартаменту — тоже; нулевой процент допустим, администратор задаёт его
// позже вручную.
func (s *Service) AddUserShare(ctx context.Context, sess *session.Manager, userID, apartmentID, percent int) (*models.User, error) {
	const op = "services.shareops.AddUserShare"

	apartment, err := s.fetchApartment(ctx, sess, apartmentID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	set := buildSet(apartment.Udzialy)
	if set.Contains(userID) {
		return nil, fmt.Errorf("%s: %w", op, shares.ErrAlreadyParticipant)
	}
	grown := shares.NewSet(append(set.Entries(), shares.Entry{ParticipantID: userID}))
	if err := grown.SetPercentage(userID, percent); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := s.client.Post(ctx, sess, "/udzialy", models.CreateShareRequest{
		UserID:      userID,
		ApartmentID: apartmentID,
		Procent:     percent,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := upstream.Discard(resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx)
	return s.refetchUser(ctx, sess, userID, op)
}

// UpdateUserShare вручную задаёт процент одной доли пользователя.
// Предел суммы проверяется по апартаменту этой доли — тем же набором,
// что и на его собственном экране.
func (s *Service) UpdateUserShare(ctx context.Context, sess *session.Manager, userID, shareID, percent int) (*models.User, error) {
	const op = "services.shareops.UpdateUserShare"

	user, err := s.fetchUser(ctx, sess, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	share, found := shareOf(user.Udzialy, shareID)
	if !found || share.Apartment == nil {
		return nil, fmt.Errorf("%s: %w", op, shares.ErrNotFound)
	}

	apartment, err := s.fetchApartment(ctx, sess, share.Apartment.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	set := buildSet(apartment.Udzialy)
	if err := set.SetPercentage(userID, percent); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := s.client.Put(ctx, sess, "/udzialy/"+strconv.Itoa(shareID), models.UpdateShareRequest{Procent: percent})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := upstream.Discard(resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx)
	return s.refetchUser(ctx, sess, userID, op)
}

// RemoveUserShare удаляет долю пользователя. Чужая доля отклоняется до
// похода в API; проценты оставшихся участников не перераспределяются.
func (s *Service) RemoveUserShare(ctx context.Context, sess *session.Manager, userID, shareID int) (*models.User, error) {
	const op = "services.shareops.RemoveUserShare"

	user, err := s.fetchUser(ctx, sess, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, found := shareOf(user.Udzialy, shareID); !found {
		return nil, fmt.Errorf("%s: %w", op, shares.ErrNotFound)
	}

	resp, err := s.client.Delete(ctx, sess, "/udzialy/"+strconv.Itoa(shareID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := upstream.Discard(resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx)
	return s.refetchUser(ctx, sess, userID, op)
}

func (s *Service) fetchApartment(ctx context.Context, sess *session.Manager, id int) (*models.Apartment, error) {
	resp, err := s.client.Get(ctx, sess, "/apartments/"+strconv.Itoa(id))
	if err != nil {
		return nil, err
	}
	apartment, err := upstream.Decode[models.Apartment](resp)
	if err != nil {
		return nil, err
	}
	return &apartment, nil
}

func (s *Service) refetch(ctx context.Context, sess *session.Manager, apartmentID int, op string) (*models.Apartment, error) {
	apartment, err := s.fetchApartment(ctx, sess, apartmentID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return apartment, nil
}

func (s *Service) fetchUser(ctx context.Context, sess *session.Manager, id int) (*models.User, error) {
	resp, err := s.client.Get(ctx, sess, "/users/"+strconv.Itoa(id))
	if err != nil {
		return nil, err
	}
	user, err := upstream.Decode[models.User](resp)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Service) refetchUser(ctx context.Context, sess *session.Manager, userID int, op string) (*models.User, error) {
	user, err := s.fetchUser(ctx, sess, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

func (s *Service) saveSet(ctx context.Context, sess *session.Manager, apartmentID int, set *shares.Set) error {
	body := models.BulkSharesRequest{}
	for _, e := range set.Entries() {
		body.Udzialy = append(body.Udzialy, models.ShareAssignment{
			UserID:  e.ParticipantID,
			Procent: e.Percentage,
		})
	}
	resp, err := s.client.Put(ctx, sess, "/udzialy/apartment/"+strconv.Itoa(apartmentID), body)
	if err != nil {
		return err
	}
	return upstream.Discard(resp)
}

// Мутация долей меняет и апартаменты, и вложенные удзялы пользователей.
func (s *Service) invalidate(ctx context.Context) {
	for _, key := range []string{apartments.ListCacheKey, users.ListCacheKey} {
		if err := s.cache.Invalidate(ctx, key); err != nil {
			s.log.Warn("list cache invalidation failed", slog.String("key", key), sl.Err(err))
		}
	}
}

// buildSet строит набор долей из данных API. Процент приходит строкой и
// может быть дробным; дробная часть отбрасывается.
func buildSet(udzialy []models.Share) *shares.Set {
	entries := make([]shares.Entry, 0, len(udzialy))
	for _, u := range udzialy {
		if u.User == nil {
			continue
		}
		entries = append(entries, shares.Entry{
			ParticipantID: u.User.ID,
			Percentage:    parsePercent(u.Procent),
		})
	}
	return shares.NewSet(entries)
}

func shareOf(udzialy []models.Share, shareID int) (models.Share, bool) {
	for _, u := range udzialy {
		if u.ID == shareID {
			return u, true
		}
	}
	return models.Share{}, false
}

func participantOf(udzialy []models.Share, shareID int) (int, bool) {
	for _, u := range udzialy {
		if u.ID == shareID && u.User != nil {
			return u.User.ID, true
		}
	}
	return 0, false
}

func parsePercent(raw string) int {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return int(v)
}
