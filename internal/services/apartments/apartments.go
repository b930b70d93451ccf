// Package apartments реализует бизнес-логику экранов апартаментов:
// коллекцию с поиском/вкладками/сортировкой, CRUD и создание апартамента
// вместе с начальным набором долей владения.
package apartments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/magabrotheeeer/apartment-console/internal/cache"
	"github.com/magabrotheeeer/apartment-console/internal/lib/listing"
	"github.com/magabrotheeeer/apartment-console/internal/lib/shares"
	"github.com/magabrotheeeer/apartment-console/internal/lib/sl"
	"github.com/magabrotheeeer/apartment-console/internal/models"
	"github.com/magabrotheeeer/apartment-console/internal/session"
	"github.com/magabrotheeeer/apartment-console/internal/upstream"
)

// ListCacheKey — ключ кэша коллекции апартаментов.
const ListCacheKey = "console:apartments:list"

const listCacheTTL = 30 * time.Second

const searchDateLayout = "02.01.2006"

// Вкладки списка апартаментов.
const (
	TabCanInvoice    = "canInvoice"
	TabCannotInvoice = "cannotInvoice"
)

// ErrShareAssignment — апартамент создан, но назначить доли не удалось.
// Обёрнутая ошибка содержит причину первого неудачного назначения;
// вызывающая сторона должна показать частичный успех, а не откат.
var ErrShareAssignment = errors.New("apartment created but share assignment failed")

// Service — сервис экранов апартаментов.
type Service struct {
	client *upstream.Client
	cache  *cache.Cache
	log    *slog.Logger
}

// New создает сервис апартаментов.
func New(client *upstream.Client, c *cache.Cache, log *slog.Logger) *Service {
	return &Service{client: client, cache: c, log: log}
}

// List возвращает страницу апартаментов согласно состоянию списка.
func (s *Service) List(ctx context.Context, sess *session.Manager, st listing.State) (listing.Page[models.Apartment], error) {
	const op = "services.apartments.List"

	all, err := s.fetchAll(ctx, sess)
	if err != nil {
		return listing.Page[models.Apartment]{}, fmt.Errorf("%s: %w", op, err)
	}
	return listing.Apply(all, st, Fields()), nil
}

// Get возвращает один апартамент вместе с его долями.
func (s *Service) Get(ctx context.Context, sess *session.Manager, id int) (*models.Apartment, error) {
	const op = "services.apartments.Get"

	resp, err := s.client.Get(ctx, sess, "/apartments/"+strconv.Itoa(id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	apartment, err := upstream.Decode[models.Apartment](resp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &apartment, nil
}

// Create создаёт апартамент и, если переданы участники, назначает им доли.
// Проценты 0 у всех участников означают равное распределение. Если сам
// апартамент создан, а назначение долей не удалось, возвращаются созданный
// апартамент и ErrShareAssignment: операция не атомарна, и скрывать уже
// случившееся создание нельзя.
func (s *Service) Create(ctx context.Context, sess *session.Manager, req models.CreateApartmentRequest) (*models.Apartment, error) {
	const op = "services.apartments.Create"

	shareholders := req.Shareholders
	req.Shareholders = nil

	resp, err := s.client.Post(ctx, sess, "/apartments", req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	created, err := upstream.Decode[struct {
		Apartment models.Apartment `json:"apartment"`
	}](resp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	apartment := created.Apartment
	s.invalidate(ctx)

	if len(shareholders) == 0 {
		return &apartment, nil
	}

	if err := s.assignShares(ctx, sess, apartment.ID, shareholders); err != nil {
		s.log.Error("share assignment after apartment creation failed",
			slog.Int("apartment_id", apartment.ID), sl.Err(err))
		return &apartment, fmt.Errorf("%s: %w: %w", op, ErrShareAssignment, err)
	}
	return &apartment, nil
}

// UploadPicture передаёт изображение апартамента во внешний API как есть,
// с типом содержимого вызывающего (multipart проходит без пересборки).
func (s *Service) UploadPicture(ctx context.Context, sess *session.Manager, id int, body []byte, contentType string) error {
	const op = "services.apartments.UploadPicture"

	resp, err := s.client.PostRaw(ctx, sess, "/apartments/"+strconv.Itoa(id)+"/picture", body, contentType)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := upstream.Discard(resp); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx)
	return nil
}

// Update сохраняет правки апартамента.
func (s *Service) Update(ctx context.Context, sess *session.Manager, id int, req models.UpdateApartmentRequest) error {
	const op = "services.apartments.Update"

	resp, err := s.client.Put(ctx, sess, "/apartments/"+strconv.Itoa(id), req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := upstream.Discard(resp); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx)
	return nil
}

// Delete удаляет апартамент.
func (s *Service) Delete(ctx context.Context, sess *session.Manager, id int) error {
	const op = "services.apartments.Delete"

	resp, err := s.client.Delete(ctx, sess, "/apartments/"+strconv.Itoa(id))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := upstream.Discard(resp); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) assignShares(ctx context.Context, sess *session.Manager, apartmentID int, shareholders []models.ShareholderAssignment) error {
	assignments := resolvePercentages(shareholders)

	for _, a := range assignments {
		body := models.CreateShareRequest{
			UserID:      a.UserID,
			ApartmentID: apartmentID,
			Procent:     a.Procent,
		}
		resp, err := s.client.Post(ctx, sess, "/udzialy", body)
		if err != nil {
			return err
		}
		if err := upstream.Discard(resp); err != nil {
			return err
		}
	}
	return nil
}

// resolvePercentages превращает назначения формы в итоговые проценты.
// Если все проценты нулевые, доли распределяются поровну через shares.Set;
// иначе введённые администратором значения уходят как есть.
func resolvePercentages(shareholders []models.ShareholderAssignment) []models.ShareAssignment {
	even := true
	for _, sh := range shareholders {
		if sh.Procent != 0 {
			even = false
			break
		}
	}

	out := make([]models.ShareAssignment, 0, len(shareholders))
	if !even {
		for _, sh := range shareholders {
			out = append(out, models.ShareAssignment{UserID: sh.UserID, Procent: sh.Procent})
		}
		return out
	}

	set := shares.NewSet(nil)
	for _, sh := range shareholders {
		_ = set.Add(sh.UserID) // дубликаты отсечены валидацией формы
	}
	for _, e := range set.Entries() {
		out = append(out, models.ShareAssignment{UserID: e.ParticipantID, Procent: e.Percentage})
	}
	return out
}

func (s *Service) fetchAll(ctx context.Context, sess *session.Manager) ([]models.Apartment, error) {
	var cached []models.Apartment
	if found, err := s.cache.Get(ctx, ListCacheKey, &cached); err == nil && found {
		return cached, nil
	} else if err != nil {
		s.log.Warn("apartments list cache read failed", sl.Err(err))
	}

	resp, err := s.client.Get(ctx, sess, "/apartments")
	if err != nil {
		return nil, err
	}
	col, err := upstream.Decode[models.Collection[models.Apartment]](resp)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, ListCacheKey, col.Members, listCacheTTL); err != nil {
		s.log.Warn("apartments list cache write failed", sl.Err(err))
	}
	return col.Members, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, ListCacheKey); err != nil {
		s.log.Warn("apartments list cache invalidation failed", sl.Err(err))
	}
}

// Fields описывает семантику полей апартамента для списочного конвейера.
// Цена и НДС приходят строками, поэтому сортируются числовым ключом.
func Fields() listing.Fields[models.Apartment] {
	return listing.Fields[models.Apartment]{
		Search: func(a models.Apartment) []string {
			return []string{
				a.Name,
				strconv.Itoa(a.ID),
				a.PriceForClean,
				a.Vat,
				a.CreatedAt.Format(searchDateLayout),
			}
		},
		Tab: func(a models.Apartment, tab string) bool {
			switch tab {
			case TabCanInvoice:
				return a.CanFaktura
			case TabCannotInvoice:
				return !a.CanFaktura
			}
			return true
		},
		Sort: func(a models.Apartment, field string) listing.Key {
			switch field {
			case "priceForClean":
				return listing.NumberKey(a.PriceForClean)
			case "vat":
				return listing.NumberKey(a.Vat)
			case "createdAt":
				return listing.TimeKey(a.CreatedAt)
			default:
				return listing.StringKey(a.Name)
			}
		},
	}
}
