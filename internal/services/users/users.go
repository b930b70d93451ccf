// Package users реализует бизнес-логику экранов пользователей: загрузку
// коллекции из внешнего API, поиск/сортировку/пагинацию и CRUD-операции.
// Коллекция ненадолго кэшируется в redis и сбрасывается при любой мутации.
package users

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/magabrotheeeer/apartment-console/internal/cache"
	"github.com/magabrotheeeer/apartment-console/internal/lib/listing"
	"github.com/magabrotheeeer/apartment-console/internal/lib/roles"
	"github.com/magabrotheeeer/apartment-console/internal/lib/sl"
	"github.com/magabrotheeeer/apartment-console/internal/models"
	"github.com/magabrotheeeer/apartment-console/internal/session"
	"github.com/magabrotheeeer/apartment-console/internal/upstream"
)

// ListCacheKey — ключ кэша коллекции пользователей.
const ListCacheKey = "console:users:list"

const listCacheTTL = 30 * time.Second

// searchDateLayout — формат даты создания в строке поиска списков.
const searchDateLayout = "02.01.2006"

// Service — сервис экранов пользователей.
type Service struct {
	client *upstream.Client
	cache  *cache.Cache
	log    *slog.Logger
}

// New создает сервис пользователей.
func New(client *upstream.Client, c *cache.Cache, log *slog.Logger) *Service {
	return &Service{client: client, cache: c, log: log}
}

// List возвращает страницу пользователей согласно состоянию списка.
func (s *Service) List(ctx context.Context, sess *session.Manager, st listing.State) (listing.Page[models.User], error) {
	const op = "services.users.List"

	all, err := s.fetchAll(ctx, sess)
	if err != nil {
		return listing.Page[models.User]{}, fmt.Errorf("%s: %w", op, err)
	}
	return listing.Apply(all, st, Fields()), nil
}

// Get возвращает одного пользователя по идентификатору.
func (s *Service) Get(ctx context.Context, sess *session.Manager, id int) (*models.User, error) {
	const op = "services.users.Get"

	resp, err := s.client.Get(ctx, sess, "/users/"+strconv.Itoa(id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user, err := upstream.Decode[models.User](resp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &user, nil
}

// Create регистрирует нового пользователя панели.
func (s *Service) Create(ctx context.Context, sess *session.Manager, req models.CreateUserRequest) (*models.User, error) {
	const op = "services.users.Create"

	resp, err := s.client.Post(ctx, sess, "/users/register", req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user, err := upstream.Decode[models.User](resp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx)
	return &user, nil
}

// Update сохраняет правки профиля пользователя.
func (s *Service) Update(ctx context.Context, sess *session.Manager, id int, req models.UpdateUserRequest) error {
	const op = "services.users.Update"

	resp, err := s.client.Put(ctx, sess, "/users/"+strconv.Itoa(id), req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := upstream.Discard(resp); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx)
	return nil
}

// Delete удаляет пользователя.
func (s *Service) Delete(ctx context.Context, sess *session.Manager, id int) error {
	const op = "services.users.Delete"

	resp, err := s.client.Delete(ctx, sess, "/users/"+strconv.Itoa(id))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := upstream.Discard(resp); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx)
	return nil
}

// CheckUsername проверяет доступность имени пользователя.
func (s *Service) CheckUsername(ctx context.Context, sess *session.Manager, req models.CheckUsernameRequest) (bool, error) {
	const op = "services.users.CheckUsername"

	resp, err := s.client.Post(ctx, sess, "/users/check-username", req)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	out, err := upstream.Decode[struct {
		Available bool `json:"available"`
	}](resp)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return out.Available, nil
}

func (s *Service) fetchAll(ctx context.Context, sess *session.Manager) ([]models.User, error) {
	var cached []models.User
	if found, err := s.cache.Get(ctx, ListCacheKey, &cached); err == nil && found {
		return cached, nil
	} else if err != nil {
		s.log.Warn("users list cache read failed", sl.Err(err))
	}

	resp, err := s.client.Get(ctx, sess, "/users")
	if err != nil {
		return nil, err
	}
	col, err := upstream.Decode[models.Collection[models.User]](resp)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, ListCacheKey, col.Members, listCacheTTL); err != nil {
		s.log.Warn("users list cache write failed", sl.Err(err))
	}
	return col.Members, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, ListCacheKey); err != nil {
		s.log.Warn("users list cache invalidation failed", sl.Err(err))
	}
}

// Fields описывает семантику полей пользователя для списочного конвейера:
// поиск по имени, фамилии, почте, идентификатору, ролям, дате создания и
// названиям апартаментов с долями; вкладки по наивысшей роли; сортировка
// по имени (имя + фамилия), почте, имени пользователя и дате создания.
func Fields() listing.Fields[models.User] {
	return listing.Fields[models.User]{
		Search: func(u models.User) []string {
			values := []string{
				u.Name,
				u.Surname,
				u.Email,
				strconv.Itoa(u.ID),
				strings.Join(u.Roles, " "),
				u.CreatedAt.Format(searchDateLayout),
			}
			for _, share := range u.Udzialy {
				if share.Apartment != nil {
					values = append(values, share.Apartment.Name)
				}
			}
			return values
		},
		Tab: func(u models.User, tab string) bool {
			switch tab {
			case roles.RoleAdmin:
				return roles.HighestRole(u.Roles) == roles.LabelAdmin
			case roles.RoleUser:
				return roles.HighestRole(u.Roles) == roles.LabelUser
			}
			return true
		},
		Sort: func(u models.User, field string) listing.Key {
			switch field {
			case "surname":
				return listing.StringKey(u.Surname)
			case "email":
				return listing.StringKey(u.Email)
			case "username":
				return listing.StringKey(u.Username)
			case "createdAt":
				return listing.TimeKey(u.CreatedAt)
			default:
				return listing.StringKey(u.Name + " " + u.Surname)
			}
		},
	}
}
