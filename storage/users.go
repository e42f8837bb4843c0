package storage

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"taskboard/domain"
)

// storedUser is the persistence shape for a user. domain.User tags the hash
// `json:"-"` so it never serializes into an API response; the store has to
// keep it, so it carries its own field set.
type storedUser struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	AvatarURL    string    `json:"avatarUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toStoredUser(u domain.User) storedUser {
	return storedUser{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		AvatarURL:    u.AvatarURL,
		CreatedAt:    u.CreatedAt,
	}
}

func (su storedUser) toDomain() domain.User {
	return domain.User{
		ID:           su.ID,
		Name:         su.Name,
		Email:        su.Email,
		PasswordHash: su.PasswordHash,
		AvatarURL:    su.AvatarURL,
		CreatedAt:    su.CreatedAt,
	}
}

// CreateUser persists a new user. The email index is claimed first with SETNX
// so two concurrent registrations for the same address cannot both succeed.
func (s *Store) CreateUser(ctx context.Context, u domain.User) error {
	ok, err := s.rdb.SetNX(ctx, userEmailKey(u.Email), u.ID, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrEmailTaken
	}
	data, err := json.Marshal(toStoredUser(u))
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, userKey(u.ID), data, 0).Err(); err != nil {
		return err
	}
	return s.rdb.SAdd(ctx, usersKey, u.ID).Err()
}

// FetchUser loads one user by id.
func (s *Store) FetchUser(ctx context.Context, id string) (domain.User, error) {
	var su storedUser
	if err := s.getJSON(ctx, userKey(id), &su); err != nil {
		return domain.User{}, err
	}
	return su.toDomain(), nil
}

// FetchUserByEmail resolves the email index and loads the user.
func (s *Store) FetchUserByEmail(ctx context.Context, email string) (domain.User, error) {
	id, err := s.rdb.Get(ctx, userEmailKey(email)).Result()
	if err == redis.Nil {
		return domain.User{}, ErrNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	return s.FetchUser(ctx, id)
}

// FetchUsers returns every registered user, oldest first.
func (s *Store) FetchUsers(ctx context.Context) ([]domain.User, error) {
	ids, err := s.rdb.SMembers(ctx, usersKey).Result()
	if err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		u, err := s.FetchUser(ctx, id)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

func (s *Store) getJSON(ctx context.Context, key string, dst any) error {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

func (s *Store) setJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, data, 0).Err()
}
