package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/lexbridge/internal/dbx"
)

const (
	KeyAccessToken          = "access_token"
	KeyRefreshToken         = "refresh_token"
	KeyRole                 = "role"
	KeyUser                 = "user"
	KeyQuestionnaireSession = "questionnaire_session"
)

type Store struct {
	db   *sql.DB
	meta *Metadata
}

func New(db *sql.DB) *Store {
	return &Store{db: db, meta: NewMetadata(db)}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Tokens returns empty strings when nobody is signed in.
func (s *Store) Tokens(ctx context.Context) (access, refresh string, err error) {
	a, err := s.meta.Get(ctx, KeyAccessToken)
	if err != nil {
		return "", "", err
	}
	r, err := s.meta.Get(ctx, KeyRefreshToken)
	if err != nil {
		return "", "", err
	}
	return string(a), string(r), nil
}

func (s *Store) SetTokens(ctx context.Context, access, refresh string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		m := NewMetadata(tx)
		if err := m.Set(ctx, KeyAccessToken, []byte(access)); err != nil {
			return err
		}
		return m.Set(ctx, KeyRefreshToken, []byte(refresh))
	})
}

// SaveLogin stores the token pair together with the signed-in user and role.
func (s *Store) SaveLogin(ctx context.Context, access, refresh, role string, user any) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		m := NewMetadata(tx)
		for key, value := range map[string][]byte{
			KeyAccessToken:  []byte(access),
			KeyRefreshToken: []byte(refresh),
			KeyRole:         []byte(role),
			KeyUser:         raw,
		} {
			if err := m.Set(ctx, key, value); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) Role(ctx context.Context) (string, error) {
	v, err := s.meta.Get(ctx, KeyRole)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// User decodes the stored user into v and reports whether one was present.
func (s *Store) User(ctx context.Context, v any) (bool, error) {
	return s.get(ctx, s.meta, KeyUser, v)
}

// Clear drops every key, signing the user out locally.
func (s *Store) Clear(ctx context.Context) error {
	return s.meta.Clear(ctx)
}

// Put stores v as JSON under key.
func (s *Store) Put(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.meta.Set(ctx, key, raw)
}

// Take decodes the value under key into v and deletes it, so a cached value
// is consumed at most once. A value that fails to decode is consumed too.
func (s *Store) Take(ctx context.Context, key string, v any) (bool, error) {
	var raw []byte
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		m := NewMetadata(tx)
		var err error
		if raw, err = m.Get(ctx, key); err != nil || raw == nil {
			return err
		}
		return m.Delete(ctx, key)
	})
	if err != nil || raw == nil {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) get(ctx context.Context, m *Metadata, key string, v any) (bool, error) {
	raw, err := m.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}
