package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

type user struct {
	ID   string `json:"user_uuid"`
	Name string `json:"user_name"`
}

func TestOpen_MigratesFileDatabaseTwice(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "lexbridge.db")

	s, err := Open(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "marker", "ok"))
	require.NoError(t, s.Close())

	s, err = Open(ctx, dsn)
	require.NoError(t, err)
	defer s.Close()

	var got string
	found, err := s.Take(ctx, "marker", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "ok", got)
}

func TestTokens_EmptyWhenSignedOut(t *testing.T) {
	s := openStore(t)

	access, refresh, err := s.Tokens(context.Background())
	require.NoError(t, err)
	assert.Empty(t, access)
	assert.Empty(t, refresh)
}

func TestSaveLogin_ThenClear(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveLogin(ctx, "acc", "ref", "professional", user{ID: "u1", Name: "alice"}))

	access, refresh, err := s.Tokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, "acc", access)
	assert.Equal(t, "ref", refresh)

	role, err := s.Role(ctx)
	require.NoError(t, err)
	assert.Equal(t, "professional", role)

	var u user
	found, err := s.User(ctx, &u)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, user{ID: "u1", Name: "alice"}, u)

	require.NoError(t, s.SetTokens(ctx, "acc2", "ref2"))
	access, refresh, err = s.Tokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, "acc2", access)
	assert.Equal(t, "ref2", refresh)

	require.NoError(t, s.Clear(ctx))
	role, err = s.Role(ctx)
	require.NoError(t, err)
	assert.Empty(t, role)
	found, err = s.User(ctx, &u)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestTake_ConsumesOnce(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	type cached struct {
		SessionID string `json:"sessionId"`
	}
	require.NoError(t, s.Put(ctx, KeyQuestionnaireSession, cached{SessionID: "s1"}))

	var got cached
	found, err := s.Take(ctx, KeyQuestionnaireSession, &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "s1", got.SessionID)

	found, err = s.Take(ctx, KeyQuestionnaireSession, &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestTake_DecodeError(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.meta.Set(ctx, "bad", []byte("{")))

	var v map[string]any
	_, err := s.Take(ctx, "bad", &v)
	require.ErrorContains(t, err, "decode bad")

	found, err := s.Take(ctx, "bad", &v)
	require.NoError(t, err)
	assert.False(t, found, "an unreadable value is dropped")
}
