package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tribithub/portal/backend/internal/apperr"
	"github.com/tribithub/portal/backend/internal/identity"
)

func TestNotFound(t *testing.T) {
	assert.ErrorIs(t, notFound(pgx.ErrNoRows), apperr.ErrNotFound)
	assert.ErrorIs(t, userErr(fmt.Errorf("wrapped: %w", pgx.ErrNoRows)), identity.ErrUserNotFound)

	other := fmt.Errorf("boom")
	assert.Equal(t, other, notFound(other))
}

func TestWriteErr(t *testing.T) {
	dup := &pgconn.PgError{Code: pgUniqueViolation}
	assert.ErrorIs(t, writeErr("create article", dup), apperr.ErrConflict)

	fk := &pgconn.PgError{Code: pgForeignKeyViolation}
	assert.ErrorIs(t, writeErr("create article", fk), apperr.ErrValidation)

	assert.ErrorIs(t, writeErr("update article", pgx.ErrNoRows), apperr.ErrNotFound)
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrations.ReadDir("migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, "00001_init.sql", entries[0].Name())
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb, err := NewRedisClient(context.Background(), mr.Addr(), "")
	require.NoError(t, err)
	defer rdb.Close()

	_, err = NewRedisClient(context.Background(), "127.0.0.1:1", "")
	assert.Error(t, err)
}
