package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPool connects to TEST_DB_DSN, skipping when no database is configured.
func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, Migrate(ctx, pool))
	_, err = pool.Exec(ctx, `TRUNCATE guest_carts`)
	require.NoError(t, err)
	return pool
}

func TestPostgres_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewPostgresWithPool(testPool(ctx, t), 0)

	_, err := store.Get(ctx, "guestCart:d1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "guestCart:d1", []byte(`{"items":[],"totalPrice":0}`)))
	require.NoError(t, store.Set(ctx, "guestCart:d1", []byte(`{"items":[],"totalPrice":7}`)))

	got, err := store.Get(ctx, "guestCart:d1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[],"totalPrice":7}`, string(got))

	require.NoError(t, store.Delete(ctx, "guestCart:d1"))
	_, err = store.Get(ctx, "guestCart:d1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgres_ExpiredRowsAreHiddenAndPurged(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	store := NewPostgresWithPool(pool, time.Hour)

	require.NoError(t, store.Set(ctx, "guestCart:old", []byte(`{}`)))
	_, err := pool.Exec(ctx, `UPDATE guest_carts SET expires_at = now() - interval '1 minute' WHERE cart_key = 'guestCart:old'`)
	require.NoError(t, err)

	_, err = store.Get(ctx, "guestCart:old")
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
