package store_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/avvvet/lottery-services/internal/lottery/db"
	"github.com/avvvet/lottery-services/internal/lottery/models"
	"github.com/avvvet/lottery-services/internal/lottery/service"
	"github.com/avvvet/lottery-services/internal/lottery/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB migrates a fresh schema into TEST_DATABASE_URL. Tests skip
// when it is not set.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	m, err := db.NewMigrator(dsn)
	require.NoError(t, err)
	require.NoError(t, m.Down())
	require.NoError(t, m.Up())
	require.NoError(t, m.Close())

	pool, err := db.Connect(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func count(t *testing.T, pool *pgxpool.Pool, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, pool.QueryRow(context.Background(), query, args...).Scan(&n))
	return n
}

func strPtr(s string) *string { return &s }

func TestGameStoreCRUD(t *testing.T) {
	pool := setupTestDB(t)
	games := store.NewGameStore(pool)
	ctx := context.Background()

	created, err := games.Create(ctx, "Lotto6", nil, strPtr("lotto6.png"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.Nil(t, created.Description)
	assert.Equal(t, "lotto6.png", *created.Image)
	assert.False(t, created.CreatedAt.IsZero())

	found, err := games.GetByName(ctx, "Lotto6")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)

	missing, err := games.GetByName(ctx, "lotto6")
	require.NoError(t, err)
	assert.Nil(t, missing)

	byID, err := games.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lotto6", byID.Name)

	list, err := games.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	deleted, err := games.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = games.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestGameNameUniqueConstraint(t *testing.T) {
	pool := setupTestDB(t)
	games := store.NewGameStore(pool)
	ctx := context.Background()

	_, err := games.Create(ctx, "Lotto6", nil, nil)
	require.NoError(t, err)

	_, err = games.Create(ctx, "Lotto6", strPtr("again"), nil)
	assert.ErrorIs(t, err, store.ErrUniqueViolation)
	assert.Equal(t, 1, count(t, pool, `SELECT COUNT(*) FROM games`))
}

func TestConcurrentCreateGameExactlyOneWins(t *testing.T) {
	pool := setupTestDB(t)
	games := service.NewGameService(service.NewPgTransactor(store.New(pool)))

	const creators = 6
	errs := make([]error, creators)
	var wg sync.WaitGroup
	for i := 0; i < creators; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = games.CreateGame(context.Background(), service.GameInput{Name: "Powerball"})
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
			continue
		}
		assert.ErrorIs(t, err, service.ErrConflict)
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, 1, count(t, pool, `SELECT COUNT(*) FROM games WHERE name = 'Powerball'`))
}

func TestDrawForeignKey(t *testing.T) {
	pool := setupTestDB(t)
	at := models.NewLocalDateTime(time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC))

	_, err := store.NewDrawStore(pool).Create(context.Background(), 999, at, nil)
	assert.ErrorIs(t, err, store.ErrForeignKeyViolation)
	assert.Zero(t, count(t, pool, `SELECT COUNT(*) FROM draws`))
}

func TestDeleteGameCascadesToDrawsAndResults(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	games := store.NewGameStore(pool)
	draws := store.NewDrawStore(pool)
	at := models.NewLocalDateTime(time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC))

	doomed, err := games.Create(ctx, "Lotto6", nil, nil)
	require.NoError(t, err)
	kept, err := games.Create(ctx, "Keno", nil, nil)
	require.NoError(t, err)

	for _, gameID := range []int64{doomed.ID, doomed.ID, kept.ID} {
		d, err := draws.Create(ctx, gameID, at, nil)
		require.NoError(t, err)
		_, err = pool.Exec(ctx, `INSERT INTO results (draw_id, winning_numbers) VALUES ($1, '1,2,3,4,5,6')`, d.ID)
		require.NoError(t, err)
	}

	deleted, err := games.Delete(ctx, doomed.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	assert.Zero(t, count(t, pool, `SELECT COUNT(*) FROM draws WHERE game_id = $1`, doomed.ID))
	assert.Zero(t, count(t, pool, `
		SELECT COUNT(*) FROM results r
		LEFT JOIN draws d ON d.id = r.draw_id
		WHERE d.id IS NULL OR d.game_id = $1`, doomed.ID))
	assert.Equal(t, 1, count(t, pool, `SELECT COUNT(*) FROM draws WHERE game_id = $1`, kept.ID))
	assert.Equal(t, 1, count(t, pool, `SELECT COUNT(*) FROM results`))
}

func TestDrawDatetimeStoredNaive(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	game, err := store.NewGameStore(pool).Create(ctx, "Lotto6", nil, nil)
	require.NoError(t, err)

	draws := store.NewDrawStore(pool)
	for _, in := range []string{"2026-03-01T09:00:00Z", "2026-03-01T09:00:00", "2026-03-01T09:00:00+05:00"} {
		at, err := models.ParseLocalDateTime(in)
		require.NoError(t, err)
		d, err := draws.Create(ctx, game.ID, at, nil)
		require.NoError(t, err)
		assert.Equal(t, "2026-03-01T09:00:00", d.DrawDatetime.String(), in)
	}

	assert.Equal(t, 3, count(t, pool, `SELECT COUNT(*) FROM draws WHERE draw_datetime = '2026-03-01 09:00:00'::timestamp`))
}

func TestNotificationFlag(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	game, err := store.NewGameStore(pool).Create(ctx, "Lotto6", nil, nil)
	require.NoError(t, err)
	draws := store.NewDrawStore(pool)

	past := models.NewLocalDateTime(time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC))
	future := models.NewLocalDateTime(time.Date(2026, 7, 1, 20, 0, 0, 0, time.UTC))
	due, err := draws.Create(ctx, game.ID, past, nil)
	require.NoError(t, err)
	assert.False(t, due.Notified)
	_, err = draws.Create(ctx, game.ID, future, nil)
	require.NoError(t, err)

	cutoff := models.NewLocalDateTime(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
	list, err := draws.ListDue(ctx, cutoff, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, due.ID, list[0].ID)

	marked, err := draws.MarkNotified(ctx, due.ID)
	require.NoError(t, err)
	assert.True(t, marked)

	marked, err = draws.MarkNotified(ctx, due.ID)
	require.NoError(t, err)
	assert.False(t, marked)

	locked, err := draws.LockPending(ctx, due.ID)
	require.NoError(t, err)
	assert.Nil(t, locked)

	list, err = draws.ListDue(ctx, cutoff, 10)
	require.NoError(t, err)
	assert.Empty(t, list)

	all, err := draws.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, all[0].Notified)
}

func TestWithinTxRollsBack(t *testing.T) {
	pool := setupTestDB(t)
	s := store.New(pool)
	boom := errors.New("boom")

	err := s.WithinTx(context.Background(), func(tx *store.Tx) error {
		if _, err := tx.Games().Create(context.Background(), "Lotto6", nil, nil); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, count(t, pool, `SELECT COUNT(*) FROM games`))

	err = s.WithinTx(context.Background(), func(tx *store.Tx) error {
		_, err := tx.Games().Create(context.Background(), "Lotto6", nil, nil)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count(t, pool, `SELECT COUNT(*) FROM games`))
}

func TestLockPendingSkipsLockedRows(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	s := store.New(pool)
	game, err := store.NewGameStore(pool).Create(ctx, "Lotto6", nil, nil)
	require.NoError(t, err)
	d, err := store.NewDrawStore(pool).Create(ctx, game.ID, models.NewLocalDateTime(time.Now()), nil)
	require.NoError(t, err)

	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- s.WithinTx(ctx, func(tx *store.Tx) error {
			locked, err := tx.Draws().LockPending(ctx, d.ID)
			if err != nil {
				return err
			}
			if locked == nil {
				return errors.New("expected to lock draw")
			}
			close(held)
			<-release
			return nil
		})
	}()

	<-held
	err = s.WithinTx(ctx, func(tx *store.Tx) error {
		locked, err := tx.Draws().LockPending(ctx, d.ID)
		if err != nil {
			return err
		}
		assert.Nil(t, locked)
		return nil
	})
	require.NoError(t, err)

	close(release)
	require.NoError(t, <-done)
}
