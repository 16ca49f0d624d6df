package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/avvvet/lottery-services/internal/comm"
	"github.com/avvvet/lottery-services/internal/lottery/models"
	"github.com/avvvet/lottery-services/internal/lottery/service"
	"github.com/avvvet/lottery-services/internal/lottery/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPublisher struct {
	mu       sync.Mutex
	subjects []string
	sent     []comm.DrawNotification
	failFor  map[int64]bool
}

func (p *stubPublisher) Publish(subject string, data []byte) error {
	var msg comm.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return err
	}
	var n comm.DrawNotification
	if err := json.Unmarshal(msg.Data, &n); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failFor[n.DrawID] {
		return errors.New("broker unavailable")
	}
	p.subjects = append(p.subjects, subject)
	p.sent = append(p.sent, n)
	return nil
}

func (p *stubPublisher) drawIDs() []int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]int64, 0, len(p.sent))
	for _, n := range p.sent {
		ids = append(ids, n.DrawID)
	}
	return ids
}

func seed(t *testing.T, draws ...string) (*testutil.MemStore, *service.DrawService) {
	t.Helper()
	ctx := context.Background()
	mem := testutil.NewMemStore()
	game, err := service.NewGameService(mem).CreateGame(ctx, service.GameInput{Name: "Lotto6"})
	require.NoError(t, err)

	ds := service.NewDrawService(mem)
	for _, s := range draws {
		at, err := models.ParseLocalDateTime(s)
		require.NoError(t, err)
		_, err = ds.CreateDraw(ctx, service.DrawInput{GameID: game.ID, DrawDatetime: at})
		require.NoError(t, err)
	}
	return mem, ds
}

func fixedNow(n *Notifier, at time.Time) {
	n.now = func() time.Time { return at }
}

func TestRunOnceNotifiesDueDraws(t *testing.T) {
	mem, ds := seed(t, "2026-05-01T20:00:00", "2026-05-01T21:00:00", "2026-05-02T20:00:00")
	pub := &stubPublisher{}

	n := New(ds, pub, Options{Subject: "draws.test"})
	n.newID = func() string { return "fixed-id" }
	fixedNow(n, time.Date(2026, 5, 1, 21, 0, 0, 0, time.UTC))

	res, err := n.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ScanResult{Scanned: 2, Notified: 2}, res)
	assert.Equal(t, []int64{1, 2}, pub.drawIDs())
	assert.Equal(t, []string{"draws.test", "draws.test"}, pub.subjects)
	assert.Equal(t, "fixed-id", pub.sent[0].ID)
	assert.Equal(t, "2026-05-01T20:00:00", pub.sent[0].DrawDatetime.String())

	d, _ := mem.Draw(1)
	assert.True(t, d.Notified)
	d, _ = mem.Draw(3)
	assert.False(t, d.Notified)
}

func TestRunOnceDoesNotRenotify(t *testing.T) {
	_, ds := seed(t, "2026-05-01T20:00:00")
	pub := &stubPublisher{}

	n := New(ds, pub, Options{})
	fixedNow(n, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))

	for i := 0; i < 3; i++ {
		_, err := n.RunOnce(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, []int64{1}, pub.drawIDs())
}

func TestRunOnceIsolatesFailures(t *testing.T) {
	mem, ds := seed(t, "2026-05-01T18:00:00", "2026-05-01T19:00:00", "2026-05-01T20:00:00")
	pub := &stubPublisher{failFor: map[int64]bool{2: true}}

	n := New(ds, pub, Options{})
	fixedNow(n, time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC))

	res, err := n.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ScanResult{Scanned: 3, Notified: 2, Failed: 1}, res)
	assert.Equal(t, []int64{1, 3}, pub.drawIDs())

	d, _ := mem.Draw(2)
	assert.False(t, d.Notified)

	// broker recovers, the failed draw goes out on the next scan only
	pub.failFor = nil
	res, err = n.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ScanResult{Scanned: 1, Notified: 1}, res)
	assert.Equal(t, []int64{1, 3, 2}, pub.drawIDs())
}

func TestRunOnceUsesDrawLocation(t *testing.T) {
	_, ds := seed(t, "2026-05-01T20:00:00")
	pub := &stubPublisher{}
	ict := time.FixedZone("ICT", 7*3600)

	// 13:30 UTC is 20:30 in ICT
	now := time.Date(2026, 5, 1, 13, 30, 0, 0, time.UTC)

	utc := New(ds, pub, Options{})
	fixedNow(utc, now)
	res, err := utc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Scanned)

	local := New(ds, pub, Options{Location: ict})
	fixedNow(local, now)
	res, err = local.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Notified)
}

func TestRunOnceBatchLimit(t *testing.T) {
	_, ds := seed(t, "2026-05-01T18:00:00", "2026-05-01T19:00:00", "2026-05-01T20:00:00")
	pub := &stubPublisher{}

	n := New(ds, pub, Options{Batch: 2})
	fixedNow(n, time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC))

	res, err := n.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Notified)
	assert.Equal(t, []int64{1, 2}, pub.drawIDs())
}

func TestRunOnceSourceFailure(t *testing.T) {
	mem, ds := seed(t)
	mem.Err = errors.New("connection reset")

	_, err := New(ds, &stubPublisher{}, Options{}).RunOnce(context.Background())
	assert.ErrorContains(t, err, "connection reset")
}

func TestStartRejectsBadSchedule(t *testing.T) {
	_, ds := seed(t)
	n := New(ds, &stubPublisher{}, Options{Schedule: "whenever"})

	assert.Error(t, n.Start(context.Background()))
}

func TestStartStop(t *testing.T) {
	_, ds := seed(t)
	n := New(ds, &stubPublisher{}, Options{Schedule: "@every 1h"})

	require.NoError(t, n.Start(context.Background()))
	require.NoError(t, n.Start(context.Background()))
	n.Stop()
}
