package notifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/avvvet/lottery-services/internal/comm"
	"github.com/avvvet/lottery-services/internal/lottery/metrics"
	"github.com/avvvet/lottery-services/internal/lottery/models"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

const (
	defaultSchedule = "@every 30s"
	defaultBatch    = 100
)

// DrawSource is the slice of the draw service the notifier needs.
type DrawSource interface {
	DueDraws(ctx context.Context, cutoff models.LocalDateTime, limit int) ([]models.Draw, error)
	NotifyDraw(ctx context.Context, id int64, deliver func(models.Draw) error) (bool, error)
}

type Publisher interface {
	Publish(subject string, data []byte) error
}

type Options struct {
	Subject  string
	Schedule string
	Batch    int
	// Location is the zone naive draw times are read in.
	Location *time.Location
}

// ScanResult counts what happened to the draws found due in one scan.
type ScanResult struct {
	Scanned  int
	Notified int
	Skipped  int
	Failed   int
}

// Notifier periodically publishes a message for every draw whose time has
// come and marks it notified. A draw is never published twice once marked.
type Notifier struct {
	source  DrawSource
	pub     Publisher
	opts    Options
	now     func() time.Time
	newID   func() string
	cron    *cron.Cron
	startMu sync.Mutex
	started bool
}

func New(source DrawSource, pub Publisher, opts Options) *Notifier {
	if opts.Schedule == "" {
		opts.Schedule = defaultSchedule
	}
	if opts.Batch <= 0 {
		opts.Batch = defaultBatch
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Subject == "" {
		opts.Subject = "draws.notify"
	}
	return &Notifier{
		source: source,
		pub:    pub,
		opts:   opts,
		now:    time.Now,
		newID:  uuid.NewString,
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
	}
}

// Start schedules scans until Stop. Scans never overlap.
func (n *Notifier) Start(ctx context.Context) error {
	n.startMu.Lock()
	defer n.startMu.Unlock()
	if n.started {
		return nil
	}

	_, err := n.cron.AddFunc(n.opts.Schedule, func() {
		if _, err := n.RunOnce(ctx); err != nil {
			log.Errorf("notifier scan failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid notifier schedule %q: %w", n.opts.Schedule, err)
	}

	n.cron.Start()
	n.started = true
	log.Infof("notifier started schedule=%q subject=%q", n.opts.Schedule, n.opts.Subject)
	return nil
}

// Stop halts scheduling and waits for a running scan to finish.
func (n *Notifier) Stop() {
	<-n.cron.Stop().Done()
	log.Info("notifier stopped")
}

// RunOnce scans for due draws and notifies each one independently; a failure
// on one draw is logged and the scan moves on.
func (n *Notifier) RunOnce(ctx context.Context) (ScanResult, error) {
	start := time.Now()
	var res ScanResult

	cutoff := models.NewLocalDateTime(n.now().In(n.opts.Location))
	draws, err := n.source.DueDraws(ctx, cutoff, n.opts.Batch)
	if err != nil {
		return res, fmt.Errorf("list due draws: %w", err)
	}
	res.Scanned = len(draws)

	for _, d := range draws {
		if ctx.Err() != nil {
			break
		}
		ok, err := n.source.NotifyDraw(ctx, d.ID, n.deliver)
		switch {
		case err != nil:
			res.Failed++
			log.WithFields(log.Fields{"draw_id": d.ID, "game_id": d.GameID}).Errorf("draw notification failed: %v", err)
		case !ok:
			res.Skipped++
		default:
			res.Notified++
			log.WithFields(log.Fields{"draw_id": d.ID, "game_id": d.GameID}).Info("draw notified")
		}
	}

	metrics.RecordNotifierScan(time.Since(start), res.Notified, res.Skipped, res.Failed)
	return res, ctx.Err()
}

func (n *Notifier) deliver(d models.Draw) error {
	payload, err := comm.Encode(comm.TypeDrawDue, comm.DrawNotification{
		ID:           n.newID(),
		DrawID:       d.ID,
		GameID:       d.GameID,
		DrawDatetime: d.DrawDatetime,
		Image:        d.Image,
	})
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	return n.pub.Publish(n.opts.Subject, payload)
}
