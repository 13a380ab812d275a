package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dyoh/upbitwatch/internal/domain"
	"go.uber.org/zap"
)

// PollDriver runs the watch list: one full pass over all active rows per
// cycle, with the account snapshot fetched once per cycle and shared
// read-only by every row. Rows are processed strictly in order, one at a
// time.
type PollDriver struct {
	service  *WatchService
	exchange domain.Exchange
	notifier domain.Notifier
	journal  domain.RowJournal
	rec      Recorder
	logger   *zap.Logger

	rows         []*domain.WatchRow
	interval     time.Duration
	hourlyStatus bool

	started        time.Time
	sentFirst      bool
	lastStatusHour int

	shutdownOnce sync.Once

	// view is a frozen copy of the rows republished after every mutation
	// point. The poll goroutine owns the live rows; HTTP handlers read only
	// the view.
	mu   sync.RWMutex
	view []domain.WatchRow
}

func NewPollDriver(
	service *WatchService,
	exchange domain.Exchange,
	notifier domain.Notifier,
	journal domain.RowJournal,
	rows []*domain.WatchRow,
	interval time.Duration,
	hourlyStatus bool,
	rec Recorder,
	logger *zap.Logger,
) *PollDriver {
	if interval <= 0 {
		interval = time.Minute
	}
	if rec == nil {
		rec = NopRecorder{}
	}
	d := &PollDriver{
		service:        service,
		exchange:       exchange,
		notifier:       notifier,
		journal:        journal,
		rec:            rec,
		logger:         logger,
		rows:           rows,
		interval:       interval,
		hourlyStatus:   hourlyStatus,
		lastStatusHour: -1,
	}
	d.publish()
	return d
}

func (d *PollDriver) publish() {
	view := make([]domain.WatchRow, len(d.rows))
	for i, r := range d.rows {
		view[i] = *r
	}
	d.mu.Lock()
	d.view = view
	d.mu.Unlock()
}

// Rows returns the latest published copy of the watch list. Safe for
// concurrent readers; the copy is refreshed after every cycle.
func (d *PollDriver) Rows() []domain.WatchRow {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.view
}

// Started returns when the driver was announced.
func (d *PollDriver) Started() time.Time { return d.started }

// ActiveCount returns how many rows are still armed.
func (d *PollDriver) ActiveCount() int {
	n := 0
	for _, r := range d.rows {
		if r.Active {
			n++
		}
	}
	return n
}

// ApplyJournal disarms rows that already fired in a previous run. Journal
// read failures are logged and the row stays armed; firing twice across a
// crash is preferable to silently never firing.
func (d *PollDriver) ApplyJournal(ctx context.Context) {
	if d.journal == nil {
		return
	}
	for _, row := range d.rows {
		if !row.Active {
			continue
		}
		seen, err := d.journal.Seen(ctx, row.Fingerprint())
		if err != nil {
			d.logger.Warn("journal read failed", zap.String("row", row.Name), zap.Error(err))
			continue
		}
		if seen {
			row.Active = false
			d.logger.Info("row already fired in a previous run, disarmed",
				zap.String("row", row.Name), zap.String("reason", row.Reason))
		}
	}
	d.publish()
}

// AnnounceStart sends the startup banner and the initial holdings table.
func (d *PollDriver) AnnounceStart(ctx context.Context) {
	d.started = time.Now()
	now := d.started.Format("2006-01-02 15:04:05")
	d.notifier.Notify(ctx, fmt.Sprintf(
		"✨ [*upbitwatch*] monitor/trade daemon ✨\n"+
			"    💾 started (%s)\n"+
			"    🖥️ %s\n"+
			"    🟢 registered %d rows ➡️ *watching %d* 🟢",
		now, RuntimeInfo(), len(d.rows), d.ActiveCount()))

	accounts, err := d.exchange.GetAccounts(ctx)
	if err != nil {
		d.logger.Error("startup account fetch failed", zap.Error(err))
		return
	}
	d.notifier.Notify(ctx, "📊 [holdings] at startup:\n"+FormatHoldings(ctx, d.exchange, accounts, ""))
}

// NotifyShutdown sends the final lifecycle message exactly once, no matter
// how many termination paths race to call it.
func (d *PollDriver) NotifyShutdown(ctx context.Context, reason string) {
	d.shutdownOnce.Do(func() {
		uptime := FormatDuration(time.Since(d.started))
		d.notifier.Notify(ctx, fmt.Sprintf("🔴 [*upbitwatch*] stopping (%s), uptime %s, %s",
			reason, uptime, RuntimeInfo()))
	})
}

// Run polls until the context is cancelled.
func (d *PollDriver) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		d.RunCycle(ctx)

		if !d.sentFirst {
			d.notifier.Notify(ctx, fmt.Sprintf("🟡 %s - first pass complete ⏱️", time.Now().Format("01-02 15:04:05")))
			d.sentFirst = true
		}
		d.maybeSendHourlyStatus(ctx)

		d.logger.Info("cycle complete, sleeping",
			zap.Duration("interval", d.interval),
			zap.Int("active", d.ActiveCount()))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunCycle performs one evaluation pass. A failed account fetch skips the
// whole cycle; balances must be a consistent snapshot.
func (d *PollDriver) RunCycle(ctx context.Context) {
	defer d.rec.CycleCompleted()
	defer d.publish()

	accounts, err := d.exchange.GetAccounts(ctx)
	if err != nil {
		d.logger.Error("account fetch failed, skipping cycle", zap.Error(err))
		return
	}

	d.logger.Info("account snapshot",
		zap.Float64("krw_balance", accounts.KRWBalance()),
		zap.Int("assets", len(accounts)))

	for _, row := range d.rows {
		out := d.service.EvaluateRow(ctx, row, accounts)
		if out.Err != nil && !domain.IsTransient(out.Err) {
			d.logger.Info("row finished",
				zap.String("row", row.Name),
				zap.Bool("fired", out.Fired),
				zap.Error(out.Err))
		}
	}
}

func (d *PollDriver) maybeSendHourlyStatus(ctx context.Context) {
	if !d.hourlyStatus {
		return
	}
	hour := time.Now().Hour()
	if hour == d.lastStatusHour {
		return
	}
	d.lastStatusHour = hour
	d.notifier.Notify(ctx, fmt.Sprintf("✨ [*upbitwatch*] hourly status: watching %d rows (%s)",
		d.ActiveCount(), time.Now().Format("2006-01-02 15:04:05")))
}
