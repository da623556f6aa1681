package mirror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

var ErrPassPanicked = errors.New("sync pass panicked")

// Syncer runs one pass. *Reconciler is the production implementation.
type Syncer interface {
	Reconcile(ctx context.Context, sourceDir, replicaDir string) (*SyncStats, error)
}

// PassReport is the outcome of one pass as logged by the Driver.
type PassReport struct {
	ID       string        `json:"id"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Stats    *SyncStats    `json:"stats"`
}

type DriverConfig struct {
	SourceDir  string
	ReplicaDir string
	Interval   time.Duration
	Clock      clockwork.Clock
	Logger     *slog.Logger
}

// Driver runs passes back to back, waiting Interval between the end of one
// pass and the start of the next, until its context is cancelled.
type Driver struct {
	syncer   Syncer
	source   string
	replica  string
	interval time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
}

func NewDriver(syncer Syncer, cfg DriverConfig) *Driver {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Driver{
		syncer:   syncer,
		source:   cfg.SourceDir,
		replica:  cfg.ReplicaDir,
		interval: cfg.Interval,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
	}
}

// Run blocks until ctx is cancelled. A failed or panicking pass is logged and
// the next one is scheduled as usual.
func (d *Driver) Run(ctx context.Context) error {
	d.logger.Info("starting folder synchronization", "source", d.source, "replica", d.replica, "interval", d.interval)

	d.RunOnce(ctx)
	if ctx.Err() != nil {
		d.logger.Info("synchronization stopped")
		return nil
	}

	// a timer and not a ticker so a pass that outlasts the interval does
	// not queue up ticks
	timer := d.clock.NewTimer(d.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("synchronization stopped")
			return nil
		case <-timer.Chan():
			d.RunOnce(ctx)
			if ctx.Err() != nil {
				d.logger.Info("synchronization stopped")
				return nil
			}
			timer.Reset(d.interval)
		}
	}
}

// RunOnce runs a single pass and logs its summary. A panic inside the pass is
// recovered and returned as ErrPassPanicked.
func (d *Driver) RunOnce(ctx context.Context) (report *PassReport, err error) {
	report = &PassReport{ID: uuid.NewString(), Started: d.clock.Now()}
	logger := d.logger.With("pass", report.ID)
	logger.Info("starting synchronization")

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPassPanicked, r)
			report.Duration = d.clock.Since(report.Started)
			if report.Stats == nil {
				report.Stats = NewSyncStats()
			}
			logger.Error("synchronization failed", "error", err, "stack", string(debug.Stack()))
		}
	}()

	stats, err := d.syncer.Reconcile(ctx, d.source, d.replica)
	if stats == nil {
		stats = NewSyncStats()
	}
	report.Stats = stats
	report.Duration = d.clock.Since(report.Started)

	if err != nil {
		if ctx.Err() != nil {
			logger.Info("synchronization interrupted", "stats", stats)
		} else {
			logger.Error("synchronization failed", "error", err, "stats", stats)
		}
		return report, err
	}

	if !stats.HasChanges() && stats.Clean() {
		logger.Debug("replica already up to date")
	}
	logger.Info("synchronization completed",
		"copied", stats.Copied,
		"updated", stats.Updated,
		"deleted", stats.Deleted,
		"errors", stats.Errors,
		"transferred", humanize.Bytes(uint64(stats.BytesCopied)),
		"duration", report.Duration.Round(time.Millisecond),
	)
	return report, nil
}
