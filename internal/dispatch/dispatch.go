// Package dispatch delivers push messages in batches, off the request path,
// and records a report for every delivery.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wallpaperhub/wallpaper-server/internal/domain"
	"github.com/wallpaperhub/wallpaper-server/internal/push"
)

var (
	// ErrStopped is returned by Enqueue once the dispatcher has stopped.
	ErrStopped = errors.New("dispatcher stopped")
	// ErrQueueFull is returned by Enqueue when every queue slot is taken.
	ErrQueueFull = errors.New("dispatch queue full")
)

// Sender sends one batch to the push gateway.
type Sender interface {
	Send(ctx context.Context, batch []push.Message) ([]push.Ticket, error)
}

// Recorder persists delivery reports.
type Recorder interface {
	Record(ctx context.Context, r *domain.DeliveryReport) error
}

// Job is a set of messages to deliver together.
type Job struct {
	Kind        domain.DeliveryKind
	WallpaperID string
	ArtistID    string
	Messages    []push.Message
}

// Config tunes the dispatcher.
type Config struct {
	BatchSize   int           // Messages per gateway request, clamped to push.MaxBatchSize
	SendTimeout time.Duration // Bound for each batch
	Workers     int           // Background workers (default: 1)
	QueueSize   int           // Pending jobs before Enqueue refuses more (default: 64)
}

// Dispatcher runs background deliveries.
type Dispatcher struct {
	sender   Sender
	recorder Recorder
	logger   *slog.Logger
	config   Config
	now      func() time.Time

	mu      sync.RWMutex
	stopped bool
	jobs    chan Job
	results chan domain.DeliveryReport
	wg      sync.WaitGroup
}

// New creates a Dispatcher. recorder may be nil. Call Start to run workers.
func New(cfg Config, sender Sender, recorder Recorder, logger *slog.Logger) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 30 * time.Second
	}

	return &Dispatcher{
		sender:   sender,
		recorder: recorder,
		logger:   logger,
		config:   cfg,
		now:      time.Now,
		jobs:     make(chan Job, cfg.QueueSize),
		results:  make(chan domain.DeliveryReport, cfg.QueueSize),
	}
}

// Start launches the worker pool.
func (d *Dispatcher) Start() {
	d.logger.Info("starting push dispatcher",
		slog.Int("workers", d.config.Workers),
		slog.Int("batch_size", d.config.BatchSize),
	)
	for i := range d.config.Workers {
		d.wg.Add(1)
		go d.worker(i)
	}
}

// Stop refuses new jobs, drains the queue and waits for the workers.
// The results channel is closed afterwards. Safe to call more than once.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.jobs)
	d.mu.Unlock()

	d.wg.Wait()
	close(d.results)
	d.logger.Info("push dispatcher stopped")
}

// Results delivers one report per background job.
// Reports are dropped when nobody keeps up with the channel.
func (d *Dispatcher) Results() <-chan domain.DeliveryReport {
	return d.results
}

// Enqueue hands job to the workers without waiting for a free slot.
// A full queue returns ErrQueueFull. Empty jobs are ignored.
func (d *Dispatcher) Enqueue(ctx context.Context, job Job) error {
	if len(job.Messages) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return ErrStopped
	}

	select {
	case d.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()

	d.logger.Debug("dispatch worker started", slog.Int("worker_id", id))
	for job := range d.jobs {
		report := d.Deliver(context.Background(), job)

		select {
		case d.results <- report:
		default:
			d.logger.Debug("delivery report dropped from results channel", "report_id", report.ID)
		}
	}
	d.logger.Debug("dispatch worker stopping", slog.Int("worker_id", id))
}

// Deliver sends job synchronously. Each batch has its own timeout and a
// failed batch never stops the remaining ones. The report is recorded
// before it is returned.
func (d *Dispatcher) Deliver(ctx context.Context, job Job) domain.DeliveryReport {
	report := domain.DeliveryReport{
		ID:          uuid.NewString(),
		Kind:        job.Kind,
		WallpaperID: job.WallpaperID,
		ArtistID:    job.ArtistID,
		Messages:    len(job.Messages),
		StartedAt:   d.now(),
	}

	batches := push.Chunk(job.Messages, d.config.BatchSize)
	report.Batches = len(batches)

	for i, batch := range batches {
		tickets, err := d.sendBatch(ctx, batch)
		if err != nil {
			report.FailedBatches++
			report.Errors = append(report.Errors, fmt.Sprintf("batch %d: %v", i, err))
			d.logger.Warn("push batch failed",
				"report_id", report.ID,
				"batch", i,
				"size", len(batch),
				"error", err,
			)
			continue
		}

		for _, t := range tickets {
			if t.OK() {
				report.TicketsOK++
				continue
			}
			report.TicketsError++
			d.logger.Debug("push ticket rejected",
				"report_id", report.ID,
				"message", t.Message,
				"reason", t.Details.Error,
			)
		}
	}
	report.FinishedAt = d.now()

	d.logger.Info("push delivery finished",
		"report_id", report.ID,
		"kind", report.Kind,
		"messages", report.Messages,
		"batches", report.Batches,
		"failed_batches", report.FailedBatches,
		"tickets_ok", report.TicketsOK,
		"tickets_error", report.TicketsError,
	)

	if d.recorder != nil {
		if err := d.recorder.Record(context.WithoutCancel(ctx), &report); err != nil {
			d.logger.Warn("failed to record delivery report", "report_id", report.ID, "error", err)
		}
	}
	return report
}

func (d *Dispatcher) sendBatch(ctx context.Context, batch []push.Message) ([]push.Ticket, error) {
	ctx, cancel := context.WithTimeout(ctx, d.config.SendTimeout)
	defer cancel()
	return d.sender.Send(ctx, batch)
}
