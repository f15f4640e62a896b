package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallpaperhub/wallpaper-server/internal/domain"
	"github.com/wallpaperhub/wallpaper-server/internal/push"
)

type fakeSender struct {
	mu      sync.Mutex
	batches [][]push.Message
	failOn  map[int]bool // zero-based call index
	block   bool
}

func (f *fakeSender) Send(ctx context.Context, batch []push.Message) ([]push.Ticket, error) {
	f.mu.Lock()
	call := len(f.batches)
	f.batches = append(f.batches, batch)
	fail, block := f.failOn[call], f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if fail {
		return nil, fmt.Errorf("send: %w", push.ErrServer)
	}

	tickets := make([]push.Ticket, len(batch))
	for i, m := range batch {
		if m.To == "ExponentPushToken[dead]" {
			tickets[i] = push.Ticket{Status: push.TicketError, Details: push.TicketDetails{Error: "DeviceNotRegistered"}}
			continue
		}
		tickets[i] = push.Ticket{Status: push.TicketOK, ID: fmt.Sprintf("t-%d-%d", call, i)}
	}
	return tickets, nil
}

func (f *fakeSender) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

type fakeRecorder struct {
	mu      sync.Mutex
	reports []domain.DeliveryReport
	err     error
}

func (f *fakeRecorder) Record(_ context.Context, r *domain.DeliveryReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, *r)
	return f.err
}

func messages(n int) []push.Message {
	out := make([]push.Message, n)
	for i := range out {
		out[i] = push.Message{To: fmt.Sprintf("ExponentPushToken[%d]", i), Title: "t"}
	}
	return out
}

func newTestDispatcher(sender Sender, recorder Recorder, cfg Config) *Dispatcher {
	return New(cfg, sender, recorder, slog.New(slog.DiscardHandler))
}

func TestDeliver_BatchesAndCounts(t *testing.T) {
	sender := &fakeSender{}
	recorder := &fakeRecorder{}
	d := newTestDispatcher(sender, recorder, Config{BatchSize: 100})

	msgs := messages(250)
	msgs[10].To = "ExponentPushToken[dead]"

	report := d.Deliver(context.Background(), Job{Kind: domain.DeliveryBroadcast, Messages: msgs})

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, 250, report.Messages)
	assert.Equal(t, 3, report.Batches)
	assert.Equal(t, 0, report.FailedBatches)
	assert.Equal(t, 249, report.TicketsOK)
	assert.Equal(t, 1, report.TicketsError)
	assert.True(t, report.Delivered())
	assert.False(t, report.FinishedAt.Before(report.StartedAt))

	require.Len(t, sender.batches, 3)
	assert.Len(t, sender.batches[0], 100)
	assert.Len(t, sender.batches[2], 50)

	require.Len(t, recorder.reports, 1)
	assert.Equal(t, report.ID, recorder.reports[0].ID)
}

func TestDeliver_IsolatesFailedBatches(t *testing.T) {
	sender := &fakeSender{failOn: map[int]bool{0: true}}
	d := newTestDispatcher(sender, nil, Config{BatchSize: 2})

	report := d.Deliver(context.Background(), Job{Kind: domain.DeliveryApproval, Messages: messages(5)})

	assert.Equal(t, 3, sender.calls(), "later batches still sent")
	assert.Equal(t, 3, report.Batches)
	assert.Equal(t, 1, report.FailedBatches)
	assert.Equal(t, 3, report.TicketsOK)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "batch 0")
	assert.False(t, report.Delivered())
}

func TestDeliver_BatchTimeout(t *testing.T) {
	sender := &fakeSender{block: true}
	d := newTestDispatcher(sender, nil, Config{BatchSize: 1, SendTimeout: 20 * time.Millisecond})

	start := time.Now()
	report := d.Deliver(context.Background(), Job{Messages: messages(2)})

	assert.Equal(t, 2, report.FailedBatches)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Contains(t, report.Errors[0], context.DeadlineExceeded.Error())
}

func TestDeliver_RecorderFailureIsNotFatal(t *testing.T) {
	recorder := &fakeRecorder{err: errors.New("disk full")}
	d := newTestDispatcher(&fakeSender{}, recorder, Config{BatchSize: 10})

	report := d.Deliver(context.Background(), Job{Messages: messages(1)})
	assert.Equal(t, 1, report.TicketsOK)
	assert.Len(t, recorder.reports, 1)
}

func TestEnqueue_SignalsCompletion(t *testing.T) {
	sender := &fakeSender{}
	recorder := &fakeRecorder{}
	d := newTestDispatcher(sender, recorder, Config{BatchSize: 100})
	d.Start()
	defer d.Stop()

	job := Job{Kind: domain.DeliveryApproval, WallpaperID: "wp-1", ArtistID: "usr-1", Messages: messages(3)}
	require.NoError(t, d.Enqueue(context.Background(), job))

	select {
	case report := <-d.Results():
		assert.Equal(t, "wp-1", report.WallpaperID)
		assert.Equal(t, 3, report.TicketsOK)
	case <-time.After(5 * time.Second):
		t.Fatal("no delivery report received")
	}
}

func TestEnqueue_IgnoresEmptyJobs(t *testing.T) {
	sender := &fakeSender{}
	d := newTestDispatcher(sender, nil, Config{})
	d.Start()

	require.NoError(t, d.Enqueue(context.Background(), Job{}))
	d.Stop()

	assert.Equal(t, 0, sender.calls())
}

func TestEnqueue_FullQueueFailsFast(t *testing.T) {
	// Workers never started, so the single slot stays taken.
	d := newTestDispatcher(&fakeSender{}, nil, Config{BatchSize: 100, QueueSize: 1})
	defer d.Stop()

	require.NoError(t, d.Enqueue(context.Background(), Job{Messages: messages(1)}))

	done := make(chan error, 1)
	go func() { done <- d.Enqueue(context.Background(), Job{Messages: messages(1)}) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrQueueFull)
	case <-time.After(2 * time.Second):
		t.Fatal("Enqueue waited for a free slot")
	}
}

func TestEnqueue_CanceledContext(t *testing.T) {
	d := newTestDispatcher(&fakeSender{}, nil, Config{BatchSize: 100})
	defer d.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, d.Enqueue(ctx, Job{Messages: messages(1)}), context.Canceled)
}

func TestStop_DrainsQueueAndClosesResults(t *testing.T) {
	sender := &fakeSender{}
	d := newTestDispatcher(sender, nil, Config{BatchSize: 100, QueueSize: 8})
	d.Start()

	for range 4 {
		require.NoError(t, d.Enqueue(context.Background(), Job{Messages: messages(1)}))
	}
	d.Stop()
	d.Stop()

	assert.Equal(t, 4, sender.calls())

	n := 0
	for range d.Results() {
		n++
	}
	assert.Equal(t, 4, n)

	assert.ErrorIs(t, d.Enqueue(context.Background(), Job{Messages: messages(1)}), ErrStopped)
}
