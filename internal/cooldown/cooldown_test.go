package cooldown

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var base = time.Date(2026, 5, 10, 18, 0, 0, 0, time.UTC)

func ago(d time.Duration) *time.Time {
	t := base.Add(-d)
	return &t
}

func TestGate_PersistedSeed(t *testing.T) {
	tests := []struct {
		name      string
		persisted *time.Time
		want      bool
	}{
		{"never notified", nil, true},
		{"five minutes ago", ago(5 * time.Minute), false},
		{"exactly the window", ago(10 * time.Minute), false},
		{"fifteen minutes ago", ago(15 * time.Minute), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(10 * time.Minute)
			assert.Equal(t, tt.want, g.Allow("usr-1", tt.persisted, base))
		})
	}
}

func TestGate_RecordsFiring(t *testing.T) {
	g := New(10 * time.Minute)

	assert.True(t, g.Allow("usr-1", nil, base))

	// Storage has not caught up, the in-memory record still closes the gate.
	assert.False(t, g.Allow("usr-1", nil, base.Add(time.Minute)))
	assert.True(t, g.Allow("usr-1", nil, base.Add(11*time.Minute)))
}

func TestGate_KeysAreIndependent(t *testing.T) {
	g := New(10 * time.Minute)

	assert.True(t, g.Allow("usr-1", nil, base))
	assert.True(t, g.Allow("usr-2", nil, base))
}

func TestGate_LaterOfPersistedAndMemoryWins(t *testing.T) {
	g := New(10 * time.Minute)
	assert.True(t, g.Allow("usr-1", nil, base.Add(-30*time.Minute)))

	// Another instance notified more recently.
	assert.False(t, g.Allow("usr-1", ago(2*time.Minute), base))
}

func TestGate_ZeroWindowNeverBlocks(t *testing.T) {
	g := New(0)
	assert.True(t, g.Allow("usr-1", nil, base))
	assert.True(t, g.Allow("usr-1", nil, base))
}

func TestGate_Forget(t *testing.T) {
	g := New(time.Hour)
	assert.True(t, g.Allow("usr-1", nil, base))
	g.Forget("usr-1", base)

	assert.True(t, g.Allow("usr-1", nil, base.Add(time.Minute)))
}

func TestGate_ForgetKeepsLaterFiring(t *testing.T) {
	g := New(time.Minute)
	assert.True(t, g.Allow("usr-1", nil, base))
	assert.True(t, g.Allow("usr-1", nil, base.Add(2*time.Minute)))

	// Rolling back the first firing must not reopen the gate.
	g.Forget("usr-1", base)
	assert.False(t, g.Allow("usr-1", nil, base.Add(2*time.Minute+time.Second)))
}

func TestGate_ConcurrentCallersFireOnce(t *testing.T) {
	g := New(10 * time.Minute)

	var fired atomic.Int32
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.Allow("usr-1", nil, base) {
				fired.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), fired.Load())
}
