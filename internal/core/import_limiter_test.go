package core

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestImportLimiter_OnePerRegistry(t *testing.T) {
	l := NewImportLimiter(0, 50*time.Millisecond)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, l.ActiveCount())

	_, err = l.Acquire(ctx, "a")
	assert.ErrorIs(t, err, ErrImportBusy)

	other, err := l.Acquire(ctx, "b")
	require.NoError(t, err, "different registries do not block each other")
	assert.Equal(t, 2, l.ActiveCount())

	release()
	release() // second call is a no-op
	other()
	assert.Equal(t, 0, l.ActiveCount())

	again, err := l.Acquire(ctx, "a")
	require.NoError(t, err)
	again()
}

func TestImportLimiter_TryAcquire(t *testing.T) {
	l := NewImportLimiter(1, time.Second)

	release, ok := l.TryAcquire("x")
	require.True(t, ok)

	_, ok = l.TryAcquire("x")
	assert.False(t, ok)

	release()
	_, ok = l.TryAcquire("x")
	assert.True(t, ok)
}

func TestImportLimiter_ContextCancelled(t *testing.T) {
	l := NewImportLimiter(1, time.Minute)
	release, err := l.Acquire(context.Background(), "x")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = l.Acquire(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestImportLimiter_Serializes(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := NewImportLimiter(1, 5*time.Second)
	var (
		running int32
		maxSeen int32
		wg      sync.WaitGroup
	)

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(context.Background(), "reg")
			if err != nil {
				t.Error(err)
				return
			}
			n := atomic.AddInt32(&running, 1)
			for {
				m := atomic.LoadInt32(&maxSeen)
				if n <= m || atomic.CompareAndSwapInt32(&maxSeen, m, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxSeen)
}

func TestImportLimiter_WaitForDrain(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := NewImportLimiter(1, time.Second)
	release, err := l.Acquire(context.Background(), "x")
	require.NoError(t, err)

	go func() {
		time.Sleep(20 * time.Millisecond)
		release()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, l.WaitForDrain(ctx))

	status := l.Status()
	require.Len(t, status, 1)
	assert.Equal(t, ImportLimiterStatus{Registry: "x", Active: 0, Available: 1}, status[0])
}
