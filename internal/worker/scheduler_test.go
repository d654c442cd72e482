package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"waapiview/internal/services"
)

func waitResult(t *testing.T, handle *Handle) Result {
	t.Helper()
	select {
	case result := <-handle.Done():
		return result
	case <-time.After(5 * time.Second):
		t.Fatalf("timeout waiting for %s", handle.Label)
		return Result{}
	}
}

func TestSubmitRunsInOrderOneAtATime(t *testing.T) {
	scheduler := NewScheduler(context.Background())
	defer scheduler.Close()

	var mu sync.Mutex
	order := []int{}
	var active int32
	var overlap int32

	handles := []*Handle{}
	for i := 0; i < 20; i += 1 {
		i := i
		handles = append(handles, scheduler.Submit("job", func(ctx context.Context) (any, error) {
			if atomic.AddInt32(&active, 1) > 1 {
				atomic.StoreInt32(&overlap, 1)
			}
			time.Sleep(time.Millisecond)
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			atomic.AddInt32(&active, -1)
			return i, nil
		}))
	}
	for i, handle := range handles {
		result := waitResult(t, handle)
		assert.Equal(t, result.Err, nil)
		assert.Equal(t, result.Value, i)
		assert.Equal(t, handle.Serial, true)
	}

	expected := []int{}
	for i := 0; i < 20; i += 1 {
		expected = append(expected, i)
	}
	assert.Equal(t, order, expected)
	assert.Equal(t, atomic.LoadInt32(&overlap), int32(0))
}

func TestSpawnRunsConcurrently(t *testing.T) {
	scheduler := NewScheduler(context.Background())
	defer scheduler.Close()

	release := make(chan struct{})
	first := scheduler.Spawn("first", func(ctx context.Context) (any, error) {
		select {
		case <-release:
			return "first", nil
		case <-time.After(5 * time.Second):
			return nil, errors.New("never released")
		}
	})
	second := scheduler.Spawn("second", func(ctx context.Context) (any, error) {
		close(release)
		return "second", nil
	})

	assert.Equal(t, waitResult(t, second).Value, "second")
	result := waitResult(t, first)
	assert.Equal(t, result.Err, nil)
	assert.Equal(t, result.Value, "first")
	assert.Equal(t, first.Serial, false)
}

func TestSpawnDoesNotWaitForSerialQueue(t *testing.T) {
	scheduler := NewScheduler(context.Background())
	defer scheduler.Close()

	release := make(chan struct{})
	blocked := scheduler.Submit("blocked", func(ctx context.Context) (any, error) {
		<-release
		return nil, nil
	})
	spawned := scheduler.Spawn("search", func(ctx context.Context) (any, error) {
		return 7, nil
	})
	assert.Equal(t, waitResult(t, spawned).Value, 7)
	close(release)
	assert.Equal(t, waitResult(t, blocked).Err, nil)
}

func TestCloseDiscardsQueuedAndRunning(t *testing.T) {
	scheduler := NewScheduler(context.Background())

	started := make(chan struct{})
	release := make(chan struct{})
	running := scheduler.Submit("running", func(ctx context.Context) (any, error) {
		close(started)
		<-release
		return "late", nil
	})
	queued := scheduler.Submit("queued", func(ctx context.Context) (any, error) {
		t.Error("queued job must not run after close")
		return nil, nil
	})
	<-started
	scheduler.Close()

	assert.Equal(t, errors.Is(waitResult(t, queued).Err, services.ErrDisconnected), true)
	close(release)
	result := waitResult(t, running)
	assert.Equal(t, errors.Is(result.Err, services.ErrDisconnected), true)
	assert.Equal(t, result.Value, nil)

	late := scheduler.Submit("late", func(ctx context.Context) (any, error) { return nil, nil })
	assert.Equal(t, errors.Is(waitResult(t, late).Err, services.ErrDisconnected), true)
	spawned := scheduler.Spawn("late", func(ctx context.Context) (any, error) { return nil, nil })
	assert.Equal(t, errors.Is(waitResult(t, spawned).Err, services.ErrDisconnected), true)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.Equal(t, scheduler.Wait(ctx), nil)
	assert.Equal(t, scheduler.Closed(), true)
}

func TestPanicBecomesError(t *testing.T) {
	scheduler := NewScheduler(context.Background())
	defer scheduler.Close()

	handle := scheduler.Submit("boom", func(ctx context.Context) (any, error) {
		panic("boom")
	})
	result := waitResult(t, handle)
	assert.NotEqual(t, result.Err, nil)

	after := scheduler.Submit("after", func(ctx context.Context) (any, error) { return 1, nil })
	assert.Equal(t, waitResult(t, after).Value, 1)
}

func TestHandleWaitHonorsContext(t *testing.T) {
	scheduler := NewScheduler(context.Background())
	defer scheduler.Close()

	release := make(chan struct{})
	defer close(release)
	handle := scheduler.Submit("slow", func(ctx context.Context) (any, error) {
		<-release
		return nil, nil
	})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	result := handle.Wait(ctx)
	assert.Equal(t, errors.Is(result.Err, context.DeadlineExceeded), true)

	other := scheduler.Submit("other", func(ctx context.Context) (any, error) { return nil, nil })
	assert.NotEqual(t, other.ID, handle.ID)
}
