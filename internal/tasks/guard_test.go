package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stylus-audio/stylus/internal/models"
	"github.com/stylus-audio/stylus/internal/shared"
)

func TestGuard_SingleFlight(t *testing.T) {
	guard := NewGuard()
	ctx := context.Background()

	release := make(chan struct{})
	task := func(ctx context.Context) (*models.SyncRun, error) {
		<-release
		return models.NewSyncRun(1, "user1", models.KindCollection), nil
	}

	handle, err := guard.TryStart(ctx, "user1", models.KindCollection, task)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !guard.Running("user1", models.KindCollection) {
		t.Error("expected slot occupied")
	}

	if _, err := guard.TryStart(ctx, "user1", models.KindCollection, task); !errors.Is(err, shared.ErrSyncAlreadyRunning) {
		t.Errorf("expected ErrSyncAlreadyRunning, got %v", err)
	}

	// A different resource kind has its own slot.
	other, err := guard.TryStart(ctx, "user1", models.KindInventory, func(ctx context.Context) (*models.SyncRun, error) {
		return nil, nil
	})
	if err != nil {
		t.Fatalf("unexpected error for other kind: %v", err)
	}
	other.Wait()

	close(release)
	run, err := handle.Wait()
	if err != nil || run == nil {
		t.Fatalf("unexpected result: run=%v err=%v", run, err)
	}

	if guard.Running("user1", models.KindCollection) {
		t.Error("expected slot freed after the task returned")
	}

	// The freed slot can be claimed again.
	again, err := guard.TryStart(ctx, "user1", models.KindCollection, func(ctx context.Context) (*models.SyncRun, error) {
		return nil, nil
	})
	if err != nil {
		t.Fatalf("expected restart to succeed: %v", err)
	}
	again.Wait()
}

func TestGuard_Cancel(t *testing.T) {
	guard := NewGuard()

	started := make(chan struct{})
	task := func(ctx context.Context) (*models.SyncRun, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}

	if _, err := guard.TryStart(context.Background(), "user1", models.KindCollection, task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	<-started

	if !guard.Cancel("user1", models.KindCollection) {
		t.Fatal("expected a sync to cancel")
	}

	deadline := time.After(2 * time.Second)
	for guard.Running("user1", models.KindCollection) {
		select {
		case <-deadline:
			t.Fatal("sync did not stop after cancellation")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if guard.Cancel("user1", models.KindCollection) {
		t.Error("cancelling an empty slot should report false")
	}
}

func TestGuard_HandleWaitReturnsTaskError(t *testing.T) {
	guard := NewGuard()

	want := errors.New("boom")
	handle, err := guard.TryStart(context.Background(), "user1", models.KindCollection, func(ctx context.Context) (*models.SyncRun, error) {
		return nil, want
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := handle.Wait(); !errors.Is(err, want) {
		t.Errorf("expected task error, got %v", err)
	}
}
