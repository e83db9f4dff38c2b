package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"lokanta-backend/internal/apperr"
)

func TestWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("database is locked")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("beklenmeyen hata: %v", err)
	}
	if calls != 3 {
		t.Errorf("3 deneme bekleniyordu: %d", calls)
	}
}

func TestWithRetryExhaustion(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return errors.New("deadlock detected")
	})
	if !apperr.IsKind(err, apperr.KindServiceUnavailable) {
		t.Fatalf("ServiceUnavailable bekleniyordu: %v", err)
	}
	if calls != 3 {
		t.Errorf("denemeler 3'te durmalıydı: %d", calls)
	}
}

func TestWithRetryDoesNotRetryClassifiedErrors(t *testing.T) {
	calls := 0
	want := apperr.New(apperr.KindInsufficientStock, "stok yetersiz")
	err := WithRetry(context.Background(), func() error {
		calls++
		return want
	})
	// Sınıflandırılmış hatalar aynen döner, tekrar denenmez
	if err != want {
		t.Errorf("hata aynen dönmeliydi: %v", err)
	}
	if calls != 1 {
		t.Errorf("tek deneme bekleniyordu: %d", calls)
	}
}

func TestWithRetryDoesNotRetryPermanentErrors(t *testing.T) {
	calls := 0
	want := errors.New("UNIQUE constraint failed")
	err := WithRetry(context.Background(), func() error {
		calls++
		return want
	})
	if err != want {
		t.Errorf("hata aynen dönmeliydi: %v", err)
	}
	if calls != 1 {
		t.Errorf("tek deneme bekleniyordu: %d", calls)
	}
}

func TestWithRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := WithRetry(ctx, func() error {
		return errors.New("database is locked")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("context.Canceled bekleniyordu: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("iptal edilen context beklemeden dönmeli: %v", elapsed)
	}
}
