package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"lokanta-backend/internal/apperr"
)

const (
	maxAttempts = 3
	baseBackoff = 50 * time.Millisecond
)

// WithRetry: geçici depolama hatalarında (deadlock, kilitli veritabanı, kopan
// bağlantı) işlemi sınırlı sayıda tekrar dener. Sınıflandırılmış çekirdek
// hataları ve kalıcı hatalar tekrar denenmeden aynen döner; denemeler
// tükenince ServiceUnavailable üretilir. İptal edilen context işlemi keser.
func WithRetry(ctx context.Context, fn func() error) error {
	backoff := baseBackoff
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}

		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return err
		}
		if !isTransient(err) {
			return err
		}
		if attempt == maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return apperr.WithDetails(apperr.KindServiceUnavailable,
		"Depolama işlemi tekrar denemelere rağmen tamamlanamadı",
		map[string]any{"cause": err.Error()})
}

// isTransient: Postgres ve SQLite sürücülerinin geçici hata mesajları.
func isTransient(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, s := range []string{
		"deadlock",
		"database is locked",
		"database table is locked",
		"busy",
		"connection refused",
		"connection reset",
		"bad connection",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
