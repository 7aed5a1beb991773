// Package retry содержит утилиты повторных попыток.
package retry

import (
	"context"
	"errors"
	"math"
	"math/bits"
	"math/rand/v2"
	"net"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// Backoff рассчитывает экспоненциальные задержки: Base * 2^attempt, не больше Cap.
// С Jitter задержка выбирается равномерно из [0, wait).
type Backoff struct {
	Base   time.Duration
	Cap    time.Duration
	Jitter bool
}

func NewBackoff(base, capDur time.Duration, jitter bool) *Backoff {
	if capDur > 0 && base > capDur {
		base = capDur
	}
	return &Backoff{Base: base, Cap: capDur, Jitter: jitter}
}

// WaitDuration возвращает задержку перед повтором номер attempt (0-базовый).
func (b *Backoff) WaitDuration(attempt int) time.Duration {
	if b == nil || b.Base <= 0 || attempt < 0 {
		return 0
	}

	wait := b.Base
	if attempt >= bits.LeadingZeros64(uint64(wait)) {
		wait = math.MaxInt64
	} else {
		wait <<= attempt
	}
	if b.Cap > 0 && wait > b.Cap {
		wait = b.Cap
	}
	if b.Jitter {
		wait = rand.N(wait)
	}
	return wait
}

// Policy задает правила повторов. ShouldRetry == nil повторяет любую ошибку.
type Policy struct {
	MaxRetries  int
	Backoff     *Backoff
	ShouldRetry func(err error) bool
}

func (p Policy) retryable(err error) bool {
	return p.ShouldRetry == nil || p.ShouldRetry(err)
}

// Do выполняет op не более MaxRetries+1 раз. onRetry получает номер
// неудачной попытки (1-базовый) и задержку перед следующей.
func Do(ctx context.Context, policy Policy, op func() error, onRetry func(err error, attempt int, wait time.Duration)) error {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := op()
		if err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if attempt >= policy.MaxRetries || !policy.retryable(err) {
			return err
		}

		wait := policy.Backoff.WaitDuration(attempt)
		if onRetry != nil {
			onRetry(err, attempt+1, wait)
		}
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Startup возвращает политику для подключения к БД и миграций при запуске.
func Startup() Policy {
	return Policy{
		MaxRetries:  3,
		Backoff:     NewBackoff(time.Second, 5*time.Second, false),
		ShouldRetry: IsConnectionError,
	}
}

// IsConnectionError сообщает, что ошибка вызвана недоступностью Postgres:
// класс SQLSTATE 08, ошибка установки соединения или сетевая ошибка.
func IsConnectionError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08"
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
