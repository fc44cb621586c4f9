package retry

import (
	"context"
	"time"
)

// Strategy описывает стратегию повторных попыток.
// Attempts <= 0 означает бесконечные повторы.
type Strategy struct {
	Attempts int
	Delay    time.Duration
	Backoff  float64
}

// Do выполняет fn до успеха или исчерпания попыток.
func Do(fn func() error, s Strategy) error {
	return DoWithContext(context.Background(), fn, s)
}

// DoWithContext выполняет fn согласно стратегии, прерываясь при отмене
// контекста. Возвращается последняя ошибка fn либо ошибка контекста.
func DoWithContext(ctx context.Context, fn func() error, s Strategy) error {
	delay := s.Delay
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if s.Attempts > 0 && attempt >= s.Attempts {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if s.Backoff > 1 {
			delay = time.Duration(float64(delay) * s.Backoff)
		}
	}
}
