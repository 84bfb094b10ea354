package browser

import (
	"context"
	"time"
)

// PollUntil вызывает cond с фиксированным интервалом, пока оно не вернет
// true, не ошибется или не истечет таймаут. Единая точка для всех ожиданий
// состояния DOM вместо россыпи sleep-ов по коду.
func PollUntil(ctx context.Context, timeout, interval time.Duration, cond func() (bool, error)) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		ok, err := cond()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return ErrPollTimeout
		case <-ticker.C:
		}
	}
}
