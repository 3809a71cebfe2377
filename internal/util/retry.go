package util

import (
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	maxLockRetries = 3
	baseLockDelay  = 100 * time.Millisecond
)

// IsLockError reports whether err is SQLite's "database is locked"
func IsLockError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "database is locked")
}

// RetryOnLock retries the given function if it fails with a database lock error
func RetryOnLock(operation func() error) error {
	_, err := RetryOnLockWithResult(func() (struct{}, error) {
		return struct{}{}, operation()
	})
	return err
}

// RetryOnLockWithResult retries the given function if it fails with a database lock error
// and returns the result along with any error
func RetryOnLockWithResult[T any](operation func() (T, error)) (T, error) {
	var result T
	var err error

	for i := 0; i < maxLockRetries; i++ {
		result, err = operation()
		if err == nil {
			return result, nil
		}
		if !IsLockError(err) {
			return result, err
		}

		// Exponential backoff: 100ms, 200ms, 400ms
		delay := baseLockDelay * time.Duration(1<<i)
		zap.L().Warn("database locked, retrying", zap.Duration("delay", delay), zap.Int("attempt", i+1))
		time.Sleep(delay)
	}

	return result, err
}
