package syncer

import "time"

// Retry defaults per remote write.
const (
	DefaultRetryAttempts = 3
	DefaultRetryBase     = 2 * time.Second
)

// withRetry runs op up to attempts times, sleeping base*2^(n-1) after
// each failed attempt. The sleep function is injectable so tests can
// observe the delays without waiting. The last error is returned when
// all attempts fail.
func withRetry(op func() error, attempts int, base time.Duration, sleep func(time.Duration)) error {
	if attempts < 1 {
		attempts = 1
	}
	if sleep == nil {
		sleep = time.Sleep
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		sleep(base << (attempt - 1))
	}
	return err
}
