package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// ErrBusy is returned when a store's advisory lock could not be acquired
// within the configured wait. Callers should surface it as "busy, try
// again" rather than blocking indefinitely.
var ErrBusy = errors.New("store busy, try again")

// lockRetryInterval is the poll interval for the non-blocking flock loop.
const lockRetryInterval = 25 * time.Millisecond

// withLock runs fn while holding an exclusive advisory lock on
// path+".lock". The lock is acquired with a bounded wait (ErrBusy on
// timeout) and released unconditionally on every exit path.
func withLock(path string, timeout time.Duration, fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	f, err := os.OpenFile(path+".lock", os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return fmt.Errorf("opening lock file: %w", err)
	}
	defer f.Close()

	deadline := time.Now().Add(timeout)
	for {
		err = syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
		if err == nil {
			break
		}
		if err != syscall.EWOULDBLOCK && err != syscall.EAGAIN {
			return fmt.Errorf("acquiring file lock: %w", err)
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("lock on %s: %w", path, ErrBusy)
		}
		time.Sleep(lockRetryInterval)
	}
	defer syscall.Flock(int(f.Fd()), syscall.LOCK_UN)

	return fn()
}
