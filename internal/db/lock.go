package db

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	lockFileName   = "session.lock"
	defaultTimeout = 500 * time.Millisecond
	initialBackoff = 5 * time.Millisecond
	maxBackoff     = 50 * time.Millisecond
)

// ErrJournalBusy matches a LockTimeoutError.
var ErrJournalBusy = errors.New("journal busy")

// LockHolder describes the process holding the journal lock, as recorded in
// the lock file.
type LockHolder struct {
	PID   int       `json:"pid"`
	Op    string    `json:"op"`
	Since time.Time `json:"since"`
	Stale bool      `json:"-"`
}

func (h *LockHolder) String() string {
	if h == nil {
		return "unknown holder"
	}
	s := fmt.Sprintf("pid %d (%s) since %s", h.PID, h.Op, h.Since.Format(time.RFC3339))
	if h.Stale {
		s += ", process gone"
	}
	return s
}

// LockTimeoutError is returned when the journal stays locked past the
// timeout. Holder is nil when the lock file could not be read.
type LockTimeoutError struct {
	Op      string
	Timeout time.Duration
	Holder  *LockHolder
}

func (e *LockTimeoutError) Error() string {
	return fmt.Sprintf("%s: journal locked for %v by %s", e.Op, e.Timeout, e.Holder)
}

func (e *LockTimeoutError) Is(target error) bool { return target == ErrJournalBusy }

// writeLocker serializes journal writes across plansync processes sharing
// one .plansync directory. The OS lock goes away with the process.
type writeLocker struct {
	lockPath string
	op       string
	lockFile *os.File
}

func newWriteLocker(baseDir, op string) *writeLocker {
	return &writeLocker{
		lockPath: filepath.Join(baseDir, stateDir, lockFileName),
		op:       op,
	}
}

// acquire takes the lock, backing off up to timeout.
func (l *writeLocker) acquire(timeout time.Duration) error {
	f, err := os.OpenFile(l.lockPath, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("open journal lock: %w", err)
	}
	l.lockFile = f

	deadline := time.Now().Add(timeout)
	for backoff := initialBackoff; ; backoff = min(backoff*2, maxBackoff) {
		if l.tryLock() == nil {
			l.writeHolder()
			return nil
		}
		if time.Now().After(deadline) {
			holder := l.readHolder()
			l.lockFile.Close()
			l.lockFile = nil
			return &LockTimeoutError{Op: l.op, Timeout: timeout, Holder: holder}
		}
		time.Sleep(backoff)
	}
}

// release clears the holder record and drops the lock.
func (l *writeLocker) release() error {
	if l.lockFile == nil {
		return nil
	}
	_ = l.lockFile.Truncate(0)
	l.unlock()
	err := l.lockFile.Close()
	l.lockFile = nil
	return err
}

func (l *writeLocker) writeHolder() {
	data, err := json.Marshal(LockHolder{PID: os.Getpid(), Op: l.op, Since: time.Now()})
	if err != nil {
		return
	}
	_ = l.lockFile.Truncate(0)
	if _, err := l.lockFile.WriteAt(data, 0); err == nil {
		_ = l.lockFile.Sync()
	}
}

// readHolder returns the recorded holder, or nil when there is none.
func (l *writeLocker) readHolder() *LockHolder {
	data, err := os.ReadFile(l.lockPath)
	if err != nil || len(data) == 0 {
		return nil
	}
	var h LockHolder
	if err := json.Unmarshal(data, &h); err != nil || h.PID == 0 {
		return nil
	}
	h.Stale = !isProcessAlive(h.PID)
	return &h
}
