//go:build unix

package db

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func lockDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, stateDir), 0755); err != nil {
		t.Fatalf("create state dir: %v", err)
	}
	return dir
}

func TestWriteLockerSerializesWriters(t *testing.T) {
	dir := lockDir(t)
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		overlap bool
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				l := newWriteLocker(dir, "test")
				if err := l.acquire(5 * time.Second); err != nil {
					t.Errorf("acquire: %v", err)
					return
				}
				mu.Lock()
				inside++
				if inside > 1 {
					overlap = true
				}
				mu.Unlock()
				time.Sleep(time.Millisecond)
				mu.Lock()
				inside--
				mu.Unlock()
				l.release()
			}
		}()
	}
	wg.Wait()
	if overlap {
		t.Error("two holders inside the lock at once")
	}
}

func TestWriteLockerTimeoutNamesHolder(t *testing.T) {
	dir := lockDir(t)
	first := newWriteLocker(dir, "test")
	if err := first.acquire(time.Second); err != nil {
		t.Fatal(err)
	}
	defer first.release()

	err := newWriteLocker(dir, "undo").acquire(50 * time.Millisecond)
	if !errors.Is(err, ErrJournalBusy) {
		t.Fatalf("expected ErrJournalBusy, got %v", err)
	}
	var lte *LockTimeoutError
	if !errors.As(err, &lte) {
		t.Fatalf("expected *LockTimeoutError, got %T", err)
	}
	if lte.Op != "undo" {
		t.Errorf("op = %q", lte.Op)
	}
	if lte.Holder == nil || lte.Holder.PID != os.Getpid() || lte.Holder.Op != "test" || lte.Holder.Stale {
		t.Errorf("holder = %+v", lte.Holder)
	}
}

func TestWriteLockerReleaseLetsOthersIn(t *testing.T) {
	dir := lockDir(t)
	first := newWriteLocker(dir, "test")
	if err := first.acquire(time.Second); err != nil {
		t.Fatal(err)
	}
	if err := first.release(); err != nil {
		t.Fatal(err)
	}
	second := newWriteLocker(dir, "test")
	if err := second.acquire(100 * time.Millisecond); err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	second.release()
}
