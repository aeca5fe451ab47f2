// Package db is the local edit journal: the open editing session, the
// actions recorded against it and a content cache of fetched blobs.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const (
	stateDir = ".plansync"
	dbFile   = "session.db"
)

// DB wraps the journal connection.
type DB struct {
	conn    *sql.DB
	baseDir string
}

// Path returns the journal file location under baseDir.
func Path(baseDir string) string {
	return filepath.Join(baseDir, stateDir, dbFile)
}

// Open opens the journal under baseDir, creating it when missing, and runs
// pending migrations.
func Open(baseDir string) (*DB, error) {
	dbPath := Path(baseDir)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	// WAL keeps readers off the writer's back; writes are serialized by the lock.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=500"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	conn.Exec("PRAGMA synchronous=NORMAL")

	db := &DB{conn: conn, baseDir: baseDir}
	if _, err := db.RunMigrations(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}

// Close closes the journal.
func (db *DB) Close() error {
	return db.conn.Close()
}

// BaseDir returns the directory holding the state dir.
func (db *DB) BaseDir() string {
	return db.baseDir
}

// withWriteLock runs fn while holding the cross-process journal lock. op
// names the write for whoever finds the lock held.
func (db *DB) withWriteLock(op string, fn func() error) error {
	locker := newWriteLocker(db.baseDir, op)
	if err := locker.acquire(defaultTimeout); err != nil {
		return err
	}
	defer locker.release()
	return fn()
}
