package db

import (
	"database/sql"
	"fmt"
	"time"
)

// GetBlob returns cached content for sha. Blob shas name their content, so
// cached rows never go stale.
func (db *DB) GetBlob(sha string) ([]byte, bool, error) {
	var content []byte
	err := db.conn.QueryRow(`SELECT content FROM blobs WHERE sha = ?`, sha).Scan(&content)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return content, true, nil
}

// PutBlobs caches every sha → content pair in one transaction under a
// single journal lock. Shas already cached are left alone.
func (db *DB) PutBlobs(blobs map[string][]byte) error {
	if len(blobs) == 0 {
		return nil
	}
	return db.withWriteLock("cache blobs", func() error {
		tx, err := db.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin blob batch: %w", err)
		}
		defer tx.Rollback()

		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO blobs (sha, content, fetched_at) VALUES (?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		now := time.Now()
		for sha, content := range blobs {
			if _, err := stmt.Exec(sha, content, now); err != nil {
				return fmt.Errorf("cache blob %s: %w", sha, err)
			}
		}
		return tx.Commit()
	})
}

// PruneBlobs drops cached blobs fetched before cutoff.
func (db *DB) PruneBlobs(before time.Time) (int64, error) {
	var count int64
	err := db.withWriteLock("prune blobs", func() error {
		res, err := db.conn.Exec(`DELETE FROM blobs WHERE fetched_at < ?`, before)
		if err != nil {
			return err
		}
		count, err = res.RowsAffected()
		return err
	})
	return count, err
}
