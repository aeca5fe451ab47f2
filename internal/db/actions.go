package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/marcus/plansync/internal/edits"
)

// ActionRow is one journaled edit.
type ActionRow struct {
	Seq         int64
	ID          string
	SessionID   string
	Action      edits.Action
	CreatedAt   time.Time
	Undone      bool
	SubmittedAt *time.Time
}

const actionSelectCols = `seq, id, session_id, payload, created_at, undone, submitted_at`

// RecordAction appends a to the journal of sessionID.
func (db *DB) RecordAction(sessionID string, a edits.Action) (*ActionRow, error) {
	payload, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode action: %w", err)
	}
	id, err := generateActionID()
	if err != nil {
		return nil, err
	}
	row := &ActionRow{ID: id, SessionID: sessionID, Action: a, CreatedAt: time.Now()}
	err = db.withWriteLock("record action", func() error {
		res, err := db.conn.Exec(`INSERT INTO actions (id, session_id, op, payload, created_at)
			VALUES (?, ?, ?, ?, ?)`, row.ID, sessionID, string(a.Op), string(payload), row.CreatedAt)
		if err != nil {
			return err
		}
		row.Seq, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

// PendingActions returns the live actions of sessionID that have not been
// submitted, oldest first.
func (db *DB) PendingActions(sessionID string) ([]ActionRow, error) {
	return db.queryActions(`SELECT `+actionSelectCols+` FROM actions
		WHERE session_id = ? AND undone = 0 AND submitted_at IS NULL
		ORDER BY seq`, sessionID)
}

// Actions returns every live action of sessionID, oldest first.
func (db *DB) Actions(sessionID string) ([]ActionRow, error) {
	return db.queryActions(`SELECT `+actionSelectCols+` FROM actions
		WHERE session_id = ? AND undone = 0
		ORDER BY seq`, sessionID)
}

// UndoLast marks the newest pending action of sessionID undone and returns
// it, or nil when there is nothing to undo. Submitted actions are final.
func (db *DB) UndoLast(sessionID string) (*ActionRow, error) {
	var undone *ActionRow
	err := db.withWriteLock("undo", func() error {
		rows, err := db.queryActions(`SELECT `+actionSelectCols+` FROM actions
			WHERE session_id = ? AND undone = 0 AND submitted_at IS NULL
			ORDER BY seq DESC LIMIT 1`, sessionID)
		if err != nil || len(rows) == 0 {
			return err
		}
		if _, err := db.conn.Exec(`UPDATE actions SET undone = 1 WHERE seq = ?`, rows[0].Seq); err != nil {
			return err
		}
		undone = &rows[0]
		undone.Undone = true
		return nil
	})
	return undone, err
}

// MarkSubmitted stamps every pending action of sessionID as submitted.
func (db *DB) MarkSubmitted(sessionID string, at time.Time) (int64, error) {
	var count int64
	err := db.withWriteLock("mark submitted", func() error {
		res, err := db.conn.Exec(`UPDATE actions SET submitted_at = ?
			WHERE session_id = ? AND undone = 0 AND submitted_at IS NULL`, at, sessionID)
		if err != nil {
			return err
		}
		count, err = res.RowsAffected()
		return err
	})
	return count, err
}

func (db *DB) queryActions(query string, args ...any) ([]ActionRow, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ActionRow
	for rows.Next() {
		var a ActionRow
		var payload string
		var undone int
		var submitted sql.NullTime
		if err := rows.Scan(&a.Seq, &a.ID, &a.SessionID, &payload, &a.CreatedAt, &undone, &submitted); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(payload), &a.Action); err != nil {
			return nil, fmt.Errorf("decode action %s: %w", a.ID, err)
		}
		a.Undone = undone != 0
		if submitted.Valid {
			t := submitted.Time
			a.SubmittedAt = &t
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
