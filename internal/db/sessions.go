package db

import (
	"database/sql"
	"errors"
	"time"
)

// ErrSessionOpen is returned when a session is started while another is open.
var ErrSessionOpen = errors.New("an editing session is already open")

// SessionRow is one editing session.
type SessionRow struct {
	ID         string
	Username   string
	BaseBranch string
	Branch     string
	PRNumber   int
	PRTitle    string
	PRBody     string
	Language   string
	StartedAt  time.Time
	EndedAt    *time.Time
}

const sessionSelectCols = `id, username, base_branch, branch, pr_number, pr_title, pr_body,
	language, started_at, ended_at`

// StartSession records a new open session and fills in its ID and start time.
func (db *DB) StartSession(sess *SessionRow) error {
	return db.withWriteLock("start session", func() error {
		var n int
		if err := db.conn.QueryRow(`SELECT COUNT(*) FROM sessions WHERE ended_at IS NULL`).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return ErrSessionOpen
		}
		if sess.ID == "" {
			id, err := generateSessionID()
			if err != nil {
				return err
			}
			sess.ID = id
		}
		if sess.StartedAt.IsZero() {
			sess.StartedAt = time.Now()
		}
		_, err := db.conn.Exec(`INSERT INTO sessions
			(id, username, base_branch, branch, pr_number, pr_title, pr_body, language, started_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sess.ID, sess.Username, sess.BaseBranch, sess.Branch, sess.PRNumber,
			sess.PRTitle, sess.PRBody, sess.Language, sess.StartedAt)
		return err
	})
}

// OpenSession returns the open session, or nil, nil when there is none.
func (db *DB) OpenSession() (*SessionRow, error) {
	row := db.conn.QueryRow(`SELECT ` + sessionSelectCols + `
		FROM sessions WHERE ended_at IS NULL ORDER BY started_at DESC LIMIT 1`)
	return scanSessionRow(row)
}

// GetSession looks up a session by ID. Returns nil, nil if not found.
func (db *DB) GetSession(id string) (*SessionRow, error) {
	row := db.conn.QueryRow(`SELECT `+sessionSelectCols+`
		FROM sessions WHERE id = ?`, id)
	return scanSessionRow(row)
}

// UpdateSessionBranch records the working branch of a session.
func (db *DB) UpdateSessionBranch(id, branch string) error {
	return db.withWriteLock("update branch", func() error {
		_, err := db.conn.Exec(`UPDATE sessions SET branch = ? WHERE id = ?`, branch, id)
		return err
	})
}

// UpdateSessionRequest records the pull request associated with a session.
func (db *DB) UpdateSessionRequest(id string, number int, title, body string) error {
	return db.withWriteLock("update request", func() error {
		_, err := db.conn.Exec(`UPDATE sessions SET pr_number = ?, pr_title = ?, pr_body = ? WHERE id = ?`,
			number, title, body, id)
		return err
	})
}

// EndSession closes a session. Its actions are kept.
func (db *DB) EndSession(id string) error {
	return db.withWriteLock("end session", func() error {
		_, err := db.conn.Exec(`UPDATE sessions SET ended_at = ? WHERE id = ? AND ended_at IS NULL`, time.Now(), id)
		return err
	})
}

func scanSessionRow(row *sql.Row) (*SessionRow, error) {
	var s SessionRow
	var endedAt sql.NullTime
	err := row.Scan(&s.ID, &s.Username, &s.BaseBranch, &s.Branch, &s.PRNumber,
		&s.PRTitle, &s.PRBody, &s.Language, &s.StartedAt, &endedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if endedAt.Valid {
		t := endedAt.Time
		s.EndedAt = &t
	}
	return &s, nil
}
