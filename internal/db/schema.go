package db

// SchemaVersion is the current journal schema version
const SchemaVersion = 2

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    username TEXT NOT NULL,
    base_branch TEXT NOT NULL,
    branch TEXT DEFAULT '',
    pr_number INTEGER DEFAULT 0,
    pr_title TEXT DEFAULT '',
    pr_body TEXT DEFAULT '',
    language TEXT NOT NULL DEFAULT 'en-us',
    started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    ended_at DATETIME
);

CREATE TABLE IF NOT EXISTS actions (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    session_id TEXT NOT NULL,
    op TEXT NOT NULL,
    payload TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    undone INTEGER DEFAULT 0,
    submitted_at DATETIME,
    FOREIGN KEY (session_id) REFERENCES sessions(id)
);

CREATE INDEX IF NOT EXISTS idx_actions_session ON actions(session_id);
`

// Migration defines a journal migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// Migrations is the list of all journal migrations in order
var Migrations = []Migration{
	// Version 1 is the initial schema
	{
		Version:     2,
		Description: "Add blobs table for the fetched content cache",
		SQL: `
CREATE TABLE IF NOT EXISTS blobs (
    sha TEXT PRIMARY KEY,
    content BLOB NOT NULL,
    fetched_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`,
	},
}
