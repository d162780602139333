// Package sqlite implements store.Store on modernc.org/sqlite for local builds.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Open opens (or creates) a SQLite database at path with WAL and foreign keys on.
func Open(path string) (*sql.DB, error) {
	// ensure parent directory exists to avoid SQLITE_CANTOPEN errors
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// a single writer avoids SQLITE_BUSY under concurrent handlers
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS Users (
	UserId       TEXT PRIMARY KEY,
	Email        TEXT NOT NULL UNIQUE,
	Name         TEXT NOT NULL DEFAULT '',
	PasswordHash TEXT NOT NULL,
	CreationTime INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS Memorials (
	MemorialId   TEXT PRIMARY KEY,
	OwnerId      TEXT NOT NULL,
	Slug         TEXT NOT NULL UNIQUE,
	FullName     TEXT NOT NULL,
	BirthDate    TEXT NOT NULL DEFAULT '',
	DeathDate    TEXT NOT NULL DEFAULT '',
	Biography    TEXT NOT NULL DEFAULT '',
	Location     TEXT NOT NULL DEFAULT '',
	Visibility   TEXT NOT NULL,
	Timeline     TEXT NOT NULL DEFAULT '[]',
	CreationTime INTEGER NOT NULL,
	UpdateTime   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS MemorialsByOwner ON Memorials (OwnerId);
CREATE TABLE IF NOT EXISTS Tributes (
	TributeId    TEXT PRIMARY KEY,
	MemorialId   TEXT NOT NULL REFERENCES Memorials (MemorialId) ON DELETE CASCADE,
	AuthorName   TEXT NOT NULL,
	Message      TEXT NOT NULL,
	SessionId    TEXT NOT NULL,
	CreationTime INTEGER NOT NULL,
	UpdateTime   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS TributesByMemorial ON Tributes (MemorialId, CreationTime);
CREATE TABLE IF NOT EXISTS Rsvps (
	RsvpId       TEXT PRIMARY KEY,
	MemorialId   TEXT NOT NULL REFERENCES Memorials (MemorialId) ON DELETE CASCADE,
	Name         TEXT NOT NULL,
	Email        TEXT NOT NULL DEFAULT '',
	Phone        TEXT NOT NULL DEFAULT '',
	Attendees    INTEGER NOT NULL DEFAULT 1,
	Message      TEXT NOT NULL DEFAULT '',
	CreationTime INTEGER NOT NULL
);
`

// EnsureSchema creates the tables when missing. It is safe to run repeatedly.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
