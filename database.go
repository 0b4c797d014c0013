package main

import (
	"database/sql"
	"log"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite score archive
type DB struct {
	conn *sql.DB
}

// PilotRow represents a pilot account record
type PilotRow struct {
	ID        int64
	Username  string
	PassHash  string
	CreatedAt time.Time
}

// OpenDB opens (or creates) the SQLite database
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates tables if they don't exist
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pilots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		pass_hash TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS scores (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		room_id TEXT NOT NULL,
		username TEXT NOT NULL,
		pilot_id INTEGER NOT NULL DEFAULT 0,
		score INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scores_pilot ON scores(pilot_id);
	CREATE INDEX IF NOT EXISTS idx_scores_score ON scores(score);
	`
	_, err := db.conn.Exec(schema)
	if err != nil {
		log.Printf("DB migration error: %v", err)
	}
	return err
}

// CreatePilot creates a new pilot account (returns pilot ID)
func (db *DB) CreatePilot(username, passHash string) (int64, error) {
	res, err := db.conn.Exec(
		"INSERT INTO pilots (username, pass_hash) VALUES (?, ?)",
		username, passHash,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetPilotByUsername returns a pilot by username, nil when absent
func (db *DB) GetPilotByUsername(username string) (*PilotRow, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, pass_hash, created_at FROM pilots WHERE username = ?",
		username,
	)
	p := &PilotRow{}
	err := row.Scan(&p.ID, &p.Username, &p.PassHash, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// GetPilotByID returns a pilot by id, nil when absent
func (db *DB) GetPilotByID(id int64) (*PilotRow, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, pass_hash, created_at FROM pilots WHERE id = ?",
		id,
	)
	p := &PilotRow{}
	err := row.Scan(&p.ID, &p.Username, &p.PassHash, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// RecordScore archives one participant's final score for a finished match
func (db *DB) RecordScore(roomID, username string, pilotID int64, score int) error {
	_, err := db.conn.Exec(
		"INSERT INTO scores (room_id, username, pilot_id, score) VALUES (?, ?, ?, ?)",
		roomID, username, pilotID, score,
	)
	return err
}

// PilotSummary returns a pilot's best score and number of recorded games
func (db *DB) PilotSummary(pilotID int64) (best, games int, err error) {
	row := db.conn.QueryRow(
		"SELECT COALESCE(MAX(score), 0), COUNT(*) FROM scores WHERE pilot_id = ?",
		pilotID,
	)
	err = row.Scan(&best, &games)
	return best, games, err
}

// Leaderboard returns the top recorded scores
func (db *DB) Leaderboard(limit int) ([]LeaderboardEntry, error) {
	rows, err := db.conn.Query(
		"SELECT username, score FROM scores ORDER BY score DESC, created_at ASC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []LeaderboardEntry
	rank := 1
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.Score); err != nil {
			return nil, err
		}
		e.Rank = rank
		rank++
		result = append(result, e)
	}
	return result, rows.Err()
}

// GetSetting returns a settings value, empty string when absent
func (db *DB) GetSetting(key string) string {
	var value string
	err := db.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err != nil {
		return ""
	}
	return value
}

// SetSetting upserts a settings value
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}
