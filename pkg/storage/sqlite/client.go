// Package sqlite provides the SQLite implementation of localmind storage.
//
// SQLite is the default on-device backend: a single file, no server, and
// everything stays local. Event attributes are stored as JSON strings in
// TEXT fields; engine snapshots are stored as BLOBs.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/localmind-ai/localmind-go/pkg/entity"
)

// Client implements storage.DataStorage using SQLite as the backend.
type Client struct {
	// db is the SQLite database connection.
	db *sql.DB
}

// Config contains configuration for creating a SQLite storage client.
type Config struct {
	// DBPath is the path to the SQLite database file.
	DBPath string
}

// NewClient creates a new SQLite storage client.
//
// Parameters:
//   - cfg: Configuration containing the database file path
//
// Returns:
//   - *Client: The SQLite client instance
//   - error: Error if the database cannot be opened
func NewClient(cfg *Config) (*Client, error) {
	// Create parent directory if it doesn't exist
	dbDir := filepath.Dir(cfg.DBPath)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("NewSQLiteClient: failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_foreign_keys=1&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	return &Client{db: db}, nil
}

// Initialize creates the table structure if it does not exist.
func (c *Client) Initialize(ctx context.Context) error {
	stateTable := `
		CREATE TABLE IF NOT EXISTS container_states (
			user_id TEXT PRIMARY KEY,
			state_data BLOB NOT NULL,
			version INTEGER NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := c.db.ExecContext(ctx, stateTable); err != nil {
		return fmt.Errorf("Initialize: %w", err)
	}

	eventTable := `
		CREATE TABLE IF NOT EXISTS interaction_data (
			id INTEGER PRIMARY KEY,
			type TEXT NOT NULL,
			user_id TEXT NOT NULL,
			attributes TEXT,
			timestamp INTEGER NOT NULL
		)
	`
	if _, err := c.db.ExecContext(ctx, eventTable); err != nil {
		return fmt.Errorf("Initialize: %w", err)
	}

	indexQuery := `
		CREATE INDEX IF NOT EXISTS idx_interaction_user_time
		ON interaction_data(user_id, timestamp)
	`
	if _, err := c.db.ExecContext(ctx, indexQuery); err != nil {
		return fmt.Errorf("Initialize: %w", err)
	}

	return nil
}

// SaveSnapshot persists the engine state for a user.
//
// An existing snapshot for the same user is replaced (upsert).
func (c *Client) SaveSnapshot(ctx context.Context, userID string, snapshot *entity.ModelSnapshot) error {
	query := `
		INSERT INTO container_states (user_id, state_data, version, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			state_data = excluded.state_data,
			version = excluded.version,
			updated_at = excluded.updated_at
	`

	_, err := c.db.ExecContext(ctx, query, userID, snapshot.Payload, snapshot.Version, time.Now())
	if err != nil {
		return fmt.Errorf("SaveSnapshot: %w", err)
	}

	return nil
}

// LoadSnapshot returns the stored snapshot for a user, or (nil, nil) if none exists.
func (c *Client) LoadSnapshot(ctx context.Context, userID string) (*entity.ModelSnapshot, error) {
	query := `SELECT state_data, version FROM container_states WHERE user_id = ?`

	var snapshot entity.ModelSnapshot
	err := c.db.QueryRowContext(ctx, query, userID).Scan(&snapshot.Payload, &snapshot.Version)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("LoadSnapshot: %w", err)
	}

	return &snapshot, nil
}

// SaveEvent persists one interaction event.
//
// Attributes are stored as a JSON string in a TEXT field.
func (c *Client) SaveEvent(ctx context.Context, event *entity.InteractionEvent) error {
	attributesJSON, err := json.Marshal(event.Attributes)
	if err != nil {
		return fmt.Errorf("SaveEvent: %w", err)
	}

	query := `
		INSERT INTO interaction_data (id, type, user_id, attributes, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err = c.db.ExecContext(ctx, query,
		event.ID,
		event.Kind,
		event.UserID,
		string(attributesJSON),
		event.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("SaveEvent: %w", err)
	}

	return nil
}

// LoadRecentEvents returns up to limit events for a user, newest first.
func (c *Client) LoadRecentEvents(ctx context.Context, userID string, limit int, kindFilter string) ([]*entity.InteractionEvent, error) {
	whereClause := "WHERE user_id = ?"
	args := []interface{}{userID}

	if kindFilter != "" {
		whereClause += " AND type = ?"
		args = append(args, kindFilter)
	}

	query := fmt.Sprintf(`
		SELECT id, type, user_id, attributes, timestamp
		FROM interaction_data
		%s
		ORDER BY timestamp DESC
		LIMIT ?
	`, whereClause)
	args = append(args, limit)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("LoadRecentEvents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []*entity.InteractionEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("LoadRecentEvents: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("LoadRecentEvents: %w", err)
	}

	return events, nil
}

// DeleteUserData removes the snapshot and all events for a user.
func (c *Client) DeleteUserData(ctx context.Context, userID string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM container_states WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("DeleteUserData: %w", err)
	}
	if _, err := c.db.ExecContext(ctx, `DELETE FROM interaction_data WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("DeleteUserData: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// scanEvent scans one interaction event from a result row.
func scanEvent(rows *sql.Rows) (*entity.InteractionEvent, error) {
	var event entity.InteractionEvent
	var attributesStr sql.NullString

	if err := rows.Scan(
		&event.ID,
		&event.Kind,
		&event.UserID,
		&attributesStr,
		&event.OccurredAt,
	); err != nil {
		return nil, err
	}

	if attributesStr.Valid && attributesStr.String != "" && attributesStr.String != "null" {
		if err := json.Unmarshal([]byte(attributesStr.String), &event.Attributes); err != nil {
			return nil, fmt.Errorf("parse attributes: %w", err)
		}
	}

	return &event, nil
}
