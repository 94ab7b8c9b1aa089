// Package mysql provides the MySQL implementation of localmind storage.
//
// Schema-compatible with the PostgreSQL backend: per-user engine snapshots
// in container_states and raw interaction history in interaction_data.
package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/localmind-ai/localmind-go/pkg/entity"
)

// Client is a MySQL storage client.
type Client struct {
	db *sql.DB
}

// Config contains MySQL configuration.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// NewClient creates a new MySQL storage client.
func NewClient(cfg *Config) (*Client, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("NewMySQLClient: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewMySQLClient: %w", err)
	}

	return &Client{db: db}, nil
}

// Initialize creates the table structure if it does not exist.
func (c *Client) Initialize(ctx context.Context) error {
	stateTable := `
		CREATE TABLE IF NOT EXISTS container_states (
			user_id VARCHAR(128) PRIMARY KEY,
			state_data LONGBLOB NOT NULL,
			version INT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := c.db.ExecContext(ctx, stateTable); err != nil {
		return fmt.Errorf("Initialize: create container_states: %w", err)
	}

	eventTable := `
		CREATE TABLE IF NOT EXISTS interaction_data (
			id BIGINT PRIMARY KEY,
			type VARCHAR(255) NOT NULL,
			user_id VARCHAR(128) NOT NULL,
			attributes JSON,
			timestamp BIGINT NOT NULL,
			INDEX idx_interaction_user_time (user_id, timestamp)
		)
	`
	if _, err := c.db.ExecContext(ctx, eventTable); err != nil {
		return fmt.Errorf("Initialize: create interaction_data: %w", err)
	}

	return nil
}

// SaveSnapshot persists the engine state for a user (upsert).
func (c *Client) SaveSnapshot(ctx context.Context, userID string, snapshot *entity.ModelSnapshot) error {
	query := `
		INSERT INTO container_states (user_id, state_data, version, updated_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			state_data = VALUES(state_data),
			version = VALUES(version),
			updated_at = VALUES(updated_at)
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
