// Package postgres provides the PostgreSQL implementation of localmind storage.
//
// It serves hosts that centralize persistence on a shared database instead of
// the on-device SQLite default. Event attributes are stored as JSONB; engine
// snapshots are stored as BYTEA.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/localmind-ai/localmind-go/pkg/entity"
)

// Client is a PostgreSQL storage client.
type Client struct {
	db *sql.DB
}

// Config contains PostgreSQL configuration.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// NewClient creates a new PostgreSQL storage client.
func NewClient(cfg *Config) (*Client, error) {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, sslMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("NewPostgresClient: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewPostgresClient: %w", err)
	}

	return &Client{db: db}, nil
}

// Initialize creates the table structure if it does not exist.
func (c *Client) Initialize(ctx context.Context) error {
	stateTable := `
		CREATE TABLE IF NOT EXISTS container_states (
			user_id VARCHAR(255) PRIMARY KEY,
			state_data BYTEA NOT NULL,
			version INTEGER NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := c.db.ExecContext(ctx, stateTable); err != nil {
		return fmt.Errorf("Initialize: create container_states: %w", err)
	}

	eventTable := `
		CREATE TABLE IF NOT EXISTS interaction_data (
			id BIGINT PRIMARY KEY,
			type VARCHAR(255) NOT NULL,
			user_id VARCHAR(255) NOT NULL,
			attributes JSONB,
			timestamp BIGINT NOT NULL
		)
	`
	if _, err := c.db.ExecContext(ctx, eventTable); err != nil {
		return fmt.Errorf("Initialize: create interaction_data: %w", err)
	}

	indexQuery := `
		CREATE INDEX IF NOT EXISTS idx_interaction_user_time
		ON interaction_data(user_id, timestamp)
	`
	if _, err := c.db.ExecContext(ctx, indexQuery); err != nil {
		return fmt.Errorf("Initialize: create index: %w", err)
	}

	return nil
}

// SaveSnapshot persists the engine state for a user (upsert).
func (c *Client) SaveSnapshot(ctx context.Context, userID string, snapshot *entity.ModelSnapshot) error {
	query := `
		INSERT INTO container_states (user_id, state_data, version, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			state_data = EXCLUDED.state_data,
			version = EXCLUDED.version,
			updated_at = EXCLUDED.updated_at
	`

	_, err := c.db.ExecContext(ctx, query, userID, snapshot.Payload, snapshot.Version, time.Now())
	if err != nil {
		return fmt.Errorf("SaveSnapshot: %w", err)
	}

	return nil
}

// LoadSnapshot returns the stored snapshot for a user, or (nil, nil) if none exists.
func (c *Client) LoadSnapshot(ctx context.Context, userID string) (*entity.ModelSnapshot, error) {
	query := `SELECT state_data, version FROM container_states WHERE user_id = $1`

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
		VALUES ($1, $2, $3, $4, $5)
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
	whereClause := "WHERE user_id = $1"
	args := []interface{}{userID}

	if kindFilter != "" {
		whereClause += " AND type = $2"
		args = append(args, kindFilter)
	}

	query := fmt.Sprintf(`
		SELECT id, type, user_id, attributes, timestamp
		FROM interaction_data
		%s
		ORDER BY timestamp DESC
		LIMIT $%d
	`, whereClause, len(args)+1)
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
	if _, err := c.db.ExecContext(ctx, `DELETE FROM container_states WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("DeleteUserData: %w", err)
	}
	if _, err := c.db.ExecContext(ctx, `DELETE FROM interaction_data WHERE user_id = $1`, userID); err != nil {
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
