package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/topiclab/internal/infrastructure/database"
	"github.com/nerrad567/topiclab/migrations"
)

// lastConnectionKey is the settings row holding AppData.LastConnectionID.
const lastConnectionKey = "last_connection_id"

// SQLiteStore keeps AppData in the connections and settings tables.
type SQLiteStore struct {
	db *database.DB
}

// OpenSQLite opens the database, applies migrations and returns a store
// that owns the connection.
func OpenSQLite(ctx context.Context, cfg database.Config) (*SQLiteStore, error) {
	db, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		db.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("migrating profile database: %w", err)
	}
	return NewSQLiteStore(db), nil
}

// NewSQLiteStore wraps an already migrated database.
func NewSQLiteStore(db *database.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Load reads every connection in saved order.
func (s *SQLiteStore) Load(ctx context.Context) (AppData, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, document FROM connections ORDER BY position")
	if err != nil {
		return AppData{}, fmt.Errorf("querying connections: %w", err)
	}
	defer rows.Close()

	data := AppData{Connections: []Connection{}}
	for rows.Next() {
		var id, doc string
		if err := rows.Scan(&id, &doc); err != nil {
			return AppData{}, fmt.Errorf("scanning connection: %w", err)
		}
		var c Connection
		if err := json.Unmarshal([]byte(doc), &c); err != nil {
			return AppData{}, fmt.Errorf("decoding connection %s: %w", id, err)
		}
		data.Connections = append(data.Connections, c)
	}
	if err := rows.Err(); err != nil {
		return AppData{}, fmt.Errorf("iterating connections: %w", err)
	}

	err = s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", lastConnectionKey).
		Scan(&data.LastConnectionID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return AppData{}, fmt.Errorf("reading %s: %w", lastConnectionKey, err)
	}
	return data, nil
}

// Save replaces all rows in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, data AppData) error {
	now := time.Now().UTC().Format(time.RFC3339)

	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM connections"); err != nil {
			return fmt.Errorf("clearing connections: %w", err)
		}
		for i, c := range data.Connections {
			doc, err := json.Marshal(c)
			if err != nil {
				return fmt.Errorf("encoding connection %s: %w", c.ID, err)
			}
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO connections (id, position, document, updated_at) VALUES (?, ?, ?, ?)",
				c.ID, i, string(doc), now,
			); err != nil {
				return fmt.Errorf("inserting connection %s: %w", c.ID, err)
			}
		}

		if data.LastConnectionID == "" {
			_, err := tx.ExecContext(ctx, "DELETE FROM settings WHERE key = ?", lastConnectionKey)
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO settings (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			lastConnectionKey, data.LastConnectionID,
		)
		return err
	})
}

// Delete removes every connection and setting.
func (s *SQLiteStore) Delete(ctx context.Context) error {
	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM connections"); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "DELETE FROM settings")
		return err
	})
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
