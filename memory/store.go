package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/petasbytes/aicli/internal/ollama"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	role        TEXT NOT NULL,
	content     TEXT NOT NULL,
	tool_calls  TEXT,
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_messages_created ON messages(created_at);
`

// Store persists the conversation transcript in SQLite so chat sessions
// survive process restarts. Schema is owned by the app.
type Store struct {
	db *sql.DB
}

// DefaultStorePath places the database under the project's .aicli directory.
func DefaultStorePath(projectDir string) string {
	return filepath.Join(projectDir, ".aicli", "history.db")
}

// OpenStore opens (creating if missing) the SQLite database at path and
// applies the schema.
func OpenStore(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append inserts one message. Tool calls are stored as JSON alongside the
// content so a restored history replays exchanges intact.
func (s *Store) Append(ctx context.Context, m ollama.Message) error {
	var toolCalls sql.NullString
	if len(m.ToolCalls) > 0 {
		b, err := json.Marshal(m.ToolCalls)
		if err != nil {
			return err
		}
		toolCalls = sql.NullString{String: string(b), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (role, content, tool_calls) VALUES (?, ?, ?)`,
		m.Role, m.Content, toolCalls,
	)
	return err
}

// Recent returns the last limit messages in chronological order.
// limit <= 0 returns everything.
func (s *Store) Recent(ctx context.Context, limit int) ([]ollama.Message, error) {
	query := `SELECT role, content, tool_calls FROM messages ORDER BY id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ollama.Message
	for rows.Next() {
		var m ollama.Message
		var toolCalls sql.NullString
		if err := rows.Scan(&m.Role, &m.Content, &toolCalls); err != nil {
			return nil, err
		}
		if toolCalls.Valid {
			if err := json.Unmarshal([]byte(toolCalls.String), &m.ToolCalls); err != nil {
				return nil, fmt.Errorf("decoding stored tool calls: %w", err)
			}
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Reverse to chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Clear deletes the whole transcript; used by the /clear meta-command.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM messages`)
	return err
}
