package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/evanmoss/chatstream/internal/chat"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// Schema for the chat database.
const schema = `
CREATE TABLE IF NOT EXISTS conversations (
    id TEXT PRIMARY KEY,
    title TEXT,
    model TEXT NOT NULL,
    user_id TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS messages (
    id TEXT PRIMARY KEY,
    conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
    role TEXT NOT NULL CHECK (role IN ('user', 'assistant', 'system')),
    content TEXT NOT NULL DEFAULT '',
    user_id TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS message_reactions (
    id TEXT PRIMARY KEY,
    message_id TEXT NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
    user_id TEXT NOT NULL,
    reaction TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (message_id, user_id, reaction)
);

CREATE INDEX IF NOT EXISTS idx_conversations_updated_at ON conversations(updated_at DESC);
CREATE INDEX IF NOT EXISTS idx_messages_conversation_id ON messages(conversation_id, created_at);
CREATE INDEX IF NOT EXISTS idx_reactions_message_id ON message_reactions(message_id);
`

// NewSQLiteStore opens (creating if needed) the chat database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// schemaVersion is the current schema version.
// - Fresh databases get the full schema from `schema` const and start at this version
// - Existing databases run migrations to reach this version
// Increment when adding new migrations.
const schemaVersion = 1

// migration represents a schema migration.
type migration struct {
	version     int
	description string
	up          func(db *sql.DB) error
}

// migrations upgrade databases created before a schema change. The base
// `schema` const always contains the FULL current schema.
var migrations = []migration{
	{
		// Migration 1: reactions table added after the initial release
		version:     1,
		description: "add message_reactions table",
		up: func(db *sql.DB) error {
			_, err := db.Exec(`
				CREATE TABLE IF NOT EXISTS message_reactions (
				    id TEXT PRIMARY KEY,
				    message_id TEXT NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
				    user_id TEXT NOT NULL,
				    reaction TEXT NOT NULL,
				    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				    UNIQUE (message_id, user_id, reaction)
				)`)
			return err
		},
	},
}

// initSchema initializes the database schema and runs any pending migrations.
// Optimized for the common case: schema already current = single SELECT query.
func initSchema(db *sql.DB) error {
	var currentVersion int
	err := db.QueryRow("SELECT version FROM schema_version").Scan(&currentVersion)
	if err == nil && currentVersion >= schemaVersion {
		return nil
	}
	return initSchemaFull(db, err, currentVersion)
}

func initSchemaFull(db *sql.DB, versionErr error, currentVersion int) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create base schema: %w", err)
	}

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	// versionErr is non-nil if schema_version doesn't exist or has no rows
	if versionErr != nil && (versionErr == sql.ErrNoRows || strings.Contains(versionErr.Error(), "no such table")) {
		var tableCount int
		err = db.QueryRow(`
			SELECT COUNT(*) FROM sqlite_master
			WHERE type='table' AND name='conversations'
		`).Scan(&tableCount)
		if err != nil {
			return fmt.Errorf("check conversations table: %w", err)
		}

		if tableCount > 0 {
			// Pre-migration DB, run all migrations from zero
			currentVersion = 0
		} else {
			// Fresh DB, schema already complete
			currentVersion = schemaVersion
		}

		if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (?)", currentVersion); err != nil {
			return fmt.Errorf("insert initial version: %w", err)
		}
	} else if versionErr != nil {
		return fmt.Errorf("get current version: %w", versionErr)
	}

	for _, m := range migrations {
		if m.version > currentVersion {
			if err := m.up(db); err != nil {
				return fmt.Errorf("migration %d (%s): %w", m.version, m.description, err)
			}
			if _, err := db.Exec("UPDATE schema_version SET version = ?", m.version); err != nil {
				return fmt.Errorf("update version to %d: %w", m.version, err)
			}
		}
	}

	return nil
}

// CreateConversation inserts a new conversation owned by userID.
func (s *SQLiteStore) CreateConversation(ctx context.Context, model, userID string) (*chat.Conversation, error) {
	if userID == "" {
		return nil, fmt.Errorf("conversation requires a user id")
	}
	now := time.Now().UTC()
	conv := chat.Conversation{
		ID:        uuid.NewString(),
		Model:     model,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, title, model, user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		conv.ID, nil, conv.Model, conv.UserID, conv.CreatedAt, conv.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert conversation: %w", err)
	}
	return &conv, nil
}

// Conversations returns all conversations, most recently active first.
func (s *SQLiteStore) Conversations(ctx context.Context) ([]chat.Conversation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, model, user_id, created_at, updated_at
		FROM conversations ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer rows.Close()

	var results []chat.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *conv)
	}
	return results, rows.Err()
}

// GetConversation retrieves a conversation by ID, nil when absent.
func (s *SQLiteStore) GetConversation(ctx context.Context, id string) (*chat.Conversation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, model, user_id, created_at, updated_at
		FROM conversations WHERE id = ?`, id)

	conv, err := scanConversation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return conv, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (*chat.Conversation, error) {
	var conv chat.Conversation
	var title sql.NullString
	err := row.Scan(&conv.ID, &title, &conv.Model, &conv.UserID, &conv.CreatedAt, &conv.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan conversation: %w", err)
	}
	if title.Valid {
		conv.Title = &title.String
	}
	return &conv, nil
}

// CreateMessage inserts a new message and touches the parent conversation's
// updated_at so it sorts to the top of the list.
func (s *SQLiteStore) CreateMessage(ctx context.Context, data chat.MessageData) (*chat.Message, error) {
	if err := validateMessage(data); err != nil {
		return nil, err
	}

	msg := chat.Message{
		ID:             uuid.NewString(),
		ConversationID: data.ConversationID,
		Role:           data.Role,
		Content:        data.Content,
		UserID:         data.UserID,
		CreatedAt:      time.Now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, role, content, user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.ConversationID, string(msg.Role), msg.Content, nullStringPtr(msg.UserID), msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE conversations SET updated_at = ? WHERE id = ?",
		msg.CreatedAt, msg.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("touch conversation: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return nil, &NotFoundError{Kind: "conversation", ID: msg.ConversationID}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit message: %w", err)
	}
	return &msg, nil
}

// UpdateMessageContent replaces the full content of a message. Repeating a
// call with the same content is a no-op, which keeps streamed updates safe
// to retry.
func (s *SQLiteStore) UpdateMessageContent(ctx context.Context, id, content string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE messages SET content = ? WHERE id = ?", content, id)
	if err != nil {
		return fmt.Errorf("update message: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return &NotFoundError{Kind: "message", ID: id}
	}
	return nil
}

// Messages returns a conversation's messages in creation order.
func (s *SQLiteStore) Messages(ctx context.Context, conversationID string) ([]chat.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, role, content, user_id, created_at
		FROM messages WHERE conversation_id = ?
		ORDER BY created_at ASC, id ASC`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var results []chat.Message
	for rows.Next() {
		var msg chat.Message
		var role string
		var userID sql.NullString
		err := rows.Scan(&msg.ID, &msg.ConversationID, &role, &msg.Content, &userID, &msg.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.Role = chat.Role(role)
		if userID.Valid {
			msg.UserID = &userID.String
		}
		results = append(results, msg)
	}
	return results, rows.Err()
}

// AddReaction records a reaction. Re-adding an identical reaction returns
// the existing row rather than an error.
func (s *SQLiteStore) AddReaction(ctx context.Context, messageID, userID, reaction string) (*chat.Reaction, error) {
	r := chat.Reaction{
		ID:        uuid.NewString(),
		MessageID: messageID,
		UserID:    userID,
		Reaction:  reaction,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO message_reactions (id, message_id, user_id, reaction, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (message_id, user_id, reaction) DO NOTHING`,
		r.ID, r.MessageID, r.UserID, r.Reaction, r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert reaction: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, message_id, user_id, reaction, created_at
		FROM message_reactions
		WHERE message_id = ? AND user_id = ? AND reaction = ?`,
		messageID, userID, reaction)
	var got chat.Reaction
	if err := row.Scan(&got.ID, &got.MessageID, &got.UserID, &got.Reaction, &got.CreatedAt); err != nil {
		return nil, fmt.Errorf("scan reaction: %w", err)
	}
	return &got, nil
}

// RemoveReaction deletes a reaction if present.
func (s *SQLiteStore) RemoveReaction(ctx context.Context, messageID, userID, reaction string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM message_reactions
		WHERE message_id = ? AND user_id = ? AND reaction = ?`,
		messageID, userID, reaction)
	if err != nil {
		return fmt.Errorf("delete reaction: %w", err)
	}
	return nil
}

// Reactions lists a message's reactions in creation order.
func (s *SQLiteStore) Reactions(ctx context.Context, messageID string) ([]chat.Reaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, message_id, user_id, reaction, created_at
		FROM message_reactions WHERE message_id = ?
		ORDER BY created_at ASC`, messageID)
	if err != nil {
		return nil, fmt.Errorf("query reactions: %w", err)
	}
	defer rows.Close()

	var results []chat.Reaction
	for rows.Next() {
		var r chat.Reaction
		if err := rows.Scan(&r.ID, &r.MessageID, &r.UserID, &r.Reaction, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reaction: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullStringPtr(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
