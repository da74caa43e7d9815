package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

type SQLiteStore struct {
	db *sqlx.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite3", withForeignKeys(dataSourceName))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// withForeignKeys turns on per-connection foreign key enforcement so that
// deleting a conversation cascades to its messages.
func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys=") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}
	return dsn + "?_foreign_keys=on"
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS users (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        name TEXT NOT NULL,
        contact_method TEXT NOT NULL CHECK (contact_method IN ('whatsapp', 'telegram', 'email', 'instagram', 'linkedin', 'message', 'call')),
        contact_info TEXT NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_users_name ON users (name);

    -- user_id has no foreign key; a conversation may reference a missing user.
    CREATE TABLE IF NOT EXISTS conversations (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id INTEGER NOT NULL,
        language TEXT NOT NULL DEFAULT 'en' CHECK (language IN ('en', 'es', 'pt')),
        started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
        ended_at DATETIME
    );

    CREATE INDEX IF NOT EXISTS idx_conversations_user ON conversations (user_id);

    CREATE TABLE IF NOT EXISTS messages (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        conversation_id INTEGER NOT NULL,
        text TEXT NOT NULL,
        sender TEXT NOT NULL CHECK (sender IN ('user', 'bot')),
        timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (conversation_id) REFERENCES conversations (id) ON DELETE CASCADE
    );

    CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages (conversation_id, timestamp);
    `
	_, err := s.db.Exec(schema)
	return err
}

// User methods
func (s *SQLiteStore) CreateUser(ctx context.Context, name string, method ContactMethod, contactInfo string) (*User, error) {
	if !method.Valid() {
		return nil, &InvalidEnumError{Field: "contact_method", Value: string(method)}
	}

	res, err := s.db.ExecContext(ctx, "INSERT INTO users (name, contact_method, contact_info) VALUES (?, ?, ?)", name, method, contactInfo)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read user id: %w", err)
	}
	return &User{ID: id, Name: name, ContactMethod: method, ContactInfo: contactInfo}, nil
}

func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*User, error) {
	var user User
	err := s.db.GetContext(ctx, &user, "SELECT id, name, contact_method, contact_info FROM users WHERE id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

// Conversation methods
const conversationColumns = "id, user_id, language, started_at, ended_at"

func (s *SQLiteStore) CreateConversation(ctx context.Context, userID int64, language Language) (*Conversation, error) {
	if language == "" {
		language = DefaultLanguage
	}
	if !language.Valid() {
		return nil, &InvalidEnumError{Field: "language", Value: string(language)}
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, "INSERT INTO conversations (user_id, language, started_at) VALUES (?, ?, ?)", userID, language, now)
	if err != nil {
		return nil, fmt.Errorf("failed to execute conversation insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read conversation id: %w", err)
	}
	return &Conversation{
		ID:        id,
		UserID:    userID,
		Language:  language,
		StartedAt: now,
		Messages:  []Message{},
	}, nil
}

func (s *SQLiteStore) GetConversationByID(ctx context.Context, id int64) (*Conversation, error) {
	var conv Conversation
	err := s.db.GetContext(ctx, &conv, "SELECT "+conversationColumns+" FROM conversations WHERE id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &conv, nil
}

func (s *SQLiteStore) ListConversations(ctx context.Context, offset, limit int) ([]Conversation, error) {
	conversations := []Conversation{}
	err := s.db.SelectContext(ctx, &conversations, "SELECT "+conversationColumns+" FROM conversations ORDER BY id ASC LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	return conversations, nil
}

func (s *SQLiteStore) GetConversationsByUserID(ctx context.Context, userID int64) ([]Conversation, error) {
	conversations := []Conversation{}
	err := s.db.SelectContext(ctx, &conversations, "SELECT "+conversationColumns+" FROM conversations WHERE user_id = ? ORDER BY id ASC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations for user: %w", err)
	}
	return conversations, nil
}

// UpdateConversationEndedAt sets or clears ended_at. It returns sql.ErrNoRows
// when the conversation does not exist.
func (s *SQLiteStore) UpdateConversationEndedAt(ctx context.Context, id int64, endedAt *time.Time) error {
	var value any
	if endedAt != nil {
		value = endedAt.UTC()
	}

	res, err := s.db.ExecContext(ctx, "UPDATE conversations SET ended_at = ? WHERE id = ?", value, id)
	if err != nil {
		return fmt.Errorf("failed to execute conversation update: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteConversation removes the conversation; its messages go with it via
// ON DELETE CASCADE. It returns sql.ErrNoRows when nothing was deleted.
func (s *SQLiteStore) DeleteConversation(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM conversations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to execute conversation delete: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Message methods
const messageColumns = "id, conversation_id, text, sender, timestamp"

func (s *SQLiteStore) CreateMessage(ctx context.Context, msg *Message) error {
	if !msg.Sender.Valid() {
		return &InvalidEnumError{Field: "sender", Value: string(msg.Sender)}
	}
	msg.Timestamp = time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO messages (conversation_id, text, sender, timestamp) VALUES (?, ?, ?, ?)",
		msg.ConversationID, msg.Text, msg.Sender, msg.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to execute message insert: %w", err)
	}
	msg.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read message id: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetMessagesByConversationID(ctx context.Context, conversationID int64) ([]Message, error) {
	messages := []Message{}
	err := s.db.SelectContext(ctx, &messages,
		"SELECT "+messageColumns+" FROM messages WHERE conversation_id = ? ORDER BY timestamp ASC, id ASC", conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	return messages, nil
}

// GetMessagesByConversationIDs loads the transcripts of several conversations
// in one query, keyed by conversation id.
func (s *SQLiteStore) GetMessagesByConversationIDs(ctx context.Context, conversationIDs []int64) (map[int64][]Message, error) {
	byConversation := make(map[int64][]Message, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return byConversation, nil
	}

	query, args, err := sqlx.In(
		"SELECT "+messageColumns+" FROM messages WHERE conversation_id IN (?) ORDER BY timestamp ASC, id ASC", conversationIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build messages query: %w", err)
	}

	var messages []Message
	if err := s.db.SelectContext(ctx, &messages, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	for _, msg := range messages {
		byConversation[msg.ConversationID] = append(byConversation[msg.ConversationID], msg)
	}

	log.Printf("[DB] GetMessagesByConversationIDs conversations=%d messages=%d", len(conversationIDs), len(messages))
	return byConversation, nil
}
