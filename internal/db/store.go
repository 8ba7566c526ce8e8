package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// Conversation is a chat thread. UserID is empty for guest sessions.
type Conversation struct {
	ID        string
	UserID    string
	Title     string
	Starred   bool
	ModelName string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is a single turn in a conversation. Seq is a per-conversation
// monotonic sequence that defines the canonical ordering; created_at is
// second-granular and can collide.
type Message struct {
	ID             string
	ConversationID string
	Role           string
	Content        string
	CreatedAt      time.Time
	Seq            int64
}

// GeneratedVideo records a completed video generation.
type GeneratedVideo struct {
	ID        string
	UserID    string
	Prompt    string
	VideoURL  string
	CreatedAt time.Time
}

// Store wraps the single SQLite connection. All access is serialized
// through it.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store from an open database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying handle for sharing with other components.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateConversation inserts a new conversation row.
func (s *Store) CreateConversation(ctx context.Context, userID, title, modelName string) (Conversation, error) {
	c := Conversation{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		ModelName: modelName,
	}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO conversations (id, user_id, title, model_name) VALUES (?, ?, ?, ?)
		 RETURNING created_at, updated_at`,
		c.ID, c.UserID, c.Title, c.ModelName,
	).Scan(&unixTime{&c.CreatedAt}, &unixTime{&c.UpdatedAt})
	if err != nil {
		return Conversation{}, fmt.Errorf("create conversation: %w", err)
	}
	return c, nil
}

// GetConversation fetches a conversation by id.
func (s *Store) GetConversation(ctx context.Context, id string) (Conversation, error) {
	var c Conversation
	err := s.db.QueryRowContext(ctx,
		`SELECT id, COALESCE(user_id, ''), title, starred, model_name, created_at, updated_at
		 FROM conversations WHERE id = ?`, id,
	).Scan(&c.ID, &c.UserID, &c.Title, &c.Starred, &c.ModelName, &unixTime{&c.CreatedAt}, &unixTime{&c.UpdatedAt})
	if errors.Is(err, sql.ErrNoRows) {
		return Conversation{}, ErrNotFound
	}
	if err != nil {
		return Conversation{}, fmt.Errorf("get conversation: %w", err)
	}
	return c, nil
}

// ListConversations returns a user's conversations, most recently
// updated first, starred threads before the rest.
func (s *Store) ListConversations(ctx context.Context, userID string) ([]Conversation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, COALESCE(user_id, ''), title, starred, model_name, created_at, updated_at
		 FROM conversations WHERE COALESCE(user_id, '') = ?
		 ORDER BY starred DESC, updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var out []Conversation
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.Starred, &c.ModelName, &unixTime{&c.CreatedAt}, &unixTime{&c.UpdatedAt}); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateConversationTitle sets the title.
func (s *Store) UpdateConversationTitle(ctx context.Context, id, title string) error {
	return s.execAffecting(ctx,
		`UPDATE conversations SET title = ?, updated_at = unixepoch() WHERE id = ?`, title, id)
}

// SetConversationStarred toggles the starred flag.
func (s *Store) SetConversationStarred(ctx context.Context, id string, starred bool) error {
	return s.execAffecting(ctx,
		`UPDATE conversations SET starred = ? WHERE id = ?`, starred, id)
}

// TouchConversation bumps updated_at so recency ordering follows activity.
func (s *Store) TouchConversation(ctx context.Context, id string) error {
	return s.execAffecting(ctx,
		`UPDATE conversations SET updated_at = unixepoch() WHERE id = ?`, id)
}

// DeleteConversation removes a conversation and its messages.
func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	return s.execAffecting(ctx, `DELETE FROM conversations WHERE id = ?`, id)
}

// AppendMessage persists one turn at the end of a conversation. The
// conversation row is created if it is missing so a dangling id from the
// client self-heals rather than failing the write.
func (s *Store) AppendMessage(ctx context.Context, conversationID, role, content string) (Message, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Message{}, fmt.Errorf("append message: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO conversations (id) VALUES (?)`, conversationID)
	if err != nil {
		return Message{}, fmt.Errorf("append message: %w", err)
	}

	m := Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
	}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO messages (id, conversation_id, role, content, seq)
		 VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM messages WHERE conversation_id = ?))
		 RETURNING created_at, seq`,
		m.ID, m.ConversationID, m.Role, m.Content, m.ConversationID,
	).Scan(&unixTime{&m.CreatedAt}, &m.Seq)
	if err != nil {
		return Message{}, fmt.Errorf("append message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Message{}, fmt.Errorf("append message: %w", err)
	}
	return m, nil
}

// ListMessages returns all turns of a conversation in order.
func (s *Store) ListMessages(ctx context.Context, conversationID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, role, content, created_at, seq
		 FROM messages WHERE conversation_id = ? ORDER BY seq`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &unixTime{&m.CreatedAt}, &m.Seq); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// CountMessages returns the number of turns in a conversation.
func (s *Store) CountMessages(ctx context.Context, conversationID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE conversation_id = ?`, conversationID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return n, nil
}

// CountMessagesSinceSummary counts the turns recorded after the most
// recent system turn whose content starts with summaryPrefix. A
// conversation without one counts every turn.
func (s *Store) CountMessagesSinceSummary(ctx context.Context, conversationID, summaryPrefix string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages
		 WHERE conversation_id = ?
		   AND seq > COALESCE(
		     (SELECT MAX(seq) FROM messages
		      WHERE conversation_id = ? AND role = 'system' AND content LIKE ? || '%'),
		     0)`,
		conversationID, conversationID, summaryPrefix).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count messages since summary: %w", err)
	}
	return n, nil
}

// SaveGeneratedVideo records a completed video render.
func (s *Store) SaveGeneratedVideo(ctx context.Context, userID, prompt, videoURL string) (GeneratedVideo, error) {
	v := GeneratedVideo{
		ID:       uuid.New().String(),
		UserID:   userID,
		Prompt:   prompt,
		VideoURL: videoURL,
	}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO generated_videos (id, user_id, prompt, video_url) VALUES (?, ?, ?, ?)
		 RETURNING created_at`,
		v.ID, v.UserID, v.Prompt, v.VideoURL,
	).Scan(&unixTime{&v.CreatedAt})
	if err != nil {
		return GeneratedVideo{}, fmt.Errorf("save video: %w", err)
	}
	return v, nil
}

// ListGeneratedVideos returns a user's videos, newest first.
func (s *Store) ListGeneratedVideos(ctx context.Context, userID string) ([]GeneratedVideo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, COALESCE(user_id, ''), prompt, video_url, created_at
		 FROM generated_videos WHERE COALESCE(user_id, '') = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	var out []GeneratedVideo
	for rows.Next() {
		var v GeneratedVideo
		if err := rows.Scan(&v.ID, &v.UserID, &v.Prompt, &v.VideoURL, &unixTime{&v.CreatedAt}); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) execAffecting(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// unixTime scans an integer unix timestamp into a time.Time.
type unixTime struct {
	t *time.Time
}

func (u *unixTime) Scan(src any) error {
	switch v := src.(type) {
	case int64:
		*u.t = time.Unix(v, 0).UTC()
	case nil:
		*u.t = time.Time{}
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
	return nil
}
