// Package sqlite provides a SQLite-backed implementation of the
// storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/dhruvm/splitchat/internal/models"
	"github.com/dhruvm/splitchat/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveSession persists a full snapshot, replacing any prior snapshot with
// the same ID. Generates an ID and CreatedAt if unset.
func (s *SQLiteStore) SaveSession(ctx context.Context, session *storage.Session) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if session.CreatedAt == 0 {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Snapshot replace: clear any prior state for this session, then insert.
	if _, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", session.ID); err != nil {
		return fmt.Errorf("failed to clear prior snapshot: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO sessions (id, created_at, updated_at, subtotal, tax, total, tip) VALUES (?, ?, ?, ?, ?, ?, ?)",
		session.ID, session.CreatedAt, session.UpdatedAt,
		session.Receipt.Subtotal, session.Receipt.Tax, session.Receipt.Total, session.Tip,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	for i, item := range session.Receipt.Items {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO receipt_items (session_id, position, name, quantity, price) VALUES (?, ?, ?, ?, ?)",
			session.ID, i, item.Name, item.Quantity, item.Price,
		)
		if err != nil {
			return fmt.Errorf("failed to insert receipt item: %w", err)
		}
	}

	for _, person := range session.Bill.People() {
		bucket := session.Bill[person]
		_, err = tx.ExecContext(ctx,
			"INSERT INTO buckets (session_id, person, total) VALUES (?, ?, ?)",
			session.ID, person, bucket.Total,
		)
		if err != nil {
			return fmt.Errorf("failed to insert bucket: %w", err)
		}

		for i, item := range bucket.Items {
			_, err = tx.ExecContext(ctx,
				"INSERT INTO bucket_items (session_id, person, position, unique_id, name, quantity, price, original_price, shared_with) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
				session.ID, person, i, item.UniqueID, item.Name, item.Quantity,
				item.Price, item.OriginalPrice, item.SharedWith,
			)
			if err != nil {
				return fmt.Errorf("failed to insert bucket item: %w", err)
			}
		}
	}

	for i, turn := range session.History {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO chat_messages (session_id, position, user_text, bot_text) VALUES (?, ?, ?, ?)",
			session.ID, i, turn.User, turn.Bot,
		)
		if err != nil {
			return fmt.Errorf("failed to insert chat message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetSession retrieves a snapshot by ID, including receipt items, buckets,
// and chat history.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*storage.Session, error) {
	session := &storage.Session{ID: sessionID, Bill: models.Bill{}}
	err := s.db.QueryRowContext(ctx,
		"SELECT created_at, updated_at, subtotal, tax, total, tip FROM sessions WHERE id = ?",
		sessionID,
	).Scan(&session.CreatedAt, &session.UpdatedAt,
		&session.Receipt.Subtotal, &session.Receipt.Tax, &session.Receipt.Total, &session.Tip)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT name, quantity, price FROM receipt_items WHERE session_id = ? ORDER BY position",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.Item
		if err := rows.Scan(&item.Name, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("failed to scan receipt item: %w", err)
		}
		session.Receipt.Items = append(session.Receipt.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate receipt items: %w", err)
	}

	bucketRows, err := s.db.QueryContext(ctx,
		"SELECT person, total FROM buckets WHERE session_id = ?",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get buckets: %w", err)
	}
	defer bucketRows.Close()

	for bucketRows.Next() {
		var person string
		bucket := &models.PersonBill{}
		if err := bucketRows.Scan(&person, &bucket.Total); err != nil {
			return nil, fmt.Errorf("failed to scan bucket: %w", err)
		}
		session.Bill[person] = bucket
	}
	if err := bucketRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate buckets: %w", err)
	}

	itemRows, err := s.db.QueryContext(ctx,
		"SELECT person, unique_id, name, quantity, price, original_price, shared_with FROM bucket_items WHERE session_id = ? ORDER BY person, position",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var person string
		var item models.Item
		if err := itemRows.Scan(&person, &item.UniqueID, &item.Name, &item.Quantity,
			&item.Price, &item.OriginalPrice, &item.SharedWith); err != nil {
			return nil, fmt.Errorf("failed to scan bucket item: %w", err)
		}
		bucket := session.Bill[person]
		if bucket == nil {
			return nil, fmt.Errorf("bucket item references missing bucket %q", person)
		}
		bucket.Items = append(bucket.Items, item)
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bucket items: %w", err)
	}

	chatRows, err := s.db.QueryContext(ctx,
		"SELECT user_text, bot_text FROM chat_messages WHERE session_id = ? ORDER BY position",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get chat messages: %w", err)
	}
	defer chatRows.Close()

	for chatRows.Next() {
		var turn models.ChatTurn
		if err := chatRows.Scan(&turn.User, &turn.Bot); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		session.History = append(session.History, turn)
	}
	if err := chatRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chat messages: %w", err)
	}

	return session, nil
}

// ListSessions returns summaries of all persisted sessions, newest first.
func (s *SQLiteStore) ListSessions(ctx context.Context) ([]storage.SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.created_at, s.updated_at, s.total,
		       (SELECT COUNT(*) FROM buckets b WHERE b.session_id = s.id AND b.person != ?)
		FROM sessions s ORDER BY s.created_at DESC`,
		models.Unassigned,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var summaries []storage.SessionSummary
	for rows.Next() {
		var summary storage.SessionSummary
		if err := rows.Scan(&summary.ID, &summary.CreatedAt, &summary.UpdatedAt,
			&summary.Total, &summary.People); err != nil {
			return nil, fmt.Errorf("failed to scan session summary: %w", err)
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return summaries, nil
}
