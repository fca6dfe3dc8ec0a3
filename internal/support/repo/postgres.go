package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("not found")

// Thread statuses. A thread is either open or closed, nothing else.
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

type Thread struct {
	ID        string
	UserID    string
	Title     string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Message struct {
	ID         string
	ThreadID   string
	UserID     string
	SenderRole string // "user" | "admin"
	Message    string
	CreatedAt  time.Time
}

type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// CreateThread opens a thread together with its first message, in one
// transaction.
func (p *Postgres) CreateThread(ctx context.Context, userID, title, message, senderRole string) (*Thread, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	th := &Thread{
		ID:     uuid.NewString(),
		UserID: userID,
		Title:  title,
		Status: StatusOpen,
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO support_threads (id, user_id, title, status)
		VALUES ($1,$2,$3,$4)`,
		th.ID, th.UserID, th.Title, th.Status,
	); err != nil {
		return nil, fmt.Errorf("insert thread: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO support_messages (id, thread_id, user_id, sender_role, message)
		VALUES ($1,$2,$3,$4,$5)`,
		uuid.NewString(), th.ID, userID, senderRole, message,
	); err != nil {
		return nil, fmt.Errorf("insert first message: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return th, nil
}

const threadColumns = `id, user_id, title, status, created_at, updated_at`

// ListThreads returns a user's threads, or every thread when userID is
// empty (admin view). Most recently touched first.
func (p *Postgres) ListThreads(ctx context.Context, userID string) ([]Thread, error) {
	q := `SELECT ` + threadColumns + ` FROM support_threads`
	var args []any
	if userID != "" {
		q += ` WHERE user_id = $1`
		args = append(args, userID)
	}
	q += ` ORDER BY updated_at DESC`

	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Thread
	for rows.Next() {
		var th Thread
		if err := rows.Scan(&th.ID, &th.UserID, &th.Title, &th.Status, &th.CreatedAt, &th.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, th)
	}
	return out, rows.Err()
}

// GetThread returns one thread with its messages, oldest message first.
func (p *Postgres) GetThread(ctx context.Context, threadID string) (*Thread, []Message, error) {
	var th Thread
	err := p.db.QueryRowContext(ctx,
		`SELECT `+threadColumns+` FROM support_threads WHERE id = $1`, threadID,
	).Scan(&th.ID, &th.UserID, &th.Title, &th.Status, &th.CreatedAt, &th.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT id, thread_id, user_id, sender_role, message, created_at
		FROM support_messages WHERE thread_id = $1 ORDER BY created_at`, threadID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ThreadID, &m.UserID, &m.SenderRole, &m.Message, &m.CreatedAt); err != nil {
			return nil, nil, err
		}
		msgs = append(msgs, m)
	}
	return &th, msgs, rows.Err()
}

// AddMessage appends to a thread and bumps its updated_at, in one
// transaction.
func (p *Postgres) AddMessage(ctx context.Context, threadID, userID, senderRole, message string) (*Message, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	m := &Message{
		ID:         uuid.NewString(),
		ThreadID:   threadID,
		UserID:     userID,
		SenderRole: senderRole,
		Message:    message,
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO support_messages (id, thread_id, user_id, sender_role, message)
		VALUES ($1,$2,$3,$4,$5)`,
		m.ID, m.ThreadID, m.UserID, m.SenderRole, m.Message,
	); err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE support_threads SET updated_at = now() WHERE id = $1`, threadID)
	if err != nil {
		return nil, err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return nil, ErrNotFound
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return m, nil
}

// SetStatus opens or closes a thread.
func (p *Postgres) SetStatus(ctx context.Context, threadID, status string) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE support_threads SET status = $1, updated_at = now() WHERE id = $2`,
		status, threadID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
