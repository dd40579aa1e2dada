package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"social-service/internal/db"
	"social-service/internal/models"
)

// MessageRepository defines interactions for direct messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, senderID, recipientID int, content string) (models.Message, error)
	ListBetween(ctx context.Context, userA, userB int) ([]models.Message, error)
	DeleteBetween(ctx context.Context, userA, userB int) error
	MarkRead(ctx context.Context, recipientID, senderID int) error
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(database *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: database}
}

const messageColumns = `id, sender_id, recipient_id, content, read, created_at`

// CreateMessage stores a direct message. An unknown recipient surfaces as
// ErrUserNotFound.
func (r *MessageRepo) CreateMessage(ctx context.Context, senderID, recipientID int, content string) (models.Message, error) {
	q := db.Querier(ctx, r.db)
	var msg models.Message
	err := sqlx.GetContext(ctx, q, &msg,
		`INSERT INTO messages (sender_id, recipient_id, content) VALUES ($1, $2, $3) RETURNING `+messageColumns,
		senderID, recipientID, content)
	if isForeignKeyViolation(err) {
		return models.Message{}, ErrUserNotFound
	}
	return msg, err
}

// ListBetween returns the full history for a pair ordered by creation time.
func (r *MessageRepo) ListBetween(ctx context.Context, userA, userB int) ([]models.Message, error) {
	q := db.Querier(ctx, r.db)
	var msgs []models.Message
	err := sqlx.SelectContext(ctx, q, &msgs,
		`SELECT `+messageColumns+` FROM messages
         WHERE (sender_id=$1 AND recipient_id=$2) OR (sender_id=$2 AND recipient_id=$1)
         ORDER BY created_at ASC`, userA, userB)
	return msgs, err
}

// DeleteBetween removes every message exchanged by the pair. Only the
// permanent-delete path calls this.
func (r *MessageRepo) DeleteBetween(ctx context.Context, userA, userB int) error {
	q := db.Querier(ctx, r.db)
	_, err := q.ExecContext(ctx,
		`DELETE FROM messages
         WHERE (sender_id=$1 AND recipient_id=$2) OR (sender_id=$2 AND recipient_id=$1)`, userA, userB)
	return err
}

// MarkRead flips the read flag on messages from sender addressed to recipient.
func (r *MessageRepo) MarkRead(ctx context.Context, recipientID, senderID int) error {
	q := db.Querier(ctx, r.db)
	_, err := q.ExecContext(ctx,
		`UPDATE messages SET read = TRUE WHERE recipient_id=$1 AND sender_id=$2 AND read = FALSE`,
		recipientID, senderID)
	return err
}
