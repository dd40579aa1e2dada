package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"social-service/internal/db"
	"social-service/internal/models"
)

var (
	ErrMessageRequestNotFound  = errors.New("message request not found")
	ErrDuplicatePendingRequest = errors.New("pending message request already exists")
)

// MessageRequestRepository stores attempts to open a channel.
type MessageRequestRepository interface {
	CreateRequest(ctx context.Context, senderID, recipientID int, content string) (models.MessageRequest, error)
	GetRequest(ctx context.Context, requestID int) (models.MessageRequest, error)
	HasPending(ctx context.Context, senderID, recipientID int) (bool, error)
	ListPendingForRecipient(ctx context.Context, recipientID int) ([]models.MessageRequest, error)
	UpdateStatus(ctx context.Context, requestID int, status string) error
}

// MessageRequestRepo is a sqlx implementation of MessageRequestRepository.
type MessageRequestRepo struct {
	db *sqlx.DB
}

// NewMessageRequestRepo constructs a MessageRequestRepo.
func NewMessageRequestRepo(database *sqlx.DB) *MessageRequestRepo {
	return &MessageRequestRepo{db: database}
}

const messageRequestColumns = `id, sender_id, recipient_id, content, status, created_at`

// CreateRequest inserts a pending request. A partial unique index enforces at
// most one pending request per ordered pair; an unknown recipient surfaces as
// ErrUserNotFound.
func (r *MessageRequestRepo) CreateRequest(ctx context.Context, senderID, recipientID int, content string) (models.MessageRequest, error) {
	q := db.Querier(ctx, r.db)
	var req models.MessageRequest
	err := sqlx.GetContext(ctx, q, &req,
		`INSERT INTO message_requests (sender_id, recipient_id, content) VALUES ($1, $2, $3)
         RETURNING `+messageRequestColumns, senderID, recipientID, content)
	if isUniqueViolation(err) {
		return models.MessageRequest{}, ErrDuplicatePendingRequest
	}
	if isForeignKeyViolation(err) {
		return models.MessageRequest{}, ErrUserNotFound
	}
	return req, err
}

// GetRequest fetches a request by id.
func (r *MessageRequestRepo) GetRequest(ctx context.Context, requestID int) (models.MessageRequest, error) {
	q := db.Querier(ctx, r.db)
	var req models.MessageRequest
	err := sqlx.GetContext(ctx, q, &req,
		`SELECT `+messageRequestColumns+` FROM message_requests WHERE id=$1`, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.MessageRequest{}, ErrMessageRequestNotFound
	}
	return req, err
}

// HasPending checks for an outstanding request in this direction.
func (r *MessageRequestRepo) HasPending(ctx context.Context, senderID, recipientID int) (bool, error) {
	q := db.Querier(ctx, r.db)
	var exists bool
	err := sqlx.GetContext(ctx, q, &exists,
		`SELECT EXISTS(SELECT 1 FROM message_requests WHERE sender_id=$1 AND recipient_id=$2 AND status=$3)`,
		senderID, recipientID, models.RequestPending)
	return exists, err
}

// ListPendingForRecipient returns pending requests addressed to a user,
// newest first.
func (r *MessageRequestRepo) ListPendingForRecipient(ctx context.Context, recipientID int) ([]models.MessageRequest, error) {
	q := db.Querier(ctx, r.db)
	var reqs []models.MessageRequest
	err := sqlx.SelectContext(ctx, q, &reqs,
		`SELECT `+messageRequestColumns+` FROM message_requests
         WHERE recipient_id=$1 AND status=$2 ORDER BY created_at DESC`,
		recipientID, models.RequestPending)
	return reqs, err
}

// UpdateStatus resolves a request.
func (r *MessageRequestRepo) UpdateStatus(ctx context.Context, requestID int, status string) error {
	q := db.Querier(ctx, r.db)
	res, err := q.ExecContext(ctx,
		`UPDATE message_requests SET status=$2 WHERE id=$1`, requestID, status)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageRequestNotFound
	}
	return nil
}
