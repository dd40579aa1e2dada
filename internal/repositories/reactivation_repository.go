package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"social-service/internal/db"
	"social-service/internal/models"
)

var ErrReactivationNotFound = errors.New("reactivation request not found")

// ReactivationRepository stores requests to restore a hidden conversation.
type ReactivationRepository interface {
	CreateReactivation(ctx context.Context, privilegeID, requesterID, recipientID int) (models.ReactivationRequest, error)
	GetReactivation(ctx context.Context, requestID int) (models.ReactivationRequest, error)
	HasPendingForPrivilege(ctx context.Context, privilegeID, requesterID int) (bool, error)
	ListPendingForRecipient(ctx context.Context, recipientID int) ([]models.ReactivationRequest, error)
	UpdateStatus(ctx context.Context, requestID int, status string) error
}

// ReactivationRepo is a sqlx implementation of ReactivationRepository.
type ReactivationRepo struct {
	db *sqlx.DB
}

// NewReactivationRepo constructs a ReactivationRepo.
func NewReactivationRepo(database *sqlx.DB) *ReactivationRepo {
	return &ReactivationRepo{db: database}
}

const reactivationColumns = `id, privilege_id, requester_id, recipient_id, status, created_at`

// CreateReactivation inserts a pending reactivation request.
func (r *ReactivationRepo) CreateReactivation(ctx context.Context, privilegeID, requesterID, recipientID int) (models.ReactivationRequest, error) {
	q := db.Querier(ctx, r.db)
	var req models.ReactivationRequest
	err := sqlx.GetContext(ctx, q, &req,
		`INSERT INTO reactivation_requests (privilege_id, requester_id, recipient_id) VALUES ($1, $2, $3)
         RETURNING `+reactivationColumns, privilegeID, requesterID, recipientID)
	return req, err
}

// GetReactivation fetches a request by id.
func (r *ReactivationRepo) GetReactivation(ctx context.Context, requestID int) (models.ReactivationRequest, error) {
	q := db.Querier(ctx, r.db)
	var req models.ReactivationRequest
	err := sqlx.GetContext(ctx, q, &req,
		`SELECT `+reactivationColumns+` FROM reactivation_requests WHERE id=$1`, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ReactivationRequest{}, ErrReactivationNotFound
	}
	return req, err
}

// HasPendingForPrivilege checks for an outstanding request by this requester
// on this privilege record.
func (r *ReactivationRepo) HasPendingForPrivilege(ctx context.Context, privilegeID, requesterID int) (bool, error) {
	q := db.Querier(ctx, r.db)
	var exists bool
	err := sqlx.GetContext(ctx, q, &exists,
		`SELECT EXISTS(SELECT 1 FROM reactivation_requests
         WHERE privilege_id=$1 AND requester_id=$2 AND status=$3)`,
		privilegeID, requesterID, models.RequestPending)
	return exists, err
}

// ListPendingForRecipient returns pending requests addressed to the hide
// initiator, newest first.
func (r *ReactivationRepo) ListPendingForRecipient(ctx context.Context, recipientID int) ([]models.ReactivationRequest, error) {
	q := db.Querier(ctx, r.db)
	var reqs []models.ReactivationRequest
	err := sqlx.SelectContext(ctx, q, &reqs,
		`SELECT `+reactivationColumns+` FROM reactivation_requests
         WHERE recipient_id=$1 AND status=$2 ORDER BY created_at DESC`,
		recipientID, models.RequestPending)
	return reqs, err
}

// UpdateStatus resolves a request.
func (r *ReactivationRepo) UpdateStatus(ctx context.Context, requestID int, status string) error {
	q := db.Querier(ctx, r.db)
	res, err := q.ExecContext(ctx,
		`UPDATE reactivation_requests SET status=$2 WHERE id=$1`, requestID, status)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrReactivationNotFound
	}
	return nil
}
