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
	ErrFollowRequestNotFound = errors.New("follow request not found")
	ErrFollowRequestExists   = errors.New("follow request already exists")
)

// FollowRequestRepository stores follow requests for private accounts.
type FollowRequestRepository interface {
	CreateFollowRequest(ctx context.Context, requesterID, targetID int) (models.FollowRequest, error)
	GetFollowRequest(ctx context.Context, requestID int) (models.FollowRequest, error)
	FindFollowRequest(ctx context.Context, requesterID, targetID int) (models.FollowRequest, error)
	ListPendingForTarget(ctx context.Context, targetID int) ([]models.FollowRequest, error)
	UpdateStatus(ctx context.Context, requestID int, status string) error
}

// FollowRequestRepo is a sqlx implementation of FollowRequestRepository.
type FollowRequestRepo struct {
	db *sqlx.DB
}

// NewFollowRequestRepo constructs a FollowRequestRepo.
func NewFollowRequestRepo(database *sqlx.DB) *FollowRequestRepo {
	return &FollowRequestRepo{db: database}
}

const followRequestColumns = `id, requester_id, target_id, status, created_at`

// CreateFollowRequest inserts a pending request. One record per ordered pair,
// whatever its state.
func (r *FollowRequestRepo) CreateFollowRequest(ctx context.Context, requesterID, targetID int) (models.FollowRequest, error) {
	q := db.Querier(ctx, r.db)
	var req models.FollowRequest
	err := sqlx.GetContext(ctx, q, &req,
		`INSERT INTO follow_requests (requester_id, target_id) VALUES ($1, $2) RETURNING `+followRequestColumns,
		requesterID, targetID)
	if isUniqueViolation(err) {
		return models.FollowRequest{}, ErrFollowRequestExists
	}
	return req, err
}

// GetFollowRequest fetches a request by id.
func (r *FollowRequestRepo) GetFollowRequest(ctx context.Context, requestID int) (models.FollowRequest, error) {
	q := db.Querier(ctx, r.db)
	var req models.FollowRequest
	err := sqlx.GetContext(ctx, q, &req,
		`SELECT `+followRequestColumns+` FROM follow_requests WHERE id=$1`, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.FollowRequest{}, ErrFollowRequestNotFound
	}
	return req, err
}

// FindFollowRequest looks up the record for an ordered requester/target pair.
func (r *FollowRequestRepo) FindFollowRequest(ctx context.Context, requesterID, targetID int) (models.FollowRequest, error) {
	q := db.Querier(ctx, r.db)
	var req models.FollowRequest
	err := sqlx.GetContext(ctx, q, &req,
		`SELECT `+followRequestColumns+` FROM follow_requests WHERE requester_id=$1 AND target_id=$2`,
		requesterID, targetID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.FollowRequest{}, ErrFollowRequestNotFound
	}
	return req, err
}

// ListPendingForTarget returns pending requests addressed to a user, newest first.
func (r *FollowRequestRepo) ListPendingForTarget(ctx context.Context, targetID int) ([]models.FollowRequest, error) {
	q := db.Querier(ctx, r.db)
	var reqs []models.FollowRequest
	err := sqlx.SelectContext(ctx, q, &reqs,
		`SELECT `+followRequestColumns+` FROM follow_requests WHERE target_id=$1 AND status=$2 ORDER BY created_at DESC`,
		targetID, models.FollowRequestPending)
	return reqs, err
}

// UpdateStatus moves a request to accepted or rejected.
func (r *FollowRequestRepo) UpdateStatus(ctx context.Context, requestID int, status string) error {
	q := db.Querier(ctx, r.db)
	res, err := q.ExecContext(ctx, `UPDATE follow_requests SET status=$2 WHERE id=$1`, requestID, status)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrFollowRequestNotFound
	}
	return nil
}
