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
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
)

// UserRepository abstracts account and follow-graph persistence.
type UserRepository interface {
	CreateUser(ctx context.Context, username, passwordHash string) (models.User, error)
	GetUser(ctx context.Context, userID int) (models.User, error)
	GetUserByName(ctx context.Context, username string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	SearchUsers(ctx context.Context, namePrefix string) ([]models.User, error)
	UpdateBio(ctx context.Context, userID int, bio string) error
	UpdateName(ctx context.Context, userID int, username string) error
	UpdatePassword(ctx context.Context, userID int, passwordHash string) error
	SetPrivacy(ctx context.Context, userID int, private bool) error
	Follow(ctx context.Context, followerID, followeeID int) error
	Unfollow(ctx context.Context, followerID, followeeID int) error
	IsFollowing(ctx context.Context, followerID, followeeID int) (bool, error)
	FollowCounts(ctx context.Context, userID int) (followers int, following int, err error)
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(database *sqlx.DB) *UserRepo {
	return &UserRepo{db: database}
}

const userColumns = `id, username, password_hash, bio, is_private, created_at`

// CreateUser inserts a new account; the username must be unique.
func (r *UserRepo) CreateUser(ctx context.Context, username, passwordHash string) (models.User, error) {
	q := db.Querier(ctx, r.db)
	var user models.User
	err := sqlx.GetContext(ctx, q, &user,
		`INSERT INTO users (username, password_hash) VALUES ($1, $2) RETURNING `+userColumns,
		username, passwordHash)
	if isUniqueViolation(err) {
		return models.User{}, ErrUsernameTaken
	}
	return user, err
}

// GetUser fetches an account by id.
func (r *UserRepo) GetUser(ctx context.Context, userID int) (models.User, error) {
	q := db.Querier(ctx, r.db)
	var user models.User
	err := sqlx.GetContext(ctx, q, &user, `SELECT `+userColumns+` FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// GetUserByName fetches an account by its unique username.
func (r *UserRepo) GetUserByName(ctx context.Context, username string) (models.User, error) {
	q := db.Querier(ctx, r.db)
	var user models.User
	err := sqlx.GetContext(ctx, q, &user, `SELECT `+userColumns+` FROM users WHERE username=$1`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// ListUsers returns all accounts, newest first.
func (r *UserRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	q := db.Querier(ctx, r.db)
	var users []models.User
	err := sqlx.SelectContext(ctx, q, &users, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	return users, err
}

// SearchUsers returns accounts whose username starts with the prefix.
func (r *UserRepo) SearchUsers(ctx context.Context, namePrefix string) ([]models.User, error) {
	q := db.Querier(ctx, r.db)
	var users []models.User
	err := sqlx.SelectContext(ctx, q, &users,
		`SELECT `+userColumns+` FROM users WHERE username ILIKE $1 || '%' ORDER BY username LIMIT 20`, namePrefix)
	return users, err
}

// UpdateBio replaces the profile bio.
func (r *UserRepo) UpdateBio(ctx context.Context, userID int, bio string) error {
	return r.updateOne(ctx, `UPDATE users SET bio=$2 WHERE id=$1`, userID, bio)
}

// UpdateName renames the account; uniqueness is re-checked by the constraint.
func (r *UserRepo) UpdateName(ctx context.Context, userID int, username string) error {
	err := r.updateOne(ctx, `UPDATE users SET username=$2 WHERE id=$1`, userID, username)
	if isUniqueViolation(err) {
		return ErrUsernameTaken
	}
	return err
}

// UpdatePassword stores a new password hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, userID int, passwordHash string) error {
	return r.updateOne(ctx, `UPDATE users SET password_hash=$2 WHERE id=$1`, userID, passwordHash)
}

// SetPrivacy flips the account-visibility flag.
func (r *UserRepo) SetPrivacy(ctx context.Context, userID int, private bool) error {
	return r.updateOne(ctx, `UPDATE users SET is_private=$2 WHERE id=$1`, userID, private)
}

func (r *UserRepo) updateOne(ctx context.Context, query string, args ...interface{}) error {
	q := db.Querier(ctx, r.db)
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Follow links follower -> followee; repeated calls are no-ops.
func (r *UserRepo) Follow(ctx context.Context, followerID, followeeID int) error {
	q := db.Querier(ctx, r.db)
	_, err := q.ExecContext(ctx,
		`INSERT INTO follows (follower_id, followee_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		followerID, followeeID)
	return err
}

// Unfollow removes the link.
func (r *UserRepo) Unfollow(ctx context.Context, followerID, followeeID int) error {
	q := db.Querier(ctx, r.db)
	_, err := q.ExecContext(ctx,
		`DELETE FROM follows WHERE follower_id=$1 AND followee_id=$2`, followerID, followeeID)
	return err
}

// IsFollowing checks the follow graph.
func (r *UserRepo) IsFollowing(ctx context.Context, followerID, followeeID int) (bool, error) {
	q := db.Querier(ctx, r.db)
	var exists bool
	err := sqlx.GetContext(ctx, q, &exists,
		`SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id=$1 AND followee_id=$2)`, followerID, followeeID)
	return exists, err
}

// FollowCounts returns follower and following counts for a profile.
func (r *UserRepo) FollowCounts(ctx context.Context, userID int) (int, int, error) {
	q := db.Querier(ctx, r.db)
	var counts struct {
		Followers int `db:"followers"`
		Following int `db:"following"`
	}
	err := sqlx.GetContext(ctx, q, &counts, `SELECT
        (SELECT COUNT(*) FROM follows WHERE followee_id=$1) AS followers,
        (SELECT COUNT(*) FROM follows WHERE follower_id=$1) AS following`, userID)
	return counts.Followers, counts.Following, err
}
