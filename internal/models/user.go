package models

import "time"

// User is a directory account. PasswordHash never leaves the service.
type User struct {
	ID           int       `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Bio          string    `db:"bio" json:"bio"`
	IsPrivate    bool      `db:"is_private" json:"is_private"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// UserProfile is the public view of a user, including follow counts.
type UserProfile struct {
	User
	Followers int `json:"followers"`
	Following int `json:"following"`
}

// FollowRequest asks a private account for permission to follow.
type FollowRequest struct {
	ID          int       `db:"id" json:"id"`
	RequesterID int       `db:"requester_id" json:"requester_id"`
	TargetID    int       `db:"target_id" json:"target_id"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Follow request statuses.
const (
	FollowRequestPending  = "pending"
	FollowRequestAccepted = "accepted"
	FollowRequestRejected = "rejected"
)
