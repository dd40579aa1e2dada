package models

import "time"

// Post is a publication with denormalized like and comment counters.
type Post struct {
	ID           int       `db:"id" json:"id"`
	UserID       int       `db:"user_id" json:"user_id"`
	Content      string    `db:"content" json:"content"`
	Likes        int       `db:"likes" json:"likes"`
	CommentCount int       `db:"comment_count" json:"comment_count"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Comment belongs to a post.
type Comment struct {
	ID        int       `db:"id" json:"id"`
	PostID    int       `db:"post_id" json:"post_id"`
	UserID    int       `db:"user_id" json:"user_id"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Reaction is one per (post, user); creating again replaces the kind.
type Reaction struct {
	ID        int       `db:"id" json:"id"`
	PostID    int       `db:"post_id" json:"post_id"`
	UserID    int       `db:"user_id" json:"user_id"`
	Kind      string    `db:"kind" json:"kind"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Reaction kinds.
const (
	ReactionLike    = "like"
	ReactionLove    = "love"
	ReactionDislike = "dislike"
)
