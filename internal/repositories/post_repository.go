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
	ErrPostNotFound     = errors.New("post not found")
	ErrCommentNotFound  = errors.New("comment not found")
	ErrReactionNotFound = errors.New("reaction not found")
)

// PostRepository abstracts publication persistence.
type PostRepository interface {
	CreatePost(ctx context.Context, userID int, content string) (models.Post, error)
	GetPost(ctx context.Context, postID int) (models.Post, error)
	ListPosts(ctx context.Context) ([]models.Post, error)
	UpdatePost(ctx context.Context, postID int, content string) (models.Post, error)
	DeletePost(ctx context.Context, postID int) error
	ToggleLike(ctx context.Context, postID, userID int) (models.Post, error)
	CreateComment(ctx context.Context, postID, userID int, content string) (models.Comment, error)
	GetComment(ctx context.Context, commentID int) (models.Comment, error)
	ListComments(ctx context.Context, postID int) ([]models.Comment, error)
	DeleteComment(ctx context.Context, commentID int) error
	UpsertReaction(ctx context.Context, postID, userID int, kind string) (models.Reaction, error)
	ListReactions(ctx context.Context) ([]models.Reaction, error)
}

// PostRepo is a sqlx implementation of PostRepository.
type PostRepo struct {
	db *sqlx.DB
}

// NewPostRepo constructs a PostRepo.
func NewPostRepo(database *sqlx.DB) *PostRepo {
	return &PostRepo{db: database}
}

const postColumns = `id, user_id, content, likes, comment_count, created_at`

// CreatePost stores a publication.
func (r *PostRepo) CreatePost(ctx context.Context, userID int, content string) (models.Post, error) {
	q := db.Querier(ctx, r.db)
	var post models.Post
	err := sqlx.GetContext(ctx, q, &post,
		`INSERT INTO posts (user_id, content) VALUES ($1, $2) RETURNING `+postColumns, userID, content)
	return post, err
}

// GetPost fetches a publication by id.
func (r *PostRepo) GetPost(ctx context.Context, postID int) (models.Post, error) {
	q := db.Querier(ctx, r.db)
	var post models.Post
	err := sqlx.GetContext(ctx, q, &post, `SELECT `+postColumns+` FROM posts WHERE id=$1`, postID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Post{}, ErrPostNotFound
	}
	return post, err
}

// ListPosts returns publications, newest first.
func (r *PostRepo) ListPosts(ctx context.Context) ([]models.Post, error) {
	q := db.Querier(ctx, r.db)
	var posts []models.Post
	err := sqlx.SelectContext(ctx, q, &posts, `SELECT `+postColumns+` FROM posts ORDER BY created_at DESC`)
	return posts, err
}

// UpdatePost replaces a publication's content.
func (r *PostRepo) UpdatePost(ctx context.Context, postID int, content string) (models.Post, error) {
	q := db.Querier(ctx, r.db)
	var post models.Post
	err := sqlx.GetContext(ctx, q, &post,
		`UPDATE posts SET content=$2 WHERE id=$1 RETURNING `+postColumns, postID, content)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Post{}, ErrPostNotFound
	}
	return post, err
}

// DeletePost removes a publication; comments and reactions cascade.
func (r *PostRepo) DeletePost(ctx context.Context, postID int) error {
	q := db.Querier(ctx, r.db)
	res, err := q.ExecContext(ctx, `DELETE FROM posts WHERE id=$1`, postID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrPostNotFound
	}
	return nil
}

// ToggleLike adds the user to the like set or removes them, adjusting the
// counter, and returns the updated post.
func (r *PostRepo) ToggleLike(ctx context.Context, postID, userID int) (models.Post, error) {
	q := db.Querier(ctx, r.db)

	res, err := q.ExecContext(ctx,
		`INSERT INTO post_likes (post_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, postID, userID)
	if err != nil {
		return models.Post{}, err
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return models.Post{}, err
	}

	delta := 1
	if inserted == 0 {
		if _, err := q.ExecContext(ctx,
			`DELETE FROM post_likes WHERE post_id=$1 AND user_id=$2`, postID, userID); err != nil {
			return models.Post{}, err
		}
		delta = -1
	}

	var post models.Post
	err = sqlx.GetContext(ctx, q, &post,
		`UPDATE posts SET likes = likes + $2 WHERE id=$1 RETURNING `+postColumns, postID, delta)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Post{}, ErrPostNotFound
	}
	return post, err
}

const commentColumns = `id, post_id, user_id, content, created_at`

// CreateComment stores a comment and bumps the post counter.
func (r *PostRepo) CreateComment(ctx context.Context, postID, userID int, content string) (models.Comment, error) {
	q := db.Querier(ctx, r.db)
	var comment models.Comment
	err := sqlx.GetContext(ctx, q, &comment,
		`INSERT INTO comments (post_id, user_id, content) VALUES ($1, $2, $3) RETURNING `+commentColumns,
		postID, userID, content)
	if err != nil {
		return models.Comment{}, err
	}
	_, err = q.ExecContext(ctx, `UPDATE posts SET comment_count = comment_count + 1 WHERE id=$1`, postID)
	return comment, err
}

// GetComment fetches a comment by id.
func (r *PostRepo) GetComment(ctx context.Context, commentID int) (models.Comment, error) {
	q := db.Querier(ctx, r.db)
	var comment models.Comment
	err := sqlx.GetContext(ctx, q, &comment, `SELECT `+commentColumns+` FROM comments WHERE id=$1`, commentID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Comment{}, ErrCommentNotFound
	}
	return comment, err
}

// ListComments returns a post's comments in posting order.
func (r *PostRepo) ListComments(ctx context.Context, postID int) ([]models.Comment, error) {
	q := db.Querier(ctx, r.db)
	var comments []models.Comment
	err := sqlx.SelectContext(ctx, q, &comments,
		`SELECT `+commentColumns+` FROM comments WHERE post_id=$1 ORDER BY created_at ASC`, postID)
	return comments, err
}

// DeleteComment removes a comment and decrements the post counter.
func (r *PostRepo) DeleteComment(ctx context.Context, commentID int) error {
	q := db.Querier(ctx, r.db)
	var postID int
	err := sqlx.GetContext(ctx, q, &postID,
		`DELETE FROM comments WHERE id=$1 RETURNING post_id`, commentID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrCommentNotFound
	}
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `UPDATE posts SET comment_count = comment_count - 1 WHERE id=$1`, postID)
	return err
}

const reactionColumns = `id, post_id, user_id, kind, created_at`

// UpsertReaction stores a reaction, replacing any previous one by the same
// user on the same post.
func (r *PostRepo) UpsertReaction(ctx context.Context, postID, userID int, kind string) (models.Reaction, error) {
	q := db.Querier(ctx, r.db)
	var reaction models.Reaction
	err := sqlx.GetContext(ctx, q, &reaction,
		`INSERT INTO reactions (post_id, user_id, kind) VALUES ($1, $2, $3)
         ON CONFLICT (post_id, user_id) DO UPDATE SET kind = EXCLUDED.kind
         RETURNING `+reactionColumns, postID, userID, kind)
	return reaction, err
}

// ListReactions returns all reactions.
func (r *PostRepo) ListReactions(ctx context.Context) ([]models.Reaction, error) {
	q := db.Querier(ctx, r.db)
	var reactions []models.Reaction
	err := sqlx.SelectContext(ctx, q, &reactions, `SELECT `+reactionColumns+` FROM reactions ORDER BY created_at DESC`)
	return reactions, err
}
