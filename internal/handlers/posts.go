package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"social-service/internal/models"
	"social-service/internal/repositories"
	"social-service/internal/telemetry"
)

// PostHandler covers the feed: posts, likes, comments and reactions.
type PostHandler struct {
	posts repositories.PostRepository
	audit *telemetry.AuditEmitter
}

// NewPostHandler builds a PostHandler.
func NewPostHandler(posts repositories.PostRepository, audit *telemetry.AuditEmitter) *PostHandler {
	return &PostHandler{posts: posts, audit: audit}
}

// CreatePost publishes a post by the caller.
func (h *PostHandler) CreatePost(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content must not be empty"})
		return
	}

	post, err := h.posts.CreatePost(c.Request.Context(), c.GetInt("userID"), req.Content)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create post"})
		return
	}

	h.emitAudit(c, "INFO", "post created")
	c.JSON(http.StatusCreated, post)
}

// ListPosts returns the feed, newest first.
func (h *PostHandler) ListPosts(c *gin.Context) {
	posts, err := h.posts.ListPosts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load posts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// GetPost returns a single post.
func (h *PostHandler) GetPost(c *gin.Context) {
	postID, ok := pathID(c, "id", "invalid post id")
	if !ok {
		return
	}

	post, err := h.posts.GetPost(c.Request.Context(), postID)
	if errors.Is(err, repositories.ErrPostNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load post"})
		return
	}
	c.JSON(http.StatusOK, post)
}

// UpdatePost edits a post. Only the author may edit.
func (h *PostHandler) UpdatePost(c *gin.Context) {
	postID, ok := pathID(c, "id", "invalid post id")
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !h.authorizePostAuthor(c, postID) {
		return
	}

	post, err := h.posts.UpdatePost(c.Request.Context(), postID, req.Content)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update post"})
		return
	}
	c.JSON(http.StatusOK, post)
}

// DeletePost removes a post and its comments, likes and reactions. Only the
// author may delete.
func (h *PostHandler) DeletePost(c *gin.Context) {
	postID, ok := pathID(c, "id", "invalid post id")
	if !ok {
		return
	}

	if !h.authorizePostAuthor(c, postID) {
		return
	}

	if err := h.posts.DeletePost(c.Request.Context(), postID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete post"})
		return
	}

	h.emitAudit(c, "INFO", "post deleted")
	c.JSON(http.StatusOK, gin.H{"message": "post deleted"})
}

// ToggleLike likes a post, or removes the caller's like when already present.
func (h *PostHandler) ToggleLike(c *gin.Context) {
	postID, ok := pathID(c, "id", "invalid post id")
	if !ok {
		return
	}

	post, err := h.posts.ToggleLike(c.Request.Context(), postID, c.GetInt("userID"))
	if errors.Is(err, repositories.ErrPostNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not toggle like"})
		return
	}
	c.JSON(http.StatusOK, post)
}

// CreateComment adds a comment to a post.
func (h *PostHandler) CreateComment(c *gin.Context) {
	var req struct {
		PostID  int    `json:"post_id" binding:"required"`
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content must not be empty"})
		return
	}

	comment, err := h.posts.CreateComment(c.Request.Context(), req.PostID, c.GetInt("userID"), req.Content)
	if errors.Is(err, repositories.ErrPostNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create comment"})
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// ListComments returns the comments on a post, oldest first.
func (h *PostHandler) ListComments(c *gin.Context) {
	postID, ok := pathID(c, "id", "invalid post id")
	if !ok {
		return
	}

	comments, err := h.posts.ListComments(c.Request.Context(), postID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load comments"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

// DeleteComment removes a comment. Only the comment author may delete.
func (h *PostHandler) DeleteComment(c *gin.Context) {
	commentID, ok := pathID(c, "id", "invalid comment id")
	if !ok {
		return
	}

	comment, err := h.posts.GetComment(c.Request.Context(), commentID)
	if errors.Is(err, repositories.ErrCommentNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "comment not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete comment"})
		return
	}
	if comment.UserID != c.GetInt("userID") {
		c.JSON(http.StatusForbidden, gin.H{"error": "not allowed"})
		return
	}

	if err := h.posts.DeleteComment(c.Request.Context(), commentID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete comment"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "comment deleted"})
}

// UpsertReaction sets the caller's reaction on a post, replacing any previous
// one.
func (h *PostHandler) UpsertReaction(c *gin.Context) {
	var req struct {
		PostID int    `json:"post_id" binding:"required"`
		Kind   string `json:"kind" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch req.Kind {
	case models.ReactionLike, models.ReactionLove, models.ReactionDislike:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown reaction kind"})
		return
	}

	reaction, err := h.posts.UpsertReaction(c.Request.Context(), req.PostID, c.GetInt("userID"), req.Kind)
	if errors.Is(err, repositories.ErrPostNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save reaction"})
		return
	}
	c.JSON(http.StatusOK, reaction)
}

// ListReactions returns every reaction in the system.
func (h *PostHandler) ListReactions(c *gin.Context) {
	reactions, err := h.posts.ListReactions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load reactions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reactions": reactions})
}

func (h *PostHandler) authorizePostAuthor(c *gin.Context, postID int) bool {
	post, err := h.posts.GetPost(c.Request.Context(), postID)
	if errors.Is(err, repositories.ErrPostNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load post"})
		return false
	}
	if post.UserID != c.GetInt("userID") {
		c.JSON(http.StatusForbidden, gin.H{"error": "not allowed"})
		return false
	}
	return true
}

func pathID(c *gin.Context, param, msg string) (int, bool) {
	id, err := strconv.Atoi(c.Param(param))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return 0, false
	}
	return id, true
}

func (h *PostHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}
