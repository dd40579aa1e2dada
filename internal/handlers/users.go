package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"social-service/internal/db"
	"social-service/internal/middleware"
	"social-service/internal/models"
	"social-service/internal/repositories"
	"social-service/internal/session"
	"social-service/internal/telemetry"
)

// sessionStore is the slice of the session layer the user handler needs.
type sessionStore interface {
	Create(ctx context.Context, principal session.Principal) (string, error)
	Revoke(ctx context.Context, token string) error
}

// UserHandler manages accounts, sessions and the follow graph.
type UserHandler struct {
	userRepo       repositories.UserRepository
	followRequests repositories.FollowRequestRepository
	sessions       sessionStore
	txr            db.Runner
	audit          *telemetry.AuditEmitter
}

// NewUserHandler builds a UserHandler.
func NewUserHandler(userRepo repositories.UserRepository, followRequests repositories.FollowRequestRepository, sessions sessionStore, txr db.Runner, audit *telemetry.AuditEmitter) *UserHandler {
	return &UserHandler{
		userRepo:       userRepo,
		followRequests: followRequests,
		sessions:       sessions,
		txr:            txr,
		audit:          audit,
	}
}

// Register creates an account.
func (h *UserHandler) Register(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	username := strings.TrimSpace(req.Username)
	password := strings.TrimSpace(req.Password)
	if len(username) < 3 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username must be at least 3 characters"})
		return
	}
	if len(password) < 6 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 6 characters"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create user"})
		return
	}

	user, err := h.userRepo.CreateUser(c.Request.Context(), username, string(hash))
	if errors.Is(err, repositories.ErrUsernameTaken) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username already taken"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create user"})
		return
	}

	h.emitAudit(c, "INFO", "user registered")
	c.JSON(http.StatusCreated, gin.H{"id": user.ID, "username": user.Username})
}

// Login verifies credentials and issues a session cookie.
func (h *UserHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userRepo.GetUserByName(c.Request.Context(), strings.TrimSpace(req.Username))
	if errors.Is(err, repositories.ErrUserNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(strings.TrimSpace(req.Password))) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := h.sessions.Create(c.Request.Context(), session.Principal{UserID: user.ID, Username: user.Username})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	c.SetCookie(session.CookieName, token, 0, "/", "", false, true)
	h.emitAudit(c, "INFO", "user logged in")
	c.JSON(http.StatusOK, gin.H{"id": user.ID, "username": user.Username})
}

// Logout revokes the caller's session.
func (h *UserHandler) Logout(c *gin.Context) {
	token, err := c.Cookie(session.CookieName)
	if err == nil && token != "" {
		if err := h.sessions.Revoke(c.Request.Context(), token); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
			return
		}
	}
	c.SetCookie(session.CookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Session returns the caller's identity.
func (h *UserHandler) Session(c *gin.Context) {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no active session"})
		return
	}
	c.JSON(http.StatusOK, principal)
}

// ListUsers returns the directory.
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userRepo.ListUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// SearchUsers returns accounts matching a name prefix.
func (h *UserHandler) SearchUsers(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name query parameter required"})
		return
	}

	users, err := h.userRepo.SearchUsers(c.Request.Context(), name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// GetUser returns a profile with follow counts.
func (h *UserHandler) GetUser(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	user, err := h.userRepo.GetUser(c.Request.Context(), userID)
	if errors.Is(err, repositories.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}

	followers, following, err := h.userRepo.FollowCounts(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}

	c.JSON(http.StatusOK, models.UserProfile{User: user, Followers: followers, Following: following})
}

// UpdateBio edits the caller's own bio.
func (h *UserHandler) UpdateBio(c *gin.Context) {
	h.updateOwnField(c, func(ctx context.Context, userID int) error {
		var req struct {
			Bio string `json:"bio"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			return errBadRequest
		}
		return h.userRepo.UpdateBio(ctx, userID, req.Bio)
	})
}

// UpdateName renames the caller's own account.
func (h *UserHandler) UpdateName(c *gin.Context) {
	h.updateOwnField(c, func(ctx context.Context, userID int) error {
		var req struct {
			Username string `json:"username" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			return errBadRequest
		}
		username := strings.TrimSpace(req.Username)
		if len(username) < 3 {
			return errBadRequest
		}
		return h.userRepo.UpdateName(ctx, userID, username)
	})
}

// UpdatePassword changes the caller's password after verifying the current one.
func (h *UserHandler) UpdatePassword(c *gin.Context) {
	h.updateOwnField(c, func(ctx context.Context, userID int) error {
		var req struct {
			CurrentPassword string `json:"current_password" binding:"required"`
			NewPassword     string `json:"new_password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			return errBadRequest
		}
		if len(strings.TrimSpace(req.NewPassword)) < 6 {
			return errBadRequest
		}

		user, err := h.userRepo.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
			return errWrongPassword
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(req.NewPassword)), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		return h.userRepo.UpdatePassword(ctx, userID, string(hash))
	})
}

// UpdatePrivacy flips the caller's account-visibility flag.
func (h *UserHandler) UpdatePrivacy(c *gin.Context) {
	h.updateOwnField(c, func(ctx context.Context, userID int) error {
		var req struct {
			Private *bool `json:"private" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			return errBadRequest
		}
		return h.userRepo.SetPrivacy(ctx, userID, *req.Private)
	})
}

var (
	errBadRequest    = errors.New("bad request")
	errWrongPassword = errors.New("wrong password")
)

func (h *UserHandler) updateOwnField(c *gin.Context, fn func(ctx context.Context, userID int) error) {
	targetID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	if targetID != c.GetInt("userID") {
		c.JSON(http.StatusForbidden, gin.H{"error": "not allowed"})
		return
	}

	switch err := fn(c.Request.Context(), targetID); {
	case errors.Is(err, errBadRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
	case errors.Is(err, errWrongPassword):
		c.JSON(http.StatusForbidden, gin.H{"error": "current password is incorrect"})
	case errors.Is(err, repositories.ErrUsernameTaken):
		c.JSON(http.StatusBadRequest, gin.H{"error": "username already taken"})
	case errors.Is(err, repositories.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "updated"})
	}
}

// ToggleFollow follows a public account, or unfollows when already following.
// Private accounts require a follow request.
func (h *UserHandler) ToggleFollow(c *gin.Context) {
	targetID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	userID := c.GetInt("userID")
	if targetID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot follow yourself"})
		return
	}

	target, err := h.userRepo.GetUser(c.Request.Context(), targetID)
	if errors.Is(err, repositories.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "follow failed"})
		return
	}

	following, err := h.userRepo.IsFollowing(c.Request.Context(), userID, targetID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "follow failed"})
		return
	}

	if following {
		if err := h.userRepo.Unfollow(c.Request.Context(), userID, targetID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "unfollow failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"following": false})
		return
	}

	if target.IsPrivate {
		c.JSON(http.StatusConflict, gin.H{"error": "account is private, send a follow request"})
		return
	}

	if err := h.userRepo.Follow(c.Request.Context(), userID, targetID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "follow failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": true})
}

// CreateFollowRequest asks a private account for permission to follow.
func (h *UserHandler) CreateFollowRequest(c *gin.Context) {
	targetID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	userID := c.GetInt("userID")
	if targetID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot send a follow request to yourself"})
		return
	}

	target, err := h.userRepo.GetUser(c.Request.Context(), targetID)
	if errors.Is(err, repositories.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "request failed"})
		return
	}
	if !target.IsPrivate {
		c.JSON(http.StatusBadRequest, gin.H{"error": "account is public, follow directly"})
		return
	}

	following, err := h.userRepo.IsFollowing(c.Request.Context(), userID, targetID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "request failed"})
		return
	}
	if following {
		c.JSON(http.StatusBadRequest, gin.H{"error": "already following this user"})
		return
	}

	// One record per pair, whatever its state.
	if _, err := h.followRequests.FindFollowRequest(c.Request.Context(), userID, targetID); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "follow request already exists"})
		return
	} else if !errors.Is(err, repositories.ErrFollowRequestNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "request failed"})
		return
	}

	req, err := h.followRequests.CreateFollowRequest(c.Request.Context(), userID, targetID)
	if errors.Is(err, repositories.ErrFollowRequestExists) {
		c.JSON(http.StatusConflict, gin.H{"error": "follow request already exists"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "request failed"})
		return
	}

	h.emitAudit(c, "INFO", "follow request sent")
	c.JSON(http.StatusCreated, req)
}

// ListFollowRequests returns pending follow requests addressed to the caller.
func (h *UserHandler) ListFollowRequests(c *gin.Context) {
	reqs, err := h.followRequests.ListPendingForTarget(c.Request.Context(), c.GetInt("userID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load requests"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": reqs})
}

// AcceptFollowRequest accepts a pending request and links the follow graph.
func (h *UserHandler) AcceptFollowRequest(c *gin.Context) {
	h.resolveFollowRequest(c, models.FollowRequestAccepted)
}

// RejectFollowRequest rejects a pending request.
func (h *UserHandler) RejectFollowRequest(c *gin.Context) {
	h.resolveFollowRequest(c, models.FollowRequestRejected)
}

func (h *UserHandler) resolveFollowRequest(c *gin.Context, status string) {
	requestID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}
	userID := c.GetInt("userID")

	err = h.txr.RunInTx(c.Request.Context(), func(ctx context.Context) error {
		req, err := h.followRequests.GetFollowRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if req.TargetID != userID {
			return errNotAllowed
		}
		if req.Status != models.FollowRequestPending {
			return errAlreadyResolved
		}

		if err := h.followRequests.UpdateStatus(ctx, req.ID, status); err != nil {
			return err
		}
		if status == models.FollowRequestAccepted {
			return h.userRepo.Follow(ctx, req.RequesterID, req.TargetID)
		}
		return nil
	})

	switch {
	case errors.Is(err, repositories.ErrFollowRequestNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "follow request not found"})
	case errors.Is(err, errNotAllowed):
		c.JSON(http.StatusForbidden, gin.H{"error": "not allowed"})
	case errors.Is(err, errAlreadyResolved):
		c.JSON(http.StatusBadRequest, gin.H{"error": "request already resolved"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not resolve request"})
	default:
		c.JSON(http.StatusOK, gin.H{"status": status})
	}
}

var (
	errNotAllowed      = errors.New("not allowed")
	errAlreadyResolved = errors.New("already resolved")
)

func (h *UserHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}
