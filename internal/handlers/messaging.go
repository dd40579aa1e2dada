package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"social-service/internal/chatflow"
	"social-service/internal/repositories"
	"social-service/internal/telemetry"
)

// MessagingHandler exposes the direct-message surface: sending, conversation
// listing, hide and permanent-delete flows, message requests and reactivation
// requests. All state transitions live in the chatflow service; this layer
// only translates HTTP to service calls and service errors to status codes.
type MessagingHandler struct {
	flow  chatflow.Service
	audit *telemetry.AuditEmitter
}

// NewMessagingHandler builds a MessagingHandler.
func NewMessagingHandler(flow chatflow.Service, audit *telemetry.AuditEmitter) *MessagingHandler {
	return &MessagingHandler{flow: flow, audit: audit}
}

// SendMessage delivers a message or opens a message request, depending on the
// state of the channel between the two users.
func (h *MessagingHandler) SendMessage(c *gin.Context) {
	var req struct {
		RecipientID int    `json:"recipient_id" binding:"required"`
		Content     string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content must not be empty"})
		return
	}

	result, err := h.flow.SendMessage(c.Request.Context(), c.GetInt("userID"), req.RecipientID, req.Content)
	if err != nil {
		h.writeError(c, err, "could not send message")
		return
	}

	if result.Type == chatflow.OutcomeRequest {
		h.emitAudit(c, "INFO", "message request created")
	} else {
		h.emitAudit(c, "INFO", "message sent")
	}
	c.JSON(http.StatusCreated, result)
}

// Conversation returns the message history with a partner plus the channel
// status as seen by the caller.
func (h *MessagingHandler) Conversation(c *gin.Context) {
	partnerID, ok := h.partnerID(c)
	if !ok {
		return
	}

	messages, status, err := h.flow.Conversation(c.Request.Context(), c.GetInt("userID"), partnerID)
	if err != nil {
		h.writeError(c, err, "could not load conversation")
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages, "status": status})
}

// Conversations lists the caller's visible conversations, newest first.
func (h *MessagingHandler) Conversations(c *gin.Context) {
	summaries, err := h.flow.Conversations(c.Request.Context(), c.GetInt("userID"))
	if err != nil {
		h.writeError(c, err, "could not load conversations")
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": summaries})
}

// MarkRead marks every message from the partner as read.
func (h *MessagingHandler) MarkRead(c *gin.Context) {
	partnerID, ok := h.partnerID(c)
	if !ok {
		return
	}

	if err := h.flow.MarkConversationRead(c.Request.Context(), c.GetInt("userID"), partnerID); err != nil {
		h.writeError(c, err, "could not mark conversation read")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "conversation marked read"})
}

// Hide removes the conversation from the caller's inbox without affecting the
// partner's view.
func (h *MessagingHandler) Hide(c *gin.Context) {
	partnerID, ok := h.partnerID(c)
	if !ok {
		return
	}

	priv, err := h.flow.HideConversation(c.Request.Context(), c.GetInt("userID"), partnerID)
	if err != nil {
		h.writeError(c, err, "could not hide conversation")
		return
	}

	h.emitAudit(c, "INFO", "conversation hidden")
	c.JSON(http.StatusOK, priv)
}

// ConfirmDelete joins a hide started by the partner, purging the conversation
// for both sides.
func (h *MessagingHandler) ConfirmDelete(c *gin.Context) {
	partnerID, ok := h.partnerID(c)
	if !ok {
		return
	}

	if err := h.flow.ConfirmPermanentDelete(c.Request.Context(), c.GetInt("userID"), partnerID); err != nil {
		h.writeError(c, err, "could not delete conversation")
		return
	}

	h.emitAudit(c, "WARN", "conversation permanently deleted")
	c.JSON(http.StatusOK, gin.H{"message": "conversation deleted"})
}

// PendingRequests lists message requests waiting on the caller.
func (h *MessagingHandler) PendingRequests(c *gin.Context) {
	reqs, err := h.flow.PendingRequests(c.Request.Context(), c.GetInt("userID"))
	if err != nil {
		h.writeError(c, err, "could not load message requests")
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": reqs})
}

// ApproveRequest accepts a message request, delivering the held message and
// opening the channel.
func (h *MessagingHandler) ApproveRequest(c *gin.Context) {
	requestID, ok := pathID(c, "id", "invalid request id")
	if !ok {
		return
	}

	msg, err := h.flow.ApproveRequest(c.Request.Context(), requestID, c.GetInt("userID"))
	if err != nil {
		h.writeError(c, err, "could not approve request")
		return
	}

	h.emitAudit(c, "INFO", "message request approved")
	c.JSON(http.StatusOK, msg)
}

// RejectRequest declines a message request and discards the held message.
func (h *MessagingHandler) RejectRequest(c *gin.Context) {
	requestID, ok := pathID(c, "id", "invalid request id")
	if !ok {
		return
	}

	if err := h.flow.RejectRequest(c.Request.Context(), requestID, c.GetInt("userID")); err != nil {
		h.writeError(c, err, "could not reject request")
		return
	}

	h.emitAudit(c, "INFO", "message request rejected")
	c.JSON(http.StatusOK, gin.H{"message": "request rejected"})
}

// RequestReactivation asks the participant who hid the conversation to bring
// it back.
func (h *MessagingHandler) RequestReactivation(c *gin.Context) {
	var req struct {
		PrivilegeID     int `json:"privilege_id" binding:"required"`
		HideInitiatorID int `json:"hide_initiator_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reactivation, err := h.flow.RequestReactivation(c.Request.Context(), c.GetInt("userID"), req.HideInitiatorID, req.PrivilegeID)
	if err != nil {
		h.writeError(c, err, "could not request reactivation")
		return
	}

	h.emitAudit(c, "INFO", "reactivation requested")
	c.JSON(http.StatusCreated, reactivation)
}

// PendingReactivations lists reactivation requests waiting on the caller.
func (h *MessagingHandler) PendingReactivations(c *gin.Context) {
	reqs, err := h.flow.PendingReactivations(c.Request.Context(), c.GetInt("userID"))
	if err != nil {
		h.writeError(c, err, "could not load reactivation requests")
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": reqs})
}

// AcceptReactivation clears the hide and reopens the conversation.
func (h *MessagingHandler) AcceptReactivation(c *gin.Context) {
	requestID, ok := pathID(c, "id", "invalid request id")
	if !ok {
		return
	}

	if err := h.flow.AcceptReactivation(c.Request.Context(), requestID, c.GetInt("userID")); err != nil {
		h.writeError(c, err, "could not accept reactivation")
		return
	}

	h.emitAudit(c, "INFO", "reactivation accepted")
	c.JSON(http.StatusOK, gin.H{"message": "conversation reactivated"})
}

// RejectReactivation declines the reactivation and purges the conversation
// for both sides.
func (h *MessagingHandler) RejectReactivation(c *gin.Context) {
	requestID, ok := pathID(c, "id", "invalid request id")
	if !ok {
		return
	}

	if err := h.flow.RejectReactivation(c.Request.Context(), requestID, c.GetInt("userID")); err != nil {
		h.writeError(c, err, "could not reject reactivation")
		return
	}

	h.emitAudit(c, "WARN", "reactivation rejected, conversation deleted")
	c.JSON(http.StatusOK, gin.H{"message": "conversation deleted"})
}

func (h *MessagingHandler) partnerID(c *gin.Context) (int, bool) {
	return pathID(c, "partner_id", "invalid partner id")
}

func (h *MessagingHandler) writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, chatflow.ErrSelfConversation),
		errors.Is(err, chatflow.ErrNotActive),
		errors.Is(err, chatflow.ErrNoPendingHide):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, chatflow.ErrBlockedByRecipient),
		errors.Is(err, chatflow.ErrNotParticipant),
		errors.Is(err, chatflow.ErrNotHideInitiator):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, repositories.ErrPrivilegeNotFound),
		errors.Is(err, repositories.ErrMessageRequestNotFound),
		errors.Is(err, repositories.ErrReactivationNotFound),
		errors.Is(err, repositories.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, chatflow.ErrRequestPending),
		errors.Is(err, chatflow.ErrReactivationPending),
		errors.Is(err, chatflow.ErrAlreadyResolved):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

func (h *MessagingHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}
