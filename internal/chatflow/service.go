// Package chatflow implements the gate that decides whether two users may
// exchange direct messages: the per-pair privilege record, the
// message-request flow that opens a channel, and the hide / reactivation /
// permanent-delete flow that winds one down. Every transition that touches
// more than one table runs inside a single transaction.
package chatflow

import (
	"context"
	"errors"

	"social-service/internal/db"
	"social-service/internal/models"
	"social-service/internal/observability"
	"social-service/internal/repositories"
)

var (
	ErrSelfConversation    = errors.New("cannot message yourself")
	ErrBlockedByRecipient  = errors.New("recipient has hidden this conversation")
	ErrRequestPending      = errors.New("a message request is already pending")
	ErrReactivationPending = errors.New("a reactivation request is already pending")
	ErrNotParticipant      = errors.New("user is not a participant")
	ErrNotHideInitiator    = errors.New("addressed user did not initiate the hide")
	ErrAlreadyResolved     = errors.New("request is no longer pending")
	ErrNotActive           = errors.New("conversation is not active")
	ErrNoPendingHide       = errors.New("no hide by the other participant to confirm")
)

// SendResult outcome types.
const (
	OutcomeMessage = "message"
	OutcomeRequest = "request"
)

// SendResult reports what SendMessage produced: a delivered message when the
// channel was open, or a message request when it was not.
type SendResult struct {
	Type    string                 `json:"type"`
	Message *models.Message        `json:"message,omitempty"`
	Request *models.MessageRequest `json:"request,omitempty"`
}

// Service is the messaging core consumed by the HTTP handlers.
type Service interface {
	SendMessage(ctx context.Context, senderID, recipientID int, content string) (SendResult, error)
	Conversation(ctx context.Context, userID, partnerID int) ([]models.Message, models.ChatStatus, error)
	Conversations(ctx context.Context, userID int) ([]models.ConversationSummary, error)
	MarkConversationRead(ctx context.Context, userID, partnerID int) error
	HideConversation(ctx context.Context, userID, partnerID int) (models.ChatPrivilege, error)
	ConfirmPermanentDelete(ctx context.Context, userID, partnerID int) error
	PendingRequests(ctx context.Context, userID int) ([]models.MessageRequest, error)
	ApproveRequest(ctx context.Context, requestID, approverID int) (models.Message, error)
	RejectRequest(ctx context.Context, requestID, approverID int) error
	RequestReactivation(ctx context.Context, requesterID, hideInitiatorID, privilegeID int) (models.ReactivationRequest, error)
	PendingReactivations(ctx context.Context, userID int) ([]models.ReactivationRequest, error)
	AcceptReactivation(ctx context.Context, requestID, userID int) error
	RejectReactivation(ctx context.Context, requestID, userID int) error
}

// Core wires the repositories together. All writes go through the transaction
// runner so each transition commits or rolls back as one unit.
type Core struct {
	txr           db.Runner
	privileges    repositories.PrivilegeRepository
	messages      repositories.MessageRepository
	requests      repositories.MessageRequestRepository
	reactivations repositories.ReactivationRepository
}

// NewCore constructs the messaging core.
func NewCore(
	txr db.Runner,
	privileges repositories.PrivilegeRepository,
	messages repositories.MessageRepository,
	requests repositories.MessageRequestRepository,
	reactivations repositories.ReactivationRepository,
) *Core {
	return &Core{
		txr:           txr,
		privileges:    privileges,
		messages:      messages,
		requests:      requests,
		reactivations: reactivations,
	}
}

var _ Service = (*Core)(nil)

// ensurePrivilege creates the pair record, treating a duplicate-key failure
// as a benign race resolved by re-reading the row the other writer won with.
func (c *Core) ensurePrivilege(ctx context.Context, initiatorID, partnerID int, state string) (models.ChatPrivilege, error) {
	priv, err := c.privileges.Create(ctx, initiatorID, partnerID, state)
	if errors.Is(err, repositories.ErrDuplicatePair) {
		return c.privileges.GetByPair(ctx, initiatorID, partnerID)
	}
	return priv, err
}

// SendMessage delivers a message when the pair's privilege is active, or
// falls into the request path when it is not. Sending while the sender holds
// the hide clears the hide for both sides; sending while the recipient holds
// it is rejected.
func (c *Core) SendMessage(ctx context.Context, senderID, recipientID int, content string) (SendResult, error) {
	if senderID == recipientID {
		return SendResult{}, ErrSelfConversation
	}

	var result SendResult
	err := c.txr.RunInTx(ctx, func(ctx context.Context) error {
		priv, err := c.privileges.GetByPair(ctx, senderID, recipientID)
		switch {
		case errors.Is(err, repositories.ErrPrivilegeNotFound):
			return c.openRequest(ctx, &result, nil, senderID, recipientID, content)
		case err != nil:
			return err
		case priv.State != models.PrivilegeActive:
			return c.openRequest(ctx, &result, &priv, senderID, recipientID, content)
		}

		if priv.HideInitiatorID == recipientID {
			return ErrBlockedByRecipient
		}
		if priv.HideInitiatorID == senderID {
			// Sending supersedes a self-initiated hide.
			if err := c.privileges.ClearHide(ctx, priv.ID); err != nil {
				return err
			}
			observability.IncChatTransition("hide_cleared_by_send")
		}

		msg, err := c.messages.CreateMessage(ctx, senderID, recipientID, content)
		if err != nil {
			return err
		}
		observability.IncChatTransition("message_sent")
		result = SendResult{Type: OutcomeMessage, Message: &msg}
		return nil
	})
	return result, err
}

// openRequest handles sendMessage reaching the no-active-privilege path:
// one pending request per direction, and a privilege row parked in pending.
func (c *Core) openRequest(ctx context.Context, result *SendResult, priv *models.ChatPrivilege, senderID, recipientID int, content string) error {
	pending, err := c.requests.HasPending(ctx, senderID, recipientID)
	if err != nil {
		return err
	}
	if pending {
		return ErrRequestPending
	}

	req, err := c.requests.CreateRequest(ctx, senderID, recipientID, content)
	if errors.Is(err, repositories.ErrDuplicatePendingRequest) {
		return ErrRequestPending
	}
	if err != nil {
		return err
	}

	if priv == nil {
		if _, err := c.ensurePrivilege(ctx, senderID, recipientID, models.PrivilegePending); err != nil {
			return err
		}
	} else if priv.State != models.PrivilegePending {
		if err := c.privileges.SetState(ctx, priv.ID, models.PrivilegePending); err != nil {
			return err
		}
	}

	observability.IncChatTransition("request_created")
	*result = SendResult{Type: OutcomeRequest, Request: &req}
	return nil
}

// Conversation returns the pair's history plus the caller's view of the
// privilege record.
func (c *Core) Conversation(ctx context.Context, userID, partnerID int) ([]models.Message, models.ChatStatus, error) {
	msgs, err := c.messages.ListBetween(ctx, userID, partnerID)
	if err != nil {
		return nil, models.ChatStatus{}, err
	}

	priv, err := c.privileges.GetByPair(ctx, userID, partnerID)
	if errors.Is(err, repositories.ErrPrivilegeNotFound) {
		return msgs, models.ChatStatus{State: "none"}, nil
	}
	if err != nil {
		return nil, models.ChatStatus{}, err
	}

	return msgs, statusForUser(priv, userID), nil
}

func statusForUser(priv models.ChatPrivilege, userID int) models.ChatStatus {
	return models.ChatStatus{
		State:           priv.State,
		PrivilegeID:     priv.ID,
		HiddenForMe:     priv.HiddenForUser(userID),
		HideInitiatorID: priv.HideInitiatorID,
		CanSend:         priv.State == models.PrivilegeActive && priv.HideInitiatorID != priv.Partner(userID),
		PendingAction:   priv.HideInitiatorID != 0 && priv.HideInitiatorID != userID,
	}
}

// Conversations lists per-partner summaries for the caller.
func (c *Core) Conversations(ctx context.Context, userID int) ([]models.ConversationSummary, error) {
	return c.privileges.ListSummariesForUser(ctx, userID)
}

// MarkConversationRead flips the read flag on messages the partner sent.
func (c *Core) MarkConversationRead(ctx context.Context, userID, partnerID int) error {
	return c.messages.MarkRead(ctx, userID, partnerID)
}

// HideConversation marks the conversation hidden on the caller's side and
// records the caller as hide initiator if nobody holds it yet. Idempotent.
func (c *Core) HideConversation(ctx context.Context, userID, partnerID int) (models.ChatPrivilege, error) {
	if userID == partnerID {
		return models.ChatPrivilege{}, ErrSelfConversation
	}

	var out models.ChatPrivilege
	err := c.txr.RunInTx(ctx, func(ctx context.Context) error {
		priv, err := c.privileges.GetByPair(ctx, userID, partnerID)
		if errors.Is(err, repositories.ErrPrivilegeNotFound) {
			priv, err = c.ensurePrivilege(ctx, userID, partnerID, models.PrivilegeActive)
		}
		if err != nil {
			return err
		}
		if priv.State != models.PrivilegeActive {
			return ErrNotActive
		}

		if err := c.privileges.AddHidden(ctx, priv.ID, userID); err != nil {
			return err
		}
		if priv.HideInitiatorID == 0 {
			if err := c.privileges.SetHideInitiator(ctx, priv.ID, userID); err != nil {
				return err
			}
		}
		observability.IncChatTransition("conversation_hidden")

		out, err = c.privileges.GetByPair(ctx, userID, partnerID)
		return err
	})
	return out, err
}

// ConfirmPermanentDelete is the caller's agreement to discard a conversation
// the partner has already hidden. Once both sides are in the hidden set the
// pair's messages and the privilege record are removed irrevocably.
func (c *Core) ConfirmPermanentDelete(ctx context.Context, userID, partnerID int) error {
	return c.txr.RunInTx(ctx, func(ctx context.Context) error {
		priv, err := c.privileges.GetByPair(ctx, userID, partnerID)
		if err != nil {
			return err
		}
		if !priv.Participant(userID) {
			return ErrNotParticipant
		}
		if priv.HideInitiatorID == 0 || priv.HideInitiatorID == userID {
			return ErrNoPendingHide
		}

		if err := c.privileges.AddHidden(ctx, priv.ID, userID); err != nil {
			return err
		}
		return c.purgeConversation(ctx, priv)
	})
}

// purgeConversation is the only hard-delete path: all messages for the pair,
// then the privilege record (hidden rows and reactivation requests cascade).
func (c *Core) purgeConversation(ctx context.Context, priv models.ChatPrivilege) error {
	if err := c.messages.DeleteBetween(ctx, priv.User1ID, priv.User2ID); err != nil {
		return err
	}
	if err := c.privileges.Delete(ctx, priv.ID); err != nil {
		return err
	}
	observability.IncChatTransition("conversation_purged")
	return nil
}

// PendingRequests lists pending message requests addressed to the user.
func (c *Core) PendingRequests(ctx context.Context, userID int) ([]models.MessageRequest, error) {
	return c.requests.ListPendingForRecipient(ctx, userID)
}

// ApproveRequest turns a pending message request into a delivered message and
// flips the pair's privilege to active with the hide sub-state cleared.
func (c *Core) ApproveRequest(ctx context.Context, requestID, approverID int) (models.Message, error) {
	var msg models.Message
	err := c.txr.RunInTx(ctx, func(ctx context.Context) error {
		req, err := c.requests.GetRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if req.RecipientID != approverID {
			return ErrNotParticipant
		}
		if req.Status != models.RequestPending {
			return ErrAlreadyResolved
		}

		msg, err = c.messages.CreateMessage(ctx, req.SenderID, req.RecipientID, req.Content)
		if err != nil {
			return err
		}
		if err := c.requests.UpdateStatus(ctx, req.ID, models.RequestApproved); err != nil {
			return err
		}

		priv, err := c.privileges.GetByPair(ctx, req.SenderID, req.RecipientID)
		if errors.Is(err, repositories.ErrPrivilegeNotFound) {
			_, err = c.ensurePrivilege(ctx, req.SenderID, req.RecipientID, models.PrivilegeActive)
			if err != nil {
				return err
			}
			observability.IncChatTransition("request_approved")
			return nil
		}
		if err != nil {
			return err
		}
		if err := c.privileges.SetState(ctx, priv.ID, models.PrivilegeActive); err != nil {
			return err
		}
		if err := c.privileges.ClearHide(ctx, priv.ID); err != nil {
			return err
		}
		observability.IncChatTransition("request_approved")
		return nil
	})
	return msg, err
}

// RejectRequest resolves a pending request and deletes the pair's pending
// privilege record entirely; a fresh request must start over from none.
func (c *Core) RejectRequest(ctx context.Context, requestID, approverID int) error {
	return c.txr.RunInTx(ctx, func(ctx context.Context) error {
		req, err := c.requests.GetRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if req.RecipientID != approverID {
			return ErrNotParticipant
		}
		if req.Status != models.RequestPending {
			return ErrAlreadyResolved
		}

		if err := c.requests.UpdateStatus(ctx, req.ID, models.RequestRejected); err != nil {
			return err
		}

		priv, err := c.privileges.GetByPair(ctx, req.SenderID, req.RecipientID)
		if errors.Is(err, repositories.ErrPrivilegeNotFound) {
			observability.IncChatTransition("request_rejected")
			return nil
		}
		if err != nil {
			return err
		}
		if err := c.privileges.Delete(ctx, priv.ID); err != nil {
			return err
		}
		observability.IncChatTransition("request_rejected")
		return nil
	})
}

// RequestReactivation lets the participant who did not initiate a hide ask
// the initiator to restore visibility.
func (c *Core) RequestReactivation(ctx context.Context, requesterID, hideInitiatorID, privilegeID int) (models.ReactivationRequest, error) {
	if requesterID == hideInitiatorID {
		return models.ReactivationRequest{}, ErrSelfConversation
	}

	var out models.ReactivationRequest
	err := c.txr.RunInTx(ctx, func(ctx context.Context) error {
		priv, err := c.privileges.GetByID(ctx, privilegeID)
		if err != nil {
			return err
		}
		if !priv.Participant(requesterID) || !priv.Participant(hideInitiatorID) {
			return ErrNotParticipant
		}
		if priv.HideInitiatorID == 0 || priv.HideInitiatorID != hideInitiatorID {
			return ErrNotHideInitiator
		}

		pending, err := c.reactivations.HasPendingForPrivilege(ctx, priv.ID, requesterID)
		if err != nil {
			return err
		}
		if pending {
			return ErrReactivationPending
		}

		out, err = c.reactivations.CreateReactivation(ctx, priv.ID, requesterID, hideInitiatorID)
		if err != nil {
			return err
		}
		observability.IncChatTransition("reactivation_requested")
		return nil
	})
	return out, err
}

// PendingReactivations lists pending reactivation requests addressed to the user.
func (c *Core) PendingReactivations(ctx context.Context, userID int) ([]models.ReactivationRequest, error) {
	return c.reactivations.ListPendingForRecipient(ctx, userID)
}

// AcceptReactivation restores visibility: only the hide initiator may accept,
// and acceptance clears the hide sub-state for both sides.
func (c *Core) AcceptReactivation(ctx context.Context, requestID, userID int) error {
	return c.txr.RunInTx(ctx, func(ctx context.Context) error {
		req, err := c.reactivations.GetReactivation(ctx, requestID)
		if err != nil {
			return err
		}
		if req.RecipientID != userID {
			return ErrNotParticipant
		}
		if req.Status != models.RequestPending {
			return ErrAlreadyResolved
		}

		if err := c.reactivations.UpdateStatus(ctx, req.ID, models.RequestAccepted); err != nil {
			return err
		}
		priv, err := c.privileges.GetByID(ctx, req.PrivilegeID)
		if err != nil {
			return err
		}
		if err := c.privileges.SetState(ctx, priv.ID, models.PrivilegeActive); err != nil {
			return err
		}
		if err := c.privileges.ClearHide(ctx, priv.ID); err != nil {
			return err
		}
		observability.IncChatTransition("reactivation_accepted")
		return nil
	})
}

// RejectReactivation is the initiator's refusal to restore the conversation.
// Both sides have now given the conversation up, so it is purged.
func (c *Core) RejectReactivation(ctx context.Context, requestID, userID int) error {
	return c.txr.RunInTx(ctx, func(ctx context.Context) error {
		req, err := c.reactivations.GetReactivation(ctx, requestID)
		if err != nil {
			return err
		}
		if req.RecipientID != userID {
			return ErrNotParticipant
		}
		if req.Status != models.RequestPending {
			return ErrAlreadyResolved
		}

		if err := c.reactivations.UpdateStatus(ctx, req.ID, models.RequestRejected); err != nil {
			return err
		}
		priv, err := c.privileges.GetByID(ctx, req.PrivilegeID)
		if errors.Is(err, repositories.ErrPrivilegeNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := c.privileges.AddHidden(ctx, priv.ID, userID); err != nil {
			return err
		}
		if err := c.privileges.AddHidden(ctx, priv.ID, req.RequesterID); err != nil {
			return err
		}
		observability.IncChatTransition("reactivation_rejected")
		return c.purgeConversation(ctx, priv)
	})
}
