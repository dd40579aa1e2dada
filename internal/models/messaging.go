package models

import "time"

// Privilege states. A pair with no row is in the implicit "none" state.
// No transition here assigns Blocked; the send path only distinguishes
// active from everything else, so a blocked pair behaves like a pending one.
const (
	PrivilegePending = "pending"
	PrivilegeActive  = "active"
	PrivilegeBlocked = "blocked"
)

// Request statuses shared by message and reactivation requests.
const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"
	RequestAccepted = "accepted"
)

// ChatPrivilege gates direct messaging between a pair of users. The pair is
// stored in canonical order (User1ID < User2ID) so lookups are
// direction-independent; InitiatorID records who opened the channel.
// HideInitiatorID is zero while nobody holds a hide.
type ChatPrivilege struct {
	ID              int       `db:"id" json:"id"`
	User1ID         int       `db:"user1_id" json:"user1_id"`
	User2ID         int       `db:"user2_id" json:"user2_id"`
	InitiatorID     int       `db:"initiator_id" json:"initiator_id"`
	State           string    `db:"state" json:"state"`
	HideInitiatorID int       `db:"hide_initiator_id" json:"hide_initiator_id,omitempty"`
	HiddenFor       []int     `db:"-" json:"hidden_for,omitempty"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Participant reports whether userID is one of the pair.
func (p ChatPrivilege) Participant(userID int) bool {
	return p.User1ID == userID || p.User2ID == userID
}

// Partner returns the other participant.
func (p ChatPrivilege) Partner(userID int) int {
	if p.User1ID == userID {
		return p.User2ID
	}
	return p.User1ID
}

// HiddenForUser reports whether userID has hidden the conversation.
func (p ChatPrivilege) HiddenForUser(userID int) bool {
	for _, id := range p.HiddenFor {
		if id == userID {
			return true
		}
	}
	return false
}

// MessageRequest is one outstanding attempt to open a channel.
type MessageRequest struct {
	ID          int       `db:"id" json:"id"`
	SenderID    int       `db:"sender_id" json:"sender_id"`
	RecipientID int       `db:"recipient_id" json:"recipient_id"`
	Content     string    `db:"content" json:"content"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Message is immutable once created except for the read flag.
type Message struct {
	ID          int       `db:"id" json:"id"`
	SenderID    int       `db:"sender_id" json:"sender_id"`
	RecipientID int       `db:"recipient_id" json:"recipient_id"`
	Content     string    `db:"content" json:"content"`
	Read        bool      `db:"read" json:"read"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ReactivationRequest asks the hide initiator to restore visibility.
type ReactivationRequest struct {
	ID          int       `db:"id" json:"id"`
	PrivilegeID int       `db:"privilege_id" json:"privilege_id"`
	RequesterID int       `db:"requester_id" json:"requester_id"`
	RecipientID int       `db:"recipient_id" json:"recipient_id"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ChatStatus is the per-caller view of a privilege record returned alongside
// a conversation.
type ChatStatus struct {
	State           string `json:"state"`
	PrivilegeID     int    `json:"privilege_id,omitempty"`
	HiddenForMe     bool   `json:"hidden_for_me"`
	HideInitiatorID int    `json:"hide_initiator_id,omitempty"`
	CanSend         bool   `json:"can_send"`
	PendingAction   bool   `json:"pending_action"`
}

// ConversationSummary is one row of the caller's conversation list.
type ConversationSummary struct {
	PartnerID     int       `db:"partner_id" json:"partner_id"`
	PartnerName   string    `db:"partner_name" json:"partner_name"`
	LastMessage   string    `db:"last_message" json:"last_message"`
	LastSenderID  int       `db:"last_sender_id" json:"last_sender_id"`
	LastMessageAt time.Time `db:"last_message_at" json:"last_message_at"`
	Unread        int       `db:"unread" json:"unread"`
	Hidden        bool      `db:"hidden" json:"hidden"`
}
