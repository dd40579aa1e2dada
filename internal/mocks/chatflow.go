package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"social-service/internal/chatflow"
	"social-service/internal/models"
)

type ChatFlowMock struct {
	mock.Mock
}

var _ chatflow.Service = (*ChatFlowMock)(nil)

func (m *ChatFlowMock) SendMessage(ctx context.Context, senderID, recipientID int, content string) (chatflow.SendResult, error) {
	args := m.Called(ctx, senderID, recipientID, content)
	var result chatflow.SendResult
	if val := args.Get(0); val != nil {
		result = val.(chatflow.SendResult)
	}
	return result, args.Error(1)
}

func (m *ChatFlowMock) Conversation(ctx context.Context, userID, partnerID int) ([]models.Message, models.ChatStatus, error) {
	args := m.Called(ctx, userID, partnerID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	var status models.ChatStatus
	if val := args.Get(1); val != nil {
		status = val.(models.ChatStatus)
	}
	return msgs, status, args.Error(2)
}

func (m *ChatFlowMock) Conversations(ctx context.Context, userID int) ([]models.ConversationSummary, error) {
	args := m.Called(ctx, userID)
	var summaries []models.ConversationSummary
	if val := args.Get(0); val != nil {
		summaries = val.([]models.ConversationSummary)
	}
	return summaries, args.Error(1)
}

func (m *ChatFlowMock) MarkConversationRead(ctx context.Context, userID, partnerID int) error {
	args := m.Called(ctx, userID, partnerID)
	return args.Error(0)
}

func (m *ChatFlowMock) HideConversation(ctx context.Context, userID, partnerID int) (models.ChatPrivilege, error) {
	args := m.Called(ctx, userID, partnerID)
	var priv models.ChatPrivilege
	if val := args.Get(0); val != nil {
		priv = val.(models.ChatPrivilege)
	}
	return priv, args.Error(1)
}

func (m *ChatFlowMock) ConfirmPermanentDelete(ctx context.Context, userID, partnerID int) error {
	args := m.Called(ctx, userID, partnerID)
	return args.Error(0)
}

func (m *ChatFlowMock) PendingRequests(ctx context.Context, userID int) ([]models.MessageRequest, error) {
	args := m.Called(ctx, userID)
	var reqs []models.MessageRequest
	if val := args.Get(0); val != nil {
		reqs = val.([]models.MessageRequest)
	}
	return reqs, args.Error(1)
}

func (m *ChatFlowMock) ApproveRequest(ctx context.Context, requestID, approverID int) (models.Message, error) {
	args := m.Called(ctx, requestID, approverID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *ChatFlowMock) RejectRequest(ctx context.Context, requestID, approverID int) error {
	args := m.Called(ctx, requestID, approverID)
	return args.Error(0)
}

func (m *ChatFlowMock) RequestReactivation(ctx context.Context, requesterID, hideInitiatorID, privilegeID int) (models.ReactivationRequest, error) {
	args := m.Called(ctx, requesterID, hideInitiatorID, privilegeID)
	var req models.ReactivationRequest
	if val := args.Get(0); val != nil {
		req = val.(models.ReactivationRequest)
	}
	return req, args.Error(1)
}

func (m *ChatFlowMock) PendingReactivations(ctx context.Context, userID int) ([]models.ReactivationRequest, error) {
	args := m.Called(ctx, userID)
	var reqs []models.ReactivationRequest
	if val := args.Get(0); val != nil {
		reqs = val.([]models.ReactivationRequest)
	}
	return reqs, args.Error(1)
}

func (m *ChatFlowMock) AcceptReactivation(ctx context.Context, requestID, userID int) error {
	args := m.Called(ctx, requestID, userID)
	return args.Error(0)
}

func (m *ChatFlowMock) RejectReactivation(ctx context.Context, requestID, userID int) error {
	args := m.Called(ctx, requestID, userID)
	return args.Error(0)
}
