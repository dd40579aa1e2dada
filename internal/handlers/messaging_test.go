package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"social-service/internal/chatflow"
	"social-service/internal/mocks"
	"social-service/internal/models"
	"social-service/internal/repositories"
)

func setupMessagingRouter(handler *MessagingHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.POST("/messages", handler.SendMessage)
	r.GET("/conversations", handler.Conversations)
	r.GET("/conversations/:partner_id", handler.Conversation)
	r.POST("/conversations/:partner_id/read", handler.MarkRead)
	r.POST("/conversations/:partner_id/hide", handler.Hide)
	r.POST("/conversations/:partner_id/confirm-delete", handler.ConfirmDelete)
	r.GET("/message-requests", handler.PendingRequests)
	r.POST("/message-requests/:id/approve", handler.ApproveRequest)
	r.POST("/message-requests/:id/reject", handler.RejectRequest)
	r.POST("/reactivation-requests", handler.RequestReactivation)
	r.GET("/reactivation-requests", handler.PendingReactivations)
	r.POST("/reactivation-requests/:id/accept", handler.AcceptReactivation)
	r.POST("/reactivation-requests/:id/reject", handler.RejectReactivation)
	return r
}

func TestSendMessageDelivered(t *testing.T) {
	flow := new(mocks.ChatFlowMock)
	router := setupMessagingRouter(NewMessagingHandler(flow, nil))

	msg := models.Message{ID: 11, SenderID: 1, RecipientID: 2, Content: "hola"}
	flow.On("SendMessage", mock.Anything, 1, 2, "hola").
		Return(chatflow.SendResult{Type: chatflow.OutcomeMessage, Message: &msg}, nil).Once()

	body := bytes.NewBufferString(`{"recipient_id":2,"content":"hola"}`)
	req := httptest.NewRequest(http.MethodPost, "/messages", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "message", resp["type"])
	flow.AssertExpectations(t)
}

func TestSendMessageBecomesRequest(t *testing.T) {
	flow := new(mocks.ChatFlowMock)
	router := setupMessagingRouter(NewMessagingHandler(flow, nil))

	pending := models.MessageRequest{ID: 7, SenderID: 1, RecipientID: 2, Content: "hola", Status: models.RequestPending}
	flow.On("SendMessage", mock.Anything, 1, 2, "hola").
		Return(chatflow.SendResult{Type: chatflow.OutcomeRequest, Request: &pending}, nil).Once()

	body := bytes.NewBufferString(`{"recipient_id":2,"content":"hola"}`)
	req := httptest.NewRequest(http.MethodPost, "/messages", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "request", resp["type"])
	flow.AssertExpectations(t)
}

func TestSendMessageBlankContent(t *testing.T) {
	flow := new(mocks.ChatFlowMock)
	router := setupMessagingRouter(NewMessagingHandler(flow, nil))

	body := bytes.NewBufferString(`{"recipient_id":2,"content":"   "}`)
	req := httptest.NewRequest(http.MethodPost, "/messages", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	flow.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendMessageBlockedByRecipient(t *testing.T) {
	flow := new(mocks.ChatFlowMock)
	router := setupMessagingRouter(NewMessagingHandler(flow, nil))

	flow.On("SendMessage", mock.Anything, 1, 2, "hola").
		Return(chatflow.SendResult{}, chatflow.ErrBlockedByRecipient).Once()

	body := bytes.NewBufferString(`{"recipient_id":2,"content":"hola"}`)
	req := httptest.NewRequest(http.MethodPost, "/messages", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSendMessageUnknownRecipient(t *testing.T) {
	flow := new(mocks.ChatFlowMock)
	router := setupMessagingRouter(NewMessagingHandler(flow, nil))

	flow.On("SendMessage", mock.Anything, 1, 999, "hola").
		Return(chatflow.SendResult{}, repositories.ErrUserNotFound).Once()

	body := bytes.NewBufferString(`{"recipient_id":999,"content":"hola"}`)
	req := httptest.NewRequest(http.MethodPost, "/messages", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	flow.AssertExpectations(t)
}

func TestHideConversationUnknownPartner(t *testing.T) {
	flow := new(mocks.ChatFlowMock)
	router := setupMessagingRouter(NewMessagingHandler(flow, nil))

	flow.On("HideConversation", mock.Anything, 1, 999).
		Return(models.ChatPrivilege{}, repositories.ErrUserNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/conversations/999/hide", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	flow.AssertExpectations(t)
}

func TestSendMessagePendingRequestConflict(t *testing.T) {
	flow := new(mocks.ChatFlowMock)
	router := setupMessagingRouter(NewMessagingHandler(flow, nil))

	flow.On("SendMessage", mock.Anything, 1, 2, "hola").
		Return(chatflow.SendResult{}, chatflow.ErrRequestPending).Once()

	body := bytes.NewBufferString(`{"recipient_id":2,"content":"hola"}`)
	req := httptest.NewRequest(http.MethodPost, "/messages", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestConversationReturnsStatus(t *testing.T) {
	flow := new(mocks.ChatFlowMock)
	router := setupMessagingRouter(NewMessagingHandler(flow, nil))

	flow.On("Conversation", mock.Anything, 1, 2).
		Return([]models.Message{{ID: 4, Content: "hola"}}, models.ChatStatus{State: models.PrivilegeActive, CanSend: true}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/conversations/2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Messages []models.Message  `json:"messages"`
		Status   models.ChatStatus `json:"status"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Messages, 1)
	assert.True(t, resp.Status.CanSend)
	flow.AssertExpectations(t)
}

func TestConversationInvalidPartner(t *testing.T) {
	flow := new(mocks.ChatFlowMock)
	router := setupMessagingRouter(NewMessagingHandler(flow, nil))

	req := httptest.NewRequest(http.MethodGet, "/conversations/abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	flow.AssertNotCalled(t, "Conversation", mock.Anything, mock.Anything, mock.Anything)
}

func TestHideConversation(t *testing.T) {
	flow := new(mocks.ChatFlowMock)
	router := setupMessagingRouter(NewMessagingHandler(flow, nil))

	priv := models.ChatPrivilege{ID: 5, User1ID: 1, User2ID: 2, State: models.PrivilegeActive, HideInitiatorID: 1}
	flow.On("HideConversation", mock.Anything, 1, 2).Return(priv, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/conversations/2/hide", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	flow.AssertExpectations(t)
}

func TestConfirmDeleteWithoutPartnerHide(t *testing.T) {
	flow := new(mocks.ChatFlowMock)
	router := setupMessagingRouter(NewMessagingHandler(flow, nil))

	flow.On("ConfirmPermanentDelete", mock.Anything, 1, 2).Return(chatflow.ErrNoPendingHide).Once()

	req := httptest.NewRequest(http.MethodPost, "/conversations/2/confirm-delete", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApproveRequestNotRecipient(t *testing.T) {
	flow := new(mocks.ChatFlowMock)
	router := setupMessagingRouter(NewMessagingHandler(flow, nil))

	flow.On("ApproveRequest", mock.Anything, 9, 1).Return(models.Message{}, chatflow.ErrNotParticipant).Once()

	req := httptest.NewRequest(http.MethodPost, "/message-requests/9/approve", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestApproveRequestAlreadyHandled(t *testing.T) {
	flow := new(mocks.ChatFlowMock)
	router := setupMessagingRouter(NewMessagingHandler(flow, nil))

	flow.On("ApproveRequest", mock.Anything, 9, 1).Return(models.Message{}, chatflow.ErrAlreadyResolved).Once()

	req := httptest.NewRequest(http.MethodPost, "/message-requests/9/approve", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestRequestReactivation(t *testing.T) {
	flow := new(mocks.ChatFlowMock)
	router := setupMessagingRouter(NewMessagingHandler(flow, nil))

	out := models.ReactivationRequest{ID: 3, PrivilegeID: 5, RequesterID: 1, RecipientID: 2, Status: models.RequestPending}
	flow.On("RequestReactivation", mock.Anything, 1, 2, 5).Return(out, nil).Once()

	body := bytes.NewBufferString(`{"privilege_id":5,"hide_initiator_id":2}`)
	req := httptest.NewRequest(http.MethodPost, "/reactivation-requests", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	flow.AssertExpectations(t)
}

func TestRejectReactivation(t *testing.T) {
	flow := new(mocks.ChatFlowMock)
	router := setupMessagingRouter(NewMessagingHandler(flow, nil))

	flow.On("RejectReactivation", mock.Anything, 3, 1).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/reactivation-requests/3/reject", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	flow.AssertExpectations(t)
}

func TestPendingRequestsListed(t *testing.T) {
	flow := new(mocks.ChatFlowMock)
	router := setupMessagingRouter(NewMessagingHandler(flow, nil))

	flow.On("PendingRequests", mock.Anything, 1).
		Return([]models.MessageRequest{{ID: 7, SenderID: 2, RecipientID: 1, Status: models.RequestPending}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/message-requests", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Requests []models.MessageRequest `json:"requests"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Requests, 1)
}
