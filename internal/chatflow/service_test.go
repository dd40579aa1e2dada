package chatflow_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"social-service/internal/chatflow"
	"social-service/internal/mocks"
	"social-service/internal/models"
	"social-service/internal/repositories"
)

type coreFixture struct {
	core          *chatflow.Core
	privileges    *mocks.PrivilegeRepositoryMock
	messages      *mocks.MessageRepositoryMock
	requests      *mocks.MessageRequestRepositoryMock
	reactivations *mocks.ReactivationRepositoryMock
}

func newCoreFixture() coreFixture {
	privileges := new(mocks.PrivilegeRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	requests := new(mocks.MessageRequestRepositoryMock)
	reactivations := new(mocks.ReactivationRepositoryMock)
	core := chatflow.NewCore(mocks.RunnerPassthrough{}, privileges, messages, requests, reactivations)
	return coreFixture{
		core:          core,
		privileges:    privileges,
		messages:      messages,
		requests:      requests,
		reactivations: reactivations,
	}
}

func activePair(id, user1, user2 int) models.ChatPrivilege {
	return models.ChatPrivilege{ID: id, User1ID: user1, User2ID: user2, InitiatorID: user1, State: models.PrivilegeActive}
}

func TestSendMessageDeliversWhenActive(t *testing.T) {
	f := newCoreFixture()

	f.privileges.On("GetByPair", mock.Anything, 1, 2).Return(activePair(5, 1, 2), nil).Once()
	f.messages.On("CreateMessage", mock.Anything, 1, 2, "hola").Return(models.Message{ID: 11, SenderID: 1, RecipientID: 2, Content: "hola"}, nil).Once()

	result, err := f.core.SendMessage(context.Background(), 1, 2, "hola")
	require.NoError(t, err)
	require.Equal(t, chatflow.OutcomeMessage, result.Type)
	require.NotNil(t, result.Message)
	assert.Equal(t, 11, result.Message.ID)
	assert.Nil(t, result.Request)

	f.privileges.AssertExpectations(t)
	f.messages.AssertExpectations(t)
}

func TestSendMessageToSelf(t *testing.T) {
	f := newCoreFixture()

	_, err := f.core.SendMessage(context.Background(), 1, 1, "hi")
	require.ErrorIs(t, err, chatflow.ErrSelfConversation)
	f.privileges.AssertNotCalled(t, "GetByPair", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendMessageClearsOwnHide(t *testing.T) {
	f := newCoreFixture()

	priv := activePair(5, 1, 2)
	priv.HideInitiatorID = 1
	f.privileges.On("GetByPair", mock.Anything, 1, 2).Return(priv, nil).Once()
	f.privileges.On("ClearHide", mock.Anything, 5).Return(nil).Once()
	f.messages.On("CreateMessage", mock.Anything, 1, 2, "back again").Return(models.Message{ID: 12}, nil).Once()

	result, err := f.core.SendMessage(context.Background(), 1, 2, "back again")
	require.NoError(t, err)
	require.Equal(t, chatflow.OutcomeMessage, result.Type)

	f.privileges.AssertExpectations(t)
	f.messages.AssertExpectations(t)
}

func TestSendMessageBlockedByRecipientHide(t *testing.T) {
	f := newCoreFixture()

	priv := activePair(5, 1, 2)
	priv.HideInitiatorID = 2
	f.privileges.On("GetByPair", mock.Anything, 1, 2).Return(priv, nil).Once()

	_, err := f.core.SendMessage(context.Background(), 1, 2, "let me in")
	require.ErrorIs(t, err, chatflow.ErrBlockedByRecipient)

	f.privileges.AssertNotCalled(t, "ClearHide", mock.Anything, mock.Anything)
	f.messages.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendMessageOpensRequestWhenNoPrivilege(t *testing.T) {
	f := newCoreFixture()

	f.privileges.On("GetByPair", mock.Anything, 1, 2).Return(models.ChatPrivilege{}, repositories.ErrPrivilegeNotFound).Once()
	f.requests.On("HasPending", mock.Anything, 1, 2).Return(false, nil).Once()
	f.requests.On("CreateRequest", mock.Anything, 1, 2, "hey").Return(models.MessageRequest{ID: 7, SenderID: 1, RecipientID: 2, Content: "hey", Status: models.RequestPending}, nil).Once()
	f.privileges.On("Create", mock.Anything, 1, 2, models.PrivilegePending).Return(models.ChatPrivilege{ID: 5, User1ID: 1, User2ID: 2, State: models.PrivilegePending}, nil).Once()

	result, err := f.core.SendMessage(context.Background(), 1, 2, "hey")
	require.NoError(t, err)
	require.Equal(t, chatflow.OutcomeRequest, result.Type)
	require.NotNil(t, result.Request)
	assert.Equal(t, 7, result.Request.ID)
	assert.Nil(t, result.Message)

	f.messages.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.privileges.AssertExpectations(t)
	f.requests.AssertExpectations(t)
}

func TestSendMessageSecondRequestConflicts(t *testing.T) {
	f := newCoreFixture()

	f.privileges.On("GetByPair", mock.Anything, 1, 2).Return(models.ChatPrivilege{}, repositories.ErrPrivilegeNotFound).Once()
	f.requests.On("HasPending", mock.Anything, 1, 2).Return(true, nil).Once()

	_, err := f.core.SendMessage(context.Background(), 1, 2, "hey again")
	require.ErrorIs(t, err, chatflow.ErrRequestPending)
	f.requests.AssertNotCalled(t, "CreateRequest", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendMessageSurvivesDuplicatePairRace(t *testing.T) {
	f := newCoreFixture()

	f.privileges.On("GetByPair", mock.Anything, 1, 2).Return(models.ChatPrivilege{}, repositories.ErrPrivilegeNotFound).Once()
	f.requests.On("HasPending", mock.Anything, 1, 2).Return(false, nil).Once()
	f.requests.On("CreateRequest", mock.Anything, 1, 2, "hey").Return(models.MessageRequest{ID: 7, Status: models.RequestPending}, nil).Once()
	f.privileges.On("Create", mock.Anything, 1, 2, models.PrivilegePending).Return(models.ChatPrivilege{}, repositories.ErrDuplicatePair).Once()
	f.privileges.On("GetByPair", mock.Anything, 1, 2).Return(models.ChatPrivilege{ID: 5, User1ID: 1, User2ID: 2, State: models.PrivilegePending}, nil).Once()

	result, err := f.core.SendMessage(context.Background(), 1, 2, "hey")
	require.NoError(t, err)
	require.Equal(t, chatflow.OutcomeRequest, result.Type)
	f.privileges.AssertExpectations(t)
}

func TestSendMessageUnknownRecipient(t *testing.T) {
	f := newCoreFixture()

	f.privileges.On("GetByPair", mock.Anything, 1, 999).Return(models.ChatPrivilege{}, repositories.ErrPrivilegeNotFound).Once()
	f.requests.On("HasPending", mock.Anything, 1, 999).Return(false, nil).Once()
	f.requests.On("CreateRequest", mock.Anything, 1, 999, "hello?").Return(models.MessageRequest{}, repositories.ErrUserNotFound).Once()

	_, err := f.core.SendMessage(context.Background(), 1, 999, "hello?")
	require.ErrorIs(t, err, repositories.ErrUserNotFound)
	f.privileges.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHideConversationUnknownPartner(t *testing.T) {
	f := newCoreFixture()

	f.privileges.On("GetByPair", mock.Anything, 1, 999).Return(models.ChatPrivilege{}, repositories.ErrPrivilegeNotFound).Once()
	f.privileges.On("Create", mock.Anything, 1, 999, models.PrivilegeActive).Return(models.ChatPrivilege{}, repositories.ErrUserNotFound).Once()

	_, err := f.core.HideConversation(context.Background(), 1, 999)
	require.ErrorIs(t, err, repositories.ErrUserNotFound)
	f.privileges.AssertNotCalled(t, "AddHidden", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendMessagePendingPrivilegeTakesRequestPath(t *testing.T) {
	f := newCoreFixture()

	priv := models.ChatPrivilege{ID: 5, User1ID: 1, User2ID: 2, State: models.PrivilegePending}
	f.privileges.On("GetByPair", mock.Anything, 1, 2).Return(priv, nil).Once()
	f.requests.On("HasPending", mock.Anything, 1, 2).Return(false, nil).Once()
	f.requests.On("CreateRequest", mock.Anything, 1, 2, "hey").Return(models.MessageRequest{ID: 8, Status: models.RequestPending}, nil).Once()

	result, err := f.core.SendMessage(context.Background(), 1, 2, "hey")
	require.NoError(t, err)
	require.Equal(t, chatflow.OutcomeRequest, result.Type)

	f.privileges.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.privileges.AssertNotCalled(t, "SetState", mock.Anything, mock.Anything, mock.Anything)
}

func TestApproveRequestDeliversAndActivates(t *testing.T) {
	f := newCoreFixture()

	req := models.MessageRequest{ID: 9, SenderID: 1, RecipientID: 2, Content: "hey", Status: models.RequestPending}
	f.requests.On("GetRequest", mock.Anything, 9).Return(req, nil).Once()
	f.messages.On("CreateMessage", mock.Anything, 1, 2, "hey").Return(models.Message{ID: 20, SenderID: 1, RecipientID: 2, Content: "hey"}, nil).Once()
	f.requests.On("UpdateStatus", mock.Anything, 9, models.RequestApproved).Return(nil).Once()
	f.privileges.On("GetByPair", mock.Anything, 1, 2).Return(models.ChatPrivilege{ID: 5, User1ID: 1, User2ID: 2, State: models.PrivilegePending}, nil).Once()
	f.privileges.On("SetState", mock.Anything, 5, models.PrivilegeActive).Return(nil).Once()
	f.privileges.On("ClearHide", mock.Anything, 5).Return(nil).Once()

	msg, err := f.core.ApproveRequest(context.Background(), 9, 2)
	require.NoError(t, err)
	assert.Equal(t, 20, msg.ID)

	f.privileges.AssertExpectations(t)
	f.requests.AssertExpectations(t)
	f.messages.AssertExpectations(t)
}

func TestApproveRequestOnlyRecipient(t *testing.T) {
	f := newCoreFixture()

	req := models.MessageRequest{ID: 9, SenderID: 1, RecipientID: 2, Status: models.RequestPending}
	f.requests.On("GetRequest", mock.Anything, 9).Return(req, nil).Once()

	_, err := f.core.ApproveRequest(context.Background(), 9, 3)
	require.ErrorIs(t, err, chatflow.ErrNotParticipant)
	f.messages.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestApproveRequestAlreadyResolved(t *testing.T) {
	f := newCoreFixture()

	req := models.MessageRequest{ID: 9, SenderID: 1, RecipientID: 2, Status: models.RequestApproved}
	f.requests.On("GetRequest", mock.Anything, 9).Return(req, nil).Once()

	_, err := f.core.ApproveRequest(context.Background(), 9, 2)
	require.ErrorIs(t, err, chatflow.ErrAlreadyResolved)
	f.messages.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRejectRequestDeletesPrivilege(t *testing.T) {
	f := newCoreFixture()

	req := models.MessageRequest{ID: 9, SenderID: 1, RecipientID: 2, Status: models.RequestPending}
	f.requests.On("GetRequest", mock.Anything, 9).Return(req, nil).Once()
	f.requests.On("UpdateStatus", mock.Anything, 9, models.RequestRejected).Return(nil).Once()
	f.privileges.On("GetByPair", mock.Anything, 1, 2).Return(models.ChatPrivilege{ID: 5, User1ID: 1, User2ID: 2, State: models.PrivilegePending}, nil).Once()
	f.privileges.On("Delete", mock.Anything, 5).Return(nil).Once()

	require.NoError(t, f.core.RejectRequest(context.Background(), 9, 2))

	f.privileges.AssertExpectations(t)
	f.requests.AssertExpectations(t)
	f.messages.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHideConversationRecordsInitiator(t *testing.T) {
	f := newCoreFixture()

	priv := activePair(5, 1, 2)
	f.privileges.On("GetByPair", mock.Anything, 1, 2).Return(priv, nil).Once()
	f.privileges.On("AddHidden", mock.Anything, 5, 1).Return(nil).Once()
	f.privileges.On("SetHideInitiator", mock.Anything, 5, 1).Return(nil).Once()

	hidden := priv
	hidden.HideInitiatorID = 1
	hidden.HiddenFor = []int{1}
	f.privileges.On("GetByPair", mock.Anything, 1, 2).Return(hidden, nil).Once()

	out, err := f.core.HideConversation(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, out.HideInitiatorID)
	assert.True(t, out.HiddenForUser(1))

	f.privileges.AssertExpectations(t)
}

func TestHideConversationKeepsExistingInitiator(t *testing.T) {
	f := newCoreFixture()

	priv := activePair(5, 1, 2)
	priv.HideInitiatorID = 2
	priv.HiddenFor = []int{2}
	f.privileges.On("GetByPair", mock.Anything, 1, 2).Return(priv, nil).Once()
	f.privileges.On("AddHidden", mock.Anything, 5, 1).Return(nil).Once()
	f.privileges.On("GetByPair", mock.Anything, 1, 2).Return(priv, nil).Once()

	_, err := f.core.HideConversation(context.Background(), 1, 2)
	require.NoError(t, err)
	f.privileges.AssertNotCalled(t, "SetHideInitiator", mock.Anything, mock.Anything, mock.Anything)
}

func TestHideConversationRequiresActive(t *testing.T) {
	f := newCoreFixture()

	priv := models.ChatPrivilege{ID: 5, User1ID: 1, User2ID: 2, State: models.PrivilegePending}
	f.privileges.On("GetByPair", mock.Anything, 1, 2).Return(priv, nil).Once()

	_, err := f.core.HideConversation(context.Background(), 1, 2)
	require.ErrorIs(t, err, chatflow.ErrNotActive)
	f.privileges.AssertNotCalled(t, "AddHidden", mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmPermanentDeleteNeedsPartnerHide(t *testing.T) {
	f := newCoreFixture()

	priv := activePair(5, 1, 2)
	priv.HideInitiatorID = 1
	f.privileges.On("GetByPair", mock.Anything, 1, 2).Return(priv, nil).Once()

	err := f.core.ConfirmPermanentDelete(context.Background(), 1, 2)
	require.ErrorIs(t, err, chatflow.ErrNoPendingHide)
	f.messages.AssertNotCalled(t, "DeleteBetween", mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmPermanentDeletePurges(t *testing.T) {
	f := newCoreFixture()

	priv := activePair(5, 1, 2)
	priv.HideInitiatorID = 2
	priv.HiddenFor = []int{2}
	f.privileges.On("GetByPair", mock.Anything, 1, 2).Return(priv, nil).Once()
	f.privileges.On("AddHidden", mock.Anything, 5, 1).Return(nil).Once()
	f.messages.On("DeleteBetween", mock.Anything, 1, 2).Return(nil).Once()
	f.privileges.On("Delete", mock.Anything, 5).Return(nil).Once()

	require.NoError(t, f.core.ConfirmPermanentDelete(context.Background(), 1, 2))

	f.privileges.AssertExpectations(t)
	f.messages.AssertExpectations(t)
}

func TestRequestReactivationRequiresInitiator(t *testing.T) {
	f := newCoreFixture()

	priv := activePair(5, 1, 2)
	priv.HideInitiatorID = 1
	f.privileges.On("GetByID", mock.Anything, 5).Return(priv, nil).Once()

	_, err := f.core.RequestReactivation(context.Background(), 1, 2, 5)
	require.ErrorIs(t, err, chatflow.ErrNotHideInitiator)
	f.reactivations.AssertNotCalled(t, "CreateReactivation", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRequestReactivationCreatesPending(t *testing.T) {
	f := newCoreFixture()

	priv := activePair(5, 1, 2)
	priv.HideInitiatorID = 2
	f.privileges.On("GetByID", mock.Anything, 5).Return(priv, nil).Once()
	f.reactivations.On("HasPendingForPrivilege", mock.Anything, 5, 1).Return(false, nil).Once()
	f.reactivations.On("CreateReactivation", mock.Anything, 5, 1, 2).Return(models.ReactivationRequest{ID: 3, PrivilegeID: 5, RequesterID: 1, RecipientID: 2, Status: models.RequestPending}, nil).Once()

	out, err := f.core.RequestReactivation(context.Background(), 1, 2, 5)
	require.NoError(t, err)
	assert.Equal(t, 3, out.ID)
	f.reactivations.AssertExpectations(t)
}

func TestRequestReactivationDuplicateConflicts(t *testing.T) {
	f := newCoreFixture()

	priv := activePair(5, 1, 2)
	priv.HideInitiatorID = 2
	f.privileges.On("GetByID", mock.Anything, 5).Return(priv, nil).Once()
	f.reactivations.On("HasPendingForPrivilege", mock.Anything, 5, 1).Return(true, nil).Once()

	_, err := f.core.RequestReactivation(context.Background(), 1, 2, 5)
	require.ErrorIs(t, err, chatflow.ErrReactivationPending)
}

func TestAcceptReactivationClearsHide(t *testing.T) {
	f := newCoreFixture()

	req := models.ReactivationRequest{ID: 3, PrivilegeID: 5, RequesterID: 1, RecipientID: 2, Status: models.RequestPending}
	f.reactivations.On("GetReactivation", mock.Anything, 3).Return(req, nil).Once()
	f.reactivations.On("UpdateStatus", mock.Anything, 3, models.RequestAccepted).Return(nil).Once()

	priv := activePair(5, 1, 2)
	priv.HideInitiatorID = 2
	f.privileges.On("GetByID", mock.Anything, 5).Return(priv, nil).Once()
	f.privileges.On("SetState", mock.Anything, 5, models.PrivilegeActive).Return(nil).Once()
	f.privileges.On("ClearHide", mock.Anything, 5).Return(nil).Once()

	require.NoError(t, f.core.AcceptReactivation(context.Background(), 3, 2))

	f.privileges.AssertExpectations(t)
	f.reactivations.AssertExpectations(t)
}

func TestAcceptReactivationOnlyInitiator(t *testing.T) {
	f := newCoreFixture()

	req := models.ReactivationRequest{ID: 3, PrivilegeID: 5, RequesterID: 1, RecipientID: 2, Status: models.RequestPending}
	f.reactivations.On("GetReactivation", mock.Anything, 3).Return(req, nil).Once()

	err := f.core.AcceptReactivation(context.Background(), 3, 1)
	require.ErrorIs(t, err, chatflow.ErrNotParticipant)
	f.privileges.AssertNotCalled(t, "ClearHide", mock.Anything, mock.Anything)
}

func TestRejectReactivationPurgesConversation(t *testing.T) {
	f := newCoreFixture()

	req := models.ReactivationRequest{ID: 3, PrivilegeID: 5, RequesterID: 1, RecipientID: 2, Status: models.RequestPending}
	f.reactivations.On("GetReactivation", mock.Anything, 3).Return(req, nil).Once()
	f.reactivations.On("UpdateStatus", mock.Anything, 3, models.RequestRejected).Return(nil).Once()

	priv := activePair(5, 1, 2)
	priv.HideInitiatorID = 2
	priv.HiddenFor = []int{2}
	f.privileges.On("GetByID", mock.Anything, 5).Return(priv, nil).Once()
	f.privileges.On("AddHidden", mock.Anything, 5, 2).Return(nil).Once()
	f.privileges.On("AddHidden", mock.Anything, 5, 1).Return(nil).Once()
	f.messages.On("DeleteBetween", mock.Anything, 1, 2).Return(nil).Once()
	f.privileges.On("Delete", mock.Anything, 5).Return(nil).Once()

	require.NoError(t, f.core.RejectReactivation(context.Background(), 3, 2))

	f.privileges.AssertExpectations(t)
	f.messages.AssertExpectations(t)
}

func TestConversationStatusForMissingPrivilege(t *testing.T) {
	f := newCoreFixture()

	f.messages.On("ListBetween", mock.Anything, 1, 2).Return([]models.Message{}, nil).Once()
	f.privileges.On("GetByPair", mock.Anything, 1, 2).Return(models.ChatPrivilege{}, repositories.ErrPrivilegeNotFound).Once()

	msgs, status, err := f.core.Conversation(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Empty(t, msgs)
	assert.Equal(t, "none", status.State)
	assert.False(t, status.CanSend)
}

func TestConversationStatusReflectsPartnerHide(t *testing.T) {
	f := newCoreFixture()

	priv := activePair(5, 1, 2)
	priv.HideInitiatorID = 2
	priv.HiddenFor = []int{2}
	f.messages.On("ListBetween", mock.Anything, 1, 2).Return([]models.Message{{ID: 1}}, nil).Once()
	f.privileges.On("GetByPair", mock.Anything, 1, 2).Return(priv, nil).Once()

	_, status, err := f.core.Conversation(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, models.PrivilegeActive, status.State)
	assert.False(t, status.CanSend)
	assert.True(t, status.PendingAction)
	assert.False(t, status.HiddenForMe)
}
