package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"social-service/internal/models"
	"social-service/internal/repositories"
	"social-service/internal/session"
)

type UserRepositoryMock struct {
	mock.Mock
}

var _ repositories.UserRepository = (*UserRepositoryMock)(nil)

func (m *UserRepositoryMock) CreateUser(ctx context.Context, username, passwordHash string) (models.User, error) {
	args := m.Called(ctx, username, passwordHash)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetUser(ctx context.Context, userID int) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetUserByName(ctx context.Context, username string) (models.User, error) {
	args := m.Called(ctx, username)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) ListUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) SearchUsers(ctx context.Context, namePrefix string) ([]models.User, error) {
	args := m.Called(ctx, namePrefix)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) UpdateBio(ctx context.Context, userID int, bio string) error {
	args := m.Called(ctx, userID, bio)
	return args.Error(0)
}

func (m *UserRepositoryMock) UpdateName(ctx context.Context, userID int, username string) error {
	args := m.Called(ctx, userID, username)
	return args.Error(0)
}

func (m *UserRepositoryMock) UpdatePassword(ctx context.Context, userID int, passwordHash string) error {
	args := m.Called(ctx, userID, passwordHash)
	return args.Error(0)
}

func (m *UserRepositoryMock) SetPrivacy(ctx context.Context, userID int, private bool) error {
	args := m.Called(ctx, userID, private)
	return args.Error(0)
}

func (m *UserRepositoryMock) Follow(ctx context.Context, followerID, followeeID int) error {
	args := m.Called(ctx, followerID, followeeID)
	return args.Error(0)
}

func (m *UserRepositoryMock) Unfollow(ctx context.Context, followerID, followeeID int) error {
	args := m.Called(ctx, followerID, followeeID)
	return args.Error(0)
}

func (m *UserRepositoryMock) IsFollowing(ctx context.Context, followerID, followeeID int) (bool, error) {
	args := m.Called(ctx, followerID, followeeID)
	return args.Bool(0), args.Error(1)
}

func (m *UserRepositoryMock) FollowCounts(ctx context.Context, userID int) (int, int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Int(1), args.Error(2)
}

type FollowRequestRepositoryMock struct {
	mock.Mock
}

var _ repositories.FollowRequestRepository = (*FollowRequestRepositoryMock)(nil)

func (m *FollowRequestRepositoryMock) CreateFollowRequest(ctx context.Context, requesterID, targetID int) (models.FollowRequest, error) {
	args := m.Called(ctx, requesterID, targetID)
	var req models.FollowRequest
	if val := args.Get(0); val != nil {
		req = val.(models.FollowRequest)
	}
	return req, args.Error(1)
}

func (m *FollowRequestRepositoryMock) GetFollowRequest(ctx context.Context, requestID int) (models.FollowRequest, error) {
	args := m.Called(ctx, requestID)
	var req models.FollowRequest
	if val := args.Get(0); val != nil {
		req = val.(models.FollowRequest)
	}
	return req, args.Error(1)
}

func (m *FollowRequestRepositoryMock) FindFollowRequest(ctx context.Context, requesterID, targetID int) (models.FollowRequest, error) {
	args := m.Called(ctx, requesterID, targetID)
	var req models.FollowRequest
	if val := args.Get(0); val != nil {
		req = val.(models.FollowRequest)
	}
	return req, args.Error(1)
}

func (m *FollowRequestRepositoryMock) ListPendingForTarget(ctx context.Context, targetID int) ([]models.FollowRequest, error) {
	args := m.Called(ctx, targetID)
	var reqs []models.FollowRequest
	if val := args.Get(0); val != nil {
		reqs = val.([]models.FollowRequest)
	}
	return reqs, args.Error(1)
}

func (m *FollowRequestRepositoryMock) UpdateStatus(ctx context.Context, requestID int, status string) error {
	args := m.Called(ctx, requestID, status)
	return args.Error(0)
}

type PostRepositoryMock struct {
	mock.Mock
}

var _ repositories.PostRepository = (*PostRepositoryMock)(nil)

func (m *PostRepositoryMock) CreatePost(ctx context.Context, userID int, content string) (models.Post, error) {
	args := m.Called(ctx, userID, content)
	var post models.Post
	if val := args.Get(0); val != nil {
		post = val.(models.Post)
	}
	return post, args.Error(1)
}

func (m *PostRepositoryMock) GetPost(ctx context.Context, postID int) (models.Post, error) {
	args := m.Called(ctx, postID)
	var post models.Post
	if val := args.Get(0); val != nil {
		post = val.(models.Post)
	}
	return post, args.Error(1)
}

func (m *PostRepositoryMock) ListPosts(ctx context.Context) ([]models.Post, error) {
	args := m.Called(ctx)
	var posts []models.Post
	if val := args.Get(0); val != nil {
		posts = val.([]models.Post)
	}
	return posts, args.Error(1)
}

func (m *PostRepositoryMock) UpdatePost(ctx context.Context, postID int, content string) (models.Post, error) {
	args := m.Called(ctx, postID, content)
	var post models.Post
	if val := args.Get(0); val != nil {
		post = val.(models.Post)
	}
	return post, args.Error(1)
}

func (m *PostRepositoryMock) DeletePost(ctx context.Context, postID int) error {
	args := m.Called(ctx, postID)
	return args.Error(0)
}

func (m *PostRepositoryMock) ToggleLike(ctx context.Context, postID, userID int) (models.Post, error) {
	args := m.Called(ctx, postID, userID)
	var post models.Post
	if val := args.Get(0); val != nil {
		post = val.(models.Post)
	}
	return post, args.Error(1)
}

func (m *PostRepositoryMock) CreateComment(ctx context.Context, postID, userID int, content string) (models.Comment, error) {
	args := m.Called(ctx, postID, userID, content)
	var comment models.Comment
	if val := args.Get(0); val != nil {
		comment = val.(models.Comment)
	}
	return comment, args.Error(1)
}

func (m *PostRepositoryMock) GetComment(ctx context.Context, commentID int) (models.Comment, error) {
	args := m.Called(ctx, commentID)
	var comment models.Comment
	if val := args.Get(0); val != nil {
		comment = val.(models.Comment)
	}
	return comment, args.Error(1)
}

func (m *PostRepositoryMock) ListComments(ctx context.Context, postID int) ([]models.Comment, error) {
	args := m.Called(ctx, postID)
	var comments []models.Comment
	if val := args.Get(0); val != nil {
		comments = val.([]models.Comment)
	}
	return comments, args.Error(1)
}

func (m *PostRepositoryMock) DeleteComment(ctx context.Context, commentID int) error {
	args := m.Called(ctx, commentID)
	return args.Error(0)
}

func (m *PostRepositoryMock) UpsertReaction(ctx context.Context, postID, userID int, kind string) (models.Reaction, error) {
	args := m.Called(ctx, postID, userID, kind)
	var reaction models.Reaction
	if val := args.Get(0); val != nil {
		reaction = val.(models.Reaction)
	}
	return reaction, args.Error(1)
}

func (m *PostRepositoryMock) ListReactions(ctx context.Context) ([]models.Reaction, error) {
	args := m.Called(ctx)
	var reactions []models.Reaction
	if val := args.Get(0); val != nil {
		reactions = val.([]models.Reaction)
	}
	return reactions, args.Error(1)
}

type PrivilegeRepositoryMock struct {
	mock.Mock
}

var _ repositories.PrivilegeRepository = (*PrivilegeRepositoryMock)(nil)

func (m *PrivilegeRepositoryMock) GetByPair(ctx context.Context, userA, userB int) (models.ChatPrivilege, error) {
	args := m.Called(ctx, userA, userB)
	var priv models.ChatPrivilege
	if val := args.Get(0); val != nil {
		priv = val.(models.ChatPrivilege)
	}
	return priv, args.Error(1)
}

func (m *PrivilegeRepositoryMock) GetByID(ctx context.Context, privilegeID int) (models.ChatPrivilege, error) {
	args := m.Called(ctx, privilegeID)
	var priv models.ChatPrivilege
	if val := args.Get(0); val != nil {
		priv = val.(models.ChatPrivilege)
	}
	return priv, args.Error(1)
}

func (m *PrivilegeRepositoryMock) Create(ctx context.Context, initiatorID, partnerID int, state string) (models.ChatPrivilege, error) {
	args := m.Called(ctx, initiatorID, partnerID, state)
	var priv models.ChatPrivilege
	if val := args.Get(0); val != nil {
		priv = val.(models.ChatPrivilege)
	}
	return priv, args.Error(1)
}

func (m *PrivilegeRepositoryMock) SetState(ctx context.Context, privilegeID int, state string) error {
	args := m.Called(ctx, privilegeID, state)
	return args.Error(0)
}

func (m *PrivilegeRepositoryMock) AddHidden(ctx context.Context, privilegeID, userID int) error {
	args := m.Called(ctx, privilegeID, userID)
	return args.Error(0)
}

func (m *PrivilegeRepositoryMock) SetHideInitiator(ctx context.Context, privilegeID, userID int) error {
	args := m.Called(ctx, privilegeID, userID)
	return args.Error(0)
}

func (m *PrivilegeRepositoryMock) ClearHide(ctx context.Context, privilegeID int) error {
	args := m.Called(ctx, privilegeID)
	return args.Error(0)
}

func (m *PrivilegeRepositoryMock) Delete(ctx context.Context, privilegeID int) error {
	args := m.Called(ctx, privilegeID)
	return args.Error(0)
}

func (m *PrivilegeRepositoryMock) ListSummariesForUser(ctx context.Context, userID int) ([]models.ConversationSummary, error) {
	args := m.Called(ctx, userID)
	var summaries []models.ConversationSummary
	if val := args.Get(0); val != nil {
		summaries = val.([]models.ConversationSummary)
	}
	return summaries, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, senderID, recipientID int, content string) (models.Message, error) {
	args := m.Called(ctx, senderID, recipientID, content)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListBetween(ctx context.Context, userA, userB int) ([]models.Message, error) {
	args := m.Called(ctx, userA, userB)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) DeleteBetween(ctx context.Context, userA, userB int) error {
	args := m.Called(ctx, userA, userB)
	return args.Error(0)
}

func (m *MessageRepositoryMock) MarkRead(ctx context.Context, recipientID, senderID int) error {
	args := m.Called(ctx, recipientID, senderID)
	return args.Error(0)
}

type MessageRequestRepositoryMock struct {
	mock.Mock
}

var _ repositories.MessageRequestRepository = (*MessageRequestRepositoryMock)(nil)

func (m *MessageRequestRepositoryMock) CreateRequest(ctx context.Context, senderID, recipientID int, content string) (models.MessageRequest, error) {
	args := m.Called(ctx, senderID, recipientID, content)
	var req models.MessageRequest
	if val := args.Get(0); val != nil {
		req = val.(models.MessageRequest)
	}
	return req, args.Error(1)
}

func (m *MessageRequestRepositoryMock) GetRequest(ctx context.Context, requestID int) (models.MessageRequest, error) {
	args := m.Called(ctx, requestID)
	var req models.MessageRequest
	if val := args.Get(0); val != nil {
		req = val.(models.MessageRequest)
	}
	return req, args.Error(1)
}

func (m *MessageRequestRepositoryMock) HasPending(ctx context.Context, senderID, recipientID int) (bool, error) {
	args := m.Called(ctx, senderID, recipientID)
	return args.Bool(0), args.Error(1)
}

func (m *MessageRequestRepositoryMock) ListPendingForRecipient(ctx context.Context, recipientID int) ([]models.MessageRequest, error) {
	args := m.Called(ctx, recipientID)
	var reqs []models.MessageRequest
	if val := args.Get(0); val != nil {
		reqs = val.([]models.MessageRequest)
	}
	return reqs, args.Error(1)
}

func (m *MessageRequestRepositoryMock) UpdateStatus(ctx context.Context, requestID int, status string) error {
	args := m.Called(ctx, requestID, status)
	return args.Error(0)
}

type ReactivationRepositoryMock struct {
	mock.Mock
}

var _ repositories.ReactivationRepository = (*ReactivationRepositoryMock)(nil)

func (m *ReactivationRepositoryMock) CreateReactivation(ctx context.Context, privilegeID, requesterID, recipientID int) (models.ReactivationRequest, error) {
	args := m.Called(ctx, privilegeID, requesterID, recipientID)
	var req models.ReactivationRequest
	if val := args.Get(0); val != nil {
		req = val.(models.ReactivationRequest)
	}
	return req, args.Error(1)
}

func (m *ReactivationRepositoryMock) GetReactivation(ctx context.Context, requestID int) (models.ReactivationRequest, error) {
	args := m.Called(ctx, requestID)
	var req models.ReactivationRequest
	if val := args.Get(0); val != nil {
		req = val.(models.ReactivationRequest)
	}
	return req, args.Error(1)
}

func (m *ReactivationRepositoryMock) HasPendingForPrivilege(ctx context.Context, privilegeID, requesterID int) (bool, error) {
	args := m.Called(ctx, privilegeID, requesterID)
	return args.Bool(0), args.Error(1)
}

func (m *ReactivationRepositoryMock) ListPendingForRecipient(ctx context.Context, recipientID int) ([]models.ReactivationRequest, error) {
	args := m.Called(ctx, recipientID)
	var reqs []models.ReactivationRequest
	if val := args.Get(0); val != nil {
		reqs = val.([]models.ReactivationRequest)
	}
	return reqs, args.Error(1)
}

func (m *ReactivationRepositoryMock) UpdateStatus(ctx context.Context, requestID int, status string) error {
	args := m.Called(ctx, requestID, status)
	return args.Error(0)
}

// RunnerPassthrough runs the transaction body directly, with no database.
type RunnerPassthrough struct{}

func (RunnerPassthrough) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// SessionStoreMock covers session creation and revocation in handler tests.
type SessionStoreMock struct {
	mock.Mock
}

func (m *SessionStoreMock) Create(ctx context.Context, principal session.Principal) (string, error) {
	args := m.Called(ctx, principal)
	return args.String(0), args.Error(1)
}

func (m *SessionStoreMock) Revoke(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

// SessionResolverMock resolves tokens to principals in handler tests.
type SessionResolverMock struct {
	mock.Mock
}

func (m *SessionResolverMock) Lookup(ctx context.Context, token string) (session.Principal, error) {
	args := m.Called(ctx, token)
	var principal session.Principal
	if val := args.Get(0); val != nil {
		principal = val.(session.Principal)
	}
	return principal, args.Error(1)
}
