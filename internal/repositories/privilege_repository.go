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
	ErrPrivilegeNotFound = errors.New("chat privilege not found")
	ErrDuplicatePair     = errors.New("chat privilege already exists for pair")
)

// PrivilegeRepository persists the per-pair gate controlling direct messaging.
type PrivilegeRepository interface {
	GetByPair(ctx context.Context, userA, userB int) (models.ChatPrivilege, error)
	GetByID(ctx context.Context, privilegeID int) (models.ChatPrivilege, error)
	Create(ctx context.Context, initiatorID, partnerID int, state string) (models.ChatPrivilege, error)
	SetState(ctx context.Context, privilegeID int, state string) error
	AddHidden(ctx context.Context, privilegeID, userID int) error
	SetHideInitiator(ctx context.Context, privilegeID, userID int) error
	ClearHide(ctx context.Context, privilegeID int) error
	Delete(ctx context.Context, privilegeID int) error
	ListSummariesForUser(ctx context.Context, userID int) ([]models.ConversationSummary, error)
}

// PrivilegeRepo is a sqlx implementation of PrivilegeRepository.
type PrivilegeRepo struct {
	db *sqlx.DB
}

// NewPrivilegeRepo constructs a PrivilegeRepo.
func NewPrivilegeRepo(database *sqlx.DB) *PrivilegeRepo {
	return &PrivilegeRepo{db: database}
}

const privilegeColumns = `id, user1_id, user2_id, initiator_id, state, hide_initiator_id, updated_at`

// orderPair normalizes a pair so user1 < user2. Lookups and the uniqueness
// constraint are direction-independent by construction.
func orderPair(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}

// GetByPair fetches the single record for an unordered user pair.
func (r *PrivilegeRepo) GetByPair(ctx context.Context, userA, userB int) (models.ChatPrivilege, error) {
	q := db.Querier(ctx, r.db)
	user1, user2 := orderPair(userA, userB)

	var priv models.ChatPrivilege
	err := sqlx.GetContext(ctx, q, &priv,
		`SELECT `+privilegeColumns+` FROM chat_privileges WHERE user1_id=$1 AND user2_id=$2`, user1, user2)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChatPrivilege{}, ErrPrivilegeNotFound
	}
	if err != nil {
		return models.ChatPrivilege{}, err
	}
	return r.loadHidden(ctx, priv)
}

// GetByID fetches a record by id.
func (r *PrivilegeRepo) GetByID(ctx context.Context, privilegeID int) (models.ChatPrivilege, error) {
	q := db.Querier(ctx, r.db)
	var priv models.ChatPrivilege
	err := sqlx.GetContext(ctx, q, &priv,
		`SELECT `+privilegeColumns+` FROM chat_privileges WHERE id=$1`, privilegeID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChatPrivilege{}, ErrPrivilegeNotFound
	}
	if err != nil {
		return models.ChatPrivilege{}, err
	}
	return r.loadHidden(ctx, priv)
}

func (r *PrivilegeRepo) loadHidden(ctx context.Context, priv models.ChatPrivilege) (models.ChatPrivilege, error) {
	q := db.Querier(ctx, r.db)
	err := sqlx.SelectContext(ctx, q, &priv.HiddenFor,
		`SELECT user_id FROM chat_privilege_hidden WHERE privilege_id=$1 ORDER BY user_id`, priv.ID)
	return priv, err
}

// Create inserts a record for the pair, remembering who initiated it. A
// concurrent first-contact attempt surfaces as ErrDuplicatePair; callers
// resolve it by re-reading the existing record. An unknown partner surfaces
// as ErrUserNotFound.
func (r *PrivilegeRepo) Create(ctx context.Context, initiatorID, partnerID int, state string) (models.ChatPrivilege, error) {
	q := db.Querier(ctx, r.db)
	user1, user2 := orderPair(initiatorID, partnerID)

	var priv models.ChatPrivilege
	err := sqlx.GetContext(ctx, q, &priv,
		`INSERT INTO chat_privileges (user1_id, user2_id, initiator_id, state) VALUES ($1, $2, $3, $4)
         RETURNING `+privilegeColumns, user1, user2, initiatorID, state)
	if isUniqueViolation(err) {
		return models.ChatPrivilege{}, ErrDuplicatePair
	}
	if isForeignKeyViolation(err) {
		return models.ChatPrivilege{}, ErrUserNotFound
	}
	return priv, err
}

// SetState moves the record to a new lifecycle state.
func (r *PrivilegeRepo) SetState(ctx context.Context, privilegeID int, state string) error {
	return r.updateOne(ctx,
		`UPDATE chat_privileges SET state=$2, updated_at=NOW() WHERE id=$1`, privilegeID, state)
}

// AddHidden marks the conversation hidden for one participant. Idempotent.
func (r *PrivilegeRepo) AddHidden(ctx context.Context, privilegeID, userID int) error {
	q := db.Querier(ctx, r.db)
	_, err := q.ExecContext(ctx,
		`INSERT INTO chat_privilege_hidden (privilege_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		privilegeID, userID)
	return err
}

// SetHideInitiator records who started the hide, only if nobody holds it yet.
func (r *PrivilegeRepo) SetHideInitiator(ctx context.Context, privilegeID, userID int) error {
	q := db.Querier(ctx, r.db)
	_, err := q.ExecContext(ctx,
		`UPDATE chat_privileges SET hide_initiator_id=$2, updated_at=NOW() WHERE id=$1 AND hide_initiator_id=0`,
		privilegeID, userID)
	return err
}

// ClearHide resets the hide sub-state for both sides.
func (r *PrivilegeRepo) ClearHide(ctx context.Context, privilegeID int) error {
	q := db.Querier(ctx, r.db)
	if _, err := q.ExecContext(ctx,
		`DELETE FROM chat_privilege_hidden WHERE privilege_id=$1`, privilegeID); err != nil {
		return err
	}
	_, err := q.ExecContext(ctx,
		`UPDATE chat_privileges SET hide_initiator_id=0, updated_at=NOW() WHERE id=$1`, privilegeID)
	return err
}

// Delete removes the record; hidden rows and reactivation requests cascade.
func (r *PrivilegeRepo) Delete(ctx context.Context, privilegeID int) error {
	return r.updateOne(ctx, `DELETE FROM chat_privileges WHERE id=$1`, privilegeID)
}

func (r *PrivilegeRepo) updateOne(ctx context.Context, query string, args ...interface{}) error {
	q := db.Querier(ctx, r.db)
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrPrivilegeNotFound
	}
	return nil
}

// ListSummariesForUser returns one row per conversation partner, newest
// activity first. Conversations the caller has hidden are excluded from the
// caller's list only; the hidden flag reports whether the partner hid theirs.
func (r *PrivilegeRepo) ListSummariesForUser(ctx context.Context, userID int) ([]models.ConversationSummary, error) {
	q := db.Querier(ctx, r.db)
	query := `SELECT
            CASE WHEN cp.user1_id=$1 THEN cp.user2_id ELSE cp.user1_id END AS partner_id,
            u.username AS partner_name,
            COALESCE(m.content, '') AS last_message,
            COALESCE(m.sender_id, 0) AS last_sender_id,
            COALESCE(m.created_at, cp.updated_at) AS last_message_at,
            (SELECT COUNT(*) FROM messages
                WHERE recipient_id=$1
                AND sender_id = CASE WHEN cp.user1_id=$1 THEN cp.user2_id ELSE cp.user1_id END
                AND read = FALSE) AS unread,
            EXISTS(SELECT 1 FROM chat_privilege_hidden h
                WHERE h.privilege_id = cp.id AND h.user_id <> $1) AS hidden
        FROM chat_privileges cp
        JOIN users u ON u.id = CASE WHEN cp.user1_id=$1 THEN cp.user2_id ELSE cp.user1_id END
        LEFT JOIN LATERAL (
            SELECT content, sender_id, created_at FROM messages
            WHERE (sender_id = cp.user1_id AND recipient_id = cp.user2_id)
               OR (sender_id = cp.user2_id AND recipient_id = cp.user1_id)
            ORDER BY created_at DESC LIMIT 1
        ) m ON TRUE
        WHERE (cp.user1_id=$1 OR cp.user2_id=$1)
        AND cp.state = 'active'
        AND NOT EXISTS(SELECT 1 FROM chat_privilege_hidden h
            WHERE h.privilege_id = cp.id AND h.user_id = $1)
        ORDER BY last_message_at DESC`

	var summaries []models.ConversationSummary
	err := sqlx.SelectContext(ctx, q, &summaries, query, userID)
	return summaries, err
}
