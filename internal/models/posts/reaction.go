package models

import (
	"context"
	"encoding/base64"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	user "github.com/lotbajar/social/internal/models/user"
	"github.com/lotbajar/social/pkg/utils"
	"gorm.io/gorm"
)

// DefaultMaxDistinctEmoji caps how many different emoji one subject can
// accumulate. Config may lower or raise it per deployment.
const DefaultMaxDistinctEmoji = 10

// Reaction is one user's single emoji on one subject. The unique index on
// (subject_type, subject_id, user_id) is the serialization point for
// concurrent toggles; everything else follows from it. Rows are hard
// deleted so un-reacting frees the slot.
type Reaction struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SubjectType string    `gorm:"size:20;not null;uniqueIndex:idx_reaction_subject_user,priority:1;index:idx_reaction_subject,priority:1" json:"subject_type" validate:"required,oneof=post comment"`
	SubjectID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reaction_subject_user,priority:2;index:idx_reaction_subject,priority:2" json:"subject_id" validate:"required"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reaction_subject_user,priority:3;index:idx_reaction_user" json:"user_id" validate:"required"`
	Emoji       string    `gorm:"size:80;not null" json:"emoji" validate:"required,emoji_grapheme"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	User user.User `gorm:"foreignKey:UserID" json:"user,omitempty" validate:"-"`
}

func (r *Reaction) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// ToggleOutcome names what a toggle did. The values travel verbatim in the
// response body's status field.
type ToggleOutcome string

const (
	ReactionCreated  ToggleOutcome = "reaction_created"
	ReactionReplaced ToggleOutcome = "reaction_replaced"
	ReactionDeleted  ToggleOutcome = "reaction_deleted"
)

// ToggleReaction applies one press of an emoji button for userID on a
// subject. No existing reaction creates one; the same emoji again deletes
// it; a different emoji replaces it in place. Each call writes at most one
// row. A lost create race surfaces as a conflict for the client to retry.
func ToggleReaction(ctx context.Context, db *gorm.DB, subjectType string, subjectID, userID uuid.UUID, emoji string, maxDistinct int) (ToggleOutcome, error) {
	if !ValidSubjectType(subjectType) {
		return "", utils.NewError(utils.ErrBadRequest.Code, "Unknown subject type")
	}
	if !utils.ValidEmoji(emoji) {
		return "", utils.NewError(utils.ErrBadRequest.Code, "Reaction must be a single emoji")
	}
	if maxDistinct <= 0 {
		maxDistinct = DefaultMaxDistinctEmoji
	}

	if _, err := ResolveSubject(ctx, db, subjectType, subjectID); err != nil {
		return "", err
	}

	var existing Reaction
	err := db.WithContext(ctx).
		Where("subject_type = ? AND subject_id = ? AND user_id = ?", subjectType, subjectID, userID).
		First(&existing).Error

	switch {
	case err == nil && existing.Emoji == emoji:
		if err := db.WithContext(ctx).Delete(&Reaction{}, "id = ?", existing.ID).Error; err != nil {
			return "", utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to remove reaction")
		}
		return ReactionDeleted, nil

	case err == nil:
		if err := db.WithContext(ctx).Model(&existing).Update("emoji", emoji).Error; err != nil {
			return "", utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to replace reaction")
		}
		return ReactionReplaced, nil

	case err == gorm.ErrRecordNotFound:
		var withEmoji int64
		if err := db.WithContext(ctx).Model(&Reaction{}).
			Where("subject_type = ? AND subject_id = ? AND emoji = ?", subjectType, subjectID, emoji).
			Count(&withEmoji).Error; err != nil {
			return "", utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to check reaction capacity")
		}
		if withEmoji == 0 {
			var distinct int64
			if err := db.WithContext(ctx).Model(&Reaction{}).
				Where("subject_type = ? AND subject_id = ?", subjectType, subjectID).
				Distinct("emoji").Count(&distinct).Error; err != nil {
				return "", utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to check reaction capacity")
			}
			if distinct >= int64(maxDistinct) {
				return "", utils.NewError(utils.ErrUnprocessable.Code, "Maximum reactions reached.")
			}
		}

		reaction := &Reaction{
			SubjectType: subjectType,
			SubjectID:   subjectID,
			UserID:      userID,
			Emoji:       emoji,
		}
		if err := db.WithContext(ctx).Create(reaction).Error; err != nil {
			if err == gorm.ErrDuplicatedKey {
				return "", utils.NewError(utils.ErrConflict.Code, "Reaction changed concurrently, retry")
			}
			return "", utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to create reaction")
		}
		return ReactionCreated, nil

	default:
		return "", utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to look up reaction")
	}
}

// ReactionGroup is one emoji bucket in a subject's aggregate.
type ReactionGroup struct {
	Emoji string `json:"emoji"`
	Count int64  `json:"count"`
}

// AggregateReactions groups a subject's reactions by emoji, most counted
// first with emoji as the tie-break. A subject with no reactions yields an
// empty slice, not an error.
func AggregateReactions(ctx context.Context, db *gorm.DB, subjectType string, subjectID uuid.UUID) ([]ReactionGroup, error) {
	groups := make([]ReactionGroup, 0, 4)
	if err := db.WithContext(ctx).Model(&Reaction{}).
		Select("emoji, COUNT(*) AS count").
		Where("subject_type = ? AND subject_id = ?", subjectType, subjectID).
		Group("emoji").
		Order("count DESC, emoji ASC").
		Scan(&groups).Error; err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to aggregate reactions")
	}
	return groups, nil
}

// AggregateReactionsForSubjects batches the aggregate for many subjects of
// one type, keyed by subject ID. Feeds use it to avoid a query per card.
func AggregateReactionsForSubjects(ctx context.Context, db *gorm.DB, subjectType string, subjectIDs []uuid.UUID) (map[uuid.UUID][]ReactionGroup, error) {
	result := make(map[uuid.UUID][]ReactionGroup, len(subjectIDs))
	if len(subjectIDs) == 0 {
		return result, nil
	}

	var rows []struct {
		SubjectID uuid.UUID
		Emoji     string
		Count     int64
	}
	if err := db.WithContext(ctx).Model(&Reaction{}).
		Select("subject_id, emoji, COUNT(*) AS count").
		Where("subject_type = ? AND subject_id IN ?", subjectType, subjectIDs).
		Group("subject_id, emoji").
		Scan(&rows).Error; err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to aggregate reactions")
	}

	for _, row := range rows {
		result[row.SubjectID] = append(result[row.SubjectID], ReactionGroup{Emoji: row.Emoji, Count: row.Count})
	}
	for _, groups := range result {
		sort.Slice(groups, func(i, j int) bool {
			if groups[i].Count != groups[j].Count {
				return groups[i].Count > groups[j].Count
			}
			return groups[i].Emoji < groups[j].Emoji
		})
	}
	return result, nil
}

// UserReaction returns the viewer's current reaction on a subject, or nil
// when they have none.
func UserReaction(ctx context.Context, db *gorm.DB, subjectType string, subjectID, userID uuid.UUID) (*Reaction, error) {
	var reaction Reaction
	err := db.WithContext(ctx).
		Where("subject_type = ? AND subject_id = ? AND user_id = ?", subjectType, subjectID, userID).
		First(&reaction).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to look up reaction")
	}
	return &reaction, nil
}

// ReactorsPageSize is the fixed page length for reactor listings.
const ReactorsPageSize = 20

// ReactorCursor marks a position in a reactor listing: the (created_at,
// id) pair of the last row already served. Built from row values as the
// database returned them, so the position round-trips exactly.
type ReactorCursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// Encode packs the cursor into an opaque URL-safe token.
func (c ReactorCursor) Encode() string {
	raw := strconv.FormatInt(c.CreatedAt.UnixNano(), 10) + ":" + c.ID.String()
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeReactorCursor unpacks a cursor token. Any malformed token is a
// plain bad request; cursors are opaque and clients must not mint them.
func DecodeReactorCursor(token string) (*ReactorCursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, utils.NewError(utils.ErrBadRequest.Code, "Malformed cursor")
	}
	parts := strings.SplitN(string(raw), ":", 2)
	if len(parts) != 2 {
		return nil, utils.NewError(utils.ErrBadRequest.Code, "Malformed cursor")
	}
	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return nil, utils.NewError(utils.ErrBadRequest.Code, "Malformed cursor")
	}
	id, err := uuid.Parse(parts[1])
	if err != nil {
		return nil, utils.NewError(utils.ErrBadRequest.Code, "Malformed cursor")
	}
	return &ReactorCursor{CreatedAt: time.Unix(0, nanos), ID: id}, nil
}

// ListReactors pages through the users who reacted with emoji on a
// subject, newest reaction first. Keyset pagination on (created_at, id)
// keeps pages stable while new reactions land: rows strictly older than
// the cursor position never shift. An exhausted listing returns an empty
// page and no cursor.
func ListReactors(ctx context.Context, db *gorm.DB, subjectType string, subjectID uuid.UUID, emoji string, cursor *ReactorCursor) ([]user.UserCard, string, error) {
	query := db.WithContext(ctx).
		Preload("User").
		Where("subject_type = ? AND subject_id = ? AND emoji = ?", subjectType, subjectID, emoji)
	if cursor != nil {
		query = query.Where("created_at < ? OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []Reaction
	if err := query.Order("created_at DESC, id DESC").Limit(ReactorsPageSize + 1).Find(&rows).Error; err != nil {
		return nil, "", utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to list reactors")
	}

	next := ""
	if len(rows) > ReactorsPageSize {
		rows = rows[:ReactorsPageSize]
		last := rows[len(rows)-1]
		next = ReactorCursor{CreatedAt: last.CreatedAt, ID: last.ID}.Encode()
	}

	cards := make([]user.UserCard, len(rows))
	for i, row := range rows {
		cards[i] = row.User.Card()
	}
	return cards, next, nil
}
