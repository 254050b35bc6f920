package dbmysql

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"chatsync/internal/common"
)

type FriendshipRepository struct {
	db *gorm.DB
}

func NewFriendshipRepository(db *gorm.DB) *FriendshipRepository {
	return &FriendshipRepository{db: db}
}

func (r *FriendshipRepository) EdgeByID(ctx context.Context, id string) (*common.FriendshipEdge, error) {
	var row Friendship
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, fmt.Errorf("edge %s: %w", id, translate(err))
	}
	edge := row.toCommon()
	return &edge, nil
}

func (r *FriendshipRepository) IncomingPending(ctx context.Context, userID string) ([]common.FriendshipEdge, error) {
	return r.find(ctx, "created_at DESC", "friend_id = ? AND status = ?", userID, string(common.StatusPending))
}

func (r *FriendshipRepository) AcceptedFrom(ctx context.Context, userID string) ([]common.FriendshipEdge, error) {
	return r.find(ctx, "created_at ASC", "user_id = ? AND status = ?", userID, string(common.StatusAccepted))
}

func (r *FriendshipRepository) Between(ctx context.Context, a, b string) ([]common.FriendshipEdge, error) {
	return r.find(ctx, "created_at ASC", "(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)", a, b, b, a)
}

func (r *FriendshipRepository) Touching(ctx context.Context, userID string) ([]common.FriendshipEdge, error) {
	return r.find(ctx, "created_at ASC", "user_id = ? OR friend_id = ?", userID, userID)
}

func (r *FriendshipRepository) find(ctx context.Context, order string, query string, args ...any) ([]common.FriendshipEdge, error) {
	var rows []Friendship
	if err := r.db.WithContext(ctx).Where(query, args...).Order(order).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query friendships: %w", translate(err))
	}
	return edgesToCommon(rows), nil
}

func (r *FriendshipRepository) InsertEdge(ctx context.Context, edge *common.FriendshipEdge) error {
	if edge.UserID == edge.FriendID {
		return common.ErrSelfEdge
	}
	if !edge.Status.IsValid() {
		return fmt.Errorf("invalid status %q", edge.Status)
	}
	if edge.ID == "" {
		edge.ID = uuid.NewString()
	}

	row := Friendship{
		ID:        edge.ID,
		UserID:    edge.UserID,
		FriendID:  edge.FriendID,
		Status:    string(edge.Status),
		CreatedAt: edge.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert edge: %w", translate(err))
	}
	edge.CreatedAt = row.CreatedAt.UTC()
	return nil
}

func (r *FriendshipRepository) UpdateEdgeStatus(ctx context.Context, id string, status common.FriendshipStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid status %q", status)
	}
	res := r.db.WithContext(ctx).Model(&Friendship{}).Where("id = ?", id).Update("status", string(status))
	if res.Error != nil {
		return fmt.Errorf("update edge %s: %w", id, translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("edge %s: %w", id, common.ErrNotFound)
	}
	return nil
}

func (r *FriendshipRepository) DeleteEdge(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Friendship{})
	if res.Error != nil {
		return fmt.Errorf("delete edge %s: %w", id, translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("edge %s: %w", id, common.ErrNotFound)
	}
	return nil
}

// AcceptEdge flips a pending edge to accepted and makes sure the reverse
// edge exists at accepted, all in one transaction. Repeating it on an
// accepted edge repairs a missing reverse and is otherwise a no-op.
func (r *FriendshipRepository) AcceptEdge(ctx context.Context, id string) (common.FriendshipEdge, common.FriendshipEdge, error) {
	var accepted, reverse Friendship

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&accepted).Error; err != nil {
			return err
		}
		if accepted.Status != string(common.StatusAccepted) {
			if err := tx.Model(&accepted).Update("status", string(common.StatusAccepted)).Error; err != nil {
				return err
			}
		}

		var existing []Friendship
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND friend_id = ?", accepted.FriendID, accepted.UserID).
			Limit(1).
			Find(&existing).Error; err != nil {
			return err
		}

		if len(existing) == 1 {
			reverse = existing[0]
			if reverse.Status != string(common.StatusAccepted) {
				return tx.Model(&reverse).Update("status", string(common.StatusAccepted)).Error
			}
			return nil
		}

		reverse = Friendship{
			ID:       uuid.NewString(),
			UserID:   accepted.FriendID,
			FriendID: accepted.UserID,
			Status:   string(common.StatusAccepted),
		}
		return tx.Create(&reverse).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return common.FriendshipEdge{}, common.FriendshipEdge{}, fmt.Errorf("edge %s: %w", id, common.ErrNotFound)
		}
		return common.FriendshipEdge{}, common.FriendshipEdge{}, fmt.Errorf("accept edge %s: %w", id, translate(err))
	}
	return accepted.toCommon(), reverse.toCommon(), nil
}
