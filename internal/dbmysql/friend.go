package dbmysql

import (
	"time"

	"chatsync/internal/common"
)

// Friendship is one directed edge. Rows are hard-deleted so a declined pair
// can be requested again under the unique index.
type Friendship struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"column:user_id;size:36;not null;uniqueIndex:idx_user_friend,priority:1" json:"user_id"`
	FriendID  string    `gorm:"column:friend_id;size:36;not null;uniqueIndex:idx_user_friend,priority:2;index" json:"friend_id"`
	Status    string    `gorm:"column:status;type:enum('pending','accepted');default:'pending';not null" json:"status"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Friendship) TableName() string { return "friendships" }

func (f Friendship) toCommon() common.FriendshipEdge {
	return common.FriendshipEdge{
		ID:        f.ID,
		UserID:    f.UserID,
		FriendID:  f.FriendID,
		Status:    common.FriendshipStatus(f.Status),
		CreatedAt: f.CreatedAt.UTC(),
	}
}

func edgesToCommon(rows []Friendship) []common.FriendshipEdge {
	out := make([]common.FriendshipEdge, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toCommon())
	}
	return out
}
