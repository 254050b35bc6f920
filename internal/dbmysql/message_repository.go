package dbmysql

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"chatsync/internal/common"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Conversation selects rows touching self and touching peer. Each row has
// exactly two participant columns, so that is the pair's conversation.
func (r *MessageRepository) Conversation(ctx context.Context, selfID, peerID string, limit int) ([]common.Message, error) {
	var rows []Message
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? OR recipient_id = ?) AND (sender_id = ? OR recipient_id = ?)", selfID, selfID, peerID, peerID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query conversation: %w", translate(err))
	}

	out := make([]common.Message, len(rows))
	for i, row := range rows {
		out[len(rows)-1-i] = row.toCommon()
	}
	return out, nil
}

func (r *MessageRepository) InsertMessage(ctx context.Context, msg *common.Message) error {
	row := Message{
		SenderID:    msg.SenderID,
		RecipientID: msg.RecipientID,
		Content:     msg.Content,
		CreatedAt:   msg.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert message: %w", translate(err))
	}
	msg.ID = row.ID
	msg.CreatedAt = row.CreatedAt.UTC()
	return nil
}
