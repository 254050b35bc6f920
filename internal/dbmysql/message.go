package dbmysql

import (
	"time"

	"chatsync/internal/common"
)

type Message struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	SenderID    string    `gorm:"column:sender_id;size:36;not null;index:idx_sender_recipient,priority:1"`
	RecipientID string    `gorm:"column:recipient_id;size:36;not null;index:idx_sender_recipient,priority:2;index"`
	Content     string    `gorm:"column:content;type:text"`
	CreatedAt   time.Time `gorm:"column:created_at;index"`
}

func (Message) TableName() string { return "messages" }

func (m Message) toCommon() common.Message {
	return common.Message{
		ID:          m.ID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		Content:     m.Content,
		CreatedAt:   m.CreatedAt.UTC(),
	}
}
