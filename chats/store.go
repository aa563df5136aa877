package chats

import (
	"time"

	"gorm.io/gorm"
)

// ChatRecord holds metadata for a persisted chat.
type ChatRecord struct {
	gorm.Model
	ChatID       string          `gorm:"uniqueIndex;not null"`
	UserID       string          `gorm:"index;not null"`
	Path         string          `gorm:"type:text"`
	Title        string          `gorm:"type:text"`
	MessageCount int             `gorm:"default:0"`
	Messages     []MessageRecord `gorm:"foreignKey:ChatID;references:ChatID"`
}

// MessageRecord is one persisted message row, ordered by Sequence within a chat.
type MessageRecord struct {
	gorm.Model
	ChatID    string `gorm:"index;not null"`
	Sequence  int    `gorm:"not null"`
	MessageID string `gorm:"index"`
	Role      string `gorm:"not null"`
	Type      string
	Name      string
	Content   string `gorm:"type:text"`
}

// ChatInfo holds basic chat metadata for listing.
type ChatInfo struct {
	ChatID       string
	UserID       string
	Path         string
	Title        string
	MessageCount int
	CreatedAt    string
	UpdatedAt    string
}

// Store abstracts the durable conversation log. SaveChat is invoked at most
// once per turn, and only when the message list contains an answer.
type Store interface {
	SaveChat(chat Chat) error
	LoadChat(chatID string) (*State, error)
	ListChatsForUser(userID string) ([]ChatInfo, error)
	PruneBefore(cutoff time.Time) (int64, error)

	Connect() error
	Close() error
	Ping() error
}

// StoreConfig holds configuration for database stores
type StoreConfig struct {
	Type       string            `json:"type"`       // "sqlite", "postgres"
	Connection string            `json:"connection"` // connection string
	Options    map[string]string `json:"options"`
}

// NewStoreConfig creates a new store configuration
func NewStoreConfig(storeType, connection string) *StoreConfig {
	return &StoreConfig{
		Type:       storeType,
		Connection: connection,
		Options:    make(map[string]string),
	}
}
