package chats

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// gormStore implements the Store CRUD shared by the SQLite and PostgreSQL
// backends. The concrete stores own connection setup; everything after
// Connect is identical.
type gormStore struct {
	db *gorm.DB
}

func (s *gormStore) migrate() error {
	if err := s.db.AutoMigrate(&ChatRecord{}, &MessageRecord{}); err != nil {
		return fmt.Errorf("failed to migrate database schema: %w", err)
	}
	return nil
}

// SaveChat persists the whole chat in one transaction: the metadata row is
// upserted and the message rows are replaced. Replacing rather than
// appending keeps the persisted log identical to the turn's final state
// even on retries.
func (s *gormStore) SaveChat(chat Chat) error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var record ChatRecord
		err := tx.Where("chat_id = ?", chat.ID).First(&record).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			record = ChatRecord{ChatID: chat.ID}
		case err != nil:
			return fmt.Errorf("failed to look up chat %s: %w", chat.ID, err)
		}

		record.UserID = chat.UserID
		record.Path = chat.Path
		record.Title = chat.Title
		record.MessageCount = len(chat.Messages)
		if err := tx.Save(&record).Error; err != nil {
			return fmt.Errorf("failed to save chat record: %w", err)
		}

		if err := tx.Where("chat_id = ?", chat.ID).Delete(&MessageRecord{}).Error; err != nil {
			return fmt.Errorf("failed to clear previous messages: %w", err)
		}

		for i, msg := range chat.Messages {
			row := MessageRecord{
				ChatID:    chat.ID,
				Sequence:  i + 1,
				MessageID: msg.ID,
				Role:      string(msg.Role),
				Type:      string(msg.Type),
				Name:      msg.Name,
				Content:   msg.Content,
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("failed to create message record %d: %w", i+1, err)
			}
		}
		return nil
	})
}

// LoadChat rebuilds in-memory conversation state from persisted rows.
// Returns an empty state for an unknown chat ID so a first turn can run
// against a fresh conversation.
func (s *gormStore) LoadChat(chatID string) (*State, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	var rows []MessageRecord
	if err := s.db.Where("chat_id = ?", chatID).Order("sequence ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	state := &State{ChatID: chatID, Messages: make([]Message, 0, len(rows))}
	for _, row := range rows {
		state.Messages = append(state.Messages, Message{
			ID:      row.MessageID,
			Role:    Role(row.Role),
			Content: row.Content,
			Type:    MessageType(row.Type),
			Name:    row.Name,
		})
	}
	return state, nil
}

// ListChatsForUser returns chat metadata for a user, most recent first.
func (s *gormStore) ListChatsForUser(userID string) ([]ChatInfo, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	var records []ChatRecord
	if err := s.db.Where("user_id = ?", userID).Order("updated_at DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch chats: %w", err)
	}

	result := make([]ChatInfo, len(records))
	for i, r := range records {
		result[i] = ChatInfo{
			ChatID:       r.ChatID,
			UserID:       r.UserID,
			Path:         r.Path,
			Title:        r.Title,
			MessageCount: r.MessageCount,
			CreatedAt:    r.CreatedAt.Format(time.RFC3339),
			UpdatedAt:    r.UpdatedAt.Format(time.RFC3339),
		}
	}
	return result, nil
}

// PruneBefore deletes chats (and their messages) last updated before the
// cutoff. Returns the number of chats removed.
func (s *gormStore) PruneBefore(cutoff time.Time) (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database connection is nil")
	}

	var pruned int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var stale []ChatRecord
		if err := tx.Where("updated_at < ?", cutoff).Find(&stale).Error; err != nil {
			return fmt.Errorf("failed to find stale chats: %w", err)
		}
		for _, record := range stale {
			if err := tx.Where("chat_id = ?", record.ChatID).Delete(&MessageRecord{}).Error; err != nil {
				return fmt.Errorf("failed to delete messages for chat %s: %w", record.ChatID, err)
			}
			if err := tx.Delete(&record).Error; err != nil {
				return fmt.Errorf("failed to delete chat %s: %w", record.ChatID, err)
			}
			pruned++
		}
		return nil
	})
	return pruned, err
}

// Close closes the database connection.
func (s *gormStore) Close() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive.
func (s *gormStore) Ping() error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
