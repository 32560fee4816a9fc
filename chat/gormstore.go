package chat

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/PauloMartins337/tnp-finance/models"
)

// GormStorage implements Storage on a GORM connection.
type GormStorage struct {
	db *gorm.DB
}

func NewGormStorage(db *gorm.DB) *GormStorage {
	return &GormStorage{db: db}
}

func (g *GormStorage) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := g.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReceiverNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (g *GormStorage) InsertMessage(ctx context.Context, msg *models.Message) error {
	return g.db.WithContext(ctx).Create(msg).Error
}

func (g *GormStorage) Conversation(ctx context.Context, a, b string) ([]models.Message, error) {
	var msgs []models.Message
	err := g.db.WithContext(ctx).
		Where("(sender_username = ? AND receiver_username = ?) OR (sender_username = ? AND receiver_username = ?)", a, b, b, a).
		Order("created_at ASC").
		Find(&msgs).Error
	return msgs, err
}

func (g *GormStorage) CountUnread(ctx context.Context, receiver, sender string) (int64, error) {
	var n int64
	err := g.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("receiver_username = ? AND sender_username = ? AND is_read = ?", receiver, sender, false).
		Count(&n).Error
	return n, err
}

func (g *GormStorage) MarkRead(ctx context.Context, receiver, sender string) (int64, error) {
	res := g.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("receiver_username = ? AND sender_username = ? AND is_read = ?", receiver, sender, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}
