package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lac-hong-legacy/pairup_api/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository handles user-related database operations
type UserRepository struct {
	BaseRepository
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// FindOrCreate returns the user with username, inserting it first if needed.
// Concurrent callers race on the unique username index, never on a lock.
func (ds *UserRepository) FindOrCreate(ctx context.Context, username string) (*model.User, error) {
	now := time.Now()
	candidate := &model.User{
		ID:        uuid.NewString(),
		Username:  username,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := ds.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoNothing: true,
	}).Create(candidate).Error
	if err != nil {
		return nil, err
	}

	return ds.GetByUsername(ctx, username)
}

func (ds *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := ds.conn(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
