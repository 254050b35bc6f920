package dbmysql

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"chatsync/internal/common"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) UserByID(ctx context.Context, id string) (*common.User, error) {
	var row User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, fmt.Errorf("user %s: %w", id, translate(err))
	}
	u := row.toCommon()
	return &u, nil
}

func (r *UserRepository) UserByEmail(ctx context.Context, email string) (*common.User, error) {
	var row User
	if err := r.db.WithContext(ctx).Where("email = ?", common.NormalizeEmail(email)).First(&row).Error; err != nil {
		return nil, fmt.Errorf("user %s: %w", email, translate(err))
	}
	u := row.toCommon()
	return &u, nil
}

func (r *UserRepository) UsersByIDs(ctx context.Context, ids []string) ([]common.User, error) {
	if len(ids) == 0 {
		return []common.User{}, nil
	}
	var rows []User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query users: %w", translate(err))
	}
	return usersToCommon(rows), nil
}

func (r *UserRepository) ListUsers(ctx context.Context, excludeID string) ([]common.User, error) {
	var rows []User
	if err := r.db.WithContext(ctx).Where("id <> ?", excludeID).Order("email ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", translate(err))
	}
	return usersToCommon(rows), nil
}

func (r *UserRepository) CreateUser(ctx context.Context, user *common.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.Email = common.NormalizeEmail(user.Email)

	row := User{ID: user.ID, Email: user.Email, PasswordHash: user.PasswordHash, CreatedAt: user.CreatedAt}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create user: %w", translate(err))
	}
	user.CreatedAt = row.CreatedAt.UTC()
	return nil
}

func usersToCommon(rows []User) []common.User {
	out := make([]common.User, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toCommon())
	}
	return out
}
