package repositories

import (
	"context"
	"time"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/pkg/orm"
	"gorm.io/gorm"
)

// UserRepository handles database operations for User.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail looks up a user by email; nil when absent.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	found, err := orm.New(ctx, r.db).Where("email = ?", email).First(&u)
	if err != nil || !found {
		return nil, err
	}
	return &u, nil
}

// FindByID looks up a user by primary key; nil when absent.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	found, err := orm.New(ctx, r.db).Where("id = ?", id).First(&u)
	if err != nil || !found {
		return nil, err
	}
	return &u, nil
}

// Create persists a new user record.
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

// RefreshTokenRepository stores single-use refresh tokens.
type RefreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, t *models.RefreshToken) error {
	return r.db.WithContext(ctx).Create(t).Error
}

// Find loads a token; nil when absent.
func (r *RefreshTokenRepository) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	var t models.RefreshToken
	found, err := orm.New(ctx, r.db).Where("token = ?", token).First(&t)
	if err != nil || !found {
		return nil, err
	}
	return &t, nil
}

// Delete removes a token and reports whether this call removed it. Of two
// concurrent callers only one sees true.
func (r *RefreshTokenRepository) Delete(ctx context.Context, token string) (bool, error) {
	res := r.db.WithContext(ctx).Where("token = ?", token).Delete(&models.RefreshToken{})
	return res.RowsAffected == 1, res.Error
}

// DeleteExpired removes tokens that expired before now.
func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", now.UTC()).Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}
