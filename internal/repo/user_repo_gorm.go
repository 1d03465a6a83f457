package repo

import (
	"context"

	"gorm.io/gorm"

	"go-gin-gorm-crm/internal/domain"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *UserRepo) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	return first[domain.User](r.db.WithContext(ctx), "id = ?", id)
}

func (r *UserRepo) FindActiveByUsername(ctx context.Context, username string) (*domain.User, error) {
	return first[domain.User](r.db.WithContext(ctx).Where("is_active = ?", true), "username = ?", username)
}

func (r *UserRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Unscoped().Model(&domain.User{}).
		Where("username = ?", username).Count(&n).Error
	return n > 0, err
}

func (r *UserRepo) List(ctx context.Context, f domain.UserFilter, p domain.Page) ([]domain.User, int64, error) {
	filter := func(db *gorm.DB) *gorm.DB {
		if f.IncludeDeleted {
			db = db.Unscoped()
		}
		if f.ActiveOnly {
			db = db.Where("is_active = ?", true)
		}
		return db
	}
	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.User{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []domain.User
	err := r.db.WithContext(ctx).Scopes(filter, paginate(p)).
		Order("created_at DESC").Order("id DESC").Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).Count(&n).Error
	return n, err
}

// UpdateProfile 覆盖 name/email/role/is_active（零值也写入）
func (r *UserRepo) UpdateProfile(ctx context.Context, u *domain.User) error {
	return r.db.WithContext(ctx).Model(u).
		Select("name", "email", "role", "is_active", "updated_at").
		Updates(u).Error
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).
		Update("password_hash", hash).Error
}

func (r *UserRepo) SoftDelete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.User{}, id).Error
}
