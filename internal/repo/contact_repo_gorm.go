package repo

import (
	"context"

	"gorm.io/gorm"

	"go-gin-gorm-crm/internal/domain"
)

var contactEditable = []string{
	"name", "name_kana", "department", "position", "phone", "mobile", "email", "notes", "updated_at",
}

type ContactRepo struct{ db *gorm.DB }

func NewContactRepo(db *gorm.DB) *ContactRepo { return &ContactRepo{db: db} }

func (r *ContactRepo) Create(ctx context.Context, c *domain.Contact) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *ContactRepo) FindByID(ctx context.Context, id uint) (*domain.Contact, error) {
	return first[domain.Contact](r.db.WithContext(ctx), "id = ?", id)
}

func (r *ContactRepo) ListByCompany(ctx context.Context, companyID uint, p domain.Page) ([]domain.Contact, int64, error) {
	var total int64
	q := r.db.WithContext(ctx).Model(&domain.Contact{}).Where("company_id = ?", companyID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []domain.Contact
	err := r.db.WithContext(ctx).Where("company_id = ?", companyID).Scopes(paginate(p)).
		Order("id ASC").Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Update company_id 不可变，不在更新列中
func (r *ContactRepo) Update(ctx context.Context, c *domain.Contact) error {
	return r.db.WithContext(ctx).Model(c).Select(contactEditable).Updates(c).Error
}

func (r *ContactRepo) SoftDelete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.Contact{}, id).Error
}
