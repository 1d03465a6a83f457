package repo

import (
	"context"

	"gorm.io/gorm"

	"go-gin-gorm-crm/internal/domain"
)

type AssignmentRepo struct{ db *gorm.DB }

func NewAssignmentRepo(db *gorm.DB) *AssignmentRepo { return &AssignmentRepo{db: db} }

func (r *AssignmentRepo) Create(ctx context.Context, a *domain.CompanyAssignment) error {
	return r.db.WithContext(ctx).Omit("User").Create(a).Error
}

func (r *AssignmentRepo) FindByID(ctx context.Context, id uint) (*domain.CompanyAssignment, error) {
	return first[domain.CompanyAssignment](r.db.WithContext(ctx), "id = ?", id)
}

func (r *AssignmentRepo) FindActive(ctx context.Context, companyID, userID uint) (*domain.CompanyAssignment, error) {
	return first[domain.CompanyAssignment](r.db.WithContext(ctx).Where("company_id = ?", companyID), "user_id = ?", userID)
}

func (r *AssignmentRepo) ListByCompany(ctx context.Context, companyID uint) ([]domain.CompanyAssignment, error) {
	var out []domain.CompanyAssignment
	err := r.db.WithContext(ctx).Preload("User", unscoped).
		Where("company_id = ?", companyID).
		Order("is_primary DESC").Order("assigned_at DESC").Order("id DESC").
		Find(&out).Error
	return out, err
}

func (r *AssignmentRepo) SoftDelete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.CompanyAssignment{}, id).Error
}
