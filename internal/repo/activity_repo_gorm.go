package repo

import (
	"context"

	"gorm.io/gorm"

	"go-gin-gorm-crm/internal/domain"
)

var activityEditable = []string{
	"activity_date", "activity_type", "content", "next_action_date", "next_action_content", "updated_at",
}

type ActivityRepo struct{ db *gorm.DB }

func NewActivityRepo(db *gorm.DB) *ActivityRepo { return &ActivityRepo{db: db} }

func (r *ActivityRepo) withRefs(db *gorm.DB) *gorm.DB {
	return db.Preload("User", unscoped).Preload("Company", unscoped)
}

func (r *ActivityRepo) Create(ctx context.Context, a *domain.ActivityLog) error {
	return r.db.WithContext(ctx).Omit("User", "Company").Create(a).Error
}

func (r *ActivityRepo) FindByID(ctx context.Context, id uint) (*domain.ActivityLog, error) {
	return first[domain.ActivityLog](r.db.WithContext(ctx).Scopes(r.withRefs), "id = ?", id)
}

func (r *ActivityRepo) ListByCompany(ctx context.Context, companyID uint, p domain.Page) ([]domain.ActivityLog, int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&domain.ActivityLog{}).Where("company_id = ?", companyID).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	var out []domain.ActivityLog
	err = r.db.WithContext(ctx).Scopes(r.withRefs, paginate(p)).
		Where("company_id = ?", companyID).
		Order("activity_date DESC").Order("created_at DESC").Order("id DESC").
		Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *ActivityRepo) ListNextActions(ctx context.Context, f domain.NextActionFilter, p domain.Page) ([]domain.ActivityLog, int64, error) {
	filter := func(db *gorm.DB) *gorm.DB {
		db = db.Where("next_action_date IS NOT NULL")
		if f.AssignedTo != nil {
			assigned := r.db.WithContext(ctx).Model(&domain.CompanyAssignment{}).
				Select("company_id").Where("user_id = ?", *f.AssignedTo)
			db = db.Where("company_id IN (?)", assigned)
		}
		if f.From != nil {
			db = db.Where("next_action_date >= ?", *f.From)
		}
		if f.Before != nil {
			db = db.Where("next_action_date < ?", *f.Before)
		}
		return db
	}
	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.ActivityLog{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []domain.ActivityLog
	err := r.db.WithContext(ctx).Scopes(filter, r.withRefs, paginate(p)).
		Order("next_action_date ASC").Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *ActivityRepo) Update(ctx context.Context, a *domain.ActivityLog) error {
	return r.db.WithContext(ctx).Model(a).Select(activityEditable).Updates(a).Error
}

func (r *ActivityRepo) SoftDelete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.ActivityLog{}, id).Error
}
