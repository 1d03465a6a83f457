package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"go-gin-gorm-crm/internal/domain"
)

var companyEditable = []string{
	"name", "name_kana", "postal_code", "address", "phone", "fax", "email",
	"website", "industry", "employee_count", "capital", "notes", "updated_at",
}

type CompanyRepo struct{ db *gorm.DB }

func NewCompanyRepo(db *gorm.DB) *CompanyRepo { return &CompanyRepo{db: db} }

func (r *CompanyRepo) CreateWithOwner(ctx context.Context, c *domain.Company, owner *domain.CompanyAssignment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Assignments").Create(c).Error; err != nil {
			return err
		}
		if owner == nil {
			return nil
		}
		owner.CompanyID = c.ID
		return tx.Omit("User").Create(owner).Error
	})
}

func (r *CompanyRepo) FindByID(ctx context.Context, id uint) (*domain.Company, error) {
	return first[domain.Company](r.db.WithContext(ctx), "id = ?", id)
}

func (r *CompanyRepo) List(ctx context.Context, f domain.CompanyFilter, p domain.Page) ([]domain.CompanyRow, int64, error) {
	filter := func(db *gorm.DB) *gorm.DB {
		if f.Search == "" {
			return db
		}
		pat := likePattern(f.Search)
		return db.Where("LOWER(name) LIKE ? OR LOWER(name_kana) LIKE ? OR LOWER(address) LIKE ?", pat, pat, pat)
	}
	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.Company{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var companies []domain.Company
	err := r.db.WithContext(ctx).Scopes(filter, paginate(p)).
		Order("updated_at DESC").Order("id DESC").Find(&companies).Error
	if err != nil {
		return nil, 0, err
	}
	if len(companies) == 0 {
		return []domain.CompanyRow{}, total, nil
	}

	ids := make([]uint, len(companies))
	for i, c := range companies {
		ids[i] = c.ID
	}
	names, err := r.assignedUserNames(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	rows := make([]domain.CompanyRow, len(companies))
	for i, c := range companies {
		rows[i] = domain.CompanyRow{Company: c, AssignedUsers: names[c.ID]}
		if rows[i].AssignedUsers == nil {
			rows[i].AssignedUsers = []string{}
		}
	}
	return rows, total, nil
}

// assignedUserNames 有效分配且用户未删除，按公司聚合并去重
func (r *CompanyRepo) assignedUserNames(ctx context.Context, companyIDs []uint) (map[uint][]string, error) {
	var pairs []struct {
		CompanyID uint
		Name      string
	}
	err := r.db.WithContext(ctx).Table("company_assignments AS ca").
		Select("ca.company_id, u.name").
		Joins("JOIN users u ON u.id = ca.user_id AND u.deleted_at IS NULL").
		Where("ca.company_id IN ? AND ca.deleted_at IS NULL", companyIDs).
		Order("ca.company_id").Order("ca.is_primary DESC").Order("ca.assigned_at ASC").
		Scan(&pairs).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uint][]string, len(companyIDs))
	seen := map[uint]map[string]struct{}{}
	for _, p := range pairs {
		if seen[p.CompanyID] == nil {
			seen[p.CompanyID] = map[string]struct{}{}
		}
		if _, dup := seen[p.CompanyID][p.Name]; dup {
			continue
		}
		seen[p.CompanyID][p.Name] = struct{}{}
		out[p.CompanyID] = append(out[p.CompanyID], p.Name)
	}
	return out, nil
}

func (r *CompanyRepo) Update(ctx context.Context, c *domain.Company) error {
	return r.db.WithContext(ctx).Model(c).Select(companyEditable).Updates(c).Error
}

// SoftDeleteCascade 子表与公司使用同一删除时间
func (r *CompanyRepo) SoftDeleteCascade(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		children := []any{&domain.Contact{}, &domain.CompanyAssignment{}, &domain.ActivityLog{}}
		for _, m := range children {
			if err := tx.Model(m).Where("company_id = ?", id).Update("deleted_at", at).Error; err != nil {
				return err
			}
		}
		return tx.Model(&domain.Company{}).Where("id = ?", id).Update("deleted_at", at).Error
	})
}
