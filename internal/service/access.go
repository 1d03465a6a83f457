package service

import (
	"context"

	"go-gin-gorm-crm/internal/domain"
)

// Access 权限判定；已软删的目标一律视为不存在并返回 false
type Access struct {
	assignments domain.AssignmentRepository
	activities  domain.ActivityRepository
}

func NewAccess(assignments domain.AssignmentRepository, activities domain.ActivityRepository) *Access {
	return &Access{assignments: assignments, activities: activities}
}

func (a *Access) IsAssigned(ctx context.Context, userID, companyID uint) (bool, error) {
	as, err := a.assignments.FindActive(ctx, companyID, userID)
	if err != nil {
		return false, dbErr("check assignment", err)
	}
	return as != nil, nil
}

// CanEditCompany 管理员恒为 true，其余看是否负责该公司
func (a *Access) CanEditCompany(ctx context.Context, c domain.Caller, companyID uint) (bool, error) {
	if c.IsAdmin() {
		return true, nil
	}
	return a.IsAssigned(ctx, c.ID, companyID)
}

// CanEditActivity 非管理员只能编辑自己登记的活动，与公司负责关系无关
func (a *Access) CanEditActivity(ctx context.Context, c domain.Caller, activityID uint) (bool, error) {
	if c.IsAdmin() {
		return true, nil
	}
	act, err := a.activities.FindByID(ctx, activityID)
	if err != nil {
		return false, dbErr("load activity", err)
	}
	return act != nil && act.UserID == c.ID, nil
}
