package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Company struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Name          string         `gorm:"size:255;not null;index" json:"name"`
	NameKana      *string        `gorm:"size:255" json:"name_kana"`
	PostalCode    *string        `gorm:"size:16" json:"postal_code"`
	Address       *string        `gorm:"size:512" json:"address"`
	Phone         *string        `gorm:"size:32" json:"phone"`
	Fax           *string        `gorm:"size:32" json:"fax"`
	Email         *string        `gorm:"size:255" json:"email"`
	Website       *string        `gorm:"size:512" json:"website"`
	Industry      *string        `gorm:"size:128" json:"industry"`
	EmployeeCount *int64         `json:"employee_count"`
	Capital       *int64         `json:"capital"`
	Notes         *string        `gorm:"type:text" json:"notes"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at"`

	Assignments []CompanyAssignment `gorm:"foreignKey:CompanyID" json:"-"`
}

func (Company) TableName() string { return "companies" }

// CompanyRow 列表行：附带当前负责人姓名
type CompanyRow struct {
	Company
	AssignedUsers []string `json:"assigned_users"`
}

// CompanyAssignment 公司与内部负责人的关联；同一 (company, user) 只允许一条有效记录
type CompanyAssignment struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	CompanyID  uint           `gorm:"not null;index" json:"company_id"`
	UserID     uint           `gorm:"not null;index" json:"user_id"`
	IsPrimary  bool           `gorm:"not null" json:"is_primary"`
	AssignedAt time.Time      `gorm:"not null" json:"assigned_at"`
	Notes      *string        `gorm:"type:text" json:"notes"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"deleted_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (CompanyAssignment) TableName() string { return "company_assignments" }

// AssignmentView 详情页展示用（负责人姓名/邮箱）
type AssignmentView struct {
	CompanyAssignment
	UserName  string  `json:"user_name"`
	UserEmail *string `json:"user_email"`
}

type CompanyFilter struct {
	Search string // name / name_kana / address 模糊匹配
}

type CompanyRepository interface {
	// CreateWithOwner 公司与创建者的主负责关系在同一事务内写入
	CreateWithOwner(ctx context.Context, c *Company, owner *CompanyAssignment) error
	FindByID(ctx context.Context, id uint) (*Company, error)
	List(ctx context.Context, f CompanyFilter, p Page) ([]CompanyRow, int64, error)
	Update(ctx context.Context, c *Company) error
	// SoftDeleteCascade 同时软删其联系人、负责关系与活动记录
	SoftDeleteCascade(ctx context.Context, id uint, at time.Time) error
}

type AssignmentRepository interface {
	Create(ctx context.Context, a *CompanyAssignment) error
	FindByID(ctx context.Context, id uint) (*CompanyAssignment, error)
	FindActive(ctx context.Context, companyID, userID uint) (*CompanyAssignment, error)
	// ListByCompany 主负责优先，其次按分配时间倒序；User 已预加载
	ListByCompany(ctx context.Context, companyID uint) ([]CompanyAssignment, error)
	SoftDelete(ctx context.Context, id uint) error
}
