package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type ActivityType string

const (
	ActivityVisit      ActivityType = "visit"
	ActivityPhone      ActivityType = "phone"
	ActivityEmail      ActivityType = "email"
	ActivityWebMeeting ActivityType = "web_meeting"
	ActivityOther      ActivityType = "other"
)

var activityTypes = map[ActivityType]struct{}{
	ActivityVisit: {}, ActivityPhone: {}, ActivityEmail: {}, ActivityWebMeeting: {}, ActivityOther: {},
}

func (t ActivityType) Valid() bool {
	_, ok := activityTypes[t]
	return ok
}

type ActivityLog struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	CompanyID         uint           `gorm:"not null;index" json:"company_id"`
	UserID            uint           `gorm:"not null;index" json:"user_id"`
	ActivityDate      time.Time      `gorm:"not null;index" json:"activity_date"`
	ActivityType      ActivityType   `gorm:"size:32;not null" json:"activity_type"`
	Content           string         `gorm:"type:text;not null" json:"content"`
	NextActionDate    *time.Time     `gorm:"index" json:"next_action_date"`
	NextActionContent *string        `gorm:"type:text" json:"next_action_content"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"deleted_at"`

	User    *User    `gorm:"foreignKey:UserID" json:"-"`
	Company *Company `gorm:"foreignKey:CompanyID" json:"-"`
}

func (ActivityLog) TableName() string { return "activity_logs" }

// ActivityView 带登记人与公司名
type ActivityView struct {
	ActivityLog
	UserName    string `json:"user_name"`
	CompanyName string `json:"company_name"`
	ContentHTML string `json:"content_html,omitempty"`
}

// NextActionFilter 区间为 [From, Before)；AssignedTo 非空时只看该用户负责的公司
type NextActionFilter struct {
	AssignedTo *uint
	From       *time.Time
	Before     *time.Time
}

type ActivityRepository interface {
	Create(ctx context.Context, a *ActivityLog) error
	// FindByID User/Company 已预加载
	FindByID(ctx context.Context, id uint) (*ActivityLog, error)
	ListByCompany(ctx context.Context, companyID uint, p Page) ([]ActivityLog, int64, error)
	ListNextActions(ctx context.Context, f NextActionFilter, p Page) ([]ActivityLog, int64, error)
	Update(ctx context.Context, a *ActivityLog) error
	SoftDelete(ctx context.Context, id uint) error
}
