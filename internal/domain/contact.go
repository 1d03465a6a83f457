package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Contact struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	CompanyID  uint           `gorm:"not null;index" json:"company_id"`
	Name       string         `gorm:"size:128;not null" json:"name"`
	NameKana   *string        `gorm:"size:128" json:"name_kana"`
	Department *string        `gorm:"size:128" json:"department"`
	Position   *string        `gorm:"size:128" json:"position"`
	Phone      *string        `gorm:"size:32" json:"phone"`
	Mobile     *string        `gorm:"size:32" json:"mobile"`
	Email      *string        `gorm:"size:255" json:"email"`
	Notes      *string        `gorm:"type:text" json:"notes"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

func (Contact) TableName() string { return "contacts" }

type ContactRepository interface {
	Create(ctx context.Context, c *Contact) error
	FindByID(ctx context.Context, id uint) (*Contact, error)
	ListByCompany(ctx context.Context, companyID uint, p Page) ([]Contact, int64, error)
	Update(ctx context.Context, c *Contact) error
	SoftDelete(ctx context.Context, id uint) error
}
