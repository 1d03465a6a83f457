package repo

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"go-gin-gorm-crm/internal/domain"
)

// first 未命中返回 (nil, nil)
func first[T any](tx *gorm.DB, conds ...any) (*T, error) {
	var v T
	err := tx.First(&v, conds...).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// paginate Limit<=0 表示不分页
func paginate(p domain.Page) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if p.Limit <= 0 {
			return db
		}
		return db.Offset(p.Offset()).Limit(p.Limit)
	}
}

// unscoped 预加载关联时包含已软删的行（展示已删除用户/公司的名称）
func unscoped(db *gorm.DB) *gorm.DB { return db.Unscoped() }

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(s string) string {
	return "%" + strings.ToLower(likeEscaper.Replace(s)) + "%"
}
