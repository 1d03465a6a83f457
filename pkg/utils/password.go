package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const DefaultBcryptCost = 10

// BcryptHasher 成本因子可配；0 表示使用 DefaultBcryptCost
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) cost() int {
	if h.Cost < bcrypt.MinCost || h.Cost > bcrypt.MaxCost {
		return DefaultBcryptCost
	}
	return h.Cost
}

func (h BcryptHasher) Hash(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), h.cost())
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare 不匹配返回 (false, nil)；哈希损坏等返回 error
func (h BcryptHasher) Compare(hashed, pw string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(pw))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}

// HashPassword 供 CLI 等一次性场景使用
func HashPassword(pw string) (string, error) {
	return BcryptHasher{}.Hash(pw)
}
