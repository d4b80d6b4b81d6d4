package repository

import (
	"errors"

	"github.com/cafe-next/internal/models"

	"gorm.io/gorm"
)

// AddressRepository 用户地址只读访问接口
type AddressRepository interface {
	GetByIDAndUser(id, userID uint) (*models.UserAddress, error)
	WithTx(tx *gorm.DB) *GormAddressRepository
}

// GormAddressRepository GORM 实现
type GormAddressRepository struct {
	db *gorm.DB
}

// NewAddressRepository 创建地址仓库
func NewAddressRepository(db *gorm.DB) *GormAddressRepository {
	return &GormAddressRepository{db: db}
}

// WithTx 绑定事务
func (r *GormAddressRepository) WithTx(tx *gorm.DB) *GormAddressRepository {
	if tx == nil {
		return r
	}
	return &GormAddressRepository{db: tx}
}

// GetByIDAndUser 获取属于用户的地址
func (r *GormAddressRepository) GetByIDAndUser(id, userID uint) (*models.UserAddress, error) {
	var address models.UserAddress
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&address).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &address, nil
}
