// Package repository 提供数据访问层的具体实现
// 本文件实现 FriendshipRepository 接口
// 好友关系是无序对，入库前统一归一化为 (account_a < account_b)
package repository

import (
	"errors"

	"roleplay_chat_server/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// friendshipRepository FriendshipRepository 接口的实现
type friendshipRepository struct {
	db *gorm.DB
}

// NewFriendshipRepository 创建 FriendshipRepository 实例
func NewFriendshipRepository(db *gorm.DB) FriendshipRepository {
	return &friendshipRepository{db: db}
}

// Exists 两账号是否已是好友
func (r *friendshipRepository) Exists(accountA, accountB string) (bool, error) {
	a, b := model.NormalizePair(accountA, accountB)
	var f model.Friendship
	err := r.db.Where("account_a = ? AND account_b = ?", a, b).First(&f).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, wrapDBErrorf(err, "查询好友关系 %s-%s", a, b)
	}
	return true, nil
}

// Create 幂等地建立好友关系
// 依赖 (account_a, account_b) 复合唯一索引，冲突时什么都不做
func (r *friendshipRepository) Create(accountA, accountB string, millis int64) error {
	a, b := model.NormalizePair(accountA, accountB)
	f := model.Friendship{
		AccountA:  a,
		AccountB:  b,
		CreatedAt: millis,
	}
	err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&f).Error
	if err != nil {
		return wrapDBErrorf(err, "建立好友关系 %s-%s", a, b)
	}
	return nil
}

// FindPartners 返回某账号的全部好友账号
// 两个方向各查一次，对称性由归一化保证
func (r *friendshipRepository) FindPartners(account string) ([]string, error) {
	var partners []string
	if err := r.db.Model(&model.Friendship{}).Where("account_a = ?", account).Pluck("account_b", &partners).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询好友 account=%s", account)
	}
	var reverse []string
	if err := r.db.Model(&model.Friendship{}).Where("account_b = ?", account).Pluck("account_a", &reverse).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询好友 account=%s", account)
	}
	return append(partners, reverse...), nil
}
