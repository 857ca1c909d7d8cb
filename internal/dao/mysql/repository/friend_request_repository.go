// Package repository 提供数据访问层的具体实现
// 本文件实现 FriendRequestRepository 接口
package repository

import (
	"roleplay_chat_server/internal/model"

	"gorm.io/gorm"
)

// friendRequestRepository FriendRequestRepository 接口的实现
type friendRequestRepository struct {
	db *gorm.DB
}

// NewFriendRequestRepository 创建 FriendRequestRepository 实例
func NewFriendRequestRepository(db *gorm.DB) FriendRequestRepository {
	return &friendRequestRepository{db: db}
}

// Create 创建申请
func (r *friendRequestRepository) Create(req *model.FriendRequest) error {
	if err := r.db.Create(req).Error; err != nil {
		return wrapDBError(err, "创建好友申请")
	}
	return nil
}

// FindByUuid 按申请 ID 查找
func (r *friendRequestRepository) FindByUuid(uuid string) (*model.FriendRequest, error) {
	var req model.FriendRequest
	if err := r.db.Where("uuid = ?", uuid).First(&req).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询好友申请 uuid=%s", uuid)
	}
	return &req, nil
}

// FindPendingByToAccount 某账号收到的全部待处理申请，按申请时间升序
func (r *friendRequestRepository) FindPendingByToAccount(account string) ([]model.FriendRequest, error) {
	var reqs []model.FriendRequest
	if err := r.db.Where("to_account = ? AND status = ?", account, model.RequestPending).
		Order("created_at ASC").Find(&reqs).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询待处理申请 account=%s", account)
	}
	return reqs, nil
}

// Transition 把 pending 状态迁移为目标状态
// WHERE status=pending 的条件更新保证同一申请只会被处理一次，
// 并发的第二次迁移 RowsAffected=0
func (r *friendRequestRepository) Transition(uuid string, to int8, millis int64) (bool, error) {
	res := r.db.Model(&model.FriendRequest{}).
		Where("uuid = ? AND status = ?", uuid, model.RequestPending).
		Updates(map[string]interface{}{"status": to, "updated_at": millis})
	if res.Error != nil {
		return false, wrapDBErrorf(res.Error, "迁移好友申请状态 uuid=%s", uuid)
	}
	return res.RowsAffected > 0, nil
}
