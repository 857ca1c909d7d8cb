// Package repository 提供数据访问层的具体实现
// 本文件实现 OfflineMessageRepository 接口
package repository

import (
	"roleplay_chat_server/internal/model"

	"gorm.io/gorm"
)

// offlineMessageRepository OfflineMessageRepository 接口的实现
type offlineMessageRepository struct {
	db *gorm.DB
}

// NewOfflineMessageRepository 创建 OfflineMessageRepository 实例
func NewOfflineMessageRepository(db *gorm.DB) OfflineMessageRepository {
	return &offlineMessageRepository{db: db}
}

// Create 入队一条离线消息
func (r *offlineMessageRepository) Create(msg *model.OfflineMessage) error {
	if err := r.db.Create(msg).Error; err != nil {
		return wrapDBError(err, "创建离线消息")
	}
	return nil
}

// FindUndelivered 某账号的全部未投递消息，created_at 升序
func (r *offlineMessageRepository) FindUndelivered(account string) ([]model.OfflineMessage, error) {
	var msgs []model.OfflineMessage
	if err := r.db.Where("to_account = ? AND delivered = 0", account).
		Order("created_at ASC").Find(&msgs).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询离线消息 account=%s", account)
	}
	return msgs, nil
}

// MarkDelivered 整批置为已投递
// 推送全部完成后一次更新；推送成功但该更新失败时下次上线会重投，
// 接收端需要容忍重复
func (r *offlineMessageRepository) MarkDelivered(uuids []int64) error {
	if len(uuids) == 0 {
		return nil
	}
	if err := r.db.Model(&model.OfflineMessage{}).Where("uuid IN ?", uuids).Update("delivered", 1).Error; err != nil {
		return wrapDBError(err, "标记离线消息已投递")
	}
	return nil
}

// CountUndelivered 未投递数量
func (r *offlineMessageRepository) CountUndelivered(account string) (int64, error) {
	var cnt int64
	if err := r.db.Model(&model.OfflineMessage{}).Where("to_account = ? AND delivered = 0", account).Count(&cnt).Error; err != nil {
		return 0, wrapDBErrorf(err, "统计离线消息 account=%s", account)
	}
	return cnt, nil
}
