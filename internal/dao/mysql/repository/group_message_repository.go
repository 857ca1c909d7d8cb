// Package repository 提供数据访问层的具体实现
// 本文件实现 GroupMessageRepository 接口
package repository

import (
	"roleplay_chat_server/internal/model"

	"gorm.io/gorm"
)

// groupMessageRepository GroupMessageRepository 接口的实现
type groupMessageRepository struct {
	db *gorm.DB
}

// NewGroupMessageRepository 创建 GroupMessageRepository 实例
func NewGroupMessageRepository(db *gorm.DB) GroupMessageRepository {
	return &groupMessageRepository{db: db}
}

// Create 持久化群消息
func (r *groupMessageRepository) Create(msg *model.GroupMessage) error {
	if err := r.db.Create(msg).Error; err != nil {
		return wrapDBError(err, "创建群消息")
	}
	return nil
}

// FindByUuid 按消息雪花 ID 查找
func (r *groupMessageRepository) FindByUuid(uuid int64) (*model.GroupMessage, error) {
	var msg model.GroupMessage
	if err := r.db.Where("uuid = ?", uuid).First(&msg).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询群消息 uuid=%d", uuid)
	}
	return &msg, nil
}

// FindSince 某时间之后的消息（不含边界），created_at 升序
func (r *groupMessageRepository) FindSince(groupUuid string, sinceMillis int64) ([]model.GroupMessage, error) {
	var msgs []model.GroupMessage
	if err := r.db.Where("group_uuid = ? AND created_at > ?", groupUuid, sinceMillis).
		Order("created_at ASC").Find(&msgs).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询群消息 group_uuid=%s since=%d", groupUuid, sinceMillis)
	}
	return msgs, nil
}

// FindRecent 最近 n 条
// 降序取 n 条后原地反转，交付顺序仍为升序
func (r *groupMessageRepository) FindRecent(groupUuid string, n int) ([]model.GroupMessage, error) {
	var msgs []model.GroupMessage
	if err := r.db.Where("group_uuid = ?", groupUuid).
		Order("created_at DESC").Limit(n).Find(&msgs).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询最近群消息 group_uuid=%s n=%d", groupUuid, n)
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// FindAll 全量历史，created_at 升序
func (r *groupMessageRepository) FindAll(groupUuid string) ([]model.GroupMessage, error) {
	var msgs []model.GroupMessage
	if err := r.db.Where("group_uuid = ?", groupUuid).
		Order("created_at ASC").Find(&msgs).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询群消息历史 group_uuid=%s", groupUuid)
	}
	return msgs, nil
}

// UpdateContent 覆写消息 content
// 红包领取在持有对应消息锁的前提下调用
func (r *groupMessageRepository) UpdateContent(uuid int64, content string) error {
	if err := r.db.Model(&model.GroupMessage{}).Where("uuid = ?", uuid).Update("content", content).Error; err != nil {
		return wrapDBErrorf(err, "更新群消息内容 uuid=%d", uuid)
	}
	return nil
}
