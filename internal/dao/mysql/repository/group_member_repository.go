// Package repository 提供数据访问层的具体实现
// 本文件实现 GroupMemberRepository 接口，处理群成员相关的数据库操作
package repository

import (
	"roleplay_chat_server/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// groupMemberRepository GroupMemberRepository 接口的实现
type groupMemberRepository struct {
	db *gorm.DB
}

// NewGroupMemberRepository 创建 GroupMemberRepository 实例
func NewGroupMemberRepository(db *gorm.DB) GroupMemberRepository {
	return &groupMemberRepository{db: db}
}

// FindByGroupUuid 群的全部成员
func (r *groupMemberRepository) FindByGroupUuid(groupUuid string) ([]model.GroupMember, error) {
	var members []model.GroupMember
	if err := r.db.Where("group_uuid = ?", groupUuid).Find(&members).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询群成员 group_uuid=%s", groupUuid)
	}
	return members, nil
}

// FindByGroupAndAccount 成员关系查找
// 用于成员资格检查和人设读取
func (r *groupMemberRepository) FindByGroupAndAccount(groupUuid, account string) (*model.GroupMember, error) {
	var member model.GroupMember
	if err := r.db.Where("group_uuid = ? AND user_account = ?", groupUuid, account).First(&member).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询群成员 group_uuid=%s account=%s", groupUuid, account)
	}
	return &member, nil
}

// FindGroupUuidsByAccount 某账号加入的全部群 ID
func (r *groupMemberRepository) FindGroupUuidsByAccount(account string) ([]string, error) {
	var uuids []string
	if err := r.db.Model(&model.GroupMember{}).Where("user_account = ?", account).Pluck("group_uuid", &uuids).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询所在群 account=%s", account)
	}
	return uuids, nil
}

// Create 添加群成员
func (r *groupMemberRepository) Create(member *model.GroupMember) error {
	if err := r.db.Create(member).Error; err != nil {
		return wrapDBError(err, "创建群成员")
	}
	return nil
}

// Upsert 添加成员，已存在则更新人设
// 依赖 (group_uuid, user_account) 复合唯一索引
func (r *groupMemberRepository) Upsert(member *model.GroupMember) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "group_uuid"}, {Name: "user_account"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"character_name", "character_avatar", "character_desc",
		}),
	}).Create(member).Error
	if err != nil {
		return wrapDBErrorf(err, "加入群组 group_uuid=%s account=%s", member.GroupUuid, member.UserAccount)
	}
	return nil
}

// UpdatePersona 修改群内人设
func (r *groupMemberRepository) UpdatePersona(groupUuid, account, name, avatar, desc string) error {
	updates := map[string]interface{}{
		"character_name":   name,
		"character_avatar": avatar,
		"character_desc":   desc,
	}
	if err := r.db.Model(&model.GroupMember{}).
		Where("group_uuid = ? AND user_account = ?", groupUuid, account).
		Updates(updates).Error; err != nil {
		return wrapDBErrorf(err, "更新群内人设 group_uuid=%s account=%s", groupUuid, account)
	}
	return nil
}
