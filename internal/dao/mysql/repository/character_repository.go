// Package repository 提供数据访问层的具体实现
// 本文件实现 CharacterRepository 接口，处理角色相关的数据库操作
package repository

import (
	"roleplay_chat_server/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// characterRepository CharacterRepository 接口的实现
type characterRepository struct {
	db *gorm.DB
}

// NewCharacterRepository 创建 CharacterRepository 实例
func NewCharacterRepository(db *gorm.DB) CharacterRepository {
	return &characterRepository{db: db}
}

// FindByAccount 按账号精确查找
func (r *characterRepository) FindByAccount(account string) (*model.Character, error) {
	var ch model.Character
	if err := r.db.Where("wx_account = ?", account).First(&ch).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询角色 account=%s", account)
	}
	return &ch, nil
}

// FindByAccountFold 按账号大小写不敏感查找
// 存储保留原始大小写，检索时两侧统一 LOWER
func (r *characterRepository) FindByAccountFold(account string) (*model.Character, error) {
	var ch model.Character
	if err := r.db.Where("LOWER(wx_account) = LOWER(?)", account).First(&ch).Error; err != nil {
		return nil, wrapDBErrorf(err, "检索角色 account=%s", account)
	}
	return &ch, nil
}

// FindByAccounts 批量按账号查找
func (r *characterRepository) FindByAccounts(accounts []string) ([]model.Character, error) {
	var chs []model.Character
	if len(accounts) == 0 {
		return chs, nil
	}
	if err := r.db.Where("wx_account IN ?", accounts).Find(&chs).Error; err != nil {
		return nil, wrapDBError(err, "批量查询角色")
	}
	return chs, nil
}

// FindOnlineByUserUuid 查找用户所有 is_online=1 的角色
// 重连恢复路径用它重建 Presence Registry 条目
func (r *characterRepository) FindOnlineByUserUuid(userUuid string) ([]model.Character, error) {
	var chs []model.Character
	if err := r.db.Where("user_uuid = ? AND is_online = 1", userUuid).Find(&chs).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询在线角色 user_uuid=%s", userUuid)
	}
	return chs, nil
}

// Create 创建角色
func (r *characterRepository) Create(ch *model.Character) error {
	if err := r.db.Create(ch).Error; err != nil {
		return wrapDBError(err, "创建角色")
	}
	return nil
}

// Upsert 按账号更新资料并置为在线，不存在则创建
// 上线即带资料更新，冲突时只覆盖展示字段，归属用户不变
func (r *characterRepository) Upsert(ch *model.Character) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "wx_account"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"nickname", "avatar", "bio", "is_online",
		}),
	}).Create(ch).Error
	if err != nil {
		return wrapDBErrorf(err, "上线角色 account=%s", ch.WxAccount)
	}
	return nil
}

// SetOnline 持久化在线状态转换
// 该列只是落库的最近已知状态，路由始终以 Presence Registry 为准
func (r *characterRepository) SetOnline(account string, online bool, lastSeenMillis int64) error {
	online01 := int8(0)
	if online {
		online01 = 1
	}
	updates := map[string]interface{}{"is_online": online01}
	if !online {
		updates["last_seen"] = lastSeenMillis
	}
	if err := r.db.Model(&model.Character{}).Where("wx_account = ?", account).Updates(updates).Error; err != nil {
		return wrapDBErrorf(err, "更新在线状态 account=%s", account)
	}
	return nil
}

// TouchLastSeen 只刷新 last_seen
// 断连路径走这里：is_online 保持 1，作为"断开时在线"的持久标记，
// 重连 Restore 按它恢复路由；显式 go_offline 才清掉 is_online
func (r *characterRepository) TouchLastSeen(account string, lastSeenMillis int64) error {
	if err := r.db.Model(&model.Character{}).Where("wx_account = ?", account).Update("last_seen", lastSeenMillis).Error; err != nil {
		return wrapDBErrorf(err, "更新 last_seen account=%s", account)
	}
	return nil
}
