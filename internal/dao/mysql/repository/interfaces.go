// Package repository 定义数据访问层接口和聚合结构
// 采用 Repository 模式将数据访问逻辑与业务逻辑分离
// 所有 Repository 接口在此文件定义，具体实现在各自的文件中
package repository

import (
	"errors"

	"roleplay_chat_server/internal/model"
	"roleplay_chat_server/pkg/errorx"

	"gorm.io/gorm"
)

// ==================== 错误包装辅助函数 ====================

// wrapDBError 包装数据库错误
// ErrRecordNotFound -> CodeNotFound，其余 -> CodeInternal
func wrapDBError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errorx.Wrap(err, errorx.CodeNotFound, msg)
	}
	return errorx.Wrap(err, errorx.CodeInternal, msg)
}

// wrapDBErrorf 包装数据库错误（支持格式化消息）
func wrapDBErrorf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errorx.Wrapf(err, errorx.CodeNotFound, format, args...)
	}
	return errorx.Wrapf(err, errorx.CodeInternal, format, args...)
}

// ==================== Repository 接口定义 ====================

// UserRepository 用户数据访问接口
type UserRepository interface {
	// FindByUuid 根据 UUID 查找用户
	FindByUuid(uuid string) (*model.UserInfo, error)
	// FindByUsername 根据用户名查找用户
	FindByUsername(username string) (*model.UserInfo, error)
	// Create 创建新用户
	Create(user *model.UserInfo) error
	// UpdateLastLogin 更新上次登录时间
	UpdateLastLogin(uuid string, millis int64) error
}

// CharacterRepository 角色数据访问接口
type CharacterRepository interface {
	// FindByAccount 按账号精确查找
	FindByAccount(account string) (*model.Character, error)
	// FindByAccountFold 按账号大小写不敏感查找（好友检索用）
	FindByAccountFold(account string) (*model.Character, error)
	// FindByAccounts 批量按账号查找
	FindByAccounts(accounts []string) ([]model.Character, error)
	// FindOnlineByUserUuid 查找用户所有 is_online=1 的角色（重连恢复用）
	FindOnlineByUserUuid(userUuid string) ([]model.Character, error)
	// Create 创建角色
	Create(ch *model.Character) error
	// Upsert 按账号更新资料并置为在线，不存在则创建
	Upsert(ch *model.Character) error
	// SetOnline 持久化在线状态转换
	SetOnline(account string, online bool, lastSeenMillis int64) error
	// TouchLastSeen 只刷新 last_seen，不动 is_online
	// 断连清理用：is_online=1 留作"断开时在线"的标记，供重连恢复
	TouchLastSeen(account string, lastSeenMillis int64) error
}

// FriendshipRepository 好友关系数据访问接口
// 所有方法内部都以归一化的账号对工作
type FriendshipRepository interface {
	// Exists 两账号是否已是好友（对称检查）
	Exists(accountA, accountB string) (bool, error)
	// Create 幂等地建立好友关系
	Create(accountA, accountB string, millis int64) error
	// FindPartners 返回某账号的全部好友账号
	FindPartners(account string) ([]string, error)
}

// FriendRequestRepository 好友申请数据访问接口
type FriendRequestRepository interface {
	// Create 创建申请
	Create(req *model.FriendRequest) error
	// FindByUuid 按申请 ID 查找
	FindByUuid(uuid string) (*model.FriendRequest, error)
	// FindPendingByToAccount 某账号收到的全部待处理申请
	FindPendingByToAccount(account string) ([]model.FriendRequest, error)
	// Transition 把 pending 状态迁移为目标状态
	// 只有当前仍为 pending 才会生效，返回是否迁移成功（exactly-once 保证）
	Transition(uuid string, to int8, millis int64) (bool, error)
}

// OfflineMessageRepository 离线消息数据访问接口
type OfflineMessageRepository interface {
	// Create 入队一条离线消息
	Create(msg *model.OfflineMessage) error
	// FindUndelivered 某账号的全部未投递消息，created_at 升序
	FindUndelivered(account string) ([]model.OfflineMessage, error)
	// MarkDelivered 整批置为已投递
	MarkDelivered(uuids []int64) error
	// CountUndelivered 未投递数量（测试与诊断用）
	CountUndelivered(account string) (int64, error)
}

// GroupRepository 群组数据访问接口
type GroupRepository interface {
	// FindByUuid 按群 ID 查找
	FindByUuid(uuid string) (*model.GroupInfo, error)
	// FindByUuids 批量按群 ID 查找
	FindByUuids(uuids []string) ([]model.GroupInfo, error)
	// Create 创建群组
	Create(group *model.GroupInfo) error
	// Delete 删除群组（建群走事务，不经过它）
	Delete(uuid string) error
}

// GroupMemberRepository 群成员数据访问接口
type GroupMemberRepository interface {
	// FindByGroupUuid 群的全部成员
	FindByGroupUuid(groupUuid string) ([]model.GroupMember, error)
	// FindByGroupAndAccount 成员关系查找（成员资格检查）
	FindByGroupAndAccount(groupUuid, account string) (*model.GroupMember, error)
	// FindGroupUuidsByAccount 某账号加入的全部群 ID
	FindGroupUuidsByAccount(account string) ([]string, error)
	// Create 添加群成员
	Create(member *model.GroupMember) error
	// Upsert 添加成员，已存在则更新人设
	Upsert(member *model.GroupMember) error
	// UpdatePersona 修改群内人设
	UpdatePersona(groupUuid, account, name, avatar, desc string) error
}

// GroupMessageRepository 群消息数据访问接口
type GroupMessageRepository interface {
	// Create 持久化群消息
	Create(msg *model.GroupMessage) error
	// FindByUuid 按消息雪花 ID 查找（红包领取要重读当前行）
	FindByUuid(uuid int64) (*model.GroupMessage, error)
	// FindSince 某时间之后的消息（不含边界），created_at 升序
	FindSince(groupUuid string, sinceMillis int64) ([]model.GroupMessage, error)
	// FindRecent 最近 n 条，升序返回
	FindRecent(groupUuid string, n int) ([]model.GroupMessage, error)
	// FindAll 全量历史，created_at 升序
	FindAll(groupUuid string) ([]model.GroupMessage, error)
	// UpdateContent 覆写消息 content（红包状态持久化）
	UpdateContent(uuid int64, content string) error
}
