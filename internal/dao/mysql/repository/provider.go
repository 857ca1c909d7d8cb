// Package repository 提供 Repository 层聚合与构造
package repository

import (
	"gorm.io/gorm"
)

// Repositories 聚合所有 Repository 实例
// 作为依赖注入的入口，Service 层通过此结构访问数据层
type Repositories struct {
	db             *gorm.DB
	User           UserRepository
	Character      CharacterRepository
	Friendship     FriendshipRepository
	FriendRequest  FriendRequestRepository
	OfflineMessage OfflineMessageRepository
	Group          GroupRepository
	GroupMember    GroupMemberRepository
	GroupMessage   GroupMessageRepository
}

// NewRepositories 创建所有 Repository 实例
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:             db,
		User:           NewUserRepository(db),
		Character:      NewCharacterRepository(db),
		Friendship:     NewFriendshipRepository(db),
		FriendRequest:  NewFriendRequestRepository(db),
		OfflineMessage: NewOfflineMessageRepository(db),
		Group:          NewGroupRepository(db),
		GroupMember:    NewGroupMemberRepository(db),
		GroupMessage:   NewGroupMessageRepository(db),
	}
}

// Transaction 在数据库事务中执行函数
// 事务内的所有操作要么全部成功，要么全部回滚
// fn 收到的是绑定事务连接的 Repositories 实例
func (r *Repositories) Transaction(fn func(txRepos *Repositories) error) error {
	if r.db == nil {
		// 内存组合（测试替身）没有事务语义，原地执行
		return fn(r)
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}
