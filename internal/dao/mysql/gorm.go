// Package mysql 提供数据访问层的初始化和迁移
// 负责建立 MySQL 连接、幂等建表、定向迁移，并装配 Repository 层
package mysql

import (
	"fmt"
	"strings"

	"roleplay_chat_server/internal/config"
	"roleplay_chat_server/internal/dao/mysql/repository"
	"roleplay_chat_server/internal/model"

	"go.uber.org/zap"
	mysqldriver "gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// Init 初始化数据库连接并返回 Repository 层实例
// 连接失败是致命错误，直接退出进程
func Init() *repository.Repositories {
	conf := config.GetConfig()

	// user:password@tcp(host:port)/database?params
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		conf.MysqlConfig.User,
		conf.MysqlConfig.Password,
		conf.MysqlConfig.Host,
		conf.MysqlConfig.Port,
		conf.MysqlConfig.DatabaseName,
	)

	db, err := gorm.Open(mysqldriver.Open(dsn), &gorm.Config{})
	if err != nil {
		zap.L().Fatal("mysql connect failed", zap.Error(err))
	}

	// 连接池约束并发查询
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(5)
	}

	Migrate(db)

	return repository.NewRepositories(db)
}

// Migrate 执行幂等建表和定向迁移
// 顺序：先做群聊三表的结构体检（可能整体重建），再 AutoMigrate，
// 最后把内容/头像列拓宽到大文本
func Migrate(db *gorm.DB) {
	ensureGroupChatTables(db)

	err := db.AutoMigrate(
		&model.UserInfo{},
		&model.Character{},
		&model.Friendship{},
		&model.FriendRequest{},
		&model.OfflineMessage{},
		&model.GroupInfo{},
		&model.GroupMember{},
		&model.GroupMessage{},
	)
	if err != nil {
		zap.L().Fatal("auto migrate failed", zap.Error(err))
	}

	widenTextColumns(db)
}

// groupMemberRequiredColumns 群成员表的必需列及可接受的列类型关键字
// （任何 text 类型的列也一律接受）；缺列或类型不符都视为结构损坏
var groupMemberRequiredColumns = map[string]string{
	"group_uuid":       "char",
	"user_account":     "char",
	"character_name":   "char",
	"character_avatar": "text",
	"character_desc":   "text",
}

// ensureGroupChatTables 校验群聊三表结构
// group_member 缺列或列类型不符时，整体删除并重建
// group_member / group_message / group_info 三张表。
// 这是破坏性的：群聊历史目前不保证跨迁移持久，单聊历史永不在此列
func ensureGroupChatTables(db *gorm.DB) {
	migrator := db.Migrator()
	if !migrator.HasTable(&model.GroupMember{}) {
		return // 全新库，交给 AutoMigrate 建表
	}

	broken := false
	columnTypes, err := migrator.ColumnTypes(&model.GroupMember{})
	if err != nil {
		zap.L().Warn("inspect group_member columns failed", zap.Error(err))
		broken = true
	} else {
		found := make(map[string]string, len(columnTypes))
		for _, ct := range columnTypes {
			found[ct.Name()] = strings.ToLower(ct.DatabaseTypeName())
		}
		for col, want := range groupMemberRequiredColumns {
			got, ok := found[col]
			if !ok {
				zap.L().Warn("group_member missing column", zap.String("column", col))
				broken = true
				break
			}
			if !strings.Contains(got, want) && !strings.Contains(got, "text") {
				zap.L().Warn("group_member column mistyped",
					zap.String("column", col), zap.String("type", got))
				broken = true
				break
			}
		}
	}

	if !broken {
		return
	}

	zap.L().Warn("group chat tables structurally incompatible, dropping and recreating group_member/group_message/group_info")
	if err := migrator.DropTable(&model.GroupMember{}, &model.GroupMessage{}, &model.GroupInfo{}); err != nil {
		zap.L().Fatal("drop group chat tables failed", zap.Error(err))
	}
}

// widenTextColumns 把历史部署里可能偏窄的列拓到大文本
// AlterColumn 按模型 tag 重建列定义，对已是目标类型的列是幂等的
func widenTextColumns(db *gorm.DB) {
	migrator := db.Migrator()
	widen := []struct {
		model  interface{}
		column string
	}{
		{&model.GroupMessage{}, "content"},
		{&model.OfflineMessage{}, "content"},
		{&model.Character{}, "avatar"},
		{&model.GroupMember{}, "character_avatar"},
	}
	for _, w := range widen {
		if err := migrator.AlterColumn(w.model, w.column); err != nil {
			zap.L().Warn("widen column failed", zap.String("column", w.column), zap.Error(err))
		}
	}
}
