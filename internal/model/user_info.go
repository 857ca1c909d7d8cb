// Package model 定义数据库实体模型
// 本文件定义用户信息模型，包含账号资料和认证信息
package model

import (
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserInfo 用户信息模型
// 对应数据库 user_info 表
// 一个用户可以拥有多个角色（Character），角色才是消息路由的主体
type UserInfo struct {
	ID uint `gorm:"primarykey"`

	// Uuid 用户唯一标识
	Uuid string `gorm:"column:uuid;uniqueIndex;type:char(36);not null;comment:用户唯一id"`

	// Username 登录用户名，全局唯一
	// 合法形状 [A-Za-z0-9_]{3,20}，入库前由服务层校验
	Username string `gorm:"column:username;uniqueIndex;type:varchar(20);not null;comment:用户名"`

	// Email 邮箱地址（可选）
	Email string `gorm:"column:email;type:varchar(60);comment:邮箱"`

	// Password 密码（已哈希）
	// 存储 bcrypt 哈希后的密码，不存储明文
	Password string `gorm:"column:password;type:varchar(100);not null;comment:密码"`

	// CreatedAt 注册时间（毫秒时间戳）
	CreatedAt int64 `gorm:"column:created_at;type:bigint;not null;comment:注册时间"`

	// LastLogin 上次登录时间（毫秒时间戳）
	LastLogin int64 `gorm:"column:last_login;type:bigint;comment:上次登录时间"`

	// RawPassword 明文密码（不存入数据库）
	// 用于接收前端传来的明文密码，在 BeforeSave 中加密
	RawPassword string `gorm:"-" json:"-"`
}

// TableName 指定表名
func (UserInfo) TableName() string {
	return "user_info"
}

// BeforeSave GORM Hook：在创建和更新前自动调用
// 将 RawPassword 明文密码加密后存入 Password 字段
func (u *UserInfo) BeforeSave(tx *gorm.DB) (err error) {
	if u.RawPassword != "" {
		// bcrypt DefaultCost=10
		hash, err := bcrypt.GenerateFromPassword([]byte(u.RawPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		u.Password = string(hash)
		u.RawPassword = ""
	}
	return nil
}

// CheckPassword 校验密码是否正确
// bcrypt 的比较本身是常数时间的
func (u *UserInfo) CheckPassword(plaintext string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plaintext))
	return err == nil
}
