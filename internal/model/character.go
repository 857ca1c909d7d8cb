package model

// Character 角色模型
// 对应数据库 character 表
// 角色归属于唯一的用户，wx_account 是全局唯一的路由键
type Character struct {
	ID uint `gorm:"primarykey"`

	// Uuid 角色唯一标识
	Uuid string `gorm:"column:uuid;uniqueIndex;type:char(36);not null;comment:角色唯一id"`

	// UserUuid 归属用户
	UserUuid string `gorm:"column:user_uuid;index;type:char(36);not null;comment:归属用户id"`

	// WxAccount 角色账号，全局唯一
	// 检索按大小写不敏感匹配，存储保留原始大小写
	WxAccount string `gorm:"column:wx_account;uniqueIndex;type:varchar(64);not null;comment:角色账号"`

	// Nickname 角色昵称
	Nickname string `gorm:"column:nickname;type:varchar(50);comment:昵称"`

	// Avatar 角色头像，大文本存储
	// 上线时超过 10000 字符整体置空（不截断）
	Avatar string `gorm:"column:avatar;type:longtext;comment:头像"`

	// Bio 角色设定/简介
	// 检索结果不返回该字段，保护角色隐私
	Bio string `gorm:"column:bio;type:text;comment:角色设定"`

	// IsOnline 最近一次持久化的在线状态
	// 路由判定以 Presence Registry 为准，该列只是落库的最近已知值
	IsOnline int8 `gorm:"column:is_online;not null;default:0;comment:是否在线"`

	// LastSeen 最近离线时间（毫秒时间戳）
	LastSeen int64 `gorm:"column:last_seen;type:bigint;comment:最近离线时间"`

	// CreatedAt 创建时间（毫秒时间戳）
	CreatedAt int64 `gorm:"column:created_at;type:bigint;not null;comment:创建时间"`
}

// TableName 指定表名
func (Character) TableName() string {
	return "character"
}
