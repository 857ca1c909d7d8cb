package model

// GroupInfo 群组模型
// 对应数据库 group_info 表
// 群只要仍被成员或消息引用就存在，解散不在当前范围内
type GroupInfo struct {
	ID uint `gorm:"primarykey"`

	// Uuid 群组唯一标识，G 前缀
	Uuid string `gorm:"column:uuid;uniqueIndex;type:char(20);not null;comment:群组唯一id"`

	// Name 群名称
	Name string `gorm:"column:name;type:varchar(50);not null;comment:群名称"`

	// Avatar 群头像（可选）
	Avatar string `gorm:"column:avatar;type:text;comment:群头像"`

	// CreatorAccount 创建者角色账号
	CreatorAccount string `gorm:"column:creator_account;index;type:varchar(64);not null;comment:创建者账号"`

	// CreatedAt 创建时间（毫秒时间戳）
	CreatedAt int64 `gorm:"column:created_at;type:bigint;not null;comment:创建时间"`
}

// TableName 指定表名
func (GroupInfo) TableName() string {
	return "group_info"
}
