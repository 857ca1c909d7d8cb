package model

// GroupMember 群成员模型
// 对应数据库 group_member 表
// 成员以角色账号标识，携带群内人设（与全局 Character 无关，可以为空）；
// (group_uuid, user_account) 复合唯一
type GroupMember struct {
	ID uint `gorm:"primarykey"`

	GroupUuid   string `gorm:"column:group_uuid;uniqueIndex:idx_group_account;type:char(20);not null;comment:群组id"`
	UserAccount string `gorm:"column:user_account;uniqueIndex:idx_group_account;type:varchar(64);not null;comment:成员账号"`

	// CharacterName 群内人设名
	CharacterName string `gorm:"column:character_name;type:varchar(50);comment:群内人设名"`

	// CharacterAvatar 群内人设头像
	// 上限 65000 字节，超出静默截断
	CharacterAvatar string `gorm:"column:character_avatar;type:text;comment:群内人设头像"`

	// CharacterDesc 群内人设描述
	CharacterDesc string `gorm:"column:character_desc;type:text;comment:群内人设描述"`

	// JoinedAt 入群时间（毫秒时间戳）
	JoinedAt int64 `gorm:"column:joined_at;type:bigint;not null;comment:入群时间"`
}

// TableName 指定表名
func (GroupMember) TableName() string {
	return "group_member"
}
