package model

// 群消息发送者类型
const (
	SenderTypeUser      = "user"      // 以用户身份发言
	SenderTypeCharacter = "character" // 以群内人设发言
	SenderTypeSystem    = "system"    // 系统消息（红包领取播报等）
)

// 群消息类型
const (
	MsgTypeText      = "text"
	MsgTypeImage     = "image"
	MsgTypeRedpacket = "redpacket"
	MsgTypeSystem    = "system"
)

// GroupMessage 群消息模型
// 对应数据库 group_message 表
// sender_type 为 character 时 character_name 必须等于发送者当时的群内人设名
type GroupMessage struct {
	ID uint `gorm:"primarykey"`

	// Uuid 消息雪花 ID
	Uuid int64 `gorm:"column:uuid;uniqueIndex;type:bigint;not null;comment:消息雪花ID"`

	// GroupUuid 所属群组
	GroupUuid string `gorm:"column:group_uuid;index;type:char(20);not null;comment:群组id"`

	// SenderType 发送者类型：user / character / system
	SenderType string `gorm:"column:sender_type;type:varchar(16);not null;comment:发送者类型"`

	// SenderAccount 发送者角色账号（system 消息可为空）
	SenderAccount string `gorm:"column:sender_account;index;type:varchar(64);comment:发送者账号"`

	// SenderName 发送者显示名，冗余存储避免回查
	SenderName string `gorm:"column:sender_name;type:varchar(50);comment:发送者显示名"`

	// CharacterName 发送时的群内人设名（仅 character 类型）
	CharacterName string `gorm:"column:character_name;type:varchar(50);comment:人设名"`

	// Content 消息内容，大文本存储
	// 红包消息的 content 是结构化 JSON（RedpacketContent）
	Content string `gorm:"column:content;type:longtext;comment:消息内容"`

	// MsgType 消息类型：text / image / redpacket / system
	MsgType string `gorm:"column:msg_type;type:varchar(16);not null;comment:消息类型"`

	// CreatedAt 发送时间（毫秒时间戳）
	CreatedAt int64 `gorm:"column:created_at;type:bigint;not null;comment:发送时间"`
}

// TableName 指定表名
func (GroupMessage) TableName() string {
	return "group_message"
}
