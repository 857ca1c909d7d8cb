package model

// OfflineMessage 离线消息模型
// 对应数据库 offline_message 表
// 仅当发送时接收方不可达才会创建；接收方下次上线按 created_at
// 升序推送后整批置为已投递。推送成功但标记失败时允许重复投递，
// 接收端需要容忍重复
type OfflineMessage struct {
	ID uint `gorm:"primarykey"`

	// Uuid 消息雪花 ID
	Uuid int64 `gorm:"column:uuid;uniqueIndex;type:bigint;not null;comment:消息雪花ID"`

	// FromAccount 发送方角色账号
	FromAccount string `gorm:"column:from_account;index;type:varchar(64);not null;comment:发送方账号"`

	// ToAccount 接收方角色账号
	ToAccount string `gorm:"column:to_account;index;type:varchar(64);not null;comment:接收方账号"`

	// Content 消息内容，大文本存储
	Content string `gorm:"column:content;type:longtext;comment:消息内容"`

	// CreatedAt 发送时间（毫秒时间戳），投递顺序按它升序
	CreatedAt int64 `gorm:"column:created_at;type:bigint;not null;comment:发送时间"`

	// Delivered 是否已投递，0.未投递，1.已投递
	Delivered int8 `gorm:"column:delivered;not null;default:0;comment:是否已投递"`
}

// TableName 指定表名
func (OfflineMessage) TableName() string {
	return "offline_message"
}
