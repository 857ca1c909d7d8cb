package model

// 好友申请状态
const (
	RequestPending  int8 = 0 // 申请中
	RequestAccepted int8 = 1 // 已通过
	RequestRejected int8 = 2 // 已拒绝
)

// FriendRequest 好友申请模型
// 对应数据库 friend_request 表
// 状态只允许 pending -> accepted|rejected 迁移一次，
// 通过时幂等地建立 Friendship
type FriendRequest struct {
	ID uint `gorm:"primarykey"`

	// Uuid 申请唯一标识
	Uuid string `gorm:"column:uuid;uniqueIndex;type:char(36);not null;comment:申请id"`

	// FromAccount 发起方角色账号
	FromAccount string `gorm:"column:from_account;index;type:varchar(64);not null;comment:发起方账号"`

	// ToAccount 目标角色账号
	ToAccount string `gorm:"column:to_account;index;type:varchar(64);not null;comment:目标账号"`

	// Message 申请附言
	Message string `gorm:"column:message;type:varchar(200);comment:申请附言"`

	// Status 申请状态，0.申请中，1.通过，2.拒绝
	Status int8 `gorm:"column:status;not null;default:0;comment:申请状态"`

	// CreatedAt / UpdatedAt 毫秒时间戳
	CreatedAt int64 `gorm:"column:created_at;type:bigint;not null;comment:申请时间"`
	UpdatedAt int64 `gorm:"column:updated_at;type:bigint;comment:处理时间"`
}

// TableName 指定表名
func (FriendRequest) TableName() string {
	return "friend_request"
}
