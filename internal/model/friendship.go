package model

// Friendship 好友关系模型
// 对应数据库 friendship 表
// 关系是对称的：入库前把两个账号按字典序归一化到 (AccountA < AccountB)，
// 配合复合唯一索引保证同一对账号至多一行
type Friendship struct {
	ID uint `gorm:"primarykey"`

	AccountA string `gorm:"column:account_a;uniqueIndex:idx_friend_pair;type:varchar(64);not null;comment:账号A(字典序小)"`
	AccountB string `gorm:"column:account_b;uniqueIndex:idx_friend_pair;type:varchar(64);not null;comment:账号B(字典序大)"`

	// CreatedAt 成为好友时间（毫秒时间戳）
	CreatedAt int64 `gorm:"column:created_at;type:bigint;not null;comment:成为好友时间"`
}

// TableName 指定表名
func (Friendship) TableName() string {
	return "friendship"
}

// NormalizePair 把无序账号对归一化为 (小, 大)
func NormalizePair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}
