package snowflake

import (
	"sync"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
)

var (
	node     *snowflake.Node
	nodeOnce sync.Once
	machine  int64 = 1
)

// Init 初始化雪花算法节点
// 应在程序启动时调用一次，machineID 取值 0-1023
func Init(machineID int64) {
	machine = machineID
	nodeOnce.Do(func() {
		if machine < 0 || machine > 1023 {
			machine = 1
			zap.L().Warn("invalid snowflake machineID, using default 1")
		}
		var err error
		node, err = snowflake.NewNode(machine)
		if err != nil {
			zap.L().Fatal("failed to initialize snowflake node", zap.Error(err))
		}
	})
}

// GenerateID 生成雪花 ID (int64)
// 用于消息主键，bigint 列存储
func GenerateID() int64 {
	if node == nil {
		Init(machine)
	}
	return node.Generate().Int64()
}

// GenerateIDString 生成雪花 ID (string)
// wire 上以字符串传递，避免 JavaScript 精度丢失
func GenerateIDString() string {
	if node == nil {
		Init(machine)
	}
	return node.Generate().String()
}
