package model

import "time"

// NowMillis 当前毫秒时间戳
// 所有实体的时间列统一为毫秒 epoch 整数，wire 上原样下发
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
