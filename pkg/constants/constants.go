package constants

import "time"

const (
	CHANNEL_SIZE = 100 // 会话出站通道大小

	HEARTBEAT_INTERVAL = 30 * time.Second // 心跳扫描周期，一个周期内未回 pong 即断开
	WRITE_WAIT         = 10 * time.Second // 单帧写超时

	GROUP_AVATAR_MAX_BYTES    = 65000 // 群内人设头像上限，超出部分静默截断
	CHARACTER_AVATAR_MAX_RUNE = 10000 // 全局角色头像上限（字符数），超出整体置空

	TOKEN_EXPIRY_DAYS   = 30 // 登录 token 有效期（天）
	PASSWORD_MIN_LENGTH = 6  // 密码最小长度

	REDIS_TIMEOUT = 1 // 群历史缓存过期（分钟）

	REDPACKET_MIN_CLAIM = 0.01 // 单次领取最小金额（元）
)
