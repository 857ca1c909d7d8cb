// Package redis 提供群聊历史缓存的 Redis 封装
package redis

import (
	"context"
	"time"
)

// CacheService 基础同步缓存操作
type CacheService interface {
	// Set 设置键值对并指定过期时间
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	// Get 获取键对应的值（键不存在返回空字符串和 nil）
	Get(ctx context.Context, key string) (string, error)
	// GetOrError 获取键对应的值（键不存在返回 CodeNotFound 错误）
	GetOrError(ctx context.Context, key string) (string, error)
	// Del 删除键
	Del(ctx context.Context, keys ...string) error
}

// AsyncCacheService 带异步任务队列的缓存服务
// 消息热路径上的缓存维护通过 SubmitTask 转到后台 Worker，
// 不阻塞推送
type AsyncCacheService interface {
	CacheService
	// SubmitTask 提交异步缓存任务，队列满时降级为同步执行
	SubmitTask(task func())
}
