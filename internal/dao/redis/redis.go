// Package redis 提供群聊历史缓存的 Redis 封装
// 本文件仅包含连接初始化逻辑
package redis

import (
	"strconv"

	"roleplay_chat_server/internal/config"

	"github.com/go-redis/redis/v8"
)

// redisClient 全局 Redis 客户端实例（包内可见）
var redisClient *redis.Client

// cacheService 全局缓存服务实例
var cacheService AsyncCacheService

// Init 初始化 Redis 连接
// Host 为空表示禁用缓存，返回 nil 服务，调用方需要判空降级
func Init() AsyncCacheService {
	conf := config.GetConfig()
	if conf.RedisConfig.Host == "" {
		return nil
	}

	addr := conf.RedisConfig.Host + ":" + strconv.Itoa(conf.RedisConfig.Port)
	redisClient = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: conf.RedisConfig.Password,
		DB:       conf.RedisConfig.Db,
		// 连接池与数据库连接池同量级
		PoolSize:     10,
		MinIdleConns: 4,
	})

	cacheService = NewRedisCache(redisClient, 4, 1000)
	return cacheService
}

// GetCacheService 获取缓存服务实例，未启用时为 nil
func GetCacheService() AsyncCacheService {
	return cacheService
}
