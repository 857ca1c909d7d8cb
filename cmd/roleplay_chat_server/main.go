package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"roleplay_chat_server/internal/config"
	dao "roleplay_chat_server/internal/dao/mysql"
	myredis "roleplay_chat_server/internal/dao/redis"
	"roleplay_chat_server/internal/gateway/websocket"
	"roleplay_chat_server/internal/infrastructure/logger"
	"roleplay_chat_server/internal/infrastructure/mq"
	"roleplay_chat_server/internal/router"
	"roleplay_chat_server/internal/service/contact"
	"roleplay_chat_server/internal/service/group"
	"roleplay_chat_server/internal/service/presence"
	"roleplay_chat_server/internal/service/redpacket"
	"roleplay_chat_server/internal/service/user"
	"roleplay_chat_server/pkg/util/jwt"
	"roleplay_chat_server/pkg/util/snowflake"

	"go.uber.org/zap"
)

func main() {
	// 1. 加载配置，启动必需项缺失直接退出
	conf := config.GetConfig()
	if err := conf.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	// 2. 初始化日志
	if err := logger.Init(&conf.LogConfig, "dev"); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	zap.L().Info("日志初始化成功")

	// 3. 初始化数据库（连接失败 Fatal）
	repos := dao.Init()
	zap.L().Info("数据库初始化成功")

	// 4. 初始化 Redis（未配置则禁用缓存）
	cache := myredis.Init()
	if cache != nil {
		zap.L().Info("Redis 初始化成功")
	} else {
		zap.L().Info("Redis 未配置，群历史缓存禁用")
	}

	// 5. 初始化 JWT 与雪花节点
	jwt.Init(conf.JWTConfig.Secret, conf.JWTConfig.ExpiryDays)
	snowflake.Init(conf.SnowflakeConfig.MachineID)
	zap.L().Info("JWT / Snowflake 初始化成功")

	// 6. 消息归档（仅 kafka 模式）
	archiver := mq.NewArchiver()
	if archiver != nil {
		zap.L().Info("Kafka 消息归档已启用")
	}

	// 7. 装配服务层
	registry := presence.NewRegistry(repos.Character)
	userSvc := user.NewService(repos.User, registry)
	contactSvc := contact.NewService(repos.Character, repos.Friendship,
		repos.FriendRequest, repos.OfflineMessage, registry, archiver)
	groupSvc := group.NewService(repos, registry, cache, archiver)
	redpacketSvc := redpacket.NewService(repos.GroupMessage, groupSvc, registry)

	// 8. 装配网关
	dispatcher := websocket.NewDispatcher()
	websocket.RegisterHandlers(dispatcher, registry, websocket.Services{
		Users:      userSvc,
		Contacts:   contactSvc,
		Groups:     groupSvc,
		Redpackets: redpacketSvc,
	})
	hub := websocket.NewHub(registry, dispatcher)
	go hub.Run()
	zap.L().Info("ChatServer 初始化成功")

	// 9. 启动 HTTP 服务
	engine := router.NewEngine(hub)
	host := conf.MainConfig.Host
	port := conf.MainConfig.Port
	go func() {
		if err := engine.Run(fmt.Sprintf("%s:%d", host, port)); err != nil {
			zap.L().Fatal("server running fault", zap.Error(err))
		}
	}()
	zap.L().Info("服务已启动", zap.String("host", host), zap.Int("port", port))

	// 信号驱动的优雅退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zap.L().Info("关闭服务器...")
	hub.Close()
	archiver.Close()
	zap.L().Info("服务器已关闭")
}
