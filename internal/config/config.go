// Package config 提供应用程序的配置加载和管理功能
// 使用 TOML 格式的配置文件，支持多路径查找；数据库与密钥等敏感项
// 可由环境变量（或 .env 文件）覆盖
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// MainConfig 主配置，包含应用基本信息
type MainConfig struct {
	AppName  string `toml:"appName"`  // 应用名称，用于日志标识等
	Host     string `toml:"host"`     // 服务器监听地址，如 "0.0.0.0"
	Port     int    `toml:"port"`     // 服务器监听端口，默认 3000
	ForceTLS bool   `toml:"forceTLS"` // 是否启用 TLS 重定向中间件
}

// MysqlConfig MySQL 数据库连接配置
// host/port/user/databaseName 缺失任何一项视为致命错误，password 可为空
type MysqlConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	DatabaseName string `toml:"databaseName"`
}

// RedisConfig Redis 连接配置
// Host 为空表示禁用缓存，聊天记录查询直接落库
type RedisConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Password string `toml:"password"`
	Db       int    `toml:"db"`
}

// LogConfig 日志配置，使用 lumberjack 进行日志轮转
type LogConfig struct {
	LogPath    string `toml:"logPath"`    // 日志文件存储目录
	FileName   string `toml:"fileName"`   // 日志文件名
	MaxSize    int    `toml:"maxSize"`    // 单个日志文件最大大小（MB）
	MaxBackups int    `toml:"maxBackups"` // 保留旧日志文件的最大个数
	MaxAge     int    `toml:"maxAge"`     // 保留旧日志文件的最大天数
	Level      string `toml:"level"`      // 日志级别：debug, info, warn, error
}

// KafkaConfig 消息归档配置
// messageMode 为 "kafka" 时，每条落库消息会额外发布到归档 topic
type KafkaConfig struct {
	MessageMode  string `toml:"messageMode"`  // "channel"（默认，不归档）或 "kafka"
	HostPort     string `toml:"hostPort"`     // Kafka 服务器地址，如 "localhost:9092"
	ArchiveTopic string `toml:"archiveTopic"` // 归档 topic
}

// JWTConfig JWT 认证配置
type JWTConfig struct {
	Secret     string `toml:"secret"`     // JWT 签名密钥，建议 32 字符以上
	ExpiryDays int    `toml:"expiryDays"` // token 有效期（天）
}

// SnowflakeConfig 雪花算法配置
type SnowflakeConfig struct {
	MachineID int64 `toml:"machineId"` // 节点 ID，范围 0-1023
}

// Config 应用程序总配置，聚合所有子配置
type Config struct {
	MainConfig      `toml:"mainConfig"`
	MysqlConfig     `toml:"mysqlConfig"`
	RedisConfig     `toml:"redisConfig"`
	LogConfig       `toml:"logConfig"`
	KafkaConfig     `toml:"kafkaConfig"`
	JWTConfig       `toml:"jwtConfig"`
	SnowflakeConfig `toml:"snowflakeConfig"`
}

// config 全局配置单例，延迟加载
var config *Config

// LoadConfig 从多个候选路径加载配置文件，再套用环境变量覆盖
// 找到第一个可用的配置文件即停止；文件缺失不算错误（纯环境变量部署）
func LoadConfig() {
	// .env 存在时先注入进程环境（本地开发习惯，grounded on zhulink）
	_ = godotenv.Load()

	paths := []string{
		"configs/config_local.toml",
		"configs/config.toml",
		"../../configs/config_local.toml",
		"../../configs/config.toml",
	}
	for _, path := range paths {
		if _, err := toml.DecodeFile(path, config); err == nil {
			break
		}
	}

	applyEnvOverrides(config)

	if config.MainConfig.Port == 0 {
		config.MainConfig.Port = 3000
	}
	if config.JWTConfig.ExpiryDays == 0 {
		config.JWTConfig.ExpiryDays = 30
	}
	if config.JWTConfig.Secret == "" {
		// 默认密钥只够本地起服，生产环境用 JWT_SECRET 覆盖
		config.JWTConfig.Secret = "roleplay-chat-dev-secret"
	}
}

// applyEnvOverrides 用环境变量覆盖文件配置
// 数据库、端口、密钥均可不落盘，由部署环境注入
func applyEnvOverrides(c *Config) {
	if v := os.Getenv("MYSQL_HOST"); v != "" {
		c.MysqlConfig.Host = v
	}
	if v := os.Getenv("MYSQL_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.MysqlConfig.Port = p
		}
	}
	if v := os.Getenv("MYSQL_USER"); v != "" {
		c.MysqlConfig.User = v
	}
	if v := os.Getenv("MYSQL_PASSWORD"); v != "" {
		c.MysqlConfig.Password = v
	}
	if v := os.Getenv("MYSQL_DATABASE"); v != "" {
		c.MysqlConfig.DatabaseName = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.MainConfig.Port = p
		}
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.JWTConfig.Secret = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.RedisConfig.Host = v
	}
	if v := os.Getenv("KAFKA_HOSTPORT"); v != "" {
		c.KafkaConfig.HostPort = v
	}
}

// Validate 校验启动必需项
// 数据库连接参数缺失是致命错误，由 main 直接退出进程
func (c *Config) Validate() error {
	m := c.MysqlConfig
	if m.Host == "" || m.Port == 0 || m.User == "" || m.DatabaseName == "" {
		return fmt.Errorf("mysql connection parameters are required (host/port/user/databaseName)")
	}
	return nil
}

// GetConfig 获取全局配置实例（单例模式）
// 首次调用时会自动加载配置文件
func GetConfig() *Config {
	if config == nil {
		config = new(Config)
		LoadConfig()
	}
	return config
}
