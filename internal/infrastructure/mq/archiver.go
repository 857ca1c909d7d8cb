// Package mq 提供消息归档管道
// messageMode 为 "kafka" 时，每条落库的单聊/群聊消息会额外发布到
// 归档 topic，供进程外的分析/归档消费方使用；发布失败只记日志，
// 绝不影响在线投递
package mq

import (
	"context"
	"encoding/json"

	"roleplay_chat_server/internal/config"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Archiver 消息归档器
// 只有生产者：本进程从不消费自己的归档 topic（单节点，无联邦）
type Archiver struct {
	producer *kafka.Writer
}

// ArchiveRecord 归档记录
type ArchiveRecord struct {
	Kind      string `json:"kind"` // "direct" 或 "group"
	MessageID string `json:"message_id"`
	From      string `json:"from"`
	To        string `json:"to"` // 单聊为账号，群聊为群 ID
	Content   string `json:"content"`
	CreatedAt int64  `json:"created_at"`
}

// NewArchiver 按配置创建归档器
// messageMode 不是 "kafka" 时返回 nil，调用方判空跳过
func NewArchiver() *Archiver {
	conf := config.GetConfig().KafkaConfig
	if conf.MessageMode != "kafka" {
		return nil
	}
	topic := conf.ArchiveTopic
	if topic == "" {
		topic = "chat_archive"
	}
	return &Archiver{
		producer: &kafka.Writer{
			Addr:                   kafka.TCP(conf.HostPort),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireNone,
			AllowAutoTopicCreation: true,
		},
	}
}

// Archive 发布一条归档记录
// 热路径上以 goroutine 调用，失败只记日志
func (a *Archiver) Archive(rec ArchiveRecord) {
	if a == nil {
		return
	}
	value, err := json.Marshal(rec)
	if err != nil {
		zap.L().Error("marshal archive record failed", zap.Error(err))
		return
	}
	err = a.producer.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(rec.To),
		Value: value,
	})
	if err != nil {
		zap.L().Error("archive publish failed", zap.Error(err))
	}
}

// Close 关闭生产者
func (a *Archiver) Close() {
	if a == nil {
		return
	}
	if err := a.producer.Close(); err != nil {
		zap.L().Error(err.Error())
	}
}
