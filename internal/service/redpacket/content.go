// Package redpacket 实现红包领取协议
package redpacket

import (
	"math"

	"roleplay_chat_server/pkg/constants"
)

// 红包类型
const (
	TypeLucky   = "lucky"   // 拼手气：随机份额
	TypeAverage = "average" // 平均：等额份额
)

// Content 红包消息的结构化 content
// 整体序列化后存在群消息的 content 列里；读-改-写必须在
// 对应消息锁内进行
type Content struct {
	TotalAmount    float64            `json:"totalAmount"`
	Count          int                `json:"count"`
	RedpacketType  string             `json:"redpacketType"`
	Claimed        []string           `json:"claimed"`
	ClaimedAmounts map[string]float64 `json:"claimedAmounts"`
}

// round2 金额保留两位小数
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// HasClaimed 账号是否已领取过
func (c *Content) HasClaimed(account string) bool {
	for _, a := range c.Claimed {
		if a == account {
			return true
		}
	}
	return false
}

// RemainingCount 剩余份数
func (c *Content) RemainingCount() int {
	return c.Count - len(c.Claimed)
}

// RemainingAmount 剩余金额
func (c *Content) RemainingAmount() float64 {
	already := 0.0
	for _, amt := range c.ClaimedAmounts {
		already += amt
	}
	return c.TotalAmount - already
}

// ComputeClaim 计算本次可领金额
// average：剩余金额按剩余份数均分；
// lucky：最后一份全拿，否则在 [0.01, maxDraw] 均匀抽取后乘 0.8，
// maxDraw 给每个剩余份额预留 0.01 的下限。
// rng 返回 [0,1) 的随机数，注入以便测试
func (c *Content) ComputeClaim(rng func() float64) float64 {
	remainingCount := c.RemainingCount()
	remainingAmount := c.RemainingAmount()

	if c.RedpacketType == TypeAverage {
		return round2(remainingAmount / float64(remainingCount))
	}

	// lucky
	if remainingCount == 1 {
		return round2(remainingAmount)
	}
	maxDraw := remainingAmount - float64(remainingCount-1)*constants.REDPACKET_MIN_CLAIM
	amount := constants.REDPACKET_MIN_CLAIM + rng()*(maxDraw-constants.REDPACKET_MIN_CLAIM)
	amount *= 0.8
	if amount > maxDraw {
		amount = maxDraw
	}
	if amount < constants.REDPACKET_MIN_CLAIM {
		amount = constants.REDPACKET_MIN_CLAIM
	}
	return round2(amount)
}

// Record 记录一次领取
func (c *Content) Record(account string, amount float64) {
	c.Claimed = append(c.Claimed, account)
	if c.ClaimedAmounts == nil {
		c.ClaimedAmounts = make(map[string]float64)
	}
	c.ClaimedAmounts[account] = amount
}
