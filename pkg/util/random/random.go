package random

import (
	"crypto/rand"
	"math/big"
)

// Float64 生成 [0,1) 的安全随机浮点数
// 红包的 lucky 模式用它抽取随机份额
func Float64() float64 {
	const precision = 1 << 53
	n, err := rand.Int(rand.Reader, big.NewInt(precision))
	if err != nil {
		return 0.5 // fallback
	}
	return float64(n.Int64()) / float64(precision)
}

// String 生成指定长度的字母数字随机字符串
func String(length int) string {
	result := make([]byte, length)
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	charsetLen := big.NewInt(int64(len(charset)))
	for i := range result {
		n, err := rand.Int(rand.Reader, charsetLen)
		if err != nil {
			result[i] = 'x'
			continue
		}
		result[i] = charset[n.Int64()]
	}
	return string(result)
}
