package shortcode

import (
	"crypto/rand"
	"math/big"
)

// Alphabet 仅包含路径中无需百分号编码的字符
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// CodeLength 系统生成的短码长度
const CodeLength = 7

// Generator 随机短码生成器
type Generator struct {
	alphabet string
	length   int
}

func NewGenerator() *Generator {
	return &Generator{
		alphabet: Alphabet,
		length:   CodeLength,
	}
}

// Generate 使用 crypto/rand 生成随机短码
func (g *Generator) Generate() (string, error) {
	b := make([]byte, g.length)
	max := big.NewInt(int64(len(g.alphabet)))

	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = g.alphabet[n.Int64()]
	}
	return string(b), nil
}
