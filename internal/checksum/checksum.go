package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashLength длина хранимого хеша (hex символов)
const HashLength = 16

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// GenerateContentHash хеш тела поста: первые 16 hex-символов SHA256
func (g *Generator) GenerateContentHash(bodyHTML string) string {
	sum := sha256.Sum256([]byte(bodyHTML))
	return hex.EncodeToString(sum[:])[:HashLength]
}

// VerifyContentHash проверяет, что тело поста не изменилось
func (g *Generator) VerifyContentHash(expectedHash, bodyHTML string) bool {
	return expectedHash != "" && g.GenerateContentHash(bodyHTML) == expectedHash
}
