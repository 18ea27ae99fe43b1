package eligibility

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hasher は個人識別番号の一方向ダイジェストを計算します。
// 取り込み時と照会時で同じ Hasher を使う必要があります。
type Hasher struct {
	key []byte
}

// NewHasher は Hasher を生成します。key が空の場合は SHA-256、それ以外は HMAC-SHA256 を使います。
func NewHasher(key string) Hasher {
	if key == "" {
		return Hasher{}
	}
	return Hasher{key: []byte(key)}
}

// Hash は前後の空白を除いた値の 16 進ダイジェストを返します。
func (h Hasher) Hash(raw string) string {
	value := []byte(strings.TrimSpace(raw))
	if len(h.key) == 0 {
		sum := sha256.Sum256(value)
		return hex.EncodeToString(sum[:])
	}
	mac := hmac.New(sha256.New, h.key)
	mac.Write(value)
	return hex.EncodeToString(mac.Sum(nil))
}
