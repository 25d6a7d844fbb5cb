package crypto

import (
	"crypto/hmac"
	"encoding/hex"
	"fmt"
)

// Mac 定长缓冲区 + 长度，承载摘要/PRF/完整性输出
type Mac struct {
	buf [MaxDigestSize]byte
	len int
}

// NewMac 从字节构造，超过 MaxDigestSize 属于编程错误
func NewMac(b []byte) Mac {
	if len(b) > MaxDigestSize {
		panic(fmt.Sprintf("crypto: MAC 长度 %d 超过 %d", len(b), MaxDigestSize))
	}
	var m Mac
	m.len = copy(m.buf[:], b)
	return m
}

func (m Mac) Len() int { return m.len }

func (m Mac) Bytes() []byte { return m.buf[:m.len] }

// Equal 常数时间比较
func (m Mac) Equal(b []byte) bool {
	return hmac.Equal(m.buf[:m.len], b)
}

func (m Mac) String() string { return hex.EncodeToString(m.buf[:m.len]) }
