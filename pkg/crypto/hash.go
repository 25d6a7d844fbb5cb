package crypto

import (
	"fmt"
	"hash"

	"go.uber.org/zap"

	"github.com/iniwex5/ikekeys/pkg/logger"
)

func clog() *zap.Logger { return logger.Named("crypt") }

// Hash 流式摘要上下文，Final* 之后不可再用
type Hash struct {
	name string
	desc *HashDesc
	h    hash.Hash
}

// NewHash 创建摘要上下文
func NewHash(name string, desc *HashDesc) (*Hash, error) {
	if desc == nil || desc.newHash == nil {
		return nil, fmt.Errorf("%w: 哈希 %s", ErrAlgorithmUnavailable, name)
	}
	clog().Debug("hash init", logger.String("name", name), logger.String("alg", desc.Name))
	return &Hash{name: name, desc: desc, h: desc.newHash()}, nil
}

func (h *Hash) live() hash.Hash {
	if h.h == nil {
		panic(fmt.Sprintf("crypto: 哈希上下文 %s 已完成", h.name))
	}
	return h.h
}

// DigestBytes 追加数据
func (h *Hash) DigestBytes(name string, b []byte) {
	clog().Debug("hash digest bytes", logger.String("name", h.name), logger.String("input", name), logger.Int("len", len(b)))
	h.live().Write(b)
}

func (h *Hash) DigestByte(name string, b byte) {
	h.DigestBytes(name, []byte{b})
}

// DigestKey 追加密钥内容，不经过调用方可见的字节
func (h *Hash) DigestKey(name string, key *SymKey) {
	clog().Debug("hash digest key", logger.String("name", h.name), logger.String("input", name), logger.Int("size", key.Len()))
	h.live().Write(key.bytes())
}

// FinalBytes 写出摘要到 out，len(out) 必须等于摘要长度
func (h *Hash) FinalBytes(out []byte) {
	hh := h.live()
	if len(out) != h.desc.DigestSize {
		panic(fmt.Sprintf("crypto: 哈希 %s 输出长度 %d 与摘要长度 %d 不符", h.desc.Name, len(out), h.desc.DigestSize))
	}
	copy(out, hh.Sum(nil))
	h.h = nil
	clog().Debug("hash final", logger.String("name", h.name), logger.Int("len", len(out)))
}

// FinalMac 返回摘要
func (h *Hash) FinalMac() Mac {
	var out [MaxDigestSize]byte
	h.FinalBytes(out[:h.desc.DigestSize])
	return NewMac(out[:h.desc.DigestSize])
}

// HashKey 对密钥求摘要并作为新密钥返回
func HashKey(name string, desc *HashDesc, keyName string, key *SymKey) (*SymKey, error) {
	h, err := NewHash(name, desc)
	if err != nil {
		return nil, err
	}
	h.DigestKey(keyName, key)
	out := h.FinalMac()
	return NewSymKey(name, out.Bytes()), nil
}
