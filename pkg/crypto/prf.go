package crypto

import (
	"fmt"
	"hash"

	"github.com/iniwex5/ikekeys/pkg/logger"
)

// PRF 流式带密钥 PRF 上下文
// 上下文只借用密钥；Final* 调用后上下文作废
type PRF struct {
	name string
	desc *PRFDesc
	mac  hash.Hash
}

// NewPRF 以原始字节为密钥创建 PRF 上下文
func NewPRF(name string, desc *PRFDesc, keyName string, key []byte) (*PRF, error) {
	if desc == nil || desc.ops == nil {
		return nil, fmt.Errorf("%w: PRF %s", ErrAlgorithmUnavailable, name)
	}
	mac, err := desc.ops.newMAC(desc, key)
	if err != nil {
		return nil, fmt.Errorf("%s PRF %s 初始化失败: %w", name, desc.Name, err)
	}
	clog().Debug("prf init",
		logger.String("name", name),
		logger.String("prf", desc.Name),
		logger.String("key", keyName),
		logger.Int("len", len(key)))
	return &PRF{name: name, desc: desc, mac: mac}, nil
}

// NewPRFWithKey 以密钥句柄为密钥创建 PRF 上下文
func NewPRFWithKey(name string, desc *PRFDesc, keyName string, key *SymKey) (*PRF, error) {
	return NewPRF(name, desc, keyName, key.bytes())
}

func (p *PRF) Desc() *PRFDesc { return p.desc }

func (p *PRF) live() hash.Hash {
	if p.mac == nil {
		panic(fmt.Sprintf("crypto: PRF 上下文 %s 已完成", p.name))
	}
	return p.mac
}

// UpdateBytes 追加数据
func (p *PRF) UpdateBytes(name string, b []byte) {
	clog().Debug("prf update bytes", logger.String("name", p.name), logger.String("input", name), logger.Int("len", len(b)))
	p.live().Write(b)
}

func (p *PRF) UpdateByte(name string, b byte) {
	p.UpdateBytes(name, []byte{b})
}

// UpdateKey 追加密钥内容 (密钥链式派生)
func (p *PRF) UpdateKey(name string, key *SymKey) {
	clog().Debug("prf update key", logger.String("name", p.name), logger.String("input", name), logger.Int("size", key.Len()))
	p.live().Write(key.bytes())
}

func (p *PRF) final() []byte {
	out := p.live().Sum(nil)
	p.mac = nil
	return out
}

// FinalBytes 返回前 n 字节输出，n 不得超过 PRF 输出长度
func (p *PRF) FinalBytes(n int) []byte {
	if n < 0 || n > p.desc.OutputSize {
		panic(fmt.Sprintf("crypto: PRF %s 请求 %d 字节，超过输出长度 %d", p.desc.Name, n, p.desc.OutputSize))
	}
	out := p.final()[:n]
	clog().Debug("prf final bytes", logger.String("name", p.name), logger.Int("len", n))
	return out
}

// FinalKey 输出整体作为新密钥句柄返回
func (p *PRF) FinalKey() *SymKey {
	out := p.final()
	k := NewSymKey(p.name, out)
	clear(out)
	clog().Debug("prf final key", logger.String("name", p.name), logger.Int("size", k.Len()))
	return k
}

// FinalMac 返回 MAC；integ 非空时按完整性算法截断
func (p *PRF) FinalMac(integ *IntegDesc) Mac {
	n := p.desc.OutputSize
	if integ != nil {
		if integ.PRF != p.desc {
			panic(fmt.Sprintf("crypto: 完整性算法 %s 不基于 PRF %s", integ.Name, p.desc.Name))
		}
		if integ.OutputSize > p.desc.OutputSize {
			panic(fmt.Sprintf("crypto: %s 截断长度 %d 超过 PRF 输出 %d", integ.Name, integ.OutputSize, p.desc.OutputSize))
		}
		n = integ.OutputSize
	}
	out := NewMac(p.final()[:n])
	clog().Debug("prf final mac", logger.String("name", p.name), logger.Int("len", n))
	return out
}

// ComputeMAC 一次性计算 prf(key, data)
func ComputeMAC(desc *PRFDesc, key, data []byte) (Mac, error) {
	p, err := NewPRF("mac", desc, "key", key)
	if err != nil {
		return Mac{}, err
	}
	p.UpdateBytes("data", data)
	return p.FinalMac(nil), nil
}
