package crypto

import (
	"hash"
)

// HashDesc 哈希算法描述符
type HashDesc struct {
	Common
	DigestSize int
	BlockSize  int // RFC 2104 中的 B
	newHash    func() hash.Hash
}

func (*HashDesc) Type() AlgType { return AlgHash }

// PRFDesc 伪随机函数描述符
type PRFDesc struct {
	Common
	KeySize    int       // 首选密钥长度 (同时决定 SK_d/SK_pi/SK_pr 长度)
	OutputSize int       // 单次 PRF 输出长度
	Hasher     *HashDesc // 基于分组密码的 PRF 为 nil
	ops        macOps
}

func (*PRFDesc) Type() AlgType { return AlgPRF }

// IntegDesc 完整性算法描述符，输出为底层 PRF 输出的截断
type IntegDesc struct {
	Common
	KeymatSize int
	OutputSize int
	PRF        *PRFDesc // AEAD 使用的空算法为 nil
	KernelName string   // Linux XFRM 内核算法名
}

func (*IntegDesc) Type() AlgType { return AlgInteg }

// macOps 一种 MAC 构造，基于密钥创建流式上下文
type macOps interface {
	newMAC(desc *PRFDesc, key []byte) (hash.Hash, error)
}
