package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"errors"
	"fmt"
	"hash"

	"github.com/aead/cmac"
)

var ErrAlgorithmUnavailable = errors.New("算法不可用")

// hmacOps RFC 2104 HMAC
type hmacOps struct{}

func (hmacOps) newMAC(desc *PRFDesc, key []byte) (hash.Hash, error) {
	if desc.Hasher == nil || desc.Hasher.newHash == nil {
		return nil, fmt.Errorf("%w: %s 缺少哈希实现", ErrAlgorithmUnavailable, desc.Name)
	}
	return hmac.New(desc.Hasher.newHash, key), nil
}

// xcbcOps AES-XCBC-PRF-128 (RFC 4434)，底层为 AES-XCBC-MAC (RFC 3566)
type xcbcOps struct{}

func (xcbcOps) newMAC(desc *PRFDesc, key []byte) (hash.Hash, error) {
	return newAESPRF(key, newXCBC, true)
}

// cmacOps AES-CMAC-PRF-128 (RFC 4615)，底层为 AES-CMAC (RFC 4493)
type cmacOps struct{}

func (cmacOps) newMAC(desc *PRFDesc, key []byte) (hash.Hash, error) {
	return newAESPRF(key, newCMAC, false)
}

// newAESPRF 处理可变长度密钥：恰好 16 字节直接使用；
// XCBC 短密钥右侧补零 (RFC 4434)，其余情况先以全零密钥对其做一次 MAC
func newAESPRF(key []byte, newKeyed func([]byte) (hash.Hash, error), padShort bool) (hash.Hash, error) {
	var k [aes.BlockSize]byte
	switch {
	case len(key) == aes.BlockSize:
		copy(k[:], key)
	case len(key) < aes.BlockSize && padShort:
		copy(k[:], key)
	default:
		h, err := newKeyed(k[:])
		if err != nil {
			return nil, err
		}
		h.Write(key)
		copy(k[:], h.Sum(nil))
	}
	return newKeyed(k[:])
}

// cbcMAC AES-XCBC-MAC (RFC 3566) 的流式实现
// 最后一个块延迟处理，直到 Sum 时才根据是否完整选择子密钥
type cbcMAC struct {
	block    cipher.Block
	complete [aes.BlockSize]byte // 完整末块的异或子密钥
	partial  [aes.BlockSize]byte // 填充末块的异或子密钥
	x        [aes.BlockSize]byte
	buf      [aes.BlockSize]byte
	n        int
}

func newXCBC(key []byte) (hash.Hash, error) {
	k, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAlgorithmUnavailable, err)
	}
	var k1 [aes.BlockSize]byte
	m := &cbcMAC{}
	for i := range aes.BlockSize {
		k1[i] = 0x01
		m.complete[i] = 0x02
		m.partial[i] = 0x03
	}
	k.Encrypt(k1[:], k1[:])
	k.Encrypt(m.complete[:], m.complete[:])
	k.Encrypt(m.partial[:], m.partial[:])
	if m.block, err = aes.NewCipher(k1[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAlgorithmUnavailable, err)
	}
	return m, nil
}

func newCMAC(key []byte) (hash.Hash, error) {
	k, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAlgorithmUnavailable, err)
	}
	h, err := cmac.New(k)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAlgorithmUnavailable, err)
	}
	return h, nil
}

func (m *cbcMAC) Write(p []byte) (int, error) {
	written := len(p)
	for len(p) > 0 {
		if m.n == aes.BlockSize {
			for i := range m.x {
				m.x[i] ^= m.buf[i]
			}
			m.block.Encrypt(m.x[:], m.x[:])
			m.n = 0
		}
		c := copy(m.buf[m.n:], p)
		m.n += c
		p = p[c:]
	}
	return written, nil
}

func (m *cbcMAC) Sum(b []byte) []byte {
	last := m.buf
	sub := &m.complete
	if m.n < aes.BlockSize {
		last[m.n] = 0x80
		for i := m.n + 1; i < aes.BlockSize; i++ {
			last[i] = 0
		}
		sub = &m.partial
	}
	var out [aes.BlockSize]byte
	for i := range out {
		out[i] = m.x[i] ^ last[i] ^ sub[i]
	}
	m.block.Encrypt(out[:], out[:])
	return append(b, out[:]...)
}

func (m *cbcMAC) Reset() {
	m.x = [aes.BlockSize]byte{}
	m.buf = [aes.BlockSize]byte{}
	m.n = 0
}

func (m *cbcMAC) Size() int      { return aes.BlockSize }
func (m *cbcMAC) BlockSize() int { return aes.BlockSize }
