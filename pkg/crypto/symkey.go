package crypto

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

var ErrKeyReleased = errors.New("密钥已释放")

// SymKey 对称密钥句柄
// 持有方负责调用 Release；派生函数只借用传入的句柄，返回的句柄归调用方所有
type SymKey struct {
	name     string
	key      []byte
	released bool
}

// NewSymKey 复制 b 创建新句柄
func NewSymKey(name string, b []byte) *SymKey {
	k := &SymKey{name: name, key: make([]byte, len(b))}
	copy(k.key, b)
	return k
}

func (k *SymKey) bytes() []byte {
	if k == nil {
		panic("crypto: 空密钥句柄")
	}
	if k.released {
		panic(fmt.Sprintf("crypto: 使用已释放的密钥 %s", k.name))
	}
	return k.key
}

func (k *SymKey) Name() string { return k.name }

func (k *SymKey) Len() int { return len(k.bytes()) }

// Clone 复制出独立的新句柄
func (k *SymKey) Clone(name string) *SymKey {
	return NewSymKey(name, k.bytes())
}

// Slice 截取 [offset, offset+length) 作为新密钥
func (k *SymKey) Slice(name string, offset, length int) *SymKey {
	b := k.bytes()
	if offset < 0 || length < 0 || offset+length > len(b) {
		panic(fmt.Sprintf("crypto: 密钥 %s 截取越界 (offset %d, length %d, size %d)", k.name, offset, length, len(b)))
	}
	return NewSymKey(name, b[offset:offset+length])
}

// Concat 返回 k | other
func (k *SymKey) Concat(name string, other *SymKey) *SymKey {
	a, b := k.bytes(), other.bytes()
	out := &SymKey{name: name, key: make([]byte, 0, len(a)+len(b))}
	out.key = append(out.key, a...)
	out.key = append(out.key, b...)
	return out
}

// Extract 取出原始字节副本 (仅用于内核下发或线上编码)
func (k *SymKey) Extract() []byte {
	b := k.bytes()
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Release 清零并作废句柄
func (k *SymKey) Release() error {
	if k == nil {
		return nil
	}
	if k.released {
		return fmt.Errorf("%w: %s", ErrKeyReleased, k.name)
	}
	clear(k.key)
	k.key = nil
	k.released = true
	return nil
}

// ReleaseAll 释放全部句柄，汇总所有错误
func ReleaseAll(keys ...*SymKey) error {
	var err error
	for _, k := range keys {
		err = multierr.Append(err, k.Release())
	}
	return err
}

func (k *SymKey) String() string {
	if k == nil {
		return "<nil>"
	}
	if k.released {
		return fmt.Sprintf("%s(released)", k.name)
	}
	return fmt.Sprintf("%s(%d bytes)", k.name, len(k.key))
}
