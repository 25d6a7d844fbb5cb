package crypto

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"
	"sync"

	"go.uber.org/multierr"
)

// MaxDigestSize 所有已支持算法中最大的输出长度 (SHA2-512)
const MaxDigestSize = 64

// AlgType 算法类别
type AlgType uint8

const (
	AlgHash AlgType = iota + 1
	AlgPRF
	AlgInteg
)

func (t AlgType) String() string {
	switch t {
	case AlgHash:
		return "HASH"
	case AlgPRF:
		return "PRF"
	case AlgInteg:
		return "INTEG"
	default:
		return fmt.Sprintf("AlgType(%d)", uint8(t))
	}
}

// Common 所有算法描述符共享的字段
type Common struct {
	Name  string   // 全名，如 HMAC_SHA2_256
	Names []string // 别名 (小写)
	ID    uint16   // IKEv2 变换 ID / 哈希算法 ID
	FIPS  bool     // 是否为 FIPS 批准算法
}

// Algorithm 描述符的公共视图，具体类型为 *HashDesc / *PRFDesc / *IntegDesc
type Algorithm interface {
	Type() AlgType
	Base() *Common
}

func (c *Common) Base() *Common { return c }

func (c *Common) matches(name string) bool {
	if strings.EqualFold(c.Name, name) {
		return true
	}
	for _, n := range c.Names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

// Registry 只读的算法描述符表
// 构造完成后不再修改，可并发读取
type Registry struct {
	hashes []*HashDesc
	prfs   []*PRFDesc
	integs []*IntegDesc

	floorOnce sync.Once
	floor     int
}

var ErrInvalidDescriptor = errors.New("无效的算法描述符")

// NewRegistry 校验并登记描述符，所有问题一并返回
func NewRegistry(algs ...Algorithm) (*Registry, error) {
	r := &Registry{}
	var err error
	seen := make(map[AlgType]map[uint16]bool)

	for _, alg := range algs {
		c := alg.Base()
		if seen[alg.Type()] == nil {
			seen[alg.Type()] = make(map[uint16]bool)
		}
		if seen[alg.Type()][c.ID] {
			err = multierr.Append(err, fmt.Errorf("%w: %s %s ID %d 重复", ErrInvalidDescriptor, alg.Type(), c.Name, c.ID))
			continue
		}
		seen[alg.Type()][c.ID] = true

		switch d := alg.(type) {
		case *HashDesc:
			if d.DigestSize <= 0 || d.DigestSize > MaxDigestSize || d.BlockSize <= 0 {
				err = multierr.Append(err, fmt.Errorf("%w: %s 摘要/块长度非法", ErrInvalidDescriptor, c.Name))
				continue
			}
			r.hashes = append(r.hashes, d)
		case *PRFDesc:
			if d.KeySize <= 0 || d.OutputSize <= 0 || d.OutputSize > MaxDigestSize {
				err = multierr.Append(err, fmt.Errorf("%w: %s 密钥/输出长度非法", ErrInvalidDescriptor, c.Name))
				continue
			}
			if d.ops == nil {
				err = multierr.Append(err, fmt.Errorf("%w: %s 缺少 MAC 操作集", ErrInvalidDescriptor, c.Name))
				continue
			}
			r.prfs = append(r.prfs, d)
		case *IntegDesc:
			if d.PRF != nil && d.OutputSize > d.PRF.OutputSize {
				err = multierr.Append(err, fmt.Errorf("%w: %s 截断长度超过 PRF 输出", ErrInvalidDescriptor, c.Name))
				continue
			}
			r.integs = append(r.integs, d)
		default:
			err = multierr.Append(err, fmt.Errorf("%w: 未知描述符类型 %T", ErrInvalidDescriptor, alg))
		}
	}

	// 完整性算法引用的 PRF 必须已登记
	for _, integ := range r.integs {
		if integ.PRF != nil && !slices.Contains(r.prfs, integ.PRF) {
			err = multierr.Append(err, fmt.Errorf("%w: %s 引用未登记的 PRF %s", ErrInvalidDescriptor, integ.Name, integ.PRF.Name))
		}
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// MustRegistry 同 NewRegistry，失败时 panic
func MustRegistry(algs ...Algorithm) *Registry {
	r, err := NewRegistry(algs...)
	if err != nil {
		panic(err)
	}
	return r
}

var defaultRegistry = MustRegistry(
	HASH_MD5, HASH_SHA1, HASH_SHA2_256, HASH_SHA2_384, HASH_SHA2_512,
	PRF_HMAC_MD5, PRF_HMAC_SHA1, PRF_AES128_XCBC, PRF_HMAC_SHA2_256,
	PRF_HMAC_SHA2_384, PRF_HMAC_SHA2_512, PRF_AES128_CMAC,
	INTEG_NONE, INTEG_HMAC_MD5_96, INTEG_HMAC_SHA1_96, INTEG_AES_XCBC_96, INTEG_AES_CMAC_96,
	INTEG_HMAC_SHA2_256_128, INTEG_HMAC_SHA2_384_192, INTEG_HMAC_SHA2_512_256,
)

// Default 进程内置的算法表
func Default() *Registry { return defaultRegistry }

// Hash 返回已登记的哈希描述符，未登记属于调用方的编程错误
func (r *Registry) Hash(id uint16) *HashDesc {
	if d, ok := r.LookupHash(id); ok {
		return d
	}
	panic(fmt.Sprintf("crypto: 未登记的哈希算法 %d", id))
}

// PRF 返回已登记的 PRF 描述符，未登记时 panic
func (r *Registry) PRF(id uint16) *PRFDesc {
	if d, ok := r.LookupPRF(id); ok {
		return d
	}
	panic(fmt.Sprintf("crypto: 未登记的 PRF %d", id))
}

// Integ 返回已登记的完整性算法描述符，未登记时 panic
func (r *Registry) Integ(id uint16) *IntegDesc {
	if d, ok := r.LookupInteg(id); ok {
		return d
	}
	panic(fmt.Sprintf("crypto: 未登记的完整性算法 %d", id))
}

func (r *Registry) LookupHash(id uint16) (*HashDesc, bool) { return lookup(r.hashes, id) }
func (r *Registry) LookupPRF(id uint16) (*PRFDesc, bool)   { return lookup(r.prfs, id) }
func (r *Registry) LookupInteg(id uint16) (*IntegDesc, bool) {
	return lookup(r.integs, id)
}

// PRFByName 按全名或别名查找 PRF
func (r *Registry) PRFByName(name string) (*PRFDesc, bool) {
	for _, d := range r.prfs {
		if d.matches(name) {
			return d, true
		}
	}
	return nil, false
}

// IntegByName 按全名或别名查找完整性算法
func (r *Registry) IntegByName(name string) (*IntegDesc, bool) {
	for _, d := range r.integs {
		if d.matches(name) {
			return d, true
		}
	}
	return nil, false
}

func (r *Registry) Hashes() iter.Seq[*HashDesc]  { return slices.Values(r.hashes) }
func (r *Registry) PRFs() iter.Seq[*PRFDesc]     { return slices.Values(r.prfs) }
func (r *Registry) Integs() iter.Seq[*IntegDesc] { return slices.Values(r.integs) }

func lookup[T Algorithm](descs []T, id uint16) (T, bool) {
	for _, d := range descs {
		if d.Base().ID == id {
			return d, true
		}
	}
	var zero T
	return zero, false
}

// GetPRF 根据 IKEv2 载荷中的 ID 获取 PRF
func GetPRF(id uint16) (*PRFDesc, error) {
	if d, ok := defaultRegistry.LookupPRF(id); ok {
		return d, nil
	}
	return nil, fmt.Errorf("不支持的 PRF ID: %d", id)
}

// GetIntegrityAlgorithm 根据 ID 获取完整性算法
func GetIntegrityAlgorithm(id uint16) (*IntegDesc, error) {
	if d, ok := defaultRegistry.LookupInteg(id); ok {
		return d, nil
	}
	return nil, fmt.Errorf("不支持的完整性算法: %d", id)
}
