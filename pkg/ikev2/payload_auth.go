package ikev2

import (
	"errors"

	"github.com/iniwex5/ikekeys/pkg/crypto"
)

type Payload interface {
	Type() PayloadType
	Encode() ([]byte, error)
}

var ErrShortAuthPayload = errors.New("认证载荷太短")

// 认证载荷主体 (RFC 7296 3.8 节)，不含通用载荷头部
type AuthPayload struct {
	AuthMethod AuthMethod
	AuthData   []byte
}

// NewAuthPayload 把计算得到的 AUTH 值放入载荷
func NewAuthPayload(method AuthMethod, auth crypto.Mac) *AuthPayload {
	return &AuthPayload{AuthMethod: method, AuthData: append([]byte(nil), auth.Bytes()...)}
}

func (p *AuthPayload) Type() PayloadType { return AUTH }

func (p *AuthPayload) Encode() ([]byte, error) {
	// 1 字节认证方法 + 3 字节保留 + 数据
	buf := make([]byte, 4+len(p.AuthData))
	buf[0] = uint8(p.AuthMethod)
	copy(buf[4:], p.AuthData)
	return buf, nil
}

func DecodeAuthPayload(data []byte) (*AuthPayload, error) {
	if len(data) < 4 {
		return nil, ErrShortAuthPayload
	}
	return &AuthPayload{
		AuthMethod: AuthMethod(data[0]),
		AuthData:   append([]byte(nil), data[4:]...),
	}, nil
}

// IDBody 构造 ID 载荷主体 IDx' = IDType | RESERVED(3) | 数据，用于 prf(SK_px, IDx')
func IDBody(idType uint8, data []byte) []byte {
	buf := make([]byte, 4+len(data))
	buf[0] = idType
	copy(buf[4:], data)
	return buf
}
