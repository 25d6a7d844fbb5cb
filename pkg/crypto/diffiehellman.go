package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

// RFC 3526 模指数 (MODP) Diffie-Hellman 组
// 密钥派生只消费 g^ir，这里仅供演示与测试构造双方的共享秘密

var (
	// 组 14: 2048 位 MODP 组
	prime2048, _ = new(big.Int).SetString("FFFFFFFFFFFFFFFFC90FDAA22168C234C4C6628B80DC1CD129024E088A67CC74020BBEA63B139B22514A08798E3404DDEF9519B3CD3A431B302B0A6DF25F14374FE1356D6D51C245E485B576625E7EC6F44C42E9A637ED6B0BFF5CB6F406B7EDEE386BFB5A899FA5AE9F24117C4B1FE649286651ECE45B3DC2007CB8A163BF0598DA48361C55D39A69163FA8FD24CF5F83655D23DCA3AD961C62F356208552BB9ED529077096966D670C354E4ABC9804F1746C08CA18217C32905E462E36CE3BE39E772C180E86039B2783A2EC07A28FB5C55DF06F4C52C9DE2BCBF6955817183995497CEA956AE515D2261898FA051015728E5A8AACAA68FFFFFFFFFFFFFFFF", 16)
	gen2         = big.NewInt(2)
)

var ErrInvalidPeerKey = errors.New("无效的对端公钥")

type DiffieHellman struct {
	Group      uint16
	privateKey *big.Int
	publicKey  *big.Int
	p          *big.Int
	g          *big.Int
}

func NewDiffieHellman(group uint16) (*DiffieHellman, error) {
	dh := &DiffieHellman{Group: group}

	switch group {
	case 14: // MODP 2048
		dh.p = prime2048
		dh.g = gen2
	default:
		return nil, fmt.Errorf("不支持的 DH 组: %d", group)
	}

	return dh, nil
}

// GenerateKey 私钥取 [1, P-1]
func (dh *DiffieHellman) GenerateKey() error {
	pMinusOne := new(big.Int).Sub(dh.p, big.NewInt(1))
	x, err := rand.Int(rand.Reader, pMinusOne)
	if err != nil {
		return err
	}
	dh.privateKey = x.Add(x, big.NewInt(1))
	dh.publicKey = new(big.Int).Exp(dh.g, dh.privateKey, dh.p)
	return nil
}

// ComputeSharedSecret 返回 g^ir，左侧补零到组长度；句柄归调用方所有
func (dh *DiffieHellman) ComputeSharedSecret(peerPubKeyBytes []byte) (*SymKey, error) {
	if dh.privateKey == nil {
		return nil, errors.New("DH 私钥未生成")
	}
	peerPubKey := new(big.Int).SetBytes(peerPubKeyBytes)

	// 验证对端密钥: 1 < peer < P-1
	one := big.NewInt(1)
	pMinusOne := new(big.Int).Sub(dh.p, one)
	if peerPubKey.Cmp(one) <= 0 || peerPubKey.Cmp(pMinusOne) >= 0 {
		return nil, ErrInvalidPeerKey
	}

	secret := new(big.Int).Exp(peerPubKey, dh.privateKey, dh.p)
	buf := secret.FillBytes(make([]byte, dh.size()))
	k := NewSymKey("g^ir", buf)
	clear(buf)
	return k, nil
}

// PublicKeyBytes 左侧补零到组长度，必须先调用 GenerateKey
func (dh *DiffieHellman) PublicKeyBytes() []byte {
	if dh.publicKey == nil {
		panic("crypto: DH 公钥未生成，需先调用 GenerateKey")
	}
	return dh.publicKey.FillBytes(make([]byte, dh.size()))
}

func (dh *DiffieHellman) size() int {
	return (dh.p.BitLen() + 7) / 8
}

// RandomBytes 生成随机字节 (nonce / SPI)
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}
