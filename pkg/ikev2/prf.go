package ikev2

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/iniwex5/ikekeys/pkg/crypto"
)

// IKEv2 密钥派生 (RFC 7296 2.13 / 2.14 / 2.17 节, RFC 8784, RFC 9242)
// 所有函数只借用传入的密钥句柄，返回的新句柄归调用方所有

var ErrPrfPlusOverflow = errors.New("PRF+ 溢出: 块太多")

// SPIs IKE SA 的双方 SPI
type SPIs struct {
	Initiator uint64
	Responder uint64
}

// Bytes SPIi | SPIr，各 8 字节大端
func (s SPIs) Bytes() []byte {
	b := make([]byte, 16)
	binary.BigEndian.PutUint64(b[0:8], s.Initiator)
	binary.BigEndian.PutUint64(b[8:16], s.Responder)
	return b
}

// PrfPlus prf+ (K,S) = T1 | T2 | T3 | T4 | ...
// T1 = prf (K, S | 0x01)
// Tn = prf (K, Tn-1 | S | n)
func PrfPlus(prf *crypto.PRFDesc, key, seed *crypto.SymKey, required int) (*crypto.SymKey, error) {
	if required < 0 {
		panic(fmt.Sprintf("ikev2: prf+ 请求长度 %d 为负", required))
	}
	blocks := (required + prf.OutputSize - 1) / prf.OutputSize
	if blocks > 255 {
		return nil, fmt.Errorf("%w: 需要 %d 字节 (%d 块)", ErrPrfPlusOverflow, required, blocks)
	}

	result := make([]byte, 0, blocks*prf.OutputSize)
	defer clear(result[:cap(result)])

	var lastBlock []byte
	for n := 1; n <= blocks; n++ {
		p, err := crypto.NewPRFWithKey("prf+", prf, "key", key)
		if err != nil {
			return nil, err
		}
		if lastBlock != nil {
			p.UpdateBytes("T(n-1)", lastBlock)
		}
		p.UpdateKey("seed", seed)
		p.UpdateByte("n", byte(n))
		lastBlock = p.FinalBytes(prf.OutputSize)
		result = append(result, lastBlock...)
	}
	if lastBlock != nil {
		clear(lastBlock)
	}

	return crypto.NewSymKey("prf+", result[:required]), nil
}

func concatKey(name string, parts ...[]byte) *crypto.SymKey {
	var n int
	for _, p := range parts {
		n += len(p)
	}
	buf := make([]byte, 0, n)
	for _, p := range parts {
		buf = append(buf, p...)
	}
	k := crypto.NewSymKey(name, buf)
	clear(buf)
	return k
}

func mustNonce(name string, nonce []byte) []byte {
	if len(nonce) == 0 {
		panic(fmt.Sprintf("ikev2: 缺少 %s", name))
	}
	return nonce
}

// usesTruncatedNonceKey AES-XCBC / AES-CMAC 计算 SKEYSEED 时只取 Ni、Nr 的前 64 位
func usesTruncatedNonceKey(prf *crypto.PRFDesc) bool {
	switch AlgorithmType(prf.ID) {
	case PRF_AES128_XCBC, PRF_AES128_CMAC:
		return prf.Hasher == nil
	}
	return false
}

func first64(b []byte) []byte {
	if len(b) > 8 {
		return b[:8]
	}
	return b
}

// IKESASkeyseed SKEYSEED = prf(Ni | Nr, g^ir)
func IKESASkeyseed(prf *crypto.PRFDesc, ni, nr []byte, dhSecret *crypto.SymKey) (*crypto.SymKey, error) {
	ni, nr = mustNonce("Ni", ni), mustNonce("Nr", nr)

	key := make([]byte, 0, len(ni)+len(nr))
	if usesTruncatedNonceKey(prf) {
		key = append(append(key, first64(ni)...), first64(nr)...)
	} else {
		key = append(append(key, ni...), nr...)
	}

	p, err := crypto.NewPRF("SKEYSEED = prf(Ni | Nr, g^ir)", prf, "Ni | Nr", key)
	if err != nil {
		return nil, err
	}
	p.UpdateKey("g^ir", dhSecret)
	return p.FinalKey(), nil
}

// IKESARekeySkeyseed SKEYSEED = prf(SK_d (old), g^ir (new) | Ni | Nr)
func IKESARekeySkeyseed(prf *crypto.PRFDesc, oldSKd, newDHSecret *crypto.SymKey, ni, nr []byte) (*crypto.SymKey, error) {
	ni, nr = mustNonce("Ni", ni), mustNonce("Nr", nr)

	p, err := crypto.NewPRFWithKey("SKEYSEED = prf(SK_d (old), g^ir (new) | Ni | Nr)", prf, "SK_d (old)", oldSKd)
	if err != nil {
		return nil, err
	}
	p.UpdateKey("g^ir (new)", newDHSecret)
	p.UpdateBytes("Ni", ni)
	p.UpdateBytes("Nr", nr)
	return p.FinalKey(), nil
}

// IKESAPPKIntermSkeyseed SKEYSEED = prf+(PPK, SK_d (old))，长度为 PRF 首选密钥长度
func IKESAPPKIntermSkeyseed(prf *crypto.PRFDesc, oldSKd, ppk *crypto.SymKey) (*crypto.SymKey, error) {
	return PrfPlus(prf, ppk, oldSKd, prf.KeySize)
}

// IKESAKeymat prf+ (SKEYSEED, Ni | Nr | SPIi | SPIr)
func IKESAKeymat(prf *crypto.PRFDesc, skeyseed *crypto.SymKey, ni, nr []byte, spis SPIs, required int) (*crypto.SymKey, error) {
	ni, nr = mustNonce("Ni", ni), mustNonce("Nr", nr)

	seed := concatKey("Ni | Nr | SPIi | SPIr", ni, nr, spis.Bytes())
	defer seed.Release()
	return PrfPlus(prf, skeyseed, seed, required)
}

// ChildSAKeymat KEYMAT = prf+(SK_d, [g^ir (new) |] Ni | Nr)
// newDHSecret 为 nil 表示没有 PFS
func ChildSAKeymat(prf *crypto.PRFDesc, skd, newDHSecret *crypto.SymKey, ni, nr []byte, required int) (*crypto.SymKey, error) {
	ni, nr = mustNonce("Ni", ni), mustNonce("Nr", nr)

	nonces := concatKey("Ni | Nr", ni, nr)
	defer nonces.Release()

	seed := nonces
	if newDHSecret != nil {
		seed = newDHSecret.Concat("g^ir (new) | Ni | Nr", nonces)
		defer seed.Release()
	}
	return PrfPlus(prf, skd, seed, required)
}

// IntermediateAuth RFC 9242 IntAuth 链:
// IntAuth_1 = prf(SK_p, A | P)，IntAuth_N = prf(SK_p, IntAuth_N-1 | A | P)
func IntermediateAuth(prf *crypto.PRFDesc, skp *crypto.SymKey, prev, authenticated, protected []byte) (crypto.Mac, error) {
	p, err := crypto.NewPRFWithKey("IntAuth", prf, "SK_p", skp)
	if err != nil {
		return crypto.Mac{}, err
	}
	if len(prev) > 0 {
		p.UpdateBytes("IntAuth (prev)", prev)
	}
	p.UpdateBytes("A", authenticated)
	p.UpdateBytes("P", protected)
	return p.FinalMac(nil), nil
}
