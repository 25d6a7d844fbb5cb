package ikev2

import (
	"fmt"

	"github.com/iniwex5/ikekeys/pkg/crypto"
)

// IKE SA 密钥材料 (RFC 7296 2.13 和 2.14 节)
type IKESAKeys struct {
	SK_d  *crypto.SymKey // 用于派生新密钥的密钥 (用于 Child SA 等)
	SK_ai *crypto.SymKey // 发起方完整性密钥
	SK_ar *crypto.SymKey // 响应方完整性密钥
	SK_ei *crypto.SymKey // 发起方加密密钥
	SK_er *crypto.SymKey // 响应方加密密钥
	SK_pi *crypto.SymKey // 发起方认证载荷密钥
	SK_pr *crypto.SymKey // 响应方认证载荷密钥
}

// IKESAKeyLen SK_d | SK_ai | SK_ar | SK_ei | SK_er | SK_pi | SK_pr 的总长度
// AEAD 时 integKeyLen 为 0，encKeyLen 含 salt
func IKESAKeyLen(prf *crypto.PRFDesc, integKeyLen, encKeyLen int) int {
	return prf.KeySize*3 + integKeyLen*2 + encKeyLen*2
}

// SplitIKESAKeys 按 RFC 7296 2.14 的顺序切分 prf+ 输出
func SplitIKESAKeys(keymat *crypto.SymKey, prf *crypto.PRFDesc, integKeyLen, encKeyLen int) (*IKESAKeys, error) {
	need := IKESAKeyLen(prf, integKeyLen, encKeyLen)
	if keymat.Len() < need {
		return nil, fmt.Errorf("IKE SA 密钥材料不足: %d < %d", keymat.Len(), need)
	}

	cursor := 0
	next := func(name string, n int) *crypto.SymKey {
		k := keymat.Slice(name, cursor, n)
		cursor += n
		return k
	}

	keys := &IKESAKeys{}
	keys.SK_d = next("SK_d", prf.KeySize)
	if integKeyLen > 0 {
		keys.SK_ai = next("SK_ai", integKeyLen)
		keys.SK_ar = next("SK_ar", integKeyLen)
	}
	keys.SK_ei = next("SK_ei", encKeyLen)
	keys.SK_er = next("SK_er", encKeyLen)
	keys.SK_pi = next("SK_pi", prf.KeySize)
	keys.SK_pr = next("SK_pr", prf.KeySize)
	return keys, nil
}

// Release 清零全部密钥
func (k *IKESAKeys) Release() error {
	return crypto.ReleaseAll(k.SK_d, k.SK_ai, k.SK_ar, k.SK_ei, k.SK_er, k.SK_pi, k.SK_pr)
}

// Child SA 密钥材料 (RFC 7296 2.17 节)
type ChildSAKeys struct {
	SK_ei *crypto.SymKey // 发起方 -> 响应方 加密密钥
	SK_ai *crypto.SymKey // 发起方 -> 响应方 完整性密钥
	SK_er *crypto.SymKey // 响应方 -> 发起方 加密密钥
	SK_ar *crypto.SymKey // 响应方 -> 发起方 完整性密钥
}

// ChildSAKeyLen 双向密钥的总长度
func ChildSAKeyLen(encKeyLen, integKeyLen int) int {
	return 2 * (encKeyLen + integKeyLen)
}

// SplitChildSAKeys 先取发起方到响应方方向的加密、完整性密钥，再取反方向
func SplitChildSAKeys(keymat *crypto.SymKey, encKeyLen, integKeyLen int) (*ChildSAKeys, error) {
	need := ChildSAKeyLen(encKeyLen, integKeyLen)
	if keymat.Len() < need {
		return nil, fmt.Errorf("Child SA 密钥材料不足: %d < %d", keymat.Len(), need)
	}

	keys := &ChildSAKeys{}
	cursor := 0
	keys.SK_ei = keymat.Slice("SK_ei", cursor, encKeyLen)
	cursor += encKeyLen
	if integKeyLen > 0 {
		keys.SK_ai = keymat.Slice("SK_ai", cursor, integKeyLen)
		cursor += integKeyLen
	}
	keys.SK_er = keymat.Slice("SK_er", cursor, encKeyLen)
	cursor += encKeyLen
	if integKeyLen > 0 {
		keys.SK_ar = keymat.Slice("SK_ar", cursor, integKeyLen)
	}
	return keys, nil
}

func (k *ChildSAKeys) Release() error {
	return crypto.ReleaseAll(k.SK_ei, k.SK_ai, k.SK_er, k.SK_ar)
}
