package driver

import (
	"fmt"

	"github.com/iniwex5/ikekeys/pkg/crypto"
	"github.com/iniwex5/ikekeys/pkg/ikev2"
)

// IKEv2 算法 → Linux XFRM 内核算法名称的映射

// XFRMCryptAlgo 加密算法描述
type XFRMCryptAlgo struct {
	Name    string // 内核算法名称 (如 "cbc(aes)")
	KeyBits int    // 密钥位数 (不含 salt)
}

// XFRMAuthAlgo 完整性算法描述
type XFRMAuthAlgo struct {
	Name         string // 内核算法名称 (如 "hmac(sha256)")
	KeyBits      int    // 密钥位数
	TruncateBits int    // 截断位数 (ICV 长度)
}

// XFRMAeadAlgo AEAD 算法描述
type XFRMAeadAlgo struct {
	Name    string // 内核算法名称 (如 "rfc4106(gcm(aes))")
	KeyBits int    // 密钥位数 (含 salt)
	ICVBits int    // ICV 位数
}

// KeyLen 内核需要的密钥字节数
func (a *XFRMCryptAlgo) KeyLen() int { return a.KeyBits / 8 }
func (a *XFRMAeadAlgo) KeyLen() int  { return a.KeyBits / 8 }

// IKEv2AlgToXFRMCrypt 将 IKEv2 加密算法 ID 映射为 XFRM 内核加密算法
// 仅用于非 AEAD 算法 (如 AES-CBC)
func IKEv2AlgToXFRMCrypt(ikeAlgID uint16, keyLenBits int) (*XFRMCryptAlgo, error) {
	if keyLenBits == 0 {
		keyLenBits = 128 // 默认 AES-128
	}

	switch ikev2.AlgorithmType(ikeAlgID) {
	case ikev2.ENCR_AES_CBC:
		return &XFRMCryptAlgo{Name: "cbc(aes)", KeyBits: keyLenBits}, nil
	case ikev2.ENCR_AES_CTR:
		// RFC 3686: 密钥后附 4 字节 nonce
		return &XFRMCryptAlgo{Name: "rfc3686(ctr(aes))", KeyBits: keyLenBits + 32}, nil
	default:
		return nil, fmt.Errorf("不支持的 XFRM 加密算法 ID: %d", ikeAlgID)
	}
}

// IKEv2AlgToXFRMAuth 由完整性算法描述符得到 XFRM 内核完整性算法
// 密钥与截断长度直接取自描述符，保证与 prf+ 切分出的 SK_a 一致
func IKEv2AlgToXFRMAuth(integ *crypto.IntegDesc) (*XFRMAuthAlgo, error) {
	if integ == nil || integ.IsNull() {
		return nil, fmt.Errorf("完整性算法为空，不能下发到 XFRM")
	}
	if integ.KernelName == "" {
		return nil, fmt.Errorf("不支持的 XFRM 完整性算法: %s", integ.Name)
	}
	return &XFRMAuthAlgo{
		Name:         integ.KernelName,
		KeyBits:      integ.KeymatSize * 8,
		TruncateBits: integ.OutputSize * 8,
	}, nil
}

// IKEv2AlgToXFRMAead 将 IKEv2 AEAD 算法 ID 映射为 XFRM 内核 AEAD 算法
// keyLenBits 是加密密钥位数 (不含 salt)；内核需要的 key = encKey + salt
func IKEv2AlgToXFRMAead(ikeAlgID uint16, keyLenBits int) (*XFRMAeadAlgo, error) {
	if keyLenBits == 0 {
		keyLenBits = 128
	}

	var icv int
	switch ikev2.AlgorithmType(ikeAlgID) {
	case ikev2.ENCR_AES_GCM_8, ikev2.ENCR_AES_CCM_8:
		icv = 64
	case ikev2.ENCR_AES_GCM_12, ikev2.ENCR_AES_CCM_12:
		icv = 96
	case ikev2.ENCR_AES_GCM_16, ikev2.ENCR_AES_CCM_16:
		icv = 128
	default:
		return nil, fmt.Errorf("不支持的 XFRM AEAD 算法 ID: %d", ikeAlgID)
	}

	switch ikev2.AlgorithmType(ikeAlgID) {
	case ikev2.ENCR_AES_CCM_8, ikev2.ENCR_AES_CCM_12, ikev2.ENCR_AES_CCM_16:
		return &XFRMAeadAlgo{Name: "rfc4309(ccm(aes))", KeyBits: keyLenBits + 24, ICVBits: icv}, nil // 3 字节 salt
	default:
		return &XFRMAeadAlgo{Name: "rfc4106(gcm(aes))", KeyBits: keyLenBits + 32, ICVBits: icv}, nil // 4 字节 salt
	}
}

// IsAEADAlgorithm 判断 IKEv2 加密算法 ID 是否为 AEAD 算法
func IsAEADAlgorithm(ikeAlgID uint16) bool {
	switch ikev2.AlgorithmType(ikeAlgID) {
	case ikev2.ENCR_AES_CCM_8, ikev2.ENCR_AES_CCM_12, ikev2.ENCR_AES_CCM_16,
		ikev2.ENCR_AES_GCM_8, ikev2.ENCR_AES_GCM_12, ikev2.ENCR_AES_GCM_16:
		return true
	default:
		return false
	}
}

// EncKeyLen 单方向加密密钥材料长度 (含 salt)，用于计算 Child SA KEYMAT 长度
func EncKeyLen(ikeAlgID uint16, keyLenBits int) (int, error) {
	if IsAEADAlgorithm(ikeAlgID) {
		a, err := IKEv2AlgToXFRMAead(ikeAlgID, keyLenBits)
		if err != nil {
			return 0, err
		}
		return a.KeyLen(), nil
	}
	c, err := IKEv2AlgToXFRMCrypt(ikeAlgID, keyLenBits)
	if err != nil {
		return 0, err
	}
	return c.KeyLen(), nil
}
