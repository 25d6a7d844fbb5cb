package ikev2

// IKEv2 RFC 7296 常量 (仅保留密钥派生与认证用到的部分)

// 载荷类型
type PayloadType uint8

const (
	IDi  PayloadType = 35
	IDr  PayloadType = 36
	AUTH PayloadType = 39
)

type AlgorithmType uint16

// 变换类型 1 - 加密算法变换 ID
const (
	ENCR_AES_CBC    AlgorithmType = 12
	ENCR_AES_CTR    AlgorithmType = 13
	ENCR_AES_CCM_8  AlgorithmType = 14
	ENCR_AES_CCM_12 AlgorithmType = 15
	ENCR_AES_CCM_16 AlgorithmType = 16
	ENCR_AES_GCM_8  AlgorithmType = 18
	ENCR_AES_GCM_12 AlgorithmType = 19
	ENCR_AES_GCM_16 AlgorithmType = 20
)

// 变换类型 2 - 伪随机函数变换 ID
const (
	PRF_HMAC_MD5      AlgorithmType = 1
	PRF_HMAC_SHA1     AlgorithmType = 2
	PRF_AES128_XCBC   AlgorithmType = 4
	PRF_HMAC_SHA2_256 AlgorithmType = 5
	PRF_HMAC_SHA2_384 AlgorithmType = 6
	PRF_HMAC_SHA2_512 AlgorithmType = 7
	PRF_AES128_CMAC   AlgorithmType = 8
)

// 认证方法 (RFC 7296 3.8 节, RFC 7619)
type AuthMethod uint8

const (
	AuthMethodRSASig    AuthMethod = 1
	AuthMethodSharedKey AuthMethod = 2
	AuthMethodDSSSig    AuthMethod = 3
	AuthMethodNull      AuthMethod = 13
)

// 身份类型 (RFC 7296 3.5 节)
const (
	ID_IPV4_ADDR   uint8 = 1
	ID_FQDN        uint8 = 2
	ID_RFC822_ADDR uint8 = 3
	ID_IPV6_ADDR   uint8 = 5
	ID_KEY_ID      uint8 = 11
	ID_NULL        uint8 = 13 // RFC 7619
)
