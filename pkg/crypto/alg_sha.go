package crypto

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
)

// 哈希算法。ID 为 RFC 7427 哈希算法编号，MD5 没有 IKEv2 编号，记为 0
var (
	HASH_MD5 = &HashDesc{
		Common:     Common{Name: "MD5", Names: []string{"md5"}, ID: 0},
		DigestSize: md5.Size,
		BlockSize:  md5.BlockSize,
		newHash:    md5.New,
	}
	HASH_SHA1 = &HashDesc{
		Common:     Common{Name: "SHA1", Names: []string{"sha", "sha1"}, ID: 1, FIPS: true},
		DigestSize: sha1.Size,
		BlockSize:  sha1.BlockSize,
		newHash:    sha1.New,
	}
	HASH_SHA2_256 = &HashDesc{
		Common:     Common{Name: "SHA2_256", Names: []string{"sha2", "sha256", "sha2_256"}, ID: 2, FIPS: true},
		DigestSize: sha256.Size,
		BlockSize:  sha256.BlockSize,
		newHash:    sha256.New,
	}
	HASH_SHA2_384 = &HashDesc{
		Common:     Common{Name: "SHA2_384", Names: []string{"sha384", "sha2_384"}, ID: 3, FIPS: true},
		DigestSize: sha512.Size384,
		BlockSize:  sha512.BlockSize,
		newHash:    sha512.New384,
	}
	HASH_SHA2_512 = &HashDesc{
		Common:     Common{Name: "SHA2_512", Names: []string{"sha512", "sha2_512"}, ID: 4, FIPS: true},
		DigestSize: sha512.Size,
		BlockSize:  sha512.BlockSize,
		newHash:    sha512.New,
	}
)

// 基于 HMAC 的 PRF (RFC 7296 3.3.2 变换类型 2)
var (
	PRF_HMAC_MD5 = &PRFDesc{
		Common:     Common{Name: "HMAC_MD5", Names: []string{"md5", "hmac_md5"}, ID: 1},
		KeySize:    md5.Size,
		OutputSize: md5.Size,
		Hasher:     HASH_MD5,
		ops:        hmacOps{},
	}
	PRF_HMAC_SHA1 = &PRFDesc{
		Common:     Common{Name: "HMAC_SHA1", Names: []string{"sha", "sha1", "hmac_sha1"}, ID: 2, FIPS: true},
		KeySize:    sha1.Size,
		OutputSize: sha1.Size,
		Hasher:     HASH_SHA1,
		ops:        hmacOps{},
	}
	PRF_HMAC_SHA2_256 = &PRFDesc{
		Common:     Common{Name: "HMAC_SHA2_256", Names: []string{"sha2", "sha256", "sha2_256", "hmac_sha2_256"}, ID: 5, FIPS: true},
		KeySize:    sha256.Size,
		OutputSize: sha256.Size,
		Hasher:     HASH_SHA2_256,
		ops:        hmacOps{},
	}
	PRF_HMAC_SHA2_384 = &PRFDesc{
		Common:     Common{Name: "HMAC_SHA2_384", Names: []string{"sha384", "sha2_384", "hmac_sha2_384"}, ID: 6, FIPS: true},
		KeySize:    sha512.Size384,
		OutputSize: sha512.Size384,
		Hasher:     HASH_SHA2_384,
		ops:        hmacOps{},
	}
	PRF_HMAC_SHA2_512 = &PRFDesc{
		Common:     Common{Name: "HMAC_SHA2_512", Names: []string{"sha512", "sha2_512", "hmac_sha2_512"}, ID: 7, FIPS: true},
		KeySize:    sha512.Size,
		OutputSize: sha512.Size,
		Hasher:     HASH_SHA2_512,
		ops:        hmacOps{},
	}
)

// HMAC 截断完整性算法 (RFC 7296 3.3.2 变换类型 3)
var (
	INTEG_NONE = &IntegDesc{
		Common: Common{Name: "NONE", Names: []string{"none", "null"}, ID: 0, FIPS: true},
	}
	INTEG_HMAC_MD5_96 = &IntegDesc{
		Common:     Common{Name: "HMAC_MD5_96", Names: []string{"md5", "hmac_md5", "hmac_md5_96"}, ID: 1},
		KeymatSize: md5.Size,
		OutputSize: 12,
		PRF:        PRF_HMAC_MD5,
		KernelName: "hmac(md5)",
	}
	INTEG_HMAC_SHA1_96 = &IntegDesc{
		Common:     Common{Name: "HMAC_SHA1_96", Names: []string{"sha", "sha1", "sha1_96", "hmac_sha1", "hmac_sha1_96"}, ID: 2, FIPS: true},
		KeymatSize: sha1.Size,
		OutputSize: 12,
		PRF:        PRF_HMAC_SHA1,
		KernelName: "hmac(sha1)",
	}
	INTEG_HMAC_SHA2_256_128 = &IntegDesc{
		Common:     Common{Name: "HMAC_SHA2_256_128", Names: []string{"sha2", "sha256", "sha2_256", "sha2_256_128", "hmac_sha2_256_128"}, ID: 12, FIPS: true},
		KeymatSize: sha256.Size,
		OutputSize: 16,
		PRF:        PRF_HMAC_SHA2_256,
		KernelName: "hmac(sha256)",
	}
	INTEG_HMAC_SHA2_384_192 = &IntegDesc{
		Common:     Common{Name: "HMAC_SHA2_384_192", Names: []string{"sha384", "sha2_384", "sha2_384_192", "hmac_sha2_384_192"}, ID: 13, FIPS: true},
		KeymatSize: sha512.Size384,
		OutputSize: 24,
		PRF:        PRF_HMAC_SHA2_384,
		KernelName: "hmac(sha384)",
	}
	INTEG_HMAC_SHA2_512_256 = &IntegDesc{
		Common:     Common{Name: "HMAC_SHA2_512_256", Names: []string{"sha512", "sha2_512", "sha2_512_256", "hmac_sha2_512_256"}, ID: 14, FIPS: true},
		KeymatSize: sha512.Size,
		OutputSize: 32,
		PRF:        PRF_HMAC_SHA2_512,
		KernelName: "hmac(sha512)",
	}
)
