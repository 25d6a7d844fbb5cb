package crypto

import "crypto/aes"

// 基于 AES 的 PRF 与完整性算法
var (
	PRF_AES128_XCBC = &PRFDesc{
		Common:     Common{Name: "AES_XCBC", Names: []string{"aes_xcbc", "aes128_xcbc"}, ID: 4},
		KeySize:    aes.BlockSize,
		OutputSize: aes.BlockSize,
		ops:        xcbcOps{},
	}
	PRF_AES128_CMAC = &PRFDesc{
		Common:     Common{Name: "AES_CMAC", Names: []string{"aes_cmac", "aes128_cmac"}, ID: 8, FIPS: true},
		KeySize:    aes.BlockSize,
		OutputSize: aes.BlockSize,
		ops:        cmacOps{},
	}

	INTEG_AES_XCBC_96 = &IntegDesc{
		Common:     Common{Name: "AES_XCBC_96", Names: []string{"aes_xcbc", "aes_xcbc_96"}, ID: 5},
		KeymatSize: aes.BlockSize,
		OutputSize: 12,
		PRF:        PRF_AES128_XCBC,
		KernelName: "xcbc(aes)",
	}
	INTEG_AES_CMAC_96 = &IntegDesc{
		Common:     Common{Name: "AES_CMAC_96", Names: []string{"aes_cmac", "aes_cmac_96"}, ID: 8, FIPS: true},
		KeymatSize: aes.BlockSize,
		OutputSize: 12,
		PRF:        PRF_AES128_CMAC,
		KernelName: "cmac(aes)",
	}
)
