package crypto

import "fmt"

// IsNull 空完整性算法 (用于 AEAD)
func (d *IntegDesc) IsNull() bool { return d.PRF == nil }

// Compute 计算截断后的 MAC
func (d *IntegDesc) Compute(key, data []byte) (Mac, error) {
	if d.IsNull() {
		return Mac{}, nil
	}
	if len(key) != d.KeymatSize {
		return Mac{}, fmt.Errorf("%s 密钥长度 %d，应为 %d", d.Name, len(key), d.KeymatSize)
	}
	p, err := NewPRF(d.Name, d.PRF, "integ-key", key)
	if err != nil {
		return Mac{}, err
	}
	p.UpdateBytes("data", data)
	return p.FinalMac(d), nil
}

// Verify 验证 MAC，长度不符直接失败
func (d *IntegDesc) Verify(key, data, expectedMAC []byte) bool {
	if d.IsNull() {
		return true
	}
	if len(expectedMAC) != d.OutputSize {
		return false
	}
	mac, err := d.Compute(key, data)
	if err != nil {
		return false
	}
	return mac.Equal(expectedMAC)
}
