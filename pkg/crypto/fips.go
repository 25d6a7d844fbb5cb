package crypto

import (
	"math"
	"sync/atomic"
)

var fipsMode atomic.Bool

// SetFIPSMode 启动时根据配置设置一次
func SetFIPSMode(on bool) { fipsMode.Store(on) }

// FIPSMode 当前是否运行在 FIPS 模式
func FIPSMode() bool { return fipsMode.Load() }

// FIPSKeySizeMin FIPS 198-1 / SP 800-107 5.4.3: HMAC 密钥不短于 L/2
func FIPSKeySizeMin(prf *PRFDesc) int {
	return prf.KeySize / 2
}

// FIPSKeySizeFloor 所有 FIPS 批准 PRF 中最小的密钥下限
// 首次调用时计算并缓存；没有 FIPS PRF 时返回 math.MaxInt
func (r *Registry) FIPSKeySizeFloor() int {
	r.floorOnce.Do(func() {
		floor := math.MaxInt
		for prf := range r.PRFs() {
			if prf.FIPS {
				floor = min(floor, FIPSKeySizeMin(prf))
			}
		}
		r.floor = floor
	})
	return r.floor
}
