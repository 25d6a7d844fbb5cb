package crypto

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestDefaultRegistryLookup(t *testing.T) {
	r := Default()

	prf, ok := r.LookupPRF(5)
	require.True(t, ok)
	assert.Same(t, PRF_HMAC_SHA2_256, prf)

	integ, ok := r.LookupInteg(12)
	require.True(t, ok)
	assert.Same(t, PRF_HMAC_SHA2_256, integ.PRF)
	assert.Equal(t, "hmac(sha256)", integ.KernelName)

	_, ok = r.LookupPRF(99)
	assert.False(t, ok)

	byName, ok := r.PRFByName("SHA2_256")
	require.True(t, ok)
	assert.Same(t, PRF_HMAC_SHA2_256, byName)

	cmac, ok := r.IntegByName("aes_cmac_96")
	require.True(t, ok)
	assert.Same(t, INTEG_AES_CMAC_96, cmac)

	var n int
	for range r.PRFs() {
		n++
	}
	assert.Equal(t, 7, n)
}

func TestRegistryUnknownIDPanics(t *testing.T) {
	r := Default()
	assert.Panics(t, func() { r.PRF(99) })
	assert.Panics(t, func() { r.Integ(99) })
	assert.Panics(t, func() { r.Hash(99) })
	assert.NotPanics(t, func() { r.Hash(4) })
}

func TestGetPRFAndIntegrity(t *testing.T) {
	prf, err := GetPRF(2)
	require.NoError(t, err)
	assert.Equal(t, "HMAC_SHA1", prf.Name)

	_, err = GetPRF(3)
	assert.Error(t, err)

	integ, err := GetIntegrityAlgorithm(0)
	require.NoError(t, err)
	assert.True(t, integ.IsNull())

	_, err = GetIntegrityAlgorithm(99)
	assert.Error(t, err)
}

func TestNewRegistryAggregatesErrors(t *testing.T) {
	bad := &PRFDesc{Common: Common{Name: "BAD", ID: 99}, ops: hmacOps{}}

	_, err := NewRegistry(HASH_SHA1, HASH_SHA1, bad, INTEG_HMAC_SHA1_96)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidDescriptor))

	// 重复 ID、非法长度、引用未登记的 PRF
	assert.Len(t, multierr.Errors(err), 3)
}

func TestNewRegistryRejectsOversizedTruncation(t *testing.T) {
	integ := &IntegDesc{
		Common:     Common{Name: "HMAC_SHA1_LONG", ID: 200},
		KeymatSize: 20,
		OutputSize: 32,
		PRF:        PRF_HMAC_SHA1,
	}
	_, err := NewRegistry(PRF_HMAC_SHA1, integ)
	assert.ErrorIs(t, err, ErrInvalidDescriptor)

	assert.Panics(t, func() { MustRegistry(PRF_HMAC_SHA1, integ) })
}

func TestFIPSKeySizeFloor(t *testing.T) {
	assert.Equal(t, 8, Default().FIPSKeySizeFloor())

	r := MustRegistry(PRF_HMAC_SHA2_256, PRF_HMAC_SHA2_512)
	assert.Equal(t, 16, r.FIPSKeySizeFloor())
	// 缓存后结果不变
	assert.Equal(t, 16, r.FIPSKeySizeFloor())

	none := MustRegistry(PRF_HMAC_MD5, PRF_AES128_XCBC)
	assert.Equal(t, math.MaxInt, none.FIPSKeySizeFloor())
}

func TestFIPSKeySizeMin(t *testing.T) {
	assert.Equal(t, 10, FIPSKeySizeMin(PRF_HMAC_SHA1))
	assert.Equal(t, 16, FIPSKeySizeMin(PRF_HMAC_SHA2_256))
	assert.Equal(t, 32, FIPSKeySizeMin(PRF_HMAC_SHA2_512))
}
