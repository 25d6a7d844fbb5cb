package crypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegrityComputeVerify(t *testing.T) {
	key := bytes.Repeat([]byte{0x0b}, 20)
	data := []byte("Hi There")

	mac, err := INTEG_HMAC_SHA1_96.Compute(key, data)
	require.NoError(t, err)
	assert.Equal(t, "b617318655057264e28bc0b6", mac.String())

	assert.True(t, INTEG_HMAC_SHA1_96.Verify(key, data, mac.Bytes()))

	flipped := append([]byte(nil), mac.Bytes()...)
	flipped[0] ^= 0x01
	assert.False(t, INTEG_HMAC_SHA1_96.Verify(key, data, flipped))
	assert.False(t, INTEG_HMAC_SHA1_96.Verify(key, data, mac.Bytes()[:11]))

	_, err = INTEG_HMAC_SHA1_96.Compute(key[:16], data)
	assert.Error(t, err)
	assert.False(t, INTEG_HMAC_SHA1_96.Verify(key[:16], data, mac.Bytes()))
}

func TestIntegrityAESCMAC96(t *testing.T) {
	key := mustHex(t, "2b7e151628aed2a6abf7158809cf4f3c")
	msg := mustHex(t, "6bc1bee22e409f96e93d7e117393172a")

	mac, err := INTEG_AES_CMAC_96.Compute(key, msg)
	require.NoError(t, err)
	assert.Equal(t, "070a16b46b4d4144f79bdd9d", mac.String())
}

func TestIntegrityNone(t *testing.T) {
	assert.True(t, INTEG_NONE.IsNull())
	mac, err := INTEG_NONE.Compute(nil, []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, 0, mac.Len())
	assert.True(t, INTEG_NONE.Verify(nil, []byte("x"), []byte{1, 2, 3}))
}

func TestFIPSModeToggle(t *testing.T) {
	prev := FIPSMode()
	t.Cleanup(func() { SetFIPSMode(prev) })

	SetFIPSMode(true)
	assert.True(t, FIPSMode())
	SetFIPSMode(false)
	assert.False(t, FIPSMode())
}
