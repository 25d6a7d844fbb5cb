package driver

import (
	"errors"
	"net"
	"syscall"
	"testing"

	"github.com/iniwex5/netlink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/iniwex5/ikekeys/pkg/crypto"
	"github.com/iniwex5/ikekeys/pkg/ikev2"
)

type fakeHandle struct {
	states  map[int]*netlink.XfrmState
	failAdd map[int]error
	failDel error
}

func newFakeHandle() *fakeHandle {
	return &fakeHandle{states: map[int]*netlink.XfrmState{}, failAdd: map[int]error{}}
}

func (f *fakeHandle) XfrmStateAdd(s *netlink.XfrmState) error {
	if err := f.failAdd[s.Spi]; err != nil {
		return err
	}
	f.states[s.Spi] = s
	return nil
}

func (f *fakeHandle) XfrmStateDel(s *netlink.XfrmState) error {
	if f.failDel != nil {
		return f.failDel
	}
	if _, ok := f.states[s.Spi]; !ok {
		return syscall.ESRCH
	}
	delete(f.states, s.Spi)
	return nil
}

func seq(from, to int) []byte {
	b := make([]byte, 0, to-from)
	for i := from; i < to; i++ {
		b = append(b, byte(i))
	}
	return b
}

func cbcParams(t *testing.T, role ikev2.Role) ChildSAParams {
	t.Helper()
	integ := crypto.INTEG_HMAC_SHA2_256_128
	km := crypto.NewSymKey("keymat", seq(0, ikev2.ChildSAKeyLen(16, integ.KeymatSize)))
	keys, err := ikev2.SplitChildSAKeys(km, 16, integ.KeymatSize)
	require.NoError(t, err)
	return ChildSAParams{
		Role:        role,
		Local:       net.ParseIP("192.0.2.1"),
		Remote:      net.ParseIP("198.51.100.1"),
		SPIOut:      0xc0000001,
		SPIIn:       0xc0000002,
		EncrID:      uint16(ikev2.ENCR_AES_CBC),
		EncrKeyBits: 128,
		Integ:       integ,
		Keys:        keys,
		Mode:        netlink.XFRM_MODE_TUNNEL,
	}
}

func TestIKEv2AlgToXFRMAuth(t *testing.T) {
	a, err := IKEv2AlgToXFRMAuth(crypto.INTEG_HMAC_SHA1_96)
	require.NoError(t, err)
	assert.Equal(t, &XFRMAuthAlgo{Name: "hmac(sha1)", KeyBits: 160, TruncateBits: 96}, a)

	a, err = IKEv2AlgToXFRMAuth(crypto.INTEG_AES_CMAC_96)
	require.NoError(t, err)
	assert.Equal(t, &XFRMAuthAlgo{Name: "cmac(aes)", KeyBits: 128, TruncateBits: 96}, a)

	_, err = IKEv2AlgToXFRMAuth(crypto.INTEG_NONE)
	assert.Error(t, err)
	_, err = IKEv2AlgToXFRMAuth(nil)
	assert.Error(t, err)
}

func TestXFRMEncryptionMapping(t *testing.T) {
	gcm, err := IKEv2AlgToXFRMAead(uint16(ikev2.ENCR_AES_GCM_16), 256)
	require.NoError(t, err)
	assert.Equal(t, &XFRMAeadAlgo{Name: "rfc4106(gcm(aes))", KeyBits: 288, ICVBits: 128}, gcm)

	ccm, err := IKEv2AlgToXFRMAead(uint16(ikev2.ENCR_AES_CCM_8), 0)
	require.NoError(t, err)
	assert.Equal(t, &XFRMAeadAlgo{Name: "rfc4309(ccm(aes))", KeyBits: 152, ICVBits: 64}, ccm)

	_, err = IKEv2AlgToXFRMAead(uint16(ikev2.ENCR_AES_CBC), 128)
	assert.Error(t, err)
	_, err = IKEv2AlgToXFRMCrypt(uint16(ikev2.ENCR_AES_GCM_16), 128)
	assert.Error(t, err)

	assert.True(t, IsAEADAlgorithm(uint16(ikev2.ENCR_AES_GCM_12)))
	assert.False(t, IsAEADAlgorithm(uint16(ikev2.ENCR_AES_CTR)))

	n, err := EncKeyLen(uint16(ikev2.ENCR_AES_GCM_16), 128)
	require.NoError(t, err)
	assert.Equal(t, 20, n)
	n, err = EncKeyLen(uint16(ikev2.ENCR_AES_CTR), 128)
	require.NoError(t, err)
	assert.Equal(t, 20, n)
	n, err = EncKeyLen(uint16(ikev2.ENCR_AES_CBC), 256)
	require.NoError(t, err)
	assert.Equal(t, 32, n)
}

func TestChildSAConfigsDirections(t *testing.T) {
	// KEYMAT 布局: SK_ei [0,16) SK_ai [16,48) SK_er [48,64) SK_ar [64,96)
	out, in, err := ChildSAConfigs(cbcParams(t, ikev2.RoleInitiator))
	require.NoError(t, err)
	assert.Equal(t, seq(0, 16), out.CryptKey)
	assert.Equal(t, seq(16, 48), out.AuthKey)
	assert.Equal(t, seq(48, 64), in.CryptKey)
	assert.Equal(t, seq(64, 96), in.AuthKey)
	assert.Equal(t, uint32(0xc0000001), out.SPI)
	assert.True(t, out.Src.Equal(net.ParseIP("192.0.2.1")))
	assert.True(t, in.Dst.Equal(net.ParseIP("192.0.2.1")))
	assert.Equal(t, "hmac(sha256)", out.AuthAlgoName)
	assert.Equal(t, 128, out.AuthTruncLen)

	out, in, err = ChildSAConfigs(cbcParams(t, ikev2.RoleResponder))
	require.NoError(t, err)
	assert.Equal(t, seq(48, 64), out.CryptKey)
	assert.Equal(t, seq(64, 96), out.AuthKey)
	assert.Equal(t, seq(0, 16), in.CryptKey)
	assert.Equal(t, seq(16, 48), in.AuthKey)
}

func TestChildSAConfigsAEAD(t *testing.T) {
	km := crypto.NewSymKey("keymat", seq(0, ikev2.ChildSAKeyLen(20, 0)))
	keys, err := ikev2.SplitChildSAKeys(km, 20, 0)
	require.NoError(t, err)

	out, in, err := ChildSAConfigs(ChildSAParams{
		Role:        ikev2.RoleInitiator,
		EncrID:      uint16(ikev2.ENCR_AES_GCM_16),
		EncrKeyBits: 128,
		Keys:        keys,
	})
	require.NoError(t, err)
	assert.True(t, out.IsAEAD)
	assert.Equal(t, seq(0, 20), out.AeadKey)
	assert.Equal(t, seq(20, 40), in.AeadKey)
	assert.Equal(t, 128, in.AeadICVLen)

	state := BuildXfrmState(out)
	require.NotNil(t, state.Aead)
	assert.Nil(t, state.Crypt)
	assert.Nil(t, state.Auth)
}

func TestChildSAConfigsKeyLengthMismatch(t *testing.T) {
	p := cbcParams(t, ikev2.RoleInitiator)
	p.EncrKeyBits = 256
	_, _, err := ChildSAConfigs(p)
	assert.Error(t, err)

	p = cbcParams(t, ikev2.RoleInitiator)
	p.Integ = crypto.INTEG_HMAC_SHA1_96
	_, _, err = ChildSAConfigs(p)
	assert.Error(t, err)

	p = cbcParams(t, ikev2.RoleInitiator)
	p.Role = 0
	_, _, err = ChildSAConfigs(p)
	assert.Error(t, err)
}

func TestBuildXfrmState(t *testing.T) {
	out, _, err := ChildSAConfigs(cbcParams(t, ikev2.RoleInitiator))
	require.NoError(t, err)

	state := BuildXfrmState(out)
	assert.Equal(t, 0xc0000001, state.Spi)
	assert.Equal(t, 32, state.ReplayWindow)
	assert.True(t, state.AFUnspec)
	require.NotNil(t, state.Crypt)
	assert.Equal(t, "cbc(aes)", state.Crypt.Name)
	require.NotNil(t, state.Auth)
	assert.Equal(t, 128, state.Auth.TruncateLen)
	assert.Nil(t, state.Aead)
}

func TestXFRMManagerRollback(t *testing.T) {
	h := newFakeHandle()
	x := NewXFRMManagerWithHandle(h)
	out, in, err := ChildSAConfigs(cbcParams(t, ikev2.RoleInitiator))
	require.NoError(t, err)

	require.NoError(t, x.InstallChildSA(out, in))
	assert.Len(t, h.states, 2)

	require.NoError(t, x.Rollback())
	assert.Empty(t, h.states)
	// 再次回滚无事可做
	assert.NoError(t, x.Rollback())
}

func TestInstallChildSAPartialFailure(t *testing.T) {
	h := newFakeHandle()
	x := NewXFRMManagerWithHandle(h)
	out, in, err := ChildSAConfigs(cbcParams(t, ikev2.RoleInitiator))
	require.NoError(t, err)

	addErr := errors.New("file exists")
	h.failAdd[int(out.SPI)] = addErr
	err = x.InstallChildSA(out, in)
	assert.ErrorIs(t, err, addErr)
	// 入站 SA 已被撤销
	assert.Empty(t, h.states)
	assert.NoError(t, x.Rollback())
}

func TestRollbackAggregatesErrors(t *testing.T) {
	h := newFakeHandle()
	x := NewXFRMManagerWithHandle(h)
	out, in, err := ChildSAConfigs(cbcParams(t, ikev2.RoleInitiator))
	require.NoError(t, err)
	require.NoError(t, x.AddSA(out))
	require.NoError(t, x.AddSA(in))

	h.failDel = errors.New("permission denied")
	err = x.Rollback()
	assert.Len(t, multierr.Errors(err), 2)
}

func TestDelSAMissingIsNoop(t *testing.T) {
	x := NewXFRMManagerWithHandle(newFakeHandle())
	assert.NoError(t, x.DelSA(1, net.ParseIP("192.0.2.1"), net.ParseIP("192.0.2.2"), netlink.XFRM_PROTO_ESP))
}
