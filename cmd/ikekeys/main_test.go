package main

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iniwex5/ikekeys/pkg/config"
	"github.com/iniwex5/ikekeys/pkg/crypto"
	"github.com/iniwex5/ikekeys/pkg/ikev2"
)

const (
	hexNi    = "000102030405060708090a0b0c0d0e0f"
	hexNr    = "101112131415161718191a1b1c1d1e1f"
	hexDH    = "202122232425262728292a2b2c2d2e2f303132333435363738393a3b3c3d3e3f"
	hexFirst = "66697273742d7061636b65742d6279746573" // "first-packet-bytes"
	hexSKd   = "dae1f11740aaa72340c660a6efb5670e542abe7d"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	prev := crypto.FIPSMode()
	t.Cleanup(func() { crypto.SetFIPSMode(prev) })

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := root.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ikekeys.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestAlgsCommand(t *testing.T) {
	out, err := run(t, "algs")
	require.NoError(t, err)
	assert.Contains(t, out, "HMAC_SHA2_256")
	assert.Contains(t, out, "cmac(aes)")
	assert.Contains(t, out, "FIPS PSK 最小长度: 8 字节")
}

func TestSkeyseedCommand(t *testing.T) {
	out, err := run(t, "skeyseed", "--prf", "sha1", "--ni", hexNi, "--nr", hexNr, "--dh", hexDH)
	require.NoError(t, err)
	assert.Contains(t, out, "860de445fd57f943c268a6f817b185b84c4806ab")

	out, err = run(t, "skeyseed", "--prf", "2", "--ni", hexNi, "--nr", hexNr, "--dh", hexDH, "--old-sk-d", hexSKd)
	require.NoError(t, err)
	assert.Contains(t, out, "373e9a9f324b36174bc56b2417c4e8429f4a1918")

	ppk := "6465666768696a6b6c6d6e6f707172737475767778797a7b7c7d7e7f80818283"
	out, err = run(t, "skeyseed", "--prf", "sha1", "--old-sk-d", hexSKd, "--ppk", ppk)
	require.NoError(t, err)
	assert.Contains(t, out, "a4d0d125e2d6052d41921c215d9534303a2aa245")

	_, err = run(t, "skeyseed", "--prf", "sha1", "--ni", hexNi, "--nr", hexNr)
	assert.Error(t, err)
	_, err = run(t, "skeyseed", "--prf", "nope", "--dh", hexDH)
	assert.Error(t, err)
}

func TestKeymatCommand(t *testing.T) {
	out, err := run(t, "keymat", "--prf", "sha1", "--integ", "none", "--enc-key-len", "0",
		"--skeyseed", "860de445fd57f943c268a6f817b185b84c4806ab",
		"--ni", hexNi, "--nr", hexNr, "--spi-i", "0102030405060708", "--spi-r", "0x1112131415161718")
	require.NoError(t, err)
	assert.Contains(t, out, hexSKd)
	assert.Contains(t, out, "f344311497f501d6e0807a409f78abdebcd9e4b5")
	assert.Contains(t, out, "5cfa13f55ff003b5f8623987671acb18561748f9")
	assert.NotContains(t, out, "SK_ai")
}

func TestChildCommand(t *testing.T) {
	// AES-CBC-128 + HMAC-SHA1-96: 2 * (16 + 20) 字节
	out, err := run(t, "child", "--prf", "sha1", "--encr", "12", "--integ", "sha1_96",
		"--sk-d", hexSKd, "--ni", hexNi, "--nr", hexNr)
	require.NoError(t, err)
	assert.Contains(t, out, "2db0345563de321e0df347ef53eca446")
	assert.Contains(t, out, "SK_ar")

	out, err = run(t, "child", "--prf", "sha1", "--sk-d", hexSKd, "--ni", hexNi, "--nr", hexNr, "--dh", hexDH)
	require.NoError(t, err)
	assert.Contains(t, out, "039538f82ccdfd240289f6a6361b58cbd9222cde")
	assert.NotContains(t, out, "SK_ai")

	_, err = run(t, "child", "--encr", "3", "--sk-d", hexSKd, "--ni", hexNi, "--nr", hexNr)
	assert.Error(t, err)
}

func TestPSKAuthCommand(t *testing.T) {
	cfg := writeConfig(t, "secrets:\n  test: \"this is a test psk secret\"\n")
	common := []string{"--config", cfg, "psk-auth", "--prf", "sha1", "--connection", "test",
		"--ni", hexNi, "--nr", hexNr, "--first-packet", hexFirst, "--sk-p", hexSKd,
		"--id-type", "1", "--id", "alice"}

	out, err := run(t, append(common, "--role", "initiator")...)
	require.NoError(t, err)
	assert.Contains(t, out, "8c7b9512bfb6b9267ca6c9811b4784748c84815c")

	out, err = run(t, append(common, "--role", "responder", "--verify", "8c7b9512bfb6b9267ca6c9811b4784748c84815c")...)
	require.NoError(t, err)
	assert.Contains(t, out, "OK")

	_, err = run(t, append(common, "--role", "responder", "--verify", "8c7b9512bfb6b9267ca6c9811b4784748c84815d")...)
	assert.ErrorIs(t, err, ikev2.ErrAuthMismatch)

	_, err = run(t, "psk-auth", "--connection", "missing", "--ni", hexNi, "--nr", hexNr, "--first-packet", hexFirst, "--sk-p", hexSKd)
	assert.Error(t, err)
}

func TestDemoCommand(t *testing.T) {
	cfg := writeConfig(t, "secrets:\n  default: \"0x000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f\"\n")
	out, err := run(t, "--config", cfg, "demo")
	require.NoError(t, err)
	assert.Contains(t, out, "authby=secret 双向认证成功")

	out, err = run(t, "demo", "--null", "--prf", "aes_cmac", "--integ", "aes_cmac_96")
	require.NoError(t, err)
	assert.Contains(t, out, "authby=null 双向认证成功")
}

func TestFIPSRejectsShortSecrets(t *testing.T) {
	cfg := writeConfig(t, "secrets:\n  short: \"abc\"\n")
	_, err := run(t, "--config", cfg, "--fips", "algs")
	assert.ErrorIs(t, err, config.ErrSecretTooShort)

	_, err = run(t, "--config", cfg, "algs")
	assert.NoError(t, err)
}

func TestNewPeer(t *testing.T) {
	p, err := newPeer(ikev2.RoleResponder, "responder.example.org")
	require.NoError(t, err)
	assert.Len(t, p.nonce, 32)
	assert.NotZero(t, p.spi)

	// SPI 与线上编码一致 (大端)
	wire := ikev2.SPIs{Initiator: 1, Responder: p.spi}.Bytes()
	assert.Equal(t, p.spi, binary.BigEndian.Uint64(wire[8:]))
	assert.True(t, bytes.HasPrefix(p.pkt, []byte("responder")))
}
