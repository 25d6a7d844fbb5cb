package main

import (
	"encoding/binary"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/iniwex5/ikekeys/pkg/crypto"
	"github.com/iniwex5/ikekeys/pkg/ikev2"
	"github.com/iniwex5/ikekeys/pkg/logger"
)

// peer 演示交换中的一方
type peer struct {
	role  ikev2.Role
	dh    *crypto.DiffieHellman
	nonce []byte
	spi   uint64
	keys  *ikev2.IKESAKeys
	pkt   []byte // 本端发送的 IKE_SA_INIT
	id    []byte
}

func newPeer(role ikev2.Role, id string) (*peer, error) {
	dh, err := crypto.NewDiffieHellman(14)
	if err != nil {
		return nil, err
	}
	if err := dh.GenerateKey(); err != nil {
		return nil, err
	}
	nonce, err := crypto.RandomBytes(32)
	if err != nil {
		return nil, err
	}
	spiBytes, err := crypto.RandomBytes(8)
	if err != nil {
		return nil, err
	}
	spi := binary.BigEndian.Uint64(spiBytes)
	// 以公钥与 nonce 拼接代替真实的 IKE_SA_INIT 消息
	pkt := append(append([]byte(role.String()), dh.PublicKeyBytes()...), nonce...)
	return &peer{role: role, dh: dh, nonce: nonce, spi: spi, pkt: pkt, id: []byte(id)}, nil
}

func (p *peer) derive(prf *crypto.PRFDesc, integ *crypto.IntegDesc, encLen int, other *peer, ni, nr []byte, spis ikev2.SPIs) error {
	g, err := p.dh.ComputeSharedSecret(other.dh.PublicKeyBytes())
	if err != nil {
		return err
	}
	defer g.Release()
	skeyseed, err := ikev2.IKESASkeyseed(prf, ni, nr, g)
	if err != nil {
		return err
	}
	defer skeyseed.Release()
	km, err := ikev2.IKESAKeymat(prf, skeyseed, ni, nr, spis, ikev2.IKESAKeyLen(prf, integ.KeymatSize, encLen))
	if err != nil {
		return err
	}
	defer km.Release()
	p.keys, err = ikev2.SplitIKESAKeys(km, prf, integ.KeymatSize, encLen)
	return err
}

func (p *peer) state(conn string, by ikev2.AuthBy, prf *crypto.PRFDesc, psk []byte, ni, nr, received []byte) *ikev2.AuthState {
	return &ikev2.AuthState{
		Connection:          conn,
		Role:                p.role,
		AuthBy:              by,
		PRF:                 prf,
		PSK:                 psk,
		SK_pi:               p.keys.SK_pi,
		SK_pr:               p.keys.SK_pr,
		Ni:                  ni,
		Nr:                  nr,
		FirstPacketSent:     p.pkt,
		FirstPacketReceived: received,
	}
}

func (a *app) demoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "在本进程内模拟一次完整的 IKE_SA_INIT / IKE_AUTH 密钥派生与认证",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			prf, err := prfArg(cmd)
			if err != nil {
				return err
			}
			integ, err := integArg(cmd)
			if err != nil {
				return err
			}
			conn, _ := cmd.Flags().GetString("connection")
			null, _ := cmd.Flags().GetBool("null")

			by := ikev2.AuthByPSK
			var psk []byte
			if null {
				by = ikev2.AuthByNull
			} else if psk, err = a.cfg.PSK(conn); err != nil {
				return err
			}

			ini, err := newPeer(ikev2.RoleInitiator, "initiator.example.org")
			if err != nil {
				return err
			}
			rsp, err := newPeer(ikev2.RoleResponder, "responder.example.org")
			if err != nil {
				return err
			}
			ni, nr := ini.nonce, rsp.nonce
			spis := ikev2.SPIs{Initiator: ini.spi, Responder: rsp.spi}

			const encLen = 16 // AES-CBC-128
			if err := ini.derive(prf, integ, encLen, rsp, ni, nr, spis); err != nil {
				return err
			}
			if err := rsp.derive(prf, integ, encLen, ini, ni, nr, spis); err != nil {
				return err
			}
			defer func() {
				err = multierr.Combine(err, ini.keys.Release(), rsp.keys.Release())
			}()
			logger.Info("IKE SA 密钥派生完成",
				logger.Hex("spis", spis.Bytes()),
				logger.String("prf", prf.Name),
				logger.String("integ", integ.Name),
				logger.Int("sk-d", ini.keys.SK_d.Len()))

			auth := ikev2.NewAuthenticator(nil)
			exchange := func(signer, verifier *peer) (crypto.Mac, error) {
				idHash, err := ikev2.IDHash(prf, ikev2.IDHashKey(signer.role, ikev2.Local, signer.keys), ikev2.IDBody(ikev2.ID_FQDN, signer.id))
				if err != nil {
					return crypto.Mac{}, err
				}
				mac, err := auth.Sign(signer.state(conn, by, prf, psk, ni, nr, verifier.pkt), idHash)
				if err != nil {
					return crypto.Mac{}, err
				}
				// 校验方独立计算对端的 ID 哈希
				peerHash, err := ikev2.IDHash(prf, ikev2.IDHashKey(verifier.role, ikev2.Remote, verifier.keys), ikev2.IDBody(ikev2.ID_FQDN, signer.id))
				if err != nil {
					return crypto.Mac{}, err
				}
				payload := ikev2.NewAuthPayload(by.Method(), mac)
				wire, err := payload.Encode()
				if err != nil {
					return crypto.Mac{}, err
				}
				decoded, err := ikev2.DecodeAuthPayload(wire)
				if err != nil {
					return crypto.Mac{}, err
				}
				return mac, auth.Verify(verifier.state(conn, by, prf, psk, ni, nr, signer.pkt), peerHash, decoded.AuthData)
			}

			authI, err := exchange(ini, rsp)
			if err != nil {
				return err
			}
			authR, err := exchange(rsp, ini)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "SPIi     %016x\nSPIr     %016x\n", spis.Initiator, spis.Responder)
			fmt.Fprintf(out, "AUTH_i   %s\nAUTH_r   %s\n", authI, authR)
			fmt.Fprintf(out, "authby=%s 双向认证成功\n", by)
			return nil
		},
	}
	cmd.Flags().String("prf", "sha2_256", "PRF 名称或变换 ID")
	cmd.Flags().String("integ", "sha2_256_128", "完整性算法名称或变换 ID")
	cmd.Flags().String("connection", "default", "连接名 (用于查找 PSK)")
	cmd.Flags().Bool("null", false, "使用 NULL 认证 (RFC 7619)")
	return cmd
}
